package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alexroche/boutique/internal/config"
	"github.com/alexroche/boutique/internal/domain/user"
	"github.com/alexroche/boutique/internal/http/handlers"
	"github.com/alexroche/boutique/internal/http/middlewares"
	"github.com/alexroche/boutique/internal/repo/postgres"
	"github.com/alexroche/boutique/internal/security"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Fake store implementing handlers.UsersStore, one override per method.

type fakeUsersRepo struct {
	createFn         func(ctx context.Context, u user.User) error
	getByEmailFn     func(ctx context.Context, email string) (user.User, error)
	getByIDFn        func(ctx context.Context, id string) (user.User, error)
	listFn           func(ctx context.Context) ([]user.User, error)
	updateProfileFn  func(ctx context.Context, id string, edit user.EditFields) (user.User, error)
	updatePasswordFn func(ctx context.Context, id, passwordHash string) error
	touchLastLoginFn func(ctx context.Context, id string, at time.Time) error
	deleteFn         func(ctx context.Context, id string) error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u user.User) error {
	if f.createFn != nil {
		return f.createFn(ctx, u)
	}

	return nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if f.getByEmailFn != nil {
		return f.getByEmailFn(ctx, email)
	}

	return user.User{}, postgres.ErrUserNotFound
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}

	return user.User{}, postgres.ErrUserNotFound
}

func (f *fakeUsersRepo) List(ctx context.Context) ([]user.User, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}

	return nil, nil
}

func (f *fakeUsersRepo) UpdateProfile(ctx context.Context, id string, edit user.EditFields) (user.User, error) {
	if f.updateProfileFn != nil {
		return f.updateProfileFn(ctx, id, edit)
	}

	return user.User{}, nil
}

func (f *fakeUsersRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if f.updatePasswordFn != nil {
		return f.updatePasswordFn(ctx, id, passwordHash)
	}

	return nil
}

func (f *fakeUsersRepo) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	if f.touchLastLoginFn != nil {
		return f.touchLastLoginFn(ctx, id, at)
	}

	return nil
}

func (f *fakeUsersRepo) Delete(ctx context.Context, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}

	return nil
}

type fakeIssuer struct {
	issueFn func(userID, email string) (string, error)
}

func (f *fakeIssuer) Issue(userID, email string) (string, error) {
	if f.issueFn != nil {
		return f.issueFn(userID, email)
	}

	return "token-" + userID, nil
}

func testConfig() config.Config {
	return config.Config{
		Env:        "test",
		CookieName: "token",
		SessionTTL: time.Hour,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newUsersHandler(repo *fakeUsersRepo) *handlers.UsersHandler {
	return handlers.NewUsersHandler(repo, &fakeIssuer{}, testConfig(), testLogger())
}

// identityMiddleware stands in for the real session middleware.
func identityMiddleware(id middlewares.Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		middlewares.SetIdentity(c, id)
		c.Next()
	}
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}

	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("could not decode error envelope: %v (body=%s)", err, body)
	}

	return envelope.Error.Code
}

const registerBody = `{
	"firstname": "Jane",
	"lastname": "Doe",
	"email": "Jane@Example.com",
	"password": "s3cret",
	"invoiceAddress": {
		"line1": "12 rue des Lilas",
		"postalCode": "75011",
		"city": "Paris",
		"country": "France"
	}
}`

func TestRegister(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		repoSetup  func(*fakeUsersRepo)
		wantStatus int
		wantCode   string
	}{
		{
			name: "success",
			body: registerBody,
			repoSetup: func(f *fakeUsersRepo) {
				f.createFn = func(ctx context.Context, u user.User) error {
					if u.Email != "jane@example.com" {
						return errors.New("email was not lowercased")
					}
					if u.Role != user.RoleUser {
						return errors.New("new users must get the user role")
					}
					if u.PasswordHash == "s3cret" || u.PasswordHash == "" {
						return errors.New("password must be stored hashed")
					}
					return nil
				}
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "duplicate_email",
			body: registerBody,
			repoSetup: func(f *fakeUsersRepo) {
				f.createFn = func(ctx context.Context, u user.User) error {
					return postgres.ErrEmailTaken
				}
			},
			wantStatus: http.StatusConflict,
			wantCode:   "DUPLICATE_EMAIL",
		},
		{
			name:       "validation_error_missing_address",
			body:       `{"firstname": "Jane", "lastname": "Doe", "email": "jane@example.com", "password": "s3cret"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "validation_error_short_firstname",
			body:       `{"firstname": "Jo", "lastname": "Doe", "email": "jane@example.com", "password": "s3cret", "invoiceAddress": {"line1": "a", "postalCode": "b", "city": "c", "country": "d"}}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "invalid_json",
			body:       `{"firstname":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeUsersRepo{}

			if tt.repoSetup != nil {
				tt.repoSetup(repo)
			}

			h := newUsersHandler(repo)

			r := gin.New()
			r.POST("/users/register", h.Register)

			w := doJSON(r, http.MethodPost, "/users/register", tt.body)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}

			if tt.wantCode != "" {
				if got := errorCode(t, w.Body.Bytes()); got != tt.wantCode {
					t.Errorf("got error code %q, want %q", got, tt.wantCode)
				}
			}
		})
	}
}

func storedUser(t *testing.T, password string) user.User {
	t.Helper()

	hash, err := security.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	return user.User{
		ID:           "user-1",
		Firstname:    "Jane",
		Lastname:     "Doe",
		Email:        "jane@example.com",
		PasswordHash: hash,
		Role:         user.RoleUser,
		CreatedAt:    time.Now().UTC(),
	}
}

func TestLogin(t *testing.T) {
	known := storedUser(t, "s3cret")

	withUser := func(f *fakeUsersRepo) {
		f.getByEmailFn = func(ctx context.Context, email string) (user.User, error) {
			if email == known.Email {
				return known, nil
			}
			return user.User{}, postgres.ErrUserNotFound
		}
	}

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
		wantCookie bool
	}{
		{
			name:       "success_sets_cookie",
			body:       `{"email": "jane@example.com", "password": "s3cret"}`,
			wantStatus: http.StatusOK,
			wantCookie: true,
		},
		{
			name:       "mixed_case_email",
			body:       `{"email": "Jane@Example.COM", "password": "s3cret"}`,
			wantStatus: http.StatusOK,
			wantCookie: true,
		},
		{
			name:       "unknown_email",
			body:       `{"email": "nobody@example.com", "password": "s3cret"}`,
			wantStatus: http.StatusNotFound,
			wantCode:   "LOGIN_INCORRECT",
		},
		{
			name:       "wrong_password",
			body:       `{"email": "jane@example.com", "password": "nope"}`,
			wantStatus: http.StatusNotFound,
			wantCode:   "LOGIN_INCORRECT",
		},
		{
			name:       "malformed_body",
			body:       `{"email":`,
			wantStatus: http.StatusNotFound,
			wantCode:   "LOGIN_INCORRECT",
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeUsersRepo{}
			withUser(repo)

			h := newUsersHandler(repo)

			r := gin.New()
			r.POST("/users/login", h.Login)

			w := doJSON(r, http.MethodPost, "/users/login", tt.body)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}

			if tt.wantCode != "" {
				if got := errorCode(t, w.Body.Bytes()); got != tt.wantCode {
					t.Errorf("got error code %q, want %q", got, tt.wantCode)
				}
			}

			gotCookie := false
			for _, c := range w.Result().Cookies() {
				if c.Name == "token" && c.Value != "" {
					gotCookie = true

					if !c.HttpOnly {
						t.Error("session cookie is not http-only")
					}
				}
			}

			if gotCookie != tt.wantCookie {
				t.Errorf("cookie set = %v, want %v", gotCookie, tt.wantCookie)
			}
		})
	}
}

// Unknown email and wrong password must be indistinguishable byte for byte.
func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	known := storedUser(t, "s3cret")

	repo := &fakeUsersRepo{
		getByEmailFn: func(ctx context.Context, email string) (user.User, error) {
			if email == known.Email {
				return known, nil
			}
			return user.User{}, postgres.ErrUserNotFound
		},
	}

	h := newUsersHandler(repo)

	r := gin.New()
	r.POST("/users/login", h.Login)

	unknownEmail := doJSON(r, http.MethodPost, "/users/login", `{"email": "nobody@example.com", "password": "s3cret"}`)
	wrongPassword := doJSON(r, http.MethodPost, "/users/login", `{"email": "jane@example.com", "password": "nope"}`)

	if unknownEmail.Code != wrongPassword.Code {
		t.Errorf("status differs: %d vs %d", unknownEmail.Code, wrongPassword.Code)
	}

	if unknownEmail.Body.String() != wrongPassword.Body.String() {
		t.Errorf("bodies differ:\n%s\n%s", unknownEmail.Body.String(), wrongPassword.Body.String())
	}
}

func TestLoginApp(t *testing.T) {
	known := storedUser(t, "s3cret")

	repo := &fakeUsersRepo{
		getByEmailFn: func(ctx context.Context, email string) (user.User, error) {
			if email == known.Email {
				return known, nil
			}
			return user.User{}, postgres.ErrUserNotFound
		},
	}

	h := newUsersHandler(repo)

	r := gin.New()
	r.POST("/users/loginApp", h.LoginApp)

	w := doJSON(r, http.MethodPost, "/users/loginApp", `{"email": "jane@example.com", "password": "s3cret"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Code  string `json:"code"`
		User  string `json:"user"`
		Token string `json:"token"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("could not decode body: %v", err)
	}

	if resp.Code != "LOGIN_SUCCESS" {
		t.Errorf("got code %q, want LOGIN_SUCCESS", resp.Code)
	}

	if resp.Token == "" {
		t.Error("token missing from response body")
	}

	// App login must not set the browser cookie.
	for _, c := range w.Result().Cookies() {
		if c.Name == "token" {
			t.Error("loginApp set the session cookie")
		}
	}
}

func TestMe(t *testing.T) {
	known := storedUser(t, "s3cret")

	tests := []struct {
		name       string
		identity   *middlewares.Identity
		repoSetup  func(*fakeUsersRepo)
		wantStatus int
		wantCode   string
	}{
		{
			name:     "success",
			identity: &middlewares.Identity{ID: known.ID, Email: known.Email, Role: known.Role},
			repoSetup: func(f *fakeUsersRepo) {
				f.getByIDFn = func(ctx context.Context, id string) (user.User, error) {
					return known, nil
				}
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing_identity",
			identity:   nil,
			wantStatus: http.StatusUnauthorized,
			wantCode:   "UNAUTHORIZED",
		},
		{
			name:       "account_deleted",
			identity:   &middlewares.Identity{ID: "gone", Email: "gone@example.com", Role: user.RoleUser},
			wantStatus: http.StatusUnauthorized,
			wantCode:   "USER_NOT_FOUND",
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeUsersRepo{}

			if tt.repoSetup != nil {
				tt.repoSetup(repo)
			}

			h := newUsersHandler(repo)

			r := gin.New()

			if tt.identity != nil {
				r.Use(identityMiddleware(*tt.identity))
			}

			r.GET("/users/me", h.Me)

			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}

			if tt.wantCode != "" {
				if got := errorCode(t, w.Body.Bytes()); got != tt.wantCode {
					t.Errorf("got error code %q, want %q", got, tt.wantCode)
				}
			}
		})
	}
}

func TestEdit(t *testing.T) {
	self := middlewares.Identity{ID: "user-1", Email: "jane@example.com", Role: user.RoleUser}
	admin := middlewares.Identity{ID: "admin-1", Email: "root@example.com", Role: user.RoleAdmin}

	tests := []struct {
		name       string
		identity   middlewares.Identity
		body       string
		repoSetup  func(*fakeUsersRepo)
		wantStatus int
		wantCode   string
	}{
		{
			name:     "self_edit_firstname",
			identity: self,
			body:     `{"user": "user-1", "edit": {"firstname": "Janet"}}`,
			repoSetup: func(f *fakeUsersRepo) {
				f.updateProfileFn = func(ctx context.Context, id string, edit user.EditFields) (user.User, error) {
					if id != "user-1" {
						return user.User{}, errors.New("wrong target id")
					}
					return user.User{ID: id, Firstname: "Janet", Email: "jane@example.com"}, nil
				}
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "user_cannot_edit_other_user",
			identity:   self,
			body:       `{"user": "user-2", "edit": {"firstname": "Janet"}}`,
			wantStatus: http.StatusForbidden,
			wantCode:   "FORBIDDEN",
		},
		{
			name:       "user_cannot_change_own_role",
			identity:   self,
			body:       `{"user": "user-1", "edit": {"role": "admin"}}`,
			wantStatus: http.StatusForbidden,
			wantCode:   "FORBIDDEN",
		},
		{
			name:     "admin_edits_any_user",
			identity: admin,
			body:     `{"user": "user-1", "edit": {"role": "admin"}}`,
			repoSetup: func(f *fakeUsersRepo) {
				f.updateProfileFn = func(ctx context.Context, id string, edit user.EditFields) (user.User, error) {
					return user.User{ID: id, Email: "jane@example.com", Role: user.RoleAdmin}, nil
				}
			},
			wantStatus: http.StatusOK,
		},
		{
			name:     "target_not_found",
			identity: admin,
			body:     `{"user": "ghost", "edit": {"firstname": "Janet"}}`,
			repoSetup: func(f *fakeUsersRepo) {
				f.updateProfileFn = func(ctx context.Context, id string, edit user.EditFields) (user.User, error) {
					return user.User{}, postgres.ErrUserNotFound
				}
			},
			wantStatus: http.StatusNotFound,
			wantCode:   "USER_NOT_FOUND",
		},
		{
			name:     "new_email_already_taken",
			identity: self,
			body:     `{"user": "user-1", "edit": {"email": "taken@example.com"}}`,
			repoSetup: func(f *fakeUsersRepo) {
				f.updateProfileFn = func(ctx context.Context, id string, edit user.EditFields) (user.User, error) {
					return user.User{}, postgres.ErrEmailTaken
				}
			},
			wantStatus: http.StatusConflict,
			wantCode:   "DUPLICATE_EMAIL",
		},
		{
			name:       "missing_edit_object",
			identity:   self,
			body:       `{"user": "user-1"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_BODY",
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeUsersRepo{}

			if tt.repoSetup != nil {
				tt.repoSetup(repo)
			}

			h := newUsersHandler(repo)

			r := gin.New()
			r.Use(identityMiddleware(tt.identity))
			r.POST("/users/edit", h.Edit)

			w := doJSON(r, http.MethodPost, "/users/edit", tt.body)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}

			if tt.wantCode != "" {
				if got := errorCode(t, w.Body.Bytes()); got != tt.wantCode {
					t.Errorf("got error code %q, want %q", got, tt.wantCode)
				}
			}
		})
	}
}

// Changing your own email invalidates the signed identity, so the handler
// must rotate the cookie in the same response.
func TestEditOwnEmailRotatesCookie(t *testing.T) {
	repo := &fakeUsersRepo{
		updateProfileFn: func(ctx context.Context, id string, edit user.EditFields) (user.User, error) {
			return user.User{ID: id, Email: "new@example.com"}, nil
		},
	}

	h := newUsersHandler(repo)

	r := gin.New()
	r.Use(identityMiddleware(middlewares.Identity{ID: "user-1", Email: "old@example.com", Role: user.RoleUser}))
	r.POST("/users/edit", h.Edit)

	w := doJSON(r, http.MethodPost, "/users/edit", `{"user": "user-1", "edit": {"email": "new@example.com"}}`)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var sawClear, sawFresh bool

	for _, c := range w.Result().Cookies() {
		if c.Name != "token" {
			continue
		}

		if c.Value == "" && c.MaxAge < 0 {
			sawClear = true
		}

		if c.Value != "" {
			sawFresh = true
		}
	}

	if !sawClear {
		t.Error("old session cookie was not cleared")
	}

	if !sawFresh {
		t.Error("fresh session cookie was not set")
	}
}

func TestEditOtherUserByAdminDoesNotTouchCookie(t *testing.T) {
	repo := &fakeUsersRepo{
		updateProfileFn: func(ctx context.Context, id string, edit user.EditFields) (user.User, error) {
			return user.User{ID: id, Email: "new@example.com"}, nil
		},
	}

	h := newUsersHandler(repo)

	r := gin.New()
	r.Use(identityMiddleware(middlewares.Identity{ID: "admin-1", Email: "root@example.com", Role: user.RoleAdmin}))
	r.POST("/users/edit", h.Edit)

	w := doJSON(r, http.MethodPost, "/users/edit", `{"user": "user-1", "edit": {"email": "new@example.com"}}`)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	if len(w.Result().Cookies()) != 0 {
		t.Error("admin editing another user must not touch the admin's cookie")
	}
}

func TestChangePassword(t *testing.T) {
	target := storedUser(t, "current-pwd")

	self := middlewares.Identity{ID: target.ID, Email: target.Email, Role: user.RoleUser}
	admin := middlewares.Identity{ID: "admin-1", Email: "root@example.com", Role: user.RoleAdmin}

	withTarget := func(f *fakeUsersRepo) {
		f.getByIDFn = func(ctx context.Context, id string) (user.User, error) {
			if id == target.ID {
				return target, nil
			}
			return user.User{}, postgres.ErrUserNotFound
		}
	}

	tests := []struct {
		name       string
		identity   middlewares.Identity
		body       string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "self_success",
			identity:   self,
			body:       `{"userId": "user-1", "currentPassword": "current-pwd", "newPassword": "n3w-pwd"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "self_missing_current_password",
			identity:   self,
			body:       `{"userId": "user-1", "newPassword": "n3w-pwd"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "CURRENT_PASSWORD_REQUIRED",
		},
		{
			name:       "self_wrong_current_password",
			identity:   self,
			body:       `{"userId": "user-1", "currentPassword": "nope", "newPassword": "n3w-pwd"}`,
			wantStatus: http.StatusUnauthorized,
			wantCode:   "INCORRECT_PASSWORD",
		},
		{
			name:       "user_cannot_change_other_password",
			identity:   self,
			body:       `{"userId": "user-2", "currentPassword": "x", "newPassword": "n3w-pwd"}`,
			wantStatus: http.StatusForbidden,
			wantCode:   "FORBIDDEN",
		},
		{
			name:       "admin_resets_other_without_current",
			identity:   admin,
			body:       `{"userId": "user-1", "newPassword": "n3w-pwd"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "admin_own_account_still_needs_current",
			identity:   middlewares.Identity{ID: target.ID, Email: target.Email, Role: user.RoleAdmin},
			body:       `{"userId": "user-1", "newPassword": "n3w-pwd"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "CURRENT_PASSWORD_REQUIRED",
		},
		{
			name:       "target_not_found",
			identity:   admin,
			body:       `{"userId": "ghost", "newPassword": "n3w-pwd"}`,
			wantStatus: http.StatusNotFound,
			wantCode:   "USER_NOT_FOUND",
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeUsersRepo{}
			withTarget(repo)

			h := newUsersHandler(repo)

			r := gin.New()
			r.Use(identityMiddleware(tt.identity))
			r.POST("/users/changePassword", h.ChangePassword)

			w := doJSON(r, http.MethodPost, "/users/changePassword", tt.body)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}

			if tt.wantCode != "" {
				if got := errorCode(t, w.Body.Bytes()); got != tt.wantCode {
					t.Errorf("got error code %q, want %q", got, tt.wantCode)
				}
			}
		})
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	h := newUsersHandler(&fakeUsersRepo{})

	r := gin.New()
	r.GET("/users/logout", h.Logout)

	req := httptest.NewRequest(http.MethodGet, "/users/logout", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	cleared := false
	for _, c := range w.Result().Cookies() {
		if c.Name == "token" && c.Value == "" && c.MaxAge < 0 {
			cleared = true
		}
	}

	if !cleared {
		t.Error("logout did not clear the session cookie")
	}
}

func TestGetAllNeverExposesPasswordHash(t *testing.T) {
	known := storedUser(t, "s3cret")

	repo := &fakeUsersRepo{
		listFn: func(ctx context.Context) ([]user.User, error) {
			return []user.User{known}, nil
		},
	}

	h := newUsersHandler(repo)

	r := gin.New()
	r.GET("/users/getAll", h.GetAll)

	req := httptest.NewRequest(http.MethodGet, "/users/getAll", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	body := w.Body.String()

	if strings.Contains(body, known.PasswordHash) || strings.Contains(strings.ToLower(body), "passwordhash") {
		t.Errorf("password hash leaked into listing: %s", body)
	}

	var resp struct {
		Count int `json:"count"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("could not decode body: %v", err)
	}

	if resp.Count != 1 {
		t.Errorf("got count %d, want 1", resp.Count)
	}
}

func TestDeleteUser(t *testing.T) {
	admin := middlewares.Identity{ID: "admin-1", Email: "root@example.com", Role: user.RoleAdmin}

	tests := []struct {
		name       string
		targetID   string
		repoSetup  func(*fakeUsersRepo)
		wantStatus int
		wantCode   string
	}{
		{
			name:       "success",
			targetID:   "user-1",
			wantStatus: http.StatusOK,
		},
		{
			name:       "self_delete_blocked",
			targetID:   "admin-1",
			wantStatus: http.StatusForbidden,
			wantCode:   "FORBIDDEN",
		},
		{
			name:     "not_found",
			targetID: "ghost",
			repoSetup: func(f *fakeUsersRepo) {
				f.deleteFn = func(ctx context.Context, id string) error {
					return postgres.ErrUserNotFound
				}
			},
			wantStatus: http.StatusNotFound,
			wantCode:   "USER_NOT_FOUND",
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeUsersRepo{}

			if tt.repoSetup != nil {
				tt.repoSetup(repo)
			}

			h := newUsersHandler(repo)

			r := gin.New()
			r.Use(identityMiddleware(admin))
			r.DELETE("/users/:id", h.Delete)

			req := httptest.NewRequest(http.MethodDelete, "/users/"+tt.targetID, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}

			if tt.wantCode != "" {
				if got := errorCode(t, w.Body.Bytes()); got != tt.wantCode {
					t.Errorf("got error code %q, want %q", got, tt.wantCode)
				}
			}
		})
	}
}

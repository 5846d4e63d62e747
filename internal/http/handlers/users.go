package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alexroche/boutique/internal/config"
	"github.com/alexroche/boutique/internal/domain/user"
	"github.com/alexroche/boutique/internal/http/middlewares"
	"github.com/alexroche/boutique/internal/repo/postgres"
	"github.com/alexroche/boutique/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UsersStore interface {
	Create(ctx context.Context, u user.User) error
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	List(ctx context.Context) ([]user.User, error)
	UpdateProfile(ctx context.Context, id string, edit user.EditFields) (user.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

type TokenIssuer interface {
	Issue(userID, email string) (string, error)
}

type UsersHandler struct {
	users UsersStore
	codec TokenIssuer
	cfg   config.Config
	log   *slog.Logger
}

func NewUsersHandler(users UsersStore, codec TokenIssuer, cfg config.Config, log *slog.Logger) *UsersHandler {
	return &UsersHandler{
		users: users,
		codec: codec,
		cfg:   cfg,
		log:   log,
	}
}

// errLoginIncorrect covers both unknown email and wrong password. The two
// cases must stay indistinguishable to the client (account enumeration).
var errLoginIncorrect = errors.New("login incorrect")

func (h *UsersHandler) Ping(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"response": "API is running"})
}

func (h *UsersHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, CodeValidationError, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		h.log.ErrorContext(cctx, "password hashing failed", "err", err)
		RespondInternal(ctx, "Could not create user")
		return
	}

	u := user.User{
		ID:             uuid.NewString(),
		Firstname:      req.Firstname,
		Lastname:       req.Lastname,
		Email:          strings.ToLower(req.Email),
		PasswordHash:   hash,
		Role:           user.RoleUser,
		InvoiceAddress: req.InvoiceAddress,
		CreatedAt:      time.Now().UTC(),
	}

	err = h.users.Create(cctx, u)

	if err != nil {
		if errors.Is(err, postgres.ErrEmailTaken) {
			RespondConflict(ctx, CodeDuplicateEmail, "Email is already in use")
			return
		}

		h.log.ErrorContext(cctx, "user creation failed", "err", err)
		RespondInternal(ctx, "Could not create user")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"code":    "USER_CREATED",
		"message": "User created successfully",
	})
}

// authenticate resolves a credential pair to a user plus a fresh session
// token. Both login transports go through here so they cannot drift apart.
func (h *UsersHandler) authenticate(ctx context.Context, email, password string) (user.User, string, error) {
	u, err := h.users.GetByEmail(ctx, strings.ToLower(email))

	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			return user.User{}, "", errLoginIncorrect
		}

		return user.User{}, "", err
	}

	if !security.VerifyPassword(u.PasswordHash, password) {
		return user.User{}, "", errLoginIncorrect
	}

	token, err := h.codec.Issue(u.ID, u.Email)

	if err != nil {
		return user.User{}, "", err
	}

	now := time.Now().UTC()

	if err := h.users.TouchLastLogin(ctx, u.ID, now); err != nil {
		return user.User{}, "", err
	}

	u.LastLogin = &now

	return u, token, nil
}

// Login is the browser entry point: the token travels back in a cookie.
func (h *UsersHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	// A malformed login attempt gets the same answer as a wrong password.
	if err := ctx.ShouldBindJSON(&req); err != nil {
		RespondNotFound(ctx, CodeLoginIncorrect, "Email or password is incorrect")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	u, token, err := h.authenticate(cctx, req.Email, req.Password)

	if err != nil {
		if errors.Is(err, errLoginIncorrect) {
			RespondNotFound(ctx, CodeLoginIncorrect, "Email or password is incorrect")
			return
		}

		h.log.ErrorContext(cctx, "login failed", "err", err)
		RespondInternal(ctx, "Could not log in")
		return
	}

	h.setSessionCookie(ctx, token)

	ctx.JSON(http.StatusOK, gin.H{
		"code": "LOGIN-SUCCESS",
		"user": u.Email,
	})
}

// LoginApp is the non-browser entry point: the token is returned in the
// body for bearer-style use. Success and failure must mirror Login exactly.
func (h *UsersHandler) LoginApp(ctx *gin.Context) {
	var req user.LoginRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		RespondNotFound(ctx, CodeLoginIncorrect, "Email or password is incorrect")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	u, token, err := h.authenticate(cctx, req.Email, req.Password)

	if err != nil {
		if errors.Is(err, errLoginIncorrect) {
			RespondNotFound(ctx, CodeLoginIncorrect, "Email or password is incorrect")
			return
		}

		h.log.ErrorContext(cctx, "login failed", "err", err)
		RespondInternal(ctx, "Could not log in")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code":  "LOGIN_SUCCESS",
		"user":  u.Email,
		"token": token,
	})
}

func (h *UsersHandler) Me(ctx *gin.Context) {
	identity, ok := middlewares.IdentityFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, CodeUnauthorized, "Missing identity context")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, identity.ID)

	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			RespondUnauthorized(ctx, CodeUserNotFound, "Account no longer exists")
			return
		}

		h.log.ErrorContext(cctx, "me lookup failed", "err", err)
		RespondInternal(ctx, "Could not load user")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code": "OK",
		"user": u,
	})
}

func (h *UsersHandler) Edit(ctx *gin.Context) {
	identity, ok := middlewares.IdentityFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, CodeUnauthorized, "Missing identity context")
		return
	}

	var req user.EditRequest

	if !BindJSON(ctx, CodeInvalidBody, &req) {
		return
	}

	isAdmin := identity.IsAdmin()
	isSelf := identity.ID == req.User

	if !isAdmin && !isSelf {
		RespondForbidden(ctx, "You can only edit your own account")
		return
	}

	// Self-privilege-escalation is blocked regardless of the owner check.
	if !isAdmin && req.Edit.Role != nil {
		RespondForbidden(ctx, "You cannot change your own role")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	updated, err := h.users.UpdateProfile(cctx, req.User, *req.Edit)

	if err != nil {
		switch {
		case errors.Is(err, postgres.ErrUserNotFound):
			RespondNotFound(ctx, CodeUserNotFound, "User not found")
		case errors.Is(err, postgres.ErrEmailTaken):
			RespondConflict(ctx, CodeDuplicateEmail, "Email is already in use")
		default:
			h.log.ErrorContext(cctx, "profile update failed", "err", err)
			RespondInternal(ctx, "Could not update user")
		}

		return
	}

	// The email is part of the signed identity: when the owner changes it,
	// the old token no longer matches and must be rotated.
	if isSelf && req.Edit.Email != nil && !strings.EqualFold(identity.Email, updated.Email) {
		h.clearSessionCookie(ctx)

		token, err := h.codec.Issue(updated.ID, updated.Email)

		if err != nil {
			h.log.ErrorContext(cctx, "token rotation failed", "err", err)
			RespondInternal(ctx, "Could not refresh session")
			return
		}

		h.setSessionCookie(ctx, token)
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code": "USER_UPDATED",
		"data": updated,
	})
}

func (h *UsersHandler) ChangePassword(ctx *gin.Context) {
	identity, ok := middlewares.IdentityFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, CodeUnauthorized, "Missing identity context")
		return
	}

	var req user.ChangePasswordRequest

	if !BindJSON(ctx, CodeInvalidBody, &req) {
		return
	}

	isAdmin := identity.IsAdmin()
	isSelf := identity.ID == req.UserID

	if !isAdmin && !isSelf {
		RespondForbidden(ctx, "You can only change your own password")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	target, err := h.users.GetByID(cctx, req.UserID)

	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			RespondNotFound(ctx, CodeUserNotFound, "User not found")
			return
		}

		h.log.ErrorContext(cctx, "password change lookup failed", "err", err)
		RespondInternal(ctx, "Could not change password")
		return
	}

	// An admin may reset someone else's password blind; everyone else,
	// admins included for their own account, must prove the current one.
	mustVerify := !isAdmin || isSelf

	if mustVerify {
		if req.CurrentPassword == "" {
			RespondBadRequest(ctx, CodeCurrentPwdRequired, "Current password is required", nil)
			return
		}

		if !security.VerifyPassword(target.PasswordHash, req.CurrentPassword) {
			RespondUnauthorized(ctx, CodeIncorrectPassword, "Current password is incorrect")
			return
		}
	}

	hash, err := security.HashPassword(req.NewPassword)

	if err != nil {
		h.log.ErrorContext(cctx, "password hashing failed", "err", err)
		RespondInternal(ctx, "Could not change password")
		return
	}

	err = h.users.UpdatePassword(cctx, req.UserID, hash)

	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			RespondNotFound(ctx, CodeUserNotFound, "User not found")
			return
		}

		h.log.ErrorContext(cctx, "password update failed", "err", err)
		RespondInternal(ctx, "Could not change password")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code":    "PASSWORD_UPDATED",
		"message": "Password updated successfully",
	})
}

// Logout clears the client-held cookie. There is no server-side revocation
// list; a stolen token stays valid until its natural expiry.
func (h *UsersHandler) Logout(ctx *gin.Context) {
	h.clearSessionCookie(ctx)

	ctx.JSON(http.StatusOK, gin.H{"code": "LOGOUT_SUCCESS"})
}

func (h *UsersHandler) GetAll(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	users, err := h.users.List(cctx)

	if err != nil {
		h.log.ErrorContext(cctx, "user listing failed", "err", err)
		RespondInternal(ctx, "Could not list users")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code":  "OK",
		"users": users,
		"count": len(users),
	})
}

func (h *UsersHandler) Delete(ctx *gin.Context) {
	identity, ok := middlewares.IdentityFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, CodeUnauthorized, "Missing identity context")
		return
	}

	id := ctx.Param("id")

	// Self-deletion is blocked on this path to avoid admin lockout.
	if id == identity.ID {
		RespondForbidden(ctx, "You cannot delete your own account")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	err := h.users.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			RespondNotFound(ctx, CodeUserNotFound, "User not found")
			return
		}

		h.log.ErrorContext(cctx, "user deletion failed", "err", err)
		RespondInternal(ctx, "Could not delete user")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code":    "USER_DELETED",
		"message": "User deleted successfully",
	})
}

// Session cookie helpers

func (h *UsersHandler) setSessionCookie(ctx *gin.Context, token string) {
	ctx.SetSameSite(http.SameSiteStrictMode)

	ctx.SetCookie(
		h.cfg.CookieName,
		token,
		int(h.cfg.SessionTTL.Seconds()),
		"/",
		"",
		h.cfg.IsProd(),
		true, // HttpOnly
	)
}

func (h *UsersHandler) clearSessionCookie(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteStrictMode)

	ctx.SetCookie(
		h.cfg.CookieName,
		"",
		-1,
		"/",
		"",
		h.cfg.IsProd(),
		true,
	)
}

package user

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type InvoiceAddress struct {
	Line1             string `json:"line1" binding:"required"`
	Line2             string `json:"line2,omitempty"`
	PostalCode        string `json:"postalCode" binding:"required"`
	City              string `json:"city" binding:"required"`
	StateOrDepartment string `json:"stateOrDepartment,omitempty"`
	Country           string `json:"country" binding:"required"`
}

type User struct {
	ID             string         `json:"id"`
	Firstname      string         `json:"firstname"`
	Lastname       string         `json:"lastname"`
	Email          string         `json:"email"`
	PasswordHash   string         `json:"-"` // never expose hash in JSON
	Role           string         `json:"role"`
	InvoiceAddress InvoiceAddress `json:"invoiceAddress"`
	CreatedAt      time.Time      `json:"createdAt"`
	LastLogin      *time.Time     `json:"lastLogin"`
}

type RegisterRequest struct {
	Firstname      string         `json:"firstname" binding:"required,min=3,max=20"`
	Lastname       string         `json:"lastname" binding:"required,min=3,max=30"`
	Email          string         `json:"email" binding:"required,email,max=100"`
	Password       string         `json:"password" binding:"required,min=3,max=200"`
	InvoiceAddress InvoiceAddress `json:"invoiceAddress" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// EditFields carries a partial update; nil means "leave unchanged".
type EditFields struct {
	Firstname      *string         `json:"firstname,omitempty" binding:"omitempty,min=3,max=20"`
	Lastname       *string         `json:"lastname,omitempty" binding:"omitempty,min=3,max=30"`
	Email          *string         `json:"email,omitempty" binding:"omitempty,email,max=100"`
	Role           *string         `json:"role,omitempty" binding:"omitempty,oneof=user admin"`
	InvoiceAddress *InvoiceAddress `json:"invoiceAddress,omitempty"`
}

func (e EditFields) Empty() bool {
	return e.Firstname == nil &&
		e.Lastname == nil &&
		e.Email == nil &&
		e.Role == nil &&
		e.InvoiceAddress == nil
}

type EditRequest struct {
	User string      `json:"user" binding:"required"`
	Edit *EditFields `json:"edit" binding:"required"`
}

type ChangePasswordRequest struct {
	UserID          string `json:"userId" binding:"required"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword" binding:"required,min=3,max=200"`
}

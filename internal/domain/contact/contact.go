package contact

import (
	"regexp"
	"time"
)

type Message struct {
	ID        string    `json:"id"`
	Fullname  string    `json:"fullname"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Subject   string    `json:"subject"`
	Body      string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

type CreateMessageRequest struct {
	Fullname string `json:"fullname" binding:"required,min=2,max=255"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required"`
	Subject  string `json:"subject" binding:"required,min=3,max=255"`
	Body     string `json:"message" binding:"required,min=3,max=2000"`
}

// French phone numbers only, with optional separator between digit pairs.
var phoneRe = regexp.MustCompile(`^((\+33|0)[1-9])(?:[\s.-]?\d{2}){4}$`)

func ValidPhone(phone string) bool {
	return phoneRe.MatchString(phone)
}

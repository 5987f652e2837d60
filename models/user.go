package models

import "time"

type User struct {
	ID              int        `json:"id" db:"id"`
	Username        string     `json:"username" db:"username"`
	Email           string     `json:"email" db:"email"`
	PhoneNumber     *string    `json:"phone_number,omitempty" db:"phone_number"`
	PasswordHash    string     `json:"-" db:"password_hash"`
	Balance         float64    `json:"balance" db:"balance"`
	IsEmailVerified bool       `json:"is_email_verified" db:"is_email_verified"`
	OTP             *string    `json:"-" db:"otp"`
	OTPExpiresAt    *time.Time `json:"-" db:"otp_expires_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}

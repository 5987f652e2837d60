package models

import "time"

type JoinRequestStatus string

const (
	JoinRequestPending  JoinRequestStatus = "pending"
	JoinRequestApproved JoinRequestStatus = "approved"
	JoinRequestDeclined JoinRequestStatus = "declined"
	JoinRequestExpired  JoinRequestStatus = "expired"
)

// JoinRequest — приглашение пользователя в лигу или турнир.
// Принятие приглашения списывает взнос с кошелька приглашённого.
type JoinRequest struct {
	ID              int               `json:"id" db:"id"`
	ReferenceID     int               `json:"reference_id" db:"reference_id"`
	ReferenceType   CompetitionType   `json:"reference_type" db:"reference_type"`
	UserID          int               `json:"user_id" db:"user_id"`
	Status          JoinRequestStatus `json:"status" db:"status"`
	ExpirationDate  time.Time         `json:"expiration_date" db:"expiration_date"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
}

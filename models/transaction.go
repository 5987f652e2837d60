package models

import "time"

type TransactionType string

const (
	TransactionDeposit    TransactionType = "deposit"
	TransactionWithdrawal TransactionType = "withdrawal"
)

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
)

// Transaction — запись в журнале кошелька для операций через M-Pesa.
type Transaction struct {
	ID                       int               `json:"id" db:"id"`
	UserID                   int               `json:"user_id" db:"user_id"`
	Type                     TransactionType   `json:"type" db:"type"`
	Amount                   float64           `json:"amount" db:"amount"`
	Status                   TransactionStatus `json:"status" db:"status"`
	Description              *string           `json:"description,omitempty" db:"description"`
	MpesaRequestID           *string           `json:"-" db:"mpesa_request_id"`
	OriginatorConversationID *string           `json:"-" db:"originator_conversation_id"`
	FailureReason            *string           `json:"failure_reason,omitempty" db:"failure_reason"`
	CreatedAt                time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt                time.Time         `json:"updated_at" db:"updated_at"`
}

package services

import "errors"

// Сервисные ошибки. Хендлеры матчат их через errors.Is и переводят в HTTP-коды.
var (
	ErrValidation             = errors.New("validation failed")
	ErrUserNotFound           = errors.New("user not found")
	ErrCompetitionNotFound    = errors.New("competition not found")
	ErrFixtureNotFound        = errors.New("fixture not found")
	ErrJoinRequestNotFound    = errors.New("join request not found")
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrNotCreator             = errors.New("only the competition creator may perform this action")
	ErrNotMember              = errors.New("user is not a member of this competition")
	ErrAlreadyMember          = errors.New("user is already a member of this competition")
	ErrCompetitionFull        = errors.New("competition already has the configured number of teams")
	ErrInvalidStatusTransition = errors.New("competition status does not allow this operation")
	ErrNotEnoughMembers       = errors.New("not enough members to perform this operation")
	ErrFixturesIncomplete     = errors.New("not all fixtures are completed")
	ErrScoresRequired         = errors.New("both scores are required")
	ErrTieUnresolved          = errors.New("knockout tie is unresolved")
	ErrFixtureAlreadyDecided  = errors.New("knockout fixture result cannot be corrected")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrEmailTaken             = errors.New("email is already registered")
	ErrUsernameTaken          = errors.New("username is already taken")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrEmailNotVerified       = errors.New("email is not verified")
	ErrInvalidOTP             = errors.New("invalid or expired verification code")
	ErrJoinRequestResolved    = errors.New("join request is already resolved")
	ErrJoinRequestExpired     = errors.New("join request has expired")
	ErrDuplicateJoinRequest   = errors.New("user already has a pending join request")
	ErrPaymentGateway         = errors.New("payment gateway request failed")
	ErrPhoneNumberRequired    = errors.New("a verified phone number is required")
)

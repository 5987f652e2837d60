package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/secondstrikerr/secondstriker/models"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrUserEmailTaken      = errors.New("email is already in use")
	ErrUserUsernameTaken   = errors.New("username is already in use")
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
)

type UserRepository interface {
	Create(ctx context.Context, exec SQLExecutor, user *models.User) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.User, error)
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.User, error)
	GetByEmail(ctx context.Context, exec SQLExecutor, email string) (*models.User, error)
	GetByUsername(ctx context.Context, exec SQLExecutor, username string) (*models.User, error)
	SetOTP(ctx context.Context, exec SQLExecutor, id int, otp string, expiresAt time.Time) error
	MarkEmailVerified(ctx context.Context, exec SQLExecutor, id int) error
	UpdatePhoneNumber(ctx context.Context, exec SQLExecutor, id int, phoneNumber string) error
	// Debit уменьшает баланс только при его достаточности; иначе ничего не
	// меняет и возвращает ErrInsufficientBalance, а для несуществующего
	// пользователя — ErrUserNotFound.
	Debit(ctx context.Context, exec SQLExecutor, id int, amount float64) error
	Credit(ctx context.Context, exec SQLExecutor, id int, amount float64) error
}

type postgresUserRepository struct{}

func NewPostgresUserRepository() UserRepository {
	return &postgresUserRepository{}
}

func (r *postgresUserRepository) Create(ctx context.Context, exec SQLExecutor, user *models.User) error {
	query := `
		INSERT INTO users (username, email, phone_number, password_hash, balance, is_email_verified, otp, otp_expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`
	err := exec.QueryRowContext(ctx, query,
		user.Username, user.Email, user.PhoneNumber, user.PasswordHash,
		user.Balance, user.IsEmailVerified, user.OTP, user.OTPExpiresAt,
	).Scan(&user.ID, &user.CreatedAt)
	return mapUserConstraintError(err)
}

func mapUserConstraintError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		switch {
		case strings.Contains(pqErr.Constraint, "email"):
			return ErrUserEmailTaken
		case strings.Contains(pqErr.Constraint, "username"):
			return ErrUserUsernameTaken
		}
	}
	return err
}

func (r *postgresUserRepository) scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PhoneNumber, &u.PasswordHash,
		&u.Balance, &u.IsEmailVerified, &u.OTP, &u.OTPExpiresAt, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

const userColumns = `id, username, email, phone_number, password_hash, balance, is_email_verified, otp, otp_expires_at, created_at`

func (r *postgresUserRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.User, error) {
	return r.scanUser(exec.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *postgresUserRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.User, error) {
	return r.scanUser(exec.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
}

func (r *postgresUserRepository) GetByEmail(ctx context.Context, exec SQLExecutor, email string) (*models.User, error) {
	return r.scanUser(exec.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
}

func (r *postgresUserRepository) GetByUsername(ctx context.Context, exec SQLExecutor, username string) (*models.User, error) {
	return r.scanUser(exec.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE lower(username) = lower($1)`, username))
}

func (r *postgresUserRepository) SetOTP(ctx context.Context, exec SQLExecutor, id int, otp string, expiresAt time.Time) error {
	result, err := exec.ExecContext(ctx,
		`UPDATE users SET otp = $1, otp_expires_at = $2 WHERE id = $3`, otp, expiresAt, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) MarkEmailVerified(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := exec.ExecContext(ctx,
		`UPDATE users SET is_email_verified = TRUE, otp = NULL, otp_expires_at = NULL WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) UpdatePhoneNumber(ctx context.Context, exec SQLExecutor, id int, phoneNumber string) error {
	result, err := exec.ExecContext(ctx,
		`UPDATE users SET phone_number = $1 WHERE id = $2`, phoneNumber, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) Debit(ctx context.Context, exec SQLExecutor, id int, amount float64) error {
	result, err := exec.ExecContext(ctx,
		`UPDATE users SET balance = balance - $1 WHERE id = $2 AND balance >= $1`, amount, id)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected > 0 {
		return nil
	}

	// Ноль затронутых строк: либо пользователя нет, либо не хватило баланса.
	var exists bool
	if err := exec.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrUserNotFound
	}
	return ErrInsufficientBalance
}

func (r *postgresUserRepository) Credit(ctx context.Context, exec SQLExecutor, id int, amount float64) error {
	result, err := exec.ExecContext(ctx,
		`UPDATE users SET balance = balance + $1 WHERE id = $2`, amount, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

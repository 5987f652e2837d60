package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/secondstrikerr/secondstriker/models"
)

var ErrTransactionNotFound = errors.New("transaction not found")

type TransactionRepository interface {
	Create(ctx context.Context, exec SQLExecutor, tx *models.Transaction) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Transaction, error)
	GetByMpesaRequestID(ctx context.Context, exec SQLExecutor, requestID string) (*models.Transaction, error)
	GetByOriginatorID(ctx context.Context, exec SQLExecutor, originatorID string) (*models.Transaction, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TransactionStatus, failureReason *string) error
	ListByUser(ctx context.Context, exec SQLExecutor, userID int, limit int) ([]*models.Transaction, error)
}

type postgresTransactionRepository struct{}

func NewPostgresTransactionRepository() TransactionRepository {
	return &postgresTransactionRepository{}
}

const transactionColumns = `id, user_id, type, amount, status, mpesa_request_id,
	originator_conversation_id, failure_reason, created_at`

func (r *postgresTransactionRepository) Create(ctx context.Context, exec SQLExecutor, t *models.Transaction) error {
	query := `
		INSERT INTO transactions
			(user_id, type, amount, status, mpesa_request_id, originator_conversation_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`
	return exec.QueryRowContext(ctx, query,
		t.UserID, t.Type, t.Amount, t.Status, t.MpesaRequestID, t.OriginatorConversationID,
	).Scan(&t.ID, &t.CreatedAt)
}

func scanTransaction(row interface{ Scan(...interface{}) error }) (*models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(
		&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Status, &t.MpesaRequestID,
		&t.OriginatorConversationID, &t.FailureReason, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *postgresTransactionRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Transaction, error) {
	return scanTransaction(exec.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id))
}

func (r *postgresTransactionRepository) GetByMpesaRequestID(ctx context.Context, exec SQLExecutor, requestID string) (*models.Transaction, error) {
	return scanTransaction(exec.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE mpesa_request_id = $1`, requestID))
}

func (r *postgresTransactionRepository) GetByOriginatorID(ctx context.Context, exec SQLExecutor, originatorID string) (*models.Transaction, error) {
	return scanTransaction(exec.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE originator_conversation_id = $1`, originatorID))
}

func (r *postgresTransactionRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TransactionStatus, failureReason *string) error {
	result, err := exec.ExecContext(ctx,
		`UPDATE transactions SET status = $1, failure_reason = $2 WHERE id = $3`,
		status, failureReason, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTransactionNotFound)
}

func (r *postgresTransactionRepository) ListByUser(ctx context.Context, exec SQLExecutor, userID int, limit int) ([]*models.Transaction, error) {
	rows, err := exec.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := make([]*models.Transaction, 0)
	for rows.Next() {
		t, errScan := scanTransaction(rows)
		if errScan != nil {
			return nil, errScan
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/secondstrikerr/secondstriker/models"
)

var ErrJoinRequestNotFound = errors.New("join request not found")

type JoinRequestRepository interface {
	Create(ctx context.Context, exec SQLExecutor, request *models.JoinRequest) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.JoinRequest, error)
	// FindPending ищет активное приглашение, чтобы не дублировать его.
	FindPending(ctx context.Context, exec SQLExecutor, referenceID int, referenceType models.CompetitionType, userID int) (*models.JoinRequest, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.JoinRequestStatus) error
	ListByUser(ctx context.Context, exec SQLExecutor, userID int) ([]*models.JoinRequest, error)
	ExpireOverdue(ctx context.Context, exec SQLExecutor) (int64, error)
}

type postgresJoinRequestRepository struct{}

func NewPostgresJoinRequestRepository() JoinRequestRepository {
	return &postgresJoinRequestRepository{}
}

const joinRequestColumns = `id, reference_id, reference_type, user_id, status, expiration_date, created_at`

func (r *postgresJoinRequestRepository) Create(ctx context.Context, exec SQLExecutor, jr *models.JoinRequest) error {
	query := `
		INSERT INTO join_requests (reference_id, reference_type, user_id, status, expiration_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	return exec.QueryRowContext(ctx, query,
		jr.ReferenceID, jr.ReferenceType, jr.UserID, jr.Status, jr.ExpirationDate,
	).Scan(&jr.ID, &jr.CreatedAt)
}

func scanJoinRequest(row interface{ Scan(...interface{}) error }) (*models.JoinRequest, error) {
	var jr models.JoinRequest
	err := row.Scan(&jr.ID, &jr.ReferenceID, &jr.ReferenceType, &jr.UserID, &jr.Status, &jr.ExpirationDate, &jr.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJoinRequestNotFound
		}
		return nil, err
	}
	return &jr, nil
}

func (r *postgresJoinRequestRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.JoinRequest, error) {
	return scanJoinRequest(exec.QueryRowContext(ctx,
		`SELECT `+joinRequestColumns+` FROM join_requests WHERE id = $1`, id))
}

func (r *postgresJoinRequestRepository) FindPending(ctx context.Context, exec SQLExecutor, referenceID int, referenceType models.CompetitionType, userID int) (*models.JoinRequest, error) {
	return scanJoinRequest(exec.QueryRowContext(ctx, `
		SELECT `+joinRequestColumns+`
		FROM join_requests
		WHERE reference_id = $1 AND reference_type = $2 AND user_id = $3 AND status = $4`,
		referenceID, referenceType, userID, models.JoinRequestPending))
}

func (r *postgresJoinRequestRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.JoinRequestStatus) error {
	result, err := exec.ExecContext(ctx,
		`UPDATE join_requests SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrJoinRequestNotFound)
}

func (r *postgresJoinRequestRepository) ListByUser(ctx context.Context, exec SQLExecutor, userID int) ([]*models.JoinRequest, error) {
	rows, err := exec.QueryContext(ctx,
		`SELECT `+joinRequestColumns+` FROM join_requests WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]*models.JoinRequest, 0)
	for rows.Next() {
		jr, errScan := scanJoinRequest(rows)
		if errScan != nil {
			return nil, errScan
		}
		requests = append(requests, jr)
	}
	return requests, rows.Err()
}

func (r *postgresJoinRequestRepository) ExpireOverdue(ctx context.Context, exec SQLExecutor) (int64, error) {
	result, err := exec.ExecContext(ctx, `
		UPDATE join_requests
		SET status = $1
		WHERE status = $2 AND expiration_date < NOW()`,
		models.JoinRequestExpired, models.JoinRequestPending)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

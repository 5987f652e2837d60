package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/secondstrikerr/secondstriker/models"
)

var ErrFixtureNotFound = errors.New("fixture not found")

type FixtureRepository interface {
	Create(ctx context.Context, exec SQLExecutor, fixture *models.Fixture) error
	BatchCreate(ctx context.Context, exec SQLExecutor, fixtures []*models.Fixture) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Fixture, error)
	ListByCompetition(ctx context.Context, exec SQLExecutor, competitionID int, competitionType models.CompetitionType, stage *models.FixtureStage) ([]*models.Fixture, error)
	CountIncomplete(ctx context.Context, exec SQLExecutor, competitionID int, competitionType models.CompetitionType, stage *models.FixtureStage) (int, error)
	UpdateResult(ctx context.Context, exec SQLExecutor, id int, team1Score, team2Score int) error
	// FindBySlot ищет матч плей-офф по раунду и позиции в сетке.
	FindBySlot(ctx context.Context, exec SQLExecutor, competitionID int, competitionType models.CompetitionType, round string, position int) (*models.Fixture, error)
	// UpsertSlot — явный upsert-with-merge движка прогрессии: создаёт матч
	// следующего раунда с одной известной стороной либо заполняет пустую
	// сторону существующего. Возвращает актуальное состояние слота.
	UpsertSlot(ctx context.Context, exec SQLExecutor, proto *models.Fixture, winnerID int, isTeam1 bool) (*models.Fixture, error)
}

type postgresFixtureRepository struct{}

func NewPostgresFixtureRepository() FixtureRepository {
	return &postgresFixtureRepository{}
}

const fixtureColumns = `id, competition_id, competition_type, team1_id, team2_id, round, group_letter,
	stage, position, is_home_away, team1_score, team2_score, status, created_at`

func (r *postgresFixtureRepository) Create(ctx context.Context, exec SQLExecutor, f *models.Fixture) error {
	query := `
		INSERT INTO fixtures
			(competition_id, competition_type, team1_id, team2_id, round, group_letter,
			 stage, position, is_home_away, team1_score, team2_score, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at`
	return exec.QueryRowContext(ctx, query,
		f.CompetitionID, f.CompetitionType, f.Team1ID, f.Team2ID, f.Round, f.Group,
		f.Stage, f.Position, f.IsHomeAway, f.Team1Score, f.Team2Score, f.Status,
	).Scan(&f.ID, &f.CreatedAt)
}

func (r *postgresFixtureRepository) BatchCreate(ctx context.Context, exec SQLExecutor, fixtures []*models.Fixture) error {
	for _, f := range fixtures {
		if err := r.Create(ctx, exec, f); err != nil {
			return fmt.Errorf("batch create fixture round %s: %w", f.Round, err)
		}
	}
	return nil
}

func (r *postgresFixtureRepository) scanFixture(row interface{ Scan(...interface{}) error }) (*models.Fixture, error) {
	var f models.Fixture
	err := row.Scan(
		&f.ID, &f.CompetitionID, &f.CompetitionType, &f.Team1ID, &f.Team2ID, &f.Round, &f.Group,
		&f.Stage, &f.Position, &f.IsHomeAway, &f.Team1Score, &f.Team2Score, &f.Status, &f.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFixtureNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (r *postgresFixtureRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Fixture, error) {
	return r.scanFixture(exec.QueryRowContext(ctx, `SELECT `+fixtureColumns+` FROM fixtures WHERE id = $1`, id))
}

func (r *postgresFixtureRepository) ListByCompetition(ctx context.Context, exec SQLExecutor, competitionID int, competitionType models.CompetitionType, stage *models.FixtureStage) ([]*models.Fixture, error) {
	query := `SELECT ` + fixtureColumns + ` FROM fixtures WHERE competition_id = $1 AND competition_type = $2`
	args := []interface{}{competitionID, competitionType}
	if stage != nil {
		query += ` AND stage = $3`
		args = append(args, *stage)
	}
	query += ` ORDER BY id`

	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fixtures := make([]*models.Fixture, 0)
	for rows.Next() {
		f, errScan := r.scanFixture(rows)
		if errScan != nil {
			return nil, errScan
		}
		fixtures = append(fixtures, f)
	}
	return fixtures, rows.Err()
}

func (r *postgresFixtureRepository) CountIncomplete(ctx context.Context, exec SQLExecutor, competitionID int, competitionType models.CompetitionType, stage *models.FixtureStage) (int, error) {
	query := `SELECT COUNT(*) FROM fixtures WHERE competition_id = $1 AND competition_type = $2 AND status <> $3`
	args := []interface{}{competitionID, competitionType, models.FixtureCompleted}
	if stage != nil {
		query += ` AND stage = $4`
		args = append(args, *stage)
	}
	var count int
	err := exec.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

func (r *postgresFixtureRepository) UpdateResult(ctx context.Context, exec SQLExecutor, id int, team1Score, team2Score int) error {
	result, err := exec.ExecContext(ctx, `
		UPDATE fixtures
		SET team1_score = $1, team2_score = $2, status = $3
		WHERE id = $4`,
		team1Score, team2Score, models.FixtureCompleted, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrFixtureNotFound)
}

func (r *postgresFixtureRepository) FindBySlot(ctx context.Context, exec SQLExecutor, competitionID int, competitionType models.CompetitionType, round string, position int) (*models.Fixture, error) {
	return r.scanFixture(exec.QueryRowContext(ctx, `
		SELECT `+fixtureColumns+`
		FROM fixtures
		WHERE competition_id = $1 AND competition_type = $2 AND round = $3 AND position = $4`,
		competitionID, competitionType, round, position))
}

func (r *postgresFixtureRepository) UpsertSlot(ctx context.Context, exec SQLExecutor, proto *models.Fixture, winnerID int, isTeam1 bool) (*models.Fixture, error) {
	existing, err := r.FindBySlot(ctx, exec, proto.CompetitionID, proto.CompetitionType, proto.Round, *proto.Position)
	if err != nil && !errors.Is(err, ErrFixtureNotFound) {
		return nil, err
	}

	if existing == nil {
		f := *proto
		if isTeam1 {
			f.Team1ID = &winnerID
		} else {
			f.Team2ID = &winnerID
		}
		f.Status = models.FixturePending
		if err := r.Create(ctx, exec, &f); err != nil {
			return nil, err
		}
		return &f, nil
	}

	column := "team2_id"
	if isTeam1 {
		column = "team1_id"
		existing.Team1ID = &winnerID
	} else {
		existing.Team2ID = &winnerID
	}
	result, err := exec.ExecContext(ctx,
		`UPDATE fixtures SET `+column+` = $1 WHERE id = $2`, winnerID, existing.ID)
	if err != nil {
		return nil, err
	}
	if err := checkAffectedRows(result, ErrFixtureNotFound); err != nil {
		return nil, err
	}
	return existing, nil
}

package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/secondstrikerr/secondstriker/models"
)

var ErrStandingNotFound = errors.New("standing not found")

type StandingRepository interface {
	BatchCreate(ctx context.Context, exec SQLExecutor, standings []*models.Standing) error
	ListByCompetition(ctx context.Context, exec SQLExecutor, competitionID int, competitionType models.CompetitionType) ([]*models.Standing, error)
	GetByCompetitionAndUser(ctx context.Context, exec SQLExecutor, competitionID int, competitionType models.CompetitionType, userID int) (*models.Standing, error)
	Update(ctx context.Context, exec SQLExecutor, standing *models.Standing) error
}

type postgresStandingRepository struct{}

func NewPostgresStandingRepository() StandingRepository {
	return &postgresStandingRepository{}
}

const standingColumns = `s.id, s.competition_id, s.competition_type, s.user_id, s.group_letter,
	s.played, s.won, s.drawn, s.lost, s.goals_for, s.goals_against, s.points, s.goal_difference,
	s.home_played, s.home_won, s.home_drawn, s.home_lost, s.home_goals_for, s.home_goals_against,
	s.away_played, s.away_won, s.away_drawn, s.away_lost, s.away_goals_for, s.away_goals_against,
	s.updated_at`

func (r *postgresStandingRepository) BatchCreate(ctx context.Context, exec SQLExecutor, standings []*models.Standing) error {
	query := `
		INSERT INTO standings (competition_id, competition_type, user_id, group_letter)
		VALUES ($1, $2, $3, $4)
		RETURNING id, updated_at`
	for _, s := range standings {
		err := exec.QueryRowContext(ctx, query,
			s.CompetitionID, s.CompetitionType, s.UserID, s.Group,
		).Scan(&s.ID, &s.UpdatedAt)
		if err != nil {
			return err
		}
	}
	return nil
}

func scanStanding(row interface{ Scan(...interface{}) error }, withUser bool) (*models.Standing, error) {
	var s models.Standing
	dest := []interface{}{
		&s.ID, &s.CompetitionID, &s.CompetitionType, &s.UserID, &s.Group,
		&s.Played, &s.Won, &s.Drawn, &s.Lost, &s.GoalsFor, &s.GoalsAgainst, &s.Points, &s.GoalDifference,
		&s.HomeRecord.Played, &s.HomeRecord.Won, &s.HomeRecord.Drawn, &s.HomeRecord.Lost,
		&s.HomeRecord.GoalsFor, &s.HomeRecord.GoalsAgainst,
		&s.AwayRecord.Played, &s.AwayRecord.Won, &s.AwayRecord.Drawn, &s.AwayRecord.Lost,
		&s.AwayRecord.GoalsFor, &s.AwayRecord.GoalsAgainst,
		&s.UpdatedAt,
	}
	var username string
	if withUser {
		dest = append(dest, &username)
	}
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStandingNotFound
		}
		return nil, err
	}
	if withUser {
		s.User = &models.User{ID: s.UserID, Username: username}
	}
	return &s, nil
}

func (r *postgresStandingRepository) ListByCompetition(ctx context.Context, exec SQLExecutor, competitionID int, competitionType models.CompetitionType) ([]*models.Standing, error) {
	// Сортировка по правилам таблицы делается на стороне БД, чтобы список
	// всегда приходил в каноническом порядке.
	query := `
		SELECT ` + standingColumns + `, u.username
		FROM standings s
		JOIN users u ON u.id = s.user_id
		WHERE s.competition_id = $1 AND s.competition_type = $2
		ORDER BY s.group_letter NULLS FIRST, s.points DESC, s.goal_difference DESC, s.goals_for DESC, s.id`

	rows, err := exec.QueryContext(ctx, query, competitionID, competitionType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	standings := make([]*models.Standing, 0)
	for rows.Next() {
		s, errScan := scanStanding(rows, true)
		if errScan != nil {
			return nil, errScan
		}
		standings = append(standings, s)
	}
	return standings, rows.Err()
}

func (r *postgresStandingRepository) GetByCompetitionAndUser(ctx context.Context, exec SQLExecutor, competitionID int, competitionType models.CompetitionType, userID int) (*models.Standing, error) {
	query := `
		SELECT ` + standingColumns + `
		FROM standings s
		WHERE s.competition_id = $1 AND s.competition_type = $2 AND s.user_id = $3`
	return scanStanding(exec.QueryRowContext(ctx, query, competitionID, competitionType, userID), false)
}

func (r *postgresStandingRepository) Update(ctx context.Context, exec SQLExecutor, s *models.Standing) error {
	query := `
		UPDATE standings SET
			played = $1, won = $2, drawn = $3, lost = $4,
			goals_for = $5, goals_against = $6, points = $7, goal_difference = $8,
			home_played = $9, home_won = $10, home_drawn = $11, home_lost = $12,
			home_goals_for = $13, home_goals_against = $14,
			away_played = $15, away_won = $16, away_drawn = $17, away_lost = $18,
			away_goals_for = $19, away_goals_against = $20,
			updated_at = NOW()
		WHERE id = $21`
	result, err := exec.ExecContext(ctx, query,
		s.Played, s.Won, s.Drawn, s.Lost,
		s.GoalsFor, s.GoalsAgainst, s.Points, s.GoalDifference,
		s.HomeRecord.Played, s.HomeRecord.Won, s.HomeRecord.Drawn, s.HomeRecord.Lost,
		s.HomeRecord.GoalsFor, s.HomeRecord.GoalsAgainst,
		s.AwayRecord.Played, s.AwayRecord.Won, s.AwayRecord.Drawn, s.AwayRecord.Lost,
		s.AwayRecord.GoalsFor, s.AwayRecord.GoalsAgainst,
		s.ID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrStandingNotFound)
}

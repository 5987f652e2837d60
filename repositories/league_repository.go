package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/secondstrikerr/secondstriker/models"
)

var ErrLeagueNotFound = errors.New("league not found")

type LeagueRepository interface {
	Create(ctx context.Context, exec SQLExecutor, league *models.League) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.League, error)
	// GetByIDForUpdate блокирует строку лиги на время транзакции:
	// один писатель на соревнование.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.League, error)
	ListByMember(ctx context.Context, exec SQLExecutor, userID int) ([]*models.League, error)
	UpdateConfig(ctx context.Context, exec SQLExecutor, league *models.League) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.CompetitionStatus) error
	UpdateAwards(ctx context.Context, exec SQLExecutor, id int, prizePool float64, dist models.AwardsDistribution) error
	UpdateLogoKey(ctx context.Context, exec SQLExecutor, id int, logoKey string) error
	AddMember(ctx context.Context, exec SQLExecutor, leagueID, userID int) error
	ListMemberIDs(ctx context.Context, exec SQLExecutor, leagueID int) ([]int, error)
	ListMembers(ctx context.Context, exec SQLExecutor, leagueID int) ([]models.User, error)
	CountMembers(ctx context.Context, exec SQLExecutor, leagueID int) (int, error)
	HasMember(ctx context.Context, exec SQLExecutor, leagueID, userID int) (bool, error)
}

type postgresLeagueRepository struct{}

func NewPostgresLeagueRepository() LeagueRepository {
	return &postgresLeagueRepository{}
}

const leagueColumns = `id, name, fee, creator_id, number_of_teams, fixture_type, awards,
	award_first, award_second, award_third, prize_pool, status, rules, logo_key, created_at`

func (r *postgresLeagueRepository) Create(ctx context.Context, exec SQLExecutor, league *models.League) error {
	query := `
		INSERT INTO leagues
			(name, fee, creator_id, number_of_teams, fixture_type, awards,
			 award_first, award_second, award_third, prize_pool, status, rules)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at`
	return exec.QueryRowContext(ctx, query,
		league.Name, league.Fee, league.CreatorID, league.NumberOfTeams,
		league.FixtureType, league.Awards,
		league.AwardsDistribution.FirstPlace, league.AwardsDistribution.SecondPlace, league.AwardsDistribution.ThirdPlace,
		league.PrizePool, league.Status, pq.Array(league.Rules),
	).Scan(&league.ID, &league.CreatedAt)
}

func (r *postgresLeagueRepository) scanLeague(row interface{ Scan(...interface{}) error }) (*models.League, error) {
	var l models.League
	err := row.Scan(
		&l.ID, &l.Name, &l.Fee, &l.CreatorID, &l.NumberOfTeams, &l.FixtureType, &l.Awards,
		&l.AwardsDistribution.FirstPlace, &l.AwardsDistribution.SecondPlace, &l.AwardsDistribution.ThirdPlace,
		&l.PrizePool, &l.Status, pq.Array(&l.Rules), &l.LogoKey, &l.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLeagueNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (r *postgresLeagueRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.League, error) {
	return r.scanLeague(exec.QueryRowContext(ctx, `SELECT `+leagueColumns+` FROM leagues WHERE id = $1`, id))
}

func (r *postgresLeagueRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.League, error) {
	return r.scanLeague(exec.QueryRowContext(ctx, `SELECT `+leagueColumns+` FROM leagues WHERE id = $1 FOR UPDATE`, id))
}

func (r *postgresLeagueRepository) ListByMember(ctx context.Context, exec SQLExecutor, userID int) ([]*models.League, error) {
	query := `
		SELECT ` + leagueColumns + `
		FROM leagues
		WHERE id IN (SELECT league_id FROM league_members WHERE user_id = $1)
		ORDER BY created_at DESC`
	rows, err := exec.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leagues := make([]*models.League, 0)
	for rows.Next() {
		l, errScan := r.scanLeague(rows)
		if errScan != nil {
			return nil, errScan
		}
		leagues = append(leagues, l)
	}
	return leagues, rows.Err()
}

func (r *postgresLeagueRepository) UpdateConfig(ctx context.Context, exec SQLExecutor, league *models.League) error {
	result, err := exec.ExecContext(ctx, `
		UPDATE leagues
		SET fixture_type = $1, awards = $2, number_of_teams = $3, rules = $4
		WHERE id = $5`,
		league.FixtureType, league.Awards, league.NumberOfTeams, pq.Array(league.Rules), league.ID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrLeagueNotFound)
}

func (r *postgresLeagueRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.CompetitionStatus) error {
	result, err := exec.ExecContext(ctx, `UPDATE leagues SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrLeagueNotFound)
}

func (r *postgresLeagueRepository) UpdateAwards(ctx context.Context, exec SQLExecutor, id int, prizePool float64, dist models.AwardsDistribution) error {
	result, err := exec.ExecContext(ctx, `
		UPDATE leagues
		SET prize_pool = $1, award_first = $2, award_second = $3, award_third = $4
		WHERE id = $5`,
		prizePool, dist.FirstPlace, dist.SecondPlace, dist.ThirdPlace, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrLeagueNotFound)
}

func (r *postgresLeagueRepository) UpdateLogoKey(ctx context.Context, exec SQLExecutor, id int, logoKey string) error {
	result, err := exec.ExecContext(ctx, `UPDATE leagues SET logo_key = $1 WHERE id = $2`, logoKey, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrLeagueNotFound)
}

func (r *postgresLeagueRepository) AddMember(ctx context.Context, exec SQLExecutor, leagueID, userID int) error {
	_, err := exec.ExecContext(ctx,
		`INSERT INTO league_members (league_id, user_id) VALUES ($1, $2)`, leagueID, userID)
	return err
}

func (r *postgresLeagueRepository) ListMemberIDs(ctx context.Context, exec SQLExecutor, leagueID int) ([]int, error) {
	rows, err := exec.QueryContext(ctx,
		`SELECT user_id FROM league_members WHERE league_id = $1 ORDER BY joined_at, user_id`, leagueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *postgresLeagueRepository) ListMembers(ctx context.Context, exec SQLExecutor, leagueID int) ([]models.User, error) {
	query := `
		SELECT u.id, u.username, u.email, u.balance
		FROM users u
		JOIN league_members m ON m.user_id = u.id
		WHERE m.league_id = $1
		ORDER BY m.joined_at, u.id`
	rows, err := exec.QueryContext(ctx, query, leagueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]models.User, 0)
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.Balance); err != nil {
			return nil, err
		}
		members = append(members, u)
	}
	return members, rows.Err()
}

func (r *postgresLeagueRepository) CountMembers(ctx context.Context, exec SQLExecutor, leagueID int) (int, error) {
	var count int
	err := exec.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM league_members WHERE league_id = $1`, leagueID).Scan(&count)
	return count, err
}

func (r *postgresLeagueRepository) HasMember(ctx context.Context, exec SQLExecutor, leagueID, userID int) (bool, error) {
	var exists bool
	err := exec.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM league_members WHERE league_id = $1 AND user_id = $2)`,
		leagueID, userID).Scan(&exists)
	return exists, err
}

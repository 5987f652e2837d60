package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/secondstrikerr/secondstriker/models"
)

var ErrTournamentNotFound = errors.New("tournament not found")

type TournamentRepository interface {
	Create(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	ListByMember(ctx context.Context, exec SQLExecutor, userID int) ([]*models.Tournament, error)
	UpdateConfig(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.CompetitionStatus) error
	UpdateStage(ctx context.Context, exec SQLExecutor, id int, stage models.TournamentStage) error
	UpdateAwards(ctx context.Context, exec SQLExecutor, id int, prizePool float64, dist models.AwardsDistribution) error
	SetWinners(ctx context.Context, exec SQLExecutor, id int, winnerID, runnerUpID int) error
	UpdateLogoKey(ctx context.Context, exec SQLExecutor, id int, logoKey string) error
	AddMember(ctx context.Context, exec SQLExecutor, tournamentID, userID int) error
	ListMemberIDs(ctx context.Context, exec SQLExecutor, tournamentID int) ([]int, error)
	ListMembers(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.User, error)
	HasMember(ctx context.Context, exec SQLExecutor, tournamentID, userID int) (bool, error)
}

type postgresTournamentRepository struct{}

func NewPostgresTournamentRepository() TournamentRepository {
	return &postgresTournamentRepository{}
}

const tournamentColumns = `id, name, fee, creator_id, teams_per_group, number_of_groups, format, stage,
	fixture_type, awards, award_first, award_second, award_third, prize_pool, status, rules,
	winner_id, runner_up_id, logo_key, created_at`

func (r *postgresTournamentRepository) Create(ctx context.Context, exec SQLExecutor, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments
			(name, fee, creator_id, teams_per_group, number_of_groups, format, fixture_type, awards,
			 award_first, award_second, award_third, prize_pool, status, rules)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at`
	return exec.QueryRowContext(ctx, query,
		t.Name, t.Fee, t.CreatorID, t.TeamsPerGroup, t.NumberOfGroups, t.Format, t.FixtureType, t.Awards,
		t.AwardsDistribution.FirstPlace, t.AwardsDistribution.SecondPlace, t.AwardsDistribution.ThirdPlace,
		t.PrizePool, t.Status, pq.Array(t.Rules),
	).Scan(&t.ID, &t.CreatedAt)
}

func (r *postgresTournamentRepository) scanTournament(row interface{ Scan(...interface{}) error }) (*models.Tournament, error) {
	var t models.Tournament
	err := row.Scan(
		&t.ID, &t.Name, &t.Fee, &t.CreatorID, &t.TeamsPerGroup, &t.NumberOfGroups, &t.Format, &t.Stage,
		&t.FixtureType, &t.Awards,
		&t.AwardsDistribution.FirstPlace, &t.AwardsDistribution.SecondPlace, &t.AwardsDistribution.ThirdPlace,
		&t.PrizePool, &t.Status, pq.Array(&t.Rules),
		&t.WinnerID, &t.RunnerUpID, &t.LogoKey, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	return r.scanTournament(exec.QueryRowContext(ctx, `SELECT `+tournamentColumns+` FROM tournaments WHERE id = $1`, id))
}

func (r *postgresTournamentRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	return r.scanTournament(exec.QueryRowContext(ctx, `SELECT `+tournamentColumns+` FROM tournaments WHERE id = $1 FOR UPDATE`, id))
}

func (r *postgresTournamentRepository) ListByMember(ctx context.Context, exec SQLExecutor, userID int) ([]*models.Tournament, error) {
	query := `
		SELECT ` + tournamentColumns + `
		FROM tournaments
		WHERE id IN (SELECT tournament_id FROM tournament_members WHERE user_id = $1)
		ORDER BY created_at DESC`
	rows, err := exec.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		t, errScan := r.scanTournament(rows)
		if errScan != nil {
			return nil, errScan
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, rows.Err()
}

func (r *postgresTournamentRepository) UpdateConfig(ctx context.Context, exec SQLExecutor, t *models.Tournament) error {
	result, err := exec.ExecContext(ctx, `
		UPDATE tournaments
		SET fixture_type = $1, awards = $2, teams_per_group = $3, number_of_groups = $4, format = $5, rules = $6
		WHERE id = $7`,
		t.FixtureType, t.Awards, t.TeamsPerGroup, t.NumberOfGroups, t.Format, pq.Array(t.Rules), t.ID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.CompetitionStatus) error {
	result, err := exec.ExecContext(ctx, `UPDATE tournaments SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateStage(ctx context.Context, exec SQLExecutor, id int, stage models.TournamentStage) error {
	result, err := exec.ExecContext(ctx, `UPDATE tournaments SET stage = $1 WHERE id = $2`, stage, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateAwards(ctx context.Context, exec SQLExecutor, id int, prizePool float64, dist models.AwardsDistribution) error {
	result, err := exec.ExecContext(ctx, `
		UPDATE tournaments
		SET prize_pool = $1, award_first = $2, award_second = $3, award_third = $4
		WHERE id = $5`,
		prizePool, dist.FirstPlace, dist.SecondPlace, dist.ThirdPlace, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) SetWinners(ctx context.Context, exec SQLExecutor, id int, winnerID, runnerUpID int) error {
	result, err := exec.ExecContext(ctx,
		`UPDATE tournaments SET winner_id = $1, runner_up_id = $2 WHERE id = $3`, winnerID, runnerUpID, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateLogoKey(ctx context.Context, exec SQLExecutor, id int, logoKey string) error {
	result, err := exec.ExecContext(ctx, `UPDATE tournaments SET logo_key = $1 WHERE id = $2`, logoKey, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) AddMember(ctx context.Context, exec SQLExecutor, tournamentID, userID int) error {
	_, err := exec.ExecContext(ctx,
		`INSERT INTO tournament_members (tournament_id, user_id) VALUES ($1, $2)`, tournamentID, userID)
	return err
}

func (r *postgresTournamentRepository) ListMemberIDs(ctx context.Context, exec SQLExecutor, tournamentID int) ([]int, error) {
	rows, err := exec.QueryContext(ctx,
		`SELECT user_id FROM tournament_members WHERE tournament_id = $1 ORDER BY joined_at, user_id`, tournamentID)
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

func (r *postgresTournamentRepository) ListMembers(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.User, error) {
	query := `
		SELECT u.id, u.username, u.email, u.balance
		FROM users u
		JOIN tournament_members m ON m.user_id = u.id
		WHERE m.tournament_id = $1
		ORDER BY m.joined_at, u.id`
	rows, err := exec.QueryContext(ctx, query, tournamentID)
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

func (r *postgresTournamentRepository) HasMember(ctx context.Context, exec SQLExecutor, tournamentID, userID int) (bool, error) {
	var exists bool
	err := exec.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM tournament_members WHERE tournament_id = $1 AND user_id = $2)`,
		tournamentID, userID).Scan(&exists)
	return exists, err
}

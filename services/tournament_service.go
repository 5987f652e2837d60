package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/secondstrikerr/secondstriker/brackets"
	"github.com/secondstrikerr/secondstriker/models"
	"github.com/secondstrikerr/secondstriker/repositories"
	"github.com/secondstrikerr/secondstriker/standings"
	"github.com/secondstrikerr/secondstriker/storage"
)

type TournamentService struct {
	db             *sql.DB
	logger         *slog.Logger
	hub            *brackets.Hub
	uploader       storage.FileUploader
	tournamentRepo repositories.TournamentRepository
	userRepo       repositories.UserRepository
	fixtureRepo    repositories.FixtureRepository
	standingRepo   repositories.StandingRepository
}

func NewTournamentService(
	db *sql.DB,
	logger *slog.Logger,
	hub *brackets.Hub,
	uploader storage.FileUploader,
	tournamentRepo repositories.TournamentRepository,
	userRepo repositories.UserRepository,
	fixtureRepo repositories.FixtureRepository,
	standingRepo repositories.StandingRepository,
) *TournamentService {
	return &TournamentService{
		db:             db,
		logger:         logger,
		hub:            hub,
		uploader:       uploader,
		tournamentRepo: tournamentRepo,
		userRepo:       userRepo,
		fixtureRepo:    fixtureRepo,
		standingRepo:   standingRepo,
	}
}

func tournamentRoom(id int) string { return fmt.Sprintf("tournament:%d", id) }

// capacity — полный состав турнира. Для чистого плей-офф создатель задаёт
// одну «группу» размером в сетку.
func tournamentCapacity(t *models.Tournament) int {
	groups := t.NumberOfGroups
	if groups < 1 {
		groups = 1
	}
	return t.TeamsPerGroup * groups
}

func isPowerOfTwo(n int) bool { return n >= 2 && n&(n-1) == 0 }

type CreateTournamentInput struct {
	Name           string                  `json:"name"`
	Fee            float64                 `json:"fee"`
	TeamsPerGroup  int                     `json:"teams_per_group"`
	NumberOfGroups int                     `json:"number_of_groups"`
	Format         models.TournamentFormat `json:"format"`
	FixtureType    models.FixtureType      `json:"fixture_type"`
	Awards         models.AwardPolicy      `json:"awards"`
	Rules          []string                `json:"rules"`
}

func (in *CreateTournamentInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if in.Fee < 0 {
		return fmt.Errorf("%w: fee cannot be negative", ErrValidation)
	}
	if !in.Format.Valid() {
		return fmt.Errorf("%w: unknown tournament format %q", ErrValidation, in.Format)
	}
	if !in.FixtureType.Valid() {
		return fmt.Errorf("%w: unknown fixture type %q", ErrValidation, in.FixtureType)
	}
	if !in.Awards.Valid() {
		return fmt.Errorf("%w: unknown award policy %q", ErrValidation, in.Awards)
	}
	// Плей-офф определяет только первое и второе места; третье не разыгрывается.
	if in.Awards == models.AwardTopThree {
		return fmt.Errorf("%w: tournaments support first and firstSecond award policies", ErrValidation)
	}

	switch in.Format {
	case models.FormatKnockout:
		total := in.TeamsPerGroup * max(in.NumberOfGroups, 1)
		if !isPowerOfTwo(total) {
			return fmt.Errorf("%w: knockout bracket size must be a power of two, got %d", ErrValidation, total)
		}
	case models.FormatGroupKnockout:
		if in.NumberOfGroups < 1 || in.TeamsPerGroup < 2 {
			return fmt.Errorf("%w: groups need at least 2 teams each", ErrValidation)
		}
		// Из каждой группы выходят двое; их число должно лечь в сетку.
		if !isPowerOfTwo(2 * in.NumberOfGroups) {
			return fmt.Errorf("%w: %d groups produce %d qualifiers, not a power of two", ErrValidation, in.NumberOfGroups, 2*in.NumberOfGroups)
		}
	}
	return nil
}

// Create создаёт черновик турнира; взнос создателя списывается сразу.
func (s *TournamentService) Create(ctx context.Context, creatorID int, input CreateTournamentInput) (*models.Tournament, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	breakdown, err := CalculatePrizes(1, input.Fee, input.Awards)
	if err != nil {
		return nil, err
	}
	tournament := &models.Tournament{
		Name:               strings.TrimSpace(input.Name),
		Fee:                input.Fee,
		CreatorID:          creatorID,
		TeamsPerGroup:      input.TeamsPerGroup,
		NumberOfGroups:     input.NumberOfGroups,
		Format:             input.Format,
		FixtureType:        input.FixtureType,
		Awards:             input.Awards,
		AwardsDistribution: breakdown.Distribution,
		PrizePool:          breakdown.PrizePool,
		Status:             models.StatusDraft,
		Rules:              input.Rules,
	}

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.userRepo.Debit(ctx, tx, creatorID, input.Fee); err != nil {
			if errors.Is(err, repositories.ErrInsufficientBalance) {
				return ErrInsufficientBalance
			}
			if errors.Is(err, repositories.ErrUserNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to debit entry fee: %w", err)
		}
		if err := s.tournamentRepo.Create(ctx, tx, tournament); err != nil {
			return fmt.Errorf("failed to create tournament: %w", err)
		}
		return s.tournamentRepo.AddMember(ctx, tx, tournament.ID, creatorID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "tournament created", "tournament_id", tournament.ID, "creator_id", creatorID)
	return tournament, nil
}

func (s *TournamentService) Get(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, s.db, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, err
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		creator, err := s.userRepo.GetByID(gCtx, s.db, tournament.CreatorID)
		if err != nil {
			return fmt.Errorf("failed to load tournament creator: %w", err)
		}
		tournament.Creator = creator
		return nil
	})
	g.Go(func() error {
		members, err := s.tournamentRepo.ListMembers(gCtx, s.db, tournament.ID)
		if err != nil {
			return fmt.Errorf("failed to load tournament members: %w", err)
		}
		tournament.Members = members
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if tournament.LogoKey != nil && s.uploader != nil {
		url := s.uploader.GetPublicURL(*tournament.LogoKey)
		tournament.LogoURL = &url
	}
	return tournament, nil
}

func (s *TournamentService) ListByMember(ctx context.Context, userID int) ([]*models.Tournament, error) {
	return s.tournamentRepo.ListByMember(ctx, s.db, userID)
}

type UpdateTournamentInput struct {
	Name           *string                  `json:"name"`
	Fee            *float64                 `json:"fee"`
	TeamsPerGroup  *int                     `json:"teams_per_group"`
	NumberOfGroups *int                     `json:"number_of_groups"`
	Format         *models.TournamentFormat `json:"format"`
	FixtureType    *models.FixtureType      `json:"fixture_type"`
	Awards         *models.AwardPolicy      `json:"awards"`
	Rules          []string                 `json:"rules"`
}

// Update меняет настройки турнира. Только создатель, только в черновике.
func (s *TournamentService) Update(ctx context.Context, userID, id int, input UpdateTournamentInput) (*models.Tournament, error) {
	var tournament *models.Tournament
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		tournament, err = s.lockTournament(ctx, tx, id, userID)
		if err != nil {
			return err
		}
		if tournament.Status != models.StatusDraft {
			return ErrInvalidStatusTransition
		}

		if input.Name != nil {
			tournament.Name = strings.TrimSpace(*input.Name)
		}
		if input.Fee != nil {
			tournament.Fee = *input.Fee
		}
		if input.TeamsPerGroup != nil {
			tournament.TeamsPerGroup = *input.TeamsPerGroup
		}
		if input.NumberOfGroups != nil {
			tournament.NumberOfGroups = *input.NumberOfGroups
		}
		if input.Format != nil {
			tournament.Format = *input.Format
		}
		if input.FixtureType != nil {
			tournament.FixtureType = *input.FixtureType
		}
		if input.Awards != nil {
			tournament.Awards = *input.Awards
		}
		if input.Rules != nil {
			tournament.Rules = input.Rules
		}
		check := CreateTournamentInput{
			Name:           tournament.Name,
			Fee:            tournament.Fee,
			TeamsPerGroup:  tournament.TeamsPerGroup,
			NumberOfGroups: tournament.NumberOfGroups,
			Format:         tournament.Format,
			FixtureType:    tournament.FixtureType,
			Awards:         tournament.Awards,
		}
		if err := check.validate(); err != nil {
			return err
		}

		memberIDs, err := s.tournamentRepo.ListMemberIDs(ctx, tx, id)
		if err != nil {
			return err
		}
		if len(memberIDs) > tournamentCapacity(tournament) {
			return fmt.Errorf("%w: %d members already joined", ErrValidation, len(memberIDs))
		}
		breakdown, err := CalculatePrizes(len(memberIDs), tournament.Fee, tournament.Awards)
		if err != nil {
			return err
		}
		tournament.PrizePool = breakdown.PrizePool
		tournament.AwardsDistribution = breakdown.Distribution

		if err := s.tournamentRepo.UpdateConfig(ctx, tx, tournament); err != nil {
			return err
		}
		return s.tournamentRepo.UpdateAwards(ctx, tx, id, tournament.PrizePool, tournament.AwardsDistribution)
	})
	if err != nil {
		return nil, err
	}
	return tournament, nil
}

// Start переводит турнир из draft в ongoing. Для knockout сразу сеется
// сетка первого раунда; для groupKnockout проводится жеребьёвка групп и
// генерируются круговые матчи внутри каждой группы.
func (s *TournamentService) Start(ctx context.Context, userID, id int) ([]*models.Fixture, error) {
	var created []*models.Fixture
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		tournament, err := s.lockTournament(ctx, tx, id, userID)
		if err != nil {
			return err
		}
		if tournament.Status != models.StatusDraft {
			return ErrInvalidStatusTransition
		}

		memberIDs, err := s.tournamentRepo.ListMemberIDs(ctx, tx, id)
		if err != nil {
			return err
		}
		capacity := tournamentCapacity(tournament)
		if len(memberIDs) != capacity {
			return fmt.Errorf("%w: %d of %d members joined", ErrNotEnoughMembers, len(memberIDs), capacity)
		}

		var stage models.TournamentStage
		switch tournament.Format {
		case models.FormatKnockout:
			stage = models.StageKnockout
			created, err = s.buildKnockoutRound(ctx, tx, tournament, shuffled(memberIDs))
		case models.FormatGroupKnockout:
			stage = models.StageGroup
			created, err = s.buildGroupStage(ctx, tx, tournament, memberIDs)
		default:
			err = fmt.Errorf("%w: unknown tournament format %q", ErrValidation, tournament.Format)
		}
		if err != nil {
			return err
		}

		if err := s.tournamentRepo.UpdateStage(ctx, tx, id, stage); err != nil {
			return err
		}
		return s.tournamentRepo.UpdateStatus(ctx, tx, id, models.StatusOngoing)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "tournament started", "tournament_id", id, "fixtures", len(created))
	return created, nil
}

func shuffled(ids []int) []int {
	out := make([]int, len(ids))
	copy(out, ids)
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// buildKnockoutRound сеет участников (порядок среза = посев) и создаёт матчи
// первого раунда; при homeAway сразу создаются и ответные матчи.
func (s *TournamentService) buildKnockoutRound(ctx context.Context, tx *sql.Tx, tournament *models.Tournament, seededIDs []int) ([]*models.Fixture, error) {
	pairs, err := brackets.SeedKnockout(len(seededIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to seed knockout bracket: %w", err)
	}
	round := brackets.RoundName(len(seededIDs))
	homeAway := tournament.FixtureType == models.FixtureHomeAway

	fixtures := make([]*models.Fixture, 0, len(pairs)*2)
	for i, pair := range pairs {
		team1 := seededIDs[pair[0]-1]
		team2 := seededIDs[pair[1]-1]
		position := i + 1
		fixtures = append(fixtures, knockoutFixture(tournament.ID, round, position, &team1, &team2, homeAway))
		if homeAway {
			fixtures = append(fixtures, knockoutFixture(tournament.ID, brackets.ReverseRound(round), position, &team2, &team1, homeAway))
		}
	}
	if err := s.fixtureRepo.BatchCreate(ctx, tx, fixtures); err != nil {
		return nil, err
	}
	return fixtures, nil
}

func knockoutFixture(tournamentID int, round string, position int, team1, team2 *int, homeAway bool) *models.Fixture {
	p := position
	return &models.Fixture{
		CompetitionID:   tournamentID,
		CompetitionType: models.CompetitionTournament,
		Team1ID:         team1,
		Team2ID:         team2,
		Round:           round,
		Stage:           models.FixtureStageKnockout,
		Position:        &p,
		IsHomeAway:      homeAway,
		Status:          models.FixturePending,
	}
}

func (s *TournamentService) buildGroupStage(ctx context.Context, tx *sql.Tx, tournament *models.Tournament, memberIDs []int) ([]*models.Fixture, error) {
	groups, err := brackets.DrawGroups(memberIDs, tournament.NumberOfGroups, tournament.TeamsPerGroup)
	if err != nil {
		return nil, fmt.Errorf("failed to draw groups: %w", err)
	}
	homeAway := tournament.FixtureType == models.FixtureHomeAway

	fixtures := make([]*models.Fixture, 0)
	rows := make([]*models.Standing, 0, len(memberIDs))
	for _, group := range groups {
		letter := group.Letter
		matches, err := brackets.GenerateRoundRobin(group.Teams, tournament.FixtureType)
		if err != nil {
			return nil, fmt.Errorf("failed to generate group %s schedule: %w", letter, err)
		}
		for _, m := range matches {
			team1, team2 := m.Team1, m.Team2
			g := letter
			fixtures = append(fixtures, &models.Fixture{
				CompetitionID:   tournament.ID,
				CompetitionType: models.CompetitionTournament,
				Team1ID:         &team1,
				Team2ID:         &team2,
				Round:           strconv.Itoa(m.Round),
				Group:           &g,
				Stage:           models.FixtureStageGroup,
				IsHomeAway:      homeAway,
				Status:          models.FixturePending,
			})
		}
		g := letter
		rows = append(rows, standings.Init(tournament.ID, models.CompetitionTournament, group.Teams, &g)...)
	}

	if err := s.fixtureRepo.BatchCreate(ctx, tx, fixtures); err != nil {
		return nil, err
	}
	if err := s.standingRepo.BatchCreate(ctx, tx, rows); err != nil {
		return nil, err
	}
	return fixtures, nil
}

// AdvanceToKnockout закрывает групповой этап: все групповые матчи должны быть
// сыграны. Из каждой группы выходят два лучших; победители групп сеются выше
// вторых мест, что разводит одногруппников по разным парам первого раунда.
func (s *TournamentService) AdvanceToKnockout(ctx context.Context, userID, id int) ([]*models.Fixture, error) {
	var created []*models.Fixture
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		tournament, err := s.lockTournament(ctx, tx, id, userID)
		if err != nil {
			return err
		}
		if tournament.Status != models.StatusOngoing || tournament.Stage == nil || *tournament.Stage != models.StageGroup {
			return ErrInvalidStatusTransition
		}

		groupStage := models.FixtureStageGroup
		incomplete, err := s.fixtureRepo.CountIncomplete(ctx, tx, id, models.CompetitionTournament, &groupStage)
		if err != nil {
			return err
		}
		if incomplete > 0 {
			return fmt.Errorf("%w: %d group fixtures remaining", ErrFixturesIncomplete, incomplete)
		}

		table, err := s.standingRepo.ListByCompetition(ctx, tx, id, models.CompetitionTournament)
		if err != nil {
			return err
		}
		winners, runners, err := groupQualifiers(table)
		if err != nil {
			return err
		}
		seeded := append(winners, runners...)

		created, err = s.buildKnockoutRound(ctx, tx, tournament, seeded)
		if err != nil {
			return err
		}
		return s.tournamentRepo.UpdateStage(ctx, tx, id, models.StageKnockout)
	})
	if err != nil {
		return nil, err
	}

	s.hub.BroadcastToRoom(tournamentRoom(id), brackets.Message{Type: brackets.EventStageAdvanced, Payload: created})
	return created, nil
}

// groupQualifiers выбирает по два лучших из каждой группы. Таблица приходит
// отсортированной по группам и месту, так что первые две строки каждой
// группы — её победитель и второе место.
func groupQualifiers(table []*models.Standing) (winners, runners []int, err error) {
	byGroup := make(map[string][]*models.Standing)
	order := make([]string, 0)
	for _, row := range table {
		if row.Group == nil {
			return nil, nil, fmt.Errorf("%w: standing row %d has no group", ErrValidation, row.ID)
		}
		if _, seen := byGroup[*row.Group]; !seen {
			order = append(order, *row.Group)
		}
		byGroup[*row.Group] = append(byGroup[*row.Group], row)
	}
	for _, letter := range order {
		rows := byGroup[letter]
		if len(rows) < 2 {
			return nil, nil, fmt.Errorf("%w: group %s has fewer than 2 participants", ErrNotEnoughMembers, letter)
		}
		winners = append(winners, rows[0].UserID)
		runners = append(runners, rows[1].UserID)
	}
	return winners, runners, nil
}

// SubmitResult записывает счёт матча турнира. Групповые матчи ведут таблицу
// группы (повторная отправка — исправление через откат). Матчи плей-офф
// после завершения не исправляются: их итог мог уже продвинуть сетку.
func (s *TournamentService) SubmitResult(ctx context.Context, userID, tournamentID, fixtureID int, team1Score, team2Score *int) (*models.Fixture, error) {
	if team1Score == nil || team2Score == nil {
		return nil, ErrScoresRequired
	}
	if *team1Score < 0 || *team2Score < 0 {
		return nil, fmt.Errorf("%w: scores cannot be negative", ErrValidation)
	}

	var fixture *models.Fixture
	var progressed []*models.Fixture
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		tournament, err := s.lockTournament(ctx, tx, tournamentID, userID)
		if err != nil {
			return err
		}
		if tournament.Status != models.StatusOngoing {
			return ErrInvalidStatusTransition
		}

		fixture, err = s.fixtureRepo.GetByID(ctx, tx, fixtureID)
		if err != nil {
			if errors.Is(err, repositories.ErrFixtureNotFound) {
				return ErrFixtureNotFound
			}
			return err
		}
		if fixture.CompetitionID != tournamentID || fixture.CompetitionType != models.CompetitionTournament {
			return ErrFixtureNotFound
		}

		switch fixture.Stage {
		case models.FixtureStageGroup:
			return s.recordGroupResult(ctx, tx, fixture, *team1Score, *team2Score)
		case models.FixtureStageKnockout:
			progressed, err = s.recordKnockoutResult(ctx, tx, fixture, *team1Score, *team2Score)
			return err
		default:
			return fmt.Errorf("%w: fixture %d has unexpected stage %q", ErrValidation, fixture.ID, fixture.Stage)
		}
	})
	if err != nil {
		return nil, err
	}

	s.hub.BroadcastToRoom(tournamentRoom(tournamentID), brackets.Message{Type: brackets.EventFixtureUpdated, Payload: fixture})
	if fixture.Stage == models.FixtureStageGroup {
		s.hub.BroadcastToRoom(tournamentRoom(tournamentID), brackets.Message{Type: brackets.EventStandingsUpdated})
	}
	for _, next := range progressed {
		s.hub.BroadcastToRoom(tournamentRoom(tournamentID), brackets.Message{Type: brackets.EventFixtureUpdated, Payload: next})
	}
	return fixture, nil
}

func (s *TournamentService) recordGroupResult(ctx context.Context, tx *sql.Tx, fixture *models.Fixture, team1Score, team2Score int) error {
	row1, err := s.standingRepo.GetByCompetitionAndUser(ctx, tx, fixture.CompetitionID, models.CompetitionTournament, *fixture.Team1ID)
	if err != nil {
		return err
	}
	row2, err := s.standingRepo.GetByCompetitionAndUser(ctx, tx, fixture.CompetitionID, models.CompetitionTournament, *fixture.Team2ID)
	if err != nil {
		return err
	}

	if fixture.Status == models.FixtureCompleted {
		standings.Rollback(row1, row2, *fixture.Team1Score, *fixture.Team2Score, fixture.IsHomeAway)
	}
	standings.Apply(row1, row2, team1Score, team2Score, fixture.IsHomeAway)

	if err := s.standingRepo.Update(ctx, tx, row1); err != nil {
		return err
	}
	if err := s.standingRepo.Update(ctx, tx, row2); err != nil {
		return err
	}
	if err := s.fixtureRepo.UpdateResult(ctx, tx, fixture.ID, team1Score, team2Score); err != nil {
		return err
	}
	fixture.Team1Score = &team1Score
	fixture.Team2Score = &team2Score
	fixture.Status = models.FixtureCompleted
	return nil
}

// recordKnockoutResult записывает счёт матча плей-офф и, если противостояние
// решено, продвигает победителя в следующий раунд. Для двухматчевых пар
// продвижение ждёт завершения обоих матчей; равенство по сумме отклоняется,
// пока создатель не внесёт решающий счёт.
func (s *TournamentService) recordKnockoutResult(ctx context.Context, tx *sql.Tx, fixture *models.Fixture, team1Score, team2Score int) ([]*models.Fixture, error) {
	if fixture.Status == models.FixtureCompleted {
		return nil, ErrFixtureAlreadyDecided
	}
	if fixture.Team1ID == nil || fixture.Team2ID == nil {
		return nil, fmt.Errorf("%w: fixture %d is still waiting for participants", ErrValidation, fixture.ID)
	}

	winnerID, decided, err := s.resolveTie(ctx, tx, fixture, team1Score, team2Score)
	if err != nil {
		return nil, err
	}

	if err := s.fixtureRepo.UpdateResult(ctx, tx, fixture.ID, team1Score, team2Score); err != nil {
		return nil, err
	}
	fixture.Team1Score = &team1Score
	fixture.Team2Score = &team2Score
	fixture.Status = models.FixtureCompleted

	if !decided {
		// Ответный матч ещё не сыгран.
		return nil, nil
	}
	return s.advanceWinner(ctx, tx, fixture, winnerID)
}

// resolveTie определяет, решено ли противостояние с учётом предлагаемого
// счёта, и кто победил. Для одноматчевых пар ничья недопустима; для
// двухматчевых сравнивается сумма двух матчей.
func (s *TournamentService) resolveTie(ctx context.Context, tx *sql.Tx, fixture *models.Fixture, team1Score, team2Score int) (winnerID int, decided bool, err error) {
	if !fixture.IsHomeAway {
		if team1Score == team2Score {
			return 0, false, ErrTieUnresolved
		}
		if team1Score > team2Score {
			return *fixture.Team1ID, true, nil
		}
		return *fixture.Team2ID, true, nil
	}

	sibling, err := s.siblingLeg(ctx, tx, fixture)
	if err != nil {
		return 0, false, err
	}
	return twoLegOutcome(fixture, sibling, team1Score, team2Score)
}

// twoLegOutcome решает двухматчевое противостояние по предлагаемому счёту
// текущего матча и другому матчу пары. Пока другой матч не завершён, пара не
// решена. В ответном матче команды поменяны местами: свой счёт team1
// складывается с голами team2 из другого матча.
func twoLegOutcome(fixture, sibling *models.Fixture, team1Score, team2Score int) (winnerID int, decided bool, err error) {
	if sibling.Status != models.FixtureCompleted {
		return 0, false, nil
	}

	aggregate1 := team1Score + *sibling.Team2Score
	aggregate2 := team2Score + *sibling.Team1Score
	if aggregate1 == aggregate2 {
		return 0, false, fmt.Errorf("%w: aggregate %d-%d", ErrTieUnresolved, aggregate1, aggregate2)
	}
	if aggregate1 > aggregate2 {
		return *fixture.Team1ID, true, nil
	}
	return *fixture.Team2ID, true, nil
}

func (s *TournamentService) siblingLeg(ctx context.Context, tx *sql.Tx, fixture *models.Fixture) (*models.Fixture, error) {
	siblingRound := brackets.ReverseRound(fixture.Round)
	if strings.HasSuffix(fixture.Round, brackets.ReverseSuffix) {
		siblingRound = strings.TrimSuffix(fixture.Round, brackets.ReverseSuffix)
	}
	sibling, err := s.fixtureRepo.FindBySlot(ctx, tx, fixture.CompetitionID, fixture.CompetitionType, siblingRound, *fixture.Position)
	if err != nil {
		if errors.Is(err, repositories.ErrFixtureNotFound) {
			return nil, fmt.Errorf("fixture %d has no sibling leg in round %s: %w", fixture.ID, siblingRound, err)
		}
		return nil, err
	}
	return sibling, nil
}

// advanceWinner ставит победителя в слот следующего раунда. Слот создаётся
// с одной известной стороной либо дозаполняется; когда обе стороны известны
// и пара двухматчевая, сразу создаётся ответный матч.
func (s *TournamentService) advanceWinner(ctx context.Context, tx *sql.Tx, fixture *models.Fixture, winnerID int) ([]*models.Fixture, error) {
	baseRound := strings.TrimSuffix(fixture.Round, brackets.ReverseSuffix)
	nextRound, nextPosition, isTeam1, ok := brackets.NextSlot(baseRound, *fixture.Position)
	if !ok {
		// Финал: продвигать некуда, итог забирает Finish.
		return nil, nil
	}

	proto := knockoutFixture(fixture.CompetitionID, nextRound, nextPosition, nil, nil, fixture.IsHomeAway)
	next, err := s.fixtureRepo.UpsertSlot(ctx, tx, proto, winnerID, isTeam1)
	if err != nil {
		return nil, fmt.Errorf("failed to place winner into round %s: %w", nextRound, err)
	}

	progressed := []*models.Fixture{next}
	if fixture.IsHomeAway && next.Team1ID != nil && next.Team2ID != nil {
		reverse := knockoutFixture(fixture.CompetitionID, brackets.ReverseRound(nextRound), nextPosition, next.Team2ID, next.Team1ID, true)
		if err := s.fixtureRepo.Create(ctx, tx, reverse); err != nil {
			return nil, fmt.Errorf("failed to create reverse leg for round %s: %w", nextRound, err)
		}
		progressed = append(progressed, reverse)
	}
	return progressed, nil
}

// Finish завершает турнир по решённому финалу: победитель и финалист
// получают призовые, статус переводится в completed.
func (s *TournamentService) Finish(ctx context.Context, userID, id int) (*models.Tournament, error) {
	var tournament *models.Tournament
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		tournament, err = s.lockTournament(ctx, tx, id, userID)
		if err != nil {
			return err
		}
		if tournament.Status != models.StatusOngoing || tournament.Stage == nil || *tournament.Stage != models.StageKnockout {
			return ErrInvalidStatusTransition
		}

		incomplete, err := s.fixtureRepo.CountIncomplete(ctx, tx, id, models.CompetitionTournament, nil)
		if err != nil {
			return err
		}
		if incomplete > 0 {
			return fmt.Errorf("%w: %d fixtures remaining", ErrFixturesIncomplete, incomplete)
		}

		winnerID, runnerUpID, err := s.finalOutcome(ctx, tx, tournament)
		if err != nil {
			return err
		}

		dist := tournament.AwardsDistribution
		if dist.FirstPlace > 0 {
			if err := s.userRepo.Credit(ctx, tx, winnerID, dist.FirstPlace); err != nil {
				return fmt.Errorf("failed to credit winner prize: %w", err)
			}
		}
		if dist.SecondPlace > 0 {
			if err := s.userRepo.Credit(ctx, tx, runnerUpID, dist.SecondPlace); err != nil {
				return fmt.Errorf("failed to credit runner-up prize: %w", err)
			}
		}

		if err := s.tournamentRepo.SetWinners(ctx, tx, id, winnerID, runnerUpID); err != nil {
			return err
		}
		tournament.WinnerID = &winnerID
		tournament.RunnerUpID = &runnerUpID
		tournament.Status = models.StatusCompleted
		return s.tournamentRepo.UpdateStatus(ctx, tx, id, models.StatusCompleted)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "tournament completed", "tournament_id", id, "winner_id", *tournament.WinnerID)
	s.hub.BroadcastToRoom(tournamentRoom(id), brackets.Message{Type: brackets.EventCompetitionDone, Payload: tournament})
	return tournament, nil
}

// finalOutcome читает финал (и ответный финал для двухматчевых турниров)
// и возвращает победителя и финалиста.
func (s *TournamentService) finalOutcome(ctx context.Context, tx *sql.Tx, tournament *models.Tournament) (winnerID, runnerUpID int, err error) {
	final, err := s.fixtureRepo.FindBySlot(ctx, tx, tournament.ID, models.CompetitionTournament, brackets.Final, 1)
	if err != nil {
		if errors.Is(err, repositories.ErrFixtureNotFound) {
			return 0, 0, fmt.Errorf("%w: final fixture is missing", ErrFixturesIncomplete)
		}
		return 0, 0, err
	}
	if final.Status != models.FixtureCompleted || final.Team1ID == nil || final.Team2ID == nil {
		return 0, 0, fmt.Errorf("%w: final is not completed", ErrFixturesIncomplete)
	}

	score1, score2 := *final.Team1Score, *final.Team2Score
	if final.IsHomeAway {
		reverse, err := s.siblingLeg(ctx, tx, final)
		if err != nil {
			return 0, 0, err
		}
		if reverse.Status != models.FixtureCompleted {
			return 0, 0, fmt.Errorf("%w: reverse final is not completed", ErrFixturesIncomplete)
		}
		score1 += *reverse.Team2Score
		score2 += *reverse.Team1Score
	}
	if score1 == score2 {
		return 0, 0, fmt.Errorf("%w: final aggregate %d-%d", ErrTieUnresolved, score1, score2)
	}
	if score1 > score2 {
		return *final.Team1ID, *final.Team2ID, nil
	}
	return *final.Team2ID, *final.Team1ID, nil
}

// GroupTables возвращает таблицы группового этапа.
func (s *TournamentService) GroupTables(ctx context.Context, id int) ([]*models.Standing, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, s.db, id); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, err
	}
	return s.standingRepo.ListByCompetition(ctx, s.db, id, models.CompetitionTournament)
}

func (s *TournamentService) Fixtures(ctx context.Context, id int, stage *models.FixtureStage) ([]*models.Fixture, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, s.db, id); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, err
	}
	return s.fixtureRepo.ListByCompetition(ctx, s.db, id, models.CompetitionTournament, stage)
}

func (s *TournamentService) UploadLogo(ctx context.Context, userID, id int, contentType string, file io.Reader) (string, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, s.db, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return "", ErrCompetitionNotFound
		}
		return "", err
	}
	if tournament.CreatorID != userID {
		return "", ErrNotCreator
	}

	key := fmt.Sprintf("tournaments/%d/logo", id)
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return "", fmt.Errorf("failed to upload tournament logo: %w", err)
	}
	if err := s.tournamentRepo.UpdateLogoKey(ctx, s.db, id, result.Key); err != nil {
		return "", err
	}
	return result.Location, nil
}

func (s *TournamentService) lockTournament(ctx context.Context, tx *sql.Tx, id, userID int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, err
	}
	if tournament.CreatorID != userID {
		return nil, ErrNotCreator
	}
	return tournament, nil
}

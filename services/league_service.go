package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/secondstrikerr/secondstriker/brackets"
	"github.com/secondstrikerr/secondstriker/models"
	"github.com/secondstrikerr/secondstriker/repositories"
	"github.com/secondstrikerr/secondstriker/standings"
	"github.com/secondstrikerr/secondstriker/storage"
)

type LeagueService struct {
	db           *sql.DB
	logger       *slog.Logger
	hub          *brackets.Hub
	uploader     storage.FileUploader
	leagueRepo   repositories.LeagueRepository
	userRepo     repositories.UserRepository
	fixtureRepo  repositories.FixtureRepository
	standingRepo repositories.StandingRepository
}

func NewLeagueService(
	db *sql.DB,
	logger *slog.Logger,
	hub *brackets.Hub,
	uploader storage.FileUploader,
	leagueRepo repositories.LeagueRepository,
	userRepo repositories.UserRepository,
	fixtureRepo repositories.FixtureRepository,
	standingRepo repositories.StandingRepository,
) *LeagueService {
	return &LeagueService{
		db:           db,
		logger:       logger,
		hub:          hub,
		uploader:     uploader,
		leagueRepo:   leagueRepo,
		userRepo:     userRepo,
		fixtureRepo:  fixtureRepo,
		standingRepo: standingRepo,
	}
}

func leagueRoom(id int) string { return fmt.Sprintf("league:%d", id) }

type CreateLeagueInput struct {
	Name          string             `json:"name"`
	Fee           float64            `json:"fee"`
	NumberOfTeams int                `json:"number_of_teams"`
	FixtureType   models.FixtureType `json:"fixture_type"`
	Awards        models.AwardPolicy `json:"awards"`
	Rules         []string           `json:"rules"`
}

func (in *CreateLeagueInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if in.Fee < 0 {
		return fmt.Errorf("%w: fee cannot be negative", ErrValidation)
	}
	if in.NumberOfTeams < 2 {
		return fmt.Errorf("%w: a league needs at least 2 teams", ErrValidation)
	}
	if !in.FixtureType.Valid() {
		return fmt.Errorf("%w: unknown fixture type %q", ErrValidation, in.FixtureType)
	}
	if !in.Awards.Valid() {
		return fmt.Errorf("%w: unknown award policy %q", ErrValidation, in.Awards)
	}
	if in.Awards == models.AwardTopThree && in.NumberOfTeams < 3 {
		return fmt.Errorf("%w: topThree awards need at least 3 teams", ErrValidation)
	}
	return nil
}

// Create создаёт черновик лиги. Взнос создателя списывается сразу, создатель
// становится первым участником, призовой фонд пересчитывается от одного взноса.
func (s *LeagueService) Create(ctx context.Context, creatorID int, input CreateLeagueInput) (*models.League, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	breakdown, err := CalculatePrizes(1, input.Fee, input.Awards)
	if err != nil {
		return nil, err
	}
	league := &models.League{
		Name:               strings.TrimSpace(input.Name),
		Fee:                input.Fee,
		CreatorID:          creatorID,
		NumberOfTeams:      input.NumberOfTeams,
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
		if err := s.leagueRepo.Create(ctx, tx, league); err != nil {
			return fmt.Errorf("failed to create league: %w", err)
		}
		return s.leagueRepo.AddMember(ctx, tx, league.ID, creatorID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "league created", "league_id", league.ID, "creator_id", creatorID)
	return league, nil
}

// Get возвращает лигу с создателем и участниками. Детали тянутся параллельно.
func (s *LeagueService) Get(ctx context.Context, id int) (*models.League, error) {
	league, err := s.leagueRepo.GetByID(ctx, s.db, id)
	if err != nil {
		if errors.Is(err, repositories.ErrLeagueNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, err
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		creator, err := s.userRepo.GetByID(gCtx, s.db, league.CreatorID)
		if err != nil {
			return fmt.Errorf("failed to load league creator: %w", err)
		}
		league.Creator = creator
		return nil
	})
	g.Go(func() error {
		members, err := s.leagueRepo.ListMembers(gCtx, s.db, league.ID)
		if err != nil {
			return fmt.Errorf("failed to load league members: %w", err)
		}
		league.Members = members
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.resolveLogoURL(league)
	return league, nil
}

func (s *LeagueService) ListByMember(ctx context.Context, userID int) ([]*models.League, error) {
	leagues, err := s.leagueRepo.ListByMember(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	for _, l := range leagues {
		s.resolveLogoURL(l)
	}
	return leagues, nil
}

func (s *LeagueService) resolveLogoURL(league *models.League) {
	if league.LogoKey != nil && s.uploader != nil {
		url := s.uploader.GetPublicURL(*league.LogoKey)
		league.LogoURL = &url
	}
}

type UpdateLeagueInput struct {
	Name          *string             `json:"name"`
	Fee           *float64            `json:"fee"`
	NumberOfTeams *int                `json:"number_of_teams"`
	FixtureType   *models.FixtureType `json:"fixture_type"`
	Awards        *models.AwardPolicy `json:"awards"`
	Rules         []string            `json:"rules"`
}

// Update меняет настройки лиги. Разрешено только создателю и только в черновике:
// после старта конфигурация заморожена. Призовой фонд пересчитывается.
func (s *LeagueService) Update(ctx context.Context, userID, id int, input UpdateLeagueInput) (*models.League, error) {
	var league *models.League
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		league, err = s.lockLeague(ctx, tx, id, userID)
		if err != nil {
			return err
		}
		if league.Status != models.StatusDraft {
			return ErrInvalidStatusTransition
		}

		if input.Name != nil {
			league.Name = strings.TrimSpace(*input.Name)
		}
		if input.Fee != nil {
			league.Fee = *input.Fee
		}
		if input.NumberOfTeams != nil {
			league.NumberOfTeams = *input.NumberOfTeams
		}
		if input.FixtureType != nil {
			league.FixtureType = *input.FixtureType
		}
		if input.Awards != nil {
			league.Awards = *input.Awards
		}
		if input.Rules != nil {
			league.Rules = input.Rules
		}
		check := CreateLeagueInput{
			Name:          league.Name,
			Fee:           league.Fee,
			NumberOfTeams: league.NumberOfTeams,
			FixtureType:   league.FixtureType,
			Awards:        league.Awards,
		}
		if err := check.validate(); err != nil {
			return err
		}

		count, err := s.leagueRepo.CountMembers(ctx, tx, id)
		if err != nil {
			return err
		}
		if count > league.NumberOfTeams {
			return fmt.Errorf("%w: %d members already joined", ErrValidation, count)
		}
		breakdown, err := CalculatePrizes(count, league.Fee, league.Awards)
		if err != nil {
			return err
		}
		league.PrizePool = breakdown.PrizePool
		league.AwardsDistribution = breakdown.Distribution

		if err := s.leagueRepo.UpdateConfig(ctx, tx, league); err != nil {
			return err
		}
		return s.leagueRepo.UpdateAwards(ctx, tx, id, league.PrizePool, league.AwardsDistribution)
	})
	if err != nil {
		return nil, err
	}
	return league, nil
}

// Start переводит лигу из draft в ongoing: генерирует полный календарь и
// нулевую таблицу одной транзакцией. Требует полного состава.
func (s *LeagueService) Start(ctx context.Context, userID, id int) ([]*models.Fixture, error) {
	var created []*models.Fixture
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		league, err := s.lockLeague(ctx, tx, id, userID)
		if err != nil {
			return err
		}
		if league.Status != models.StatusDraft {
			return ErrInvalidStatusTransition
		}

		memberIDs, err := s.leagueRepo.ListMemberIDs(ctx, tx, id)
		if err != nil {
			return err
		}
		if len(memberIDs) != league.NumberOfTeams {
			return fmt.Errorf("%w: %d of %d members joined", ErrNotEnoughMembers, len(memberIDs), league.NumberOfTeams)
		}

		matches, err := brackets.GenerateRoundRobin(memberIDs, league.FixtureType)
		if err != nil {
			return fmt.Errorf("failed to generate league schedule: %w", err)
		}
		homeAway := league.FixtureType == models.FixtureHomeAway
		created = make([]*models.Fixture, 0, len(matches))
		for _, m := range matches {
			team1, team2 := m.Team1, m.Team2
			created = append(created, &models.Fixture{
				CompetitionID:   id,
				CompetitionType: models.CompetitionLeague,
				Team1ID:         &team1,
				Team2ID:         &team2,
				Round:           strconv.Itoa(m.Round),
				Stage:           models.FixtureStageLeague,
				IsHomeAway:      homeAway,
				Status:          models.FixturePending,
			})
		}
		if err := s.fixtureRepo.BatchCreate(ctx, tx, created); err != nil {
			return err
		}

		rows := standings.Init(id, models.CompetitionLeague, memberIDs, nil)
		if err := s.standingRepo.BatchCreate(ctx, tx, rows); err != nil {
			return err
		}
		return s.leagueRepo.UpdateStatus(ctx, tx, id, models.StatusOngoing)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "league started", "league_id", id, "fixtures", len(created))
	return created, nil
}

// SubmitResult записывает счёт матча и обновляет таблицу. Повторная отправка
// по завершённому матчу трактуется как исправление: старый результат сначала
// откатывается, затем применяется новый.
func (s *LeagueService) SubmitResult(ctx context.Context, userID, leagueID, fixtureID int, team1Score, team2Score *int) (*models.Fixture, error) {
	if team1Score == nil || team2Score == nil {
		return nil, ErrScoresRequired
	}
	if *team1Score < 0 || *team2Score < 0 {
		return nil, fmt.Errorf("%w: scores cannot be negative", ErrValidation)
	}

	var fixture *models.Fixture
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		league, err := s.lockLeague(ctx, tx, leagueID, userID)
		if err != nil {
			return err
		}
		if league.Status != models.StatusOngoing {
			return ErrInvalidStatusTransition
		}

		fixture, err = s.fixtureRepo.GetByID(ctx, tx, fixtureID)
		if err != nil {
			if errors.Is(err, repositories.ErrFixtureNotFound) {
				return ErrFixtureNotFound
			}
			return err
		}
		if fixture.CompetitionID != leagueID || fixture.CompetitionType != models.CompetitionLeague {
			return ErrFixtureNotFound
		}

		row1, err := s.standingRepo.GetByCompetitionAndUser(ctx, tx, leagueID, models.CompetitionLeague, *fixture.Team1ID)
		if err != nil {
			return err
		}
		row2, err := s.standingRepo.GetByCompetitionAndUser(ctx, tx, leagueID, models.CompetitionLeague, *fixture.Team2ID)
		if err != nil {
			return err
		}

		if fixture.Status == models.FixtureCompleted {
			standings.Rollback(row1, row2, *fixture.Team1Score, *fixture.Team2Score, fixture.IsHomeAway)
		}
		standings.Apply(row1, row2, *team1Score, *team2Score, fixture.IsHomeAway)

		if err := s.standingRepo.Update(ctx, tx, row1); err != nil {
			return err
		}
		if err := s.standingRepo.Update(ctx, tx, row2); err != nil {
			return err
		}
		if err := s.fixtureRepo.UpdateResult(ctx, tx, fixtureID, *team1Score, *team2Score); err != nil {
			return err
		}
		fixture.Team1Score = team1Score
		fixture.Team2Score = team2Score
		fixture.Status = models.FixtureCompleted
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.hub.BroadcastToRoom(leagueRoom(leagueID), brackets.Message{Type: brackets.EventFixtureUpdated, Payload: fixture})
	s.hub.BroadcastToRoom(leagueRoom(leagueID), brackets.Message{Type: brackets.EventStandingsUpdated})
	return fixture, nil
}

// Finish завершает лигу: все матчи должны быть сыграны. Призовые зачисляются
// на балансы по итоговому порядку таблицы, статус переводится в completed.
func (s *LeagueService) Finish(ctx context.Context, userID, id int) (*models.League, error) {
	var league *models.League
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		league, err = s.lockLeague(ctx, tx, id, userID)
		if err != nil {
			return err
		}
		if league.Status != models.StatusOngoing {
			return ErrInvalidStatusTransition
		}

		incomplete, err := s.fixtureRepo.CountIncomplete(ctx, tx, id, models.CompetitionLeague, nil)
		if err != nil {
			return err
		}
		if incomplete > 0 {
			return fmt.Errorf("%w: %d fixtures remaining", ErrFixturesIncomplete, incomplete)
		}

		table, err := s.standingRepo.ListByCompetition(ctx, tx, id, models.CompetitionLeague)
		if err != nil {
			return err
		}
		if err := s.payOutPrizes(ctx, tx, table, league.AwardsDistribution); err != nil {
			return err
		}

		league.Status = models.StatusCompleted
		return s.leagueRepo.UpdateStatus(ctx, tx, id, models.StatusCompleted)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "league completed", "league_id", id, "prize_pool", league.PrizePool)
	s.hub.BroadcastToRoom(leagueRoom(id), brackets.Message{Type: brackets.EventCompetitionDone, Payload: league})
	return league, nil
}

// payOutPrizes начисляет выплаты первым строкам итоговой таблицы. Нулевые
// доли (например третье место при политике first) пропускаются.
func (s *LeagueService) payOutPrizes(ctx context.Context, tx *sql.Tx, table []*models.Standing, dist models.AwardsDistribution) error {
	payouts := []float64{dist.FirstPlace, dist.SecondPlace, dist.ThirdPlace}
	for i, amount := range payouts {
		if amount <= 0 {
			continue
		}
		if i >= len(table) {
			return fmt.Errorf("%w: no standing row for rank %d", ErrNotEnoughMembers, i+1)
		}
		if err := s.userRepo.Credit(ctx, tx, table[i].UserID, amount); err != nil {
			return fmt.Errorf("failed to credit prize for rank %d: %w", i+1, err)
		}
	}
	return nil
}

// Table возвращает таблицу лиги в каноническом порядке.
func (s *LeagueService) Table(ctx context.Context, id int) ([]*models.Standing, error) {
	if _, err := s.leagueRepo.GetByID(ctx, s.db, id); err != nil {
		if errors.Is(err, repositories.ErrLeagueNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, err
	}
	return s.standingRepo.ListByCompetition(ctx, s.db, id, models.CompetitionLeague)
}

func (s *LeagueService) Fixtures(ctx context.Context, id int) ([]*models.Fixture, error) {
	if _, err := s.leagueRepo.GetByID(ctx, s.db, id); err != nil {
		if errors.Is(err, repositories.ErrLeagueNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, err
	}
	return s.fixtureRepo.ListByCompetition(ctx, s.db, id, models.CompetitionLeague, nil)
}

// MemberStats возвращает строку таблицы конкретного участника, включая
// домашнюю и гостевую статистику.
func (s *LeagueService) MemberStats(ctx context.Context, id, userID int) (*models.Standing, error) {
	row, err := s.standingRepo.GetByCompetitionAndUser(ctx, s.db, id, models.CompetitionLeague, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrStandingNotFound) {
			return nil, ErrNotMember
		}
		return nil, err
	}
	return row, nil
}

// Stats собирает сводку лиги: лучшая атака, худшая оборона, средняя
// результативность и сухие матчи. Считается по завершённым матчам.
func (s *LeagueService) Stats(ctx context.Context, id int) (*models.LeagueStats, error) {
	if _, err := s.leagueRepo.GetByID(ctx, s.db, id); err != nil {
		if errors.Is(err, repositories.ErrLeagueNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, err
	}

	var table []*models.Standing
	var fixtures []*models.Fixture
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		table, err = s.standingRepo.ListByCompetition(gctx, s.db, id, models.CompetitionLeague)
		return err
	})
	g.Go(func() error {
		var err error
		fixtures, err = s.fixtureRepo.ListByCompetition(gctx, s.db, id, models.CompetitionLeague, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return buildLeagueStats(table, fixtures), nil
}

// buildLeagueStats агрегирует сводку из таблицы и завершённых матчей.
func buildLeagueStats(table []*models.Standing, fixtures []*models.Fixture) *models.LeagueStats {
	stats := &models.LeagueStats{}
	usernames := make(map[int]string, len(table))
	for _, row := range table {
		if row.User != nil {
			usernames[row.UserID] = row.User.Username
		}
		if stats.TopScorer == nil || row.GoalsFor > stats.TopScorer.Value {
			stats.TopScorer = &models.MemberStat{Username: usernames[row.UserID], Value: row.GoalsFor}
		}
		if stats.MostConceded == nil || row.GoalsAgainst > stats.MostConceded.Value {
			stats.MostConceded = &models.MemberStat{Username: usernames[row.UserID], Value: row.GoalsAgainst}
		}
	}

	totalGoals, totalMatches := 0, 0
	cleanSheets := map[int]int{}
	for _, f := range fixtures {
		if f.Status != models.FixtureCompleted || f.Team1Score == nil || f.Team2Score == nil {
			continue
		}
		totalMatches++
		totalGoals += *f.Team1Score + *f.Team2Score
		if *f.Team2Score == 0 {
			cleanSheets[*f.Team1ID]++
		}
		if *f.Team1Score == 0 {
			cleanSheets[*f.Team2ID]++
		}
	}
	if totalMatches > 0 {
		stats.GoalsPerMatch = roundMoney(float64(totalGoals) / float64(totalMatches))
	}

	for userID, count := range cleanSheets {
		stat := models.MemberStat{Username: usernames[userID], Value: count}
		stats.CleanSheets = append(stats.CleanSheets, stat)
		if stats.TopCleanSheet == nil || count > stats.TopCleanSheet.Value {
			top := stat
			stats.TopCleanSheet = &top
		}
	}
	sort.Slice(stats.CleanSheets, func(i, j int) bool {
		if stats.CleanSheets[i].Value != stats.CleanSheets[j].Value {
			return stats.CleanSheets[i].Value > stats.CleanSheets[j].Value
		}
		return stats.CleanSheets[i].Username < stats.CleanSheets[j].Username
	})

	return stats
}

// UploadLogo загружает логотип лиги в объектное хранилище и запоминает ключ.
func (s *LeagueService) UploadLogo(ctx context.Context, userID, id int, contentType string, file io.Reader) (string, error) {
	league, err := s.leagueRepo.GetByID(ctx, s.db, id)
	if err != nil {
		if errors.Is(err, repositories.ErrLeagueNotFound) {
			return "", ErrCompetitionNotFound
		}
		return "", err
	}
	if league.CreatorID != userID {
		return "", ErrNotCreator
	}

	key := fmt.Sprintf("leagues/%d/logo", id)
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return "", fmt.Errorf("failed to upload league logo: %w", err)
	}
	if err := s.leagueRepo.UpdateLogoKey(ctx, s.db, id, result.Key); err != nil {
		return "", err
	}
	return result.Location, nil
}

// lockLeague берёт строку лиги под FOR UPDATE и проверяет права создателя.
// Все мутации соревнования сериализуются через эту блокировку.
func (s *LeagueService) lockLeague(ctx context.Context, tx *sql.Tx, id, userID int) (*models.League, error) {
	league, err := s.leagueRepo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrLeagueNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, err
	}
	if league.CreatorID != userID {
		return nil, ErrNotCreator
	}
	return league, nil
}

package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/secondstrikerr/secondstriker/models"
	"github.com/secondstrikerr/secondstriker/repositories"
)

const joinRequestTTL = 7 * 24 * time.Hour

type JoinRequestService struct {
	db             *sql.DB
	logger         *slog.Logger
	joinRepo       repositories.JoinRequestRepository
	userRepo       repositories.UserRepository
	leagueRepo     repositories.LeagueRepository
	tournamentRepo repositories.TournamentRepository
}

func NewJoinRequestService(
	db *sql.DB,
	logger *slog.Logger,
	joinRepo repositories.JoinRequestRepository,
	userRepo repositories.UserRepository,
	leagueRepo repositories.LeagueRepository,
	tournamentRepo repositories.TournamentRepository,
) *JoinRequestService {
	return &JoinRequestService{
		db:             db,
		logger:         logger,
		joinRepo:       joinRepo,
		userRepo:       userRepo,
		leagueRepo:     leagueRepo,
		tournamentRepo: tournamentRepo,
	}
}

// competitionView — общий срез лиги и турнира, достаточный для приглашений.
type competitionView struct {
	creatorID int
	status    models.CompetitionStatus
	fee       float64
	awards    models.AwardPolicy
	capacity  int
}

func (s *JoinRequestService) loadCompetition(ctx context.Context, exec repositories.SQLExecutor, refType models.CompetitionType, refID int, forUpdate bool) (*competitionView, error) {
	switch refType {
	case models.CompetitionLeague:
		get := s.leagueRepo.GetByID
		if forUpdate {
			get = s.leagueRepo.GetByIDForUpdate
		}
		league, err := get(ctx, exec, refID)
		if err != nil {
			if errors.Is(err, repositories.ErrLeagueNotFound) {
				return nil, ErrCompetitionNotFound
			}
			return nil, err
		}
		return &competitionView{
			creatorID: league.CreatorID,
			status:    league.Status,
			fee:       league.Fee,
			awards:    league.Awards,
			capacity:  league.NumberOfTeams,
		}, nil
	case models.CompetitionTournament:
		get := s.tournamentRepo.GetByID
		if forUpdate {
			get = s.tournamentRepo.GetByIDForUpdate
		}
		tournament, err := get(ctx, exec, refID)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				return nil, ErrCompetitionNotFound
			}
			return nil, err
		}
		return &competitionView{
			creatorID: tournament.CreatorID,
			status:    tournament.Status,
			fee:       tournament.Fee,
			awards:    tournament.Awards,
			capacity:  tournamentCapacity(tournament),
		}, nil
	}
	return nil, fmt.Errorf("%w: unknown competition type %q", ErrValidation, refType)
}

func (s *JoinRequestService) hasMember(ctx context.Context, exec repositories.SQLExecutor, refType models.CompetitionType, refID, userID int) (bool, error) {
	if refType == models.CompetitionLeague {
		return s.leagueRepo.HasMember(ctx, exec, refID, userID)
	}
	return s.tournamentRepo.HasMember(ctx, exec, refID, userID)
}

// Invite создаёт приглашение в соревнование. Только создатель, только пока
// соревнование в черновике и не заполнено.
func (s *JoinRequestService) Invite(ctx context.Context, creatorID int, refType models.CompetitionType, refID, userID int) (*models.JoinRequest, error) {
	competition, err := s.loadCompetition(ctx, s.db, refType, refID, false)
	if err != nil {
		return nil, err
	}
	if competition.creatorID != creatorID {
		return nil, ErrNotCreator
	}
	if competition.status != models.StatusDraft {
		return nil, ErrInvalidStatusTransition
	}

	if _, err := s.userRepo.GetByID(ctx, s.db, userID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	member, err := s.hasMember(ctx, s.db, refType, refID, userID)
	if err != nil {
		return nil, err
	}
	if member {
		return nil, ErrAlreadyMember
	}

	if _, err := s.joinRepo.FindPending(ctx, s.db, refID, refType, userID); err == nil {
		return nil, ErrDuplicateJoinRequest
	} else if !errors.Is(err, repositories.ErrJoinRequestNotFound) {
		return nil, err
	}

	request := &models.JoinRequest{
		ReferenceID:    refID,
		ReferenceType:  refType,
		UserID:         userID,
		Status:         models.JoinRequestPending,
		ExpirationDate: time.Now().Add(joinRequestTTL),
	}
	if err := s.joinRepo.Create(ctx, s.db, request); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "join request created", "request_id", request.ID, "user_id", userID)
	return request, nil
}

// Respond принимает или отклоняет приглашение. Принятие списывает взнос,
// добавляет участника и пересчитывает призовой фонд — всё одной транзакцией.
func (s *JoinRequestService) Respond(ctx context.Context, userID, requestID int, accept bool) (*models.JoinRequest, error) {
	var request *models.JoinRequest
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		request, err = s.joinRepo.GetByID(ctx, tx, requestID)
		if err != nil {
			if errors.Is(err, repositories.ErrJoinRequestNotFound) {
				return ErrJoinRequestNotFound
			}
			return err
		}
		if request.UserID != userID {
			return ErrJoinRequestNotFound
		}
		if request.Status != models.JoinRequestPending {
			return ErrJoinRequestResolved
		}
		if time.Now().After(request.ExpirationDate) {
			request.Status = models.JoinRequestExpired
			if err := s.joinRepo.UpdateStatus(ctx, tx, requestID, models.JoinRequestExpired); err != nil {
				return err
			}
			return ErrJoinRequestExpired
		}

		if !accept {
			request.Status = models.JoinRequestDeclined
			return s.joinRepo.UpdateStatus(ctx, tx, requestID, models.JoinRequestDeclined)
		}

		competition, err := s.loadCompetition(ctx, tx, request.ReferenceType, request.ReferenceID, true)
		if err != nil {
			return err
		}
		if competition.status != models.StatusDraft {
			return ErrInvalidStatusTransition
		}

		if err := s.userRepo.Debit(ctx, tx, userID, competition.fee); err != nil {
			if errors.Is(err, repositories.ErrInsufficientBalance) {
				return ErrInsufficientBalance
			}
			return err
		}

		var count int
		if request.ReferenceType == models.CompetitionLeague {
			if count, err = s.leagueRepo.CountMembers(ctx, tx, request.ReferenceID); err != nil {
				return err
			}
			if count >= competition.capacity {
				return ErrCompetitionFull
			}
			if err := s.leagueRepo.AddMember(ctx, tx, request.ReferenceID, userID); err != nil {
				return err
			}
		} else {
			ids, err := s.tournamentRepo.ListMemberIDs(ctx, tx, request.ReferenceID)
			if err != nil {
				return err
			}
			count = len(ids)
			if count >= competition.capacity {
				return ErrCompetitionFull
			}
			if err := s.tournamentRepo.AddMember(ctx, tx, request.ReferenceID, userID); err != nil {
				return err
			}
		}

		breakdown, err := CalculatePrizes(count+1, competition.fee, competition.awards)
		if err != nil {
			return err
		}
		if request.ReferenceType == models.CompetitionLeague {
			err = s.leagueRepo.UpdateAwards(ctx, tx, request.ReferenceID, breakdown.PrizePool, breakdown.Distribution)
		} else {
			err = s.tournamentRepo.UpdateAwards(ctx, tx, request.ReferenceID, breakdown.PrizePool, breakdown.Distribution)
		}
		if err != nil {
			return err
		}

		request.Status = models.JoinRequestApproved
		return s.joinRepo.UpdateStatus(ctx, tx, requestID, models.JoinRequestApproved)
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

func (s *JoinRequestService) ListByUser(ctx context.Context, userID int) ([]*models.JoinRequest, error) {
	return s.joinRepo.ListByUser(ctx, s.db, userID)
}

// ExpireOverdue помечает просроченные приглашения. Вызывается фоновым тикером.
func (s *JoinRequestService) ExpireOverdue(ctx context.Context) error {
	expired, err := s.joinRepo.ExpireOverdue(ctx, s.db)
	if err != nil {
		return err
	}
	if expired > 0 {
		s.logger.InfoContext(ctx, "expired join requests", "count", expired)
	}
	return nil
}

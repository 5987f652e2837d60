package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/secondstrikerr/secondstriker/models"
	"github.com/secondstrikerr/secondstriker/payments/mpesa"
	"github.com/secondstrikerr/secondstriker/repositories"
)

type UserService struct {
	db       *sql.DB
	userRepo repositories.UserRepository
}

func NewUserService(db *sql.DB, userRepo repositories.UserRepository) *UserService {
	return &UserService{db: db, userRepo: userRepo}
}

func (s *UserService) Get(ctx context.Context, id int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, s.db, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.PasswordHash = ""
	user.OTP = nil
	return user, nil
}

// UpdatePhoneNumber сохраняет номер в нормализованном виде, пригодном для
// платёжного шлюза.
func (s *UserService) UpdatePhoneNumber(ctx context.Context, id int, phone string) (string, error) {
	normalized, err := mpesa.NormalizePhone(phone)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := s.userRepo.UpdatePhoneNumber(ctx, s.db, id, normalized); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	return normalized, nil
}

package services

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/secondstrikerr/secondstriker/models"
	"github.com/secondstrikerr/secondstriker/repositories"
)

const otpTTL = 10 * time.Minute

// EmailSender отправляет коды подтверждения. В тестах подменяется фейком.
type EmailSender interface {
	SendOTP(to, otp string) error
}

type AuthService struct {
	db       *sql.DB
	logger   *slog.Logger
	userRepo repositories.UserRepository
	email    EmailSender
}

func NewAuthService(db *sql.DB, logger *slog.Logger, userRepo repositories.UserRepository, email EmailSender) *AuthService {
	return &AuthService{db: db, logger: logger, userRepo: userRepo, email: email}
}

type RegisterInput struct {
	Username    string  `json:"username"`
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	PhoneNumber *string `json:"phone_number"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in *RegisterInput) validate() error {
	if strings.TrimSpace(in.Username) == "" {
		return fmt.Errorf("%w: username is required", ErrValidation)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	if len(in.Password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	return nil
}

// Register создаёт неподтверждённого пользователя и шлёт OTP на почту.
// Вход разрешён только после подтверждения.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("ошибка хеширования пароля: %w", err)
	}

	otp, err := generateOTP()
	if err != nil {
		return nil, err
	}
	expiresAt := time.Now().Add(otpTTL)

	user := &models.User{
		Username:     strings.TrimSpace(input.Username),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PhoneNumber:  input.PhoneNumber,
		PasswordHash: string(hashedPassword),
		OTP:          &otp,
		OTPExpiresAt: &expiresAt,
	}

	if err := s.userRepo.Create(ctx, s.db, user); err != nil {
		switch {
		case errors.Is(err, repositories.ErrUserEmailTaken):
			return nil, ErrEmailTaken
		case errors.Is(err, repositories.ErrUserUsernameTaken):
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("ошибка создания пользователя: %w", err)
	}

	if err := s.email.SendOTP(user.Email, otp); err != nil {
		// Пользователь создан; код можно перезапросить.
		s.logger.WarnContext(ctx, "failed to send verification email", "user_id", user.ID, "error", err)
	}

	user.PasswordHash = ""
	user.OTP = nil
	return user, nil
}

// VerifyEmail сверяет код из письма и помечает почту подтверждённой.
func (s *AuthService) VerifyEmail(ctx context.Context, email, otp string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, s.db, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrInvalidOTP
		}
		return nil, err
	}
	if !user.IsEmailVerified {
		if user.OTP == nil || user.OTPExpiresAt == nil || *user.OTP != otp || time.Now().After(*user.OTPExpiresAt) {
			return nil, ErrInvalidOTP
		}
		if err := s.userRepo.MarkEmailVerified(ctx, s.db, user.ID); err != nil {
			return nil, err
		}
		user.IsEmailVerified = true
	}

	user.PasswordHash = ""
	user.OTP = nil
	user.OTPExpiresAt = nil
	return user, nil
}

// ResendOTP генерирует новый код для неподтверждённого пользователя.
func (s *AuthService) ResendOTP(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, s.db, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if user.IsEmailVerified {
		return nil
	}

	otp, err := generateOTP()
	if err != nil {
		return err
	}
	if err := s.userRepo.SetOTP(ctx, s.db, user.ID, otp, time.Now().Add(otpTTL)); err != nil {
		return err
	}
	return s.email.SendOTP(user.Email, otp)
}

// Login проверяет пароль и возвращает пользователя. Неподтверждённая почта
// блокирует вход.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, s.db, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to compare password hash: %w", err)
	}
	if !user.IsEmailVerified {
		return nil, ErrEmailNotVerified
	}

	user.PasswordHash = ""
	user.OTP = nil
	return user, nil
}

// generateOTP возвращает шестизначный код из криптографического генератора.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

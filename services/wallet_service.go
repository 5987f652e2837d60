package services

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"github.com/secondstrikerr/secondstriker/models"
	"github.com/secondstrikerr/secondstriker/payments/mpesa"
	"github.com/secondstrikerr/secondstriker/repositories"
)

// PaymentGateway — внешний платёжный шлюз. В тестах подменяется фейком.
type PaymentGateway interface {
	STKPush(ctx context.Context, phone string, amount int, reference string) (*mpesa.STKPushResponse, error)
	B2C(ctx context.Context, originatorID, phone string, amount int) (*mpesa.B2CResponse, error)
}

type WalletService struct {
	db       *sql.DB
	logger   *slog.Logger
	gateway  PaymentGateway
	userRepo repositories.UserRepository
	txRepo   repositories.TransactionRepository
}

func NewWalletService(db *sql.DB, logger *slog.Logger, gateway PaymentGateway, userRepo repositories.UserRepository, txRepo repositories.TransactionRepository) *WalletService {
	return &WalletService{db: db, logger: logger, gateway: gateway, userRepo: userRepo, txRepo: txRepo}
}

func (s *WalletService) Balance(ctx context.Context, userID int) (float64, error) {
	user, err := s.userRepo.GetByID(ctx, s.db, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	return user.Balance, nil
}

func (s *WalletService) Transactions(ctx context.Context, userID int) ([]*models.Transaction, error) {
	return s.txRepo.ListByUser(ctx, s.db, userID, 50)
}

// Deposit запускает STK push на телефон пользователя. Баланс пополняется
// только после подтверждающего callback-а от шлюза.
func (s *WalletService) Deposit(ctx context.Context, userID, amount int) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}

	user, err := s.userRepo.GetByID(ctx, s.db, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.PhoneNumber == nil {
		return nil, ErrPhoneNumberRequired
	}
	phone, err := mpesa.NormalizePhone(*user.PhoneNumber)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	reference := fmt.Sprintf("deposit-%d", userID)
	push, err := s.gateway.STKPush(ctx, phone, amount, reference)
	if err != nil {
		s.logger.ErrorContext(ctx, "stk push failed", "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}

	transaction := &models.Transaction{
		UserID:         userID,
		Type:           models.TransactionDeposit,
		Amount:         float64(amount),
		Status:         models.TransactionPending,
		MpesaRequestID: &push.CheckoutRequestID,
	}
	if err := s.txRepo.Create(ctx, s.db, transaction); err != nil {
		return nil, err
	}
	return transaction, nil
}

// ConfirmDeposit обрабатывает STK callback. Повторная доставка того же
// callback-а безопасна: уже разрешённая транзакция не трогается.
func (s *WalletService) ConfirmDeposit(ctx context.Context, callback mpesa.STKCallback) error {
	return runInTx(ctx, s.db, func(tx *sql.Tx) error {
		transaction, err := s.txRepo.GetByMpesaRequestID(ctx, tx, callback.CheckoutRequestID)
		if err != nil {
			if errors.Is(err, repositories.ErrTransactionNotFound) {
				return ErrTransactionNotFound
			}
			return err
		}
		if transaction.Status != models.TransactionPending {
			return nil
		}

		if callback.ResultCode != 0 {
			reason := callback.ResultDesc
			return s.txRepo.UpdateStatus(ctx, tx, transaction.ID, models.TransactionFailed, &reason)
		}

		amount := transaction.Amount
		if confirmed, ok := callback.Amount(); ok {
			amount = confirmed
		}
		if err := s.userRepo.Credit(ctx, tx, transaction.UserID, amount); err != nil {
			return fmt.Errorf("failed to credit deposit: %w", err)
		}
		return s.txRepo.UpdateStatus(ctx, tx, transaction.ID, models.TransactionCompleted, nil)
	})
}

// Withdraw резервирует сумму списанием с баланса и отправляет B2C-выплату.
// Если шлюз отклонил запрос сразу, резерв возвращается.
func (s *WalletService) Withdraw(ctx context.Context, userID, amount int) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}

	var transaction *models.Transaction
	var phone string
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		user, err := s.userRepo.GetByIDForUpdate(ctx, tx, userID)
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		if user.PhoneNumber == nil {
			return ErrPhoneNumberRequired
		}
		phone, err = mpesa.NormalizePhone(*user.PhoneNumber)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}

		if err := s.userRepo.Debit(ctx, tx, userID, float64(amount)); err != nil {
			if errors.Is(err, repositories.ErrInsufficientBalance) {
				return ErrInsufficientBalance
			}
			return err
		}

		originatorID, err := randomOriginatorID()
		if err != nil {
			return err
		}
		transaction = &models.Transaction{
			UserID:                   userID,
			Type:                     models.TransactionWithdrawal,
			Amount:                   float64(amount),
			Status:                   models.TransactionPending,
			OriginatorConversationID: &originatorID,
		}
		return s.txRepo.Create(ctx, tx, transaction)
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.gateway.B2C(ctx, *transaction.OriginatorConversationID, phone, amount); err != nil {
		s.logger.ErrorContext(ctx, "b2c request failed, refunding", "user_id", userID, "error", err)
		if refundErr := s.refundWithdrawal(ctx, transaction, err.Error()); refundErr != nil {
			return nil, refundErr
		}
		return nil, fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}
	return transaction, nil
}

func (s *WalletService) refundWithdrawal(ctx context.Context, transaction *models.Transaction, reason string) error {
	return runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.userRepo.Credit(ctx, tx, transaction.UserID, transaction.Amount); err != nil {
			return fmt.Errorf("failed to refund withdrawal: %w", err)
		}
		return s.txRepo.UpdateStatus(ctx, tx, transaction.ID, models.TransactionFailed, &reason)
	})
}

// ConfirmWithdrawal обрабатывает результат B2C. При отказе шлюза резерв
// возвращается на баланс.
func (s *WalletService) ConfirmWithdrawal(ctx context.Context, result mpesa.B2CResult) error {
	return runInTx(ctx, s.db, func(tx *sql.Tx) error {
		transaction, err := s.txRepo.GetByOriginatorID(ctx, tx, result.OriginatorConversationID)
		if err != nil {
			if errors.Is(err, repositories.ErrTransactionNotFound) {
				return ErrTransactionNotFound
			}
			return err
		}
		if transaction.Status != models.TransactionPending {
			return nil
		}

		if result.ResultCode != 0 {
			if err := s.userRepo.Credit(ctx, tx, transaction.UserID, transaction.Amount); err != nil {
				return fmt.Errorf("failed to refund withdrawal: %w", err)
			}
			reason := result.ResultDesc
			return s.txRepo.UpdateStatus(ctx, tx, transaction.ID, models.TransactionFailed, &reason)
		}
		return s.txRepo.UpdateStatus(ctx, tx, transaction.ID, models.TransactionCompleted, nil)
	})
}

func randomOriginatorID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate originator id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

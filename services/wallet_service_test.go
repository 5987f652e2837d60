package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDepositRejectsNonPositiveAmount(t *testing.T) {
	svc := &WalletService{}

	_, err := svc.Deposit(context.Background(), 1, 0)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Deposit(context.Background(), 1, -100)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestWithdrawRejectsNonPositiveAmount(t *testing.T) {
	svc := &WalletService{}

	_, err := svc.Withdraw(context.Background(), 1, 0)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Withdraw(context.Background(), 1, -50)
	assert.ErrorIs(t, err, ErrValidation)
}

package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterInputValidate(t *testing.T) {
	tests := []struct {
		name   string
		input  RegisterInput
		wantOK bool
	}{
		{"valid", RegisterInput{Username: "striker", Email: "a@example.com", Password: "longenough"}, true},
		{"blank username", RegisterInput{Username: "  ", Email: "a@example.com", Password: "longenough"}, false},
		{"bad email", RegisterInput{Username: "striker", Email: "not-an-email", Password: "longenough"}, false},
		{"short password", RegisterInput{Username: "striker", Email: "a@example.com", Password: "short"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.validate()
			if tt.wantOK {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrValidation)
			}
		})
	}
}

func TestGenerateOTP(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		otp, err := generateOTP()
		require.NoError(t, err)
		assert.Len(t, otp, 6)
		for _, r := range otp {
			assert.True(t, r >= '0' && r <= '9')
		}
		seen[otp] = true
	}
	// 20 подряд одинаковых кодов при честном генераторе невозможны.
	assert.Greater(t, len(seen), 1)
}

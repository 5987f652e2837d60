package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secondstrikerr/secondstriker/models"
)

func TestCalculatePrizesTopThree(t *testing.T) {
	got, err := CalculatePrizes(10, 50, models.AwardTopThree)
	require.NoError(t, err)

	// 10 * 50 = 500, минус 10% комиссии платформы.
	assert.Equal(t, 450.0, got.PrizePool)
	assert.Equal(t, 225.0, got.Distribution.FirstPlace)
	assert.Equal(t, 135.0, got.Distribution.SecondPlace)
	assert.Equal(t, 90.0, got.Distribution.ThirdPlace)
}

func TestCalculatePrizesFirstTakesAll(t *testing.T) {
	got, err := CalculatePrizes(8, 25, models.AwardFirst)
	require.NoError(t, err)

	assert.Equal(t, 180.0, got.PrizePool)
	assert.Equal(t, 180.0, got.Distribution.FirstPlace)
	assert.Zero(t, got.Distribution.SecondPlace)
	assert.Zero(t, got.Distribution.ThirdPlace)
}

func TestCalculatePrizesFirstSecond(t *testing.T) {
	got, err := CalculatePrizes(4, 100, models.AwardFirstSecond)
	require.NoError(t, err)

	assert.Equal(t, 360.0, got.PrizePool)
	assert.Equal(t, 252.0, got.Distribution.FirstPlace)
	assert.Equal(t, 108.0, got.Distribution.SecondPlace)
}

func TestCalculatePrizesRounding(t *testing.T) {
	// 3 * 33.33 = 99.99, фонд 89.99; доли не должны иметь хвостов
	// дальше копеек.
	got, err := CalculatePrizes(3, 33.33, models.AwardTopThree)
	require.NoError(t, err)

	assert.Equal(t, 89.99, got.PrizePool)
	assert.Equal(t, 45.0, got.Distribution.FirstPlace)
	assert.Equal(t, 27.0, got.Distribution.SecondPlace)
	assert.Equal(t, 18.0, got.Distribution.ThirdPlace)
}

func TestCalculatePrizesFreeEntry(t *testing.T) {
	got, err := CalculatePrizes(16, 0, models.AwardFirstSecond)
	require.NoError(t, err)

	assert.Zero(t, got.PrizePool)
	assert.Zero(t, got.Distribution.FirstPlace)
	assert.Zero(t, got.Distribution.SecondPlace)
}

func TestCalculatePrizesUnknownPolicy(t *testing.T) {
	_, err := CalculatePrizes(10, 50, "winnerTakesNothing")
	assert.ErrorIs(t, err, ErrValidation)
}

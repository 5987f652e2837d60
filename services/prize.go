package services

import (
	"fmt"
	"math"

	"github.com/secondstrikerr/secondstriker/models"
)

// PlatformFeeRate — доля призового фонда, удерживаемая платформой.
const PlatformFeeRate = 0.10

// PrizeBreakdown — итог распределения: чистый фонд и доли по местам.
type PrizeBreakdown struct {
	PrizePool    float64
	Distribution models.AwardsDistribution
}

// CalculatePrizes считает чистый фонд (члены * взнос минус комиссия
// платформы) и раскладывает его по выбранной схеме наград.
// Суммы округляются до двух знаков.
func CalculatePrizes(memberCount int, fee float64, policy models.AwardPolicy) (PrizeBreakdown, error) {
	gross := float64(memberCount) * fee
	pool := roundMoney(gross * (1 - PlatformFeeRate))

	var dist models.AwardsDistribution
	switch policy {
	case models.AwardFirst:
		dist.FirstPlace = pool
	case models.AwardFirstSecond:
		dist.FirstPlace = roundMoney(pool * 0.70)
		dist.SecondPlace = roundMoney(pool * 0.30)
	case models.AwardTopThree:
		dist.FirstPlace = roundMoney(pool * 0.50)
		dist.SecondPlace = roundMoney(pool * 0.30)
		dist.ThirdPlace = roundMoney(pool * 0.20)
	default:
		return PrizeBreakdown{}, fmt.Errorf("%w: unknown award policy %q", ErrValidation, policy)
	}
	return PrizeBreakdown{PrizePool: pool, Distribution: dist}, nil
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

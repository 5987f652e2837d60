package brackets

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundName(t *testing.T) {
	assert.Equal(t, Final, RoundName(2))
	assert.Equal(t, SemiFinal, RoundName(4))
	assert.Equal(t, QuarterFinal, RoundName(8))
	assert.Equal(t, RoundOf16, RoundName(16))
	assert.Equal(t, RoundOf32, RoundName(32))
	assert.Equal(t, "roundOf64", RoundName(64))
}

func TestReverseRound(t *testing.T) {
	assert.Equal(t, "semiFinalReverse", ReverseRound(SemiFinal))
}

func TestSeedKnockoutRejectsNonPowerOfTwo(t *testing.T) {
	for _, n := range []int{0, 1, 3, 6, 12} {
		_, err := SeedKnockout(n)
		assert.ErrorIs(t, err, ErrInvalidInput, "n=%d", n)
	}
}

func TestSeedKnockoutPairs(t *testing.T) {
	pairs, err := SeedKnockout(8)
	require.NoError(t, err)
	require.Len(t, pairs, 4)

	// Сильнейший сеяный всегда против слабейшего в своей паре.
	assert.Equal(t, [2]int{1, 8}, pairs[0])
	assert.Equal(t, [2]int{4, 5}, pairs[1])
	assert.Equal(t, [2]int{2, 7}, pairs[2])
	assert.Equal(t, [2]int{3, 6}, pairs[3])
}

// Если побеждает всегда сильнейший, первый и второй сеяные могут встретиться
// только в финале.
func TestSeedKnockoutAvoidance(t *testing.T) {
	for _, n := range []int{2, 4, 8, 16} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			pairs, err := SeedKnockout(n)
			require.NoError(t, err)
			require.Len(t, pairs, n/2)

			seeds := make([]int, 0, n/2)
			for _, p := range pairs {
				assert.Equal(t, n+1, p[0]+p[1])
				if p[0] < p[1] {
					seeds = append(seeds, p[0])
				} else {
					seeds = append(seeds, p[1])
				}
			}

			// Проигрываем сетку: в каждом раунде побеждает меньший номер.
			for len(seeds) > 2 {
				next := make([]int, 0, len(seeds)/2)
				for i := 0; i < len(seeds); i += 2 {
					a, b := seeds[i], seeds[i+1]
					assert.False(t, (a == 1 && b == 2) || (a == 2 && b == 1),
						"seeds 1 and 2 met before the final")
					if a < b {
						next = append(next, a)
					} else {
						next = append(next, b)
					}
				}
				seeds = next
			}
			if len(seeds) == 2 {
				assert.ElementsMatch(t, []int{1, 2}, seeds)
			}
		})
	}
}

func TestNextSlot(t *testing.T) {
	round, position, isTeam1, ok := NextSlot(QuarterFinal, 1)
	require.True(t, ok)
	assert.Equal(t, SemiFinal, round)
	assert.Equal(t, 1, position)
	assert.True(t, isTeam1)

	round, position, isTeam1, ok = NextSlot(QuarterFinal, 4)
	require.True(t, ok)
	assert.Equal(t, SemiFinal, round)
	assert.Equal(t, 2, position)
	assert.False(t, isTeam1)

	round, position, isTeam1, ok = NextSlot(SemiFinal, 2)
	require.True(t, ok)
	assert.Equal(t, Final, round)
	assert.Equal(t, 1, position)
	assert.False(t, isTeam1)

	_, _, _, ok = NextSlot(Final, 1)
	assert.False(t, ok)

	_, _, _, ok = NextSlot("groupStage", 1)
	assert.False(t, ok)
}

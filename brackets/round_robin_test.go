package brackets

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secondstrikerr/secondstriker/models"
)

func teamIDs(n int) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = (i + 1) * 10
	}
	return ids
}

func pairKey(a, b int) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d-%d", a, b)
}

func TestGenerateRoundRobinSingleRound(t *testing.T) {
	for n := 2; n <= 9; n++ {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			teams := teamIDs(n)
			matches, err := GenerateRoundRobin(teams, models.FixtureSingleRound)
			require.NoError(t, err)

			require.Len(t, matches, n*(n-1)/2)

			// Каждая неупорядоченная пара встречается ровно один раз.
			seen := make(map[string]int)
			for _, m := range matches {
				assert.NotEqual(t, m.Team1, m.Team2)
				seen[pairKey(m.Team1, m.Team2)]++
			}
			for key, count := range seen {
				assert.Equal(t, 1, count, "pair %s scheduled %d times", key, count)
			}

			// Никто не играет дважды в одном туре.
			perRound := make(map[int]map[int]bool)
			for _, m := range matches {
				if perRound[m.Round] == nil {
					perRound[m.Round] = make(map[int]bool)
				}
				assert.False(t, perRound[m.Round][m.Team1], "team %d plays twice in round %d", m.Team1, m.Round)
				assert.False(t, perRound[m.Round][m.Team2], "team %d plays twice in round %d", m.Team2, m.Round)
				perRound[m.Round][m.Team1] = true
				perRound[m.Round][m.Team2] = true
			}
		})
	}
}

func TestGenerateRoundRobinHomeAway(t *testing.T) {
	for n := 2; n <= 9; n++ {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			teams := teamIDs(n)
			matches, err := GenerateRoundRobin(teams, models.FixtureHomeAway)
			require.NoError(t, err)
			require.Len(t, matches, n*(n-1))

			firstLeg := matches[:len(matches)/2]
			secondLeg := matches[len(matches)/2:]

			// Второй круг зеркалит первый с обменом хозяев и гостей.
			for i, m := range firstLeg {
				mirror := secondLeg[i]
				assert.Equal(t, m.Team1, mirror.Team2)
				assert.Equal(t, m.Team2, mirror.Team1)
				assert.Greater(t, mirror.Round, m.Round)
			}
		})
	}
}

func TestGenerateRoundRobinEvenRoundCount(t *testing.T) {
	matches, err := GenerateRoundRobin(teamIDs(6), models.FixtureSingleRound)
	require.NoError(t, err)

	maxRound := 0
	for _, m := range matches {
		if m.Round > maxRound {
			maxRound = m.Round
		}
	}
	assert.Equal(t, 5, maxRound)
}

func TestGenerateRoundRobinRejectsBadInput(t *testing.T) {
	_, err := GenerateRoundRobin([]int{1}, models.FixtureSingleRound)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = GenerateRoundRobin([]int{1, 0}, models.FixtureSingleRound)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = GenerateRoundRobin([]int{1, 2}, models.FixtureType("bestOfFive"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

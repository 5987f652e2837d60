package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrawGroups(t *testing.T) {
	members := teamIDs(8)
	groups, err := DrawGroups(members, 4, 2)
	require.NoError(t, err)
	require.Len(t, groups, 4)

	letters := make([]string, 0, len(groups))
	drawn := make(map[int]bool)
	for _, g := range groups {
		letters = append(letters, g.Letter)
		assert.Len(t, g.Teams, 2)
		for _, id := range g.Teams {
			assert.False(t, drawn[id], "team %d drawn twice", id)
			drawn[id] = true
		}
	}
	assert.Equal(t, []string{"A", "B", "C", "D"}, letters)
	assert.Len(t, drawn, len(members))
}

func TestDrawGroupsUnevenDeal(t *testing.T) {
	// 5 участников на 2 группы по 2 места — перебор.
	_, err := DrawGroups(teamIDs(5), 2, 2)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDrawGroupsRejectsBadInput(t *testing.T) {
	_, err := DrawGroups([]int{1}, 1, 2)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

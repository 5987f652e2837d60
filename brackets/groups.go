package brackets

import (
	"fmt"
	"math/rand"
)

// Group — один групповой квартет (или иной размер) с буквенной меткой.
type Group struct {
	Letter string
	Teams  []int
}

// DrawGroups перемешивает участников и раздаёт их по группам по кругу,
// как колоду карт. Группы помечаются буквами A, B, C… Если какая-то группа
// превысила бы teamsPerGroup, конфигурация некорректна.
func DrawGroups(members []int, numberOfGroups, teamsPerGroup int) ([]Group, error) {
	if len(members) < 2 {
		return nil, fmt.Errorf("%w: at least 2 participants required, got %d", ErrInvalidInput, len(members))
	}
	if numberOfGroups < 1 {
		return nil, fmt.Errorf("%w: number of groups must be positive, got %d", ErrInvalidInput, numberOfGroups)
	}
	for _, id := range members {
		if id <= 0 {
			return nil, fmt.Errorf("%w: participant id %d", ErrInvalidInput, id)
		}
	}

	shuffled := make([]int, len(members))
	copy(shuffled, members)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	groups := make([]Group, numberOfGroups)
	for i := range groups {
		groups[i].Letter = string(rune('A' + i))
	}
	for i, id := range shuffled {
		g := i % numberOfGroups
		groups[g].Teams = append(groups[g].Teams, id)
	}

	for _, g := range groups {
		if len(g.Teams) > teamsPerGroup {
			return nil, fmt.Errorf("%w: too many members for %d groups of %d", ErrInvalidInput, numberOfGroups, teamsPerGroup)
		}
	}
	return groups, nil
}

package brackets

import (
	"fmt"

	"github.com/secondstrikerr/secondstriker/models"
)

// Match — сгенерированная пара до сохранения в БД. Round нумеруется с 1;
// обратные матчи второго круга получают Round, смещённый на общее число туров.
type Match struct {
	Team1 int
	Team2 int
	Round int
}

// GenerateRoundRobin builds a full round-robin schedule for the given
// participants. Every unordered pair meets exactly once; with the homeAway
// fixture type a mirrored second set is appended with team1/team2 swapped and
// rounds offset by the first-leg round count.
func GenerateRoundRobin(teams []int, fixtureType models.FixtureType) ([]Match, error) {
	if len(teams) < 2 {
		return nil, fmt.Errorf("%w: at least 2 participants required, got %d", ErrInvalidInput, len(teams))
	}
	for _, id := range teams {
		if id <= 0 {
			return nil, fmt.Errorf("%w: participant id %d", ErrInvalidInput, id)
		}
	}
	if !fixtureType.Valid() {
		return nil, fmt.Errorf("%w: fixture type %q", ErrInvalidInput, fixtureType)
	}

	var matches []Match
	var rounds int
	if len(teams)%2 == 0 {
		matches, rounds = evenRoundRobin(teams)
	} else {
		matches, rounds = oddRoundRobin(teams)
	}

	if fixtureType == models.FixtureHomeAway {
		reverse := make([]Match, len(matches))
		for i, m := range matches {
			reverse[i] = Match{Team1: m.Team2, Team2: m.Team1, Round: m.Round + rounds}
		}
		matches = append(matches, reverse...)
	}
	return matches, nil
}

// evenRoundRobin — классический метод круга: первый участник фиксирован,
// остальные вращаются; в туре r позиция i играет с позицией N-1-i.
func evenRoundRobin(teams []int) ([]Match, int) {
	n := len(teams)
	rounds := n - 1
	perRound := n / 2

	rotation := make([]int, n)
	copy(rotation, teams)

	matches := make([]Match, 0, rounds*perRound)
	for round := 0; round < rounds; round++ {
		for i := 0; i < perRound; i++ {
			matches = append(matches, Match{
				Team1: rotation[i],
				Team2: rotation[n-1-i],
				Round: round + 1,
			})
		}
		// Rotate: last element moves to position 1, first stays fixed.
		last := rotation[n-1]
		copy(rotation[2:], rotation[1:n-1])
		rotation[1] = last
	}
	return matches, rounds
}

// oddRoundRobin generates all C(N,2) pairs in original order and greedily
// packs them into rounds so that no participant appears twice per round,
// re-scanning the remaining pairs for each round. Produces N rounds.
func oddRoundRobin(teams []int) ([]Match, int) {
	type pair struct{ t1, t2 int }
	var pending []pair
	for i := 0; i < len(teams); i++ {
		for j := i + 1; j < len(teams); j++ {
			pending = append(pending, pair{teams[i], teams[j]})
		}
	}

	var matches []Match
	round := 1
	for len(pending) > 0 {
		busy := make(map[int]bool, len(teams))
		remaining := pending[:0]
		for _, p := range pending {
			if busy[p.t1] || busy[p.t2] {
				remaining = append(remaining, p)
				continue
			}
			busy[p.t1] = true
			busy[p.t2] = true
			matches = append(matches, Match{Team1: p.t1, Team2: p.t2, Round: round})
		}
		pending = remaining
		round++
	}
	return matches, len(teams)
}

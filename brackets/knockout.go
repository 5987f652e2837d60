package brackets

import (
	"errors"
	"fmt"
)

// ErrInvalidInput помечает непригодные входные данные генераторов.
// Генераторы чистые и других ошибок не возвращают.
var ErrInvalidInput = errors.New("invalid generator input")

// Knockout round names, ordered from the widest supported bracket to the final.
const (
	RoundOf32    = "roundOf32"
	RoundOf16    = "roundOf16"
	QuarterFinal = "quarterFinal"
	SemiFinal    = "semiFinal"
	Final        = "final"
)

// ReverseSuffix отличает гостевой матч двухматчевого противостояния.
const ReverseSuffix = "Reverse"

// roundProgression — конечная таблица переходов между раундами плей-офф.
// Финал перехода не имеет: его завершение закрывает турнир.
var roundProgression = map[string]string{
	RoundOf32:    RoundOf16,
	RoundOf16:    QuarterFinal,
	QuarterFinal: SemiFinal,
	SemiFinal:    Final,
}

// RoundName returns the knockout round label for a round entered by n teams.
func RoundName(n int) string {
	switch n {
	case 2:
		return Final
	case 4:
		return SemiFinal
	case 8:
		return QuarterFinal
	default:
		return fmt.Sprintf("roundOf%d", n)
	}
}

// ReverseRound returns the label of the second leg for a first-leg round.
func ReverseRound(round string) string {
	return round + ReverseSuffix
}

// SeedKnockout builds first-round pairings for n seeds (1-based), n a power
// of 2. Классический посев: сетка строится рекурсивно, в каждом раунде
// верхняя половина посева против развёрнутой нижней, поэтому сильнейшие
// сеяные не могут встретиться раньше финала.
func SeedKnockout(n int) ([][2]int, error) {
	if n < 2 || n&(n-1) != 0 {
		return nil, fmt.Errorf("%w: bracket size must be a power of 2, got %d", ErrInvalidInput, n)
	}

	order := bracketOrder(n)
	pairs := make([][2]int, 0, n/2)
	for i := 0; i < n; i += 2 {
		pairs = append(pairs, [2]int{order[i], order[i+1]})
	}
	return pairs, nil
}

// bracketOrder returns seeds in bracket slot order: each seed of the n/2
// bracket is expanded into the pair (s, n+1-s), so seeds 1 and 2 sit in
// opposite halves, 1 and 4 in opposite quarters of the same half, and so on.
func bracketOrder(n int) []int {
	if n == 1 {
		return []int{1}
	}
	prev := bracketOrder(n / 2)
	order := make([]int, 0, n)
	for _, s := range prev {
		order = append(order, s, n+1-s)
	}
	return order
}

// NextSlot maps a decided tie to its slot in the following round: position p
// feeds slot ceil(p/2), odd positions take the team1 side. ok is false for the
// final and for unknown rounds.
func NextSlot(round string, position int) (nextRound string, nextPosition int, isTeam1 bool, ok bool) {
	nextRound, ok = roundProgression[round]
	if !ok {
		return "", 0, false, false
	}
	nextPosition = (position + 1) / 2
	isTeam1 = position%2 != 0
	return nextRound, nextPosition, isTeam1, true
}

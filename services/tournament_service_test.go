package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secondstrikerr/secondstriker/models"
)

func validKnockoutInput() CreateTournamentInput {
	return CreateTournamentInput{
		Name:          "Champions Cup",
		Fee:           100,
		TeamsPerGroup: 8,
		Format:        models.FormatKnockout,
		FixtureType:   models.FixtureHomeAway,
		Awards:        models.AwardFirstSecond,
	}
}

func validGroupKnockoutInput() CreateTournamentInput {
	return CreateTournamentInput{
		Name:           "World Series",
		Fee:            100,
		TeamsPerGroup:  4,
		NumberOfGroups: 4,
		Format:         models.FormatGroupKnockout,
		FixtureType:    models.FixtureSingleRound,
		Awards:         models.AwardFirst,
	}
}

func TestCreateTournamentInputValidate(t *testing.T) {
	tests := []struct {
		name   string
		input  CreateTournamentInput
		mutate func(*CreateTournamentInput)
		wantOK bool
	}{
		{"valid knockout", validKnockoutInput(), func(in *CreateTournamentInput) {}, true},
		{"valid group knockout", validGroupKnockoutInput(), func(in *CreateTournamentInput) {}, true},
		{"blank name", validKnockoutInput(), func(in *CreateTournamentInput) { in.Name = "" }, false},
		{"negative fee", validKnockoutInput(), func(in *CreateTournamentInput) { in.Fee = -5 }, false},
		{"unknown format", validKnockoutInput(), func(in *CreateTournamentInput) { in.Format = "doubleElimination" }, false},
		{"unknown fixture type", validKnockoutInput(), func(in *CreateTournamentInput) { in.FixtureType = "triple" }, false},
		// Плей-офф не разыгрывает третье место.
		{"topThree awards", validKnockoutInput(), func(in *CreateTournamentInput) { in.Awards = models.AwardTopThree }, false},
		{"knockout bracket of six", validKnockoutInput(), func(in *CreateTournamentInput) { in.TeamsPerGroup = 6 }, false},
		{"knockout bracket of one", validKnockoutInput(), func(in *CreateTournamentInput) { in.TeamsPerGroup = 1 }, false},
		{"knockout bracket of sixteen", validKnockoutInput(), func(in *CreateTournamentInput) { in.TeamsPerGroup = 16 }, true},
		{"group of one", validGroupKnockoutInput(), func(in *CreateTournamentInput) { in.TeamsPerGroup = 1 }, false},
		{"zero groups", validGroupKnockoutInput(), func(in *CreateTournamentInput) { in.NumberOfGroups = 0 }, false},
		// 3 группы дают 6 квалифицировавшихся — в сетку не ложится.
		{"three groups", validGroupKnockoutInput(), func(in *CreateTournamentInput) { in.NumberOfGroups = 3 }, false},
		{"two groups", validGroupKnockoutInput(), func(in *CreateTournamentInput) { in.NumberOfGroups = 2 }, true},
		{"eight groups", validGroupKnockoutInput(), func(in *CreateTournamentInput) { in.NumberOfGroups = 8 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.input
			tt.mutate(&in)

			err := in.validate()
			if tt.wantOK {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrValidation)
			}
		})
	}
}

func TestTournamentCapacity(t *testing.T) {
	knockout := &models.Tournament{TeamsPerGroup: 8}
	assert.Equal(t, 8, tournamentCapacity(knockout))

	groups := &models.Tournament{TeamsPerGroup: 4, NumberOfGroups: 4}
	assert.Equal(t, 16, tournamentCapacity(groups))
}

func TestIsPowerOfTwo(t *testing.T) {
	for _, n := range []int{2, 4, 8, 16, 32, 64} {
		assert.True(t, isPowerOfTwo(n), "n=%d", n)
	}
	for _, n := range []int{0, 1, 3, 6, 12, 24, -8} {
		assert.False(t, isPowerOfTwo(n), "n=%d", n)
	}
}

func TestTournamentCreateRejectsInvalidInput(t *testing.T) {
	svc := &TournamentService{}

	in := validKnockoutInput()
	in.TeamsPerGroup = 5
	_, err := svc.Create(context.Background(), 1, in)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTournamentSubmitResultRequiresBothScores(t *testing.T) {
	svc := &TournamentService{}
	two := 2

	_, err := svc.SubmitResult(context.Background(), 1, 1, 1, nil, &two)
	assert.ErrorIs(t, err, ErrScoresRequired)
}

func TestTournamentSubmitResultRejectsNegativeScores(t *testing.T) {
	svc := &TournamentService{}
	minus := -2
	two := 2

	_, err := svc.SubmitResult(context.Background(), 1, 1, 1, &minus, &two)
	assert.ErrorIs(t, err, ErrValidation)
}

func legFixture(team1, team2 int) *models.Fixture {
	return &models.Fixture{Team1ID: &team1, Team2ID: &team2, IsHomeAway: true}
}

func completedLeg(team1, team2, score1, score2 int) *models.Fixture {
	f := legFixture(team1, team2)
	f.Team1Score = &score1
	f.Team2Score = &score2
	f.Status = models.FixtureCompleted
	return f
}

func TestTwoLegOutcome(t *testing.T) {
	// Первый матч: 1 против 2; ответный: 2 против 1.
	tests := []struct {
		name         string
		fixture      *models.Fixture
		sibling      *models.Fixture
		score1       int
		score2       int
		wantWinner   int
		wantDecided  bool
		wantTieError bool
	}{
		{
			name:    "sibling pending keeps pair undecided",
			fixture: legFixture(1, 2),
			sibling: legFixture(2, 1),
			score1:  3, score2: 0,
		},
		{
			name:    "reverse leg submitted last",
			fixture: legFixture(2, 1),
			sibling: completedLeg(1, 2, 2, 1),
			score1:  0, score2: 0,
			// По сумме 1:2 побеждает команда 1 из первого матча.
			wantWinner: 1, wantDecided: true,
		},
		{
			name:    "first leg submitted last",
			fixture: legFixture(1, 2),
			sibling: completedLeg(2, 1, 0, 0),
			score1:  2, score2: 1,
			wantWinner: 1, wantDecided: true,
		},
		{
			name:    "away side takes the pair",
			fixture: legFixture(2, 1),
			sibling: completedLeg(1, 2, 0, 1),
			score1:  2, score2: 1,
			// Сумма 3:1 в пользу команды 2.
			wantWinner: 2, wantDecided: true,
		},
		{
			name:    "level aggregate is rejected",
			fixture: legFixture(2, 1),
			sibling: completedLeg(1, 2, 1, 0),
			score1:  2, score2: 1,
			wantTieError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			winnerID, decided, err := twoLegOutcome(tt.fixture, tt.sibling, tt.score1, tt.score2)
			if tt.wantTieError {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrTieUnresolved)
				assert.False(t, decided)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantDecided, decided)
			assert.Equal(t, tt.wantWinner, winnerID)
		})
	}
}

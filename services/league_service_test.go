package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secondstrikerr/secondstriker/models"
)

func validLeagueInput() CreateLeagueInput {
	return CreateLeagueInput{
		Name:          "Friday League",
		Fee:           50,
		NumberOfTeams: 8,
		FixtureType:   models.FixtureSingleRound,
		Awards:        models.AwardFirstSecond,
	}
}

func TestCreateLeagueInputValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateLeagueInput)
		wantOK bool
	}{
		{"valid", func(in *CreateLeagueInput) {}, true},
		{"blank name", func(in *CreateLeagueInput) { in.Name = "   " }, false},
		{"negative fee", func(in *CreateLeagueInput) { in.Fee = -1 }, false},
		{"one team", func(in *CreateLeagueInput) { in.NumberOfTeams = 1 }, false},
		{"unknown fixture type", func(in *CreateLeagueInput) { in.FixtureType = "bestOfFive" }, false},
		{"unknown award policy", func(in *CreateLeagueInput) { in.Awards = "winnerTakesNothing" }, false},
		{"topThree with two teams", func(in *CreateLeagueInput) {
			in.Awards = models.AwardTopThree
			in.NumberOfTeams = 2
		}, false},
		{"topThree with three teams", func(in *CreateLeagueInput) {
			in.Awards = models.AwardTopThree
			in.NumberOfTeams = 3
		}, true},
		{"free entry", func(in *CreateLeagueInput) { in.Fee = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validLeagueInput()
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

func TestLeagueCreateRejectsInvalidInput(t *testing.T) {
	svc := &LeagueService{}

	in := validLeagueInput()
	in.NumberOfTeams = 0
	_, err := svc.Create(context.Background(), 1, in)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLeagueSubmitResultRequiresBothScores(t *testing.T) {
	svc := &LeagueService{}
	one := 1

	_, err := svc.SubmitResult(context.Background(), 1, 1, 1, nil, nil)
	assert.ErrorIs(t, err, ErrScoresRequired)

	_, err = svc.SubmitResult(context.Background(), 1, 1, 1, &one, nil)
	assert.ErrorIs(t, err, ErrScoresRequired)

	_, err = svc.SubmitResult(context.Background(), 1, 1, 1, nil, &one)
	assert.ErrorIs(t, err, ErrScoresRequired)
}

func statsFixture(team1, team2, score1, score2 int) *models.Fixture {
	return &models.Fixture{
		Team1ID:    &team1,
		Team2ID:    &team2,
		Team1Score: &score1,
		Team2Score: &score2,
		Status:     models.FixtureCompleted,
	}
}

func TestBuildLeagueStats(t *testing.T) {
	table := []*models.Standing{
		{UserID: 1, GoalsFor: 9, GoalsAgainst: 2, User: &models.User{Username: "alice"}},
		{UserID: 2, GoalsFor: 4, GoalsAgainst: 7, User: &models.User{Username: "bob"}},
		{UserID: 3, GoalsFor: 3, GoalsAgainst: 7, User: &models.User{Username: "carol"}},
	}
	pending := &models.Fixture{Status: models.FixturePending}
	fixtures := []*models.Fixture{
		statsFixture(1, 2, 3, 0), // сухой матч для alice
		statsFixture(1, 3, 4, 2),
		statsFixture(3, 1, 0, 2), // сухой матч для alice
		statsFixture(2, 3, 0, 0), // сухой матч обеим командам
		pending,                  // незавершённый матч не учитывается
	}

	stats := buildLeagueStats(table, fixtures)

	require.NotNil(t, stats.TopScorer)
	assert.Equal(t, models.MemberStat{Username: "alice", Value: 9}, *stats.TopScorer)

	require.NotNil(t, stats.MostConceded)
	// При равенстве пропущенных остаётся первый по таблице.
	assert.Equal(t, models.MemberStat{Username: "bob", Value: 7}, *stats.MostConceded)

	// 11 голов в 4 завершённых матчах.
	assert.Equal(t, 2.75, stats.GoalsPerMatch)

	assert.Equal(t, []models.MemberStat{
		{Username: "alice", Value: 2},
		{Username: "bob", Value: 1},
		{Username: "carol", Value: 1},
	}, stats.CleanSheets)
	require.NotNil(t, stats.TopCleanSheet)
	assert.Equal(t, models.MemberStat{Username: "alice", Value: 2}, *stats.TopCleanSheet)
}

func TestBuildLeagueStatsEmpty(t *testing.T) {
	stats := buildLeagueStats(nil, nil)

	assert.Nil(t, stats.TopScorer)
	assert.Nil(t, stats.MostConceded)
	assert.Zero(t, stats.GoalsPerMatch)
	assert.Empty(t, stats.CleanSheets)
	assert.Nil(t, stats.TopCleanSheet)
}

func TestLeagueSubmitResultRejectsNegativeScores(t *testing.T) {
	svc := &LeagueService{}
	minus := -1
	one := 1

	_, err := svc.SubmitResult(context.Background(), 1, 1, 1, &minus, &one)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.SubmitResult(context.Background(), 1, 1, 1, &one, &minus)
	assert.ErrorIs(t, err, ErrValidation)
}

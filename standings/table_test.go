package standings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secondstrikerr/secondstriker/models"
)

func TestInit(t *testing.T) {
	group := "B"
	rows := Init(7, models.CompetitionTournament, []int{10, 20, 30}, &group)

	require.Len(t, rows, 3)
	for i, row := range rows {
		assert.Equal(t, 7, row.CompetitionID)
		assert.Equal(t, models.CompetitionTournament, row.CompetitionType)
		assert.Equal(t, []int{10, 20, 30}[i], row.UserID)
		require.NotNil(t, row.Group)
		assert.Equal(t, "B", *row.Group)
		assert.Zero(t, row.Played)
		assert.Zero(t, row.Points)
	}
}

func TestApplyWin(t *testing.T) {
	row1 := &models.Standing{UserID: 1}
	row2 := &models.Standing{UserID: 2}

	Apply(row1, row2, 2, 1, false)

	assert.Equal(t, 1, row1.Played)
	assert.Equal(t, 1, row1.Won)
	assert.Equal(t, 0, row1.Drawn)
	assert.Equal(t, 0, row1.Lost)
	assert.Equal(t, 2, row1.GoalsFor)
	assert.Equal(t, 1, row1.GoalsAgainst)
	assert.Equal(t, 1, row1.GoalDifference)
	assert.Equal(t, 3, row1.Points)

	assert.Equal(t, 1, row2.Played)
	assert.Equal(t, 1, row2.Lost)
	assert.Equal(t, 1, row2.GoalsFor)
	assert.Equal(t, 2, row2.GoalsAgainst)
	assert.Equal(t, -1, row2.GoalDifference)
	assert.Equal(t, 0, row2.Points)
}

func TestApplyDraw(t *testing.T) {
	row1 := &models.Standing{UserID: 1}
	row2 := &models.Standing{UserID: 2}

	Apply(row1, row2, 3, 3, false)

	for _, row := range []*models.Standing{row1, row2} {
		assert.Equal(t, 1, row.Drawn)
		assert.Equal(t, 1, row.Points)
		assert.Equal(t, 0, row.GoalDifference)
	}
}

func TestApplyHomeAwayVenueRecords(t *testing.T) {
	row1 := &models.Standing{UserID: 1}
	row2 := &models.Standing{UserID: 2}

	// team1 принимает дома, team2 в гостях.
	Apply(row1, row2, 1, 4, true)

	assert.Equal(t, 1, row1.HomeRecord.Played)
	assert.Equal(t, 1, row1.HomeRecord.Lost)
	assert.Equal(t, 1, row1.HomeRecord.GoalsFor)
	assert.Equal(t, 4, row1.HomeRecord.GoalsAgainst)
	assert.Zero(t, row1.AwayRecord.Played)

	assert.Equal(t, 1, row2.AwayRecord.Played)
	assert.Equal(t, 1, row2.AwayRecord.Won)
	assert.Equal(t, 4, row2.AwayRecord.GoalsFor)
	assert.Zero(t, row2.HomeRecord.Played)
}

func TestApplySingleRoundSkipsVenueRecords(t *testing.T) {
	row1 := &models.Standing{UserID: 1}
	row2 := &models.Standing{UserID: 2}

	Apply(row1, row2, 2, 0, false)

	assert.Zero(t, row1.HomeRecord.Played)
	assert.Zero(t, row2.AwayRecord.Played)
}

func TestRollbackInvertsApply(t *testing.T) {
	row1 := &models.Standing{UserID: 1}
	row2 := &models.Standing{UserID: 2}

	Apply(row1, row2, 2, 1, true)
	Rollback(row1, row2, 2, 1, true)

	zero := models.Standing{UserID: 1}
	assert.Equal(t, zero, *row1)
	zero.UserID = 2
	assert.Equal(t, zero, *row2)
}

func TestCorrectionRollbackThenApply(t *testing.T) {
	row1 := &models.Standing{UserID: 1}
	row2 := &models.Standing{UserID: 2}

	// Счёт записан ошибочно, затем исправлен: итог должен совпадать с
	// однократным применением верного счёта.
	Apply(row1, row2, 3, 0, false)
	Rollback(row1, row2, 3, 0, false)
	Apply(row1, row2, 1, 1, false)

	want1 := &models.Standing{UserID: 1}
	want2 := &models.Standing{UserID: 2}
	Apply(want1, want2, 1, 1, false)

	assert.Equal(t, want1, row1)
	assert.Equal(t, want2, row2)
}

func TestSortOrdering(t *testing.T) {
	a := &models.Standing{UserID: 1, Points: 6, GoalDifference: 2, GoalsFor: 5}
	b := &models.Standing{UserID: 2, Points: 6, GoalDifference: 2, GoalsFor: 7}
	c := &models.Standing{UserID: 3, Points: 6, GoalDifference: 4, GoalsFor: 4}
	d := &models.Standing{UserID: 4, Points: 9, GoalDifference: -1, GoalsFor: 3}

	rows := []*models.Standing{a, b, c, d}
	Sort(rows)

	got := make([]int, 0, len(rows))
	for _, row := range rows {
		got = append(got, row.UserID)
	}
	// Очки, затем разница, затем забитые.
	assert.Equal(t, []int{4, 3, 2, 1}, got)
}

func TestSortStableOnFullTie(t *testing.T) {
	a := &models.Standing{UserID: 1, Points: 3, GoalDifference: 0, GoalsFor: 2}
	b := &models.Standing{UserID: 2, Points: 3, GoalDifference: 0, GoalsFor: 2}

	rows := []*models.Standing{a, b}
	Sort(rows)

	assert.Equal(t, 1, rows[0].UserID)
	assert.Equal(t, 2, rows[1].UserID)
}

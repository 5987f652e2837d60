// Package standings содержит чистую арифметику турнирной таблицы: применение
// результата матча, его откат и порядок сортировки. Функции не имеют скрытого
// состояния и работают только с переданными строками, поэтому откат с
// повторным применением того же счёта является no-op.
package standings

import (
	"sort"

	"github.com/secondstrikerr/secondstriker/models"
)

const pointsPerWin = 3

// Init создаёт обнулённую строку таблицы для каждого участника.
func Init(competitionID int, competitionType models.CompetitionType, members []int, group *string) []*models.Standing {
	rows := make([]*models.Standing, 0, len(members))
	for _, userID := range members {
		rows = append(rows, &models.Standing{
			CompetitionID:   competitionID,
			CompetitionType: competitionType,
			UserID:          userID,
			Group:           group,
		})
	}
	return rows
}

// Apply прибавляет вклад одного результата к строкам обеих команд.
// row1 — сторона, записанная в матче как team1. При homeAway матч считается
// домашним для team1 и гостевым для team2, что отражается в подзаписях.
func Apply(row1, row2 *models.Standing, score1, score2 int, homeAway bool) {
	applySide(row1, score1, score2, homeAway, true)
	applySide(row2, score2, score1, homeAway, false)
}

// Rollback — точная инверсия Apply для ранее применённого счёта. Вызывается
// перед повторной записью результата уже завершённого матча.
func Rollback(row1, row2 *models.Standing, prevScore1, prevScore2 int, homeAway bool) {
	rollbackSide(row1, prevScore1, prevScore2, homeAway, true)
	rollbackSide(row2, prevScore2, prevScore1, homeAway, false)
}

func applySide(row *models.Standing, goalsFor, goalsAgainst int, homeAway, isTeam1 bool) {
	row.Played++
	row.GoalsFor += goalsFor
	row.GoalsAgainst += goalsAgainst
	switch {
	case goalsFor > goalsAgainst:
		row.Won++
	case goalsFor < goalsAgainst:
		row.Lost++
	default:
		row.Drawn++
	}
	recompute(row)

	if homeAway {
		rec := venueRecord(row, isTeam1)
		rec.Played++
		rec.GoalsFor += goalsFor
		rec.GoalsAgainst += goalsAgainst
		switch {
		case goalsFor > goalsAgainst:
			rec.Won++
		case goalsFor < goalsAgainst:
			rec.Lost++
		default:
			rec.Drawn++
		}
	}
}

func rollbackSide(row *models.Standing, goalsFor, goalsAgainst int, homeAway, isTeam1 bool) {
	row.Played--
	row.GoalsFor -= goalsFor
	row.GoalsAgainst -= goalsAgainst
	switch {
	case goalsFor > goalsAgainst:
		row.Won--
	case goalsFor < goalsAgainst:
		row.Lost--
	default:
		row.Drawn--
	}
	recompute(row)

	if homeAway {
		rec := venueRecord(row, isTeam1)
		rec.Played--
		rec.GoalsFor -= goalsFor
		rec.GoalsAgainst -= goalsAgainst
		switch {
		case goalsFor > goalsAgainst:
			rec.Won--
		case goalsFor < goalsAgainst:
			rec.Lost--
		default:
			rec.Drawn--
		}
	}
}

// recompute — Points и GoalDifference производные, не хранимая истина.
func recompute(row *models.Standing) {
	row.Points = row.Won*pointsPerWin + row.Drawn
	row.GoalDifference = row.GoalsFor - row.GoalsAgainst
}

func venueRecord(row *models.Standing, isTeam1 bool) *models.VenueRecord {
	if isTeam1 {
		return &row.HomeRecord
	}
	return &row.AwayRecord
}

// Sort упорядочивает строки для публикации: очки, затем разница мячей,
// затем забитые, по убыванию. Прочие равенства сохраняют исходный порядок.
func Sort(rows []*models.Standing) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.GoalDifference != b.GoalDifference {
			return a.GoalDifference > b.GoalDifference
		}
		return a.GoalsFor > b.GoalsFor
	})
}

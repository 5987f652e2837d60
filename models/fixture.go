package models

import "time"

type FixtureStatus string

const (
	FixturePending   FixtureStatus = "pending"
	FixtureCompleted FixtureStatus = "completed"
)

// FixtureStage указывает, к какой фазе соревнования относится матч.
type FixtureStage string

const (
	FixtureStageLeague   FixtureStage = "league"
	FixtureStageGroup    FixtureStage = "groupStage"
	FixtureStageKnockout FixtureStage = "knockout"
)

// Fixture — один запланированный матч между двумя участниками.
// Team1ID/Team2ID nullable: слот в сетке плей-офф может ждать победителя
// предыдущего раунда. Инвариант: счёт заполнен тогда и только тогда,
// когда Status == completed.
type Fixture struct {
	ID              int             `json:"id" db:"id"`
	CompetitionID   int             `json:"competition_id" db:"competition_id"`
	CompetitionType CompetitionType `json:"competition_type" db:"competition_type"`
	Team1ID         *int            `json:"team1_id" db:"team1_id"`
	Team2ID         *int            `json:"team2_id" db:"team2_id"`
	Round           string          `json:"round" db:"round"`
	Group           *string         `json:"group,omitempty" db:"group_letter"`
	Stage           FixtureStage    `json:"stage" db:"stage"`
	Position        *int            `json:"position,omitempty" db:"position"`
	IsHomeAway      bool            `json:"is_home_away" db:"is_home_away"`
	Team1Score      *int            `json:"team1_score" db:"team1_score"`
	Team2Score      *int            `json:"team2_score" db:"team2_score"`
	Status          FixtureStatus   `json:"status" db:"status"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// Decided reports whether the fixture has a completed, non-drawn result.
func (f *Fixture) Decided() bool {
	return f.Status == FixtureCompleted &&
		f.Team1Score != nil && f.Team2Score != nil &&
		*f.Team1Score != *f.Team2Score
}

package models

import "time"

// TournamentFormat: чистый плей-офф или групповой этап с выходом в плей-офф.
type TournamentFormat string

const (
	FormatKnockout      TournamentFormat = "knockout"
	FormatGroupKnockout TournamentFormat = "groupKnockout"
)

func (f TournamentFormat) Valid() bool {
	switch f {
	case FormatKnockout, FormatGroupKnockout:
		return true
	}
	return false
}

// TournamentStage is set once the tournament is ongoing.
type TournamentStage string

const (
	StageGroup    TournamentStage = "groupStage"
	StageKnockout TournamentStage = "knockout"
)

type Tournament struct {
	ID                 int                `json:"id" db:"id"`
	Name               string             `json:"name" db:"name"`
	Fee                float64            `json:"fee" db:"fee"`
	CreatorID          int                `json:"creator_id" db:"creator_id"`
	TeamsPerGroup      int                `json:"teams_per_group" db:"teams_per_group"`
	NumberOfGroups     int                `json:"number_of_groups" db:"number_of_groups"`
	Format             TournamentFormat   `json:"format" db:"format"`
	Stage              *TournamentStage   `json:"stage,omitempty" db:"stage"`
	FixtureType        FixtureType        `json:"fixture_type" db:"fixture_type"`
	Awards             AwardPolicy        `json:"awards" db:"awards"`
	AwardsDistribution AwardsDistribution `json:"awards_distribution"`
	PrizePool          float64            `json:"prize_pool" db:"prize_pool"`
	Status             CompetitionStatus  `json:"status" db:"status"`
	Rules              []string           `json:"rules,omitempty"`
	WinnerID           *int               `json:"winner_id,omitempty" db:"winner_id"`
	RunnerUpID         *int               `json:"runner_up_id,omitempty" db:"runner_up_id"`
	LogoKey            *string            `json:"-" db:"logo_key"`
	LogoURL            *string            `json:"logo_url,omitempty" db:"-"`
	CreatedAt          time.Time          `json:"created_at" db:"created_at"`

	Creator *User  `json:"creator,omitempty" db:"-"`
	Members []User `json:"members,omitempty" db:"-"`
}

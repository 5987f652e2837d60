package models

import "time"

// League представляет лигу: один круговой турнир с вступительным взносом.
type League struct {
	ID                 int                `json:"id" db:"id"`
	Name               string             `json:"name" db:"name"`
	Fee                float64            `json:"fee" db:"fee"`
	CreatorID          int                `json:"creator_id" db:"creator_id"`
	NumberOfTeams      int                `json:"number_of_teams" db:"number_of_teams"`
	FixtureType        FixtureType        `json:"fixture_type" db:"fixture_type"`
	Awards             AwardPolicy        `json:"awards" db:"awards"`
	AwardsDistribution AwardsDistribution `json:"awards_distribution"`
	PrizePool          float64            `json:"prize_pool" db:"prize_pool"`
	Status             CompetitionStatus  `json:"status" db:"status"`
	Rules              []string           `json:"rules,omitempty"`
	LogoKey            *string            `json:"-" db:"logo_key"`
	LogoURL            *string            `json:"logo_url,omitempty" db:"-"`
	CreatedAt          time.Time          `json:"created_at" db:"created_at"`

	// Опциональные связанные сущности, заполняются сервисом.
	Creator *User  `json:"creator,omitempty" db:"-"`
	Members []User `json:"members,omitempty" db:"-"`
}

// MemberStat — участник и значение одного показателя.
type MemberStat struct {
	Username string `json:"username"`
	Value    int    `json:"value"`
}

// LeagueStats — сводка лиги по завершённым матчам.
type LeagueStats struct {
	TopScorer     *MemberStat  `json:"top_scorer"`
	MostConceded  *MemberStat  `json:"most_conceded"`
	GoalsPerMatch float64      `json:"goals_per_match"`
	CleanSheets   []MemberStat `json:"clean_sheets"`
	TopCleanSheet *MemberStat  `json:"top_clean_sheet"`
}

package models

import "time"

// VenueRecord — домашняя или гостевая часть статистики участника.
type VenueRecord struct {
	Played       int `json:"played"`
	Won          int `json:"won"`
	Drawn        int `json:"drawn"`
	Lost         int `json:"lost"`
	GoalsFor     int `json:"goals_for"`
	GoalsAgainst int `json:"goals_against"`
}

// Standing — строка турнирной таблицы, агрегат по завершённым матчам
// одного участника. Points и GoalDifference всегда пересчитываются из
// остальных полей, никогда не хранятся как самостоятельная истина.
type Standing struct {
	ID              int             `json:"id" db:"id"`
	CompetitionID   int             `json:"competition_id" db:"competition_id"`
	CompetitionType CompetitionType `json:"competition_type" db:"competition_type"`
	UserID          int             `json:"user_id" db:"user_id"`
	Group           *string         `json:"group,omitempty" db:"group_letter"`
	Played          int             `json:"played" db:"played"`
	Won             int             `json:"won" db:"won"`
	Drawn           int             `json:"drawn" db:"drawn"`
	Lost            int             `json:"lost" db:"lost"`
	Points          int             `json:"points" db:"points"`
	GoalsFor        int             `json:"goals_for" db:"goals_for"`
	GoalsAgainst    int             `json:"goals_against" db:"goals_against"`
	GoalDifference  int             `json:"goal_difference" db:"goal_difference"`
	HomeRecord      VenueRecord     `json:"home_record"`
	AwayRecord      VenueRecord     `json:"away_record"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`

	User *User `json:"user,omitempty" db:"-"`
}

package models

// CompetitionType discriminates which table a fixture or standing row belongs to.
type CompetitionType string

const (
	CompetitionLeague     CompetitionType = "League"
	CompetitionTournament CompetitionType = "Tournament"
)

// CompetitionStatus представляет статусы соревнования, соответствующие ENUM в БД.
// Переходы только вперёд: draft -> ongoing -> completed.
type CompetitionStatus string

const (
	StatusDraft     CompetitionStatus = "draft"
	StatusOngoing   CompetitionStatus = "ongoing"
	StatusCompleted CompetitionStatus = "completed"
)

// FixtureType определяет, играется ли каждая пара один раз или дома и в гостях.
type FixtureType string

const (
	FixtureSingleRound FixtureType = "singleRound"
	FixtureHomeAway    FixtureType = "homeAway"
)

func (t FixtureType) Valid() bool {
	switch t {
	case FixtureSingleRound, FixtureHomeAway:
		return true
	}
	return false
}

// AwardPolicy determines how the net prize pool is split between ranks.
type AwardPolicy string

const (
	AwardFirst       AwardPolicy = "first"
	AwardFirstSecond AwardPolicy = "firstSecond"
	AwardTopThree    AwardPolicy = "topThree"
)

func (p AwardPolicy) Valid() bool {
	switch p {
	case AwardFirst, AwardFirstSecond, AwardTopThree:
		return true
	}
	return false
}

// AwardsDistribution holds the computed payout per rank for a competition.
type AwardsDistribution struct {
	FirstPlace  float64 `json:"first_place" db:"award_first"`
	SecondPlace float64 `json:"second_place" db:"award_second"`
	ThirdPlace  float64 `json:"third_place" db:"award_third"`
}

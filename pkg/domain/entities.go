// Package domain defines the core persistent entities, value types, and
// rule evaluation primitives used by rostercore.
package domain

import "time"

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityLeague identifies a league record.
	EntityLeague EntityType = "league"
	// EntitySeason identifies a season record.
	EntitySeason EntityType = "season"
	// EntityTeam identifies a team record.
	EntityTeam EntityType = "team"
	// EntityPlayer identifies a player record.
	EntityPlayer EntityType = "player"
	// EntityGame identifies a game record.
	EntityGame EntityType = "game"
	// EntityVenue identifies a venue record.
	EntityVenue EntityType = "venue"
)

// EntityTypes lists every persistent entity type in bucket order.
func EntityTypes() []EntityType {
	return []EntityType{EntityLeague, EntitySeason, EntityTeam, EntityPlayer, EntityGame, EntityVenue}
}

// GameStatus enumerates canonical game workflow states.
type GameStatus string

// Canonical game statuses used for scheduling and result validation.
const (
	GameStatusScheduled  GameStatus = "scheduled"
	GameStatusInProgress GameStatus = "in_progress"
	GameStatusFinal      GameStatus = "final"
	GameStatusPostponed  GameStatus = "postponed"
	GameStatusCancelled  GameStatus = "cancelled"
)

// PlayerStatus enumerates player availability states.
type PlayerStatus string

// Canonical player statuses recognised by roster rules.
const (
	PlayerStatusActive    PlayerStatus = "active"
	PlayerStatusInactive  PlayerStatus = "inactive"
	PlayerStatusInjured   PlayerStatus = "injured"
	PlayerStatusSuspended PlayerStatus = "suspended"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// League represents a competition organiser grouping teams and seasons.
type League struct {
	Base
	Code       string         `json:"code"`
	Name       string         `json:"name"`
	Sport      string         `json:"sport"`
	Country    *string        `json:"country,omitempty"`
	TeamIDs    []string       `json:"team_ids"`
	SeasonIDs  []string       `json:"season_ids"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Season represents one competition cycle of a league.
type Season struct {
	Base
	Name       string         `json:"name"`
	LeagueID   string         `json:"league_id"`
	StartDate  time.Time      `json:"start_date"`
	EndDate    time.Time      `json:"end_date"`
	GameIDs    []string       `json:"game_ids"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Team represents a club or franchise competing in a league.
type Team struct {
	Base
	Code        string         `json:"code"`
	Name        string         `json:"name"`
	LeagueID    string         `json:"league_id"`
	VenueID     *string        `json:"venue_id"`
	Coach       *string        `json:"coach,omitempty"`
	FoundedYear *int           `json:"founded_year,omitempty"`
	RosterLimit int            `json:"roster_limit"`
	PlayerIDs   []string       `json:"player_ids"`
	Attributes  map[string]any `json:"attributes,omitempty"`
}

// Player represents an individual athlete, optionally attached to a team.
type Player struct {
	Base
	Name         string         `json:"name"`
	Position     string         `json:"position"`
	JerseyNumber *int           `json:"jersey_number"`
	Status       PlayerStatus   `json:"status"`
	TeamID       *string        `json:"team_id"`
	BirthDate    *time.Time     `json:"birth_date"`
	Nationality  *string        `json:"nationality,omitempty"`
	HeightCM     *int           `json:"height_cm,omitempty"`
	WeightKG     *float64       `json:"weight_kg,omitempty"`
	Attributes   map[string]any `json:"attributes,omitempty"`
}

// Game represents a single fixture between two teams within a season.
type Game struct {
	Base
	SeasonID    string         `json:"season_id"`
	HomeTeamID  string         `json:"home_team_id"`
	AwayTeamID  string         `json:"away_team_id"`
	VenueID     *string        `json:"venue_id"`
	ScheduledAt time.Time      `json:"scheduled_at"`
	Status      GameStatus     `json:"status"`
	Round       *int           `json:"round,omitempty"`
	HomeScore   *int           `json:"home_score"`
	AwayScore   *int           `json:"away_score"`
	Attendance  *int           `json:"attendance,omitempty"`
	Attributes  map[string]any `json:"attributes,omitempty"`
}

// Venue captures the physical ground games are played at.
type Venue struct {
	Base
	Name        string         `json:"name"`
	City        string         `json:"city"`
	Country     *string        `json:"country,omitempty"`
	Capacity    int            `json:"capacity"`
	Surface     *string        `json:"surface,omitempty"`
	OpenedYear  *int           `json:"opened_year,omitempty"`
	HomeTeamIDs []string       `json:"home_team_ids"`
	Attributes  map[string]any `json:"attributes,omitempty"`
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}

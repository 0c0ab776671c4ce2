package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreateLeague(League) (League, error)
	UpdateLeague(id string, mutator func(*League) error) (League, error)
	DeleteLeague(id string) error
	CreateSeason(Season) (Season, error)
	UpdateSeason(id string, mutator func(*Season) error) (Season, error)
	DeleteSeason(id string) error
	CreateTeam(Team) (Team, error)
	UpdateTeam(id string, mutator func(*Team) error) (Team, error)
	DeleteTeam(id string) error
	CreatePlayer(Player) (Player, error)
	UpdatePlayer(id string, mutator func(*Player) error) (Player, error)
	DeletePlayer(id string) error
	CreateGame(Game) (Game, error)
	UpdateGame(id string, mutator func(*Game) error) (Game, error)
	DeleteGame(id string) error
	CreateVenue(Venue) (Venue, error)
	UpdateVenue(id string, mutator func(*Venue) error) (Venue, error)
	DeleteVenue(id string) error
	FindLeague(id string) (League, bool)
	FindTeam(id string) (Team, bool)
	FindVenue(id string) (Venue, bool)
}

// TransactionView provides read-only access to snapshot data for rules.
type TransactionView interface {
	ListLeagues() []League
	ListSeasons() []Season
	ListTeams() []Team
	ListPlayers() []Player
	ListGames() []Game
	ListVenues() []Venue
	FindLeague(id string) (League, bool)
	FindSeason(id string) (Season, bool)
	FindTeam(id string) (Team, bool)
	FindPlayer(id string) (Player, bool)
	FindGame(id string) (Game, bool)
	FindVenue(id string) (Venue, bool)
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetLeague(id string) (League, bool)
	ListLeagues() []League
	GetSeason(id string) (Season, bool)
	ListSeasons() []Season
	GetTeam(id string) (Team, bool)
	ListTeams() []Team
	GetPlayer(id string) (Player, bool)
	ListPlayers() []Player
	GetGame(id string) (Game, bool)
	ListGames() []Game
	GetVenue(id string) (Venue, bool)
	ListVenues() []Venue
}

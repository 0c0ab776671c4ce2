// Package memory provides an in-memory implementation of the core persistence
// store used for tests and ephemeral environments.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"rostercore/pkg/domain"
)

// Compile-time contract assertions ensuring memory.Store adheres to the domain persistence interfaces.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// League aliases domain.League for in-memory persistence operations.
	League = domain.League
	// Season aliases domain.Season.
	Season = domain.Season
	// Team aliases domain.Team.
	Team = domain.Team
	// Player aliases domain.Player.
	Player = domain.Player
	// Game aliases domain.Game.
	Game = domain.Game
	// Venue aliases domain.Venue.
	Venue = domain.Venue
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
	// PersistentStore aliases domain.PersistentStore abstraction.
	PersistentStore = domain.PersistentStore
)

type memoryState struct {
	leagues map[string]League
	seasons map[string]Season
	teams   map[string]Team
	players map[string]Player
	games   map[string]Game
	venues  map[string]Venue
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Leagues map[string]League `json:"leagues"`
	Seasons map[string]Season `json:"seasons"`
	Teams   map[string]Team   `json:"teams"`
	Players map[string]Player `json:"players"`
	Games   map[string]Game   `json:"games"`
	Venues  map[string]Venue  `json:"venues"`
}

func newMemoryState() memoryState {
	return memoryState{
		leagues: make(map[string]League),
		seasons: make(map[string]Season),
		teams:   make(map[string]Team),
		players: make(map[string]Player),
		games:   make(map[string]Game),
		venues:  make(map[string]Venue),
	}
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	s := Snapshot{
		Leagues: make(map[string]League, len(state.leagues)),
		Seasons: make(map[string]Season, len(state.seasons)),
		Teams:   make(map[string]Team, len(state.teams)),
		Players: make(map[string]Player, len(state.players)),
		Games:   make(map[string]Game, len(state.games)),
		Venues:  make(map[string]Venue, len(state.venues)),
	}
	for k, v := range state.leagues {
		s.Leagues[k] = cloneLeague(v)
	}
	for k, v := range state.seasons {
		s.Seasons[k] = cloneSeason(v)
	}
	for k, v := range state.teams {
		s.Teams[k] = cloneTeam(v)
	}
	for k, v := range state.players {
		s.Players[k] = clonePlayer(v)
	}
	for k, v := range state.games {
		s.Games[k] = cloneGame(v)
	}
	for k, v := range state.venues {
		s.Venues[k] = cloneVenue(v)
	}
	return s
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range s.Leagues {
		state.leagues[k] = cloneLeague(v)
	}
	for k, v := range s.Seasons {
		state.seasons[k] = cloneSeason(v)
	}
	for k, v := range s.Teams {
		state.teams[k] = cloneTeam(v)
	}
	for k, v := range s.Players {
		state.players[k] = clonePlayer(v)
	}
	for k, v := range s.Games {
		state.games[k] = cloneGame(v)
	}
	for k, v := range s.Venues {
		state.venues[k] = cloneVenue(v)
	}
	return state
}

// migrateSnapshot repairs referential integrity of externally supplied
// snapshots: orphaned records are dropped, dangling references cleared, and
// derived ID lists recomputed from the scalar references.
func migrateSnapshot(snapshot Snapshot) Snapshot {
	if snapshot.Leagues == nil {
		snapshot.Leagues = map[string]League{}
	}
	if snapshot.Seasons == nil {
		snapshot.Seasons = map[string]Season{}
	}
	if snapshot.Teams == nil {
		snapshot.Teams = map[string]Team{}
	}
	if snapshot.Players == nil {
		snapshot.Players = map[string]Player{}
	}
	if snapshot.Games == nil {
		snapshot.Games = map[string]Game{}
	}
	if snapshot.Venues == nil {
		snapshot.Venues = map[string]Venue{}
	}

	leagueExists := func(id string) bool {
		_, ok := snapshot.Leagues[id]
		return ok
	}
	seasonExists := func(id string) bool {
		_, ok := snapshot.Seasons[id]
		return ok
	}
	teamExists := func(id string) bool {
		_, ok := snapshot.Teams[id]
		return ok
	}
	venueExists := func(id string) bool {
		_, ok := snapshot.Venues[id]
		return ok
	}

	for id, venue := range snapshot.Venues {
		if venue.Capacity < 0 {
			venue.Capacity = 0
		}
		snapshot.Venues[id] = venue
	}

	for id, season := range snapshot.Seasons {
		if season.LeagueID == "" || !leagueExists(season.LeagueID) {
			delete(snapshot.Seasons, id)
			continue
		}
		snapshot.Seasons[id] = season
	}

	for id, team := range snapshot.Teams {
		if team.LeagueID == "" || !leagueExists(team.LeagueID) {
			delete(snapshot.Teams, id)
			continue
		}
		if team.VenueID != nil && !venueExists(*team.VenueID) {
			team.VenueID = nil
		}
		if team.RosterLimit < 0 {
			team.RosterLimit = 0
		}
		snapshot.Teams[id] = team
	}

	for id, player := range snapshot.Players {
		if player.Status == "" {
			player.Status = domain.PlayerStatusActive
		}
		if player.TeamID != nil && !teamExists(*player.TeamID) {
			player.TeamID = nil
		}
		snapshot.Players[id] = player
	}

	for id, game := range snapshot.Games {
		if game.SeasonID == "" || !seasonExists(game.SeasonID) {
			delete(snapshot.Games, id)
			continue
		}
		if !teamExists(game.HomeTeamID) || !teamExists(game.AwayTeamID) {
			delete(snapshot.Games, id)
			continue
		}
		if game.VenueID != nil && !venueExists(*game.VenueID) {
			game.VenueID = nil
		}
		if game.Status == "" {
			game.Status = domain.GameStatusScheduled
		}
		snapshot.Games[id] = game
	}

	for id, league := range snapshot.Leagues {
		var teamIDs []string
		for _, team := range snapshot.Teams {
			if team.LeagueID == id {
				teamIDs = append(teamIDs, team.ID)
			}
		}
		sort.Strings(teamIDs)
		league.TeamIDs = teamIDs

		var seasonIDs []string
		for _, season := range snapshot.Seasons {
			if season.LeagueID == id {
				seasonIDs = append(seasonIDs, season.ID)
			}
		}
		sort.Strings(seasonIDs)
		league.SeasonIDs = seasonIDs

		snapshot.Leagues[id] = league
	}

	for id, season := range snapshot.Seasons {
		var gameIDs []string
		for _, game := range snapshot.Games {
			if game.SeasonID == id {
				gameIDs = append(gameIDs, game.ID)
			}
		}
		sort.Strings(gameIDs)
		season.GameIDs = gameIDs
		snapshot.Seasons[id] = season
	}

	for id, team := range snapshot.Teams {
		var playerIDs []string
		for _, player := range snapshot.Players {
			if player.TeamID != nil && *player.TeamID == id {
				playerIDs = append(playerIDs, player.ID)
			}
		}
		sort.Strings(playerIDs)
		team.PlayerIDs = playerIDs
		snapshot.Teams[id] = team
	}

	for id, venue := range snapshot.Venues {
		var homeIDs []string
		for _, team := range snapshot.Teams {
			if team.VenueID != nil && *team.VenueID == id {
				homeIDs = append(homeIDs, team.ID)
			}
		}
		sort.Strings(homeIDs)
		venue.HomeTeamIDs = homeIDs
		snapshot.Venues[id] = venue
	}

	return snapshot
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.leagues {
		cloned.leagues[k] = cloneLeague(v)
	}
	for k, v := range s.seasons {
		cloned.seasons[k] = cloneSeason(v)
	}
	for k, v := range s.teams {
		cloned.teams[k] = cloneTeam(v)
	}
	for k, v := range s.players {
		cloned.players[k] = clonePlayer(v)
	}
	for k, v := range s.games {
		cloned.games[k] = cloneGame(v)
	}
	for k, v := range s.venues {
		cloned.venues[k] = cloneVenue(v)
	}
	return cloned
}

func cloneAttributes(attrs map[string]any) map[string]any {
	if attrs == nil {
		return nil
	}
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}

func cloneLeague(l League) League {
	cp := l
	cp.TeamIDs = append([]string(nil), l.TeamIDs...)
	cp.SeasonIDs = append([]string(nil), l.SeasonIDs...)
	cp.Attributes = cloneAttributes(l.Attributes)
	return cp
}

func cloneSeason(s Season) Season {
	cp := s
	cp.GameIDs = append([]string(nil), s.GameIDs...)
	cp.Attributes = cloneAttributes(s.Attributes)
	return cp
}

func cloneTeam(t Team) Team {
	cp := t
	cp.PlayerIDs = append([]string(nil), t.PlayerIDs...)
	cp.Attributes = cloneAttributes(t.Attributes)
	return cp
}

func clonePlayer(p Player) Player {
	cp := p
	if p.BirthDate != nil {
		t := *p.BirthDate
		cp.BirthDate = &t
	}
	cp.Attributes = cloneAttributes(p.Attributes)
	return cp
}

func cloneGame(g Game) Game {
	cp := g
	cp.Attributes = cloneAttributes(g.Attributes)
	return cp
}

func cloneVenue(v Venue) Venue {
	cp := v
	cp.HomeTeamIDs = append([]string(nil), v.HomeTeamIDs...)
	cp.Attributes = cloneAttributes(v.Attributes)
	return cp
}

func leagueTeamIDs(state *memoryState, leagueID string) []string {
	var ids []string
	for _, team := range state.teams {
		if team.LeagueID == leagueID {
			ids = append(ids, team.ID)
		}
	}
	sort.Strings(ids)
	return ids
}

func leagueSeasonIDs(state *memoryState, leagueID string) []string {
	var ids []string
	for _, season := range state.seasons {
		if season.LeagueID == leagueID {
			ids = append(ids, season.ID)
		}
	}
	sort.Strings(ids)
	return ids
}

func decorateLeague(state *memoryState, league League) League {
	league.TeamIDs = leagueTeamIDs(state, league.ID)
	league.SeasonIDs = leagueSeasonIDs(state, league.ID)
	return league
}

func seasonGameIDs(state *memoryState, seasonID string) []string {
	var ids []string
	for _, game := range state.games {
		if game.SeasonID == seasonID {
			ids = append(ids, game.ID)
		}
	}
	sort.Strings(ids)
	return ids
}

func decorateSeason(state *memoryState, season Season) Season {
	season.GameIDs = seasonGameIDs(state, season.ID)
	return season
}

func teamPlayerIDs(state *memoryState, teamID string) []string {
	var ids []string
	for _, player := range state.players {
		if player.TeamID != nil && *player.TeamID == teamID {
			ids = append(ids, player.ID)
		}
	}
	sort.Strings(ids)
	return ids
}

func decorateTeam(state *memoryState, team Team) Team {
	team.PlayerIDs = teamPlayerIDs(state, team.ID)
	return team
}

func venueHomeTeamIDs(state *memoryState, venueID string) []string {
	var ids []string
	for _, team := range state.teams {
		if team.VenueID != nil && *team.VenueID == venueID {
			ids = append(ids, team.ID)
		}
	}
	sort.Strings(ids)
	return ids
}

func decorateVenue(state *memoryState, venue Venue) Venue {
	venue.HomeTeamIDs = venueHomeTeamIDs(state, venue.ID)
	return venue
}

// Store provides an in-memory transactional store for the core domain.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(migrateSnapshot(snapshot))
}

// RulesEngine exposes the currently configured engine for integration points.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the in-memory store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// ListLeagues returns all leagues within the transaction snapshot.
func (v transactionView) ListLeagues() []League {
	out := make([]League, 0, len(v.state.leagues))
	for _, l := range v.state.leagues {
		out = append(out, cloneLeague(decorateLeague(v.state, l)))
	}
	return out
}

// ListSeasons returns all seasons in the snapshot.
func (v transactionView) ListSeasons() []Season {
	out := make([]Season, 0, len(v.state.seasons))
	for _, s := range v.state.seasons {
		out = append(out, cloneSeason(decorateSeason(v.state, s)))
	}
	return out
}

// ListTeams returns all teams in the snapshot.
func (v transactionView) ListTeams() []Team {
	out := make([]Team, 0, len(v.state.teams))
	for _, t := range v.state.teams {
		out = append(out, cloneTeam(decorateTeam(v.state, t)))
	}
	return out
}

// ListPlayers returns all players in the snapshot.
func (v transactionView) ListPlayers() []Player {
	out := make([]Player, 0, len(v.state.players))
	for _, p := range v.state.players {
		out = append(out, clonePlayer(p))
	}
	return out
}

// ListGames returns all games in the snapshot.
func (v transactionView) ListGames() []Game {
	out := make([]Game, 0, len(v.state.games))
	for _, g := range v.state.games {
		out = append(out, cloneGame(g))
	}
	return out
}

// ListVenues returns all venues in the snapshot.
func (v transactionView) ListVenues() []Venue {
	out := make([]Venue, 0, len(v.state.venues))
	for _, vn := range v.state.venues {
		out = append(out, cloneVenue(decorateVenue(v.state, vn)))
	}
	return out
}

// FindLeague retrieves a league by ID from the snapshot.
func (v transactionView) FindLeague(id string) (League, bool) {
	l, ok := v.state.leagues[id]
	if !ok {
		return League{}, false
	}
	return cloneLeague(decorateLeague(v.state, l)), true
}

// FindSeason retrieves a season by ID from the snapshot.
func (v transactionView) FindSeason(id string) (Season, bool) {
	s, ok := v.state.seasons[id]
	if !ok {
		return Season{}, false
	}
	return cloneSeason(decorateSeason(v.state, s)), true
}

// FindTeam retrieves a team by ID from the snapshot.
func (v transactionView) FindTeam(id string) (Team, bool) {
	t, ok := v.state.teams[id]
	if !ok {
		return Team{}, false
	}
	return cloneTeam(decorateTeam(v.state, t)), true
}

// FindPlayer retrieves a player by ID from the snapshot.
func (v transactionView) FindPlayer(id string) (Player, bool) {
	p, ok := v.state.players[id]
	if !ok {
		return Player{}, false
	}
	return clonePlayer(p), true
}

// FindGame retrieves a game by ID from the snapshot.
func (v transactionView) FindGame(id string) (Game, bool) {
	g, ok := v.state.games[id]
	if !ok {
		return Game{}, false
	}
	return cloneGame(g), true
}

// FindVenue retrieves a venue by ID from the snapshot.
func (v transactionView) FindVenue(id string) (Venue, bool) {
	vn, ok := v.state.venues[id]
	if !ok {
		return Venue{}, false
	}
	return cloneVenue(decorateVenue(v.state, vn)), true
}

// RunInTransaction executes fn within a transactional copy of the store state.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// FindLeague exposes league lookup within the transaction scope.
func (tx *transaction) FindLeague(id string) (League, bool) {
	l, ok := tx.state.leagues[id]
	if !ok {
		return League{}, false
	}
	return cloneLeague(decorateLeague(&tx.state, l)), true
}

// FindTeam exposes team lookup within the transaction scope.
func (tx *transaction) FindTeam(id string) (Team, bool) {
	t, ok := tx.state.teams[id]
	if !ok {
		return Team{}, false
	}
	return cloneTeam(decorateTeam(&tx.state, t)), true
}

// FindVenue exposes venue lookup within the transaction scope.
func (tx *transaction) FindVenue(id string) (Venue, bool) {
	v, ok := tx.state.venues[id]
	if !ok {
		return Venue{}, false
	}
	return cloneVenue(decorateVenue(&tx.state, v)), true
}

// CreateLeague stores a new league within the transaction.
func (tx *transaction) CreateLeague(l League) (League, error) {
	if l.ID == "" {
		l.ID = tx.store.newID()
	}
	if _, exists := tx.state.leagues[l.ID]; exists {
		return League{}, fmt.Errorf("league %q already exists", l.ID)
	}
	if l.Name == "" {
		return League{}, errors.New("league requires a name")
	}
	l.CreatedAt = tx.now
	l.UpdatedAt = tx.now
	l.TeamIDs = nil
	l.SeasonIDs = nil
	tx.state.leagues[l.ID] = cloneLeague(l)
	created := decorateLeague(&tx.state, l)
	tx.recordChange(Change{Entity: domain.EntityLeague, Action: domain.ActionCreate, After: cloneLeague(created)})
	return cloneLeague(created), nil
}

// UpdateLeague mutates a league using the provided mutator function.
func (tx *transaction) UpdateLeague(id string, mutator func(*League) error) (League, error) {
	current, ok := tx.state.leagues[id]
	if !ok {
		return League{}, fmt.Errorf("league %q not found", id)
	}
	beforeDecorated := decorateLeague(&tx.state, current)
	before := cloneLeague(beforeDecorated)
	if err := mutator(&current); err != nil {
		return League{}, err
	}
	if current.Name == "" {
		return League{}, errors.New("league requires a name")
	}
	current.TeamIDs = nil
	current.SeasonIDs = nil
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.leagues[id] = cloneLeague(current)
	afterDecorated := decorateLeague(&tx.state, current)
	tx.recordChange(Change{Entity: domain.EntityLeague, Action: domain.ActionUpdate, Before: before, After: cloneLeague(afterDecorated)})
	return cloneLeague(afterDecorated), nil
}

// DeleteLeague removes a league from the transaction state.
func (tx *transaction) DeleteLeague(id string) error {
	current, ok := tx.state.leagues[id]
	if !ok {
		return fmt.Errorf("league %q not found", id)
	}
	decoratedCurrent := decorateLeague(&tx.state, current)
	for _, season := range tx.state.seasons {
		if season.LeagueID == id {
			return fmt.Errorf("league %q still referenced by season %q", id, season.ID)
		}
	}
	for _, team := range tx.state.teams {
		if team.LeagueID == id {
			return fmt.Errorf("league %q still referenced by team %q", id, team.ID)
		}
	}
	delete(tx.state.leagues, id)
	tx.recordChange(Change{Entity: domain.EntityLeague, Action: domain.ActionDelete, Before: cloneLeague(decoratedCurrent)})
	return nil
}

// CreateSeason stores a new season.
func (tx *transaction) CreateSeason(s Season) (Season, error) {
	if s.ID == "" {
		s.ID = tx.store.newID()
	}
	if _, exists := tx.state.seasons[s.ID]; exists {
		return Season{}, fmt.Errorf("season %q already exists", s.ID)
	}
	if s.LeagueID == "" {
		return Season{}, errors.New("season requires league id")
	}
	if _, ok := tx.state.leagues[s.LeagueID]; !ok {
		return Season{}, fmt.Errorf("league %q not found", s.LeagueID)
	}
	if !s.EndDate.IsZero() && s.EndDate.Before(s.StartDate) {
		return Season{}, errors.New("season end date precedes start date")
	}
	s.CreatedAt = tx.now
	s.UpdatedAt = tx.now
	s.GameIDs = nil
	tx.state.seasons[s.ID] = cloneSeason(s)
	created := decorateSeason(&tx.state, s)
	tx.recordChange(Change{Entity: domain.EntitySeason, Action: domain.ActionCreate, After: cloneSeason(created)})
	return cloneSeason(created), nil
}

// UpdateSeason mutates an existing season.
func (tx *transaction) UpdateSeason(id string, mutator func(*Season) error) (Season, error) {
	current, ok := tx.state.seasons[id]
	if !ok {
		return Season{}, fmt.Errorf("season %q not found", id)
	}
	beforeDecorated := decorateSeason(&tx.state, current)
	before := cloneSeason(beforeDecorated)
	if err := mutator(&current); err != nil {
		return Season{}, err
	}
	if current.LeagueID == "" {
		return Season{}, errors.New("season requires league id")
	}
	if _, ok := tx.state.leagues[current.LeagueID]; !ok {
		return Season{}, fmt.Errorf("league %q not found", current.LeagueID)
	}
	if !current.EndDate.IsZero() && current.EndDate.Before(current.StartDate) {
		return Season{}, errors.New("season end date precedes start date")
	}
	current.GameIDs = nil
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.seasons[id] = cloneSeason(current)
	afterDecorated := decorateSeason(&tx.state, current)
	tx.recordChange(Change{Entity: domain.EntitySeason, Action: domain.ActionUpdate, Before: before, After: cloneSeason(afterDecorated)})
	return cloneSeason(afterDecorated), nil
}

// DeleteSeason removes a season from state.
func (tx *transaction) DeleteSeason(id string) error {
	current, ok := tx.state.seasons[id]
	if !ok {
		return fmt.Errorf("season %q not found", id)
	}
	decoratedCurrent := decorateSeason(&tx.state, current)
	for _, game := range tx.state.games {
		if game.SeasonID == id {
			return fmt.Errorf("season %q still referenced by game %q", id, game.ID)
		}
	}
	delete(tx.state.seasons, id)
	tx.recordChange(Change{Entity: domain.EntitySeason, Action: domain.ActionDelete, Before: cloneSeason(decoratedCurrent)})
	return nil
}

// CreateTeam stores a new team record.
func (tx *transaction) CreateTeam(t Team) (Team, error) {
	if t.ID == "" {
		t.ID = tx.store.newID()
	}
	if _, exists := tx.state.teams[t.ID]; exists {
		return Team{}, fmt.Errorf("team %q already exists", t.ID)
	}
	if t.LeagueID == "" {
		return Team{}, errors.New("team requires league id")
	}
	if _, ok := tx.state.leagues[t.LeagueID]; !ok {
		return Team{}, fmt.Errorf("league %q not found", t.LeagueID)
	}
	if t.VenueID != nil {
		if _, ok := tx.state.venues[*t.VenueID]; !ok {
			return Team{}, fmt.Errorf("venue %q not found", *t.VenueID)
		}
	}
	if t.RosterLimit < 0 {
		return Team{}, errors.New("team roster limit cannot be negative")
	}
	t.CreatedAt = tx.now
	t.UpdatedAt = tx.now
	t.PlayerIDs = nil
	tx.state.teams[t.ID] = cloneTeam(t)
	created := decorateTeam(&tx.state, t)
	tx.recordChange(Change{Entity: domain.EntityTeam, Action: domain.ActionCreate, After: cloneTeam(created)})
	return cloneTeam(created), nil
}

// UpdateTeam mutates an existing team.
func (tx *transaction) UpdateTeam(id string, mutator func(*Team) error) (Team, error) {
	current, ok := tx.state.teams[id]
	if !ok {
		return Team{}, fmt.Errorf("team %q not found", id)
	}
	beforeDecorated := decorateTeam(&tx.state, current)
	before := cloneTeam(beforeDecorated)
	if err := mutator(&current); err != nil {
		return Team{}, err
	}
	if current.LeagueID == "" {
		return Team{}, errors.New("team requires league id")
	}
	if _, ok := tx.state.leagues[current.LeagueID]; !ok {
		return Team{}, fmt.Errorf("league %q not found", current.LeagueID)
	}
	if current.VenueID != nil {
		if _, ok := tx.state.venues[*current.VenueID]; !ok {
			return Team{}, fmt.Errorf("venue %q not found", *current.VenueID)
		}
	}
	if current.RosterLimit < 0 {
		return Team{}, errors.New("team roster limit cannot be negative")
	}
	current.PlayerIDs = nil
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.teams[id] = cloneTeam(current)
	afterDecorated := decorateTeam(&tx.state, current)
	tx.recordChange(Change{Entity: domain.EntityTeam, Action: domain.ActionUpdate, Before: before, After: cloneTeam(afterDecorated)})
	return cloneTeam(afterDecorated), nil
}

// DeleteTeam removes a team from state.
func (tx *transaction) DeleteTeam(id string) error {
	current, ok := tx.state.teams[id]
	if !ok {
		return fmt.Errorf("team %q not found", id)
	}
	decoratedCurrent := decorateTeam(&tx.state, current)
	for _, player := range tx.state.players {
		if player.TeamID != nil && *player.TeamID == id {
			return fmt.Errorf("team %q still referenced by player %q", id, player.ID)
		}
	}
	for _, game := range tx.state.games {
		if game.HomeTeamID == id || game.AwayTeamID == id {
			return fmt.Errorf("team %q still referenced by game %q", id, game.ID)
		}
	}
	delete(tx.state.teams, id)
	tx.recordChange(Change{Entity: domain.EntityTeam, Action: domain.ActionDelete, Before: cloneTeam(decoratedCurrent)})
	return nil
}

// CreatePlayer stores a new player record.
func (tx *transaction) CreatePlayer(p Player) (Player, error) {
	if p.ID == "" {
		p.ID = tx.store.newID()
	}
	if _, exists := tx.state.players[p.ID]; exists {
		return Player{}, fmt.Errorf("player %q already exists", p.ID)
	}
	if p.Status == "" {
		p.Status = domain.PlayerStatusActive
	}
	if p.TeamID != nil {
		if _, ok := tx.state.teams[*p.TeamID]; !ok {
			return Player{}, fmt.Errorf("team %q not found", *p.TeamID)
		}
	}
	if p.JerseyNumber != nil && *p.JerseyNumber < 0 {
		return Player{}, errors.New("player jersey number cannot be negative")
	}
	p.CreatedAt = tx.now
	p.UpdatedAt = tx.now
	tx.state.players[p.ID] = clonePlayer(p)
	tx.recordChange(Change{Entity: domain.EntityPlayer, Action: domain.ActionCreate, After: clonePlayer(p)})
	return clonePlayer(p), nil
}

// UpdatePlayer mutates an existing player.
func (tx *transaction) UpdatePlayer(id string, mutator func(*Player) error) (Player, error) {
	current, ok := tx.state.players[id]
	if !ok {
		return Player{}, fmt.Errorf("player %q not found", id)
	}
	before := clonePlayer(current)
	if err := mutator(&current); err != nil {
		return Player{}, err
	}
	if current.Status == "" {
		current.Status = domain.PlayerStatusActive
	}
	if current.TeamID != nil {
		if _, ok := tx.state.teams[*current.TeamID]; !ok {
			return Player{}, fmt.Errorf("team %q not found", *current.TeamID)
		}
	}
	if current.JerseyNumber != nil && *current.JerseyNumber < 0 {
		return Player{}, errors.New("player jersey number cannot be negative")
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.players[id] = clonePlayer(current)
	tx.recordChange(Change{Entity: domain.EntityPlayer, Action: domain.ActionUpdate, Before: before, After: clonePlayer(current)})
	return clonePlayer(current), nil
}

// DeletePlayer removes a player from state.
func (tx *transaction) DeletePlayer(id string) error {
	current, ok := tx.state.players[id]
	if !ok {
		return fmt.Errorf("player %q not found", id)
	}
	delete(tx.state.players, id)
	tx.recordChange(Change{Entity: domain.EntityPlayer, Action: domain.ActionDelete, Before: clonePlayer(current)})
	return nil
}

// CreateGame stores a new game record.
func (tx *transaction) CreateGame(g Game) (Game, error) {
	if g.ID == "" {
		g.ID = tx.store.newID()
	}
	if _, exists := tx.state.games[g.ID]; exists {
		return Game{}, fmt.Errorf("game %q already exists", g.ID)
	}
	if g.SeasonID == "" {
		return Game{}, errors.New("game requires season id")
	}
	if _, ok := tx.state.seasons[g.SeasonID]; !ok {
		return Game{}, fmt.Errorf("season %q not found", g.SeasonID)
	}
	if g.HomeTeamID == "" || g.AwayTeamID == "" {
		return Game{}, errors.New("game requires home and away team ids")
	}
	if g.HomeTeamID == g.AwayTeamID {
		return Game{}, errors.New("game home and away teams must differ")
	}
	if _, ok := tx.state.teams[g.HomeTeamID]; !ok {
		return Game{}, fmt.Errorf("team %q not found", g.HomeTeamID)
	}
	if _, ok := tx.state.teams[g.AwayTeamID]; !ok {
		return Game{}, fmt.Errorf("team %q not found", g.AwayTeamID)
	}
	if g.VenueID != nil {
		if _, ok := tx.state.venues[*g.VenueID]; !ok {
			return Game{}, fmt.Errorf("venue %q not found", *g.VenueID)
		}
	}
	if g.Status == "" {
		g.Status = domain.GameStatusScheduled
	}
	g.CreatedAt = tx.now
	g.UpdatedAt = tx.now
	tx.state.games[g.ID] = cloneGame(g)
	tx.recordChange(Change{Entity: domain.EntityGame, Action: domain.ActionCreate, After: cloneGame(g)})
	return cloneGame(g), nil
}

// UpdateGame mutates an existing game.
func (tx *transaction) UpdateGame(id string, mutator func(*Game) error) (Game, error) {
	current, ok := tx.state.games[id]
	if !ok {
		return Game{}, fmt.Errorf("game %q not found", id)
	}
	before := cloneGame(current)
	if err := mutator(&current); err != nil {
		return Game{}, err
	}
	if current.SeasonID == "" {
		return Game{}, errors.New("game requires season id")
	}
	if _, ok := tx.state.seasons[current.SeasonID]; !ok {
		return Game{}, fmt.Errorf("season %q not found", current.SeasonID)
	}
	if current.HomeTeamID == current.AwayTeamID {
		return Game{}, errors.New("game home and away teams must differ")
	}
	if _, ok := tx.state.teams[current.HomeTeamID]; !ok {
		return Game{}, fmt.Errorf("team %q not found", current.HomeTeamID)
	}
	if _, ok := tx.state.teams[current.AwayTeamID]; !ok {
		return Game{}, fmt.Errorf("team %q not found", current.AwayTeamID)
	}
	if current.VenueID != nil {
		if _, ok := tx.state.venues[*current.VenueID]; !ok {
			return Game{}, fmt.Errorf("venue %q not found", *current.VenueID)
		}
	}
	if current.Status == "" {
		current.Status = domain.GameStatusScheduled
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.games[id] = cloneGame(current)
	tx.recordChange(Change{Entity: domain.EntityGame, Action: domain.ActionUpdate, Before: before, After: cloneGame(current)})
	return cloneGame(current), nil
}

// DeleteGame removes a game from state.
func (tx *transaction) DeleteGame(id string) error {
	current, ok := tx.state.games[id]
	if !ok {
		return fmt.Errorf("game %q not found", id)
	}
	delete(tx.state.games, id)
	tx.recordChange(Change{Entity: domain.EntityGame, Action: domain.ActionDelete, Before: cloneGame(current)})
	return nil
}

// CreateVenue stores a new venue record.
func (tx *transaction) CreateVenue(v Venue) (Venue, error) {
	if v.ID == "" {
		v.ID = tx.store.newID()
	}
	if _, exists := tx.state.venues[v.ID]; exists {
		return Venue{}, fmt.Errorf("venue %q already exists", v.ID)
	}
	if v.Name == "" {
		return Venue{}, errors.New("venue requires a name")
	}
	if v.Capacity < 0 {
		return Venue{}, errors.New("venue capacity cannot be negative")
	}
	v.CreatedAt = tx.now
	v.UpdatedAt = tx.now
	v.HomeTeamIDs = nil
	tx.state.venues[v.ID] = cloneVenue(v)
	created := decorateVenue(&tx.state, v)
	tx.recordChange(Change{Entity: domain.EntityVenue, Action: domain.ActionCreate, After: cloneVenue(created)})
	return cloneVenue(created), nil
}

// UpdateVenue mutates an existing venue.
func (tx *transaction) UpdateVenue(id string, mutator func(*Venue) error) (Venue, error) {
	current, ok := tx.state.venues[id]
	if !ok {
		return Venue{}, fmt.Errorf("venue %q not found", id)
	}
	beforeDecorated := decorateVenue(&tx.state, current)
	before := cloneVenue(beforeDecorated)
	if err := mutator(&current); err != nil {
		return Venue{}, err
	}
	if current.Name == "" {
		return Venue{}, errors.New("venue requires a name")
	}
	if current.Capacity < 0 {
		return Venue{}, errors.New("venue capacity cannot be negative")
	}
	current.HomeTeamIDs = nil
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.venues[id] = cloneVenue(current)
	afterDecorated := decorateVenue(&tx.state, current)
	tx.recordChange(Change{Entity: domain.EntityVenue, Action: domain.ActionUpdate, Before: before, After: cloneVenue(afterDecorated)})
	return cloneVenue(afterDecorated), nil
}

// DeleteVenue removes a venue from state.
func (tx *transaction) DeleteVenue(id string) error {
	current, ok := tx.state.venues[id]
	if !ok {
		return fmt.Errorf("venue %q not found", id)
	}
	decoratedCurrent := decorateVenue(&tx.state, current)
	for _, team := range tx.state.teams {
		if team.VenueID != nil && *team.VenueID == id {
			return fmt.Errorf("venue %q still referenced by team %q", id, team.ID)
		}
	}
	for _, game := range tx.state.games {
		if game.VenueID != nil && *game.VenueID == id {
			return fmt.Errorf("venue %q still referenced by game %q", id, game.ID)
		}
	}
	delete(tx.state.venues, id)
	tx.recordChange(Change{Entity: domain.EntityVenue, Action: domain.ActionDelete, Before: cloneVenue(decoratedCurrent)})
	return nil
}

// Read helpers ---------------------------------------------------------------

// GetLeague retrieves a league by ID from committed state.
func (s *Store) GetLeague(id string) (League, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.state.leagues[id]
	if !ok {
		return League{}, false
	}
	return cloneLeague(decorateLeague(&s.state, l)), true
}

// ListLeagues returns all leagues from committed state.
func (s *Store) ListLeagues() []League {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]League, 0, len(s.state.leagues))
	for _, l := range s.state.leagues {
		out = append(out, cloneLeague(decorateLeague(&s.state, l)))
	}
	return out
}

// GetSeason retrieves a season by ID.
func (s *Store) GetSeason(id string) (Season, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sn, ok := s.state.seasons[id]
	if !ok {
		return Season{}, false
	}
	return cloneSeason(decorateSeason(&s.state, sn)), true
}

// ListSeasons returns all seasons.
func (s *Store) ListSeasons() []Season {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Season, 0, len(s.state.seasons))
	for _, sn := range s.state.seasons {
		out = append(out, cloneSeason(decorateSeason(&s.state, sn)))
	}
	return out
}

// GetTeam retrieves a team by ID.
func (s *Store) GetTeam(id string) (Team, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.state.teams[id]
	if !ok {
		return Team{}, false
	}
	return cloneTeam(decorateTeam(&s.state, t)), true
}

// ListTeams returns all teams.
func (s *Store) ListTeams() []Team {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Team, 0, len(s.state.teams))
	for _, t := range s.state.teams {
		out = append(out, cloneTeam(decorateTeam(&s.state, t)))
	}
	return out
}

// GetPlayer retrieves a player by ID.
func (s *Store) GetPlayer(id string) (Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.players[id]
	if !ok {
		return Player{}, false
	}
	return clonePlayer(p), true
}

// ListPlayers returns all players.
func (s *Store) ListPlayers() []Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Player, 0, len(s.state.players))
	for _, p := range s.state.players {
		out = append(out, clonePlayer(p))
	}
	return out
}

// GetGame retrieves a game by ID.
func (s *Store) GetGame(id string) (Game, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.state.games[id]
	if !ok {
		return Game{}, false
	}
	return cloneGame(g), true
}

// ListGames returns all games.
func (s *Store) ListGames() []Game {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Game, 0, len(s.state.games))
	for _, g := range s.state.games {
		out = append(out, cloneGame(g))
	}
	return out
}

// GetVenue retrieves a venue by ID.
func (s *Store) GetVenue(id string) (Venue, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.state.venues[id]
	if !ok {
		return Venue{}, false
	}
	return cloneVenue(decorateVenue(&s.state, v)), true
}

// ListVenues returns all venues.
func (s *Store) ListVenues() []Venue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Venue, 0, len(s.state.venues))
	for _, v := range s.state.venues {
		out = append(out, cloneVenue(decorateVenue(&s.state, v)))
	}
	return out
}

package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rostercore/internal/infra/persistence/memory"
	"rostercore/pkg/domain"
)

// Service exposes higher-level transactional CRUD operations for the core
// schema. Every mutating operation runs inside a store transaction, is
// evaluated against the rules engine, and is reported to the configured
// logger, audit recorder, metrics recorder, and tracer.
type Service struct {
	store domain.PersistentStore
	opts  serviceOptions
	nowFn func() time.Time
}

// NewService constructs a service backed by the supplied store.
func NewService(store domain.PersistentStore, opts ...Option) *Service {
	options := defaultServiceOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &Service{
		store: store,
		opts:  options,
		nowFn: selectNowFunc(store, options.clock),
	}
}

// NewInMemoryService creates a service and in-memory store with the given rules engine.
func NewInMemoryService(engine *RulesEngine, opts ...Option) *Service {
	return NewService(NewMemoryStore(engine), opts...)
}

// NewMemoryStore constructs the canonical in-memory persistent store.
func NewMemoryStore(engine *RulesEngine) *memory.Store {
	return memory.NewStore(engine)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() domain.PersistentStore {
	return s.store
}

// RulesEngine returns the engine evaluated by the backing store, or nil when
// the store does not expose one.
func (s *Service) RulesEngine() *RulesEngine {
	return extractRulesEngine(s.store)
}

type operationMetadata struct {
	entity EntityType
	action Action
}

var operationCatalog = map[string]operationMetadata{
	"create_league":      {entity: EntityLeague, action: ActionCreate},
	"update_league":      {entity: EntityLeague, action: ActionUpdate},
	"delete_league":      {entity: EntityLeague, action: ActionDelete},
	"create_season":      {entity: EntitySeason, action: ActionCreate},
	"update_season":      {entity: EntitySeason, action: ActionUpdate},
	"delete_season":      {entity: EntitySeason, action: ActionDelete},
	"create_team":        {entity: EntityTeam, action: ActionCreate},
	"update_team":        {entity: EntityTeam, action: ActionUpdate},
	"delete_team":        {entity: EntityTeam, action: ActionDelete},
	"create_player":      {entity: EntityPlayer, action: ActionCreate},
	"update_player":      {entity: EntityPlayer, action: ActionUpdate},
	"delete_player":      {entity: EntityPlayer, action: ActionDelete},
	"create_game":        {entity: EntityGame, action: ActionCreate},
	"update_game":        {entity: EntityGame, action: ActionUpdate},
	"delete_game":        {entity: EntityGame, action: ActionDelete},
	"create_venue":       {entity: EntityVenue, action: ActionCreate},
	"update_venue":       {entity: EntityVenue, action: ActionUpdate},
	"delete_venue":       {entity: EntityVenue, action: ActionDelete},
	"assign_player_team": {entity: EntityPlayer, action: ActionUpdate},
	"assign_team_venue":  {entity: EntityTeam, action: ActionUpdate},
	"record_game_result": {entity: EntityGame, action: ActionUpdate},
}

// run executes fn in a store transaction under the operation's span, records
// metrics, and emits an audit failure entry when the transaction errors.
// Successful operations record their audit entry at the call site, once the
// resulting entity ID is known.
func (s *Service) run(ctx context.Context, op, entityID string, fn func(tx domain.Transaction) error) (Result, time.Duration, error) {
	start := s.nowFn()
	opCtx, span := s.opts.tracer.Start(ctx, op)
	s.opts.logger.Debug("operation started", "operation", op, "entity_id", entityID)

	res, err := s.store.RunInTransaction(opCtx, fn)
	duration := s.nowFn().Sub(start)

	s.opts.metrics.Observe(opCtx, op, err == nil, duration)
	span.End(err)
	if err != nil {
		s.recordAuditFailure(opCtx, op, entityID, err, duration)
		s.opts.logger.Error("operation failed", "operation", op, "entity_id", entityID, "error", err)
		return res, duration, err
	}
	if len(res.Violations) > 0 {
		s.opts.logger.Warn("operation committed with violations", "operation", op, "violations", len(res.Violations))
	}
	return res, duration, nil
}

func (s *Service) recordAuditSuccess(ctx context.Context, op, entityID string, duration time.Duration) {
	meta, ok := operationCatalog[op]
	if !ok {
		return
	}
	s.opts.audit.Record(ctx, AuditEntry{
		Operation: op,
		Entity:    meta.entity,
		Action:    meta.action,
		EntityID:  entityID,
		Status:    AuditStatusSuccess,
		Duration:  duration,
		Timestamp: s.nowFn(),
	})
}

func (s *Service) recordAuditFailure(ctx context.Context, op, entityID string, opErr error, duration time.Duration) {
	meta, ok := operationCatalog[op]
	if !ok {
		return
	}
	entry := AuditEntry{
		Operation: op,
		Entity:    meta.entity,
		Action:    meta.action,
		EntityID:  entityID,
		Status:    AuditStatusError,
		Duration:  duration,
		Timestamp: s.nowFn(),
	}
	if opErr != nil {
		entry.Error = opErr.Error()
	}
	s.opts.audit.Record(ctx, entry)
}

// CreateLeague persists a new league.
func (s *Service) CreateLeague(ctx context.Context, league League) (League, Result, error) {
	var created League
	res, duration, err := s.run(ctx, "create_league", "", func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateLeague(league)
		return err
	})
	if err != nil {
		return League{}, res, err
	}
	s.recordAuditSuccess(ctx, "create_league", created.ID, duration)
	return created, res, nil
}

// UpdateLeague mutates a league using the provided mutator.
func (s *Service) UpdateLeague(ctx context.Context, id string, mutator func(*League) error) (League, Result, error) {
	var updated League
	res, duration, err := s.run(ctx, "update_league", id, func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateLeague(id, mutator)
		return err
	})
	if err != nil {
		return League{}, res, err
	}
	s.recordAuditSuccess(ctx, "update_league", updated.ID, duration)
	return updated, res, nil
}

// DeleteLeague removes a league record.
func (s *Service) DeleteLeague(ctx context.Context, id string) (Result, error) {
	res, duration, err := s.run(ctx, "delete_league", id, func(tx domain.Transaction) error {
		return tx.DeleteLeague(id)
	})
	if err != nil {
		return res, err
	}
	s.recordAuditSuccess(ctx, "delete_league", id, duration)
	return res, nil
}

// CreateSeason persists a new season.
func (s *Service) CreateSeason(ctx context.Context, season Season) (Season, Result, error) {
	var created Season
	res, duration, err := s.run(ctx, "create_season", "", func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateSeason(season)
		return err
	})
	if err != nil {
		return Season{}, res, err
	}
	s.recordAuditSuccess(ctx, "create_season", created.ID, duration)
	return created, res, nil
}

// UpdateSeason mutates a season.
func (s *Service) UpdateSeason(ctx context.Context, id string, mutator func(*Season) error) (Season, Result, error) {
	var updated Season
	res, duration, err := s.run(ctx, "update_season", id, func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateSeason(id, mutator)
		return err
	})
	if err != nil {
		return Season{}, res, err
	}
	s.recordAuditSuccess(ctx, "update_season", updated.ID, duration)
	return updated, res, nil
}

// DeleteSeason removes a season record.
func (s *Service) DeleteSeason(ctx context.Context, id string) (Result, error) {
	res, duration, err := s.run(ctx, "delete_season", id, func(tx domain.Transaction) error {
		return tx.DeleteSeason(id)
	})
	if err != nil {
		return res, err
	}
	s.recordAuditSuccess(ctx, "delete_season", id, duration)
	return res, nil
}

// CreateTeam persists a new team.
func (s *Service) CreateTeam(ctx context.Context, team Team) (Team, Result, error) {
	var created Team
	res, duration, err := s.run(ctx, "create_team", "", func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateTeam(team)
		return err
	})
	if err != nil {
		return Team{}, res, err
	}
	s.recordAuditSuccess(ctx, "create_team", created.ID, duration)
	return created, res, nil
}

// UpdateTeam mutates a team.
func (s *Service) UpdateTeam(ctx context.Context, id string, mutator func(*Team) error) (Team, Result, error) {
	var updated Team
	res, duration, err := s.run(ctx, "update_team", id, func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateTeam(id, mutator)
		return err
	})
	if err != nil {
		return Team{}, res, err
	}
	s.recordAuditSuccess(ctx, "update_team", updated.ID, duration)
	return updated, res, nil
}

// DeleteTeam removes a team record.
func (s *Service) DeleteTeam(ctx context.Context, id string) (Result, error) {
	res, duration, err := s.run(ctx, "delete_team", id, func(tx domain.Transaction) error {
		return tx.DeleteTeam(id)
	})
	if err != nil {
		return res, err
	}
	s.recordAuditSuccess(ctx, "delete_team", id, duration)
	return res, nil
}

// CreatePlayer persists a new player.
func (s *Service) CreatePlayer(ctx context.Context, player Player) (Player, Result, error) {
	var created Player
	res, duration, err := s.run(ctx, "create_player", "", func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreatePlayer(player)
		return err
	})
	if err != nil {
		return Player{}, res, err
	}
	s.recordAuditSuccess(ctx, "create_player", created.ID, duration)
	return created, res, nil
}

// UpdatePlayer mutates a player.
func (s *Service) UpdatePlayer(ctx context.Context, id string, mutator func(*Player) error) (Player, Result, error) {
	var updated Player
	res, duration, err := s.run(ctx, "update_player", id, func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdatePlayer(id, mutator)
		return err
	})
	if err != nil {
		return Player{}, res, err
	}
	s.recordAuditSuccess(ctx, "update_player", updated.ID, duration)
	return updated, res, nil
}

// DeletePlayer removes a player record.
func (s *Service) DeletePlayer(ctx context.Context, id string) (Result, error) {
	res, duration, err := s.run(ctx, "delete_player", id, func(tx domain.Transaction) error {
		return tx.DeletePlayer(id)
	})
	if err != nil {
		return res, err
	}
	s.recordAuditSuccess(ctx, "delete_player", id, duration)
	return res, nil
}

// CreateGame persists a new game.
func (s *Service) CreateGame(ctx context.Context, game Game) (Game, Result, error) {
	var created Game
	res, duration, err := s.run(ctx, "create_game", "", func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateGame(game)
		return err
	})
	if err != nil {
		return Game{}, res, err
	}
	s.recordAuditSuccess(ctx, "create_game", created.ID, duration)
	return created, res, nil
}

// UpdateGame mutates a game.
func (s *Service) UpdateGame(ctx context.Context, id string, mutator func(*Game) error) (Game, Result, error) {
	var updated Game
	res, duration, err := s.run(ctx, "update_game", id, func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateGame(id, mutator)
		return err
	})
	if err != nil {
		return Game{}, res, err
	}
	s.recordAuditSuccess(ctx, "update_game", updated.ID, duration)
	return updated, res, nil
}

// DeleteGame removes a game record.
func (s *Service) DeleteGame(ctx context.Context, id string) (Result, error) {
	res, duration, err := s.run(ctx, "delete_game", id, func(tx domain.Transaction) error {
		return tx.DeleteGame(id)
	})
	if err != nil {
		return res, err
	}
	s.recordAuditSuccess(ctx, "delete_game", id, duration)
	return res, nil
}

// CreateVenue persists a new venue.
func (s *Service) CreateVenue(ctx context.Context, venue Venue) (Venue, Result, error) {
	var created Venue
	res, duration, err := s.run(ctx, "create_venue", "", func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateVenue(venue)
		return err
	})
	if err != nil {
		return Venue{}, res, err
	}
	s.recordAuditSuccess(ctx, "create_venue", created.ID, duration)
	return created, res, nil
}

// UpdateVenue mutates a venue.
func (s *Service) UpdateVenue(ctx context.Context, id string, mutator func(*Venue) error) (Venue, Result, error) {
	var updated Venue
	res, duration, err := s.run(ctx, "update_venue", id, func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateVenue(id, mutator)
		return err
	})
	if err != nil {
		return Venue{}, res, err
	}
	s.recordAuditSuccess(ctx, "update_venue", updated.ID, duration)
	return updated, res, nil
}

// DeleteVenue removes a venue record.
func (s *Service) DeleteVenue(ctx context.Context, id string) (Result, error) {
	res, duration, err := s.run(ctx, "delete_venue", id, func(tx domain.Transaction) error {
		return tx.DeleteVenue(id)
	})
	if err != nil {
		return res, err
	}
	s.recordAuditSuccess(ctx, "delete_venue", id, duration)
	return res, nil
}

// AssignPlayerTeam moves a player onto a team within a transaction that
// validates the team reference.
func (s *Service) AssignPlayerTeam(ctx context.Context, playerID, teamID string) (Player, Result, error) {
	var updated Player
	res, duration, err := s.run(ctx, "assign_player_team", playerID, func(tx domain.Transaction) error {
		if _, ok := tx.FindTeam(teamID); !ok {
			return ErrNotFound{Entity: EntityTeam, ID: teamID}
		}
		var err error
		updated, err = tx.UpdatePlayer(playerID, func(p *Player) error {
			p.TeamID = &teamID
			return nil
		})
		return err
	})
	if err != nil {
		return Player{}, res, err
	}
	s.recordAuditSuccess(ctx, "assign_player_team", updated.ID, duration)
	return updated, res, nil
}

// AssignTeamVenue links a team to its home venue within the same transactional scope.
func (s *Service) AssignTeamVenue(ctx context.Context, teamID, venueID string) (Team, Result, error) {
	var updated Team
	res, duration, err := s.run(ctx, "assign_team_venue", teamID, func(tx domain.Transaction) error {
		if _, ok := tx.FindVenue(venueID); !ok {
			return ErrNotFound{Entity: EntityVenue, ID: venueID}
		}
		var err error
		updated, err = tx.UpdateTeam(teamID, func(t *Team) error {
			t.VenueID = &venueID
			return nil
		})
		return err
	})
	if err != nil {
		return Team{}, res, err
	}
	s.recordAuditSuccess(ctx, "assign_team_venue", updated.ID, duration)
	return updated, res, nil
}

// RecordGameResult finalizes a game with its score line.
func (s *Service) RecordGameResult(ctx context.Context, gameID string, homeScore, awayScore int) (Game, Result, error) {
	var updated Game
	res, duration, err := s.run(ctx, "record_game_result", gameID, func(tx domain.Transaction) error {
		if homeScore < 0 || awayScore < 0 {
			return fmt.Errorf("game %q scores cannot be negative", gameID)
		}
		var err error
		updated, err = tx.UpdateGame(gameID, func(g *Game) error {
			g.HomeScore = &homeScore
			g.AwayScore = &awayScore
			g.Status = GameStatusFinal
			return nil
		})
		return err
	})
	if err != nil {
		return Game{}, res, err
	}
	s.recordAuditSuccess(ctx, "record_game_result", updated.ID, duration)
	return updated, res, nil
}

// GetLeague returns a league by ID.
func (s *Service) GetLeague(id string) (League, bool) { return s.store.GetLeague(id) }

// ListLeagues returns all leagues.
func (s *Service) ListLeagues() []League { return s.store.ListLeagues() }

// GetSeason returns a season by ID.
func (s *Service) GetSeason(id string) (Season, bool) { return s.store.GetSeason(id) }

// ListSeasons returns all seasons.
func (s *Service) ListSeasons() []Season { return s.store.ListSeasons() }

// GetTeam returns a team by ID.
func (s *Service) GetTeam(id string) (Team, bool) { return s.store.GetTeam(id) }

// ListTeams returns all teams.
func (s *Service) ListTeams() []Team { return s.store.ListTeams() }

// GetPlayer returns a player by ID.
func (s *Service) GetPlayer(id string) (Player, bool) { return s.store.GetPlayer(id) }

// ListPlayers returns all players.
func (s *Service) ListPlayers() []Player { return s.store.ListPlayers() }

// GetGame returns a game by ID.
func (s *Service) GetGame(id string) (Game, bool) { return s.store.GetGame(id) }

// ListGames returns all games.
func (s *Service) ListGames() []Game { return s.store.ListGames() }

// GetVenue returns a venue by ID.
func (s *Service) GetVenue(id string) (Venue, bool) { return s.store.GetVenue(id) }

// ListVenues returns all venues.
func (s *Service) ListVenues() []Venue { return s.store.ListVenues() }

// ErrNotFound is returned when reference validation fails within transactional helpers.
type ErrNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// AsRuleViolation unwraps errors into a RuleViolationError when possible.
func AsRuleViolation(err error, target *domain.RuleViolationError) bool {
	return errors.As(err, target)
}

func extractRulesEngine(store domain.PersistentStore) *domain.RulesEngine {
	provider, ok := store.(interface{ RulesEngine() *domain.RulesEngine })
	if !ok {
		return nil
	}
	return provider.RulesEngine()
}

// selectNowFunc picks the clock for audit timestamps and durations. Stores
// that publish a NowFunc win so service time agrees with persisted records;
// otherwise the configured clock applies, then the system clock in UTC.
func selectNowFunc(store domain.PersistentStore, clock Clock) func() time.Time {
	if provider, ok := store.(interface{ NowFunc() func() time.Time }); ok {
		if fn := provider.NowFunc(); fn != nil {
			return func() time.Time { return fn().UTC() }
		}
	}
	if clock != nil {
		return clock.Now
	}
	return func() time.Time { return time.Now().UTC() }
}

package core

import (
	"context"
	"testing"
	"time"

	"rostercore/pkg/domain"
)

func TestClockFuncNowNilFallsBackToUTCTime(t *testing.T) {
	got := ClockFunc(nil).Now()
	if got.IsZero() {
		t.Fatal("expected non-zero time from nil ClockFunc")
	}
	if got.Location() != time.UTC {
		t.Fatalf("expected UTC location, got %s", got.Location())
	}
}

func TestClockFuncNowDelegatesToFunction(t *testing.T) {
	expected := time.Date(2026, 7, 4, 12, 34, 56, 0, time.FixedZone("offset", -5*3600))
	fn := ClockFunc(func() time.Time { return expected })
	got := fn.Now()
	if !got.Equal(expected.UTC()) {
		t.Fatalf("expected %s, got %s", expected.UTC(), got)
	}
	if got.Location() != time.UTC {
		t.Fatalf("expected UTC location, got %s", got.Location())
	}
}

func TestExtractRulesEngine(t *testing.T) {
	engine := domain.NewRulesEngine()
	store := NewMemoryStore(engine)
	if got := extractRulesEngine(store); got != engine {
		t.Fatalf("expected engine pointer, got %v", got)
	}
	if extractRulesEngine(&fakePersistentStore{}) != nil {
		t.Fatal("expected nil for stores without RulesEngine provider")
	}
}

func TestSelectNowFuncPrefersStoreProvider(t *testing.T) {
	expected := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("cet", 3600))
	store := &providerStore{
		fakePersistentStore: &fakePersistentStore{},
		engine:              domain.NewRulesEngine(),
		now:                 func() time.Time { return expected },
	}
	nowFn := selectNowFunc(store, ClockFunc(func() time.Time { return time.Unix(0, 0) }))
	if got := nowFn(); !got.Equal(expected.UTC()) {
		t.Fatalf("expected store now func to be used, got %s", got)
	}
}

func TestSelectNowFuncFallsBackToClock(t *testing.T) {
	expected := time.Date(2030, 5, 6, 7, 8, 9, 0, time.UTC)
	clock := ClockFunc(func() time.Time { return expected })
	store := &providerStore{
		fakePersistentStore: &fakePersistentStore{},
		engine:              domain.NewRulesEngine(),
	}
	nowFn := selectNowFunc(store, clock)
	if got := nowFn(); !got.Equal(expected) {
		t.Fatalf("expected clock fallback, got %s", got)
	}
}

func TestSelectNowFuncDefaultsToSystemUTC(t *testing.T) {
	store := &fakePersistentStore{}
	nowFn := selectNowFunc(store, nil)
	got := nowFn()
	if got.Location() != time.UTC {
		t.Fatalf("expected UTC time, got %s", got.Location())
	}
	if time.Since(got) > time.Second || time.Since(got) < -time.Second {
		t.Fatalf("expected near-current time, got %s", got)
	}
}

type providerStore struct {
	*fakePersistentStore
	engine *domain.RulesEngine
	now    func() time.Time
}

func (p *providerStore) RulesEngine() *domain.RulesEngine { return p.engine }

func (p *providerStore) NowFunc() func() time.Time { return p.now }

type fakePersistentStore struct {
	leagues []domain.League
	seasons []domain.Season
	teams   []domain.Team
	players []domain.Player
	games   []domain.Game
	venues  []domain.Venue
}

func (f *fakePersistentStore) RunInTransaction(context.Context, func(domain.Transaction) error) (domain.Result, error) {
	return domain.Result{}, nil
}

func (f *fakePersistentStore) View(_ context.Context, fn func(domain.TransactionView) error) error {
	if fn == nil {
		return nil
	}
	return fn(fakeTransactionView{store: f})
}

func (f *fakePersistentStore) GetLeague(id string) (domain.League, bool) {
	for _, league := range f.leagues {
		if league.ID == id {
			return league, true
		}
	}
	return domain.League{}, false
}

func (f *fakePersistentStore) ListLeagues() []domain.League {
	return append([]domain.League(nil), f.leagues...)
}

func (f *fakePersistentStore) GetSeason(id string) (domain.Season, bool) {
	for _, season := range f.seasons {
		if season.ID == id {
			return season, true
		}
	}
	return domain.Season{}, false
}

func (f *fakePersistentStore) ListSeasons() []domain.Season {
	return append([]domain.Season(nil), f.seasons...)
}

func (f *fakePersistentStore) GetTeam(id string) (domain.Team, bool) {
	for _, team := range f.teams {
		if team.ID == id {
			return team, true
		}
	}
	return domain.Team{}, false
}

func (f *fakePersistentStore) ListTeams() []domain.Team {
	return append([]domain.Team(nil), f.teams...)
}

func (f *fakePersistentStore) GetPlayer(id string) (domain.Player, bool) {
	for _, player := range f.players {
		if player.ID == id {
			return player, true
		}
	}
	return domain.Player{}, false
}

func (f *fakePersistentStore) ListPlayers() []domain.Player {
	return append([]domain.Player(nil), f.players...)
}

func (f *fakePersistentStore) GetGame(id string) (domain.Game, bool) {
	for _, game := range f.games {
		if game.ID == id {
			return game, true
		}
	}
	return domain.Game{}, false
}

func (f *fakePersistentStore) ListGames() []domain.Game {
	return append([]domain.Game(nil), f.games...)
}

func (f *fakePersistentStore) GetVenue(id string) (domain.Venue, bool) {
	for _, venue := range f.venues {
		if venue.ID == id {
			return venue, true
		}
	}
	return domain.Venue{}, false
}

func (f *fakePersistentStore) ListVenues() []domain.Venue {
	return append([]domain.Venue(nil), f.venues...)
}

type fakeTransactionView struct {
	store *fakePersistentStore
}

func (v fakeTransactionView) ListLeagues() []domain.League { return v.store.ListLeagues() }
func (v fakeTransactionView) ListSeasons() []domain.Season { return v.store.ListSeasons() }
func (v fakeTransactionView) ListTeams() []domain.Team     { return v.store.ListTeams() }
func (v fakeTransactionView) ListPlayers() []domain.Player { return v.store.ListPlayers() }
func (v fakeTransactionView) ListGames() []domain.Game     { return v.store.ListGames() }
func (v fakeTransactionView) ListVenues() []domain.Venue   { return v.store.ListVenues() }

func (v fakeTransactionView) FindLeague(id string) (domain.League, bool) { return v.store.GetLeague(id) }
func (v fakeTransactionView) FindSeason(id string) (domain.Season, bool) { return v.store.GetSeason(id) }
func (v fakeTransactionView) FindTeam(id string) (domain.Team, bool)     { return v.store.GetTeam(id) }
func (v fakeTransactionView) FindPlayer(id string) (domain.Player, bool) { return v.store.GetPlayer(id) }
func (v fakeTransactionView) FindGame(id string) (domain.Game, bool)     { return v.store.GetGame(id) }
func (v fakeTransactionView) FindVenue(id string) (domain.Venue, bool)   { return v.store.GetVenue(id) }

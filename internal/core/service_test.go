package core_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"rostercore/internal/core"
	"rostercore/pkg/domain"
)

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func seedLeague(t *testing.T, svc *core.Service) domain.League {
	t.Helper()
	league, _, err := svc.CreateLeague(context.Background(), domain.League{Code: "NBL", Name: "National Basketball League", Sport: "basketball"})
	if err != nil {
		t.Fatalf("create league: %v", err)
	}
	return league
}

func TestCreateTeamRejectsUnknownLeague(t *testing.T) {
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine())
	ctx := context.Background()

	// Reference existence fails inside the store before rules run.
	_, _, err := svc.CreateTeam(ctx, domain.Team{Code: "LAK", Name: "Lakers", LeagueID: "missing-league"})
	if err == nil {
		t.Fatalf("expected error creating team with unknown league")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected lookup failure, got %v", err)
	}
	if teams := svc.ListTeams(); len(teams) != 0 {
		t.Fatalf("failed create must not commit, got %d teams", len(teams))
	}

	league := seedLeague(t, svc)
	team, res, err := svc.CreateTeam(ctx, domain.Team{Code: "LAK", Name: "Lakers", LeagueID: league.ID})
	if err != nil {
		t.Fatalf("create team with valid league: %v", err)
	}
	if len(res.Violations) != 0 {
		t.Fatalf("unexpected violations: %+v", res.Violations)
	}
	if team.ID == "" {
		t.Fatalf("expected team ID to be assigned")
	}
}

func TestRequiredFieldsRuleBlocksIncompleteCreate(t *testing.T) {
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine())
	ctx := context.Background()

	league := seedLeague(t, svc)
	_, _, err := svc.CreateTeam(ctx, domain.Team{LeagueID: league.ID})
	if err == nil {
		t.Fatalf("expected error creating team without code and name")
	}
	var violationErr domain.RuleViolationError
	if !core.AsRuleViolation(err, &violationErr) {
		t.Fatalf("expected rule violation error, got %T: %v", err, err)
	}
	if !violationErr.Result.HasBlocking() {
		t.Fatalf("expected blocking violation")
	}
	missing := map[string]bool{}
	for _, v := range violationErr.Result.Violations {
		if v.Rule != "required_fields" {
			t.Fatalf("unexpected rule %s", v.Rule)
		}
		if strings.Contains(v.Message, "code") {
			missing["code"] = true
		}
		if strings.Contains(v.Message, "name") {
			missing["name"] = true
		}
	}
	if !missing["code"] || !missing["name"] {
		t.Fatalf("expected violations for code and name, got %+v", violationErr.Result.Violations)
	}
	if teams := svc.ListTeams(); len(teams) != 0 {
		t.Fatalf("blocked create must not commit")
	}
}

func TestRosterCapacityRuleBlocksOverLimit(t *testing.T) {
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine())
	ctx := context.Background()

	league := seedLeague(t, svc)
	team, _, err := svc.CreateTeam(ctx, domain.Team{Code: "CEL", Name: "Celtics", LeagueID: league.ID, RosterLimit: 1})
	if err != nil {
		t.Fatalf("create team: %v", err)
	}

	playerA, res, err := svc.CreatePlayer(ctx, domain.Player{Name: "Player A", Position: "guard", Status: domain.PlayerStatusActive})
	if err != nil {
		t.Fatalf("create player A: %v", err)
	}
	if len(res.Violations) != 0 {
		t.Fatalf("unexpected violations for player A: %+v", res.Violations)
	}
	playerB, _, err := svc.CreatePlayer(ctx, domain.Player{Name: "Player B", Position: "center", Status: domain.PlayerStatusActive})
	if err != nil {
		t.Fatalf("create player B: %v", err)
	}

	if _, res, err = svc.AssignPlayerTeam(ctx, playerA.ID, team.ID); err != nil {
		t.Fatalf("assign player A: %v", err)
	} else if len(res.Violations) != 0 {
		t.Fatalf("unexpected violations on first assignment: %+v", res.Violations)
	}

	_, _, err = svc.AssignPlayerTeam(ctx, playerB.ID, team.ID)
	if err == nil {
		t.Fatalf("expected error when exceeding roster limit")
	}
	var violationErr domain.RuleViolationError
	if !core.AsRuleViolation(err, &violationErr) {
		t.Fatalf("expected rule violation error, got %T", err)
	}
	if len(violationErr.Result.Violations) != 1 || violationErr.Result.Violations[0].Rule != "roster_capacity" {
		t.Fatalf("unexpected violations: %+v", violationErr.Result.Violations)
	}

	// Inactive players do not count against the limit.
	playerC, _, err := svc.CreatePlayer(ctx, domain.Player{Name: "Player C", Position: "forward", Status: domain.PlayerStatusInjured, TeamID: &team.ID})
	if err != nil {
		t.Fatalf("create injured player on full roster: %v", err)
	}
	if playerC.TeamID == nil || *playerC.TeamID != team.ID {
		t.Fatalf("expected injured player to join team")
	}
}

func TestCreateGameRejectsBadTeamReferences(t *testing.T) {
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine())
	ctx := context.Background()

	league := seedLeague(t, svc)
	season, _, err := svc.CreateSeason(ctx, domain.Season{
		Name:      "2026 Season",
		LeagueID:  league.ID,
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create season: %v", err)
	}
	home, _, err := svc.CreateTeam(ctx, domain.Team{Code: "HOM", Name: "Home", LeagueID: league.ID})
	if err != nil {
		t.Fatalf("create home team: %v", err)
	}
	away, _, err := svc.CreateTeam(ctx, domain.Team{Code: "AWY", Name: "Away", LeagueID: league.ID})
	if err != nil {
		t.Fatalf("create away team: %v", err)
	}

	_, _, err = svc.CreateGame(ctx, domain.Game{
		SeasonID:    season.ID,
		HomeTeamID:  home.ID,
		AwayTeamID:  home.ID,
		ScheduledAt: time.Date(2026, 2, 1, 19, 0, 0, 0, time.UTC),
		Status:      domain.GameStatusScheduled,
	})
	if err == nil || !strings.Contains(err.Error(), "must differ") {
		t.Fatalf("expected self-pairing rejection, got %v", err)
	}

	_, _, err = svc.CreateGame(ctx, domain.Game{
		SeasonID:    season.ID,
		HomeTeamID:  home.ID,
		AwayTeamID:  "ghost-team",
		ScheduledAt: time.Date(2026, 2, 1, 19, 0, 0, 0, time.UTC),
		Status:      domain.GameStatusScheduled,
	})
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected unknown team rejection, got %v", err)
	}

	game, res, err := svc.CreateGame(ctx, domain.Game{
		SeasonID:    season.ID,
		HomeTeamID:  home.ID,
		AwayTeamID:  away.ID,
		ScheduledAt: time.Date(2026, 2, 1, 19, 0, 0, 0, time.UTC),
		Status:      domain.GameStatusScheduled,
	})
	if err != nil {
		t.Fatalf("create valid game: %v", err)
	}
	if len(res.Violations) != 0 {
		t.Fatalf("unexpected violations: %+v", res.Violations)
	}
	if game.Status != domain.GameStatusScheduled {
		t.Fatalf("unexpected status %s", game.Status)
	}
}

func TestSeasonWindowRuleWarnsWithoutBlocking(t *testing.T) {
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine())
	ctx := context.Background()

	league := seedLeague(t, svc)
	season, _, err := svc.CreateSeason(ctx, domain.Season{
		Name:      "2026 Season",
		LeagueID:  league.ID,
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create season: %v", err)
	}
	home, _, err := svc.CreateTeam(ctx, domain.Team{Code: "HOM", Name: "Home", LeagueID: league.ID})
	if err != nil {
		t.Fatalf("create home team: %v", err)
	}
	away, _, err := svc.CreateTeam(ctx, domain.Team{Code: "AWY", Name: "Away", LeagueID: league.ID})
	if err != nil {
		t.Fatalf("create away team: %v", err)
	}

	game, res, err := svc.CreateGame(ctx, domain.Game{
		SeasonID:    season.ID,
		HomeTeamID:  home.ID,
		AwayTeamID:  away.ID,
		ScheduledAt: time.Date(2026, 9, 1, 19, 0, 0, 0, time.UTC),
		Status:      domain.GameStatusScheduled,
	})
	if err != nil {
		t.Fatalf("expected warning, not error: %v", err)
	}
	if len(res.Violations) != 1 {
		t.Fatalf("expected single warning, got %+v", res.Violations)
	}
	violation := res.Violations[0]
	if violation.Rule != "season_window" || violation.Severity != domain.SeverityWarn {
		t.Fatalf("unexpected violation: %+v", violation)
	}
	if game.ID == "" {
		t.Fatalf("expected game to commit despite warning")
	}
}

func TestServiceExtendedCRUD(t *testing.T) {
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine())
	ctx := context.Background()

	league := seedLeague(t, svc)

	venue, _, err := svc.CreateVenue(ctx, domain.Venue{Name: "Central Arena", City: "Springfield", Capacity: 18000})
	if err != nil {
		t.Fatalf("create venue: %v", err)
	}

	season, _, err := svc.CreateSeason(ctx, domain.Season{
		Name:      "2026 Season",
		LeagueID:  league.ID,
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create season: %v", err)
	}

	home, _, err := svc.CreateTeam(ctx, domain.Team{Code: "HOM", Name: "Home", LeagueID: league.ID, RosterLimit: 20})
	if err != nil {
		t.Fatalf("create home team: %v", err)
	}
	away, _, err := svc.CreateTeam(ctx, domain.Team{Code: "AWY", Name: "Away", LeagueID: league.ID, RosterLimit: 20})
	if err != nil {
		t.Fatalf("create away team: %v", err)
	}

	if _, res, err := svc.AssignTeamVenue(ctx, home.ID, venue.ID); err != nil {
		t.Fatalf("assign team venue: %v", err)
	} else if len(res.Violations) != 0 {
		t.Fatalf("unexpected violations: %+v", res.Violations)
	}
	if got, ok := svc.GetTeam(home.ID); !ok || got.VenueID == nil || *got.VenueID != venue.ID {
		t.Fatalf("expected venue assignment to persist, got %+v", got)
	}
	if got, ok := svc.GetVenue(venue.ID); !ok || len(got.HomeTeamIDs) != 1 || got.HomeTeamIDs[0] != home.ID {
		t.Fatalf("expected venue to list home team, got %+v", got)
	}

	player, _, err := svc.CreatePlayer(ctx, domain.Player{
		Name:         "Star Guard",
		Position:     "guard",
		JerseyNumber: intPtr(23),
		Status:       domain.PlayerStatusActive,
		Nationality:  strPtr("US"),
	})
	if err != nil {
		t.Fatalf("create player: %v", err)
	}
	if _, _, err := svc.AssignPlayerTeam(ctx, player.ID, home.ID); err != nil {
		t.Fatalf("assign player team: %v", err)
	}
	if got, ok := svc.GetTeam(home.ID); !ok || len(got.PlayerIDs) != 1 {
		t.Fatalf("expected team to list player, got %+v", got)
	}

	updatedPlayer, res, err := svc.UpdatePlayer(ctx, player.ID, func(p *domain.Player) error {
		p.Position = "point guard"
		return nil
	})
	if err != nil {
		t.Fatalf("update player: %v", err)
	}
	if len(res.Violations) != 0 {
		t.Fatalf("unexpected violations on player update: %+v", res.Violations)
	}
	if updatedPlayer.Position != "point guard" {
		t.Fatalf("expected position update, got %s", updatedPlayer.Position)
	}

	game, _, err := svc.CreateGame(ctx, domain.Game{
		SeasonID:    season.ID,
		HomeTeamID:  home.ID,
		AwayTeamID:  away.ID,
		VenueID:     &venue.ID,
		ScheduledAt: time.Date(2026, 3, 15, 19, 30, 0, 0, time.UTC),
		Status:      domain.GameStatusScheduled,
	})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	if got, ok := svc.GetSeason(season.ID); !ok || len(got.GameIDs) != 1 || got.GameIDs[0] != game.ID {
		t.Fatalf("expected season to list game, got %+v", got)
	}

	finished, _, err := svc.RecordGameResult(ctx, game.ID, 104, 99)
	if err != nil {
		t.Fatalf("record game result: %v", err)
	}
	if finished.Status != domain.GameStatusFinal {
		t.Fatalf("expected final status, got %s", finished.Status)
	}
	if finished.HomeScore == nil || *finished.HomeScore != 104 || finished.AwayScore == nil || *finished.AwayScore != 99 {
		t.Fatalf("unexpected score line: %+v", finished)
	}

	updatedLeague, _, err := svc.UpdateLeague(ctx, league.ID, func(l *domain.League) error {
		l.Country = strPtr("US")
		return nil
	})
	if err != nil {
		t.Fatalf("update league: %v", err)
	}
	if updatedLeague.Country == nil || *updatedLeague.Country != "US" {
		t.Fatalf("expected country update, got %+v", updatedLeague.Country)
	}
	if len(updatedLeague.TeamIDs) != 2 || len(updatedLeague.SeasonIDs) != 1 {
		t.Fatalf("expected derived lists on league, got %+v", updatedLeague)
	}

	if _, _, err := svc.UpdateSeason(ctx, season.ID, func(s *domain.Season) error {
		s.Name = "2026 Regular Season"
		return nil
	}); err != nil {
		t.Fatalf("update season: %v", err)
	}
	if _, _, err := svc.UpdateTeam(ctx, away.ID, func(tm *domain.Team) error {
		tm.Coach = strPtr("Coach Taylor")
		return nil
	}); err != nil {
		t.Fatalf("update team: %v", err)
	}
	if _, _, err := svc.UpdateGame(ctx, game.ID, func(g *domain.Game) error {
		g.Attendance = intPtr(17950)
		return nil
	}); err != nil {
		t.Fatalf("update game: %v", err)
	}
	if _, _, err := svc.UpdateVenue(ctx, venue.ID, func(v *domain.Venue) error {
		v.Surface = strPtr("hardwood")
		return nil
	}); err != nil {
		t.Fatalf("update venue: %v", err)
	}

	if leagues := svc.ListLeagues(); len(leagues) != 1 {
		t.Fatalf("expected one league, got %d", len(leagues))
	}
	if seasons := svc.ListSeasons(); len(seasons) != 1 {
		t.Fatalf("expected one season, got %d", len(seasons))
	}
	if teams := svc.ListTeams(); len(teams) != 2 {
		t.Fatalf("expected two teams, got %d", len(teams))
	}
	if players := svc.ListPlayers(); len(players) != 1 {
		t.Fatalf("expected one player, got %d", len(players))
	}
	if games := svc.ListGames(); len(games) != 1 {
		t.Fatalf("expected one game, got %d", len(games))
	}
	if venues := svc.ListVenues(); len(venues) != 1 {
		t.Fatalf("expected one venue, got %d", len(venues))
	}
	if got, ok := svc.GetLeague(league.ID); !ok || got.ID != league.ID {
		t.Fatalf("expected league lookup to succeed")
	}
	if got, ok := svc.GetPlayer(player.ID); !ok || got.ID != player.ID {
		t.Fatalf("expected player lookup to succeed")
	}
	if got, ok := svc.GetGame(game.ID); !ok || got.ID != game.ID {
		t.Fatalf("expected game lookup to succeed")
	}

	// Deletion order respects referential guards.
	if _, err := svc.DeleteGame(ctx, game.ID); err != nil {
		t.Fatalf("delete game: %v", err)
	}
	if _, err := svc.DeletePlayer(ctx, player.ID); err != nil {
		t.Fatalf("delete player: %v", err)
	}
	if _, err := svc.DeleteSeason(ctx, season.ID); err != nil {
		t.Fatalf("delete season: %v", err)
	}
	if _, err := svc.DeleteTeam(ctx, home.ID); err != nil {
		t.Fatalf("delete home team: %v", err)
	}
	if _, err := svc.DeleteTeam(ctx, away.ID); err != nil {
		t.Fatalf("delete away team: %v", err)
	}
	if _, err := svc.DeleteVenue(ctx, venue.ID); err != nil {
		t.Fatalf("delete venue: %v", err)
	}
	if _, err := svc.DeleteLeague(ctx, league.ID); err != nil {
		t.Fatalf("delete league: %v", err)
	}
	if leagues := svc.ListLeagues(); len(leagues) != 0 {
		t.Fatalf("expected empty store, got %d leagues", len(leagues))
	}
}

func TestAssignPlayerTeamRequiresExistingTeam(t *testing.T) {
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine())
	ctx := context.Background()

	player, _, err := svc.CreatePlayer(ctx, domain.Player{Name: "Free Agent", Position: "guard", Status: domain.PlayerStatusActive})
	if err != nil {
		t.Fatalf("create player: %v", err)
	}

	_, _, err = svc.AssignPlayerTeam(ctx, player.ID, "missing-team")
	if err == nil {
		t.Fatalf("expected error assigning to missing team")
	}
	var notFound core.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %T: %v", err, err)
	}
	if notFound.Entity != domain.EntityTeam || notFound.ID != "missing-team" {
		t.Fatalf("unexpected not-found detail: %+v", notFound)
	}
	if !strings.Contains(notFound.Error(), "missing-team") {
		t.Fatalf("expected id in message, got %q", notFound.Error())
	}
}

func TestAssignTeamVenueRequiresExistingVenue(t *testing.T) {
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine())
	ctx := context.Background()

	league := seedLeague(t, svc)
	team, _, err := svc.CreateTeam(ctx, domain.Team{Code: "HOM", Name: "Home", LeagueID: league.ID})
	if err != nil {
		t.Fatalf("create team: %v", err)
	}

	if _, _, err := svc.AssignTeamVenue(ctx, team.ID, "missing-venue"); err == nil {
		t.Fatalf("expected error assigning missing venue")
	}
}

func TestRecordGameResultRejectsNegativeScores(t *testing.T) {
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine())
	ctx := context.Background()

	league := seedLeague(t, svc)
	season, _, err := svc.CreateSeason(ctx, domain.Season{
		Name:      "2026 Season",
		LeagueID:  league.ID,
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create season: %v", err)
	}
	home, _, err := svc.CreateTeam(ctx, domain.Team{Code: "HOM", Name: "Home", LeagueID: league.ID})
	if err != nil {
		t.Fatalf("create home team: %v", err)
	}
	away, _, err := svc.CreateTeam(ctx, domain.Team{Code: "AWY", Name: "Away", LeagueID: league.ID})
	if err != nil {
		t.Fatalf("create away team: %v", err)
	}
	game, _, err := svc.CreateGame(ctx, domain.Game{
		SeasonID:    season.ID,
		HomeTeamID:  home.ID,
		AwayTeamID:  away.ID,
		ScheduledAt: time.Date(2026, 2, 1, 19, 0, 0, 0, time.UTC),
		Status:      domain.GameStatusScheduled,
	})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}

	if _, _, err := svc.RecordGameResult(ctx, game.ID, -1, 80); err == nil {
		t.Fatalf("expected error for negative home score")
	}
	got, ok := svc.GetGame(game.ID)
	if !ok {
		t.Fatalf("game disappeared")
	}
	if got.Status != domain.GameStatusScheduled || got.HomeScore != nil {
		t.Fatalf("expected rollback to leave game untouched, got %+v", got)
	}
}

func TestServiceStoreAccessors(t *testing.T) {
	engine := core.NewDefaultRulesEngine()
	svc := core.NewInMemoryService(engine)
	if svc.Store() == nil {
		t.Fatalf("expected backing store")
	}
	if svc.RulesEngine() != engine {
		t.Fatalf("expected engine passthrough")
	}
}

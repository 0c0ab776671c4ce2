package core_test

import (
	"context"
	"testing"
	"time"

	"rostercore/internal/core"
	"rostercore/pkg/domain"
)

type captureLogger struct {
	debugs int
	infos  int
	warns  int
	errors int
}

func (l *captureLogger) Debug(string, ...any) { l.debugs++ }
func (l *captureLogger) Info(string, ...any)  { l.infos++ }
func (l *captureLogger) Warn(string, ...any)  { l.warns++ }
func (l *captureLogger) Error(string, ...any) { l.errors++ }

// TestServiceLoggerPaths covers debug (success), warn (committed violations)
// and error (failed transaction) logging paths.
func TestServiceLoggerPaths(t *testing.T) {
	logger := &captureLogger{}
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine(), core.WithLogger(logger))
	ctx := context.Background()

	league, _, err := svc.CreateLeague(ctx, domain.League{Code: "MLS", Name: "Major League Soccer", Sport: "soccer"})
	if err != nil {
		t.Fatalf("create league: %v", err)
	}
	if logger.debugs == 0 {
		t.Fatalf("expected debug log on success")
	}

	if _, _, err := svc.AssignPlayerTeam(ctx, "missing-player", "missing-team"); err == nil {
		t.Fatalf("expected error from invalid assignment")
	}
	if logger.errors == 0 {
		t.Fatalf("expected error log on failure path")
	}

	season, _, err := svc.CreateSeason(ctx, domain.Season{
		Name:      "2026",
		LeagueID:  league.ID,
		StartDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create season: %v", err)
	}
	home, _, err := svc.CreateTeam(ctx, domain.Team{Code: "LAFC", Name: "Los Angeles FC", LeagueID: league.ID})
	if err != nil {
		t.Fatalf("create home team: %v", err)
	}
	away, _, err := svc.CreateTeam(ctx, domain.Team{Code: "SEA", Name: "Seattle Sounders", LeagueID: league.ID})
	if err != nil {
		t.Fatalf("create away team: %v", err)
	}

	// Scheduled after the season ends: commits with a season_window warning.
	if _, _, err := svc.CreateGame(ctx, domain.Game{
		SeasonID:    season.ID,
		HomeTeamID:  home.ID,
		AwayTeamID:  away.ID,
		ScheduledAt: time.Date(2026, 12, 15, 19, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("create out-of-window game: %v", err)
	}
	if logger.warns == 0 {
		t.Fatalf("expected warn log for committed violations")
	}
}

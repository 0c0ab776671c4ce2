package core

import (
	"context"
	"fmt"

	"rostercore/pkg/domain"
)

// SeasonWindowRule warns when a game is scheduled outside the start and end
// dates of its season. Warnings never block the commit.
func SeasonWindowRule() domain.Rule {
	return seasonWindowRule{}
}

type seasonWindowRule struct{}

func (seasonWindowRule) Name() string { return "season_window" }

func (seasonWindowRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityGame {
			continue
		}
		game, ok := change.After.(domain.Game)
		if !ok || game.SeasonID == "" || game.ScheduledAt.IsZero() {
			continue
		}
		season, found := view.FindSeason(game.SeasonID)
		if !found {
			// game_team_integrity reports the dangling reference
			continue
		}
		if game.ScheduledAt.Before(season.StartDate) || game.ScheduledAt.After(season.EndDate) {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "season_window",
				Severity: domain.SeverityWarn,
				Message: fmt.Sprintf("game %s scheduled at %s outside season %s window %s to %s",
					game.ID, game.ScheduledAt.Format("2006-01-02"), season.ID,
					season.StartDate.Format("2006-01-02"), season.EndDate.Format("2006-01-02")),
				Entity:   domain.EntityGame,
				EntityID: game.ID,
			})
		}
	}
	return res, nil
}

package core

import (
	"context"
	"fmt"

	"rostercore/pkg/domain"
)

// GameTeamIntegrityRule blocks games whose team or season references do not
// resolve, and games pairing a team against itself.
func GameTeamIntegrityRule() domain.Rule {
	return gameTeamIntegrityRule{}
}

type gameTeamIntegrityRule struct{}

func (gameTeamIntegrityRule) Name() string { return "game_team_integrity" }

func (gameTeamIntegrityRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityGame {
			continue
		}
		game, ok := change.After.(domain.Game)
		if !ok {
			continue
		}
		validateGameTeams(&res, game, view)
	}
	return res, nil
}

func validateGameTeams(res *domain.Result, game domain.Game, view domain.RuleView) {
	if game.HomeTeamID != "" && game.HomeTeamID == game.AwayTeamID {
		res.Violations = append(res.Violations, gameIntegrityViolation(game.ID,
			fmt.Sprintf("game %s pairs team %s against itself", game.ID, game.HomeTeamID)))
		return
	}
	if game.HomeTeamID != "" {
		if _, ok := view.FindTeam(game.HomeTeamID); !ok {
			res.Violations = append(res.Violations, gameIntegrityViolation(game.ID,
				fmt.Sprintf("game %s references unknown home team %s", game.ID, game.HomeTeamID)))
		}
	}
	if game.AwayTeamID != "" {
		if _, ok := view.FindTeam(game.AwayTeamID); !ok {
			res.Violations = append(res.Violations, gameIntegrityViolation(game.ID,
				fmt.Sprintf("game %s references unknown away team %s", game.ID, game.AwayTeamID)))
		}
	}
	if game.SeasonID != "" {
		if _, ok := view.FindSeason(game.SeasonID); !ok {
			res.Violations = append(res.Violations, gameIntegrityViolation(game.ID,
				fmt.Sprintf("game %s references unknown season %s", game.ID, game.SeasonID)))
		}
	}
}

func gameIntegrityViolation(entityID, message string) domain.Violation {
	return domain.Violation{
		Rule:     "game_team_integrity",
		Severity: domain.SeverityBlock,
		Message:  message,
		Entity:   domain.EntityGame,
		EntityID: entityID,
	}
}

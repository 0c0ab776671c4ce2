package core

import (
	"context"
	"fmt"

	"rostercore/pkg/domain"
)

// LeagueMembershipRule blocks teams and seasons that reference a league
// missing from the transaction view.
func LeagueMembershipRule() domain.Rule {
	return leagueMembershipRule{}
}

type leagueMembershipRule struct{}

func (leagueMembershipRule) Name() string { return "league_membership" }

func (leagueMembershipRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		switch change.Entity {
		case domain.EntityTeam:
			team, ok := change.After.(domain.Team)
			if !ok || team.LeagueID == "" {
				continue
			}
			if _, found := view.FindLeague(team.LeagueID); !found {
				res.Violations = append(res.Violations, membershipViolation(domain.EntityTeam, team.ID,
					fmt.Sprintf("team %s references unknown league %s", team.ID, team.LeagueID)))
			}
		case domain.EntitySeason:
			season, ok := change.After.(domain.Season)
			if !ok || season.LeagueID == "" {
				continue
			}
			if _, found := view.FindLeague(season.LeagueID); !found {
				res.Violations = append(res.Violations, membershipViolation(domain.EntitySeason, season.ID,
					fmt.Sprintf("season %s references unknown league %s", season.ID, season.LeagueID)))
			}
		}
	}
	return res, nil
}

func membershipViolation(entity domain.EntityType, entityID, message string) domain.Violation {
	return domain.Violation{
		Rule:     "league_membership",
		Severity: domain.SeverityBlock,
		Message:  message,
		Entity:   entity,
		EntityID: entityID,
	}
}

package core

import (
	"context"
	"fmt"

	"rostercore/pkg/domain"
)

// NewRosterCapacityRule returns the default in-transaction rule enforcing team
// roster limits. Teams with a zero RosterLimit are unconstrained.
func NewRosterCapacityRule() domain.Rule {
	return rosterCapacityRule{}
}

type rosterCapacityRule struct{}

func (rosterCapacityRule) Name() string { return "roster_capacity" }

func (rosterCapacityRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	occupancy := make(map[string]int)
	for _, player := range view.ListPlayers() {
		if player.TeamID == nil || player.Status != domain.PlayerStatusActive {
			continue
		}
		occupancy[*player.TeamID]++
	}

	res := domain.Result{}
	for _, team := range view.ListTeams() {
		if team.RosterLimit <= 0 {
			continue
		}
		count := occupancy[team.ID]
		if count > team.RosterLimit {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "roster_capacity",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("team %s (%s) over roster limit: %d/%d active players", team.Name, team.ID, count, team.RosterLimit),
				Entity:   domain.EntityTeam,
				EntityID: team.ID,
			})
		}
	}
	return res, nil
}

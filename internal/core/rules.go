package core

import "rostercore/pkg/domain"

// NewRulesEngine constructs an empty engine instance.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NewRequiredFieldsRule())
	engine.Register(LeagueMembershipRule())
	engine.Register(GameTeamIntegrityRule())
	engine.Register(SeasonWindowRule())
	engine.Register(NewRosterCapacityRule())
	return engine
}

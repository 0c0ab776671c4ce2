package core

import "rostercore/pkg/domain"

type (
	EntityType         = domain.EntityType
	GameStatus         = domain.GameStatus
	PlayerStatus       = domain.PlayerStatus
	Severity           = domain.Severity
	Base               = domain.Base
	League             = domain.League
	Season             = domain.Season
	Team               = domain.Team
	Player             = domain.Player
	Game               = domain.Game
	Venue              = domain.Venue
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	RuleViolationError = domain.RuleViolationError
	Rule               = domain.Rule
	RuleView           = domain.RuleView
	RulesEngine        = domain.RulesEngine
)

const (
	EntityLeague = domain.EntityLeague
	EntitySeason = domain.EntitySeason
	EntityTeam   = domain.EntityTeam
	EntityPlayer = domain.EntityPlayer
	EntityGame   = domain.EntityGame
	EntityVenue  = domain.EntityVenue
)

const (
	GameStatusScheduled  = domain.GameStatusScheduled
	GameStatusInProgress = domain.GameStatusInProgress
	GameStatusFinal      = domain.GameStatusFinal
	GameStatusPostponed  = domain.GameStatusPostponed
	GameStatusCancelled  = domain.GameStatusCancelled
)

const (
	PlayerStatusActive    = domain.PlayerStatusActive
	PlayerStatusInactive  = domain.PlayerStatusInactive
	PlayerStatusInjured   = domain.PlayerStatusInjured
	PlayerStatusSuspended = domain.PlayerStatusSuspended
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)

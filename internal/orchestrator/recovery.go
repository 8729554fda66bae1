package orchestrator

import "time"

type Decision int

const (
	// DecisionStall parks the phase on the failed index until Retry or restart.
	DecisionStall Decision = iota
	// DecisionForceAdvance moves past the failed last index after the cooldown.
	DecisionForceAdvance
	// DecisionTerminate ends the game.
	DecisionTerminate
)

func (d Decision) String() string {
	switch d {
	case DecisionForceAdvance:
		return "force_advance"
	case DecisionTerminate:
		return "terminate"
	default:
		return "stall"
	}
}

type RecoveryPolicy struct {
	Cooldown time.Duration
}

// Decide picks the reaction to a failed step at index of a phase with total
// participants. A forced advance only ever happens on the last index.
func (p RecoveryPolicy) Decide(err error, index, total int) Decision {
	if IsTerminal(err) {
		return DecisionTerminate
	}
	if index == total-1 {
		return DecisionForceAdvance
	}
	return DecisionStall
}

package service

import "github.com/iliyamo/client-portal/internal/model"

// Trigger names what caused a status change.
type Trigger int

const (
	// TriggerFirstView fires on a successful client authentication.
	TriggerFirstView Trigger = iota + 1
	// TriggerClientResponse fires on an explicit client respond action.
	TriggerClientResponse
)

// clientTargets are the only statuses a client may request.
var clientTargets = []model.Status{model.StatusApproved, model.StatusRejected, model.StatusRevised}

// allStatuses fixes an iteration order for building guards.
var allStatuses = []model.Status{
	model.StatusDraft, model.StatusSent, model.StatusViewed,
	model.StatusApproved, model.StatusRejected, model.StatusRevised,
}

// transitions is the from-state × trigger -> to-state table.  Anything
// absent is illegal.  Responses may repeat (revised, then approved), but a
// draft was never sent and cannot be answered.
var transitions = map[Trigger]map[model.Status][]model.Status{
	TriggerFirstView: {
		model.StatusSent: {model.StatusViewed},
	},
	TriggerClientResponse: {
		model.StatusSent:     clientTargets,
		model.StatusViewed:   clientTargets,
		model.StatusApproved: clientTargets,
		model.StatusRejected: clientTargets,
		model.StatusRevised:  clientTargets,
	},
}

// CanTransition reports whether trig may move a proposal from one status to
// another.
func CanTransition(from model.Status, trig Trigger, to model.Status) bool {
	for _, s := range transitions[trig][from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsClientTarget reports whether s is a status a client may request.
func IsClientTarget(s model.Status) bool {
	for _, t := range clientTargets {
		if t == s {
			return true
		}
	}
	return false
}

// sourcesFor lists every status from which trig may reach to.  The result
// is the guard of the conditional update; it is empty when to is
// unreachable by trig.
func sourcesFor(trig Trigger, to model.Status) []model.Status {
	var out []model.Status
	for _, from := range allStatuses {
		if CanTransition(from, trig, to) {
			out = append(out, from)
		}
	}
	return out
}

// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package custody

import (
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
)

// EventType identifies a registry state change.
type EventType uint8

const (
	EventSetCreated EventType = iota
	EventMembershipUpdated
	EventCoinAssigned
	EventCoinReassigned
)

// Event is an externally observable registry state change. Derived views
// (the threshold tracker, the approval engine's snapshots) recompute from
// registry state; events exist so external subsystems can react without
// polling.
type Event struct {
	Type       EventType
	Set        SetID
	Validator  ids.NodeID
	Shares     Shares
	Coin       ids.ID
	Generation uint64
}

// publish delivers an event to all subscribers without blocking the
// registry. A subscriber that cannot keep up drops events.
func (r *Registry) publish(ev Event) {
	for _, sub := range r.subs {
		select {
		case sub <- ev:
		default:
			r.log.Warn(
				"dropping registry event for slow subscriber",
				log.Uint32("set", uint32(ev.Set)),
			)
		}
	}
}

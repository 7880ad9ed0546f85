// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package custody

import (
	"sync"

	"github.com/luxfi/log"
)

// ThresholdTracker is a derived view over validator-set membership that
// reports the multisig custody safety margin and signals when membership
// drift requires the custody subsystem to re-form a set's multisig. It
// never performs ceremonies itself.
type ThresholdTracker struct {
	mu       sync.Mutex
	log      log.Logger
	registry *Registry

	// acked maps a set to the membership generation of its last
	// acknowledged multisig ceremony.
	acked map[SetID]uint64
}

// NewThresholdTracker returns a tracker over the registry's sets.
func NewThresholdTracker(logger log.Logger, registry *Registry) *ThresholdTracker {
	return &ThresholdTracker{
		log:      logger,
		registry: registry,
		acked:    make(map[SetID]uint64),
	}
}

// SafetyMargin returns 67% of the set's total bond value. Custody
// commitments for the set must never exceed this amount; external custody
// logic enforces that, this only reports the ceiling.
func (t *ThresholdTracker) SafetyMargin(index SetID) (Amount, error) {
	total, err := t.registry.TotalSetBond(index)
	if err != nil {
		return 0, err
	}
	return marginOf(total, MarginNumerator, MarginDenominator), nil
}

// NeedsReformation returns true when the set's membership has changed since
// the last acknowledged multisig ceremony.
func (t *ThresholdTracker) NeedsReformation(index SetID) (bool, error) {
	generation, err := t.registry.Generation(index)
	if err != nil {
		return false, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return generation > t.acked[index], nil
}

// AckReformation records that a multisig ceremony completed for the set at
// the given membership generation. Acknowledging a stale generation leaves
// the reformation signal raised.
func (t *ThresholdTracker) AckReformation(index SetID, generation uint64) error {
	current, err := t.registry.Generation(index)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if generation > t.acked[index] {
		t.acked[index] = generation
	}
	if generation < current {
		t.log.Debug(
			"multisig ceremony acknowledged for stale generation",
			log.Uint32("set", uint32(index)),
			log.Uint64("acked", generation),
			log.Uint64("current", current),
		)
	}
	return nil
}

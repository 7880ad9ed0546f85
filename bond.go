// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package custody

import (
	"sync"

	"github.com/luxfi/ids"
)

// Ledger tracks each validator's total bonded amount across the network.
// It is fed by the external bond event stream and is the source of truth
// for majority-by-bond computations.
type Ledger struct {
	mu    sync.RWMutex
	bonds map[ids.NodeID]Amount
	total Amount
}

// NewLedger returns an empty bond ledger.
func NewLedger() *Ledger {
	return &Ledger{
		bonds: make(map[ids.NodeID]Amount),
	}
}

// SetBond records the validator's new total bonded amount, replacing any
// previous value. Returns ErrOverflow if the network total would exceed
// uint64.
func (l *Ledger) SetBond(nodeID ids.NodeID, amount Amount) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	current := l.bonds[nodeID]
	newTotal, err := AddAmount(l.total-current, amount)
	if err != nil {
		return err
	}

	if amount == 0 {
		delete(l.bonds, nodeID)
	} else {
		l.bonds[nodeID] = amount
	}
	l.total = newTotal
	return nil
}

// BondOf returns the validator's current total bonded amount, zero if the
// validator has no bond.
func (l *Ledger) BondOf(nodeID ids.NodeID) Amount {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.bonds[nodeID]
}

// TotalNetworkBond returns the sum of all validators' bonded amounts.
func (l *Ledger) TotalNetworkBond() Amount {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.total
}

// balances returns a copy of all bond balances, used for snapshots.
func (l *Ledger) balances() (map[ids.NodeID]Amount, Amount) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	bonds := make(map[ids.NodeID]Amount, len(l.bonds))
	for nodeID, amount := range l.bonds {
		bonds[nodeID] = amount
	}
	return bonds, l.total
}

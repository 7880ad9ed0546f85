// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package custody

import (
	"fmt"

	"github.com/luxfi/ids"
)

// Snapshot is a read-only view of validator-set membership, coin ownership,
// and bond balances, consistent with a single block height. A block's
// oraclizations are all evaluated against one snapshot so no membership
// delta can land mid-evaluation, and evaluation order within the block
// cannot matter. Independent workers may evaluate different blocks on their
// own snapshots concurrently.
type Snapshot struct {
	height    uint64
	sets      []*ValidatorSet
	coinOwner map[ids.ID]SetID
	bonds     map[ids.NodeID]Amount
	totalBond Amount
}

// Height returns the block height the snapshot was taken for.
func (s *Snapshot) Height() uint64 {
	return s.height
}

// Set returns the validator set at the given index.
func (s *Snapshot) Set(index SetID) (*ValidatorSet, error) {
	if int(index) >= len(s.sets) {
		return nil, fmt.Errorf("%w: index %d", ErrNotFound, index)
	}
	return s.sets[index], nil
}

// SetForCoin returns the index of the set responsible for the coin at the
// snapshot's height. Ownership transfers applied after the snapshot was
// taken are not visible.
func (s *Snapshot) SetForCoin(coin ids.ID) (SetID, error) {
	owner, ok := s.coinOwner[coin]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnassignedCoin, coin)
	}
	return owner, nil
}

// BondOf returns the validator's total bonded amount at the snapshot.
func (s *Snapshot) BondOf(nodeID ids.NodeID) Amount {
	return s.bonds[nodeID]
}

// TotalNetworkBond returns the network-wide bonded amount at the snapshot.
func (s *Snapshot) TotalNetworkBond() Amount {
	return s.totalBond
}

// TotalSetBond returns the bond value backing the set at the snapshot.
func (s *Snapshot) TotalSetBond(index SetID) (Amount, error) {
	set, err := s.Set(index)
	if err != nil {
		return 0, err
	}
	return set.TotalBond(), nil
}

// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package custody

import (
	"bytes"
	"sort"

	"github.com/luxfi/ids"
)

// Member is a validator's membership entry in a validator set.
type Member struct {
	NodeID ids.NodeID
	Shares Shares
}

// Less returns true if this member sorts before the other in canonical
// order.
func (m Member) Less(other Member) bool {
	return bytes.Compare(m.NodeID[:], other.NodeID[:]) < 0
}

// ValidatorSet is an indexed group of validators jointly responsible for a
// list of coins. Membership is weighted in shares, each share representing
// BondPerShare of bonded value. Sets are created and mutated only through
// the registry.
type ValidatorSet struct {
	index        SetID
	bondPerShare Amount
	coins        []ids.ID
	members      map[ids.NodeID]Shares
	totalShares  Shares

	// generation increases on every membership change and drives the
	// multisig reformation signal.
	generation uint64
}

func newValidatorSet(index SetID, bondPerShare Amount, coins []ids.ID) *ValidatorSet {
	owned := make([]ids.ID, len(coins))
	copy(owned, coins)
	return &ValidatorSet{
		index:        index,
		bondPerShare: bondPerShare,
		coins:        owned,
		members:      make(map[ids.NodeID]Shares),
	}
}

// Index returns the set's registry index.
func (s *ValidatorSet) Index() SetID {
	return s.index
}

// BondPerShare returns the bond value represented by one share.
func (s *ValidatorSet) BondPerShare() Amount {
	return s.bondPerShare
}

// Coins returns the coins this set is responsible for, in assignment order.
func (s *ValidatorSet) Coins() []ids.ID {
	coins := make([]ids.ID, len(s.coins))
	copy(coins, s.coins)
	return coins
}

// Generation returns the membership generation counter.
func (s *ValidatorSet) Generation() uint64 {
	return s.generation
}

// Shares returns the validator's current share count, zero if not a member.
func (s *ValidatorSet) Shares(nodeID ids.NodeID) Shares {
	return s.members[nodeID]
}

// IsMember returns true if the validator holds a positive share count.
func (s *ValidatorSet) IsMember(nodeID ids.NodeID) bool {
	return s.members[nodeID] > 0
}

// TotalShares returns the sum of all members' shares.
func (s *ValidatorSet) TotalShares() Shares {
	return s.totalShares
}

// TotalBond returns the total bond value backing this set. The product is
// guarded against overflow when membership changes, so the read cannot
// fail.
func (s *ValidatorSet) TotalBond() Amount {
	total, _ := MulAmount(s.totalShares, s.bondPerShare)
	return total
}

// Len returns the number of members with positive shares.
func (s *ValidatorSet) Len() int {
	return len(s.members)
}

// Members returns the membership in canonical order.
func (s *ValidatorSet) Members() []Member {
	members := make([]Member, 0, len(s.members))
	for nodeID, shares := range s.members {
		members = append(members, Member{NodeID: nodeID, Shares: shares})
	}
	sort.Slice(members, func(i, j int) bool {
		return members[i].Less(members[j])
	})
	return members
}

// ExpectedProposer returns the validator expected to produce the given
// block, rotating round-robin over the canonical member order weighted by
// shares. If additional rounds are used, jump halfway around so a naive
// block + round does not reuse the same slot in quick succession. Returns
// false if the set has no members.
func (s *ValidatorSet) ExpectedProposer(blockNumber uint64, round uint32) (ids.NodeID, bool) {
	if s.totalShares == 0 {
		return ids.EmptyNodeID, false
	}

	slot := blockNumber
	if round != 0 {
		slot += uint64(round) + uint64(s.totalShares)/2
	}
	slot %= uint64(s.totalShares)

	for _, m := range s.Members() {
		if slot < uint64(m.Shares) {
			return m.NodeID, true
		}
		slot -= uint64(m.Shares)
	}
	// Unreachable: slot < totalShares and member shares sum to totalShares.
	return ids.EmptyNodeID, false
}

// setShares replaces the validator's share count, keeping the share total
// consistent and guarding the set's bond total against overflow.
func (s *ValidatorSet) setShares(nodeID ids.NodeID, shares Shares) error {
	current := s.members[nodeID]
	remaining := Amount(s.totalShares - current)
	added, err := AddAmount(remaining, Amount(shares))
	if err != nil {
		return err
	}
	newTotal := Shares(added)
	if _, err := MulAmount(newTotal, s.bondPerShare); err != nil {
		return err
	}

	if shares == 0 {
		delete(s.members, nodeID)
	} else {
		s.members[nodeID] = shares
	}
	s.totalShares = newTotal
	return nil
}

// clone returns a deep copy, used for snapshots and registry reads.
func (s *ValidatorSet) clone() *ValidatorSet {
	members := make(map[ids.NodeID]Shares, len(s.members))
	for nodeID, shares := range s.members {
		members[nodeID] = shares
	}
	coins := make([]ids.ID, len(s.coins))
	copy(coins, s.coins)
	return &ValidatorSet{
		index:        s.index,
		bondPerShare: s.bondPerShare,
		coins:        coins,
		members:      members,
		totalShares:  s.totalShares,
		generation:   s.generation,
	}
}

// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package custody

import (
	"testing"

	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"
)

func TestValidatorSetMembership(t *testing.T) {
	require := require.New(t)

	set := newValidatorSet(0, 100, []ids.ID{ids.GenerateTestID()})
	a := ids.GenerateTestNodeID()
	b := ids.GenerateTestNodeID()

	require.NoError(set.setShares(a, 3))
	require.NoError(set.setShares(b, 2))

	require.True(set.IsMember(a))
	require.Equal(Shares(3), set.Shares(a))
	require.Equal(Shares(5), set.TotalShares())
	require.Equal(Amount(500), set.TotalBond())
	require.Equal(2, set.Len())

	// Removing all shares removes membership.
	require.NoError(set.setShares(b, 0))
	require.False(set.IsMember(b))
	require.Equal(Shares(0), set.Shares(b))
	require.Equal(Amount(300), set.TotalBond())
	require.Equal(1, set.Len())
}

func TestValidatorSetCanonicalOrder(t *testing.T) {
	require := require.New(t)

	set := newValidatorSet(0, 1, []ids.ID{ids.GenerateTestID()})
	for i := 0; i < 10; i++ {
		require.NoError(set.setShares(ids.GenerateTestNodeID(), Shares(i+1)))
	}

	members := set.Members()
	require.Len(members, 10)
	for i := 1; i < len(members); i++ {
		require.True(members[i-1].Less(members[i]))
	}
}

func TestValidatorSetBondOverflow(t *testing.T) {
	require := require.New(t)

	set := newValidatorSet(0, 1<<32, []ids.ID{ids.GenerateTestID()})
	require.NoError(set.setShares(ids.GenerateTestNodeID(), 1<<31))

	// A second member of the same size would push the bond total past
	// uint64.
	err := set.setShares(ids.GenerateTestNodeID(), 1<<31)
	require.ErrorIs(err, ErrOverflow)

	// The failed mutation must not have changed anything.
	require.Equal(Shares(1<<31), set.TotalShares())
	require.Equal(1, set.Len())
}

func TestExpectedProposerRotation(t *testing.T) {
	require := require.New(t)

	set := newValidatorSet(0, 100, []ids.ID{ids.GenerateTestID()})
	_, ok := set.ExpectedProposer(0, 0)
	require.False(ok)

	a := ids.GenerateTestNodeID()
	b := ids.GenerateTestNodeID()
	require.NoError(set.setShares(a, 1))
	require.NoError(set.setShares(b, 3))

	// Over totalShares consecutive blocks every share slot is visited, so
	// each member proposes in proportion to its shares.
	counts := make(map[ids.NodeID]int)
	for block := uint64(0); block < 4; block++ {
		proposer, ok := set.ExpectedProposer(block, 0)
		require.True(ok)
		counts[proposer]++
	}
	require.Equal(1, counts[a])
	require.Equal(3, counts[b])

	// A later round jumps ahead rather than reusing the next slot.
	require.NotEqual(
		slotOf(t, set, 0, 0),
		slotOf(t, set, 0, 1),
	)
}

// slotOf mirrors the proposer slot computation for rotation assertions.
func slotOf(t *testing.T, set *ValidatorSet, block uint64, round uint32) uint64 {
	t.Helper()
	slot := block
	if round != 0 {
		slot += uint64(round) + uint64(set.TotalShares())/2
	}
	return slot % uint64(set.TotalShares())
}

func TestValidatorSetClone(t *testing.T) {
	require := require.New(t)

	coin := ids.GenerateTestID()
	set := newValidatorSet(3, 7, []ids.ID{coin})
	a := ids.GenerateTestNodeID()
	require.NoError(set.setShares(a, 5))
	set.generation = 9

	copied := set.clone()
	require.Equal(set.Index(), copied.Index())
	require.Equal(set.BondPerShare(), copied.BondPerShare())
	require.Equal(set.Coins(), copied.Coins())
	require.Equal(set.Generation(), copied.Generation())
	require.Equal(set.TotalBond(), copied.TotalBond())

	// Mutating the original must not leak into the copy.
	require.NoError(set.setShares(a, 1))
	require.Equal(Shares(5), copied.Shares(a))
}

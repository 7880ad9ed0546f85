// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package custody

import (
	"testing"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) (*Registry, *Ledger, ids.ID) {
	t.Helper()

	genesisCoin := ids.GenerateTestID()
	ledger := NewLedger()
	registry, err := NewRegistry(log.NoLog{}, ledger, 100, []ids.ID{genesisCoin})
	require.NoError(t, err)
	return registry, ledger, genesisCoin
}

func TestRegistryGenesis(t *testing.T) {
	require := require.New(t)

	registry, _, genesisCoin := newTestRegistry(t)
	require.Equal(1, registry.Len())

	set, err := registry.GetSet(0)
	require.NoError(err)
	require.Equal(SetID(0), set.Index())
	require.Equal(Amount(100), set.BondPerShare())
	require.Equal([]ids.ID{genesisCoin}, set.Coins())

	owner, err := registry.SetForCoin(genesisCoin)
	require.NoError(err)
	require.Equal(SetID(0), owner)
}

func TestRegistryCreateSetIndices(t *testing.T) {
	require := require.New(t)

	registry, _, _ := newTestRegistry(t)
	for i := 1; i < 6; i++ {
		index, err := registry.CreateSet(10, []ids.ID{ids.GenerateTestID()})
		require.NoError(err)
		require.Equal(SetID(i), index)
	}
	require.Equal(6, registry.Len())
}

func TestRegistryCreateSetInvalidConfig(t *testing.T) {
	registry, _, genesisCoin := newTestRegistry(t)
	coin := ids.GenerateTestID()

	tests := []struct {
		name         string
		bondPerShare Amount
		coins        []ids.ID
	}{
		{
			name:         "empty coin list",
			bondPerShare: 10,
			coins:        nil,
		},
		{
			name:         "zero bond per share",
			bondPerShare: 0,
			coins:        []ids.ID{coin},
		},
		{
			name:         "duplicate coin in argument",
			bondPerShare: 10,
			coins:        []ids.ID{coin, coin},
		},
		{
			name:         "coin already owned",
			bondPerShare: 10,
			coins:        []ids.ID{genesisCoin},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := registry.CreateSet(tt.bondPerShare, tt.coins)
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	// Failed creations must not consume indices.
	require.Equal(t, 1, registry.Len())
}

func TestRegistryGetSetNotFound(t *testing.T) {
	registry, _, _ := newTestRegistry(t)

	_, err := registry.GetSet(1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRegistrySetForCoinUnassigned(t *testing.T) {
	registry, _, _ := newTestRegistry(t)

	_, err := registry.SetForCoin(ids.GenerateTestID())
	require.ErrorIs(t, err, ErrUnassignedCoin)
}

func TestRegistryMembershipDelta(t *testing.T) {
	require := require.New(t)

	registry, ledger, _ := newTestRegistry(t)
	a := ids.GenerateTestNodeID()
	require.NoError(ledger.SetBond(a, 1000))

	require.NoError(registry.ApplyMembershipDelta(0, a, 3))
	set, err := registry.GetSet(0)
	require.NoError(err)
	require.Equal(Shares(3), set.Shares(a))
	require.Equal(Amount(300), set.TotalBond())

	require.NoError(registry.ApplyMembershipDelta(0, a, -2))
	set, err = registry.GetSet(0)
	require.NoError(err)
	require.Equal(Shares(1), set.Shares(a))

	// Underflow is refused without mutating.
	err = registry.ApplyMembershipDelta(0, a, -5)
	require.ErrorIs(err, ErrNegativeShares)
	set, err = registry.GetSet(0)
	require.NoError(err)
	require.Equal(Shares(1), set.Shares(a))

	err = registry.ApplyMembershipDelta(7, a, 1)
	require.ErrorIs(err, ErrNotFound)
}

func TestRegistryObligationCap(t *testing.T) {
	require := require.New(t)

	registry, ledger, _ := newTestRegistry(t)
	a := ids.GenerateTestNodeID()
	require.NoError(ledger.SetBond(a, 250))

	// 3 shares at 100 per share would exceed the 250 bonded.
	err := registry.ApplyMembershipDelta(0, a, 3)
	require.ErrorIs(err, ErrInsufficientBond)

	require.NoError(registry.ApplyMembershipDelta(0, a, 2))

	// The cap applies across sets: one more share anywhere needs more bond.
	index, err := registry.CreateSet(100, []ids.ID{ids.GenerateTestID()})
	require.NoError(err)
	err = registry.ApplyMembershipDelta(index, a, 1)
	require.ErrorIs(err, ErrInsufficientBond)

	require.NoError(ledger.SetBond(a, 300))
	require.NoError(registry.ApplyMembershipDelta(index, a, 1))
}

func TestRegistryGenerationCounter(t *testing.T) {
	require := require.New(t)

	registry, ledger, _ := newTestRegistry(t)
	a := ids.GenerateTestNodeID()
	require.NoError(ledger.SetBond(a, 1000))

	generation, err := registry.Generation(0)
	require.NoError(err)
	require.Zero(generation)

	require.NoError(registry.ApplyMembershipDelta(0, a, 1))
	require.NoError(registry.ApplyMembershipDelta(0, a, 1))

	generation, err = registry.Generation(0)
	require.NoError(err)
	require.Equal(uint64(2), generation)

	// A zero delta is a no-op and does not bump the generation.
	require.NoError(registry.ApplyMembershipDelta(0, a, 0))
	generation, err = registry.Generation(0)
	require.NoError(err)
	require.Equal(uint64(2), generation)
}

func TestRegistryCoinAssignment(t *testing.T) {
	require := require.New(t)

	registry, _, genesisCoin := newTestRegistry(t)
	index, err := registry.CreateSet(10, []ids.ID{ids.GenerateTestID()})
	require.NoError(err)

	coin := ids.GenerateTestID()
	require.NoError(registry.AssignCoin(coin, index))
	owner, err := registry.SetForCoin(coin)
	require.NoError(err)
	require.Equal(index, owner)

	// Already-owned coins cannot be assigned again.
	err = registry.AssignCoin(coin, 0)
	require.ErrorIs(err, ErrInvalidConfig)

	// Ownership transfer moves the coin between the sets' coin lists.
	require.NoError(registry.ReassignCoin(genesisCoin, index))
	owner, err = registry.SetForCoin(genesisCoin)
	require.NoError(err)
	require.Equal(index, owner)

	genesis, err := registry.GetSet(0)
	require.NoError(err)
	require.Empty(genesis.Coins())

	err = registry.ReassignCoin(ids.GenerateTestID(), index)
	require.ErrorIs(err, ErrUnassignedCoin)
}

func TestRegistryEvents(t *testing.T) {
	require := require.New(t)

	registry, ledger, _ := newTestRegistry(t)
	events := registry.Subscribe(8)

	a := ids.GenerateTestNodeID()
	require.NoError(ledger.SetBond(a, 1000))
	require.NoError(registry.ApplyMembershipDelta(0, a, 2))

	ev := <-events
	require.Equal(EventMembershipUpdated, ev.Type)
	require.Equal(SetID(0), ev.Set)
	require.Equal(a, ev.Validator)
	require.Equal(Shares(2), ev.Shares)
	require.Equal(uint64(1), ev.Generation)

	index, err := registry.CreateSet(10, []ids.ID{ids.GenerateTestID()})
	require.NoError(err)
	ev = <-events
	require.Equal(EventSetCreated, ev.Type)
	require.Equal(index, ev.Set)
}

func TestRegistryApplyBondEvent(t *testing.T) {
	require := require.New(t)

	registry, ledger, _ := newTestRegistry(t)
	a := ids.GenerateTestNodeID()

	require.NoError(registry.ApplyBondEvent(BondEvent{
		Validator:    a,
		Set:          0,
		DeltaShares:  3,
		NewTotalBond: 300,
	}))
	require.Equal(Amount(300), ledger.BondOf(a))

	set, err := registry.GetSet(0)
	require.NoError(err)
	require.Equal(Shares(3), set.Shares(a))
}

func TestSnapshotIsolation(t *testing.T) {
	require := require.New(t)

	registry, ledger, genesisCoin := newTestRegistry(t)
	a := ids.GenerateTestNodeID()
	require.NoError(ledger.SetBond(a, 1000))
	require.NoError(registry.ApplyMembershipDelta(0, a, 3))

	snapshot := registry.Snapshot(1)

	// Later deltas and transfers are invisible to the snapshot.
	require.NoError(registry.ApplyMembershipDelta(0, a, 4))
	index, err := registry.CreateSet(10, []ids.ID{ids.GenerateTestID()})
	require.NoError(err)
	require.NoError(registry.ReassignCoin(genesisCoin, index))
	require.NoError(ledger.SetBond(a, 5000))

	require.Equal(uint64(1), snapshot.Height())

	set, err := snapshot.Set(0)
	require.NoError(err)
	require.Equal(Shares(3), set.Shares(a))

	owner, err := snapshot.SetForCoin(genesisCoin)
	require.NoError(err)
	require.Equal(SetID(0), owner)

	require.Equal(Amount(1000), snapshot.BondOf(a))
	require.Equal(Amount(1000), snapshot.TotalNetworkBond())

	total, err := snapshot.TotalSetBond(0)
	require.NoError(err)
	require.Equal(Amount(300), total)

	_, err = snapshot.Set(index + 1)
	require.ErrorIs(err, ErrNotFound)
}

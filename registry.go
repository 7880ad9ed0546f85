// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package custody

import (
	"fmt"
	"sync"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"
)

// Registry owns the ordered, append-only sequence of validator sets. Set
// indices form a gapless, strictly increasing sequence starting at 0; set 0
// is created at genesis and owns the initial coin list. Sets are never
// deleted.
type Registry struct {
	mu        sync.RWMutex
	log       log.Logger
	ledger    *Ledger
	sets      []*ValidatorSet
	coinOwner map[ids.ID]SetID
	subs      []chan Event
}

// NewRegistry creates a registry with the genesis validator set (set 0)
// owning the initial coin list.
func NewRegistry(
	logger log.Logger,
	ledger *Ledger,
	genesisBondPerShare Amount,
	genesisCoins []ids.ID,
) (*Registry, error) {
	r := &Registry{
		log:       logger,
		ledger:    ledger,
		coinOwner: make(map[ids.ID]SetID),
	}
	if _, err := r.CreateSet(genesisBondPerShare, genesisCoins); err != nil {
		return nil, fmt.Errorf("failed to create genesis set: %w", err)
	}
	return r, nil
}

// Subscribe returns a channel receiving registry events. Events are dropped
// rather than block the registry if the subscriber falls behind.
func (r *Registry) Subscribe(buffer int) <-chan Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub := make(chan Event, buffer)
	r.subs = append(r.subs, sub)
	return sub
}

// CreateSet appends a new validator set with the next index. The set starts
// with no members; membership arrives through ApplyMembershipDelta.
func (r *Registry) CreateSet(bondPerShare Amount, coins []ids.ID) (SetID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if bondPerShare == 0 {
		return 0, fmt.Errorf("%w: zero bond per share", ErrInvalidConfig)
	}
	if len(coins) == 0 {
		return 0, fmt.Errorf("%w: empty coin list", ErrInvalidConfig)
	}
	seen := make(map[ids.ID]struct{}, len(coins))
	for _, coin := range coins {
		if _, ok := seen[coin]; ok {
			return 0, fmt.Errorf("%w: duplicate coin %s", ErrInvalidConfig, coin)
		}
		seen[coin] = struct{}{}
		if owner, ok := r.coinOwner[coin]; ok {
			return 0, fmt.Errorf(
				"%w: coin %s already owned by set %d",
				ErrInvalidConfig, coin, owner,
			)
		}
	}

	index := SetID(len(r.sets))
	set := newValidatorSet(index, bondPerShare, coins)
	r.sets = append(r.sets, set)
	for _, coin := range coins {
		r.coinOwner[coin] = index
	}

	r.log.Info(
		"created validator set",
		log.Uint32("index", uint32(index)),
		log.Uint64("bondPerShare", uint64(bondPerShare)),
		log.Int("coins", len(coins)),
	)
	r.publish(Event{Type: EventSetCreated, Set: index})
	return index, nil
}

// GetSet returns a copy of the validator set at the given index.
func (r *Registry) GetSet(index SetID) (*ValidatorSet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, err := r.setLocked(index)
	if err != nil {
		return nil, err
	}
	return set.clone(), nil
}

// SetForCoin returns the index of the set currently responsible for the
// coin.
func (r *Registry) SetForCoin(coin ids.ID) (SetID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	owner, ok := r.coinOwner[coin]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnassignedCoin, coin)
	}
	return owner, nil
}

// ApplyMembershipDelta mutates the named set's membership by the signed
// share delta. A positive delta is refused if the validator's aggregate
// custody obligation across all sets would exceed its bonded amount in the
// ledger.
func (r *Registry) ApplyMembershipDelta(index SetID, nodeID ids.NodeID, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, err := r.setLocked(index)
	if err != nil {
		return err
	}
	if delta == 0 {
		return nil
	}

	current := set.Shares(nodeID)
	var newShares Shares
	if delta < 0 {
		dec := Shares(-delta)
		if dec > current {
			return fmt.Errorf(
				"%w: validator %s has %d shares in set %d, delta %d",
				ErrNegativeShares, nodeID, current, index, delta,
			)
		}
		newShares = current - dec
	} else {
		added, err := AddAmount(Amount(current), Amount(delta))
		if err != nil {
			return err
		}
		newShares = Shares(added)
		if err := r.checkObligationLocked(nodeID, index, newShares); err != nil {
			return err
		}
	}

	if err := set.setShares(nodeID, newShares); err != nil {
		return err
	}
	set.generation++

	r.log.Debug(
		"applied membership delta",
		log.Uint32("set", uint32(index)),
		log.Stringer("nodeID", nodeID),
		log.Uint64("shares", uint64(newShares)),
		log.Uint64("generation", set.generation),
	)
	r.publish(Event{
		Type:       EventMembershipUpdated,
		Set:        index,
		Validator:  nodeID,
		Shares:     newShares,
		Generation: set.generation,
	})
	return nil
}

// AssignCoin adds an unowned coin to an existing set. Coin assignment moves
// only through protocol-level events; this is that entry point.
func (r *Registry) AssignCoin(coin ids.ID, index SetID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, err := r.setLocked(index)
	if err != nil {
		return err
	}
	if owner, ok := r.coinOwner[coin]; ok {
		return fmt.Errorf(
			"%w: coin %s already owned by set %d",
			ErrInvalidConfig, coin, owner,
		)
	}

	set.coins = append(set.coins, coin)
	r.coinOwner[coin] = index
	r.publish(Event{Type: EventCoinAssigned, Set: index, Coin: coin})
	return nil
}

// ReassignCoin transfers ownership of a coin to another set. Blocks
// evaluated against snapshots taken before the transfer keep seeing the old
// owner.
func (r *Registry) ReassignCoin(coin ids.ID, to SetID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	newOwner, err := r.setLocked(to)
	if err != nil {
		return err
	}
	from, ok := r.coinOwner[coin]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnassignedCoin, coin)
	}
	if from == to {
		return nil
	}

	oldOwner, err := r.setLocked(from)
	if err != nil {
		return err
	}
	for i, owned := range oldOwner.coins {
		if owned == coin {
			oldOwner.coins = append(oldOwner.coins[:i], oldOwner.coins[i+1:]...)
			break
		}
	}
	newOwner.coins = append(newOwner.coins, coin)
	r.coinOwner[coin] = to

	r.log.Info(
		"reassigned coin",
		log.String("coin", coin.String()),
		log.Uint32("from", uint32(from)),
		log.Uint32("to", uint32(to)),
	)
	r.publish(Event{Type: EventCoinReassigned, Set: to, Coin: coin})
	return nil
}

// Generation returns the set's membership generation counter.
func (r *Registry) Generation(index SetID) (uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, err := r.setLocked(index)
	if err != nil {
		return 0, err
	}
	return set.generation, nil
}

// TotalSetBond returns the total bond value backing the set.
func (r *Registry) TotalSetBond(index SetID) (Amount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, err := r.setLocked(index)
	if err != nil {
		return 0, err
	}
	return set.TotalBond(), nil
}

// Len returns the number of validator sets ever created.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sets)
}

// Snapshot captures an immutable view of all validator sets, coin
// ownership, and bond balances for evaluating the block at the given
// height. Deltas applied after the snapshot are not visible through it.
func (r *Registry) Snapshot(height uint64) *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sets := make([]*ValidatorSet, len(r.sets))
	for i, set := range r.sets {
		sets[i] = set.clone()
	}
	coinOwner := make(map[ids.ID]SetID, len(r.coinOwner))
	for coin, owner := range r.coinOwner {
		coinOwner[coin] = owner
	}
	bonds, total := r.ledger.balances()

	return &Snapshot{
		height:    height,
		sets:      sets,
		coinOwner: coinOwner,
		bonds:     bonds,
		totalBond: total,
	}
}

// BondEvent is one entry of the external bond and membership delta stream.
type BondEvent struct {
	Validator    ids.NodeID
	Set          SetID
	DeltaShares  int64
	NewTotalBond Amount
}

// ApplyBondEvent applies the ledger update and then the membership delta.
// Events must be applied in stream order.
func (r *Registry) ApplyBondEvent(ev BondEvent) error {
	if err := r.ledger.SetBond(ev.Validator, ev.NewTotalBond); err != nil {
		return err
	}
	return r.ApplyMembershipDelta(ev.Set, ev.Validator, ev.DeltaShares)
}

func (r *Registry) setLocked(index SetID) (*ValidatorSet, error) {
	if int(index) >= len(r.sets) {
		return nil, fmt.Errorf("%w: index %d", ErrNotFound, index)
	}
	return r.sets[index], nil
}

// checkObligationLocked verifies that the validator's custody obligation
// across all sets, with the proposed share count in the named set, stays
// within its bonded amount.
func (r *Registry) checkObligationLocked(nodeID ids.NodeID, index SetID, newShares Shares) error {
	var obligation Amount
	for _, set := range r.sets {
		shares := set.Shares(nodeID)
		if set.index == index {
			shares = newShares
		}
		setBond, err := MulAmount(shares, set.bondPerShare)
		if err != nil {
			return err
		}
		obligation, err = AddAmount(obligation, setBond)
		if err != nil {
			return err
		}
	}

	bonded := r.ledger.BondOf(nodeID)
	if obligation > bonded {
		return fmt.Errorf(
			"%w: validator %s obligation %d exceeds bond %d",
			ErrInsufficientBond, nodeID, obligation, bonded,
		)
	}
	return nil
}

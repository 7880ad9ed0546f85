// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package custody

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
)

// Engine is the dual-majority gate. Given a block's embedded oraclizations
// and the finalized BFT vote tally, it decides accept or reject per
// oraclization. An oraclization is accepted iff the bond-weighted approvals
// within the coin's responsible set and the bond-weighted approvals across
// the whole network each strictly exceed half of their respective totals.
// The two checks have different denominators and are evaluated
// independently, then combined.
type Engine struct {
	log     log.Logger
	metrics *engineMetrics
}

// NewEngine returns an approval engine. The registerer may be nil to
// disable metrics.
func NewEngine(logger log.Logger, registerer prometheus.Registerer) *Engine {
	e := &Engine{log: logger}
	if registerer != nil {
		e.metrics = newEngineMetrics(registerer)
	}
	return e
}

// EvaluateBlock evaluates every oraclization embedded in a block against
// the snapshot and the block's finalized vote tally, returning one verdict
// per oraclization in input order. The tally must be final: a partial tally
// returns ErrNotFinal and no verdicts. Evaluation is deterministic, so
// re-evaluating the same finalized block yields identical verdicts.
func (e *Engine) EvaluateBlock(
	snapshot *Snapshot,
	tally *Tally,
	oraclizations []*Oraclization,
) ([]Verdict, error) {
	if !tally.Final {
		return nil, ErrNotFinal
	}

	networkMajority := e.networkMajority(snapshot, tally)

	// The set-scoped majority depends only on the responsible set, so
	// compute it once per set regardless of how many oraclizations share
	// an owner.
	setMajorities := make(map[SetID]bool)

	verdicts := make([]Verdict, 0, len(oraclizations))
	for _, oracl := range oraclizations {
		verdicts = append(verdicts, e.evaluate(
			snapshot, tally, oracl, networkMajority, setMajorities,
		))
	}

	if e.metrics != nil {
		e.metrics.blocksEvaluated.Inc()
	}
	for _, verdict := range verdicts {
		e.metrics.observe(verdict)
	}
	return verdicts, nil
}

func (e *Engine) evaluate(
	snapshot *Snapshot,
	tally *Tally,
	oracl *Oraclization,
	networkMajority bool,
	setMajorities map[SetID]bool,
) Verdict {
	owner, err := snapshot.SetForCoin(oracl.Coin)
	if err != nil {
		return Verdict{Coin: oracl.Coin, Status: StatusRejected, Reason: ReasonUnassignedCoin}
	}

	// Producer eligibility is a pre-filter: an ineligible producer rejects
	// the oraclization before any vote weighing.
	if !snapshot.EligibleProducer(tally.Producer, oracl.Coin) {
		e.log.Warn(
			"oraclization from ineligible producer",
			log.Stringer("producer", tally.Producer),
			log.String("coin", oracl.Coin.String()),
			log.Uint64("height", tally.Height),
		)
		return Verdict{Coin: oracl.Coin, Status: StatusRejected, Reason: ReasonIneligibleProducer}
	}

	setMajority, ok := setMajorities[owner]
	if !ok {
		setMajority = e.setMajority(snapshot, tally, owner)
		setMajorities[owner] = setMajority
	}
	if !setMajority {
		return Verdict{Coin: oracl.Coin, Status: StatusRejected, Reason: ReasonNoSetMajority}
	}
	if !networkMajority {
		return Verdict{Coin: oracl.Coin, Status: StatusRejected, Reason: ReasonNoNetworkMajority}
	}
	return Verdict{Coin: oracl.Coin, Status: StatusAccepted}
}

// setMajority reports whether approving members of the set hold a strict
// bond-weighted majority within it. Weight inside a set is shares times the
// set's bond-per-share, so a few high-bond validators and many low-bond
// validators with equal aggregate weight are treated identically.
func (e *Engine) setMajority(snapshot *Snapshot, tally *Tally, index SetID) bool {
	set, err := snapshot.Set(index)
	if err != nil {
		return false
	}

	approved := new(uint256.Int)
	weight := new(uint256.Int)
	for nodeID, vote := range tally.Votes {
		if vote != VoteApprove {
			continue
		}
		shares := set.Shares(nodeID)
		if shares == 0 {
			continue
		}
		weight.SetUint64(uint64(shares))
		weight.Mul(weight, uint256.NewInt(uint64(set.BondPerShare())))
		approved.Add(approved, weight)
	}

	total := new(uint256.Int).SetUint64(uint64(set.TotalBond()))
	return exceedsHalf(approved, total)
}

// networkMajority reports whether approving validators hold a strict
// bond-weighted majority of the whole network's bond. This denominator is
// the ledger total, not any single set's.
func (e *Engine) networkMajority(snapshot *Snapshot, tally *Tally) bool {
	approved := new(uint256.Int)
	bond := new(uint256.Int)
	for nodeID, vote := range tally.Votes {
		if vote != VoteApprove {
			continue
		}
		bond.SetUint64(uint64(snapshot.BondOf(nodeID)))
		approved.Add(approved, bond)
	}

	total := new(uint256.Int).SetUint64(uint64(snapshot.TotalNetworkBond()))
	return exceedsHalf(approved, total)
}

// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package custody

// SetID is the index of a validator set. Indices are assigned by the
// registry as a gapless, strictly increasing sequence starting at 0 and are
// never reused.
type SetID uint32

// Shares is a validator's voting weight within a single validator set. One
// share represents BondPerShare of bonded value.
type Shares uint64

// Amount is a bonded value denominated in the base asset.
type Amount uint64

// Vote is a validator's vote on a block's oraclizations, as reported in the
// finalized BFT tally. A validator absent from the tally is treated as
// abstaining.
type Vote uint8

const (
	VoteAbstain Vote = iota
	VoteApprove
	VoteReject
)

// Status is the terminal state of an evaluated oraclization.
type Status uint8

const (
	StatusAccepted Status = iota
	StatusRejected
)

func (s Status) String() string {
	if s == StatusAccepted {
		return "accepted"
	}
	return "rejected"
}

// Reason qualifies a rejection verdict.
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonIneligibleProducer
	ReasonUnassignedCoin
	ReasonNoSetMajority
	ReasonNoNetworkMajority
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonIneligibleProducer:
		return "ineligible producer"
	case ReasonUnassignedCoin:
		return "unassigned coin"
	case ReasonNoSetMajority:
		return "no set majority"
	case ReasonNoNetworkMajority:
		return "no network majority"
	default:
		return "unknown"
	}
}

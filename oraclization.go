// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package custody

import "github.com/luxfi/ids"

// Oraclization is a block-embedded attestation about external chain state
// for a specific coin. The payload is opaque to this library; only the coin
// tag participates in approval.
type Oraclization struct {
	Coin    ids.ID
	Payload []byte
}

// Tally is a block's finalized vote result from the BFT layer. Validators
// absent from Votes abstain. Final must be set by the caller once the BFT
// layer has closed the tally; evaluating a non-final tally is a caller
// error.
type Tally struct {
	Height   uint64
	Producer ids.NodeID
	Votes    map[ids.NodeID]Vote
	Final    bool
}

// Verdict is the terminal accept/reject decision for one oraclization.
// Verdicts are reported once per oraclization per block and never mutated
// afterward.
type Verdict struct {
	Coin   ids.ID
	Status Status
	Reason Reason
}

// Accepted returns true for an accepted verdict.
func (v Verdict) Accepted() bool {
	return v.Status == StatusAccepted
}

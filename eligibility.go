// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package custody

import "github.com/luxfi/ids"

// EligibleProducer returns true if the producer holds positive shares in
// the set responsible for the coin at the snapshot's height. An
// oraclization for a coin may only be embedded in a block whose producer
// passes this check; it is a pre-filter, not an approval decision.
func (s *Snapshot) EligibleProducer(producer ids.NodeID, coin ids.ID) bool {
	owner, err := s.SetForCoin(coin)
	if err != nil {
		return false
	}
	set, err := s.Set(owner)
	if err != nil {
		return false
	}
	return set.IsMember(producer)
}

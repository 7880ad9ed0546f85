// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package custody

import "errors"

var (
	// ErrInvalidConfig is returned when a validator set cannot be created
	// from the supplied configuration.
	ErrInvalidConfig = errors.New("invalid validator set configuration")

	// ErrNotFound is returned when a validator set index has never been
	// assigned.
	ErrNotFound = errors.New("validator set not found")

	// ErrUnassignedCoin is returned when no validator set currently owns
	// the requested coin.
	ErrUnassignedCoin = errors.New("coin has no responsible validator set")

	// ErrNegativeShares is returned when a membership delta would drive a
	// validator's share count below zero.
	ErrNegativeShares = errors.New("membership shares would go negative")

	// ErrInsufficientBond is returned when a membership delta would commit
	// more custody obligation than the validator has bonded.
	ErrInsufficientBond = errors.New("custody obligation exceeds bonded amount")

	// ErrNotFinal is returned when a block evaluation is attempted on a
	// vote tally that has not been finalized by the BFT layer. This is a
	// caller contract violation, not a recoverable verdict.
	ErrNotFinal = errors.New("vote tally is not final")

	// ErrOverflow is returned when a bond computation exceeds uint64.
	ErrOverflow = errors.New("bond arithmetic overflow")
)

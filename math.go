// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package custody

import (
	"math"

	"github.com/holiman/uint256"
)

// Custody safety margin: a validator set's multisig may hold at most
// 67/100 of the bond value backing it.
const (
	MarginNumerator   = 67
	MarginDenominator = 100
)

// AddAmount adds two amounts and returns ErrOverflow if the sum exceeds
// uint64.
func AddAmount(a, b Amount) (Amount, error) {
	if a > math.MaxUint64-b {
		return 0, ErrOverflow
	}
	return a + b, nil
}

// MulAmount multiplies shares by a per-share bond value and returns
// ErrOverflow if the product exceeds uint64.
func MulAmount(shares Shares, perShare Amount) (Amount, error) {
	if shares == 0 || perShare == 0 {
		return 0, nil
	}
	if uint64(shares) > math.MaxUint64/uint64(perShare) {
		return 0, ErrOverflow
	}
	return Amount(uint64(shares) * uint64(perShare)), nil
}

// exceedsHalf reports whether part strictly exceeds half of total. Exact
// equality to 50% does not satisfy a majority; a split-bond deadlock must
// never be accepted.
func exceedsHalf(part, total *uint256.Int) bool {
	doubled := new(uint256.Int).Lsh(part, 1)
	return doubled.Cmp(total) > 0
}

// marginOf returns num/den of total, truncating toward zero. The result
// always fits uint64 for num <= den.
func marginOf(total Amount, num, den uint64) Amount {
	v := new(uint256.Int).SetUint64(uint64(total))
	v.Mul(v, uint256.NewInt(num))
	v.Div(v, uint256.NewInt(den))
	return Amount(v.Uint64())
}

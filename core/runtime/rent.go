package runtime

import (
	"math"

	gethmath "github.com/ethereum/go-ethereum/common/math"
)

// AccountStorageOverhead is charged on top of the data length of every
// account to cover its envelope.
const AccountStorageOverhead uint64 = 128

// Rent is the lamport price of keeping an account alive. Accounts are
// allocated rent exempt: the full minimum balance is paid up front.
type Rent struct {
	LamportsPerByteYear uint64
	ExemptionThreshold  uint64
}

// DefaultRent is the mainnet schedule: 3480 lamports per byte-year, exempt
// after two years.
func DefaultRent() Rent {
	return Rent{LamportsPerByteYear: 3480, ExemptionThreshold: 2}
}

// MinimumBalance returns the lamports required to allocate space bytes. A
// schedule that overflows saturates at math.MaxUint64, which no payer can
// cover.
func (r Rent) MinimumBalance(space uint64) uint64 {
	bytes, overflow := gethmath.SafeAdd(AccountStorageOverhead, space)
	if overflow {
		return math.MaxUint64
	}
	perYear, overflow := gethmath.SafeMul(bytes, r.LamportsPerByteYear)
	if overflow {
		return math.MaxUint64
	}
	total, overflow := gethmath.SafeMul(perYear, r.ExemptionThreshold)
	if overflow {
		return math.MaxUint64
	}
	return total
}

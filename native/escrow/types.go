package escrow

import (
	"fmt"
	"math/big"
)

// RequiredScore is the minimum oracle verification score at which the escrow
// becomes eligible for release to the influencer. Scores below it route the
// funds back to the brand.
const RequiredScore uint8 = 95

// FeeBps is the platform fee withheld from every deposit, in basis points.
// The division truncates, rounding the fee down in the platform's favour.
const FeeBps uint32 = 300

const feeDenominator = 10_000

// MaxScore bounds oracle submissions; anything above is structurally invalid.
const MaxScore uint8 = 100

// Deal is the escrow record for a single brand/influencer sponsorship. One
// record is created per deal identifier and mutated in place until it reaches
// exactly one of the paid or refunded terminal states, after which it is
// immutable.
type Deal struct {
	ID                [32]byte
	Oracle            [20]byte
	OracleSet         bool
	Brand             [20]byte
	Influencer        [20]byte
	EscrowBalance     *big.Int
	PlatformFee       *big.Int
	VerificationScore uint8
	Verified          bool
	RetentionEndTick  uint64
	CreatedAtTick     uint64
	Active            bool
	Paid              bool
	Refunded          bool
}

// Clone returns a deep copy of the deal so callers can safely mutate the copy
// without affecting the stored instance.
func (d *Deal) Clone() *Deal {
	if d == nil {
		return nil
	}
	clone := *d
	if d.EscrowBalance != nil {
		clone.EscrowBalance = new(big.Int).Set(d.EscrowBalance)
	} else {
		clone.EscrowBalance = big.NewInt(0)
	}
	if d.PlatformFee != nil {
		clone.PlatformFee = new(big.Int).Set(d.PlatformFee)
	} else {
		clone.PlatformFee = big.NewInt(0)
	}
	return &clone
}

// Resolved reports whether the deal has reached a terminal state.
func (d *Deal) Resolved() bool {
	if d == nil {
		return false
	}
	return d.Paid || d.Refunded
}

// Amount returns the total originally deposited: held principal plus the
// withheld platform fee.
func (d *Deal) Amount() *big.Int {
	total := big.NewInt(0)
	if d == nil {
		return total
	}
	if d.EscrowBalance != nil {
		total.Add(total, d.EscrowBalance)
	}
	if d.PlatformFee != nil {
		total.Add(total, d.PlatformFee)
	}
	return total
}

// SanitizeDeal validates and normalises the supplied record, returning a
// cloned instance with non-nil amount fields. The function does not mutate
// the original value.
func SanitizeDeal(d *Deal) (*Deal, error) {
	if d == nil {
		return nil, fmt.Errorf("nil deal")
	}
	clone := d.Clone()
	if clone.EscrowBalance.Sign() < 0 {
		return nil, fmt.Errorf("escrow balance must be non-negative")
	}
	if clone.PlatformFee.Sign() < 0 {
		return nil, fmt.Errorf("platform fee must be non-negative")
	}
	if clone.VerificationScore > MaxScore {
		return nil, fmt.Errorf("verification score out of range: %d", clone.VerificationScore)
	}
	if clone.Paid && clone.Refunded {
		return nil, fmt.Errorf("deal cannot be both paid and refunded")
	}
	if clone.Active && clone.Resolved() {
		return nil, fmt.Errorf("resolved deal cannot remain active")
	}
	if !clone.Verified && clone.VerificationScore != 0 {
		return nil, fmt.Errorf("score recorded without verification flag")
	}
	return clone, nil
}

// SplitFee computes the platform fee and the net escrow balance for a
// deposit. Integer arithmetic only; the fee truncates toward zero.
func SplitFee(amount *big.Int) (fee, net *big.Int) {
	total := big.NewInt(0)
	if amount != nil {
		total.Set(amount)
	}
	fee = new(big.Int).Mul(total, big.NewInt(int64(FeeBps)))
	fee.Quo(fee, big.NewInt(feeDenominator))
	net = new(big.Int).Sub(total, fee)
	return fee, net
}

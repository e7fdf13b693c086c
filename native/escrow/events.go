package escrow

import (
	"encoding/hex"
	"strconv"

	"sponsornet/core/types"
)

const (
	EventTypeOracleBound    = "escrow.oracle_bound"
	EventTypeDeposited      = "escrow.deposited"
	EventTypeScoreSubmitted = "escrow.score_submitted"
	EventTypeReleased       = "escrow.released"
	EventTypeRefunded       = "escrow.refunded"
)

// NewOracleBoundEvent returns the canonical payload emitted when the
// verification oracle is assigned to a deal.
func NewOracleBoundEvent(d *Deal) *types.Event { return newDealEvent(EventTypeOracleBound, d) }

// NewDepositedEvent returns the canonical payload emitted when a brand funds
// the escrow.
func NewDepositedEvent(d *Deal) *types.Event { return newDealEvent(EventTypeDeposited, d) }

// NewScoreSubmittedEvent returns the canonical payload emitted when the
// oracle records the verification score.
func NewScoreSubmittedEvent(d *Deal) *types.Event { return newDealEvent(EventTypeScoreSubmitted, d) }

// NewReleasedEvent returns the canonical payload for a release of escrowed
// funds to the influencer.
func NewReleasedEvent(d *Deal) *types.Event { return newDealEvent(EventTypeReleased, d) }

// NewRefundedEvent returns the canonical payload for an escrow refund to the
// brand.
func NewRefundedEvent(d *Deal) *types.Event { return newDealEvent(EventTypeRefunded, d) }

func newDealEvent(eventType string, d *Deal) *types.Event {
	attrs := make(map[string]string)
	if d == nil {
		return &types.Event{Type: eventType, Attributes: attrs}
	}
	sanitized, err := SanitizeDeal(d)
	if err != nil {
		return &types.Event{Type: eventType, Attributes: attrs}
	}
	attrs["id"] = hex.EncodeToString(sanitized.ID[:])
	if sanitized.OracleSet {
		attrs["oracle"] = hex.EncodeToString(sanitized.Oracle[:])
	}
	if sanitized.Brand != ([20]byte{}) {
		attrs["brand"] = hex.EncodeToString(sanitized.Brand[:])
	}
	if sanitized.Influencer != ([20]byte{}) {
		attrs["influencer"] = hex.EncodeToString(sanitized.Influencer[:])
	}
	attrs["escrowBalance"] = sanitized.EscrowBalance.String()
	attrs["platformFee"] = sanitized.PlatformFee.String()
	if sanitized.Verified {
		attrs["score"] = strconv.FormatUint(uint64(sanitized.VerificationScore), 10)
	}
	attrs["retentionEndTick"] = strconv.FormatUint(sanitized.RetentionEndTick, 10)
	attrs["active"] = strconv.FormatBool(sanitized.Active)
	attrs["paid"] = strconv.FormatBool(sanitized.Paid)
	attrs["refunded"] = strconv.FormatBool(sanitized.Refunded)
	return &types.Event{Type: eventType, Attributes: attrs}
}

package escrow

import (
	"encoding/hex"
	"math/big"
	"testing"
)

func TestDealEventAttributes(t *testing.T) {
	deal := &Deal{
		ID:                newTestDealID(0x77),
		Oracle:            newTestAddress(0x01),
		OracleSet:         true,
		Brand:             newTestAddress(0x02),
		Influencer:        newTestAddress(0x03),
		EscrowBalance:     big.NewInt(97_000),
		PlatformFee:       big.NewInt(3_000),
		Verified:          true,
		VerificationScore: 97,
		RetentionEndTick:  4_200,
		Active:            true,
	}

	evt := NewDepositedEvent(deal)
	if evt.Type != EventTypeDeposited {
		t.Fatalf("unexpected type %q", evt.Type)
	}
	attrs := evt.Attributes
	if attrs["id"] != hex.EncodeToString(deal.ID[:]) {
		t.Fatalf("unexpected id attribute %q", attrs["id"])
	}
	if attrs["oracle"] != hex.EncodeToString(deal.Oracle[:]) {
		t.Fatalf("unexpected oracle attribute %q", attrs["oracle"])
	}
	if attrs["escrowBalance"] != "97000" || attrs["platformFee"] != "3000" {
		t.Fatalf("unexpected amounts: balance=%q fee=%q", attrs["escrowBalance"], attrs["platformFee"])
	}
	if attrs["score"] != "97" {
		t.Fatalf("unexpected score attribute %q", attrs["score"])
	}
	if attrs["retentionEndTick"] != "4200" {
		t.Fatalf("unexpected retention attribute %q", attrs["retentionEndTick"])
	}
	if attrs["active"] != "true" || attrs["paid"] != "false" || attrs["refunded"] != "false" {
		t.Fatalf("unexpected lifecycle flags: %v", attrs)
	}
}

func TestDealEventOmitsUnsetParticipants(t *testing.T) {
	deal := &Deal{ID: newTestDealID(0x78), EscrowBalance: big.NewInt(0), PlatformFee: big.NewInt(0)}
	evt := NewOracleBoundEvent(deal)
	attrs := evt.Attributes
	if _, ok := attrs["oracle"]; ok {
		t.Fatalf("oracle attribute present before binding")
	}
	if _, ok := attrs["brand"]; ok {
		t.Fatalf("brand attribute present before deposit")
	}
	if _, ok := attrs["score"]; ok {
		t.Fatalf("score attribute present before verification")
	}
}

func TestDealEventTolerantOfNil(t *testing.T) {
	evt := NewRefundedEvent(nil)
	if evt == nil || evt.Type != EventTypeRefunded {
		t.Fatalf("expected typed event for nil deal")
	}
	if len(evt.Attributes) != 0 {
		t.Fatalf("expected empty attributes, got %v", evt.Attributes)
	}
}

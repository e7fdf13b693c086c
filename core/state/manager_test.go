package state

import (
	"math/big"
	"testing"

	"sponsornet/core/types"
	"sponsornet/native/escrow"
	"sponsornet/storage"
)

func testAddress(fill byte) []byte {
	addr := make([]byte, 20)
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

func testDealID(fill byte) [32]byte {
	var id [32]byte
	for i := range id {
		id[i] = fill
	}
	return id
}

func TestGetAccountDefaultsToZero(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	acc, err := manager.GetAccount(testAddress(0x01))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if acc.Nonce != 0 || acc.Balance.Sign() != 0 {
		t.Fatalf("expected zero account, got nonce=%d balance=%s", acc.Nonce, acc.Balance)
	}
}

func TestAccountRoundTrip(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	addr := testAddress(0x02)
	acc := &types.Account{Nonce: 7, Balance: big.NewInt(123_456)}
	if err := manager.PutAccount(addr, acc); err != nil {
		t.Fatalf("put: %v", err)
	}
	loaded, err := manager.GetAccount(addr)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.Nonce != 7 || loaded.Balance.String() != "123456" {
		t.Fatalf("unexpected account: nonce=%d balance=%s", loaded.Nonce, loaded.Balance)
	}
}

func TestPutAccountRejectsNil(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	if err := manager.PutAccount(testAddress(0x03), nil); err == nil {
		t.Fatalf("expected error for nil account")
	}
}

func TestEscrowRoundTrip(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	id := testDealID(0x10)
	var oracle, brand, influencer [20]byte
	copy(oracle[:], testAddress(0x11))
	copy(brand[:], testAddress(0x12))
	copy(influencer[:], testAddress(0x13))

	deal := &escrow.Deal{
		ID:                id,
		Oracle:            oracle,
		OracleSet:         true,
		Brand:             brand,
		Influencer:        influencer,
		EscrowBalance:     big.NewInt(97_000),
		PlatformFee:       big.NewInt(3_000),
		Verified:          true,
		VerificationScore: 96,
		RetentionEndTick:  9_000,
		CreatedAtTick:     100,
		Active:            true,
	}
	if err := manager.EscrowPut(deal); err != nil {
		t.Fatalf("put: %v", err)
	}

	loaded, ok := manager.EscrowGet(id)
	if !ok {
		t.Fatalf("deal not found after put")
	}
	if loaded.Oracle != oracle || loaded.Brand != brand || loaded.Influencer != influencer {
		t.Fatalf("participants lost in round trip")
	}
	if loaded.EscrowBalance.String() != "97000" || loaded.PlatformFee.String() != "3000" {
		t.Fatalf("amounts lost: balance=%s fee=%s", loaded.EscrowBalance, loaded.PlatformFee)
	}
	if !loaded.Verified || loaded.VerificationScore != 96 {
		t.Fatalf("verification lost: verified=%v score=%d", loaded.Verified, loaded.VerificationScore)
	}
	if loaded.RetentionEndTick != 9_000 || loaded.CreatedAtTick != 100 {
		t.Fatalf("ticks lost: retention=%d created=%d", loaded.RetentionEndTick, loaded.CreatedAtTick)
	}
	if !loaded.Active {
		t.Fatalf("lifecycle flag lost")
	}
}

func TestEscrowPutSanitizes(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	invalid := &escrow.Deal{
		ID:            testDealID(0x20),
		EscrowBalance: big.NewInt(-1),
	}
	if err := manager.EscrowPut(invalid); err == nil {
		t.Fatalf("expected sanitize error")
	}
	if _, ok := manager.EscrowGet(invalid.ID); ok {
		t.Fatalf("invalid record was persisted")
	}
}

func TestEscrowGetMissing(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	if _, ok := manager.EscrowGet(testDealID(0x30)); ok {
		t.Fatalf("expected missing deal")
	}
}

func TestTickPersistence(t *testing.T) {
	db := storage.NewMemDB()
	manager := NewManager(db)

	tick, err := manager.TickGet()
	if err != nil {
		t.Fatalf("initial get: %v", err)
	}
	if tick != 0 {
		t.Fatalf("expected zero tick, got %d", tick)
	}

	if err := manager.TickPut(12_345); err != nil {
		t.Fatalf("put: %v", err)
	}

	// A manager over the same database observes the persisted clock.
	reopened := NewManager(db)
	tick, err = reopened.TickGet()
	if err != nil {
		t.Fatalf("get after put: %v", err)
	}
	if tick != 12_345 {
		t.Fatalf("expected 12345, got %d", tick)
	}
}

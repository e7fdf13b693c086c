package state

import (
	"fmt"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"sponsornet/core/types"
	"sponsornet/native/escrow"
	"sponsornet/storage"
)

// Manager reads and writes ledger state through a key-value database. Every
// record is RLP-encoded under a hashed, prefixed key.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

var (
	accountPrefix = []byte("account:")
	escrowPrefix  = []byte("escrow:")
	tickKey       = ethcrypto.Keccak256([]byte("host-tick"))
)

func accountKey(addr []byte) []byte {
	buf := make([]byte, len(accountPrefix)+len(addr))
	copy(buf, accountPrefix)
	copy(buf[len(accountPrefix):], addr)
	return ethcrypto.Keccak256(buf)
}

func escrowKey(id [32]byte) []byte {
	buf := make([]byte, len(escrowPrefix)+len(id))
	copy(buf, escrowPrefix)
	copy(buf[len(escrowPrefix):], id[:])
	return ethcrypto.Keccak256(buf)
}

// GetAccount loads the account stored at the address, returning a zeroed
// account when none exists yet.
func (m *Manager) GetAccount(addr []byte) (*types.Account, error) {
	data, err := m.db.Get(accountKey(addr))
	if err != nil {
		if err == storage.ErrNotFound {
			return types.NewAccount(), nil
		}
		return nil, err
	}
	var stored storedAccount
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, fmt.Errorf("state: decode account: %w", err)
	}
	return stored.toAccount(), nil
}

// PutAccount persists the account at the address.
func (m *Manager) PutAccount(addr []byte, account *types.Account) error {
	if account == nil {
		return fmt.Errorf("state: nil account")
	}
	encoded, err := rlp.EncodeToBytes(newStoredAccount(account))
	if err != nil {
		return fmt.Errorf("state: encode account: %w", err)
	}
	return m.db.Put(accountKey(addr), encoded)
}

// EscrowPut sanitises and persists the deal record.
func (m *Manager) EscrowPut(d *escrow.Deal) error {
	sanitized, err := escrow.SanitizeDeal(d)
	if err != nil {
		return fmt.Errorf("state: %w", err)
	}
	encoded, err := rlp.EncodeToBytes(newStoredDeal(sanitized))
	if err != nil {
		return fmt.Errorf("state: encode deal: %w", err)
	}
	return m.db.Put(escrowKey(sanitized.ID), encoded)
}

// EscrowGet loads the deal record for the identifier. A decode failure is
// treated as absence; the record cannot be half-read.
func (m *Manager) EscrowGet(id [32]byte) (*escrow.Deal, bool) {
	data, err := m.db.Get(escrowKey(id))
	if err != nil {
		return nil, false
	}
	var stored storedDeal
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, false
	}
	return stored.toDeal(), true
}

// TickPut persists the host clock so restarts never observe time moving
// backwards.
func (m *Manager) TickPut(tick uint64) error {
	encoded, err := rlp.EncodeToBytes(tick)
	if err != nil {
		return err
	}
	return m.db.Put(tickKey, encoded)
}

// TickGet loads the last persisted host tick, zero when never written.
func (m *Manager) TickGet() (uint64, error) {
	data, err := m.db.Get(tickKey)
	if err != nil {
		if err == storage.ErrNotFound {
			return 0, nil
		}
		return 0, err
	}
	var tick uint64
	if err := rlp.DecodeBytes(data, &tick); err != nil {
		return 0, err
	}
	return tick, nil
}

// storedAccount is the RLP wire form of an account.
type storedAccount struct {
	Nonce   uint64
	Balance *big.Int
}

func newStoredAccount(acc *types.Account) *storedAccount {
	stored := &storedAccount{Nonce: acc.Nonce, Balance: big.NewInt(0)}
	if acc.Balance != nil {
		stored.Balance = new(big.Int).Set(acc.Balance)
	}
	return stored
}

func (s *storedAccount) toAccount() *types.Account {
	acc := types.NewAccount()
	acc.Nonce = s.Nonce
	if s.Balance != nil {
		acc.Balance = new(big.Int).Set(s.Balance)
	}
	return acc
}

// storedDeal is the RLP wire form of an escrow record.
type storedDeal struct {
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

func newStoredDeal(d *escrow.Deal) *storedDeal {
	return &storedDeal{
		ID:                d.ID,
		Oracle:            d.Oracle,
		OracleSet:         d.OracleSet,
		Brand:             d.Brand,
		Influencer:        d.Influencer,
		EscrowBalance:     new(big.Int).Set(d.EscrowBalance),
		PlatformFee:       new(big.Int).Set(d.PlatformFee),
		VerificationScore: d.VerificationScore,
		Verified:          d.Verified,
		RetentionEndTick:  d.RetentionEndTick,
		CreatedAtTick:     d.CreatedAtTick,
		Active:            d.Active,
		Paid:              d.Paid,
		Refunded:          d.Refunded,
	}
}

func (s *storedDeal) toDeal() *escrow.Deal {
	deal := &escrow.Deal{
		ID:                s.ID,
		Oracle:            s.Oracle,
		OracleSet:         s.OracleSet,
		Brand:             s.Brand,
		Influencer:        s.Influencer,
		EscrowBalance:     big.NewInt(0),
		PlatformFee:       big.NewInt(0),
		VerificationScore: s.VerificationScore,
		Verified:          s.Verified,
		RetentionEndTick:  s.RetentionEndTick,
		CreatedAtTick:     s.CreatedAtTick,
		Active:            s.Active,
		Paid:              s.Paid,
		Refunded:          s.Refunded,
	}
	if s.EscrowBalance != nil {
		deal.EscrowBalance = new(big.Int).Set(s.EscrowBalance)
	}
	if s.PlatformFee != nil {
		deal.PlatformFee = new(big.Int).Set(s.PlatformFee)
	}
	return deal
}

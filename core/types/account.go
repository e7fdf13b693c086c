package types

import "math/big"

// Account is a ledger entry addressed by a 20-byte identity. The arbiter
// moves value between accounts exclusively through the escrow engine's
// transfer path.
type Account struct {
	Nonce   uint64   `json:"nonce"`
	Balance *big.Int `json:"balance"`
}

// NewAccount returns an account with a zeroed balance so callers never
// observe a nil big.Int.
func NewAccount() *Account {
	return &Account{Balance: big.NewInt(0)}
}

// Clone deep-copies the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return NewAccount()
	}
	clone := &Account{Nonce: a.Nonce, Balance: big.NewInt(0)}
	if a.Balance != nil {
		clone.Balance = new(big.Int).Set(a.Balance)
	}
	return clone
}

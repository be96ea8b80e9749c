package types

import "farmercore/crypto"

// Account is the envelope the runtime stores for every address. Data is
// allocated once at creation with exactly Space bytes and never resized;
// only Owner may rewrite it.
type Account struct {
	Owner    crypto.Pubkey `json:"owner"`
	Lamports uint64        `json:"lamports"`
	Space    uint64        `json:"space"`
	Data     []byte        `json:"data"`
}

// Allocated reports whether storage has been reserved for the account. A
// funded wallet without data is not allocated.
func (a *Account) Allocated() bool {
	return a != nil && a.Space > 0
}

// Copy returns a deep copy so callers can mutate without touching cached state.
func (a *Account) Copy() *Account {
	if a == nil {
		return nil
	}
	out := *a
	out.Data = append([]byte(nil), a.Data...)
	return &out
}

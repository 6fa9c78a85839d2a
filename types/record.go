package types

import (
	"github.com/holiman/uint256"
)

// MintRecord is one audit entry in the mint journal. Amount, Recipient and
// Timestamp are fixed at creation; Metadata is the only field that may be
// rewritten afterwards.
type MintRecord struct {
	Amount    *uint256.Int `json:"amount"`
	Recipient Identity     `json:"recipient"`
	Metadata  string       `json:"metadata"`
	Timestamp uint64       `json:"timestamp"`
}

// Clone returns a deep copy so callers can hold a record without aliasing
// journal state.
func (r *MintRecord) Clone() *MintRecord {
	if r == nil {
		return nil
	}
	return &MintRecord{
		Amount:    new(uint256.Int).Set(r.Amount),
		Recipient: r.Recipient,
		Metadata:  r.Metadata,
		Timestamp: r.Timestamp,
	}
}

// CreditInfo describes the credit class itself.
type CreditInfo struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

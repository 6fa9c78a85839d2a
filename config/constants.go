package config

// Fixed descriptors of the credit class. Credits are whole units, there is
// no fractional subdivision.
const (
	CreditName     = "GreenPledge Carbon Credit"
	CreditSymbol   = "GPC"
	CreditDecimals = uint8(0)
)

// Input bounds enforced by the ledger
const (
	MaxMetadataLength = 500
	MaxTokenURILength = 256
)

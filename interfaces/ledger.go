package interfaces

import (
	"github.com/holiman/uint256"

	"github.com/kanteakoisi/GreenPledge/types"
)

// CreditLedger is the operation surface the RPC layer exposes to the
// surrounding system (verification workflow, marketplace settlement).
type CreditLedger interface {
	// Access controller
	SetAdmin(caller, newAdmin types.Identity) error
	Pause(caller types.Identity) error
	Unpause(caller types.Identity) error
	AddMinter(caller, target types.Identity) error
	RemoveMinter(caller, target types.Identity) error

	// Balance ledger
	Mint(caller types.Identity, amount *uint256.Int, recipient types.Identity, metadata string) (uint64, error)
	Transfer(caller types.Identity, amount *uint256.Int, sender, recipient types.Identity, memo string) error
	Burn(caller types.Identity, amount *uint256.Int) error

	// Mint journal
	VerifyCredit(index uint64, expectedRecipient types.Identity, expectedAmount *uint256.Int) error
	UpdateMetadata(caller types.Identity, index uint64, newMetadata string) error

	// Metadata store
	SetTokenURI(caller types.Identity, uri string) error

	// Queries
	Balance(id types.Identity) (*uint256.Int, error)
	TotalSupply() (*uint256.Int, error)
	MintRecord(index uint64) (*types.MintRecord, error)
	MintCount() (uint64, error)
	IsMinter(id types.Identity) (bool, error)
	IsPaused() (bool, error)
	Admin() (types.Identity, error)
	TokenURI() (string, error)
	Info() types.CreditInfo
	Digest() ([32]byte, error)
}

package ledger

import (
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanteakoisi/GreenPledge/config"
	"github.com/kanteakoisi/GreenPledge/db"
	ledgererrors "github.com/kanteakoisi/GreenPledge/errors"
	"github.com/kanteakoisi/GreenPledge/events"
	"github.com/kanteakoisi/GreenPledge/store"
	"github.com/kanteakoisi/GreenPledge/types"
)

const (
	testAdmin  = types.Identity("admin-1")
	testMinter = types.Identity("minter-1")
	holderR    = types.Identity("holder-r")
	holderS    = types.Identity("holder-s")
	strangerU  = types.Identity("stranger-u")
)

func newTestLedger(t *testing.T) (*Ledger, *ManualClock) {
	t.Helper()

	provider := db.NewMemoryProvider()
	creditStore, err := store.NewGenericCreditStore(provider)
	require.NoError(t, err)
	journalStore, err := store.NewGenericJournalStore(provider)
	require.NoError(t, err)
	stateStore, err := store.NewGenericStateStore(provider)
	require.NoError(t, err)

	clock := NewManualClock(100)
	l := NewLedger(creditStore, journalStore, stateStore, provider, events.NewEventBus(), clock)
	require.NoError(t, l.Initialize(&config.GenesisConfig{Admin: string(testAdmin)}))
	return l, clock
}

func requireCode(t *testing.T, err error, code ledgererrors.LedgerErrorCode) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, ledgererrors.CodeOf(err))
}

func amt(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

func TestInitializeGenesis(t *testing.T) {
	l, _ := newTestLedger(t)

	admin, err := l.Admin()
	require.NoError(t, err)
	assert.Equal(t, testAdmin, admin)

	// deployer is a minter from genesis
	isMinter, err := l.IsMinter(testAdmin)
	require.NoError(t, err)
	assert.True(t, isMinter)

	paused, err := l.IsPaused()
	require.NoError(t, err)
	assert.False(t, paused)

	supply, err := l.TotalSupply()
	require.NoError(t, err)
	assert.True(t, supply.IsZero())

	count, err := l.MintCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestInitializeIsIdempotent(t *testing.T) {
	l, _ := newTestLedger(t)

	require.NoError(t, l.AddMinter(testAdmin, testMinter))
	// second Initialize must not reset state
	require.NoError(t, l.Initialize(&config.GenesisConfig{Admin: "someone-else"}))

	admin, err := l.Admin()
	require.NoError(t, err)
	assert.Equal(t, testAdmin, admin)

	isMinter, err := l.IsMinter(testMinter)
	require.NoError(t, err)
	assert.True(t, isMinter)
}

func TestMintTransferBurnScenario(t *testing.T) {
	l, _ := newTestLedger(t)

	require.NoError(t, l.AddMinter(testAdmin, testMinter))

	index, err := l.Mint(testMinter, amt(1000), holderR, "X")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), index)

	balance, err := l.Balance(holderR)
	require.NoError(t, err)
	assert.Equal(t, amt(1000), balance)

	supply, err := l.TotalSupply()
	require.NoError(t, err)
	assert.Equal(t, amt(1000), supply)

	count, err := l.MintCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	record, err := l.MintRecord(0)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, amt(1000), record.Amount)
	assert.Equal(t, holderR, record.Recipient)
	assert.Equal(t, "X", record.Metadata)

	require.NoError(t, l.Transfer(holderR, amt(500), holderR, holderS, "trade #42"))

	balanceR, _ := l.Balance(holderR)
	balanceS, _ := l.Balance(holderS)
	assert.Equal(t, amt(500), balanceR)
	assert.Equal(t, amt(500), balanceS)

	supply, _ = l.TotalSupply()
	assert.Equal(t, amt(1000), supply, "transfer must not change supply")

	require.NoError(t, l.Burn(holderR, amt(300)))

	balanceR, _ = l.Balance(holderR)
	assert.Equal(t, amt(200), balanceR)
	supply, _ = l.TotalSupply()
	assert.Equal(t, amt(700), supply)

	// the journal checks the immutable mint record, not current balances
	assert.NoError(t, l.VerifyCredit(0, holderR, amt(1000)))

	holders, err := l.CheckConservation()
	require.NoError(t, err)
	assert.Equal(t, 2, holders)
}

func TestMintPreconditions(t *testing.T) {
	l, _ := newTestLedger(t)
	require.NoError(t, l.AddMinter(testAdmin, testMinter))

	longMetadata := make([]byte, config.MaxMetadataLength+1)
	for i := range longMetadata {
		longMetadata[i] = 'a'
	}

	tests := []struct {
		name      string
		caller    types.Identity
		amount    *uint256.Int
		recipient types.Identity
		metadata  string
		code      ledgererrors.LedgerErrorCode
	}{
		{"non-minter caller", strangerU, amt(10), holderR, "", ledgererrors.ErrCodeInvalidMinter},
		{"zero amount", testMinter, amt(0), holderR, "", ledgererrors.ErrCodeInvalidAmount},
		{"nil amount", testMinter, nil, holderR, "", ledgererrors.ErrCodeInvalidAmount},
		{"admin recipient", testMinter, amt(10), testAdmin, "", ledgererrors.ErrCodeInvalidRecipient},
		{"empty recipient", testMinter, amt(10), "", "", ledgererrors.ErrCodeInvalidRecipient},
		{"metadata too long", testMinter, amt(10), holderR, string(longMetadata), ledgererrors.ErrCodeMetadataTooLong},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := l.Mint(tc.caller, tc.amount, tc.recipient, tc.metadata)
			requireCode(t, err, tc.code)

			// rejection leaves state untouched
			supply, _ := l.TotalSupply()
			assert.True(t, supply.IsZero())
			count, _ := l.MintCount()
			assert.Equal(t, uint64(0), count)
		})
	}
}

func TestMintMetadataAtBound(t *testing.T) {
	l, _ := newTestLedger(t)
	require.NoError(t, l.AddMinter(testAdmin, testMinter))

	metadata := make([]byte, config.MaxMetadataLength)
	for i := range metadata {
		metadata[i] = 'm'
	}
	_, err := l.Mint(testMinter, amt(1), holderR, string(metadata))
	assert.NoError(t, err)
}

func TestMintRecordsLogicalTimestamp(t *testing.T) {
	l, clock := newTestLedger(t)
	require.NoError(t, l.AddMinter(testAdmin, testMinter))

	_, err := l.Mint(testMinter, amt(5), holderR, "")
	require.NoError(t, err)

	clock.Advance(17)
	_, err = l.Mint(testMinter, amt(5), holderS, "")
	require.NoError(t, err)

	first, _ := l.MintRecord(0)
	second, _ := l.MintRecord(1)
	assert.Equal(t, uint64(100), first.Timestamp)
	assert.Equal(t, uint64(117), second.Timestamp)
}

func TestTransferPreconditions(t *testing.T) {
	l, _ := newTestLedger(t)
	require.NoError(t, l.AddMinter(testAdmin, testMinter))
	_, err := l.Mint(testMinter, amt(100), holderR, "")
	require.NoError(t, err)

	// caller must equal sender, no delegated transfers
	err = l.Transfer(strangerU, amt(10), holderR, holderS, "")
	requireCode(t, err, ledgererrors.ErrCodeUnauthorized)

	err = l.Transfer(holderR, amt(0), holderR, holderS, "")
	requireCode(t, err, ledgererrors.ErrCodeInvalidAmount)

	err = l.Transfer(holderR, amt(10), holderR, holderR, "")
	requireCode(t, err, ledgererrors.ErrCodeSenderEqualsRecipient)

	err = l.Transfer(holderR, amt(101), holderR, holderS, "")
	requireCode(t, err, ledgererrors.ErrCodeInsufficientBalance)

	// rejections left balances untouched
	balanceR, _ := l.Balance(holderR)
	balanceS, _ := l.Balance(holderS)
	assert.Equal(t, amt(100), balanceR)
	assert.True(t, balanceS.IsZero())
}

func TestBurnPreconditions(t *testing.T) {
	l, _ := newTestLedger(t)
	require.NoError(t, l.AddMinter(testAdmin, testMinter))
	_, err := l.Mint(testMinter, amt(50), holderR, "")
	require.NoError(t, err)

	err = l.Burn(holderR, amt(0))
	requireCode(t, err, ledgererrors.ErrCodeInvalidAmount)

	err = l.Burn(holderR, amt(51))
	requireCode(t, err, ledgererrors.ErrCodeInsufficientBalance)

	// a holder with nothing cannot burn
	err = l.Burn(strangerU, amt(1))
	requireCode(t, err, ledgererrors.ErrCodeInsufficientBalance)

	balance, _ := l.Balance(holderR)
	assert.Equal(t, amt(50), balance)
	supply, _ := l.TotalSupply()
	assert.Equal(t, amt(50), supply)
}

func TestPauseGate(t *testing.T) {
	l, _ := newTestLedger(t)
	require.NoError(t, l.AddMinter(testAdmin, testMinter))
	_, err := l.Mint(testMinter, amt(100), holderR, "")
	require.NoError(t, err)

	require.NoError(t, l.Pause(testAdmin))
	paused, _ := l.IsPaused()
	assert.True(t, paused)

	// every balance mutation fails with the pause code, before any other check
	_, err = l.Mint(testMinter, amt(10), holderR, "")
	requireCode(t, err, ledgererrors.ErrCodePaused)
	err = l.Transfer(holderR, amt(10), holderR, holderS, "")
	requireCode(t, err, ledgererrors.ErrCodePaused)
	err = l.Burn(holderR, amt(10))
	requireCode(t, err, ledgererrors.ErrCodePaused)

	// even a call that would fail validation anyway reports Paused first
	_, err = l.Mint(strangerU, amt(0), testAdmin, "")
	requireCode(t, err, ledgererrors.ErrCodePaused)

	// queries stay available while paused
	balance, err := l.Balance(holderR)
	require.NoError(t, err)
	assert.Equal(t, amt(100), balance)
	assert.NoError(t, l.VerifyCredit(0, holderR, amt(100)))

	// pause is idempotent
	require.NoError(t, l.Pause(testAdmin))

	require.NoError(t, l.Unpause(testAdmin))
	require.NoError(t, l.Unpause(testAdmin))

	// previously valid calls succeed again
	_, err = l.Mint(testMinter, amt(10), holderR, "")
	assert.NoError(t, err)
}

func TestPauseRequiresAdmin(t *testing.T) {
	l, _ := newTestLedger(t)

	requireCode(t, l.Pause(strangerU), ledgererrors.ErrCodeUnauthorized)
	requireCode(t, l.Unpause(strangerU), ledgererrors.ErrCodeUnauthorized)

	paused, _ := l.IsPaused()
	assert.False(t, paused)
}

func TestSetAdmin(t *testing.T) {
	l, _ := newTestLedger(t)

	requireCode(t, l.SetAdmin(strangerU, strangerU), ledgererrors.ErrCodeUnauthorized)

	require.NoError(t, l.SetAdmin(testAdmin, holderS))
	admin, _ := l.Admin()
	assert.Equal(t, holderS, admin)

	// the old admin lost control
	requireCode(t, l.Pause(testAdmin), ledgererrors.ErrCodeUnauthorized)
	require.NoError(t, l.Pause(holderS))
}

func TestSetAdminRejectsEmptyIdentity(t *testing.T) {
	l, _ := newTestLedger(t)
	require.NoError(t, l.AddMinter(testAdmin, testMinter))
	_, err := l.Mint(testMinter, amt(1000), holderR, "")
	require.NoError(t, err)

	// an empty admin would read as an un-seeded store and let a later
	// Initialize re-run genesis over live balances
	requireCode(t, l.SetAdmin(testAdmin, ""), ledgererrors.ErrCodeInvalidRecipient)

	admin, err := l.Admin()
	require.NoError(t, err)
	assert.Equal(t, testAdmin, admin)

	require.NoError(t, l.Initialize(&config.GenesisConfig{Admin: "someone-else"}))

	supply, _ := l.TotalSupply()
	assert.Equal(t, amt(1000), supply)
	count, _ := l.MintCount()
	assert.Equal(t, uint64(1), count)
	_, err = l.CheckConservation()
	assert.NoError(t, err)
}

func TestMinterLifecycle(t *testing.T) {
	l, _ := newTestLedger(t)

	requireCode(t, l.AddMinter(strangerU, testMinter), ledgererrors.ErrCodeUnauthorized)

	require.NoError(t, l.AddMinter(testAdmin, testMinter))
	requireCode(t, l.AddMinter(testAdmin, testMinter), ledgererrors.ErrCodeAlreadyRegistered)

	_, err := l.Mint(testMinter, amt(10), holderR, "")
	require.NoError(t, err)

	// removal is not an error even for a non-minter, and blocks minting at once
	require.NoError(t, l.RemoveMinter(testAdmin, strangerU))
	require.NoError(t, l.RemoveMinter(testAdmin, testMinter))

	_, err = l.Mint(testMinter, amt(10), holderR, "")
	requireCode(t, err, ledgererrors.ErrCodeInvalidMinter)

	isMinter, _ := l.IsMinter(testMinter)
	assert.False(t, isMinter)
}

func TestUpdateMetadataKeepsImmutableFields(t *testing.T) {
	l, clock := newTestLedger(t)
	require.NoError(t, l.AddMinter(testAdmin, testMinter))
	_, err := l.Mint(testMinter, amt(77), holderR, "original")
	require.NoError(t, err)

	clock.Advance(5)
	require.NoError(t, l.UpdateMetadata(testMinter, 0, "amended"))
	require.NoError(t, l.UpdateMetadata(testMinter, 0, "amended twice"))

	record, err := l.MintRecord(0)
	require.NoError(t, err)
	assert.Equal(t, "amended twice", record.Metadata)
	assert.Equal(t, amt(77), record.Amount)
	assert.Equal(t, holderR, record.Recipient)
	assert.Equal(t, uint64(100), record.Timestamp, "timestamp keeps its creation value")
}

func TestUpdateMetadataByAnotherMinter(t *testing.T) {
	l, _ := newTestLedger(t)
	require.NoError(t, l.AddMinter(testAdmin, testMinter))
	_, err := l.Mint(testMinter, amt(1), holderR, "")
	require.NoError(t, err)

	// any current minter may amend any record
	other := types.Identity("minter-2")
	require.NoError(t, l.AddMinter(testAdmin, other))
	assert.NoError(t, l.UpdateMetadata(other, 0, "second opinion"))
}

func TestUpdateMetadataFailures(t *testing.T) {
	l, _ := newTestLedger(t)
	require.NoError(t, l.AddMinter(testAdmin, testMinter))
	_, err := l.Mint(testMinter, amt(1), holderR, "keep")
	require.NoError(t, err)

	requireCode(t, l.UpdateMetadata(strangerU, 0, "x"), ledgererrors.ErrCodeInvalidMinter)
	requireCode(t, l.UpdateMetadata(testMinter, 9, "x"), ledgererrors.ErrCodeNotFound)

	longMetadata := make([]byte, config.MaxMetadataLength+1)
	requireCode(t, l.UpdateMetadata(testMinter, 0, string(longMetadata)), ledgererrors.ErrCodeMetadataTooLong)

	record, _ := l.MintRecord(0)
	assert.Equal(t, "keep", record.Metadata)
}

func TestVerifyCredit(t *testing.T) {
	l, _ := newTestLedger(t)
	require.NoError(t, l.AddMinter(testAdmin, testMinter))
	_, err := l.Mint(testMinter, amt(42), holderR, "")
	require.NoError(t, err)

	assert.NoError(t, l.VerifyCredit(0, holderR, amt(42)))
	requireCode(t, l.VerifyCredit(0, holderR, amt(41)), ledgererrors.ErrCodeMismatch)
	requireCode(t, l.VerifyCredit(0, holderS, amt(42)), ledgererrors.ErrCodeMismatch)
	requireCode(t, l.VerifyCredit(1, holderR, amt(42)), ledgererrors.ErrCodeNotFound)
}

func TestMintRecordAbsent(t *testing.T) {
	l, _ := newTestLedger(t)

	record, err := l.MintRecord(3)
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestTokenURI(t *testing.T) {
	l, _ := newTestLedger(t)

	uri, err := l.TokenURI()
	require.NoError(t, err)
	assert.Empty(t, uri)

	requireCode(t, l.SetTokenURI(strangerU, "ipfs://x"), ledgererrors.ErrCodeUnauthorized)

	require.NoError(t, l.SetTokenURI(testAdmin, "ipfs://gpc-credit-class"))
	uri, _ = l.TokenURI()
	assert.Equal(t, "ipfs://gpc-credit-class", uri)

	// clearing is allowed
	require.NoError(t, l.SetTokenURI(testAdmin, ""))
	uri, _ = l.TokenURI()
	assert.Empty(t, uri)

	longURI := make([]byte, config.MaxTokenURILength+1)
	requireCode(t, l.SetTokenURI(testAdmin, string(longURI)), ledgererrors.ErrCodeURITooLong)
}

func TestInfo(t *testing.T) {
	l, _ := newTestLedger(t)

	info := l.Info()
	assert.Equal(t, config.CreditName, info.Name)
	assert.Equal(t, config.CreditSymbol, info.Symbol)
	assert.Equal(t, uint8(0), info.Decimals, "credits are whole units")
}

func TestDigestAdvancesOnAcceptedOpsOnly(t *testing.T) {
	l, _ := newTestLedger(t)
	require.NoError(t, l.AddMinter(testAdmin, testMinter))

	before, err := l.Digest()
	require.NoError(t, err)

	// a rejected operation leaves the digest alone
	_, mintErr := l.Mint(strangerU, amt(1), holderR, "")
	require.Error(t, mintErr)
	after, _ := l.Digest()
	assert.Equal(t, before, after)

	_, err = l.Mint(testMinter, amt(1), holderR, "")
	require.NoError(t, err)
	after, _ = l.Digest()
	assert.NotEqual(t, before, after)
}

// TestConservationUnderRandomOps drives a random operation sequence and
// recomputes the balance sum after every step.
func TestConservationUnderRandomOps(t *testing.T) {
	l, _ := newTestLedger(t)
	require.NoError(t, l.AddMinter(testAdmin, testMinter))

	holders := []types.Identity{holderR, holderS, strangerU, "holder-t", "holder-v"}
	fuzzer := fuzz.NewWithSeed(1337)

	for i := 0; i < 500; i++ {
		var choice uint8
		var rawAmount uint16
		var from, to uint8
		fuzzer.Fuzz(&choice)
		fuzzer.Fuzz(&rawAmount)
		fuzzer.Fuzz(&from)
		fuzzer.Fuzz(&to)

		amount := amt(uint64(rawAmount))
		sender := holders[int(from)%len(holders)]
		recipient := holders[int(to)%len(holders)]

		switch choice % 3 {
		case 0:
			_, _ = l.Mint(testMinter, amount, recipient, "batch")
		case 1:
			_ = l.Transfer(sender, amount, sender, recipient, "")
		case 2:
			_ = l.Burn(sender, amount)
		}

		_, err := l.CheckConservation()
		require.NoError(t, err, "conservation violated after step %d", i)
	}
}

package ledger

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/holiman/uint256"

	"github.com/kanteakoisi/GreenPledge/config"
	"github.com/kanteakoisi/GreenPledge/db"
	ledgererrors "github.com/kanteakoisi/GreenPledge/errors"
	"github.com/kanteakoisi/GreenPledge/events"
	"github.com/kanteakoisi/GreenPledge/logx"
	"github.com/kanteakoisi/GreenPledge/monitoring"
	"github.com/kanteakoisi/GreenPledge/store"
	"github.com/kanteakoisi/GreenPledge/types"
	"github.com/kanteakoisi/GreenPledge/utils"
)

// Ledger is the single consistent state container for the carbon credit
// ledger: balances and total supply, the minter allow-list and pause flag,
// the append-only mint journal and the credit class descriptor.
//
// Every mutating operation validates all of its preconditions against the
// current state, then commits its writes in one provider batch. A rejected
// operation changes nothing. The mutex serializes callers inside this
// process; the host environment is expected to apply operations one at a
// time anyway.
type Ledger struct {
	mu           sync.RWMutex
	creditStore  store.CreditStore
	journalStore store.JournalStore
	stateStore   store.StateStore
	provider     db.DatabaseProvider
	eventBus     *events.EventBus
	clock        ClockSource
}

func NewLedger(creditStore store.CreditStore, journalStore store.JournalStore, stateStore store.StateStore, provider db.DatabaseProvider, eventBus *events.EventBus, clock ClockSource) *Ledger {
	if clock == nil {
		clock = NewSystemClock()
	}
	return &Ledger{
		creditStore:  creditStore,
		journalStore: journalStore,
		stateStore:   stateStore,
		provider:     provider,
		eventBus:     eventBus,
		clock:        clock,
	}
}

// Initialize seeds the ledger state from genesis when the store is empty.
// The deploying identity becomes admin and the first authorized minter.
// Calling it again on an initialized store is a no-op.
func (l *Ledger) Initialize(genesis *config.GenesisConfig) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	admin, err := l.stateStore.GetAdmin()
	if err != nil {
		return fmt.Errorf("could not read admin: %w", err)
	}
	if !admin.IsZero() {
		logx.Info("LEDGER", fmt.Sprintf("Ledger already initialized, admin=%s", admin))
		return nil
	}

	deployer := types.Identity(genesis.Admin)

	batch := l.provider.Batch()
	defer batch.Close()

	l.stateStore.SetAdmin(batch, deployer)
	l.stateStore.SetPaused(batch, false)
	l.stateStore.SetMinter(batch, deployer, true)
	for _, m := range genesis.Minters {
		l.stateStore.SetMinter(batch, types.Identity(m), true)
	}
	if genesis.TokenURI != "" {
		l.stateStore.SetTokenURI(batch, genesis.TokenURI)
	}
	l.creditStore.SetTotalSupply(batch, uint256.NewInt(0))
	l.journalStore.SetCounter(batch, 0)

	delta := computeOpDeltaHash(opDelta{
		op:     "genesis",
		caller: deployer,
		fields: []string{genesis.TokenURI, strconv.Itoa(len(genesis.Minters))},
	})
	l.stateStore.SetDigest(batch, delta)

	if err := batch.Write(); err != nil {
		return fmt.Errorf("failed to write genesis state: %w", err)
	}

	logx.Info("LEDGER", fmt.Sprintf("Initialized ledger, admin=%s, minters=%d", deployer, 1+len(genesis.Minters)))
	return nil
}

// --- Access controller ---

// SetAdmin replaces the admin identity. Admin only. The new admin must be a
// nonzero identity; an empty admin is what marks a store as un-seeded, so
// allowing it would let the next Initialize re-run genesis over live state.
func (l *Ledger) SetAdmin(caller, newAdmin types.Identity) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.observe("set_admin", func() error {
		if err := l.requireAdmin(caller); err != nil {
			return err
		}
		if newAdmin.IsZero() {
			return ledgererrors.NewError(ledgererrors.ErrCodeInvalidRecipient, ledgererrors.ErrMsgInvalidRecipient)
		}

		batch := l.provider.Batch()
		defer batch.Close()
		l.stateStore.SetAdmin(batch, newAdmin)
		if err := l.commit(batch, opDelta{op: "set_admin", caller: caller, fields: []string{string(newAdmin)}}); err != nil {
			return err
		}

		l.publish(events.NewAdminChanged(caller, newAdmin))
		logx.Info("LEDGER", fmt.Sprintf("Admin changed: %s -> %s", caller, newAdmin))
		return nil
	})
}

// Pause engages the emergency stop. Admin only, idempotent.
func (l *Ledger) Pause(caller types.Identity) error {
	return l.setPaused(caller, true)
}

// Unpause releases the emergency stop. Admin only, idempotent.
func (l *Ledger) Unpause(caller types.Identity) error {
	return l.setPaused(caller, false)
}

func (l *Ledger) setPaused(caller types.Identity, paused bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	op := "pause"
	if !paused {
		op = "unpause"
	}
	return l.observe(op, func() error {
		if err := l.requireAdmin(caller); err != nil {
			return err
		}

		batch := l.provider.Batch()
		defer batch.Close()
		l.stateStore.SetPaused(batch, paused)
		if err := l.commit(batch, opDelta{op: op, caller: caller}); err != nil {
			return err
		}

		monitoring.SetPaused(paused)
		if paused {
			l.publish(events.NewLedgerPaused(caller))
			logx.Warn("LEDGER", fmt.Sprintf("Ledger paused by %s", caller))
		} else {
			l.publish(events.NewLedgerUnpaused(caller))
			logx.Info("LEDGER", fmt.Sprintf("Ledger unpaused by %s", caller))
		}
		return nil
	})
}

// AddMinter authorizes target to mint. Admin only; rejects an identity that
// is already authorized.
func (l *Ledger) AddMinter(caller, target types.Identity) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.observe("add_minter", func() error {
		if err := l.requireAdmin(caller); err != nil {
			return err
		}
		authorized, err := l.stateStore.IsMinter(target)
		if err != nil {
			return fmt.Errorf("could not check minter %s: %w", target, err)
		}
		if authorized {
			return ledgererrors.NewError(ledgererrors.ErrCodeAlreadyRegistered, ledgererrors.ErrMsgAlreadyRegistered)
		}

		batch := l.provider.Batch()
		defer batch.Close()
		l.stateStore.SetMinter(batch, target, true)
		if err := l.commit(batch, opDelta{op: "add_minter", caller: caller, fields: []string{string(target)}}); err != nil {
			return err
		}

		l.publish(events.NewMinterAdded(caller, target))
		logx.Info("LEDGER", fmt.Sprintf("Minter added: %s", target))
		return nil
	})
}

// RemoveMinter revokes target's minting authorization. Admin only; removing
// an identity that was never a minter is not an error.
func (l *Ledger) RemoveMinter(caller, target types.Identity) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.observe("remove_minter", func() error {
		if err := l.requireAdmin(caller); err != nil {
			return err
		}

		batch := l.provider.Batch()
		defer batch.Close()
		l.stateStore.SetMinter(batch, target, false)
		if err := l.commit(batch, opDelta{op: "remove_minter", caller: caller, fields: []string{string(target)}}); err != nil {
			return err
		}

		l.publish(events.NewMinterRemoved(caller, target))
		logx.Info("LEDGER", fmt.Sprintf("Minter removed: %s", target))
		return nil
	})
}

// --- Balance ledger ---

// Mint issues amount new credits to recipient and appends a journal record.
// Caller must be an authorized minter; the ledger must not be paused; the
// amount must be positive; the recipient must not be the admin identity.
// Returns the index of the new journal record.
func (l *Ledger) Mint(caller types.Identity, amount *uint256.Int, recipient types.Identity, metadata string) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var index uint64
	err := l.observe("mint", func() error {
		if err := l.requireNotPaused(); err != nil {
			return err
		}
		authorized, err := l.stateStore.IsMinter(caller)
		if err != nil {
			return fmt.Errorf("could not check minter %s: %w", caller, err)
		}
		if !authorized {
			return ledgererrors.NewError(ledgererrors.ErrCodeInvalidMinter, ledgererrors.ErrMsgInvalidMinter)
		}
		if amount == nil || amount.IsZero() {
			return ledgererrors.NewError(ledgererrors.ErrCodeInvalidAmount, ledgererrors.ErrMsgInvalidAmount)
		}
		admin, err := l.stateStore.GetAdmin()
		if err != nil {
			return fmt.Errorf("could not read admin: %w", err)
		}
		// minting directly to the admin identity is forbidden
		if recipient.IsZero() || recipient == admin {
			return ledgererrors.NewError(ledgererrors.ErrCodeInvalidRecipient, ledgererrors.ErrMsgInvalidRecipient)
		}
		if len(metadata) > config.MaxMetadataLength {
			return ledgererrors.NewError(ledgererrors.ErrCodeMetadataTooLong, ledgererrors.ErrMsgMetadataTooLong)
		}

		balance, err := l.creditStore.GetBalance(recipient)
		if err != nil {
			return err
		}
		supply, err := l.creditStore.GetTotalSupply()
		if err != nil {
			return err
		}

		newBalance := new(uint256.Int)
		if _, overflow := newBalance.AddOverflow(balance, amount); overflow {
			return ledgererrors.NewError(ledgererrors.ErrCodeInvalidAmount, ledgererrors.ErrMsgInvalidAmount)
		}
		newSupply := new(uint256.Int)
		if _, overflow := newSupply.AddOverflow(supply, amount); overflow {
			return ledgererrors.NewError(ledgererrors.ErrCodeInvalidAmount, ledgererrors.ErrMsgInvalidAmount)
		}

		counter, err := l.journalStore.GetCounter()
		if err != nil {
			return err
		}
		record := &types.MintRecord{
			Amount:    new(uint256.Int).Set(amount),
			Recipient: recipient,
			Metadata:  metadata,
			Timestamp: l.clock.Height(),
		}

		batch := l.provider.Batch()
		defer batch.Close()
		l.creditStore.SetBalance(batch, recipient, newBalance)
		l.creditStore.SetTotalSupply(batch, newSupply)
		if err := l.journalStore.PutRecord(batch, counter, record); err != nil {
			return err
		}
		l.journalStore.SetCounter(batch, counter+1)
		delta := opDelta{
			op:     "mint",
			caller: caller,
			fields: []string{string(recipient), utils.Uint256ToString(amount), metadata, strconv.FormatUint(record.Timestamp, 10)},
		}
		if err := l.commit(batch, delta); err != nil {
			return err
		}

		index = counter
		if newSupply.IsUint64() {
			monitoring.SetTotalSupply(float64(newSupply.Uint64()))
		}
		monitoring.SetMintCount(counter + 1)
		l.publish(events.NewCreditsMinted(caller, recipient, record.Amount, counter))
		logx.Info("LEDGER", fmt.Sprintf("Minted %s credits to %s, record=%d", utils.Uint256ToString(amount), recipient, counter))
		return nil
	})
	return index, err
}

// Transfer moves amount credits from sender to recipient. Only the sender
// may move their own credits; there are no delegated transfers. The memo is
// an opaque annotation passed through to the emitted event, never persisted.
func (l *Ledger) Transfer(caller types.Identity, amount *uint256.Int, sender, recipient types.Identity, memo string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.observe("transfer", func() error {
		if err := l.requireNotPaused(); err != nil {
			return err
		}
		if caller != sender {
			return ledgererrors.NewError(ledgererrors.ErrCodeUnauthorized, ledgererrors.ErrMsgUnauthorized)
		}
		if amount == nil || amount.IsZero() {
			return ledgererrors.NewError(ledgererrors.ErrCodeInvalidAmount, ledgererrors.ErrMsgInvalidAmount)
		}
		if sender == recipient {
			return ledgererrors.NewError(ledgererrors.ErrCodeSenderEqualsRecipient, ledgererrors.ErrMsgSenderEqualsRecipient)
		}

		senderBalance, err := l.creditStore.GetBalance(sender)
		if err != nil {
			return err
		}
		newSenderBalance := new(uint256.Int)
		if _, underflow := newSenderBalance.SubOverflow(senderBalance, amount); underflow {
			return ledgererrors.NewError(ledgererrors.ErrCodeInsufficientBalance, ledgererrors.ErrMsgInsufficientBalance)
		}

		recipientBalance, err := l.creditStore.GetBalance(recipient)
		if err != nil {
			return err
		}
		newRecipientBalance := new(uint256.Int)
		if _, overflow := newRecipientBalance.AddOverflow(recipientBalance, amount); overflow {
			return ledgererrors.NewError(ledgererrors.ErrCodeInvalidAmount, ledgererrors.ErrMsgInvalidAmount)
		}

		batch := l.provider.Batch()
		defer batch.Close()
		l.creditStore.SetBalance(batch, sender, newSenderBalance)
		l.creditStore.SetBalance(batch, recipient, newRecipientBalance)
		delta := opDelta{
			op:     "transfer",
			caller: caller,
			fields: []string{string(recipient), utils.Uint256ToString(amount)},
		}
		if err := l.commit(batch, delta); err != nil {
			return err
		}

		l.publish(events.NewCreditsTransferred(sender, recipient, new(uint256.Int).Set(amount), memo))
		logx.Info("LEDGER", fmt.Sprintf("Transferred %s credits %s -> %s", utils.Uint256ToString(amount), sender, recipient))
		return nil
	})
}

// Burn destroys amount credits from the caller's own balance. Any holder
// may burn what they hold; no minter privilege required.
func (l *Ledger) Burn(caller types.Identity, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.observe("burn", func() error {
		if err := l.requireNotPaused(); err != nil {
			return err
		}
		if amount == nil || amount.IsZero() {
			return ledgererrors.NewError(ledgererrors.ErrCodeInvalidAmount, ledgererrors.ErrMsgInvalidAmount)
		}

		balance, err := l.creditStore.GetBalance(caller)
		if err != nil {
			return err
		}
		newBalance := new(uint256.Int)
		if _, underflow := newBalance.SubOverflow(balance, amount); underflow {
			return ledgererrors.NewError(ledgererrors.ErrCodeInsufficientBalance, ledgererrors.ErrMsgInsufficientBalance)
		}

		supply, err := l.creditStore.GetTotalSupply()
		if err != nil {
			return err
		}
		newSupply := new(uint256.Int)
		// supply >= balance >= amount holds under conservation, the checked
		// subtraction still guards a corrupted store
		if _, underflow := newSupply.SubOverflow(supply, amount); underflow {
			return ledgererrors.NewError(ledgererrors.ErrCodeInsufficientBalance, ledgererrors.ErrMsgInsufficientBalance)
		}

		batch := l.provider.Batch()
		defer batch.Close()
		l.creditStore.SetBalance(batch, caller, newBalance)
		l.creditStore.SetTotalSupply(batch, newSupply)
		delta := opDelta{
			op:     "burn",
			caller: caller,
			fields: []string{utils.Uint256ToString(amount)},
		}
		if err := l.commit(batch, delta); err != nil {
			return err
		}

		if newSupply.IsUint64() {
			monitoring.SetTotalSupply(float64(newSupply.Uint64()))
		}
		l.publish(events.NewCreditsBurned(caller, new(uint256.Int).Set(amount)))
		logx.Info("LEDGER", fmt.Sprintf("Burned %s credits from %s", utils.Uint256ToString(amount), caller))
		return nil
	})
}

// --- Mint journal ---

// VerifyCredit checks a claimed (index, recipient, amount) triple against
// the immutable fields of the stored journal record. Read only.
func (l *Ledger) VerifyCredit(index uint64, expectedRecipient types.Identity, expectedAmount *uint256.Int) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	record, err := l.journalStore.GetRecord(index)
	if err != nil {
		return err
	}
	if record == nil {
		return ledgererrors.NewError(ledgererrors.ErrCodeNotFound, ledgererrors.ErrMsgNotFound)
	}
	if record.Recipient != expectedRecipient || expectedAmount == nil || !record.Amount.Eq(expectedAmount) {
		return ledgererrors.NewError(ledgererrors.ErrCodeMismatch, ledgererrors.ErrMsgMismatch)
	}
	return nil
}

// UpdateMetadata replaces the metadata of the journal record at index,
// preserving amount, recipient and timestamp. Any current minter may amend
// any record, not only the one who minted it.
func (l *Ledger) UpdateMetadata(caller types.Identity, index uint64, newMetadata string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.observe("update_metadata", func() error {
		authorized, err := l.stateStore.IsMinter(caller)
		if err != nil {
			return fmt.Errorf("could not check minter %s: %w", caller, err)
		}
		if !authorized {
			return ledgererrors.NewError(ledgererrors.ErrCodeInvalidMinter, ledgererrors.ErrMsgInvalidMinter)
		}
		if len(newMetadata) > config.MaxMetadataLength {
			return ledgererrors.NewError(ledgererrors.ErrCodeMetadataTooLong, ledgererrors.ErrMsgMetadataTooLong)
		}

		record, err := l.journalStore.GetRecord(index)
		if err != nil {
			return err
		}
		if record == nil {
			return ledgererrors.NewError(ledgererrors.ErrCodeNotFound, ledgererrors.ErrMsgNotFound)
		}

		record.Metadata = newMetadata

		batch := l.provider.Batch()
		defer batch.Close()
		if err := l.journalStore.PutRecord(batch, index, record); err != nil {
			return err
		}
		delta := opDelta{
			op:     "update_metadata",
			caller: caller,
			fields: []string{strconv.FormatUint(index, 10), newMetadata},
		}
		if err := l.commit(batch, delta); err != nil {
			return err
		}

		l.publish(events.NewRecordMetadataUpdated(caller, index))
		logx.Info("LEDGER", fmt.Sprintf("Metadata updated on record %d by %s", index, caller))
		return nil
	})
}

// --- Metadata store ---

// SetTokenURI stores or clears the descriptor URI of the credit class.
// Admin only.
func (l *Ledger) SetTokenURI(caller types.Identity, uri string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.observe("set_token_uri", func() error {
		if err := l.requireAdmin(caller); err != nil {
			return err
		}
		if len(uri) > config.MaxTokenURILength {
			return ledgererrors.NewError(ledgererrors.ErrCodeURITooLong, ledgererrors.ErrMsgURITooLong)
		}

		batch := l.provider.Batch()
		defer batch.Close()
		l.stateStore.SetTokenURI(batch, uri)
		if err := l.commit(batch, opDelta{op: "set_token_uri", caller: caller, fields: []string{uri}}); err != nil {
			return err
		}

		l.publish(events.NewTokenURIUpdated(caller, uri))
		return nil
	})
}

// --- Queries ---

// Balance returns the current balance for id, zero for unknown identities.
func (l *Ledger) Balance(id types.Identity) (*uint256.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.creditStore.GetBalance(id)
}

// TotalSupply returns the current total credit supply.
func (l *Ledger) TotalSupply() (*uint256.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.creditStore.GetTotalSupply()
}

// MintRecord returns the journal record at index, or nil when absent.
func (l *Ledger) MintRecord(index uint64) (*types.MintRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	record, err := l.journalStore.GetRecord(index)
	if err != nil {
		return nil, err
	}
	return record.Clone(), nil
}

// MintCount returns the number of journal records ever created.
func (l *Ledger) MintCount() (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.journalStore.GetCounter()
}

// IsMinter reports whether id is currently authorized to mint.
func (l *Ledger) IsMinter(id types.Identity) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.stateStore.IsMinter(id)
}

// IsPaused reports whether the emergency stop is engaged.
func (l *Ledger) IsPaused() (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.stateStore.IsPaused()
}

// Admin returns the current admin identity.
func (l *Ledger) Admin() (types.Identity, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.stateStore.GetAdmin()
}

// TokenURI returns the descriptor URI of the credit class, empty when unset.
func (l *Ledger) TokenURI() (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.stateStore.GetTokenURI()
}

// Info returns the fixed descriptors of the credit class.
func (l *Ledger) Info() types.CreditInfo {
	return types.CreditInfo{
		Name:     config.CreditName,
		Symbol:   config.CreditSymbol,
		Decimals: config.CreditDecimals,
	}
}

// Digest returns the running audit digest over all accepted operations.
func (l *Ledger) Digest() ([32]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	digest, _, err := l.stateStore.GetDigest()
	return digest, err
}

// CheckConservation recomputes the sum of all balances and compares it to
// the stored total supply. Returns the holder count on success. Intended
// for audits and tests; the invariant holds by construction.
func (l *Ledger) CheckConservation() (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	sum := uint256.NewInt(0)
	holders := 0
	err := l.creditStore.IterateBalances(func(id types.Identity, balance *uint256.Int) bool {
		if balance.IsZero() {
			return true
		}
		holders++
		sum.Add(sum, balance)
		return true
	})
	if err != nil {
		return 0, err
	}

	supply, err := l.creditStore.GetTotalSupply()
	if err != nil {
		return 0, err
	}
	if !sum.Eq(supply) {
		return holders, fmt.Errorf("conservation violated: supply=%s, sum=%s", utils.Uint256ToString(supply), utils.Uint256ToString(sum))
	}

	monitoring.SetHolderCount(holders)
	return holders, nil
}

// --- internal helpers ---

func (l *Ledger) requireAdmin(caller types.Identity) error {
	admin, err := l.stateStore.GetAdmin()
	if err != nil {
		return fmt.Errorf("could not read admin: %w", err)
	}
	if caller != admin {
		return ledgererrors.NewError(ledgererrors.ErrCodeUnauthorized, ledgererrors.ErrMsgUnauthorized)
	}
	return nil
}

func (l *Ledger) requireNotPaused() error {
	paused, err := l.stateStore.IsPaused()
	if err != nil {
		return fmt.Errorf("could not read pause flag: %w", err)
	}
	if paused {
		return ledgererrors.NewError(ledgererrors.ErrCodePaused, ledgererrors.ErrMsgPaused)
	}
	return nil
}

// commit chains the audit digest into batch and writes everything at once.
func (l *Ledger) commit(batch db.DatabaseBatch, delta opDelta) error {
	prev, _, err := l.stateStore.GetDigest()
	if err != nil {
		return err
	}
	l.stateStore.SetDigest(batch, combineDigest(prev, computeOpDeltaHash(delta)))

	if err := batch.Write(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", delta.op, err)
	}
	return nil
}

// observe wraps an operation with metrics bookkeeping.
func (l *Ledger) observe(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	monitoring.RecordOpDuration(time.Since(start))
	if err != nil {
		monitoring.RecordRejectedOp(op, string(ledgererrors.CodeOf(err)))
		return err
	}
	monitoring.RecordAcceptedOp(op)
	return nil
}

func (l *Ledger) publish(event events.LedgerEvent) {
	if l.eventBus == nil {
		return
	}
	l.eventBus.Publish(event)
}

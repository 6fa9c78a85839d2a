package events

import (
	"time"

	"github.com/holiman/uint256"

	"github.com/kanteakoisi/GreenPledge/types"
)

// EventType is an enum-like string type for ledger events
type EventType string

const (
	EventCreditsMinted         EventType = "CreditsMinted"
	EventCreditsTransferred    EventType = "CreditsTransferred"
	EventCreditsBurned         EventType = "CreditsBurned"
	EventMinterAdded           EventType = "MinterAdded"
	EventMinterRemoved         EventType = "MinterRemoved"
	EventAdminChanged          EventType = "AdminChanged"
	EventLedgerPaused          EventType = "LedgerPaused"
	EventLedgerUnpaused        EventType = "LedgerUnpaused"
	EventRecordMetadataUpdated EventType = "RecordMetadataUpdated"
	EventTokenURIUpdated       EventType = "TokenURIUpdated"
)

// LedgerEvent represents any event emitted after an accepted ledger operation
type LedgerEvent interface {
	Type() EventType
	Timestamp() time.Time
	Actor() types.Identity
}

type baseEvent struct {
	actor     types.Identity
	timestamp time.Time
}

func (e baseEvent) Timestamp() time.Time  { return e.timestamp }
func (e baseEvent) Actor() types.Identity { return e.actor }

// CreditsMinted event when new credits are issued to a recipient
type CreditsMinted struct {
	baseEvent
	recipient types.Identity
	amount    *uint256.Int
	index     uint64
}

func NewCreditsMinted(minter, recipient types.Identity, amount *uint256.Int, index uint64) *CreditsMinted {
	return &CreditsMinted{
		baseEvent: baseEvent{actor: minter, timestamp: time.Now()},
		recipient: recipient,
		amount:    amount,
		index:     index,
	}
}

func (e *CreditsMinted) Type() EventType           { return EventCreditsMinted }
func (e *CreditsMinted) Recipient() types.Identity { return e.recipient }
func (e *CreditsMinted) Amount() *uint256.Int      { return e.amount }
func (e *CreditsMinted) RecordIndex() uint64       { return e.index }

// CreditsTransferred event when credits move between two holders
type CreditsTransferred struct {
	baseEvent
	recipient types.Identity
	amount    *uint256.Int
	memo      string
}

func NewCreditsTransferred(sender, recipient types.Identity, amount *uint256.Int, memo string) *CreditsTransferred {
	return &CreditsTransferred{
		baseEvent: baseEvent{actor: sender, timestamp: time.Now()},
		recipient: recipient,
		amount:    amount,
		memo:      memo,
	}
}

func (e *CreditsTransferred) Type() EventType           { return EventCreditsTransferred }
func (e *CreditsTransferred) Recipient() types.Identity { return e.recipient }
func (e *CreditsTransferred) Amount() *uint256.Int      { return e.amount }
func (e *CreditsTransferred) Memo() string              { return e.memo }

// CreditsBurned event when a holder retires credits from their own balance
type CreditsBurned struct {
	baseEvent
	amount *uint256.Int
}

func NewCreditsBurned(holder types.Identity, amount *uint256.Int) *CreditsBurned {
	return &CreditsBurned{
		baseEvent: baseEvent{actor: holder, timestamp: time.Now()},
		amount:    amount,
	}
}

func (e *CreditsBurned) Type() EventType      { return EventCreditsBurned }
func (e *CreditsBurned) Amount() *uint256.Int { return e.amount }

// MinterAdded event when the admin authorizes a new minter
type MinterAdded struct {
	baseEvent
	minter types.Identity
}

func NewMinterAdded(admin, minter types.Identity) *MinterAdded {
	return &MinterAdded{
		baseEvent: baseEvent{actor: admin, timestamp: time.Now()},
		minter:    minter,
	}
}

func (e *MinterAdded) Type() EventType        { return EventMinterAdded }
func (e *MinterAdded) Minter() types.Identity { return e.minter }

// MinterRemoved event when the admin revokes a minter
type MinterRemoved struct {
	baseEvent
	minter types.Identity
}

func NewMinterRemoved(admin, minter types.Identity) *MinterRemoved {
	return &MinterRemoved{
		baseEvent: baseEvent{actor: admin, timestamp: time.Now()},
		minter:    minter,
	}
}

func (e *MinterRemoved) Type() EventType        { return EventMinterRemoved }
func (e *MinterRemoved) Minter() types.Identity { return e.minter }

// AdminChanged event when the admin hands over control
type AdminChanged struct {
	baseEvent
	newAdmin types.Identity
}

func NewAdminChanged(oldAdmin, newAdmin types.Identity) *AdminChanged {
	return &AdminChanged{
		baseEvent: baseEvent{actor: oldAdmin, timestamp: time.Now()},
		newAdmin:  newAdmin,
	}
}

func (e *AdminChanged) Type() EventType          { return EventAdminChanged }
func (e *AdminChanged) NewAdmin() types.Identity { return e.newAdmin }

// LedgerPaused event when the emergency stop engages
type LedgerPaused struct {
	baseEvent
}

func NewLedgerPaused(admin types.Identity) *LedgerPaused {
	return &LedgerPaused{baseEvent: baseEvent{actor: admin, timestamp: time.Now()}}
}

func (e *LedgerPaused) Type() EventType { return EventLedgerPaused }

// LedgerUnpaused event when the emergency stop releases
type LedgerUnpaused struct {
	baseEvent
}

func NewLedgerUnpaused(admin types.Identity) *LedgerUnpaused {
	return &LedgerUnpaused{baseEvent: baseEvent{actor: admin, timestamp: time.Now()}}
}

func (e *LedgerUnpaused) Type() EventType { return EventLedgerUnpaused }

// RecordMetadataUpdated event when a minter amends a journal record
type RecordMetadataUpdated struct {
	baseEvent
	index uint64
}

func NewRecordMetadataUpdated(minter types.Identity, index uint64) *RecordMetadataUpdated {
	return &RecordMetadataUpdated{
		baseEvent: baseEvent{actor: minter, timestamp: time.Now()},
		index:     index,
	}
}

func (e *RecordMetadataUpdated) Type() EventType     { return EventRecordMetadataUpdated }
func (e *RecordMetadataUpdated) RecordIndex() uint64 { return e.index }

// TokenURIUpdated event when the admin stores or clears the descriptor URI
type TokenURIUpdated struct {
	baseEvent
	uri string
}

func NewTokenURIUpdated(admin types.Identity, uri string) *TokenURIUpdated {
	return &TokenURIUpdated{
		baseEvent: baseEvent{actor: admin, timestamp: time.Now()},
		uri:       uri,
	}
}

func (e *TokenURIUpdated) Type() EventType { return EventTokenURIUpdated }
func (e *TokenURIUpdated) URI() string     { return e.uri }

package errors

import (
	stderrors "errors"

	"github.com/kanteakoisi/GreenPledge/jsonx"
)

// LedgerErrorCode represents standardized error codes for ledger operations
type LedgerErrorCode string

const (
	// General errors
	ErrCodeInternal LedgerErrorCode = "internal_error"

	// Authorization errors
	ErrCodeUnauthorized  LedgerErrorCode = "unauthorized"
	ErrCodeInvalidMinter LedgerErrorCode = "invalid_minter"

	// State errors
	ErrCodePaused              LedgerErrorCode = "ledger_paused"
	ErrCodeAlreadyRegistered   LedgerErrorCode = "already_registered"
	ErrCodeInsufficientBalance LedgerErrorCode = "insufficient_balance"
	ErrCodeNotFound            LedgerErrorCode = "not_found"
	ErrCodeMismatch            LedgerErrorCode = "mismatch"

	// Input validation errors
	ErrCodeInvalidAmount         LedgerErrorCode = "invalid_amount"
	ErrCodeInvalidRecipient      LedgerErrorCode = "invalid_recipient"
	ErrCodeSenderEqualsRecipient LedgerErrorCode = "sender_equals_recipient"
	ErrCodeMetadataTooLong       LedgerErrorCode = "metadata_too_long"
	ErrCodeURITooLong            LedgerErrorCode = "uri_too_long"
)

// Error message constants - user-friendly and concise
const (
	ErrMsgInternal              = "Storage error, please try again"
	ErrMsgUnauthorized          = "Caller is not the ledger admin"
	ErrMsgInvalidMinter         = "Caller is not an authorized minter"
	ErrMsgPaused                = "Ledger is paused"
	ErrMsgAlreadyRegistered     = "Identity is already an authorized minter"
	ErrMsgInsufficientBalance   = "Not enough credits in the source balance"
	ErrMsgNotFound              = "No mint record exists at this index"
	ErrMsgMismatch              = "Claimed recipient or amount does not match the mint record"
	ErrMsgInvalidAmount         = "Amount is invalid or zero"
	ErrMsgInvalidRecipient      = "Recipient is invalid for this operation"
	ErrMsgSenderEqualsRecipient = "Sender and recipient must differ"
	ErrMsgMetadataTooLong       = "Metadata length exceeds the maximum"
	ErrMsgURITooLong            = "Token URI length exceeds the maximum"
)

// LedgerError is a categorical operation failure. Every rejected operation
// surfaces exactly one code so callers can branch without inspecting state.
type LedgerError struct {
	Code    LedgerErrorCode `json:"code"`
	Message string          `json:"message"`
}

// Error implements the error interface
func (e *LedgerError) Error() string {
	out, _ := jsonx.Marshal(LedgerError{
		Code:    e.Code,
		Message: e.Message,
	})
	return string(out)
}

// NewError creates a new LedgerError and returns it as error interface
func NewError(code LedgerErrorCode, message string) error {
	return &LedgerError{
		Code:    code,
		Message: message,
	}
}

// CodeOf extracts the categorical code from err, or ErrCodeInternal when err
// is not a LedgerError.
func CodeOf(err error) LedgerErrorCode {
	var le *LedgerError
	if stderrors.As(err, &le) {
		return le.Code
	}
	return ErrCodeInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code LedgerErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

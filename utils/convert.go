package utils

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Uint256ToString renders an amount as a decimal string. Nil renders as "0"
// so serialized records never carry an empty amount.
func Uint256ToString(value *uint256.Int) string {
	if value == nil {
		return "0"
	}
	return value.Dec()
}

// Uint256FromString parses a decimal string, returning zero for anything
// unparsable. Use ParseAmount when the input is untrusted.
func Uint256FromString(value string) *uint256.Int {
	parsed, err := uint256.FromDecimal(value)
	if err != nil {
		return uint256.NewInt(0)
	}
	return parsed
}

// ParseAmount parses an untrusted decimal amount string.
func ParseAmount(value string) (*uint256.Int, error) {
	if value == "" {
		return nil, fmt.Errorf("amount is empty")
	}
	parsed, err := uint256.FromDecimal(value)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return parsed, nil
}

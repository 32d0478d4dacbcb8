package registry

import (
	"fmt"
	"math/big"
	"strings"
)

// MaxAmountBits is the width of the token contract's uint256 amount.
const MaxAmountBits = 256

// ParseUnits converts a decimal string such as "1.5" into an integer amount
// of the smallest unit for a token with the given decimals.
func ParseUnits(amount string, decimals uint8) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, fmt.Errorf("amount is required")
	}

	whole, frac, hasDot := strings.Cut(amount, ".")
	if hasDot && strings.Contains(frac, ".") {
		return nil, fmt.Errorf("invalid amount: %s", amount)
	}
	if whole == "" && frac == "" {
		return nil, fmt.Errorf("invalid amount: %s", amount)
	}
	if !isDigits(whole) || !isDigits(frac) {
		return nil, fmt.Errorf("invalid amount: %s", amount)
	}

	frac = strings.TrimRight(frac, "0")
	if len(frac) > int(decimals) {
		return nil, fmt.Errorf("amount %s has more than %d decimals", amount, decimals)
	}
	digits := whole + frac + strings.Repeat("0", int(decimals)-len(frac))
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return new(big.Int), nil
	}

	value, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %s", amount)
	}
	if value.BitLen() > MaxAmountBits {
		return nil, fmt.Errorf("amount %s does not fit in uint%d", amount, MaxAmountBits)
	}
	return value, nil
}

// ParseBaseUnits parses a stored distribution amount (base-10 integer).
func ParseBaseUnits(amount string) (*big.Int, error) {
	if !isDigits(amount) || amount == "" {
		return nil, fmt.Errorf("invalid base unit amount: %q", amount)
	}
	value, ok := new(big.Int).SetString(amount, 10)
	if !ok {
		return nil, fmt.Errorf("invalid base unit amount: %q", amount)
	}
	return value, nil
}

// FormatUnits renders a smallest-unit amount as a decimal string.
func FormatUnits(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}
	sign := ""
	digits := amount.String()
	if amount.Sign() < 0 {
		sign = "-"
		digits = digits[1:]
	}
	if decimals == 0 {
		return sign + digits
	}
	if pad := int(decimals) + 1 - len(digits); pad > 0 {
		digits = strings.Repeat("0", pad) + digits
	}
	cut := len(digits) - int(decimals)
	frac := strings.TrimRight(digits[cut:], "0")
	if frac == "" {
		return sign + digits[:cut]
	}
	return sign + digits[:cut] + "." + frac
}

func isDigits(input string) bool {
	for _, r := range input {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

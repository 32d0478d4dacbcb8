package registry

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"tokenFaucet/internal/model"
)

// NormalizeAddress validates a hex address and returns it lowercased.
func NormalizeAddress(input string) (string, error) {
	input = strings.TrimSpace(input)
	if !common.IsHexAddress(input) {
		return "", fmt.Errorf("invalid address: %s", input)
	}
	return strings.ToLower(common.HexToAddress(input).Hex()), nil
}

// NormalizeWallet is NormalizeAddress reporting model.ErrInvalidWallet.
func NormalizeWallet(input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", fmt.Errorf("%w: no wallet address passed", model.ErrInvalidWallet)
	}
	address, err := NormalizeAddress(input)
	if err != nil {
		return "", fmt.Errorf("%w: %s", model.ErrInvalidWallet, input)
	}
	if !checksumMatches(strings.TrimSpace(input)) {
		return "", fmt.Errorf("%w: bad checksum %s", model.ErrInvalidWallet, input)
	}
	return address, nil
}

// checksumMatches reports whether a mixed-case address carries a valid EIP-55
// checksum. Single-case addresses carry none and always match.
func checksumMatches(input string) bool {
	hexPart := strings.TrimPrefix(strings.TrimPrefix(input, "0x"), "0X")
	if hexPart == strings.ToLower(hexPart) || hexPart == strings.ToUpper(hexPart) {
		return true
	}
	return common.HexToAddress(hexPart).Hex()[2:] == hexPart
}

package chain

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const faucetTokenABIJSON = `[
  {
    "inputs": [
      {"internalType": "address", "name": "recipient", "type": "address"},
      {"internalType": "uint256", "name": "amount", "type": "uint256"}
    ],
    "name": "mint",
    "outputs": [{"internalType": "bool", "name": "success", "type": "bool"}],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"}
]`

var (
	faucetTokenABI     abi.ABI
	faucetTokenABIOnce sync.Once
	faucetTokenABIErr  error
)

// FaucetTokenABI returns the parsed ABI of mintable faucet tokens.
func FaucetTokenABI() (abi.ABI, error) {
	faucetTokenABIOnce.Do(func() {
		faucetTokenABI, faucetTokenABIErr = abi.JSON(strings.NewReader(faucetTokenABIJSON))
	})
	return faucetTokenABI, faucetTokenABIErr
}

package chain

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Key is the faucet's private key. It only produces chain-bound Signers.
type Key struct {
	private *ecdsa.PrivateKey
	address common.Address
}

// ParseKey parses a hex private key, with or without 0x prefix.
func ParseKey(hexKey string) (*Key, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if hexKey == "" {
		return nil, fmt.Errorf("private key is required")
	}
	private, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &Key{private: private, address: crypto.PubkeyToAddress(private.PublicKey)}, nil
}

// Address returns the account derived from the key.
func (k *Key) Address() common.Address {
	return k.address
}

// ForChain returns a Signer bound to chainID.
func (k *Key) ForChain(chainID *big.Int) *Signer {
	id := new(big.Int).Set(chainID)
	return &Signer{
		key:     k.private,
		address: k.address,
		chainID: id,
		signer:  types.LatestSignerForChainID(id),
	}
}

// Signer signs transactions for a single chain.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
	chainID *big.Int
	signer  types.Signer
}

func (s *Signer) Address() common.Address { return s.address }

func (s *Signer) ChainID() *big.Int { return s.chainID }

// Sign signs tx with the chain's latest signer scheme.
func (s *Signer) Sign(tx *types.Transaction) (*types.Transaction, error) {
	return types.SignTx(tx, s.signer, s.key)
}

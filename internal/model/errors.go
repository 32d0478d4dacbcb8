package model

import "errors"

var (
	ErrInvalidWallet        = errors.New("invalid wallet address")
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrInvalidRequest       = errors.New("invalid request")
	ErrAlreadyClaimed       = errors.New("you have already claimed from the testnet faucet")
	ErrClientUnavailable    = errors.New("chain client unavailable")
	ErrSubmission           = errors.New("transaction submission failed")
	ErrTimeout              = errors.New("confirmation timed out")
	ErrReverted             = errors.New("transaction reverted")
	ErrNothingToDistribute  = errors.New("no chains or tokens registered")
)

package model

import (
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
)

// Obligation is one (chain, token, amount) transfer planned for a claim.
type Obligation struct {
	Chain  ChainConfig
	Token  TokenConfig
	Amount *big.Int
}

// OutcomeState is the lifecycle state of a single obligation's transaction.
type OutcomeState string

const (
	OutcomeSubmitted OutcomeState = "submitted"
	OutcomeConfirmed OutcomeState = "confirmed"
	OutcomeFailed    OutcomeState = "failed"
)

// FailureReason classifies failed outcomes.
type FailureReason string

const (
	ReasonClientUnavailable FailureReason = "client_unavailable"
	ReasonSubmission        FailureReason = "submission_error"
	ReasonTimeout           FailureReason = "timeout"
	ReasonReverted          FailureReason = "reverted"
	ReasonUnknown           FailureReason = "unknown"
)

// TransactionOutcome is the result of one obligation.
type TransactionOutcome struct {
	ChainID     uint64         `json:"chainId"`
	Token       string         `json:"token"`
	Amount      string         `json:"amount"`
	State       OutcomeState   `json:"state"`
	TxHash      string         `json:"txHash,omitempty"`
	BlockNumber uint64         `json:"blockNumber,omitempty"`
	GasUsed     uint64         `json:"gasUsed,omitempty"`
	Reason      FailureReason  `json:"reason,omitempty"`
	Error       string         `json:"error,omitempty"`
	Err         error          `json:"-"`
	Receipt     *types.Receipt `json:"-"`
}

// NewOutcome returns a pending outcome describing the obligation.
func NewOutcome(o Obligation) TransactionOutcome {
	amount := ""
	if o.Amount != nil {
		amount = o.Amount.String()
	}
	return TransactionOutcome{
		ChainID: o.Chain.ChainID,
		Token:   o.Token.Address,
		Amount:  amount,
		State:   OutcomeSubmitted,
	}
}

// Confirm marks the outcome as mined successfully.
func (o *TransactionOutcome) Confirm(receipt *types.Receipt) {
	o.State = OutcomeConfirmed
	o.Receipt = receipt
	if receipt != nil {
		o.TxHash = receipt.TxHash.Hex()
		if receipt.BlockNumber != nil {
			o.BlockNumber = receipt.BlockNumber.Uint64()
		}
		o.GasUsed = receipt.GasUsed
	}
}

// Fail marks the outcome as failed and classifies err.
func (o *TransactionOutcome) Fail(err error) {
	o.State = OutcomeFailed
	o.Err = err
	o.Reason = ReasonFor(err)
	if err != nil {
		o.Error = err.Error()
	}
}

// ReasonFor maps an error onto a FailureReason.
func ReasonFor(err error) FailureReason {
	switch {
	case errors.Is(err, ErrClientUnavailable):
		return ReasonClientUnavailable
	case errors.Is(err, ErrTimeout):
		return ReasonTimeout
	case errors.Is(err, ErrReverted):
		return ReasonReverted
	case errors.Is(err, ErrSubmission):
		return ReasonSubmission
	default:
		return ReasonUnknown
	}
}

// DistributionStatus is the aggregate status of a distribution.
type DistributionStatus string

const (
	FullSuccess    DistributionStatus = "full_success"
	PartialSuccess DistributionStatus = "partial_success"
	TotalFailure   DistributionStatus = "total_failure"
)

// DistributionResult holds one outcome per planned obligation, in plan order.
type DistributionResult struct {
	Wallet     string               `json:"wallet"`
	Status     DistributionStatus   `json:"status"`
	Outcomes   []TransactionOutcome `json:"outcomes"`
	StartedAt  time.Time            `json:"startedAt"`
	FinishedAt time.Time            `json:"finishedAt"`
}

// StatusOf derives the aggregate status from outcomes.
func StatusOf(outcomes []TransactionOutcome) DistributionStatus {
	confirmed := 0
	for _, o := range outcomes {
		if o.State == OutcomeConfirmed {
			confirmed++
		}
	}
	switch {
	case confirmed == 0:
		return TotalFailure
	case confirmed == len(outcomes):
		return FullSuccess
	default:
		return PartialSuccess
	}
}

// Confirmed counts confirmed outcomes.
func (r *DistributionResult) Confirmed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.State == OutcomeConfirmed {
			n++
		}
	}
	return n
}

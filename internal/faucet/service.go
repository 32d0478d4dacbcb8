package faucet

import (
	"context"

	"go.uber.org/zap"

	"tokenFaucet/internal/claim"
	"tokenFaucet/internal/model"
	"tokenFaucet/internal/storage"
)

// Guard reserves and releases claims.
type Guard interface {
	Reserve(ctx context.Context, ip, wallet string) (*claim.Reservation, error)
	Release(ctx context.Context, r *claim.Reservation) error
}

// Distributor sends a claim's tokens.
type Distributor interface {
	Distribute(ctx context.Context, wallet string) (*model.DistributionResult, error)
}

// Service runs a claim end to end: reserve, distribute, and release the
// reservation when nothing was delivered.
type Service struct {
	guard  Guard
	engine Distributor
	sink   storage.ResultSink
	logger *zap.Logger
}

// NewService builds a Service. sink may be nil.
func NewService(guard Guard, engine Distributor, sink storage.ResultSink, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		guard:  guard,
		engine: engine,
		sink:   sink,
		logger: logger,
	}
}

// Claim distributes tokens to wallet on behalf of ip. It returns an error only
// when nothing was attempted; per-transaction failures are in the result.
// The distribution is not cancelled when ctx is, so a disconnecting client
// cannot leave a reservation without its transactions.
func (s *Service) Claim(ctx context.Context, ip, wallet string) (*model.DistributionResult, error) {
	reservation, err := s.guard.Reserve(ctx, ip, wallet)
	if err != nil {
		return nil, err
	}

	detached := context.WithoutCancel(ctx)
	result, err := s.engine.Distribute(detached, reservation.Wallet)
	if err != nil {
		s.release(detached, reservation, err.Error())
		return nil, err
	}

	if result.Status == model.TotalFailure {
		s.release(detached, reservation, string(result.Status))
	}
	if s.sink != nil {
		if err := s.sink.PutResult(result); err != nil {
			s.logger.Error("write audit record", zap.String("wallet", result.Wallet), zap.Error(err))
		}
	}

	s.logger.Info("claim processed",
		zap.String("ip", reservation.IP),
		zap.String("wallet", reservation.Wallet),
		zap.String("status", string(result.Status)),
		zap.Int("confirmed", result.Confirmed()),
		zap.Int("obligations", len(result.Outcomes)),
	)
	return result, nil
}

func (s *Service) release(ctx context.Context, r *claim.Reservation, cause string) {
	if err := s.guard.Release(ctx, r); err != nil {
		s.logger.Error("release claim",
			zap.String("claim_id", r.ID),
			zap.String("cause", cause),
			zap.Error(err),
		)
	}
}

package claim

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tokenFaucet/internal/model"
	"tokenFaucet/internal/registry"
	"tokenFaucet/internal/storage"
)

// Reservation references the ledger record written by Reserve.
type Reservation struct {
	ID        string
	IP        string
	Wallet    string
	CreatedAt time.Time
}

// Guard turns "has this IP or wallet claimed" into a single atomic insert
// against the claim ledger.
type Guard struct {
	ledger storage.ClaimLedger
	logger *zap.Logger
	now    func() time.Time
}

func NewGuard(ledger storage.ClaimLedger, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{
		ledger: ledger,
		logger: logger,
		now:    time.Now,
	}
}

// Reserve records a claim for ip and wallet before any distribution happens.
// It fails with model.ErrAlreadyClaimed when either is already in the ledger.
func (g *Guard) Reserve(ctx context.Context, ip, wallet string) (*Reservation, error) {
	normalized, err := registry.NormalizeWallet(wallet)
	if err != nil {
		return nil, err
	}
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return nil, fmt.Errorf("%w: client ip unknown", model.ErrInvalidRequest)
	}

	record := model.ClaimRecord{
		ID:            uuid.NewString(),
		IPAddress:     ip,
		WalletAddress: normalized,
		CreatedAt:     g.now().UTC(),
	}
	if err := g.ledger.InsertClaim(ctx, record); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			g.logger.Info("claim rejected",
				zap.String("ip", ip),
				zap.String("wallet", normalized),
			)
			return nil, model.ErrAlreadyClaimed
		}
		return nil, fmt.Errorf("reserve claim: %w", err)
	}

	g.logger.Debug("claim reserved",
		zap.String("claim_id", record.ID),
		zap.String("ip", ip),
		zap.String("wallet", normalized),
	)
	return &Reservation{
		ID:        record.ID,
		IP:        record.IPAddress,
		Wallet:    record.WalletAddress,
		CreatedAt: record.CreatedAt,
	}, nil
}

// Release deletes the reservation so the requester may claim again.
// Releasing a reservation that is already gone is not an error.
func (g *Guard) Release(ctx context.Context, r *Reservation) error {
	if r == nil {
		return nil
	}
	if err := g.ledger.DeleteClaim(ctx, r.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("release claim %s: %w", r.ID, err)
	}
	g.logger.Info("claim released",
		zap.String("claim_id", r.ID),
		zap.String("wallet", r.Wallet),
	)
	return nil
}

// Lookup returns the claim recorded for wallet, if any.
func (g *Guard) Lookup(ctx context.Context, wallet string) (model.ClaimRecord, bool, error) {
	normalized, err := registry.NormalizeWallet(wallet)
	if err != nil {
		return model.ClaimRecord{}, false, err
	}
	record, err := g.ledger.FindClaim(ctx, "", normalized)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.ClaimRecord{}, false, nil
		}
		return model.ClaimRecord{}, false, err
	}
	return record, true, nil
}

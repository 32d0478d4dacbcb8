package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"tokenFaucet/internal/model"
	"tokenFaucet/internal/storage"
	"tokenFaucet/internal/storage/migrations"
)

// PostgreSQL error codes.
const (
	pgErrUniqueViolation     = "23505"
	pgErrForeignKeyViolation = "23503"
)

// Store provides Postgres persistence for the registry and claim ledger.
type Store struct {
	pool *pgxpool.Pool
}

// Compile-time interface check.
var _ storage.Store = (*Store)(nil)

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Migrate applies the embedded schema.
func (s *Store) Migrate(ctx context.Context) error {
	return migrations.ApplyPostgres(ctx, s.pool)
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func (s *Store) InsertChain(ctx context.Context, chain model.ChainConfig) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO chains (name, chain_id, rpc_url) VALUES ($1, $2, $3)
	`, chain.Name, int64(chain.ChainID), chain.RPCURL)
	if err != nil {
		if pgErrorCode(err) == pgErrUniqueViolation {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert chain: %w", err)
	}
	return nil
}

func (s *Store) GetChain(ctx context.Context, chainID uint64) (model.ChainConfig, error) {
	row := s.pool.QueryRow(ctx, `SELECT name, chain_id, rpc_url FROM chains WHERE chain_id = $1`, int64(chainID))
	chain, err := scanChain(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ChainConfig{}, storage.ErrNotFound
		}
		return model.ChainConfig{}, fmt.Errorf("get chain: %w", err)
	}
	return chain, nil
}

func (s *Store) ListChains(ctx context.Context) ([]model.ChainConfig, error) {
	rows, err := s.pool.Query(ctx, `SELECT name, chain_id, rpc_url FROM chains ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list chains: %w", err)
	}
	defer rows.Close()

	out := make([]model.ChainConfig, 0)
	for rows.Next() {
		chain, err := scanChain(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chain: %w", err)
		}
		out = append(out, chain)
	}
	return out, rows.Err()
}

func (s *Store) InsertToken(ctx context.Context, token model.TokenConfig) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tokens (name, address, chain_id, distribution_amount) VALUES ($1, $2, $3, $4)
	`, token.Name, token.Address, int64(token.ChainID), token.DistributionAmount)
	if err != nil {
		switch pgErrorCode(err) {
		case pgErrUniqueViolation:
			return storage.ErrDuplicateKey
		case pgErrForeignKeyViolation:
			return fmt.Errorf("chain %d: %w", token.ChainID, storage.ErrNotFound)
		}
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

func (s *Store) GetToken(ctx context.Context, address string, chainID uint64) (model.TokenConfig, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT name, address, chain_id, distribution_amount FROM tokens WHERE address = $1 AND chain_id = $2
	`, address, int64(chainID))
	token, err := scanToken(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.TokenConfig{}, storage.ErrNotFound
		}
		return model.TokenConfig{}, fmt.Errorf("get token: %w", err)
	}
	return token, nil
}

func (s *Store) ListTokens(ctx context.Context) ([]model.TokenConfig, error) {
	return s.queryTokens(ctx, `SELECT name, address, chain_id, distribution_amount FROM tokens ORDER BY id`)
}

func (s *Store) ListTokensByChain(ctx context.Context, chainID uint64) ([]model.TokenConfig, error) {
	return s.queryTokens(ctx, `
		SELECT name, address, chain_id, distribution_amount FROM tokens WHERE chain_id = $1 ORDER BY id
	`, int64(chainID))
}

func (s *Store) queryTokens(ctx context.Context, query string, args ...any) ([]model.TokenConfig, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	defer rows.Close()

	out := make([]model.TokenConfig, 0)
	for rows.Next() {
		token, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}
		out = append(out, token)
	}
	return out, rows.Err()
}

// InsertClaim relies on the unique indexes over ip_address and wallet_address,
// so concurrent inserts for the same identity resolve to exactly one row.
func (s *Store) InsertClaim(ctx context.Context, claim model.ClaimRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO claims (id, ip_address, wallet_address, created_at) VALUES ($1, $2, $3, $4)
	`, claim.ID, claim.IPAddress, claim.WalletAddress, claim.CreatedAt)
	if err != nil {
		if pgErrorCode(err) == pgErrUniqueViolation {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert claim: %w", err)
	}
	return nil
}

func (s *Store) DeleteClaim(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM claims WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete claim: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) FindClaim(ctx context.Context, ipAddress, walletAddress string) (model.ClaimRecord, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, ip_address, wallet_address, created_at FROM claims
		WHERE ($1 <> '' AND wallet_address = $1) OR ($2 <> '' AND ip_address = $2)
		ORDER BY (wallet_address = $1) DESC
		LIMIT 1
	`, walletAddress, ipAddress)

	var claim model.ClaimRecord
	if err := row.Scan(&claim.ID, &claim.IPAddress, &claim.WalletAddress, &claim.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ClaimRecord{}, storage.ErrNotFound
		}
		return model.ClaimRecord{}, fmt.Errorf("find claim: %w", err)
	}
	claim.CreatedAt = claim.CreatedAt.UTC()
	return claim, nil
}

func scanChain(row pgx.Row) (model.ChainConfig, error) {
	var chain model.ChainConfig
	var chainID int64
	if err := row.Scan(&chain.Name, &chainID, &chain.RPCURL); err != nil {
		return model.ChainConfig{}, err
	}
	chain.ChainID = uint64(chainID)
	return chain, nil
}

func scanToken(row pgx.Row) (model.TokenConfig, error) {
	var token model.TokenConfig
	var chainID int64
	if err := row.Scan(&token.Name, &token.Address, &chainID, &token.DistributionAmount); err != nil {
		return model.TokenConfig{}, err
	}
	token.ChainID = uint64(chainID)
	return token, nil
}

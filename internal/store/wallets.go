package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/payrpc/solgate/internal/domain"
)

// RecordSuccess bumps the usage counters for wallet after an authorized
// call, creating the account on first sight. The increments happen inside
// the statement, so concurrent calls for the same wallet never lose updates.
func (s *Store) RecordSuccess(ctx context.Context, wallet string, amount float64) error {
	_, err := s.Db.Exec(ctx, `
		INSERT INTO wallet_accounts (wallet_address, total_requests, total_spent, discount_tier, first_seen_at, last_seen_at)
		VALUES ($1, 1, $2, 'none', now(), now())
		ON CONFLICT (wallet_address) DO UPDATE
		SET total_requests = wallet_accounts.total_requests + 1,
		    total_spent = wallet_accounts.total_spent + EXCLUDED.total_spent,
		    last_seen_at = now()`,
		wallet, amount)
	return err
}

// GetWallet returns the account for wallet, or nil when it has never paid.
func (s *Store) GetWallet(ctx context.Context, wallet string) (*domain.WalletAccount, error) {
	var w domain.WalletAccount
	err := s.Db.QueryRow(ctx, `
		SELECT wallet_address, total_requests, total_spent, discount_tier, first_seen_at, last_seen_at
		FROM wallet_accounts WHERE wallet_address = $1`,
		wallet).Scan(&w.WalletAddress, &w.TotalRequests, &w.TotalSpent, &w.DiscountTier, &w.FirstSeenAt, &w.LastSeenAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

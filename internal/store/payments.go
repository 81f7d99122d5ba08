package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/payrpc/solgate/internal/domain"
)

const paymentColumns = "id, request_id, signature, amount, payer_wallet, endpoint, verified, verified_at, expires_at, created_at"

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	err := row.Scan(&p.ID, &p.RequestID, &p.Signature, &p.Amount, &p.PayerWallet,
		&p.Endpoint, &p.Verified, &p.VerifiedAt, &p.ExpiresAt, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindBySignature returns the payment bound to sig, or nil when none exists.
func (s *Store) FindBySignature(ctx context.Context, sig string) (*domain.Payment, error) {
	p, err := scanPayment(s.Db.QueryRow(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE signature = $1", sig))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// CreateChallenge persists a fresh unverified challenge. The signature stays
// NULL until a proof is presented; NULL never collides with the unique
// constraint, so open challenges can accumulate freely.
func (s *Store) CreateChallenge(ctx context.Context, requestID, endpoint string, amount float64, expiresAt time.Time) (*domain.Payment, error) {
	return scanPayment(s.Db.QueryRow(ctx, `
		INSERT INTO payments (id, request_id, signature, amount, payer_wallet, endpoint, verified, expires_at)
		VALUES ($1, $2, NULL, $3, '', $4, FALSE, $5)
		RETURNING `+paymentColumns,
		uuid.NewString(), requestID, amount, endpoint, expiresAt))
}

// UpsertVerified records sig as a verified payment. The returned bool
// reports whether this call performed the unverified-to-verified transition;
// when false, a concurrent writer got there first and the surviving record
// is returned unchanged. Exactly one caller per signature ever sees true,
// which is what keeps wallet accounting single-fire.
func (s *Store) UpsertVerified(ctx context.Context, u domain.VerifiedUpsert) (*domain.Payment, bool, error) {
	p, err := scanPayment(s.Db.QueryRow(ctx, `
		INSERT INTO payments (id, request_id, signature, amount, payer_wallet, endpoint, verified, verified_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, now(), $7)
		ON CONFLICT (signature) DO UPDATE
		SET verified = TRUE, verified_at = now(), amount = EXCLUDED.amount, payer_wallet = EXCLUDED.payer_wallet
		WHERE payments.verified = FALSE
		RETURNING `+paymentColumns,
		uuid.NewString(), u.RequestID, u.Signature, u.Amount, u.PayerWallet, u.Endpoint, u.ExpiresAt))
	if err == nil {
		return p, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	// The conflicting row was already verified, so the conditional update
	// returned nothing. Hand back the winner's record.
	existing, err := s.FindBySignature(ctx, u.Signature)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, errors.New("verified payment vanished during upsert")
	}
	return existing, false, nil
}

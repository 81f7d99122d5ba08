package store

import (
	"context"

	"github.com/payrpc/solgate/internal/domain"
)

// TrackRequest appends one row to the usage audit log. Best-effort: callers
// log failures and keep serving.
func (s *Store) TrackRequest(ctx context.Context, rec domain.RequestLog) error {
	_, err := s.Db.Exec(ctx, `
		INSERT INTO api_requests (endpoint, method, payment_id, response_time_ms, status_code, success, payer_wallet)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7)`,
		rec.Endpoint, rec.Method, rec.PaymentID, rec.ResponseTimeMs, rec.StatusCode, rec.Success, rec.PayerWallet)
	return err
}

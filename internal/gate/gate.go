// Package gate is the payment authorization orchestrator. It owns no state
// of its own: it drives the challenge/verify/persist flow across the
// injected stores, verifier and cache, and hands back a verdict.
package gate

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/payrpc/solgate/internal/domain"
	"github.com/payrpc/solgate/internal/ledger"
	"github.com/payrpc/solgate/internal/signature"
)

var (
	authTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "solgate_authorizations_total",
		Help: "Authorization verdicts, labeled by outcome",
	}, []string{"outcome"})

	verifyDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "solgate_verification_duration_seconds",
		Help:    "Latency of on-chain payment verification",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"result"})
)

// PaymentStore is the durable challenge/payment record collaborator.
type PaymentStore interface {
	FindBySignature(ctx context.Context, sig string) (*domain.Payment, error)
	CreateChallenge(ctx context.Context, requestID, endpoint string, amount float64, expiresAt time.Time) (*domain.Payment, error)
	UpsertVerified(ctx context.Context, u domain.VerifiedUpsert) (*domain.Payment, bool, error)
}

// WalletStore records per-payer usage after authorized calls.
type WalletStore interface {
	RecordSuccess(ctx context.Context, wallet string, amount float64) error
}

// Verifier checks a signature against the chain.
type Verifier interface {
	Verify(ctx context.Context, sig string, requiredAmount float64, timeout time.Duration) domain.VerificationResult
}

// Cache is the advisory fast path in front of the durable store.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, v interface{}, ttl time.Duration)
}

// Gate evaluates inbound proof headers and produces an authorization
// verdict, issuing a payment challenge when no proof is supplied.
type Gate struct {
	payments  PaymentStore
	wallets   WalletStore
	verifier  Verifier
	cache     Cache
	recipient string
	timeout   time.Duration
}

func New(payments PaymentStore, wallets WalletStore, verifier Verifier, cache Cache, recipient string, timeout time.Duration) *Gate {
	return &Gate{
		payments:  payments,
		wallets:   wallets,
		verifier:  verifier,
		cache:     cache,
		recipient: recipient,
		timeout:   timeout,
	}
}

// cachedPayment mirrors a durably verified record. It is written only after
// the store upsert, so a hit is a copy of the source of truth, not proof on
// its own.
type cachedPayment struct {
	PaymentID   string `json:"payment_id"`
	RequestID   string `json:"request_id"`
	PayerWallet string `json:"payer_wallet"`
}

func verifiedKey(sig string) string {
	return "verified:" + sig
}

// Authorize runs the state machine for one inbound request. price is the
// required payment for the endpoint in SOL.
func (g *Gate) Authorize(ctx context.Context, proof domain.PaymentProof, endpoint string, price float64) domain.AuthResult {
	if proof.Signature == "" || proof.RequestID == "" {
		return g.issueChallenge(ctx, endpoint, price)
	}

	if !signature.QuickValidate(proof.Signature) {
		authTotal.WithLabelValues("malformed").Inc()
		return reject(http.StatusBadRequest, "Invalid signature format")
	}

	// Fast path: a cached copy of an already verified record.
	var cached cachedPayment
	if g.cache.Get(ctx, verifiedKey(proof.Signature), &cached) {
		if cached.RequestID == proof.RequestID {
			authTotal.WithLabelValues("authorized_cached").Inc()
			return authorized(cached.PaymentID, cached.PayerWallet)
		}
		authTotal.WithLabelValues("replay").Inc()
		return reject(http.StatusForbidden, "Signature already used for different request")
	}

	existing, err := g.payments.FindBySignature(ctx, proof.Signature)
	if err != nil {
		log.Printf("payment lookup failed for %s: %v", endpoint, err)
		authTotal.WithLabelValues("internal_error").Inc()
		return reject(http.StatusInternalServerError, "Internal server error")
	}
	if existing != nil && existing.Verified {
		if existing.RequestID == proof.RequestID {
			g.cacheVerified(ctx, existing)
			authTotal.WithLabelValues("authorized_known").Inc()
			return authorized(existing.ID, existing.PayerWallet)
		}
		authTotal.WithLabelValues("replay").Inc()
		return reject(http.StatusForbidden, "Signature already used for different request")
	}

	timer := time.Now()
	verification := g.verifier.Verify(ctx, proof.Signature, price, g.timeout)

	if !verification.Valid {
		verifyDuration.WithLabelValues("invalid").Observe(time.Since(timer).Seconds())
		if ledger.Retryable(verification.Err) {
			authTotal.WithLabelValues("onchain_error").Inc()
			return reject(http.StatusServiceUnavailable, "Payment verification temporarily unavailable")
		}
		authTotal.WithLabelValues("rejected").Inc()
		msg := "Payment verification failed"
		if verification.Err != nil {
			msg = verification.Err.Error()
		}
		return reject(http.StatusPaymentRequired, msg)
	}
	verifyDuration.WithLabelValues("valid").Observe(time.Since(timer).Seconds())

	payer := verification.Sender
	if payer == "" {
		payer = "unknown"
	}

	record, created, err := g.payments.UpsertVerified(ctx, domain.VerifiedUpsert{
		Signature:   proof.Signature,
		RequestID:   proof.RequestID,
		Amount:      verification.Amount,
		PayerWallet: payer,
		Endpoint:    endpoint,
		ExpiresAt:   time.Now().Add(g.timeout),
	})
	if err != nil {
		log.Printf("payment upsert failed for %s: %v", endpoint, err)
		authTotal.WithLabelValues("internal_error").Inc()
		return reject(http.StatusInternalServerError, "Internal server error")
	}

	if !created {
		// A concurrent writer persisted this signature first. Its record is
		// the truth; re-apply the request binding rule against it.
		if record.RequestID != proof.RequestID {
			authTotal.WithLabelValues("replay").Inc()
			return reject(http.StatusForbidden, "Signature already used for different request")
		}
		authTotal.WithLabelValues("authorized_known").Inc()
		return authorized(record.ID, record.PayerWallet)
	}

	// Accounting fires exactly once per real payment: only the writer that
	// performed the verified transition reaches this point.
	if err := g.wallets.RecordSuccess(ctx, record.PayerWallet, record.Amount); err != nil {
		log.Printf("wallet accounting failed for %s: %v", record.PayerWallet, err)
	}
	g.cacheVerified(ctx, record)

	authTotal.WithLabelValues("authorized").Inc()
	return authorized(record.ID, record.PayerWallet)
}

func (g *Gate) issueChallenge(ctx context.Context, endpoint string, price float64) domain.AuthResult {
	requestID := uuid.NewString()
	expiresAt := time.Now().Add(g.timeout)

	if _, err := g.payments.CreateChallenge(ctx, requestID, endpoint, price, expiresAt); err != nil {
		log.Printf("challenge creation failed for %s: %v", endpoint, err)
		authTotal.WithLabelValues("internal_error").Inc()
		return reject(http.StatusInternalServerError, "Internal server error")
	}

	authTotal.WithLabelValues("challenge").Inc()
	return domain.AuthResult{
		Status: http.StatusPaymentRequired,
		Body: &domain.APIResponse{
			Success: false,
			Error:   "Payment required",
			Payment: &domain.PaymentDetails{
				PaymentRequired: true,
				Amount:          price,
				Recipient:       g.recipient,
				RequestID:       requestID,
				ExpiresAt:       expiresAt.UnixMilli(),
				Message:         fmt.Sprintf("Pay %g SOL to access this endpoint", price),
			},
		},
	}
}

func (g *Gate) cacheVerified(ctx context.Context, p *domain.Payment) {
	if p.Signature == nil {
		return
	}
	g.cache.Set(ctx, verifiedKey(*p.Signature), cachedPayment{
		PaymentID:   p.ID,
		RequestID:   p.RequestID,
		PayerWallet: p.PayerWallet,
	}, g.timeout)
}

func authorized(paymentID, payer string) domain.AuthResult {
	return domain.AuthResult{Authorized: true, PaymentID: paymentID, PayerWallet: payer}
}

func reject(status int, msg string) domain.AuthResult {
	return domain.AuthResult{
		Status: status,
		Body:   &domain.APIResponse{Success: false, Error: msg},
	}
}

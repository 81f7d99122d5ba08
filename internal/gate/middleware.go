package gate

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/payrpc/solgate/internal/domain"
)

// Proof headers consumed from inbound requests.
const (
	HeaderPaymentSignature = "x-payment-signature"
	HeaderRequestID        = "x-request-id"
)

type contextKey string

const paymentContextKey = contextKey("solgate_payment")

// PaymentInfo is what authorized handlers read from the request context to
// tag downstream usage records.
type PaymentInfo struct {
	PaymentID   string
	PayerWallet string
}

// PaymentFromContext returns the payment info attached by the middleware.
func PaymentFromContext(ctx context.Context) (PaymentInfo, bool) {
	info, ok := ctx.Value(paymentContextKey).(PaymentInfo)
	return info, ok
}

// Middleware gates every request through Authorize. Unauthorized verdicts
// are terminal: the response is written here and the handler never runs.
func (g *Gate) Middleware(endpoint string, price float64) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			proof := domain.PaymentProof{
				Signature: r.Header.Get(HeaderPaymentSignature),
				RequestID: r.Header.Get(HeaderRequestID),
			}

			verdict := g.Authorize(r.Context(), proof, endpoint, price)
			if !verdict.Authorized {
				if verdict.Body != nil && verdict.Body.Payment != nil {
					w.Header().Set("X-Payment-Required", "true")
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(verdict.Status)
				json.NewEncoder(w).Encode(verdict.Body)
				return
			}

			ctx := context.WithValue(r.Context(), paymentContextKey, PaymentInfo{
				PaymentID:   verdict.PaymentID,
				PayerWallet: verdict.PayerWallet,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

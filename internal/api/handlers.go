// Package api holds the metered data endpoints. The handlers are thin glue:
// the payment gate has already run by the time they execute, so they fetch,
// cache and respond, then append a usage record tagged with the payment.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/payrpc/solgate/internal/cache"
	"github.com/payrpc/solgate/internal/domain"
	"github.com/payrpc/solgate/internal/gate"
	"github.com/payrpc/solgate/internal/ledger"
	"github.com/payrpc/solgate/internal/store"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "solgate_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "endpoint", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "solgate_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"method", "endpoint"})
)

// Cache TTLs per data class.
const (
	balanceTTL = 30 * time.Second
	statsTTL   = 5 * time.Second
)

type Handler struct {
	store     *store.Store
	ledger    *ledger.Client
	cache     *cache.Cache
	price     float64
	recipient string
}

func NewHandler(s *store.Store, l *ledger.Client, c *cache.Cache, price float64, recipient string) *Handler {
	return &Handler{store: s, ledger: l, cache: c, price: price, recipient: recipient}
}

func (h *Handler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetBalanceHandler serves the SOL balance of an address, cache-aside.
func (h *Handler) GetBalanceHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/v1/account/balance"
	start := time.Now()
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("GET", endpoint))
	defer timer.ObserveDuration()

	address := mux.Vars(r)["address"]
	cacheKey := "balance:" + address

	var balance float64
	if !h.cache.Get(r.Context(), cacheKey, &balance) {
		b, err := h.ledger.GetBalance(r.Context(), address)
		if err != nil {
			h.respond(w, r, endpoint, http.StatusInternalServerError,
				&domain.APIResponse{Success: false, Error: "Failed to fetch balance"}, start)
			return
		}
		balance = b
		h.cache.Set(r.Context(), cacheKey, balance, balanceTTL)
	}

	h.respond(w, r, endpoint, http.StatusOK, &domain.APIResponse{
		Success: true,
		Data:    map[string]interface{}{"address": address, "balance": balance},
	}, start)
}

// NetworkStatsHandler serves a snapshot of chain state, cache-aside.
func (h *Handler) NetworkStatsHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/v1/network/stats"
	start := time.Now()
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("GET", endpoint))
	defer timer.ObserveDuration()

	var stats ledger.NetworkStats
	if !h.cache.Get(r.Context(), "network:stats", &stats) {
		s, err := h.ledger.GetNetworkStats(r.Context())
		if err != nil {
			h.respond(w, r, endpoint, http.StatusInternalServerError,
				&domain.APIResponse{Success: false, Error: "Failed to fetch network stats"}, start)
			return
		}
		stats = *s
		h.cache.Set(r.Context(), "network:stats", stats, statsTTL)
	}

	h.respond(w, r, endpoint, http.StatusOK, &domain.APIResponse{Success: true, Data: stats}, start)
}

// GetWalletStatsHandler serves the cumulative usage record for a payer.
func (h *Handler) GetWalletStatsHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/v1/wallet"
	start := time.Now()
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("GET", endpoint))
	defer timer.ObserveDuration()

	address := mux.Vars(r)["address"]
	account, err := h.store.GetWallet(r.Context(), address)
	if err != nil {
		h.respond(w, r, endpoint, http.StatusInternalServerError,
			&domain.APIResponse{Success: false, Error: "Failed to fetch wallet stats"}, start)
		return
	}
	if account == nil {
		h.respond(w, r, endpoint, http.StatusNotFound,
			&domain.APIResponse{Success: false, Error: "Wallet not found"}, start)
		return
	}

	h.respond(w, r, endpoint, http.StatusOK, &domain.APIResponse{Success: true, Data: account}, start)
}

// DocsHandler publishes pricing and usage information. Free and untracked.
func (h *Handler) DocsHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, &domain.APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"payment": map[string]interface{}{
				"pricePerCall": h.price,
				"currency":     "SOL",
				"recipient":    h.recipient,
				"headers":      []string{gate.HeaderPaymentSignature, gate.HeaderRequestID},
			},
			"discountTiers": domain.DiscountTiers,
			"endpoints": []string{
				"/api/v1/account/balance/{address}",
				"/api/v1/network/stats",
				"/api/v1/wallet/{address}",
			},
		},
	})
}

// respond writes the payload, records metrics and appends the usage log row.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, endpoint string, code int, payload *domain.APIResponse, start time.Time) {
	payload.ResponseTime = time.Since(start).Milliseconds()
	httpRequestsTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(code)).Inc()
	respondWithJSON(w, code, payload)

	info, _ := gate.PaymentFromContext(r.Context())
	err := h.store.TrackRequest(r.Context(), domain.RequestLog{
		Endpoint:       endpoint,
		Method:         r.Method,
		PaymentID:      info.PaymentID,
		ResponseTimeMs: payload.ResponseTime,
		StatusCode:     code,
		Success:        payload.Success,
		PayerWallet:    info.PayerWallet,
	})
	if err != nil {
		log.Printf("request tracking failed for %s: %v", endpoint, err)
	}
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

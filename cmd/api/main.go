package main

import (
	"context"
	"log"
	"net/http"

	"github.com/gagliardetto/solana-go"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/payrpc/solgate/internal/api"
	"github.com/payrpc/solgate/internal/cache"
	"github.com/payrpc/solgate/internal/config"
	"github.com/payrpc/solgate/internal/gate"
	"github.com/payrpc/solgate/internal/ledger"
	"github.com/payrpc/solgate/internal/store"
)

func main() {
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	recipient, err := solana.PublicKeyFromBase58(cfg.PaymentWallet)
	if err != nil {
		log.Fatalf("Invalid payment wallet address %q: %v", cfg.PaymentWallet, err)
	}

	db, err := store.New(cfg.DBSource)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer db.Close()

	cacheClient := cache.New(context.Background(), cfg.RedisURL)
	defer cacheClient.Close()

	// Initialize Layers
	rpcClient := ledger.NewClient(cfg.RPCURL)
	verifier := ledger.NewVerifier(rpcClient, recipient)
	paymentGate := gate.New(db, db, verifier, cacheClient, recipient.String(), cfg.PaymentTimeout)
	handler := api.NewHandler(db, rpcClient, cacheClient, cfg.PaymentAmount, recipient.String())

	// Router
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/health", handler.HealthCheckHandler).Methods("GET")
	r.HandleFunc("/api/v1/docs", handler.DocsHandler).Methods("GET")

	balance := r.PathPrefix("/api/v1/account/balance").Subrouter()
	balance.Use(paymentGate.Middleware("/api/v1/account/balance", cfg.PaymentAmount))
	balance.HandleFunc("/{address}", handler.GetBalanceHandler).Methods("GET")

	stats := r.PathPrefix("/api/v1/network/stats").Subrouter()
	stats.Use(paymentGate.Middleware("/api/v1/network/stats", cfg.PaymentAmount))
	stats.HandleFunc("", handler.NetworkStatsHandler).Methods("GET")

	wallet := r.PathPrefix("/api/v1/wallet").Subrouter()
	wallet.Use(paymentGate.Middleware("/api/v1/wallet", cfg.PaymentAmount))
	wallet.HandleFunc("/{address}", handler.GetWalletStatsHandler).Methods("GET")

	log.Printf("Server starting on :%s (rpc=%s, price=%g SOL)", cfg.Port, cfg.RPCURL, cfg.PaymentAmount)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal(err)
	}
}

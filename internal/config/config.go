package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
)

type Config struct {
	DBSource string
	Port     string
	Env      string

	// Solana
	RPCURL        string
	PaymentWallet string

	// Payment gate
	PaymentAmount  float64 // SOL per call
	PaymentTimeout time.Duration

	// Cache (optional; empty disables redis)
	RedisURL string
}

func Load() (*Config, error) {
	dbSource := os.Getenv("DB_SOURCE")
	if dbSource == "" {
		return nil, fmt.Errorf("DB_SOURCE environment variable is required")
	}

	wallet := os.Getenv("PAYMENT_WALLET_ADDRESS")
	if wallet == "" {
		return nil, fmt.Errorf("PAYMENT_WALLET_ADDRESS environment variable is required")
	}

	return &Config{
		DBSource:       dbSource,
		Port:           getEnv("SERVER_PORT", "8080"),
		Env:            getEnv("ENVIRONMENT", "development"),
		RPCURL:         getEnv("SOLANA_RPC_URL", rpc.MainNetBeta_RPC),
		PaymentWallet:  wallet,
		PaymentAmount:  getEnvFloat("PAYMENT_AMOUNT", 0.001),
		PaymentTimeout: time.Duration(getEnvInt("PAYMENT_TIMEOUT_MS", 30000)) * time.Millisecond,
		RedisURL:       getEnv("REDIS_URL", ""),
	}, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

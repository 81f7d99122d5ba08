package domain

import "time"

// Payment is the single evolving record of a payment challenge and its
// resolution. It is created unverified at challenge issuance (or lazily at
// first proof submission) and mutated exactly once to verified.
type Payment struct {
	ID          string     `json:"id"`
	RequestID   string     `json:"request_id"`
	Signature   *string    `json:"signature"` // nil until a proof is presented
	Amount      float64    `json:"amount"`
	PayerWallet string     `json:"payer_wallet"`
	Endpoint    string     `json:"endpoint"`
	Verified    bool       `json:"verified"`
	VerifiedAt  *time.Time `json:"verified_at,omitempty"`
	ExpiresAt   time.Time  `json:"expires_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// WalletAccount tracks per-payer cumulative usage. Counters are incremented
// server-side; the row is never deleted.
type WalletAccount struct {
	WalletAddress string    `json:"wallet_address"`
	TotalRequests int64     `json:"total_requests"`
	TotalSpent    float64   `json:"total_spent"`
	DiscountTier  string    `json:"discount_tier"`
	FirstSeenAt   time.Time `json:"first_seen_at"`
	LastSeenAt    time.Time `json:"last_seen_at"`
}

// PaymentProof carries the proof headers extracted from an inbound request.
type PaymentProof struct {
	Signature string
	RequestID string
}

// VerifiedUpsert is the field set persisted when a signature passes
// on-chain verification.
type VerifiedUpsert struct {
	Signature   string
	RequestID   string
	Amount      float64
	PayerWallet string
	Endpoint    string
	ExpiresAt   time.Time
}

// PaymentDetails is the challenge payload returned with a 402.
type PaymentDetails struct {
	PaymentRequired bool    `json:"paymentRequired"`
	Amount          float64 `json:"amount"`
	Recipient       string  `json:"recipient"`
	RequestID       string  `json:"requestId"`
	ExpiresAt       int64   `json:"expiresAt"` // epoch ms
	Message         string  `json:"message,omitempty"`
}

// APIResponse is the canonical response envelope.
type APIResponse struct {
	Success      bool            `json:"success"`
	Data         interface{}     `json:"data,omitempty"`
	Error        string          `json:"error,omitempty"`
	Payment      *PaymentDetails `json:"payment,omitempty"`
	ResponseTime int64           `json:"responseTime,omitempty"`
}

// VerificationResult is the outcome of checking a payment signature against
// the chain. Amount and Sender are set only when Valid.
type VerificationResult struct {
	Valid     bool
	Signature string
	Amount    float64
	Sender    string
	Recipient string
	Timestamp int64
	Err       error
}

// AuthResult is the gate's verdict for one inbound request. When Authorized
// is false, Status and Body describe the terminal response to send.
type AuthResult struct {
	Authorized  bool
	PaymentID   string
	PayerWallet string
	Status      int
	Body        *APIResponse
}

// RequestLog is one row of the per-call usage audit trail.
type RequestLog struct {
	Endpoint       string
	Method         string
	PaymentID      string
	ResponseTimeMs int64
	StatusCode     int
	Success        bool
	PayerWallet    string
}

// DiscountTier maps cumulative token holdings to a price discount. Tier
// assignment from live holdings is not implemented; the table drives the
// published pricing docs and the wallet stats endpoint.
type DiscountTier struct {
	Name      string  `json:"name"`
	MinTokens int64   `json:"minTokens"`
	Discount  int     `json:"discount"` // percent
	Price     float64 `json:"price"`
}

// DiscountTiers is ordered from no discount to the deepest one.
var DiscountTiers = []DiscountTier{
	{Name: "none", MinTokens: 0, Discount: 0, Price: 0.001},
	{Name: "bronze", MinTokens: 100, Discount: 20, Price: 0.0008},
	{Name: "silver", MinTokens: 1000, Discount: 50, Price: 0.0005},
	{Name: "gold", MinTokens: 10000, Discount: 80, Price: 0.0002},
}

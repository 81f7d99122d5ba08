package ledger

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
)

type fakeFetcher struct {
	tx    *Transaction
	err   error
	calls int
}

func (f *fakeFetcher) GetTransaction(ctx context.Context, sig solana.Signature) (*Transaction, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.tx, nil
}

var (
	testRecipient = solana.MustPublicKeyFromBase58("11111111111111111111111111111112")
	testSender    = solana.MustPublicKeyFromBase58("11111111111111111111111111111113")
	testBystander = solana.MustPublicKeyFromBase58("11111111111111111111111111111114")
)

// wellFormedSig decodes to 64 zero bytes; enough for the offline gate.
var wellFormedSig = strings.Repeat("1", 64)

const lamports = 1_000_000_000

// paymentTx builds a transaction moving delta lamports to the recipient.
func paymentTx(blockTime time.Time, recipientDelta int64) *Transaction {
	return &Transaction{
		BlockTime:    blockTime.Unix(),
		AccountKeys:  []solana.PublicKey{testSender, testRecipient},
		PreBalances:  []uint64{5 * lamports, 2 * lamports},
		PostBalances: []uint64{uint64(5*lamports - recipientDelta - 5000), uint64(2*lamports + recipientDelta)},
	}
}

func newTestVerifier(f *fakeFetcher, now time.Time) *Verifier {
	v := NewVerifier(f, testRecipient)
	v.now = func() time.Time { return now }
	return v
}

func TestVerifyMalformedSignatureSkipsLedger(t *testing.T) {
	f := &fakeFetcher{}
	v := newTestVerifier(f, time.Now())

	for _, sig := range []string{"", "not-base58-000", strings.Repeat("1", 63)} {
		res := v.Verify(context.Background(), sig, 0.001, 30*time.Second)
		if res.Valid {
			t.Errorf("Verify(%q) valid, want invalid", sig)
		}
		if kind := KindOf(res.Err); kind != KindMalformedSignature {
			t.Errorf("Verify(%q) kind = %s, want %s", sig, kind, KindMalformedSignature)
		}
	}
	if f.calls != 0 {
		t.Errorf("ledger queried %d times for malformed signatures, want 0", f.calls)
	}
}

func TestVerifyFailureKinds(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		fetcher  *fakeFetcher
		wantKind ErrorKind
	}{
		{
			name:     "not found",
			fetcher:  &fakeFetcher{err: ErrNotFound},
			wantKind: KindNotFound,
		},
		{
			name:     "rpc unreachable is transient",
			fetcher:  &fakeFetcher{err: errors.New("connection refused")},
			wantKind: KindOnChainError,
		},
		{
			name: "execution failed",
			fetcher: &fakeFetcher{tx: &Transaction{
				Failed:    true,
				BlockTime: now.Unix(),
			}},
			wantKind: KindExecutionFailed,
		},
		{
			name:     "block time missing",
			fetcher:  &fakeFetcher{tx: &Transaction{BlockTime: 0}},
			wantKind: KindTimestampUnavailable,
		},
		{
			name: "no balance increase to recipient",
			fetcher: &fakeFetcher{tx: &Transaction{
				BlockTime:   now.Unix(),
				AccountKeys: []solana.PublicKey{testSender, testRecipient, testBystander},
				// The sender pays the bystander; the recipient loses a little.
				PreBalances:  []uint64{5 * lamports, 2 * lamports, lamports},
				PostBalances: []uint64{4 * lamports, 2*lamports - 100, 2 * lamports},
			}},
			wantKind: KindNoPaymentFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newTestVerifier(tt.fetcher, now)
			res := v.Verify(context.Background(), wellFormedSig, 0.001, 30*time.Second)
			if res.Valid {
				t.Fatal("Verify() valid, want invalid")
			}
			if kind := KindOf(res.Err); kind != tt.wantKind {
				t.Errorf("kind = %s, want %s", kind, tt.wantKind)
			}
			if tt.wantKind == KindOnChainError != Retryable(res.Err) {
				t.Errorf("Retryable() = %v for kind %s", Retryable(res.Err), tt.wantKind)
			}
		})
	}
}

func TestVerifyRecencyBoundary(t *testing.T) {
	// Truncate to a whole second so blockTime.Unix() loses no precision
	// and the constructed age is exactly the timeout.
	now := time.Now().Truncate(time.Second)
	timeout := 30 * time.Second

	// Exactly at the window edge: accepted.
	f := &fakeFetcher{tx: paymentTx(now.Add(-timeout), lamports/1000)}
	v := newTestVerifier(f, now)
	res := v.Verify(context.Background(), wellFormedSig, 0.001, timeout)
	if !res.Valid {
		t.Fatalf("age == timeout rejected: %v", res.Err)
	}

	// One second past the edge: expired.
	f = &fakeFetcher{tx: paymentTx(now.Add(-timeout-time.Second), lamports/1000)}
	v = newTestVerifier(f, now)
	res = v.Verify(context.Background(), wellFormedSig, 0.001, timeout)
	if res.Valid {
		t.Fatal("age == timeout+1s accepted, want Expired")
	}
	if kind := KindOf(res.Err); kind != KindExpired {
		t.Errorf("kind = %s, want %s", kind, KindExpired)
	}
}

func TestVerifyAmountThreshold(t *testing.T) {
	now := time.Now()
	required := 0.5 // 500_000_000 lamports

	// 99% of required: accepted under the fee tolerance.
	f := &fakeFetcher{tx: paymentTx(now, 495_000_000)}
	res := newTestVerifier(f, now).Verify(context.Background(), wellFormedSig, required, time.Minute)
	if !res.Valid {
		t.Fatalf("0.99x required rejected: %v", res.Err)
	}
	if res.Amount != 0.495 {
		t.Errorf("Amount = %g, want 0.495", res.Amount)
	}

	// 98% of required: rejected, message carries both amounts.
	f = &fakeFetcher{tx: paymentTx(now, 490_000_000)}
	res = newTestVerifier(f, now).Verify(context.Background(), wellFormedSig, required, time.Minute)
	if res.Valid {
		t.Fatal("0.98x required accepted, want InsufficientAmount")
	}
	if kind := KindOf(res.Err); kind != KindInsufficientAmount {
		t.Fatalf("kind = %s, want %s", kind, KindInsufficientAmount)
	}
	msg := res.Err.Error()
	if !strings.Contains(msg, "0.49") || !strings.Contains(msg, "0.5") {
		t.Errorf("error %q does not report both amounts", msg)
	}
}

func TestVerifyIdentifiesPayer(t *testing.T) {
	now := time.Now()
	tx := &Transaction{
		BlockTime:   now.Unix(),
		AccountKeys: []solana.PublicKey{testBystander, testSender, testRecipient},
		// The bystander's balance is flat; the sender funds the transfer.
		PreBalances:  []uint64{lamports, 5 * lamports, 2 * lamports},
		PostBalances: []uint64{lamports, 4 * lamports, 3 * lamports},
	}
	f := &fakeFetcher{tx: tx}

	res := newTestVerifier(f, now).Verify(context.Background(), wellFormedSig, 0.5, time.Minute)
	if !res.Valid {
		t.Fatalf("Verify() invalid: %v", res.Err)
	}
	if res.Sender != testSender.String() {
		t.Errorf("Sender = %s, want %s", res.Sender, testSender)
	}
	if res.Recipient != testRecipient.String() {
		t.Errorf("Recipient = %s, want %s", res.Recipient, testRecipient)
	}
	if res.Amount != 1.0 {
		t.Errorf("Amount = %g, want 1.0", res.Amount)
	}
	if res.Timestamp != now.Unix() {
		t.Errorf("Timestamp = %d, want %d", res.Timestamp, now.Unix())
	}
}

package ledger

import "errors"

// ErrNotFound is returned by a TransactionFetcher when the ledger has no
// confirmed transaction for the requested signature.
var ErrNotFound = errors.New("transaction not found")

// ErrorKind is the closed set of verification failure classes. Every
// non-valid VerificationResult carries exactly one kind.
type ErrorKind string

const (
	// KindMalformedSignature - the proof failed the offline format check.
	KindMalformedSignature ErrorKind = "MALFORMED_SIGNATURE"
	// KindNotFound - no confirmed transaction exists for the signature.
	KindNotFound ErrorKind = "NOT_FOUND"
	// KindExecutionFailed - the transaction executed but recorded an error.
	KindExecutionFailed ErrorKind = "EXECUTION_FAILED"
	// KindTimestampUnavailable - the ledger reported no block time.
	KindTimestampUnavailable ErrorKind = "TIMESTAMP_UNAVAILABLE"
	// KindExpired - the transaction is older than the acceptance window.
	KindExpired ErrorKind = "EXPIRED"
	// KindNoPaymentFound - no balance increase to the payment wallet.
	KindNoPaymentFound ErrorKind = "NO_PAYMENT_FOUND"
	// KindInsufficientAmount - the delivered amount is below the threshold.
	KindInsufficientAmount ErrorKind = "INSUFFICIENT_AMOUNT"
	// KindOnChainError - the ledger could not be queried. Transient: not
	// evidence that the payment is invalid, callers may retry.
	KindOnChainError ErrorKind = "ONCHAIN_ERROR"
)

// VerifyError is a verification failure with a programmatic kind and a
// human-readable message suitable for the client response.
type VerifyError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *VerifyError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *VerifyError) Unwrap() error {
	return e.Err
}

// KindOf extracts the ErrorKind from err, or "" when err is not a
// VerifyError.
func KindOf(err error) ErrorKind {
	var ve *VerifyError
	if errors.As(err, &ve) {
		return ve.Kind
	}
	return ""
}

// Retryable reports whether err indicates a transient ledger failure rather
// than definitive payment invalidity.
func Retryable(err error) bool {
	return KindOf(err) == KindOnChainError
}

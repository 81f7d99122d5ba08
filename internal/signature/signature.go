// Package signature performs offline syntactic validation of payment proof
// signatures, so malformed input is rejected before any RPC round trip.
package signature

import "github.com/mr-tron/base58"

const (
	// Solana transaction signatures are ed25519 signatures: 64 raw bytes.
	decodedLen = 64

	// 64 bytes of base58 encode to 86-88 characters.
	minEncodedLen = 86
	maxEncodedLen = 88
)

// IsWellFormed reports whether sig is a base58 string decoding to exactly
// 64 bytes.
func IsWellFormed(sig string) bool {
	decoded, err := base58.Decode(sig)
	return err == nil && len(decoded) == decodedLen
}

// QuickValidate bounds the encoded length before running the full decode.
// Fast-path check only: persistence-affecting paths still rely on the chain
// lookup, never on this alone.
func QuickValidate(sig string) bool {
	return len(sig) >= minEncodedLen && len(sig) <= maxEncodedLen && IsWellFormed(sig)
}

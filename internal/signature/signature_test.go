package signature

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mr-tron/base58"
)

func TestIsWellFormed(t *testing.T) {
	tests := []struct {
		name string
		sig  string
		want bool
	}{
		{
			name: "64 high bytes",
			sig:  base58.Encode(bytes.Repeat([]byte{0xab}, 64)),
			want: true,
		},
		{
			name: "64 zero bytes encode to leading-one runs",
			sig:  strings.Repeat("1", 64),
			want: true,
		},
		{
			name: "63 bytes too short",
			sig:  base58.Encode(bytes.Repeat([]byte{0xab}, 63)),
			want: false,
		},
		{
			name: "65 bytes too long",
			sig:  base58.Encode(bytes.Repeat([]byte{0xab}, 65)),
			want: false,
		},
		{
			name: "empty",
			sig:  "",
			want: false,
		},
		{
			name: "non-base58 characters",
			sig:  strings.Repeat("0", 87), // '0' is not in the base58 alphabet
			want: false,
		},
		{
			name: "base58 but wrong payload size",
			sig:  "3yZe7d",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsWellFormed(tt.sig); got != tt.want {
				t.Errorf("IsWellFormed(%q) = %v, want %v", tt.sig, got, tt.want)
			}
		})
	}
}

func TestQuickValidate(t *testing.T) {
	full := base58.Encode(bytes.Repeat([]byte{0xff}, 64))
	if len(full) < 86 || len(full) > 88 {
		t.Fatalf("test fixture encodes to %d chars, want 86-88", len(full))
	}

	tests := []struct {
		name string
		sig  string
		want bool
	}{
		{name: "well formed and in length bounds", sig: full, want: true},
		// Decodes to 64 bytes but the encoding is shorter than any real
		// signature, so the fast path rejects it.
		{name: "well formed but too short encoding", sig: strings.Repeat("1", 64), want: false},
		{name: "in bounds but invalid alphabet", sig: strings.Repeat("0", 87), want: false},
		{name: "empty", sig: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := QuickValidate(tt.sig); got != tt.want {
				t.Errorf("QuickValidate(%q) = %v, want %v", tt.sig, got, tt.want)
			}
		})
	}
}

// Package ledger queries the Solana chain and decides whether a submitted
// payment signature proves a sufficient, recent payment to the configured
// wallet.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Transaction is the normalized slice of a confirmed transaction that
// verification inspects: execution status, block time, and per-account
// balance deltas.
type Transaction struct {
	Failed       bool
	BlockTime    int64 // unix seconds, 0 when the ledger reported none
	AccountKeys  []solana.PublicKey
	PreBalances  []uint64
	PostBalances []uint64
}

// TransactionFetcher is the slice of the ledger surface the verifier needs.
// The RPC-backed Client implements it; tests inject fakes.
type TransactionFetcher interface {
	GetTransaction(ctx context.Context, sig solana.Signature) (*Transaction, error)
}

// Client wraps a Solana JSON-RPC endpoint.
type Client struct {
	rpc *rpc.Client
}

func NewClient(rpcURL string) *Client {
	return &Client{rpc: rpc.New(rpcURL)}
}

// GetTransaction fetches a confirmed transaction and normalizes it. Returns
// ErrNotFound when the ledger has no confirmed transaction for sig.
func (c *Client) GetTransaction(ctx context.Context, sig solana.Signature) (*Transaction, error) {
	maxVersion := uint64(0)
	out, err := c.rpc.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     rpc.CommitmentConfirmed,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	if out == nil {
		return nil, ErrNotFound
	}

	tx := &Transaction{}
	if out.BlockTime != nil {
		tx.BlockTime = out.BlockTime.Time().Unix()
	}
	if out.Meta != nil {
		tx.Failed = out.Meta.Err != nil
		tx.PreBalances = out.Meta.PreBalances
		tx.PostBalances = out.Meta.PostBalances
	}

	decoded, err := out.Transaction.GetTransaction()
	if err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}
	tx.AccountKeys = decoded.Message.AccountKeys

	return tx, nil
}

// GetBalance returns the SOL balance of address.
func (c *Client) GetBalance(ctx context.Context, address string) (float64, error) {
	pubkey, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return 0, fmt.Errorf("invalid address: %w", err)
	}
	out, err := c.rpc.GetBalance(ctx, pubkey, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return float64(out.Value) / float64(solana.LAMPORTS_PER_SOL), nil
}

// NetworkStats is a small snapshot of chain state for the stats endpoint.
type NetworkStats struct {
	Epoch            uint64 `json:"epoch"`
	AbsoluteSlot     uint64 `json:"absoluteSlot"`
	BlockHeight      uint64 `json:"blockHeight"`
	TransactionCount uint64 `json:"transactionCount"`
	SolanaVersion    string `json:"solanaVersion"`
}

// GetNetworkStats collects epoch info and node version in one call.
func (c *Client) GetNetworkStats(ctx context.Context) (*NetworkStats, error) {
	epoch, err := c.rpc.GetEpochInfo(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return nil, fmt.Errorf("get epoch info: %w", err)
	}

	stats := &NetworkStats{
		Epoch:        epoch.Epoch,
		AbsoluteSlot: epoch.AbsoluteSlot,
		BlockHeight:  epoch.BlockHeight,
	}
	if epoch.TransactionCount != nil {
		stats.TransactionCount = *epoch.TransactionCount
	}

	version, err := c.rpc.GetVersion(ctx)
	if err == nil {
		stats.SolanaVersion = version.SolanaCore
	}

	return stats, nil
}

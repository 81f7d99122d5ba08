package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/payrpc/solgate/internal/domain"
	"github.com/payrpc/solgate/internal/signature"
)

// amountTolerance allows a small shortfall for fees and rounding: a delivered
// amount of at least 99% of the required amount is accepted.
const amountTolerance = 0.99

// Verifier checks payment signatures against the chain. It performs no
// persistence: a Verify call is a pure read-then-decide and is safe to
// repeat.
type Verifier struct {
	fetcher   TransactionFetcher
	recipient solana.PublicKey

	now func() time.Time
}

func NewVerifier(fetcher TransactionFetcher, recipient solana.PublicKey) *Verifier {
	return &Verifier{
		fetcher:   fetcher,
		recipient: recipient,
		now:       time.Now,
	}
}

// Verify confirms that sig references a successful, recent transaction that
// delivered at least requiredAmount SOL (minus the fee tolerance) to the
// payment wallet. timeout bounds how old the transaction may be.
func (v *Verifier) Verify(ctx context.Context, sig string, requiredAmount float64, timeout time.Duration) domain.VerificationResult {
	res := domain.VerificationResult{Signature: sig}

	if !signature.IsWellFormed(sig) {
		res.Err = &VerifyError{Kind: KindMalformedSignature, Message: "Invalid signature format"}
		return res
	}
	parsed, err := solana.SignatureFromBase58(sig)
	if err != nil {
		res.Err = &VerifyError{Kind: KindMalformedSignature, Message: "Invalid signature format"}
		return res
	}

	tx, err := v.fetcher.GetTransaction(ctx, parsed)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			res.Err = &VerifyError{Kind: KindNotFound, Message: "Transaction not found or not confirmed"}
		} else {
			res.Err = &VerifyError{Kind: KindOnChainError, Message: "Ledger query failed", Err: err}
		}
		return res
	}

	if tx.Failed {
		res.Err = &VerifyError{Kind: KindExecutionFailed, Message: "Transaction failed on-chain"}
		return res
	}

	if tx.BlockTime == 0 {
		res.Err = &VerifyError{Kind: KindTimestampUnavailable, Message: "Block time not available"}
		return res
	}

	age := v.now().Sub(time.Unix(tx.BlockTime, 0))
	if age > timeout {
		res.Err = &VerifyError{
			Kind:    KindExpired,
			Message: fmt.Sprintf("Transaction too old (%ds)", int64(age.Seconds())),
		}
		return res
	}

	amount, sender, found := scanPayment(v.recipient, tx)
	if !found {
		res.Err = &VerifyError{Kind: KindNoPaymentFound, Message: "No payment found to payment wallet"}
		return res
	}

	if amount < requiredAmount*amountTolerance {
		res.Amount = amount
		res.Err = &VerifyError{
			Kind:    KindInsufficientAmount,
			Message: fmt.Sprintf("Insufficient payment: %g SOL (required: %g SOL)", amount, requiredAmount),
		}
		return res
	}

	res.Valid = true
	res.Amount = amount
	res.Sender = sender
	res.Recipient = v.recipient.String()
	res.Timestamp = tx.BlockTime
	return res
}

// scanPayment walks the balance deltas looking for an increase to the
// recipient. The sender is taken as the first other account whose balance
// decreased. Heuristic only: in multi-signer transactions the fee payer and
// the real sender can differ, so this attributes the payer rather than
// proving it.
func scanPayment(recipient solana.PublicKey, tx *Transaction) (amount float64, sender string, found bool) {
	for i, key := range tx.AccountKeys {
		if i >= len(tx.PreBalances) || i >= len(tx.PostBalances) {
			break
		}
		if !key.Equals(recipient) {
			continue
		}

		delta := int64(tx.PostBalances[i]) - int64(tx.PreBalances[i])
		if delta <= 0 {
			continue
		}

		amount = float64(delta) / float64(solana.LAMPORTS_PER_SOL)
		for j := range tx.AccountKeys {
			if j == i || j >= len(tx.PreBalances) || j >= len(tx.PostBalances) {
				continue
			}
			if int64(tx.PostBalances[j])-int64(tx.PreBalances[j]) < 0 {
				sender = tx.AccountKeys[j].String()
				break
			}
		}
		return amount, sender, true
	}
	return 0, "", false
}

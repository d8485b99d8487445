// Package finalizer implements the submit/sign/confirm protocol shared by
// the issuance and transfer flows. It does not validate business fields.
package finalizer

import (
	"context"
	"fmt"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"solana-token-api/internal/domain"
	"solana-token-api/internal/ledger"
	"solana-token-api/internal/observability"
)

// Default confirmation settings. The confirmation window tracks the
// blockhash validity horizon of roughly 60-90 seconds.
const (
	DefaultConfirmTimeout = 60 * time.Second
	DefaultPollInterval   = 2 * time.Second
)

// Confirmer waits for a submitted signature to reach confirmed commitment.
type Confirmer interface {
	WaitForConfirmation(ctx context.Context, sig solana.Signature) error
}

// Finalizer assembles, signs, submits and confirms transactions.
type Finalizer struct {
	client         ledger.Client
	confirmer      Confirmer
	confirmTimeout time.Duration
	pollInterval   time.Duration
	metrics        *observability.Metrics
}

// Option configures a Finalizer.
type Option func(*Finalizer)

// WithConfirmer sets a subscription-based confirmer used instead of status
// polling.
func WithConfirmer(c Confirmer) Option {
	return func(f *Finalizer) {
		f.confirmer = c
	}
}

// WithConfirmTimeout overrides the confirmation window.
func WithConfirmTimeout(d time.Duration) Option {
	return func(f *Finalizer) {
		f.confirmTimeout = d
	}
}

// WithPollInterval overrides the status polling interval.
func WithPollInterval(d time.Duration) Option {
	return func(f *Finalizer) {
		f.pollInterval = d
	}
}

// WithMetrics records confirmation latency.
func WithMetrics(m *observability.Metrics) Option {
	return func(f *Finalizer) {
		f.metrics = m
	}
}

// New creates a Finalizer on top of a ledger client.
func New(client ledger.Client, opts ...Option) *Finalizer {
	f := &Finalizer{
		client:         client,
		confirmTimeout: DefaultConfirmTimeout,
		pollInterval:   DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Finalize fetches a fresh blockhash, assembles a transaction for the given
// instructions and fee payer, converts it to the versioned wire envelope,
// signs it with every required signer, submits it with preflight enabled and
// waits for confirmed commitment.
//
// No retry happens here: a confirmation timeout means the caller must build
// a new submission with a fresh blockhash, never resubmit the stale one.
func (f *Finalizer) Finalize(
	ctx context.Context,
	instructions []solana.Instruction,
	feePayer solana.PublicKey,
	signers []solana.PrivateKey,
) (solana.Signature, error) {
	bh, err := f.client.GetLatestBlockhash(ctx)
	if err != nil {
		return solana.Signature{}, domain.WrapError(domain.KindLedgerSubmission, "fetch latest blockhash", err)
	}

	tx, err := solana.NewTransaction(instructions, bh.Hash, solana.TransactionPayer(feePayer))
	if err != nil {
		return solana.Signature{}, domain.WrapError(domain.KindLedgerSubmission, "assemble transaction", err)
	}

	// Legacy-to-versioned conversion path: instruction builders emit
	// legacy-format instructions, so the assembled transaction is
	// round-tripped through the wire envelope before signing.
	wire, err := tx.MarshalBinary()
	if err != nil {
		return solana.Signature{}, domain.WrapError(domain.KindLedgerSubmission, "serialize transaction", err)
	}
	vtx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(wire))
	if err != nil {
		return solana.Signature{}, domain.WrapError(domain.KindLedgerSubmission, "convert to versioned transaction", err)
	}

	if _, err := vtx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		for i := range signers {
			if signers[i].PublicKey().Equals(key) {
				return &signers[i]
			}
		}
		return nil
	}); err != nil {
		return solana.Signature{}, domain.WrapError(domain.KindLedgerSubmission, "sign transaction", err)
	}

	sig, err := f.client.SendTransaction(ctx, vtx)
	if err != nil {
		return solana.Signature{}, domain.WrapError(domain.KindLedgerSubmission, "submission rejected", err)
	}

	submittedAt := time.Now()
	if err := f.confirm(ctx, sig); err != nil {
		return solana.Signature{}, err
	}
	if f.metrics != nil {
		f.metrics.ConfirmationDuration.Observe(time.Since(submittedAt).Seconds())
	}
	return sig, nil
}

func (f *Finalizer) confirm(ctx context.Context, sig solana.Signature) error {
	cctx, cancel := context.WithTimeout(ctx, f.confirmTimeout)
	defer cancel()

	if f.confirmer != nil {
		err := f.confirmer.WaitForConfirmation(cctx, sig)
		switch {
		case err == nil:
			return nil
		case cctx.Err() != nil:
			return domain.WrapError(domain.KindConfirmationTimeout,
				fmt.Sprintf("transaction %s not confirmed within %s", sig, f.confirmTimeout), cctx.Err())
		default:
			return domain.WrapError(domain.KindLedgerSubmission, "confirmation failed", err)
		}
	}

	ticker := time.NewTicker(f.pollInterval)
	defer ticker.Stop()
	for {
		status, err := f.client.GetSignatureStatus(cctx, sig)
		if err == nil && status != nil {
			if status.Err != nil {
				return domain.NewError(domain.KindLedgerSubmission,
					fmt.Sprintf("transaction %s failed on-chain: %v", sig, status.Err))
			}
			if status.Confirmed {
				return nil
			}
		}
		select {
		case <-cctx.Done():
			return domain.WrapError(domain.KindConfirmationTimeout,
				fmt.Sprintf("transaction %s not confirmed within %s", sig, f.confirmTimeout), cctx.Err())
		case <-ticker.C:
		}
	}
}

// Package ledger wraps RPC access to the Solana network. It is a pure I/O
// boundary: balance queries, blockhash fetches, account lookups, transaction
// submission and status polling.
package ledger

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
)

// ErrAccountNotFound is returned when the ledger reports no account at the
// requested address.
var ErrAccountNotFound = errors.New("account not found")

// AccountInfo is the subset of on-chain account state the service reads.
type AccountInfo struct {
	Owner    solana.PublicKey
	Lamports uint64
	Data     []byte
}

// Blockhash is a recent blockhash reference with its expiry height.
type Blockhash struct {
	Hash                 solana.Hash
	LastValidBlockHeight uint64
}

// SignatureStatus is the confirmation state of a submitted transaction.
type SignatureStatus struct {
	Confirmed bool
	Finalized bool
	// Err is non-nil when the transaction landed but failed on-chain.
	Err interface{}
}

// Client defines the ledger RPC interface.
type Client interface {
	// GetBalance returns the lamport balance of an account.
	GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error)

	// GetMinimumBalanceForRentExemption returns the rent-exempt reserve
	// for an account of the given data size.
	GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64) (uint64, error)

	// GetLatestBlockhash fetches the latest blockhash at confirmed commitment.
	GetLatestBlockhash(ctx context.Context) (Blockhash, error)

	// GetAccountInfo retrieves account state, or ErrAccountNotFound.
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*AccountInfo, error)

	// SendTransaction submits a signed transaction with preflight checks.
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)

	// GetSignatureStatus returns the confirmation state of a signature,
	// or nil when the ledger does not know the signature yet.
	GetSignatureStatus(ctx context.Context, sig solana.Signature) (*SignatureStatus, error)
}

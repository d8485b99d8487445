package ledger

import (
	"context"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
)

// RPCClient implements Client over HTTP JSON-RPC.
type RPCClient struct {
	client     *rpc.Client
	commitment rpc.CommitmentType
}

// RPCOption configures RPCClient.
type RPCOption func(*RPCClient)

// WithCommitment overrides the commitment level used for queries.
func WithCommitment(c rpc.CommitmentType) RPCOption {
	return func(r *RPCClient) {
		r.commitment = c
	}
}

// NewRPCClient creates a ledger client for the given RPC endpoint.
func NewRPCClient(endpoint string, opts ...RPCOption) *RPCClient {
	r := &RPCClient{
		client:     rpc.New(endpoint),
		commitment: rpc.CommitmentConfirmed,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetBalance returns the lamport balance of an account.
func (r *RPCClient) GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	out, err := r.client.GetBalance(ctx, account, r.commitment)
	if err != nil {
		return 0, fmt.Errorf("getBalance: %w", err)
	}
	return out.Value, nil
}

// GetMinimumBalanceForRentExemption returns the rent-exempt reserve for an
// account of the given size.
func (r *RPCClient) GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64) (uint64, error) {
	lamports, err := r.client.GetMinimumBalanceForRentExemption(ctx, dataSize, r.commitment)
	if err != nil {
		return 0, fmt.Errorf("getMinimumBalanceForRentExemption: %w", err)
	}
	return lamports, nil
}

// GetLatestBlockhash fetches the latest blockhash.
func (r *RPCClient) GetLatestBlockhash(ctx context.Context) (Blockhash, error) {
	out, err := r.client.GetLatestBlockhash(ctx, r.commitment)
	if err != nil {
		return Blockhash{}, fmt.Errorf("getLatestBlockhash: %w", err)
	}
	return Blockhash{
		Hash:                 out.Value.Blockhash,
		LastValidBlockHeight: out.Value.LastValidBlockHeight,
	}, nil
}

// GetAccountInfo retrieves account state, mapping the RPC not-found error
// to ErrAccountNotFound.
func (r *RPCClient) GetAccountInfo(ctx context.Context, account solana.PublicKey) (*AccountInfo, error) {
	out, err := r.client.GetAccountInfo(ctx, account)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("getAccountInfo: %w", err)
	}
	if out == nil || out.Value == nil {
		return nil, ErrAccountNotFound
	}
	return &AccountInfo{
		Owner:    out.Value.Owner,
		Lamports: out.Value.Lamports,
		Data:     out.Value.Data.GetBinary(),
	}, nil
}

// SendTransaction submits a signed transaction with preflight enabled at
// the client's commitment level.
func (r *RPCClient) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := r.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: r.commitment,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("sendTransaction: %w", err)
	}
	return sig, nil
}

// GetSignatureStatus returns the confirmation state of a signature.
func (r *RPCClient) GetSignatureStatus(ctx context.Context, sig solana.Signature) (*SignatureStatus, error) {
	out, err := r.client.GetSignatureStatuses(ctx, false, sig)
	if err != nil {
		return nil, fmt.Errorf("getSignatureStatuses: %w", err)
	}
	if out == nil || len(out.Value) == 0 || out.Value[0] == nil {
		return nil, nil
	}
	st := out.Value[0]
	return &SignatureStatus{
		Confirmed: st.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
			st.ConfirmationStatus == rpc.ConfirmationStatusFinalized,
		Finalized: st.ConfirmationStatus == rpc.ConfirmationStatusFinalized,
		Err:       st.Err,
	}, nil
}

// ParseMint decodes raw mint account data into its SPL mint representation.
func ParseMint(data []byte) (*token.Mint, error) {
	var mint token.Mint
	if err := bin.NewBinDecoder(data).Decode(&mint); err != nil {
		return nil, fmt.Errorf("decode mint account: %w", err)
	}
	return &mint, nil
}

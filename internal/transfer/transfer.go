// Package transfer moves existing tokens between wallets.
package transfer

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"

	"solana-token-api/internal/domain"
	"solana-token-api/internal/finalizer"
	"solana-token-api/internal/keyring"
	"solana-token-api/internal/ledger"
	"solana-token-api/internal/provision"
)

// Orchestrator resolves token accounts and submits transfer instructions.
type Orchestrator struct {
	client ledger.Client
	prov   *provision.Provisioner
	fin    *finalizer.Finalizer
}

// New creates a transfer Orchestrator.
func New(client ledger.Client, prov *provision.Provisioner, fin *finalizer.Finalizer) *Orchestrator {
	return &Orchestrator{client: client, prov: prov, fin: fin}
}

// Transfer moves req.Quantity tokens of req.TokenMint from the signer's
// associated account to the recipient's, creating the recipient's account
// when absent (paid for by the signer). The mint's decimal precision is read
// from the ledger, never assumed. All input validation happens before the
// first network call.
func (o *Orchestrator) Transfer(ctx context.Context, signer *keyring.Keypair, req domain.TransferRequest) (solana.Signature, error) {
	recipient, err := parseWalletAddress(req.ToWallet, "toWallet")
	if err != nil {
		return solana.Signature{}, err
	}
	mint, err := parseAddress(req.TokenMint, "tokenMint")
	if err != nil {
		return solana.Signature{}, err
	}
	if req.Quantity <= 0 {
		return solana.Signature{}, domain.NewFieldError("quantity", "must be greater than zero")
	}

	// The sender's account must already exist; no provisioning for the
	// sender.
	source, _, err := solana.FindAssociatedTokenAddress(signer.PublicKey(), mint)
	if err != nil {
		return solana.Signature{}, domain.WrapError(domain.KindInvalidInput, "derive source token address", err)
	}
	if _, err := o.client.GetAccountInfo(ctx, source); err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return solana.Signature{}, domain.NewFieldError("tokenMint", "sender holds no token account for this mint")
		}
		return solana.Signature{}, domain.WrapError(domain.KindLedgerSubmission, "look up source token account", err)
	}

	dest, err := o.prov.EnsureAssociatedAccount(ctx, mint, recipient, signer)
	if err != nil {
		return solana.Signature{}, err
	}

	mintInfo, err := o.client.GetAccountInfo(ctx, mint)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return solana.Signature{}, domain.NewFieldError("tokenMint", "mint account does not exist")
		}
		return solana.Signature{}, domain.WrapError(domain.KindLedgerSubmission, "look up mint account", err)
	}
	mintState, err := ledger.ParseMint(mintInfo.Data)
	if err != nil {
		return solana.Signature{}, domain.NewFieldError("tokenMint", "account is not a token mint")
	}

	amount, err := domain.ToBaseUnits(req.Quantity, mintState.Decimals)
	if err != nil {
		return solana.Signature{}, err
	}

	transferIx, err := token.NewTransferInstruction(
		amount,
		source,
		dest,
		signer.PublicKey(),
		nil,
	).ValidateAndBuild()
	if err != nil {
		return solana.Signature{}, domain.WrapError(domain.KindLedgerSubmission, "build transfer instruction", err)
	}

	return o.fin.Finalize(ctx,
		[]solana.Instruction{transferIx},
		signer.PublicKey(),
		[]solana.PrivateKey{signer.Private()},
	)
}

func parseAddress(s, field string) (solana.PublicKey, error) {
	pk, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return solana.PublicKey{}, domain.NewFieldError(field, "not a valid base58 address")
	}
	return pk, nil
}

// parseWalletAddress additionally requires the address to be on the curve:
// program-derived addresses cannot own associated token accounts.
func parseWalletAddress(s, field string) (solana.PublicKey, error) {
	pk, err := parseAddress(s, field)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if !keyring.IsOnCurve(pk) {
		return solana.PublicKey{}, domain.NewFieldError(field, "address is not a valid wallet key")
	}
	return pk, nil
}

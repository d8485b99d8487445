// Package provision creates mint accounts, ensures associated token
// accounts and issues supply.
package provision

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"

	"solana-token-api/internal/domain"
	"solana-token-api/internal/finalizer"
	"solana-token-api/internal/keyring"
	"solana-token-api/internal/ledger"
)

// MintAccountSize is the byte size of an SPL mint account.
const MintAccountSize = 82

// DefaultDecimals is the decimal precision of newly issued mints.
const DefaultDecimals uint8 = 6

// Provisioner ensures on-chain accounts exist and mints supply into them.
type Provisioner struct {
	client   ledger.Client
	fin      *finalizer.Finalizer
	decimals uint8
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithDecimals overrides the decimal precision of new mints.
func WithDecimals(d uint8) Option {
	return func(p *Provisioner) {
		p.decimals = d
	}
}

// New creates a Provisioner.
func New(client ledger.Client, fin *finalizer.Finalizer, opts ...Option) *Provisioner {
	p := &Provisioner{
		client:   client,
		fin:      fin,
		decimals: DefaultDecimals,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Decimals returns the decimal precision used for new mints.
func (p *Provisioner) Decimals() uint8 {
	return p.decimals
}

// EnsureMint creates a new mint account with the authority as mint
// authority and no freeze authority. The authority's balance is checked
// against the rent-exempt reserve before anything is submitted.
func (p *Provisioner) EnsureMint(ctx context.Context, authority *keyring.Keypair) (solana.PublicKey, error) {
	rent, err := p.client.GetMinimumBalanceForRentExemption(ctx, MintAccountSize)
	if err != nil {
		return solana.PublicKey{}, domain.WrapError(domain.KindLedgerSubmission, "fetch rent-exempt reserve", err)
	}
	balance, err := p.client.GetBalance(ctx, authority.PublicKey())
	if err != nil {
		return solana.PublicKey{}, domain.WrapError(domain.KindLedgerSubmission, "fetch balance", err)
	}
	if balance < rent {
		return solana.PublicKey{}, domain.NewError(domain.KindInsufficientFunds,
			fmt.Sprintf("balance %d lamports below rent-exempt reserve %d", balance, rent))
	}

	mintKey := solana.NewWallet()
	mint := mintKey.PublicKey()

	createIx, err := system.NewCreateAccountInstruction(
		rent,
		MintAccountSize,
		solana.TokenProgramID,
		authority.PublicKey(),
		mint,
	).ValidateAndBuild()
	if err != nil {
		return solana.PublicKey{}, domain.WrapError(domain.KindLedgerSubmission, "build create-account instruction", err)
	}

	initIx, err := token.NewInitializeMintInstructionBuilder().
		SetDecimals(p.decimals).
		SetMintAuthority(authority.PublicKey()).
		SetMintAccount(mint).
		SetSysVarRentPubkeyAccount(solana.SysVarRentPubkey).
		ValidateAndBuild()
	if err != nil {
		return solana.PublicKey{}, domain.WrapError(domain.KindLedgerSubmission, "build initialize-mint instruction", err)
	}

	_, err = p.fin.Finalize(ctx,
		[]solana.Instruction{createIx, initIx},
		authority.PublicKey(),
		[]solana.PrivateKey{authority.Private(), mintKey.PrivateKey},
	)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return mint, nil
}

// EnsureAssociatedAccount resolves the deterministic associated token
// address for (mint, owner) and creates the account when the ledger reports
// none there. Safe to call repeatedly for the same pair; at most one create
// instruction is ever issued.
func (p *Provisioner) EnsureAssociatedAccount(
	ctx context.Context,
	mint solana.PublicKey,
	owner solana.PublicKey,
	payer *keyring.Keypair,
) (solana.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, domain.WrapError(domain.KindInvalidInput, "derive associated token address", err)
	}

	_, err = p.client.GetAccountInfo(ctx, ata)
	if err == nil {
		return ata, nil
	}
	if !errors.Is(err, ledger.ErrAccountNotFound) {
		return solana.PublicKey{}, domain.WrapError(domain.KindLedgerSubmission, "look up associated token account", err)
	}

	createIx, err := associatedtokenaccount.NewCreateInstruction(
		payer.PublicKey(),
		owner,
		mint,
	).ValidateAndBuild()
	if err != nil {
		return solana.PublicKey{}, domain.WrapError(domain.KindLedgerSubmission, "build create-associated-account instruction", err)
	}

	_, err = p.fin.Finalize(ctx,
		[]solana.Instruction{createIx},
		payer.PublicKey(),
		[]solana.PrivateKey{payer.Private()},
	)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return ata, nil
}

// MintSupply converts quantity into base units (truncating toward zero) and
// mints them into the given token account.
func (p *Provisioner) MintSupply(
	ctx context.Context,
	mint solana.PublicKey,
	account solana.PublicKey,
	authority *keyring.Keypair,
	quantity float64,
) (solana.Signature, error) {
	amount, err := domain.ToBaseUnits(quantity, p.decimals)
	if err != nil {
		return solana.Signature{}, err
	}

	mintIx, err := token.NewMintToInstruction(
		amount,
		mint,
		account,
		authority.PublicKey(),
		nil,
	).ValidateAndBuild()
	if err != nil {
		return solana.Signature{}, domain.WrapError(domain.KindLedgerSubmission, "build mint-to instruction", err)
	}

	return p.fin.Finalize(ctx,
		[]solana.Instruction{mintIx},
		authority.PublicKey(),
		[]solana.PrivateKey{authority.Private()},
	)
}

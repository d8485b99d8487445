// Package issuance orchestrates token creation end to end: signing identity
// resolution, mint and token account provisioning, supply minting, metadata
// attachment and the best-effort registry proposal.
package issuance

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"

	"solana-token-api/internal/domain"
	"solana-token-api/internal/finalizer"
	"solana-token-api/internal/keyring"
	"solana-token-api/internal/metaplex"
	"solana-token-api/internal/observability"
	"solana-token-api/internal/provision"
)

// registryDispatchTimeout bounds the detached registry submission.
const registryDispatchTimeout = 2 * time.Minute

// RegistrySubmitter proposes a finalized token to the external registry.
type RegistrySubmitter interface {
	ProposeAddition(ctx context.Context, tok domain.RegistryToken) (string, error)
	Configured() bool
}

// Issuer coordinates the issuance flow.
type Issuer struct {
	prov        *provision.Provisioner
	fin         *finalizer.Finalizer
	registry    RegistrySubmitter
	httpClient  *http.Client
	metadataURI string
	logoURI     string
	website     string
	metrics     *observability.Metrics
	logger      *log.Logger
}

// Options for creating an Issuer.
type Options struct {
	Provisioner *provision.Provisioner
	Finalizer   *finalizer.Finalizer
	// Registry may be nil; issuance then skips the proposal entirely.
	Registry RegistrySubmitter
	// HTTPClient fetches the metadata document for pre-issuance
	// validation. Nil disables the check.
	HTTPClient  *http.Client
	MetadataURI string
	LogoURI     string
	Website     string
	Metrics     *observability.Metrics
	Logger      *log.Logger
}

// New creates an Issuer.
func New(opts Options) *Issuer {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Issuer{
		prov:        opts.Provisioner,
		fin:         opts.Finalizer,
		registry:    opts.Registry,
		httpClient:  opts.HTTPClient,
		metadataURI: opts.MetadataURI,
		logoURI:     opts.LogoURI,
		website:     opts.Website,
		metrics:     opts.Metrics,
		logger:      logger,
	}
}

// Issue creates a new token: it derives the signing identity from secret,
// validates the referenced metadata document, provisions the mint and the
// authority's associated account, mints the initial supply and attaches the
// metadata record. After on-chain confirmation the registry proposal is
// dispatched on its own goroutine; its outcome never affects the result.
func (i *Issuer) Issue(ctx context.Context, secret []byte, req domain.IssueRequest) (*domain.IssueResult, error) {
	signer, err := keyring.FromSecretBytes(secret)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if err := i.validateMetadataDocument(ctx, req.Name, req.Symbol); err != nil {
		return nil, err
	}

	mint, err := i.prov.EnsureMint(ctx, signer)
	if err != nil {
		return nil, err
	}
	tokenAccount, err := i.prov.EnsureAssociatedAccount(ctx, mint, signer.PublicKey(), signer)
	if err != nil {
		return nil, err
	}
	if _, err := i.prov.MintSupply(ctx, mint, tokenAccount, signer, req.Quantity); err != nil {
		return nil, err
	}

	metadataAddress, err := metaplex.DeriveMetadataAddress(mint)
	if err != nil {
		return nil, domain.WrapError(domain.KindLedgerSubmission, "derive metadata address", err)
	}
	metadataIx, err := metaplex.BuildCreateMetadataInstruction(mint, metadataAddress, signer.PublicKey(), domain.MetadataFields{
		Name:      req.Name,
		Symbol:    req.Symbol,
		URI:       i.metadataURI,
		IsMutable: true,
	})
	if err != nil {
		return nil, domain.WrapError(domain.KindLedgerSubmission, "build metadata instruction", err)
	}
	if _, err := i.fin.Finalize(ctx,
		[]solana.Instruction{metadataIx},
		signer.PublicKey(),
		[]solana.PrivateKey{signer.Private()},
	); err != nil {
		return nil, err
	}

	i.dispatchRegistryProposal(mint.String(), req)

	return &domain.IssueResult{
		MintAddress:         mint.String(),
		TokenAccountAddress: tokenAccount.String(),
		MetadataURI:         i.metadataURI,
	}, nil
}

func validateRequest(req domain.IssueRequest) error {
	if req.Name == "" || len(req.Name) > domain.MaxNameLength {
		return domain.NewFieldError("name", fmt.Sprintf("must be 1-%d characters", domain.MaxNameLength))
	}
	if req.Symbol == "" || len(req.Symbol) > domain.MaxSymbolLength {
		return domain.NewFieldError("symbol", fmt.Sprintf("must be 1-%d characters", domain.MaxSymbolLength))
	}
	if req.Quantity <= 0 {
		return domain.NewFieldError("quantity", "must be greater than zero")
	}
	return nil
}

type metadataDocument struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Image  string `json:"image"`
}

// validateMetadataDocument fetches the referenced metadata document and
// requires name, symbol and image to be present. A name/symbol mismatch
// with the request is logged, not rejected.
func (i *Issuer) validateMetadataDocument(ctx context.Context, name, symbol string) error {
	if i.httpClient == nil || i.metadataURI == "" {
		return nil
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, i.metadataURI, nil)
	if err != nil {
		return domain.WrapError(domain.KindInvalidInput, "build metadata request", err)
	}
	resp, err := i.httpClient.Do(httpReq)
	if err != nil {
		return domain.WrapError(domain.KindInvalidInput, "fetch metadata document", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return domain.NewError(domain.KindInvalidInput,
			fmt.Sprintf("metadata document at %s returned status %d", i.metadataURI, resp.StatusCode))
	}
	var doc metadataDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return domain.WrapError(domain.KindInvalidInput, "decode metadata document", err)
	}
	if doc.Name == "" || doc.Symbol == "" || doc.Image == "" {
		return domain.NewError(domain.KindInvalidInput, "metadata document must contain name, symbol and image")
	}
	if doc.Name != name || doc.Symbol != symbol {
		i.logger.Printf("metadata document (name=%q symbol=%q) differs from request (name=%q symbol=%q)",
			doc.Name, doc.Symbol, name, symbol)
	}
	return nil
}

// dispatchRegistryProposal submits the token to the registry on a detached
// goroutine. The issuance already succeeded on-chain; errors here are logged
// and counted, never surfaced.
func (i *Issuer) dispatchRegistryProposal(mint string, req domain.IssueRequest) {
	if i.registry == nil || !i.registry.Configured() {
		if i.metrics != nil {
			i.metrics.RegistrySubmissionsTotal.WithLabelValues("skipped").Inc()
		}
		i.logger.Printf("registry credential not configured, skipping submission for mint %s", mint)
		return
	}

	tok := domain.RegistryToken{
		Mint:     mint,
		Name:     req.Name,
		Symbol:   req.Symbol,
		URI:      i.metadataURI,
		Decimals: i.prov.Decimals(),
		LogoURI:  i.logoURI,
		Tags:     []string{"devnet", "test"},
	}
	if i.website != "" {
		tok.Extensions = map[string]string{"website": i.website}
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), registryDispatchTimeout)
		defer cancel()

		prURL, err := i.registry.ProposeAddition(ctx, tok)
		if err != nil {
			if i.metrics != nil {
				i.metrics.RegistrySubmissionsTotal.WithLabelValues("error").Inc()
			}
			i.logger.Printf("registry submission failed for mint %s: %v", mint, err)
			return
		}
		if i.metrics != nil {
			i.metrics.RegistrySubmissionsTotal.WithLabelValues("ok").Inc()
		}
		i.logger.Printf("registry pull request created for mint %s: %s", mint, prURL)
	}()
}

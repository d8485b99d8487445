package httpapi

import (
	"fmt"

	"github.com/mr-tron/base58"

	"solana-token-api/internal/domain"
)

// CreateTokenRequest is the body of POST /api/create-token.
type CreateTokenRequest struct {
	Name     string  `json:"name"`
	Symbol   string  `json:"symbol"`
	Quantity float64 `json:"quantity"`
}

// Validate checks field constraints and returns the typed core request.
func (r CreateTokenRequest) Validate() (domain.IssueRequest, error) {
	if r.Name == "" || len(r.Name) > domain.MaxNameLength {
		return domain.IssueRequest{}, domain.NewFieldError("name",
			fmt.Sprintf("must be 1-%d characters", domain.MaxNameLength))
	}
	if r.Symbol == "" || len(r.Symbol) > domain.MaxSymbolLength {
		return domain.IssueRequest{}, domain.NewFieldError("symbol",
			fmt.Sprintf("must be 1-%d characters", domain.MaxSymbolLength))
	}
	if r.Quantity <= 0 {
		return domain.IssueRequest{}, domain.NewFieldError("quantity", "must be greater than zero")
	}
	return domain.IssueRequest{
		Name:     r.Name,
		Symbol:   r.Symbol,
		Quantity: r.Quantity,
	}, nil
}

// TransferRequest is the body of POST /api/transfer.
type TransferRequest struct {
	ToWallet  string  `json:"toWallet"`
	TokenMint string  `json:"tokenMint"`
	Quantity  float64 `json:"quantity"`
}

// Validate checks field constraints and returns the typed core request.
func (r TransferRequest) Validate() (domain.TransferRequest, error) {
	if err := validateAddress(r.ToWallet, "toWallet"); err != nil {
		return domain.TransferRequest{}, err
	}
	if err := validateAddress(r.TokenMint, "tokenMint"); err != nil {
		return domain.TransferRequest{}, err
	}
	if r.Quantity <= 0 {
		return domain.TransferRequest{}, domain.NewFieldError("quantity", "must be greater than zero")
	}
	return domain.TransferRequest{
		ToWallet:  r.ToWallet,
		TokenMint: r.TokenMint,
		Quantity:  r.Quantity,
	}, nil
}

func validateAddress(s, field string) error {
	if s == "" {
		return domain.NewFieldError(field, "is required")
	}
	raw, err := base58.Decode(s)
	if err != nil || len(raw) != 32 {
		return domain.NewFieldError(field, "not a valid base58 address")
	}
	return nil
}

// Package domain holds types and errors shared across the issuance and
// transfer components.
package domain

// Limits imposed by the token metadata program.
const (
	MaxNameLength   = 32
	MaxSymbolLength = 10

	// MaxRoyaltyBasisPoints is the upper bound for seller fee basis points.
	MaxRoyaltyBasisPoints = 10000
)

// IssueRequest is a validated token issuance request. The HTTP boundary
// validates field lengths and quantity before this type reaches the core.
type IssueRequest struct {
	Name     string
	Symbol   string
	Quantity float64
}

// IssueResult describes a completed issuance. The registry proposal is
// dispatched after the response and never reported here.
type IssueResult struct {
	MintAddress         string
	TokenAccountAddress string
	MetadataURI         string
}

// TransferRequest is a validated transfer request.
type TransferRequest struct {
	ToWallet  string
	TokenMint string
	Quantity  float64
}

// MetadataFields carries the on-chain metadata record fields for a mint.
// Creators, collection and uses are always unset in this service.
type MetadataFields struct {
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16
	IsMutable            bool
}

// RegistryToken is the document proposed to the external token registry.
type RegistryToken struct {
	Mint       string            `json:"mint"`
	Name       string            `json:"name"`
	Symbol     string            `json:"symbol"`
	URI        string            `json:"uri"`
	Decimals   uint8             `json:"decimals"`
	LogoURI    string            `json:"logoURI"`
	Tags       []string          `json:"tags"`
	Extensions map[string]string `json:"extensions,omitempty"`
}

// Package metaplex derives metadata account addresses and assembles the
// token metadata program's create instruction. Everything here is pure data
// assembly; field validation happens at the request boundary.
package metaplex

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"solana-token-api/internal/domain"
)

// MetadataSeed is the fixed seed prefix for metadata account derivation.
const MetadataSeed = "metadata"

// createMetadataAccountV3 is the instruction discriminator within the
// token metadata program.
const createMetadataAccountV3 uint8 = 33

// ProgramID is the token metadata program identifier.
var ProgramID = solana.TokenMetadataProgramID

// DeriveMetadataAddress computes the program-derived metadata address for a
// mint: the lowest-bump address off the curve for seeds
// ("metadata", program id, mint).
func DeriveMetadataAddress(mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{
			[]byte(MetadataSeed),
			ProgramID.Bytes(),
			mint.Bytes(),
		},
		ProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive metadata address: %w", err)
	}
	return addr, nil
}

// Creator is a metadata creator entry. Unused by this service but part of
// the instruction wire format.
type Creator struct {
	Address  solana.PublicKey
	Verified bool
	Share    uint8
}

// Collection is a metadata collection reference.
type Collection struct {
	Verified bool
	Key      solana.PublicKey
}

// Uses describes metadata use limits.
type Uses struct {
	UseMethod uint8
	Remaining uint64
	Total     uint64
}

// DataV2 is the metadata payload of CreateMetadataAccountV3.
type DataV2 struct {
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16
	Creators             *[]Creator  `bin:"optional"`
	Collection           *Collection `bin:"optional"`
	Uses                 *Uses       `bin:"optional"`
}

type collectionDetails struct {
	Size uint64
}

type createMetadataAccountArgsV3 struct {
	Data              DataV2
	IsMutable         bool
	CollectionDetails *collectionDetails `bin:"optional"`
}

// BuildCreateMetadataInstruction assembles the instruction that creates the
// metadata record at metadataAddress for the given mint. The authority acts
// as mint authority, payer and update authority. Creators, collection and
// uses are left unset.
func BuildCreateMetadataInstruction(
	mint solana.PublicKey,
	metadataAddress solana.PublicKey,
	authority solana.PublicKey,
	fields domain.MetadataFields,
) (solana.Instruction, error) {
	args := createMetadataAccountArgsV3{
		Data: DataV2{
			Name:                 fields.Name,
			Symbol:               fields.Symbol,
			URI:                  fields.URI,
			SellerFeeBasisPoints: fields.SellerFeeBasisPoints,
		},
		IsMutable: fields.IsMutable,
	}

	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)
	if err := enc.WriteBytes([]byte{createMetadataAccountV3}, false); err != nil {
		return nil, fmt.Errorf("encode discriminator: %w", err)
	}
	if err := enc.Encode(&args); err != nil {
		return nil, fmt.Errorf("encode metadata args: %w", err)
	}

	accounts := solana.AccountMetaSlice{
		solana.Meta(metadataAddress).WRITE(),
		solana.Meta(mint),
		solana.Meta(authority).SIGNER(),
		solana.Meta(authority).SIGNER().WRITE(),
		solana.Meta(authority),
		solana.Meta(solana.SystemProgramID),
		solana.Meta(solana.SysVarRentPubkey),
	}

	return solana.NewInstruction(ProgramID, accounts, buf.Bytes()), nil
}

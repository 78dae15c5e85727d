// Package nft decodes Metaplex Token Metadata mint and edition instructions.
// MintNewEdition is treated as an NFT transfer to a new owner with an empty
// From field, since the edition's prior holder is not resolvable from the
// instruction alone.
package nft

import (
	"github.com/amitesh0303/solana-indexer/internal/parser"
	"github.com/amitesh0303/solana-indexer/internal/types"
)

const (
	ixCreateMetadata = 0
	ixMintNewEdition  = 11
)

// Parser decodes Metaplex Token Metadata instructions into NftMintEvent and
// NftTransferEvent values.
type Parser struct{}

// New returns an nft.Parser.
func New() *Parser {
	return &Parser{}
}

// ProgramID returns the Metaplex Token Metadata program ID.
func (p *Parser) ProgramID() string {
	return parser.MetaplexProgramID
}

// Parse implements parser.Parser.
func (p *Parser) Parse(tx *types.TransactionUpdate) []types.ParsedEvent {
	var events []types.ParsedEvent

	for _, ix := range tx.Instructions {
		if ix.ProgramID != parser.MetaplexProgramID {
			continue
		}
		if len(ix.Data) == 0 {
			continue
		}

		switch ix.Data[0] {
		case ixCreateMetadata:
			if len(ix.Accounts) < 4 {
				continue
			}
			events = append(events, types.NewNftMintEvent(types.NftMintEvent{
				Signature: tx.Signature,
				BlockTime: tx.BlockTime,
				Mint:      ix.Accounts[1],
				Owner:     ix.Accounts[3],
			}))
		case ixMintNewEdition:
			if len(ix.Accounts) < 2 {
				continue
			}
			events = append(events, types.NewNftTransferEvent(types.NftTransferEvent{
				Signature: tx.Signature,
				BlockTime: tx.BlockTime,
				Mint:      ix.Accounts[1],
				From:      "",
				To:        ix.Accounts[0],
			}))
		}
	}

	return events
}

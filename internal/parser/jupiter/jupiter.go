// Package jupiter decodes Jupiter v6 aggregator route instructions.
// InputAmount and OutputAmount are always reported as 0, since a full
// decode requires the Anchor IDL for the route instruction rather than a
// fixed discriminant+account layout.
package jupiter

import (
	"bytes"

	"github.com/amitesh0303/solana-indexer/internal/parser"
	"github.com/amitesh0303/solana-indexer/internal/types"
)

// routeDiscriminator is the first 8 bytes of sha256("global:route"), the
// Anchor instruction discriminator for Jupiter's route instruction.
var routeDiscriminator = []byte{0xe5, 0x17, 0xcb, 0x97, 0x7a, 0xe3, 0xad, 0x2a}

// Parser decodes Jupiter route instructions into SwapEvent values.
type Parser struct{}

// New returns a jupiter.Parser.
func New() *Parser {
	return &Parser{}
}

// ProgramID returns the Jupiter v6 aggregator program ID.
func (p *Parser) ProgramID() string {
	return parser.JupiterProgramID
}

// Parse implements parser.Parser.
func (p *Parser) Parse(tx *types.TransactionUpdate) []types.ParsedEvent {
	var events []types.ParsedEvent

	for _, ix := range tx.Instructions {
		if ix.ProgramID != parser.JupiterProgramID {
			continue
		}
		if len(ix.Data) < 8 || !bytes.Equal(ix.Data[:8], routeDiscriminator) {
			continue
		}

		// Best-effort: accounts[0] = token program, accounts[1] = user
		// authority, accounts[2] = user source token account,
		// accounts[3] = user destination token account.
		events = append(events, types.NewSwapEvent(types.SwapEvent{
			Signature:    tx.Signature,
			BlockTime:    tx.BlockTime,
			Program:      parser.JupiterProgramID,
			InputMint:    accountAt(ix.Accounts, 2),
			OutputMint:   accountAt(ix.Accounts, 3),
			InputAmount:  0,
			OutputAmount: 0,
			User:         accountAt(ix.Accounts, 1),
		}))
	}

	return events
}

func accountAt(accounts []string, i int) string {
	if i < 0 || i >= len(accounts) {
		return ""
	}
	return accounts[i]
}

// Package spltoken decodes SPL Token / Token-2022 transfer instructions.
// The plain Transfer instruction carries no mint account, so
// TokenTransferEvent.Mint is populated from accounts[2] and Decimals is
// always reported as 0 for that variant.
package spltoken

import (
	"encoding/binary"

	"github.com/amitesh0303/solana-indexer/internal/parser"
	"github.com/amitesh0303/solana-indexer/internal/types"
)

// Instruction discriminants for the SPL Token program.
const (
	ixTransfer        = 3
	ixTransferChecked = 12
)

// Parser decodes SPL Token / Token-2022 transfer instructions into
// TokenTransferEvent values.
type Parser struct{}

// New returns an spltoken.Parser.
func New() *Parser {
	return &Parser{}
}

// ProgramID returns the canonical SPL Token program ID, the only program ID
// the engine dispatches to this parser under. Parse decodes both SPL Token
// and Token-2022 instructions, since both programs share the same
// discriminant scheme, but the engine invokes it only for transactions that
// contain at least one SPL Token instruction: a transaction whose token
// instructions are all Token-2022 is not decoded.
func (p *Parser) ProgramID() string {
	return parser.SplTokenProgramID
}

// Parse implements parser.Parser.
func (p *Parser) Parse(tx *types.TransactionUpdate) []types.ParsedEvent {
	var events []types.ParsedEvent

	for _, ix := range tx.Instructions {
		if ix.ProgramID != parser.SplTokenProgramID && ix.ProgramID != parser.SplToken2022ProgramID {
			continue
		}
		if len(ix.Data) == 0 {
			continue
		}

		switch ix.Data[0] {
		case ixTransfer:
			if len(ix.Data) < 9 || len(ix.Accounts) < 3 {
				continue
			}
			amount := binary.LittleEndian.Uint64(ix.Data[1:9])
			events = append(events, types.NewTokenTransferEvent(types.TokenTransferEvent{
				Signature:   tx.Signature,
				BlockTime:   tx.BlockTime,
				Mint:        ix.Accounts[2],
				Source:      ix.Accounts[0],
				Destination: ix.Accounts[1],
				Amount:      amount,
				Decimals:    0,
			}))
		case ixTransferChecked:
			// transferChecked: accounts = [source, mint, destination, authority, ...]
			// data = [discriminant(1), amount(8), decimals(1)]
			if len(ix.Data) < 10 || len(ix.Accounts) < 3 {
				continue
			}
			amount := binary.LittleEndian.Uint64(ix.Data[1:9])
			decimals := ix.Data[9]
			events = append(events, types.NewTokenTransferEvent(types.TokenTransferEvent{
				Signature:   tx.Signature,
				BlockTime:   tx.BlockTime,
				Mint:        ix.Accounts[1],
				Source:      ix.Accounts[0],
				Destination: ix.Accounts[2],
				Amount:      amount,
				Decimals:    decimals,
			}))
		}
	}

	return events
}

// Package raydium decodes Raydium AMM swap instructions. InputMint and
// OutputMint are read from accounts[14]/accounts[15], positions that
// assume the canonical Raydium AMM v4 account ordering and will misread
// swaps against pools with a different vault layout. OutputAmount is
// always reported as 0 since the instruction only encodes the
// minimum-out slippage bound, not the realized amount.
package raydium

import (
	"encoding/binary"

	"github.com/amitesh0303/solana-indexer/internal/parser"
	"github.com/amitesh0303/solana-indexer/internal/types"
)

// Raydium AMM swap instruction discriminants.
const (
	ixSwapBaseIn  = 9
	ixSwapBaseOut = 11
)

// Parser decodes Raydium AMM swap instructions into SwapEvent values.
type Parser struct{}

// New returns a raydium.Parser.
func New() *Parser {
	return &Parser{}
}

// ProgramID returns the Raydium AMM v4 program ID.
func (p *Parser) ProgramID() string {
	return parser.RaydiumAmmProgramID
}

// Parse implements parser.Parser.
func (p *Parser) Parse(tx *types.TransactionUpdate) []types.ParsedEvent {
	var events []types.ParsedEvent

	for _, ix := range tx.Instructions {
		if ix.ProgramID != parser.RaydiumAmmProgramID {
			continue
		}
		if len(ix.Data) == 0 {
			continue
		}

		switch ix.Data[0] {
		case ixSwapBaseIn, ixSwapBaseOut:
			var inputAmount uint64
			if len(ix.Data) >= 9 {
				inputAmount = binary.LittleEndian.Uint64(ix.Data[1:9])
			}
			events = append(events, types.NewSwapEvent(types.SwapEvent{
				Signature:    tx.Signature,
				BlockTime:    tx.BlockTime,
				Program:      parser.RaydiumAmmProgramID,
				InputMint:    accountAt(ix.Accounts, 14),
				OutputMint:   accountAt(ix.Accounts, 15),
				InputAmount:  inputAmount,
				OutputAmount: 0,
				User:         lastAccount(ix.Accounts),
			}))
		}
	}

	return events
}

func accountAt(accounts []string, i int) string {
	if i < 0 || i >= len(accounts) {
		return ""
	}
	return accounts[i]
}

func lastAccount(accounts []string) string {
	if len(accounts) == 0 {
		return ""
	}
	return accounts[len(accounts)-1]
}

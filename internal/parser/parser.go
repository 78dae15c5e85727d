// Package parser implements the pluggable instruction-level Parser Engine:
// a registry of per-program decoders that a TransactionUpdate is routed
// through, producing ParsedEvent values. Dispatch happens once per
// distinct program ID seen in a transaction's instructions, not once per
// instruction.
package parser

import (
	"github.com/amitesh0303/solana-indexer/internal/types"
)

// Well-known program IDs, matching the original indexer's constants.
const (
	SplTokenProgramID     = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	SplToken2022ProgramID = "TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb"
	MetaplexProgramID     = "metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s"
	JupiterProgramID      = "JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4"
	RaydiumAmmProgramID   = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
)

// Parser decodes the instructions of one program within a transaction into
// ParsedEvent values.
type Parser interface {
	ProgramID() string
	Parse(tx *types.TransactionUpdate) []types.ParsedEvent
}

// Engine holds every registered Parser and routes transactions to the
// programs actually present in them.
type Engine struct {
	parsers map[string]Parser
}

// NewEngine returns an Engine with no parsers registered.
func NewEngine() *Engine {
	return &Engine{parsers: make(map[string]Parser)}
}

// Register adds p, keyed by its ProgramID. A later Register for the same
// program ID replaces the earlier one.
func (e *Engine) Register(p Parser) {
	e.parsers[p.ProgramID()] = p
}

// Parse runs every registered parser whose program appears in tx's
// instructions and collects their ParsedEvent output, in the order each
// program is first seen among tx's instructions. The synthetic
// Transaction event is NOT included here — the supervisor prepends it,
// since it is a property of the Update classification step, not of any
// particular program parser.
func (e *Engine) Parse(tx *types.TransactionUpdate) []types.ParsedEvent {
	var events []types.ParsedEvent

	seen := make(map[string]bool, len(tx.Instructions))
	for _, ix := range tx.Instructions {
		if seen[ix.ProgramID] {
			continue
		}
		seen[ix.ProgramID] = true
		if p, ok := e.parsers[ix.ProgramID]; ok {
			events = append(events, p.Parse(tx)...)
		}
	}
	return events
}

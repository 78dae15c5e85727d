// Package types holds the domain data model shared by every pipeline stage:
// the raw Update variants produced by the Receiver and the normalized
// ParsedEvent variants produced by the Parser Engine and Supervisor.
package types

// UpdateKind identifies which case of the Update sum type a value holds.
type UpdateKind int

const (
	UpdateKindAccount UpdateKind = iota
	UpdateKindTransaction
	UpdateKindBlock
)

// Update is a closed, tagged variant mirroring the upstream Geyser firehose:
// exactly one of Account, Transaction, Block is populated, selected by Kind.
// Consumers are expected to exhaustively switch on Kind rather than treat
// Update as an open interface hierarchy.
type Update struct {
	Kind        UpdateKind
	Account     *AccountUpdate
	Transaction *TransactionUpdate
	Block       *BlockUpdate
}

// AccountUpdate describes the post-write state of a single Solana account.
type AccountUpdate struct {
	Pubkey     string `json:"pubkey"`
	Slot       uint64 `json:"slot"`
	Owner      string `json:"owner"`
	Lamports   uint64 `json:"lamports"`
	Executable bool   `json:"executable"`
	RentEpoch  uint64 `json:"rent_epoch"`
	Data       []byte `json:"data"`
}

// RawInstruction is a single instruction extracted from a transaction,
// either top-level or, when InnerIndex is non-nil, a CPI inner instruction.
type RawInstruction struct {
	ProgramID        string  `json:"program_id"`
	InstructionIndex uint32  `json:"instruction_index"`
	InnerIndex       *uint32 `json:"inner_index,omitempty"`
	Data             []byte  `json:"data"`
	Accounts         []string `json:"accounts"`
}

// TransactionUpdate carries everything the indexer observed about one
// confirmed transaction, in the order the instructions executed.
type TransactionUpdate struct {
	Signature    string            `json:"signature"`
	Slot         uint64            `json:"slot"`
	BlockTime    int64             `json:"block_time"`
	Success      bool              `json:"success"`
	Fee          uint64            `json:"fee"`
	ComputeUnits uint64            `json:"compute_units"`
	Accounts     []string          `json:"accounts"`
	LogMessages  []string          `json:"log_messages"`
	Instructions []RawInstruction  `json:"instructions"`
}

// BlockUpdate carries per-slot metadata, including the upstream's current
// chain tip (TipSlot), used to compute indexing lag.
type BlockUpdate struct {
	Slot        uint64 `json:"slot"`
	ParentSlot  uint64 `json:"parent_slot"`
	BlockTime   int64  `json:"block_time"`
	BlockHeight uint64 `json:"block_height"`
	Leader      string `json:"leader"`
	TipSlot     uint64 `json:"tip_slot"`
}

// Lag returns max(0, TipSlot - Slot), the indexer's distance from the chain
// tip as of this block update.
func (b BlockUpdate) Lag() uint64 {
	if b.TipSlot <= b.Slot {
		return 0
	}
	return b.TipSlot - b.Slot
}

// NewAccountUpdate wraps an AccountUpdate as an Update.
func NewAccountUpdate(a AccountUpdate) Update {
	return Update{Kind: UpdateKindAccount, Account: &a}
}

// NewTransactionUpdate wraps a TransactionUpdate as an Update.
func NewTransactionUpdate(t TransactionUpdate) Update {
	return Update{Kind: UpdateKindTransaction, Transaction: &t}
}

// NewBlockUpdate wraps a BlockUpdate as an Update.
func NewBlockUpdate(b BlockUpdate) Update {
	return Update{Kind: UpdateKindBlock, Block: &b}
}

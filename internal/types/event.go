package types

// EventKind identifies which case of the ParsedEvent sum type a value holds.
type EventKind int

const (
	EventKindTransaction EventKind = iota
	EventKindTokenTransfer
	EventKindNftMint
	EventKindNftTransfer
	EventKindSwap
	EventKindAccountUpdate
	EventKindBlock
)

func (k EventKind) String() string {
	switch k {
	case EventKindTransaction:
		return "transaction"
	case EventKindTokenTransfer:
		return "token_transfer"
	case EventKindNftMint:
		return "nft_mint"
	case EventKindNftTransfer:
		return "nft_transfer"
	case EventKindSwap:
		return "swap"
	case EventKindAccountUpdate:
		return "account_update"
	case EventKindBlock:
		return "block"
	default:
		return "unknown"
	}
}

// ParsedEvent is the closed, tagged variant emitted by the Parser Engine and
// consumed by the Writer. Exactly one of the pointer fields is populated,
// selected by Kind. Values are plain data: copyable, JSON-serializable, and
// carry no references into the source instruction buffer.
type ParsedEvent struct {
	Kind           EventKind
	Transaction    *TransactionEvent
	TokenTransfer  *TokenTransferEvent
	NftMint        *NftMintEvent
	NftTransfer    *NftTransferEvent
	Swap           *SwapEvent
	AccountUpdate  *AccountUpdate
	Block          *BlockUpdate
}

// TransactionEvent is the transaction-level metadata emitted once per
// incoming TransactionUpdate, always first in that transaction's event
// sequence.
type TransactionEvent struct {
	Signature    string   `json:"signature"`
	Slot         uint64   `json:"slot"`
	BlockTime    int64    `json:"block_time"`
	Success      bool     `json:"success"`
	Fee          uint64   `json:"fee"`
	ComputeUnits uint64   `json:"compute_units"`
	Accounts     []string `json:"accounts"`
	LogMessages  []string `json:"log_messages"`
}

// TokenTransferEvent is a decoded SPL Token / Token-2022 transfer.
type TokenTransferEvent struct {
	Signature   string `json:"signature"`
	BlockTime   int64  `json:"block_time"`
	Mint        string `json:"mint"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Amount      uint64 `json:"amount"`
	Decimals    uint8  `json:"decimals"`
}

// NftMintEvent is a decoded Metaplex Token Metadata mint.
type NftMintEvent struct {
	Signature   string  `json:"signature"`
	BlockTime   int64   `json:"block_time"`
	Mint        string  `json:"mint"`
	Owner       string  `json:"owner"`
	MetadataURI *string `json:"metadata_uri,omitempty"`
	Collection  *string `json:"collection,omitempty"`
}

// NftTransferEvent is a decoded NFT edition/transfer event.
type NftTransferEvent struct {
	Signature string `json:"signature"`
	BlockTime int64  `json:"block_time"`
	Mint      string `json:"mint"`
	From      string `json:"from"`
	To        string `json:"to"`
}

// SwapEvent is a decoded AMM/aggregator swap.
type SwapEvent struct {
	Signature    string `json:"signature"`
	BlockTime    int64  `json:"block_time"`
	Program      string `json:"program"`
	InputMint    string `json:"input_mint"`
	OutputMint   string `json:"output_mint"`
	InputAmount  uint64 `json:"input_amount"`
	OutputAmount uint64 `json:"output_amount"`
	User         string `json:"user"`
}

func NewTransactionEvent(e TransactionEvent) ParsedEvent {
	return ParsedEvent{Kind: EventKindTransaction, Transaction: &e}
}

func NewTokenTransferEvent(e TokenTransferEvent) ParsedEvent {
	return ParsedEvent{Kind: EventKindTokenTransfer, TokenTransfer: &e}
}

func NewNftMintEvent(e NftMintEvent) ParsedEvent {
	return ParsedEvent{Kind: EventKindNftMint, NftMint: &e}
}

func NewNftTransferEvent(e NftTransferEvent) ParsedEvent {
	return ParsedEvent{Kind: EventKindNftTransfer, NftTransfer: &e}
}

func NewSwapEvent(e SwapEvent) ParsedEvent {
	return ParsedEvent{Kind: EventKindSwap, Swap: &e}
}

func NewAccountUpdateEvent(e AccountUpdate) ParsedEvent {
	return ParsedEvent{Kind: EventKindAccountUpdate, AccountUpdate: &e}
}

func NewBlockEvent(e BlockUpdate) ParsedEvent {
	return ParsedEvent{Kind: EventKindBlock, Block: &e}
}

// Payload returns the populated variant for JSON marshaling, so that
// encoding/json sees the flat event shape rather than the wrapper's kind
// tag and empty sibling pointers.
func (e ParsedEvent) Payload() interface{} {
	switch e.Kind {
	case EventKindTransaction:
		return e.Transaction
	case EventKindTokenTransfer:
		return e.TokenTransfer
	case EventKindNftMint:
		return e.NftMint
	case EventKindNftTransfer:
		return e.NftTransfer
	case EventKindSwap:
		return e.Swap
	case EventKindAccountUpdate:
		return e.AccountUpdate
	case EventKindBlock:
		return e.Block
	default:
		return nil
	}
}

package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsedEventJSONRoundTrip(t *testing.T) {
	uri := "ipfs://example"
	collection := "collection-mint"

	cases := []ParsedEvent{
		NewTransactionEvent(TransactionEvent{
			Signature: "sig1", Slot: 100, BlockTime: 1700000000, Success: true,
			Fee: 5000, ComputeUnits: 200000, Accounts: []string{"a", "b"},
			LogMessages: []string{"log1", "log2"},
		}),
		NewTokenTransferEvent(TokenTransferEvent{
			Signature: "sig2", BlockTime: 1700000001, Mint: "mint", Source: "src",
			Destination: "dst", Amount: 1_000_000, Decimals: 6,
		}),
		NewNftMintEvent(NftMintEvent{
			Signature: "sig3", BlockTime: 1700000002, Mint: "mint2", Owner: "owner",
			MetadataURI: &uri, Collection: &collection,
		}),
		NewNftTransferEvent(NftTransferEvent{
			Signature: "sig4", BlockTime: 1700000003, Mint: "mint3", From: "", To: "owner2",
		}),
		NewSwapEvent(SwapEvent{
			Signature: "sig5", BlockTime: 1700000004, Program: "jupiter",
			InputMint: "in", OutputMint: "out", InputAmount: 0, OutputAmount: 0, User: "user",
		}),
		NewAccountUpdateEvent(AccountUpdate{
			Pubkey: "pk", Slot: 42, Owner: "owner3", Lamports: 123, Executable: false,
			RentEpoch: 10, Data: []byte{1, 2, 3},
		}),
		NewBlockEvent(BlockUpdate{
			Slot: 100, ParentSlot: 99, BlockTime: 1700000005, BlockHeight: 50,
			Leader: "leader", TipSlot: 142,
		}),
	}

	for _, original := range cases {
		payload := original.Payload()
		raw, err := json.Marshal(payload)
		require.NoError(t, err)

		switch original.Kind {
		case EventKindTransaction:
			var out TransactionEvent
			require.NoError(t, json.Unmarshal(raw, &out))
			require.Equal(t, *original.Transaction, out)
		case EventKindTokenTransfer:
			var out TokenTransferEvent
			require.NoError(t, json.Unmarshal(raw, &out))
			require.Equal(t, *original.TokenTransfer, out)
		case EventKindNftMint:
			var out NftMintEvent
			require.NoError(t, json.Unmarshal(raw, &out))
			require.Equal(t, *original.NftMint, out)
		case EventKindNftTransfer:
			var out NftTransferEvent
			require.NoError(t, json.Unmarshal(raw, &out))
			require.Equal(t, *original.NftTransfer, out)
		case EventKindSwap:
			var out SwapEvent
			require.NoError(t, json.Unmarshal(raw, &out))
			require.Equal(t, *original.Swap, out)
		case EventKindAccountUpdate:
			var out AccountUpdate
			require.NoError(t, json.Unmarshal(raw, &out))
			require.Equal(t, *original.AccountUpdate, out)
		case EventKindBlock:
			var out BlockUpdate
			require.NoError(t, json.Unmarshal(raw, &out))
			require.Equal(t, *original.Block, out)
		}
	}
}

func TestBlockUpdateLag(t *testing.T) {
	require.Equal(t, uint64(42), BlockUpdate{Slot: 100, TipSlot: 142}.Lag())
	require.Equal(t, uint64(0), BlockUpdate{Slot: 100, TipSlot: 100}.Lag())
	require.Equal(t, uint64(0), BlockUpdate{Slot: 100, TipSlot: 50}.Lag())
}

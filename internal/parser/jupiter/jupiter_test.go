package jupiter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/amitesh0303/solana-indexer/internal/parser"
	"github.com/amitesh0303/solana-indexer/internal/types"
)

func TestRouteYieldsSwapWithZeroAmounts(t *testing.T) {
	p := New()
	data := append([]byte{}, routeDiscriminator...)
	data = append(data, 0xAA, 0xBB) // trailing route args, ignored

	tx := &types.TransactionUpdate{
		Signature: "sig1",
		BlockTime: 1700000000,
		Instructions: []types.RawInstruction{{
			ProgramID: parser.JupiterProgramID,
			Data:      data,
			Accounts:  []string{"tokenProgram", "user", "srcMint", "dstMint"},
		}},
	}

	events := p.Parse(tx)
	require.Len(t, events, 1)
	e := events[0].Swap
	require.Equal(t, uint64(0), e.InputAmount)
	require.Equal(t, uint64(0), e.OutputAmount)
	require.Equal(t, "srcMint", e.InputMint)
	require.Equal(t, "dstMint", e.OutputMint)
	require.Equal(t, "user", e.User)
}

func TestNonRouteDiscriminatorIgnored(t *testing.T) {
	p := New()
	tx := &types.TransactionUpdate{
		Instructions: []types.RawInstruction{{
			ProgramID: parser.JupiterProgramID,
			Data:      []byte{0, 1, 2, 3, 4, 5, 6, 7},
		}},
	}
	require.Empty(t, p.Parse(tx))
}

package supervisor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/amitesh0303/solana-indexer/internal/metrics"
	"github.com/amitesh0303/solana-indexer/internal/parser"
	"github.com/amitesh0303/solana-indexer/internal/receiver"
	"github.com/amitesh0303/solana-indexer/internal/types"
)

type fakeSubscriber struct {
	streams []chan receiver.Result
	calls   int
}

func (f *fakeSubscriber) Subscribe(ctx context.Context) (<-chan receiver.Result, error) {
	ch := f.streams[f.calls]
	f.calls++
	return ch, nil
}

type fixedParser struct {
	programID string
	events    []types.ParsedEvent
}

func (p fixedParser) ProgramID() string { return p.programID }

func (p fixedParser) Parse(tx *types.TransactionUpdate) []types.ParsedEvent { return p.events }

func TestSupervisorPrependsTransactionEventAheadOfParsedEvents(t *testing.T) {
	stream := make(chan receiver.Result, 1)
	sub := &fakeSubscriber{streams: []chan receiver.Result{stream}}
	engine := parser.NewEngine()
	engine.Register(fixedParser{
		programID: "Prog1",
		events:    []types.ParsedEvent{types.NewSwapEvent(types.SwapEvent{Signature: "sig1"})},
	})
	m := metrics.New()
	queue := make(chan types.ParsedEvent, supQueueCapacityForTest())

	s := New(sub, engine, m, queue)
	ctx, cancel := context.WithCancel(context.Background())

	stream <- receiver.Result{Update: types.NewTransactionUpdate(types.TransactionUpdate{
		Signature:    "sig1",
		Slot:         10,
		Instructions: []types.RawInstruction{{ProgramID: "Prog1"}},
	})}

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	ev := requireRecv(t, queue)
	require.Equal(t, types.EventKindTransaction, ev.Kind)
	require.Equal(t, "sig1", ev.Transaction.Signature)

	next := requireRecv(t, queue)
	require.Equal(t, types.EventKindSwap, next.Kind)

	cancel()
	<-done
}

func TestSupervisorUpdatesLagGaugeOnBlock(t *testing.T) {
	stream := make(chan receiver.Result, 1)
	sub := &fakeSubscriber{streams: []chan receiver.Result{stream}}
	engine := parser.NewEngine()
	m := metrics.New()
	queue := make(chan types.ParsedEvent, supQueueCapacityForTest())

	s := New(sub, engine, m, queue)
	ctx, cancel := context.WithCancel(context.Background())

	stream <- receiver.Result{Update: types.NewBlockUpdate(types.BlockUpdate{
		Slot:    100,
		TipSlot: 142,
	})}

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	ev := requireRecv(t, queue)
	require.Equal(t, types.EventKindBlock, ev.Kind)

	require.Eventually(t, func() bool {
		return testutilGatherGauge(t, m) == 42
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func TestSupervisorResubscribesOnStreamEnd(t *testing.T) {
	first := make(chan receiver.Result)
	close(first)
	second := make(chan receiver.Result, 1)
	sub := &fakeSubscriber{streams: []chan receiver.Result{first, second}}
	engine := parser.NewEngine()
	m := metrics.New()
	queue := make(chan types.ParsedEvent, supQueueCapacityForTest())

	s := New(sub, engine, m, queue)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return sub.calls == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func supQueueCapacityForTest() int {
	return 16
}

func requireRecv(t *testing.T, queue chan types.ParsedEvent) types.ParsedEvent {
	t.Helper()
	select {
	case ev := <-queue:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for enqueued event")
		return types.ParsedEvent{}
	}
}

func testutilGatherGauge(t *testing.T, m *metrics.Metrics) float64 {
	t.Helper()
	metricFamilies, err := m.Registry.Gather()
	require.NoError(t, err)
	for _, mf := range metricFamilies {
		if mf.GetName() == "solindexer_indexer_lag_slots" {
			return mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatal("gauge not found")
	return 0
}

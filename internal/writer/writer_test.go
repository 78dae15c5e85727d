package writer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/amitesh0303/solana-indexer/internal/metrics"
	"github.com/amitesh0303/solana-indexer/internal/types"
)

var errFake = errors.New("fake store failure")

type fakeStore struct {
	mu    sync.Mutex
	txs   []types.TransactionEvent
	fail  bool
}

func (f *fakeStore) UpsertTransaction(ctx context.Context, tx types.TransactionEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errFake
	}
	f.txs = append(f.txs, tx)
	return nil
}

func (f *fakeStore) UpsertTokenTransfer(ctx context.Context, t types.TokenTransferEvent) error {
	return nil
}

func (f *fakeStore) UpsertAccountState(ctx context.Context, a types.AccountUpdate) error {
	return nil
}

func (f *fakeStore) UpsertBlock(ctx context.Context, b types.BlockUpdate) error {
	return nil
}

type fakePublisher struct {
	mu       sync.Mutex
	channels []string
}

func (f *fakePublisher) Publish(channel string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channels = append(f.channels, channel)
	return nil
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.channels)
}

func newTestWriter(store RowStore, pub Publisher, batchSize int) *Writer {
	return New(store, pub, metrics.New(), batchSize)
}

func TestWriterFlushesOnBatchSize(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	w := newTestWriter(store, pub, 2)

	queue := make(chan types.ParsedEvent, 4)
	queue <- types.NewTransactionEvent(types.TransactionEvent{Signature: "a", Accounts: []string{"acc1"}})
	queue <- types.NewTransactionEvent(types.TransactionEvent{Signature: "b", Accounts: []string{"acc2"}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx, queue)
		close(done)
	}()

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.txs) == 2
	}, time.Second, 5*time.Millisecond)

	require.Equal(t, 2, pub.count())
	cancel()
	<-done
}

func TestWriterFlushesOnTimerWithPartialBatch(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	w := newTestWriter(store, pub, 100)

	queue := make(chan types.ParsedEvent, 1)
	queue <- types.NewTransactionEvent(types.TransactionEvent{Signature: "solo", Accounts: []string{"acc1"}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx, queue)
		close(done)
	}()

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.txs) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func TestWriterFlushesPartialBatchOnQueueClose(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	w := newTestWriter(store, pub, 100)

	queue := make(chan types.ParsedEvent, 1)
	queue <- types.NewTransactionEvent(types.TransactionEvent{Signature: "last", Accounts: []string{"acc1"}})
	close(queue)

	done := make(chan struct{})
	go func() {
		w.Run(context.Background(), queue)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("writer did not exit after queue close")
	}

	require.Len(t, store.txs, 1)
}

func TestWriterAbandonsSubBatchOnFirstFailure(t *testing.T) {
	store := &fakeStore{fail: true}
	pub := &fakePublisher{}
	w := newTestWriter(store, pub, 2)

	queue := make(chan types.ParsedEvent, 2)
	queue <- types.NewTransactionEvent(types.TransactionEvent{Signature: "a"})
	queue <- types.NewTransactionEvent(types.TransactionEvent{Signature: "b"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx, queue)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 0, pub.count())

	// Only the first row is attempted, so exactly one db error is counted.
	mfs, err := w.metrics.Registry.Gather()
	require.NoError(t, err)
	dbErrors := -1.0
	for _, mf := range mfs {
		if mf.GetName() == "solindexer_db_errors_total" {
			dbErrors = mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	require.Equal(t, 1.0, dbErrors)
	cancel()
	<-done
}

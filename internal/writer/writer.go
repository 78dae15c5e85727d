// Package writer batches ParsedEvent items, persists them to the relational
// store, and fans out pub/sub notifications.
package writer

import (
	"context"
	"encoding/json"
	"time"

	gometrics "github.com/rcrowley/go-metrics"

	"github.com/amitesh0303/solana-indexer/internal/log"
	"github.com/amitesh0303/solana-indexer/internal/metrics"
	"github.com/amitesh0303/solana-indexer/internal/notifier"
	"github.com/amitesh0303/solana-indexer/internal/types"
)

var logger = log.NewModuleLogger("writer")

// flushDurationGauge is a go-metrics gauge updated on every flush with the
// same latency (truncated to whole milliseconds) that is observed into the
// Prometheus histogram in internal/metrics; it lives in go-metrics' default
// registry and is not exported through Prometheus.
var flushDurationGauge = gometrics.NewRegisteredGauge("solindexer.writer.last_flush_ms", gometrics.DefaultRegistry)

const (
	// DefaultBatchSize is the default write batch size.
	DefaultBatchSize = 100
	// FlushInterval is the fixed upper bound on how long a partial batch
	// may sit before being flushed.
	FlushInterval = 100 * time.Millisecond
)

// RowStore is the persistence collaborator the Writer depends on. It is
// satisfied by *internal/store.Store; tests supply an in-memory fake.
type RowStore interface {
	UpsertTransaction(ctx context.Context, tx types.TransactionEvent) error
	UpsertTokenTransfer(ctx context.Context, t types.TokenTransferEvent) error
	UpsertAccountState(ctx context.Context, a types.AccountUpdate) error
	UpsertBlock(ctx context.Context, b types.BlockUpdate) error
}

// Publisher is the pub/sub collaborator the Writer depends on. It is
// satisfied by *internal/notifier.Notifier; tests supply an in-memory fake.
type Publisher interface {
	Publish(channel string, payload []byte) error
}

// Writer drains a ParsedEvent queue, batching by size and time, and
// persists+publishes each batch.
type Writer struct {
	store     RowStore
	publisher Publisher
	metrics   *metrics.Metrics

	batchSize     int
	flushInterval time.Duration
}

// New builds a Writer. batchSize defaults to DefaultBatchSize when <= 0.
func New(store RowStore, publisher Publisher, m *metrics.Metrics, batchSize int) *Writer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Writer{
		store:         store,
		publisher:     publisher,
		metrics:       m,
		batchSize:     batchSize,
		flushInterval: FlushInterval,
	}
}

// Run drains queue until it closes (or ctx is cancelled), batching events
// by size (batchSize) or time (flushInterval), whichever comes first. On
// queue close, any partial batch is flushed before Run returns.
func (w *Writer) Run(ctx context.Context, queue <-chan types.ParsedEvent) {
	batch := make([]types.ParsedEvent, 0, w.batchSize)
	timer := time.NewTimer(w.flushInterval)
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-queue:
			if !ok {
				if len(batch) > 0 {
					w.flush(context.Background(), batch)
				}
				logger.Info("queue closed; writer exiting")
				return
			}
			batch = append(batch, ev)
			if len(batch) >= w.batchSize {
				w.flush(ctx, batch)
				batch = batch[:0]
				resetTimer(timer, w.flushInterval)
			}
		case <-timer.C:
			if len(batch) > 0 {
				w.flush(ctx, batch)
				batch = batch[:0]
			}
			timer.Reset(w.flushInterval)
		case <-ctx.Done():
			if len(batch) > 0 {
				w.flush(context.Background(), batch)
			}
			return
		}
	}
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}

// flush partitions a batch by event kind and writes each non-empty
// sub-batch. Swap and NFT events are recognized but not persisted.
func (w *Writer) flush(ctx context.Context, batch []types.ParsedEvent) {
	start := time.Now()

	var (
		txs       []types.TransactionEvent
		transfers []types.TokenTransferEvent
		accounts  []types.AccountUpdate
		blocks    []types.BlockUpdate
	)
	for _, ev := range batch {
		switch ev.Kind {
		case types.EventKindTransaction:
			txs = append(txs, *ev.Transaction)
		case types.EventKindTokenTransfer:
			transfers = append(transfers, *ev.TokenTransfer)
		case types.EventKindAccountUpdate:
			accounts = append(accounts, *ev.AccountUpdate)
		case types.EventKindBlock:
			blocks = append(blocks, *ev.Block)
		case types.EventKindSwap, types.EventKindNftMint, types.EventKindNftTransfer:
			// Recognized but not persisted.
		}
	}

	if len(txs) > 0 {
		w.flushTransactions(ctx, txs)
	}
	if len(transfers) > 0 {
		w.flushTokenTransfers(ctx, transfers)
	}
	if len(accounts) > 0 {
		w.flushAccountStates(ctx, accounts)
	}
	if len(blocks) > 0 {
		w.flushBlocks(ctx, blocks)
	}

	elapsed := time.Since(start)
	ms := float64(elapsed.Microseconds()) / 1000.0
	w.metrics.DBWriteLatencyMs.Observe(ms)
	flushDurationGauge.Update(int64(ms))
}

func (w *Writer) flushTransactions(ctx context.Context, txs []types.TransactionEvent) {
	for _, tx := range txs {
		if err := w.store.UpsertTransaction(ctx, tx); err != nil {
			logger.Error("failed to write transaction", "signature", tx.Signature, "err", err)
			w.metrics.DBErrors.Inc()
			return
		}
		w.publish(notifier.TxAccountChannel(tx.Accounts), tx)
	}
}

func (w *Writer) flushTokenTransfers(ctx context.Context, transfers []types.TokenTransferEvent) {
	for _, t := range transfers {
		if err := w.store.UpsertTokenTransfer(ctx, t); err != nil {
			logger.Error("failed to write token transfer", "signature", t.Signature, "err", err)
			w.metrics.DBErrors.Inc()
			return
		}
		w.publish(notifier.TokenTransferChannel(t.Mint), t)
	}
}

func (w *Writer) flushAccountStates(ctx context.Context, accounts []types.AccountUpdate) {
	for _, a := range accounts {
		if err := w.store.UpsertAccountState(ctx, a); err != nil {
			logger.Error("failed to write account state", "pubkey", a.Pubkey, "err", err)
			w.metrics.DBErrors.Inc()
			return
		}
		w.publish(notifier.AccountChannel(a.Pubkey), a)
	}
}

func (w *Writer) flushBlocks(ctx context.Context, blocks []types.BlockUpdate) {
	for _, b := range blocks {
		if err := w.store.UpsertBlock(ctx, b); err != nil {
			logger.Error("failed to write block", "slot", b.Slot, "err", err)
			w.metrics.DBErrors.Inc()
			return
		}
		// No pub/sub channel for blocks.
	}
}

// publish best-effort publishes payload as JSON to channel; failures are
// swallowed.
func (w *Writer) publish(channel string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Error("failed to marshal notification payload", "channel", channel, "err", err)
		return
	}
	if err := w.publisher.Publish(channel, data); err != nil {
		logger.Debug("publish failed, swallowing", "channel", channel, "err", err)
	}
}

// Package supervisor wires the Receiver, Parser Engine, and Writer
// together via a bounded queue and owns reconnection and shutdown: receive,
// classify, enqueue, with a fixed backoff then resubscribe on a transport
// error and immediate resubscribe on a clean stream end.
package supervisor

import (
	"context"
	"time"

	"github.com/amitesh0303/solana-indexer/internal/log"
	"github.com/amitesh0303/solana-indexer/internal/metrics"
	"github.com/amitesh0303/solana-indexer/internal/parser"
	"github.com/amitesh0303/solana-indexer/internal/receiver"
	"github.com/amitesh0303/solana-indexer/internal/types"
)

var logger = log.NewModuleLogger("supervisor")

// QueueCapacity is the bounded queue's capacity between supervisor and
// writer.
const QueueCapacity = 8192

// reconnectBackoff is how long the supervisor waits after a transport error
// before re-subscribing.
const reconnectBackoff = 5 * time.Second

// Subscriber is the Receiver capability the supervisor depends on.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan receiver.Result, error)
}

// Supervisor drives the receive loop: subscribe, classify each Update,
// enqueue resulting ParsedEvent values for the writer, and reconnect on
// transport failure.
type Supervisor struct {
	receiver Subscriber
	engine   *parser.Engine
	metrics  *metrics.Metrics
	queue    chan types.ParsedEvent
}

// New builds a Supervisor. queue is the bounded channel shared with the
// writer; callers construct it with QueueCapacity and pass the receiving
// half to their writer.
func New(sub Subscriber, engine *parser.Engine, m *metrics.Metrics, queue chan types.ParsedEvent) *Supervisor {
	return &Supervisor{receiver: sub, engine: engine, metrics: m, queue: queue}
}

// Run subscribes and drives the classify-enqueue loop until ctx is
// cancelled. It owns reconnection: a transport error triggers a 5s
// backoff then re-subscribe; end-of-stream triggers an immediate
// re-subscribe. Run closes the queue before returning so the writer can
// drain its partial batch and exit.
func (s *Supervisor) Run(ctx context.Context) error {
	defer close(s.queue)

	for {
		if ctx.Err() != nil {
			return nil
		}

		stream, err := s.receiver.Subscribe(ctx)
		if err != nil {
			logger.Error("failed to subscribe, retrying", "err", err)
			if !sleepOrDone(ctx, reconnectBackoff) {
				return nil
			}
			continue
		}
		logger.Info("subscribed to upstream firehose")

		if reconnect := s.drain(ctx, stream); !reconnect {
			return nil
		}
	}
}

// drain consumes stream until it closes or ctx is cancelled, returning
// whether the caller should re-subscribe (true) or stop entirely (false).
func (s *Supervisor) drain(ctx context.Context, stream <-chan receiver.Result) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case res, ok := <-stream:
			if !ok {
				logger.Warn("upstream stream ended; resubscribing")
				return true
			}
			if res.Err != nil {
				s.metrics.StreamErrors.Inc()
				logger.Warn("upstream stream error, resubscribing", "err", res.Err)
				return sleepOrDone(ctx, reconnectBackoff)
			}
			if !s.classify(ctx, res.Update) {
				return false
			}
		}
	}
}

// classify routes one Update to the parser engine (for transactions) and
// enqueues the resulting events, returning false if ctx was cancelled
// mid-enqueue.
func (s *Supervisor) classify(ctx context.Context, u types.Update) bool {
	s.metrics.UpdatesReceived.Inc()

	switch u.Kind {
	case types.UpdateKindTransaction:
		events := s.engine.Parse(u.Transaction)
		txEvent := types.NewTransactionEvent(types.TransactionEvent{
			Signature:    u.Transaction.Signature,
			Slot:         u.Transaction.Slot,
			BlockTime:    u.Transaction.BlockTime,
			Success:      u.Transaction.Success,
			Fee:          u.Transaction.Fee,
			ComputeUnits: u.Transaction.ComputeUnits,
			Accounts:     u.Transaction.Accounts,
			LogMessages:  u.Transaction.LogMessages,
		})
		all := append([]types.ParsedEvent{txEvent}, events...)
		for _, ev := range all {
			if !s.enqueue(ctx, ev) {
				return false
			}
		}
		s.metrics.TransactionsProcessed.Inc()

	case types.UpdateKindAccount:
		if !s.enqueue(ctx, types.NewAccountUpdateEvent(*u.Account)) {
			return false
		}
		s.metrics.AccountsProcessed.Inc()

	case types.UpdateKindBlock:
		s.metrics.IndexerLagSlots.Set(float64(u.Block.Lag()))
		if !s.enqueue(ctx, types.NewBlockEvent(*u.Block)) {
			return false
		}
		s.metrics.BlocksProcessed.Inc()
	}
	return true
}

// enqueue blocks until the queue accepts ev or ctx is cancelled. The queue
// is never closed while enqueue runs: Run is its sole closer and only
// closes it after the receive loop returns.
func (s *Supervisor) enqueue(ctx context.Context, ev types.ParsedEvent) bool {
	select {
	case s.queue <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// Command solana-indexer is the entrypoint that wires configuration,
// logging, metrics, the relational store, the pub/sub notifier, the
// receiver, the parser engine, the writer, and the supervisor into a
// running pipeline, then waits for SIGINT/SIGTERM to shut down cleanly.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/amitesh0303/solana-indexer/internal/config"
	"github.com/amitesh0303/solana-indexer/internal/httpserver"
	"github.com/amitesh0303/solana-indexer/internal/log"
	"github.com/amitesh0303/solana-indexer/internal/metrics"
	"github.com/amitesh0303/solana-indexer/internal/notifier"
	"github.com/amitesh0303/solana-indexer/internal/parser"
	"github.com/amitesh0303/solana-indexer/internal/parser/jupiter"
	"github.com/amitesh0303/solana-indexer/internal/parser/nft"
	"github.com/amitesh0303/solana-indexer/internal/parser/raydium"
	"github.com/amitesh0303/solana-indexer/internal/parser/spltoken"
	"github.com/amitesh0303/solana-indexer/internal/receiver"
	"github.com/amitesh0303/solana-indexer/internal/store"
	"github.com/amitesh0303/solana-indexer/internal/supervisor"
	"github.com/amitesh0303/solana-indexer/internal/types"
	"github.com/amitesh0303/solana-indexer/internal/writer"
)

var logger = log.NewModuleLogger("main")

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		logger.Crit("invalid configuration", "err", err)
	}
	logger.Info("starting solana-indexer", "grpc_endpoint", cfg.GRPCEndpoint)

	m := metrics.New()

	db, err := store.Open(cfg.DatabaseURL, cfg.DBPoolSize)
	if err != nil {
		logger.Crit("failed to open database", "err", err)
	}
	defer db.Close()
	logger.Info("database pool ready", "pool_size", cfg.DBPoolSize)

	pub, err := notifier.Open(cfg.RedisURL)
	if err != nil {
		logger.Crit("failed to open redis connection", "err", err)
	}
	defer pub.Close()
	logger.Info("redis connection ready")

	engine := parser.NewEngine()
	engine.Register(spltoken.New())
	engine.Register(nft.New())
	engine.Register(jupiter.New())
	engine.Register(raydium.New())

	recv := receiver.New(cfg.GRPCEndpoint, cfg.GRPCToken)

	queue := make(chan types.ParsedEvent, supervisor.QueueCapacity)
	w := writer.New(db, pub, m, cfg.WriteBatchSize)
	sup := supervisor.New(recv, engine, m, queue)

	httpSrv := httpserver.New(cfg.MetricsPort, m.Registry)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 3)
	go func() { errCh <- httpSrv.Run(ctx) }()
	go func() { w.Run(ctx, queue); errCh <- nil }()
	go func() { errCh <- sup.Run(ctx) }()

	<-ctx.Done()
	logger.Info("shutdown signal received, draining pipeline")

	for i := 0; i < cap(errCh); i++ {
		if err := <-errCh; err != nil {
			logger.Error("task exited with error", "err", err)
		}
	}
	logger.Info("shutdown complete")
}

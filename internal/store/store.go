// Package store persists individual ParsedEvent rows to the relational
// store using "$1,$2" placeholders and "ON CONFLICT" clauses (DO NOTHING,
// or DO UPDATE for account states).
// Methods write one row at a time so the writer can publish a notification
// after each successful write and abandon the remainder of a sub-batch on
// the first failure.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/amitesh0303/solana-indexer/internal/types"
)

// Store writes the four persisted tables: transactions, token transfers,
// account states, and blocks.
type Store struct {
	db *sql.DB
}

// Open connects to the relational store and applies the configured pool
// size.
func Open(databaseURL string, poolSize int) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	db.SetMaxOpenConns(poolSize)
	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping database")
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

const insertTransactionSQL = `
INSERT INTO transactions (signature, slot, block_time, success, fee, compute_units, accounts, log_messages)
VALUES ($1, $2, to_timestamp($3), $4, $5, $6, $7, $8)
ON CONFLICT (signature) DO NOTHING
`

// UpsertTransaction writes one transactions row. Conflict policy: do
// nothing — earliest observation wins.
func (s *Store) UpsertTransaction(ctx context.Context, tx types.TransactionEvent) error {
	_, err := s.db.ExecContext(ctx, insertTransactionSQL,
		tx.Signature, int64(tx.Slot), float64(tx.BlockTime), tx.Success,
		int64(tx.Fee), int64(tx.ComputeUnits), pq.Array(tx.Accounts), pq.Array(tx.LogMessages))
	if err != nil {
		return errors.Wrapf(err, "insert transaction %s", tx.Signature)
	}
	return nil
}

const insertTokenTransferSQL = `
INSERT INTO token_transfers (signature, block_time, mint, source, destination, amount, decimals)
VALUES ($1, to_timestamp($2), $3, $4, $5, $6, $7)
ON CONFLICT DO NOTHING
`

// UpsertTokenTransfer writes one token_transfers row. The table has no
// unique constraint guarantee; duplicates are tolerated.
func (s *Store) UpsertTokenTransfer(ctx context.Context, t types.TokenTransferEvent) error {
	_, err := s.db.ExecContext(ctx, insertTokenTransferSQL,
		t.Signature, float64(t.BlockTime), t.Mint, t.Source, t.Destination,
		int64(t.Amount), int16(t.Decimals))
	if err != nil {
		return errors.Wrapf(err, "insert token transfer %s", t.Signature)
	}
	return nil
}

const upsertAccountStateSQL = `
INSERT INTO account_states (pubkey, slot, owner, lamports, executable, rent_epoch, data)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (pubkey, slot) DO UPDATE
SET owner = EXCLUDED.owner, lamports = EXCLUDED.lamports,
    executable = EXCLUDED.executable, rent_epoch = EXCLUDED.rent_epoch,
    data = EXCLUDED.data
`

// UpsertAccountState writes one account_states row, keyed on (pubkey,
// slot); on conflict it replaces the mutable account fields.
func (s *Store) UpsertAccountState(ctx context.Context, a types.AccountUpdate) error {
	_, err := s.db.ExecContext(ctx, upsertAccountStateSQL,
		a.Pubkey, int64(a.Slot), a.Owner, int64(a.Lamports), a.Executable,
		int64(a.RentEpoch), a.Data)
	if err != nil {
		return errors.Wrapf(err, "upsert account state %s", a.Pubkey)
	}
	return nil
}

const insertBlockSQL = `
INSERT INTO blocks (slot, parent_slot, block_time, block_height, leader, indexed_at)
VALUES ($1, $2, to_timestamp($3), $4, $5, $6)
ON CONFLICT (slot) DO NOTHING
`

// UpsertBlock writes one blocks row. Conflict policy: do nothing.
func (s *Store) UpsertBlock(ctx context.Context, b types.BlockUpdate) error {
	_, err := s.db.ExecContext(ctx, insertBlockSQL,
		int64(b.Slot), int64(b.ParentSlot), float64(b.BlockTime), int64(b.BlockHeight), b.Leader, time.Now().UTC())
	if err != nil {
		return errors.Wrapf(err, "insert block %d", b.Slot)
	}
	return nil
}

// Package store persists transactions and operations in Postgres. It is a
// cache over immutable ledger history: every write is an ignore-on-conflict
// insert, so concurrent fills of the same key cannot corrupt state.
package store

import (
	"context"
	"errors"

	"github.com/daccred/lumenview.attest.so/models"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("store: not found")

// TransactionStore is the persistence dependency of the cache service.
type TransactionStore interface {
	// ListBySourceAccount returns the cached transactions for an account,
	// newest first, capped at limit.
	ListBySourceAccount(ctx context.Context, sourceAccount string, limit int) ([]models.Transaction, error)

	// GetTransaction returns a transaction by id with its operations
	// eagerly loaded in upstream order. Returns ErrNotFound when absent.
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)

	// UpsertTransactions inserts the given rows, silently skipping any
	// whose id already exists.
	UpsertTransactions(ctx context.Context, txs []models.Transaction) error

	// UpsertOperations inserts the given rows, silently skipping any whose
	// id already exists.
	UpsertOperations(ctx context.Context, ops []models.Operation) error
}

// Package handlers holds the read-through cache service backing the viewer:
// store first, Horizon on miss, ignore-on-conflict fill, normalized output.
package handlers

import (
	"context"
	"errors"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/daccred/lumenview.attest.so/models"
	"github.com/daccred/lumenview.attest.so/store"
)

// DefaultTransactionLimit caps list and operation fetches, matching the
// Horizon page-size ceiling.
const DefaultTransactionLimit = 200

// HorizonClient is the remote collaborator of the cache service.
type HorizonClient interface {
	Account(ctx context.Context, publicKey string) (*models.AccountSnapshot, error)
	Transaction(ctx context.Context, id string) (*models.Transaction, error)
	TransactionOperations(ctx context.Context, id string, limit int) ([]models.Operation, error)
	AccountTransactions(ctx context.Context, publicKey string, limit int) ([]models.Transaction, error)
}

// Config holds the cache service configuration.
type Config struct {
	// TransactionLimit caps list queries; zero means DefaultTransactionLimit.
	TransactionLimit int
	// RefreshInterval is how long a warm transaction list is served without
	// consulting Horizon again. Zero keeps warm lists indefinitely.
	RefreshInterval time.Duration
}

// Explorer serves the three viewer queries against the store and Horizon.
// The store is shared, externally-synchronized state: no lock is held across
// an I/O boundary, and concurrent fills of the same key are resolved by the
// store's ignore-on-conflict writes.
type Explorer struct {
	store   store.TransactionStore
	horizon HorizonClient
	limit   int
	refresh *gocache.Cache
	logger  *logrus.Entry

	mu    sync.Mutex
	stats models.Stats
}

func NewExplorer(cfg Config, st store.TransactionStore, hz HorizonClient, logger *logrus.Entry) *Explorer {
	limit := cfg.TransactionLimit
	if limit <= 0 {
		limit = DefaultTransactionLimit
	}
	var refresh *gocache.Cache
	if cfg.RefreshInterval > 0 {
		refresh = gocache.New(cfg.RefreshInterval, 2*cfg.RefreshInterval)
	}
	return &Explorer{
		store:   st,
		horizon: hz,
		limit:   limit,
		refresh: refresh,
		logger:  logger,
		stats:   models.Stats{StartTime: time.Now()},
	}
}

// GetAccount fetches the live account snapshot. Balances mutate continuously,
// so this never touches the store.
func (e *Explorer) GetAccount(ctx context.Context, publicKey string) (*models.AccountSnapshot, error) {
	e.incrementUpstreamCalls(1)
	snapshot, err := e.horizon.Account(ctx, publicKey)
	if err != nil {
		return nil, upstreamErr(err)
	}
	return snapshot, nil
}

// ListTransactions returns the account's transaction history, newest first
// on the warm path, upstream order on a fill.
func (e *Explorer) ListTransactions(ctx context.Context, publicKey string) ([]models.Transaction, error) {
	cached, err := e.store.ListBySourceAccount(ctx, publicKey, e.limit)
	if err != nil {
		e.incrementStoreErrors()
		return nil, &StoreError{Err: err}
	}
	if len(cached) > 0 && !e.refreshDue(publicKey) {
		e.incrementCacheHits()
		e.markServed(publicKey)
		return cached, nil
	}

	e.incrementCacheMisses()
	e.incrementUpstreamCalls(1)
	fetched, err := e.horizon.AccountTransactions(ctx, publicKey, e.limit)
	if err != nil {
		if len(cached) > 0 {
			// Refresh failed but the stale rows are still servable.
			e.logger.WithError(err).WithField("account", publicKey).
				Warn("refresh fetch failed, serving cached transactions")
			return cached, nil
		}
		return nil, upstreamErr(err)
	}

	// A failed cache fill must never fail a successful upstream read.
	if err := e.store.UpsertTransactions(ctx, fetched); err != nil {
		e.incrementStoreErrors()
		e.logger.WithError(err).WithField("account", publicKey).
			Warn("failed to cache transactions")
	}
	e.markServed(publicKey)
	return fetched, nil
}

// GetTransactionDetail returns a transaction with its operations. A cached
// transaction with zero operations is a partial write from an earlier fill
// and is treated as a miss.
func (e *Explorer) GetTransactionDetail(ctx context.Context, id string) (*models.Transaction, error) {
	cached, err := e.store.GetTransaction(ctx, id)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		e.incrementStoreErrors()
		return nil, &StoreError{Err: err}
	}
	if cached != nil && len(cached.Operations) > 0 {
		e.incrementCacheHits()
		return cached, nil
	}

	e.incrementCacheMisses()
	e.incrementUpstreamCalls(2)

	var (
		tx  *models.Transaction
		ops []models.Operation
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tx, err = e.horizon.Transaction(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		ops, err = e.horizon.TransactionOperations(gctx, id, e.limit)
		return err
	})
	if err := g.Wait(); err != nil {
		if cached != nil {
			e.logger.WithError(err).WithField("id", id).
				Warn("upstream fetch failed, serving partial cached transaction")
			return cached, nil
		}
		return nil, upstreamErr(err)
	}

	tx.Operations = ops
	if err := e.store.UpsertTransactions(ctx, []models.Transaction{*tx}); err != nil {
		e.incrementStoreErrors()
		e.logger.WithError(err).WithField("id", id).Warn("failed to cache transaction")
	} else if err := e.store.UpsertOperations(ctx, ops); err != nil {
		e.incrementStoreErrors()
		e.logger.WithError(err).WithField("id", id).Warn("failed to cache operations")
	}
	return tx, nil
}

// Stats returns a snapshot of the service counters.
func (e *Explorer) Stats() models.Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	stats := e.stats
	stats.LastUpdateTime = time.Now()
	return stats
}

// refreshDue reports whether a warm list for the account should be refetched
// from Horizon. With no refresh interval configured, warm lists never expire.
func (e *Explorer) refreshDue(publicKey string) bool {
	if e.refresh == nil {
		return false
	}
	_, fresh := e.refresh.Get(publicKey)
	return !fresh
}

func (e *Explorer) markServed(publicKey string) {
	if e.refresh != nil {
		e.refresh.SetDefault(publicKey, time.Now())
	}
}

func (e *Explorer) incrementCacheHits() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stats.CacheHits++
}

func (e *Explorer) incrementCacheMisses() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stats.CacheMisses++
}

func (e *Explorer) incrementUpstreamCalls(count int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stats.UpstreamCalls += count
}

func (e *Explorer) incrementStoreErrors() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stats.StoreErrors++
}

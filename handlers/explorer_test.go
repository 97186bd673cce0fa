package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daccred/lumenview.attest.so/horizon"
	"github.com/daccred/lumenview.attest.so/models"
	"github.com/daccred/lumenview.attest.so/store"
)

const testAccount = "GCLWGQPMKXQSPF776IU33AH4PZNOOWNAWGGKVTBQMIC5IMKUNP3E6NVU"

// fakeStore is an in-memory TransactionStore with upsert-ignore semantics.
type fakeStore struct {
	mu       sync.Mutex
	txs      map[string]models.Transaction
	ops      map[string][]models.Operation
	reads    int
	writeErr error
	readErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		txs: make(map[string]models.Transaction),
		ops: make(map[string][]models.Operation),
	}
}

func (f *fakeStore) ListBySourceAccount(_ context.Context, sourceAccount string, limit int) ([]models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.readErr != nil {
		return nil, f.readErr
	}
	var txs []models.Transaction
	for _, tx := range f.txs {
		if tx.SourceAccount == sourceAccount {
			txs = append(txs, tx)
		}
	}
	sort.Slice(txs, func(i, j int) bool { return txs[i].Timestamp.After(txs[j].Timestamp) })
	if len(txs) > limit {
		txs = txs[:limit]
	}
	return txs, nil
}

func (f *fakeStore) GetTransaction(_ context.Context, id string) (*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.readErr != nil {
		return nil, f.readErr
	}
	tx, ok := f.txs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	tx.Operations = append([]models.Operation(nil), f.ops[id]...)
	return &tx, nil
}

func (f *fakeStore) UpsertTransactions(_ context.Context, txs []models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	for _, tx := range txs {
		tx.Operations = nil
		if _, exists := f.txs[tx.ID]; !exists {
			f.txs[tx.ID] = tx
		}
	}
	return nil
}

func (f *fakeStore) UpsertOperations(_ context.Context, ops []models.Operation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	for _, op := range ops {
		existing := f.ops[op.TransactionID]
		duplicate := false
		for _, e := range existing {
			if e.ID == op.ID {
				duplicate = true
				break
			}
		}
		if !duplicate {
			f.ops[op.TransactionID] = append(existing, op)
		}
	}
	return nil
}

// countingHorizon serves canned Horizon responses and counts requests.
type countingHorizon struct {
	mu       sync.Mutex
	requests map[string]int
	fail     bool
}

func (h *countingHorizon) count(path string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.requests[path]
}

func (h *countingHorizon) total() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	total := 0
	for _, n := range h.requests {
		total += n
	}
	return total
}

func (h *countingHorizon) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.mu.Lock()
		h.requests[r.URL.Path]++
		failing := h.fail
		h.mu.Unlock()

		if failing {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}

		switch {
		case r.URL.Path == "/accounts/"+testAccount:
			fmt.Fprint(w, `{"account_id": "`+testAccount+`", "balances": [{"asset_type": "native", "balance": "100.0"}]}`)
		case r.URL.Path == "/accounts/"+testAccount+"/transactions":
			fmt.Fprint(w, `{"_embedded": {"records": [
				{"id": "tx2", "source_account": "`+testAccount+`", "ledger": 2, "created_at": "2024-03-02T10:00:00Z", "fee_charged": "200", "successful": true},
				{"id": "tx1", "source_account": "`+testAccount+`", "ledger": 1, "created_at": "2024-03-01T10:00:00Z", "fee_charged": "100", "successful": true}
			]}}`)
		case r.URL.Path == "/transactions/tx1":
			fmt.Fprint(w, `{"id": "tx1", "source_account": "`+testAccount+`", "ledger": 1, "created_at": "2024-03-01T10:00:00Z", "fee_charged": "100", "successful": true}`)
		case r.URL.Path == "/transactions/tx1/operations":
			fmt.Fprint(w, `{"_embedded": {"records": [
				{"id": "op1", "type": "payment", "from": "`+testAccount+`", "to": "GDEST", "amount": "10.0000000", "asset_type": "native"}
			]}}`)
		default:
			http.Error(w, `{"status": 404}`, http.StatusNotFound)
		}
	})
}

func newTestExplorer(t *testing.T, cfg Config, st store.TransactionStore) (*Explorer, *countingHorizon) {
	t.Helper()
	remote := &countingHorizon{requests: make(map[string]int)}
	srv := httptest.NewServer(remote.handler())
	t.Cleanup(srv.Close)

	client := horizon.NewClient(horizon.Options{
		BaseURL: srv.URL,
		Timeout: 2 * time.Second,
	}, logrus.NewEntry(logrus.New()))

	return NewExplorer(cfg, st, client, logrus.NewEntry(logrus.New())), remote
}

func TestGetAccount(t *testing.T) {
	st := newFakeStore()
	explorer, remote := newTestExplorer(t, Config{}, st)

	snapshot, err := explorer.GetAccount(context.Background(), testAccount)
	require.NoError(t, err)

	require.Len(t, snapshot.Balances, 1)
	assert.Equal(t, "native", snapshot.Balances[0].Asset)
	assert.Equal(t, "100.0", snapshot.Balances[0].Balance)
	assert.Equal(t, 1, remote.count("/accounts/"+testAccount))

	// Balances are live data: no store interaction at all.
	assert.Zero(t, st.reads)
	assert.Empty(t, st.txs)
}

func TestGetAccountUpstreamFailure(t *testing.T) {
	explorer, remote := newTestExplorer(t, Config{}, newFakeStore())
	remote.fail = true

	_, err := explorer.GetAccount(context.Background(), testAccount)
	require.Error(t, err)

	var upstream *UpstreamError
	assert.True(t, errors.As(err, &upstream))
}

func TestListTransactionsCacheHit(t *testing.T) {
	st := newFakeStore()
	st.txs["tx1"] = models.Transaction{ID: "tx1", SourceAccount: testAccount, Timestamp: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	st.txs["tx2"] = models.Transaction{ID: "tx2", SourceAccount: testAccount, Timestamp: time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)}

	explorer, remote := newTestExplorer(t, Config{}, st)

	txs, err := explorer.ListTransactions(context.Background(), testAccount)
	require.NoError(t, err)
	require.Len(t, txs, 2)

	// Warm cache short-circuits: no remote call, newest first.
	assert.Zero(t, remote.total())
	assert.Equal(t, "tx2", txs[0].ID)
	assert.Equal(t, "tx1", txs[1].ID)
	assert.Equal(t, int64(1), explorer.Stats().CacheHits)
}

func TestListTransactionsMissThenHit(t *testing.T) {
	st := newFakeStore()
	explorer, remote := newTestExplorer(t, Config{}, st)

	feedPath := "/accounts/" + testAccount + "/transactions"

	txs, err := explorer.ListTransactions(context.Background(), testAccount)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, 1, remote.count(feedPath))
	assert.Len(t, st.txs, 2)

	// Second call is served from the now-warm store.
	txs, err = explorer.ListTransactions(context.Background(), testAccount)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, 1, remote.count(feedPath))

	stats := explorer.Stats()
	assert.Equal(t, int64(1), stats.CacheMisses)
	assert.Equal(t, int64(1), stats.CacheHits)
}

func TestListTransactionsUpstreamFailure(t *testing.T) {
	st := newFakeStore()
	explorer, remote := newTestExplorer(t, Config{}, st)
	remote.fail = true

	_, err := explorer.ListTransactions(context.Background(), testAccount)
	require.Error(t, err)

	var upstream *UpstreamError
	assert.True(t, errors.As(err, &upstream))
	assert.Empty(t, st.txs)
}

func TestListTransactionsCacheFillFailureTolerated(t *testing.T) {
	st := newFakeStore()
	st.writeErr = errors.New("disk full")
	explorer, _ := newTestExplorer(t, Config{}, st)

	// A failed cache fill must not fail a successful upstream read.
	txs, err := explorer.ListTransactions(context.Background(), testAccount)
	require.NoError(t, err)
	assert.Len(t, txs, 2)
	assert.Equal(t, int64(1), explorer.Stats().StoreErrors)
}

func TestListTransactionsRefreshInterval(t *testing.T) {
	st := newFakeStore()
	explorer, remote := newTestExplorer(t, Config{RefreshInterval: 50 * time.Millisecond}, st)

	feedPath := "/accounts/" + testAccount + "/transactions"

	_, err := explorer.ListTransactions(context.Background(), testAccount)
	require.NoError(t, err)
	require.Equal(t, 1, remote.count(feedPath))

	// Inside the refresh window the warm store answers.
	_, err = explorer.ListTransactions(context.Background(), testAccount)
	require.NoError(t, err)
	assert.Equal(t, 1, remote.count(feedPath))

	// After the window lapses the next read refetches and merges.
	time.Sleep(80 * time.Millisecond)
	_, err = explorer.ListTransactions(context.Background(), testAccount)
	require.NoError(t, err)
	assert.Equal(t, 2, remote.count(feedPath))
	assert.Len(t, st.txs, 2)
}

func TestGetTransactionDetailCacheHit(t *testing.T) {
	st := newFakeStore()
	st.txs["tx1"] = models.Transaction{ID: "tx1", SourceAccount: testAccount}
	st.ops["tx1"] = []models.Operation{{ID: "op1", TransactionID: "tx1", Type: "payment"}}

	explorer, remote := newTestExplorer(t, Config{}, st)

	tx, err := explorer.GetTransactionDetail(context.Background(), "tx1")
	require.NoError(t, err)

	assert.Zero(t, remote.total())
	require.Len(t, tx.Operations, 1)
	assert.Equal(t, "op1", tx.Operations[0].ID)
}

func TestGetTransactionDetailPartialWriteRecovery(t *testing.T) {
	// A transaction cached without its operations is a partial write from an
	// earlier fill and must be treated as a miss.
	st := newFakeStore()
	st.txs["tx1"] = models.Transaction{ID: "tx1", SourceAccount: testAccount}

	explorer, remote := newTestExplorer(t, Config{}, st)

	tx, err := explorer.GetTransactionDetail(context.Background(), "tx1")
	require.NoError(t, err)

	assert.Equal(t, 1, remote.count("/transactions/tx1"))
	assert.Equal(t, 1, remote.count("/transactions/tx1/operations"))
	require.Len(t, tx.Operations, 1)
	assert.Equal(t, "op1", tx.Operations[0].ID)

	// The missing operations are now backfilled.
	assert.Len(t, st.ops["tx1"], 1)
}

func TestGetTransactionDetailMissFillsStore(t *testing.T) {
	st := newFakeStore()
	explorer, _ := newTestExplorer(t, Config{}, st)

	tx, err := explorer.GetTransactionDetail(context.Background(), "tx1")
	require.NoError(t, err)
	assert.Equal(t, "tx1", tx.ID)
	assert.Equal(t, testAccount, tx.SourceAccount)
	require.Len(t, tx.Operations, 1)

	assert.Contains(t, st.txs, "tx1")
	assert.Len(t, st.ops["tx1"], 1)

	// Re-running the fill with the same payload neither duplicates nor errors.
	require.NoError(t, st.UpsertTransactions(context.Background(), []models.Transaction{*tx}))
	require.NoError(t, st.UpsertOperations(context.Background(), tx.Operations))
	assert.Len(t, st.txs, 1)
	assert.Len(t, st.ops["tx1"], 1)
}

func TestGetTransactionDetailFallbackToPartialCache(t *testing.T) {
	st := newFakeStore()
	st.txs["tx1"] = models.Transaction{ID: "tx1", SourceAccount: testAccount, FeeCharged: "100"}

	explorer, remote := newTestExplorer(t, Config{}, st)
	remote.fail = true

	// Upstream is down but a stale partial record exists: degrade, not fail.
	tx, err := explorer.GetTransactionDetail(context.Background(), "tx1")
	require.NoError(t, err)
	assert.Equal(t, "tx1", tx.ID)
	assert.Empty(t, tx.Operations)
}

func TestGetTransactionDetailUpstreamFailureNoCache(t *testing.T) {
	st := newFakeStore()
	explorer, remote := newTestExplorer(t, Config{}, st)
	remote.fail = true

	_, err := explorer.GetTransactionDetail(context.Background(), "tx1")
	require.Error(t, err)

	var upstream *UpstreamError
	assert.True(t, errors.As(err, &upstream))
	assert.Empty(t, st.txs)
	assert.Empty(t, st.ops)
}

func TestGetTransactionDetailNotFound(t *testing.T) {
	explorer, _ := newTestExplorer(t, Config{}, newFakeStore())

	_, err := explorer.GetTransactionDetail(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreReadFailureSurfaces(t *testing.T) {
	st := newFakeStore()
	st.readErr = errors.New("connection reset")
	explorer, _ := newTestExplorer(t, Config{}, st)

	_, err := explorer.ListTransactions(context.Background(), testAccount)
	var storeErr *StoreError
	assert.True(t, errors.As(err, &storeErr))

	_, err = explorer.GetTransactionDetail(context.Background(), "tx1")
	assert.True(t, errors.As(err, &storeErr))
}

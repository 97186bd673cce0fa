package horizon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"

	"github.com/daccred/lumenview.attest.so/models"
)

// Error is a non-success response from Horizon.
type Error struct {
	Status int
	URL    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("horizon: %s returned %d", e.URL, e.Status)
}

// Options configures a Client.
type Options struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond int
	MaxRetries        uint64
}

// Client is a typed read-only client for a Horizon-style indexing API.
// Transient network failures and 5xx responses are retried with exponential
// backoff; any other non-success status is permanent.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    ratelimit.Limiter
	maxRetries uint64
	logger     *logrus.Entry
}

func NewClient(opts Options, logger *logrus.Entry) *Client {
	limiter := ratelimit.NewUnlimited()
	if opts.RequestsPerSecond > 0 {
		limiter = ratelimit.New(opts.RequestsPerSecond)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    opts.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		maxRetries: opts.MaxRetries,
		logger:     logger,
	}
}

// Account fetches the live account record for publicKey.
func (c *Client) Account(ctx context.Context, publicKey string) (*models.AccountSnapshot, error) {
	var rec accountRecord
	path := "/accounts/" + url.PathEscape(publicKey)
	if err := c.getJSON(ctx, path, &rec); err != nil {
		return nil, err
	}
	snapshot := &models.AccountSnapshot{
		AccountID: rec.AccountID,
		Sequence:  rec.Sequence,
		Balances:  make([]models.Balance, 0, len(rec.Balances)),
		FetchedAt: time.Now().UTC(),
	}
	for _, b := range rec.Balances {
		snapshot.Balances = append(snapshot.Balances, models.Balance{
			Asset:       b.AssetType,
			Balance:     b.Balance,
			AssetCode:   b.AssetCode,
			AssetIssuer: b.AssetIssuer,
		})
	}
	return snapshot, nil
}

// Transaction fetches a single transaction record by id.
func (c *Client) Transaction(ctx context.Context, id string) (*models.Transaction, error) {
	var rec transactionRecord
	path := "/transactions/" + url.PathEscape(id)
	if err := c.getJSON(ctx, path, &rec); err != nil {
		return nil, err
	}
	tx := rec.toModel()
	return &tx, nil
}

// TransactionOperations fetches the operations of a transaction, capped at
// limit, in upstream order.
func (c *Client) TransactionOperations(ctx context.Context, id string, limit int) ([]models.Operation, error) {
	var page operationsPage
	path := fmt.Sprintf("/transactions/%s/operations?limit=%d", url.PathEscape(id), limit)
	if err := c.getJSON(ctx, path, &page); err != nil {
		return nil, err
	}
	ops := make([]models.Operation, 0, len(page.Embedded.Records))
	for idx, rec := range page.Embedded.Records {
		ops = append(ops, rec.toModel(id, int32(idx)))
	}
	return ops, nil
}

// AccountTransactions fetches the account-scoped transaction feed, newest
// first, capped at limit.
func (c *Client) AccountTransactions(ctx context.Context, publicKey string, limit int) ([]models.Transaction, error) {
	var page transactionsPage
	path := fmt.Sprintf("/accounts/%s/transactions?limit=%d&order=desc&include_failed=true", url.PathEscape(publicKey), limit)
	if err := c.getJSON(ctx, path, &page); err != nil {
		return nil, err
	}
	txs := make([]models.Transaction, 0, len(page.Embedded.Records))
	for _, rec := range page.Embedded.Records {
		txs = append(txs, rec.toModel())
	}
	return txs, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	request := func() error {
		c.limiter.Take()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.WithError(err).WithField("path", path).Warn("horizon request failed")
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= http.StatusInternalServerError {
			c.logger.WithField("status", resp.StatusCode).WithField("path", path).Warn("horizon server error")
			return &Error{Status: resp.StatusCode, URL: req.URL.String()}
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(&Error{Status: resp.StatusCode, URL: req.URL.String()})
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("decoding %s: %w", req.URL.String(), err))
		}
		return nil
	}
	bo := backoff.WithMaxRetries(backoff.WithContext(backoff.NewExponentialBackOff(), ctx), c.maxRetries)
	return backoff.Retry(request, bo)
}

package models

import "time"

// Balance is one asset balance held by an account.
type Balance struct {
	Asset       string `json:"asset"`
	Balance     string `json:"balance"`
	AssetCode   string `json:"assetCode,omitempty"`
	AssetIssuer string `json:"assetIssuer,omitempty"`
}

// AccountSnapshot is the live state of an account as of query time.
// Balances mutate continuously, so snapshots are never persisted.
type AccountSnapshot struct {
	AccountID string    `json:"accountId"`
	Sequence  string    `json:"sequence,omitempty"`
	Balances  []Balance `json:"balances"`
	FetchedAt time.Time `json:"fetchedAt"`
}

package models

import "time"

// Transaction is a ledger-confirmed transaction keyed by its hash. Rows are
// immutable once stored; the cache only ever inserts.
type Transaction struct {
	ID            string      `json:"id"`
	SourceAccount string      `json:"sourceAccount"`
	Ledger        int32       `json:"ledger"`
	Timestamp     time.Time   `json:"timestamp"`
	FeeCharged    string      `json:"feeCharged"`
	Successful    bool        `json:"successful"`
	Memo          string      `json:"memo,omitempty"`
	MemoType      string      `json:"memoType,omitempty"`
	EnvelopeXdr   string      `json:"envelopeXdr,omitempty"`
	ResultXdr     string      `json:"resultXdr,omitempty"`
	Operations    []Operation `json:"operations,omitempty"`
}

package horizon

import (
	"time"

	"github.com/daccred/lumenview.attest.so/models"
)

// Wire shapes for Horizon responses. Every field Horizon exposes in
// snake_case is mapped explicitly onto the camelCase internal models.

type accountRecord struct {
	AccountID string          `json:"account_id"`
	Sequence  string          `json:"sequence"`
	Balances  []balanceRecord `json:"balances"`
}

type balanceRecord struct {
	AssetType   string `json:"asset_type"`
	Balance     string `json:"balance"`
	AssetCode   string `json:"asset_code"`
	AssetIssuer string `json:"asset_issuer"`
}

type transactionRecord struct {
	ID            string    `json:"id"`
	SourceAccount string    `json:"source_account"`
	Ledger        int32     `json:"ledger"`
	CreatedAt     time.Time `json:"created_at"`
	FeeCharged    string    `json:"fee_charged"`
	Successful    bool      `json:"successful"`
	Memo          string    `json:"memo"`
	MemoType      string    `json:"memo_type"`
	EnvelopeXdr   string    `json:"envelope_xdr"`
	ResultXdr     string    `json:"result_xdr"`
}

func (r transactionRecord) toModel() models.Transaction {
	return models.Transaction{
		ID:            r.ID,
		SourceAccount: r.SourceAccount,
		Ledger:        r.Ledger,
		Timestamp:     r.CreatedAt,
		FeeCharged:    r.FeeCharged,
		Successful:    r.Successful,
		Memo:          r.Memo,
		MemoType:      r.MemoType,
		EnvelopeXdr:   r.EnvelopeXdr,
		ResultXdr:     r.ResultXdr,
	}
}

type operationRecord struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	SourceAccount string `json:"source_account"`
	From          string `json:"from"`
	To            string `json:"to"`
	Amount        string `json:"amount"`
	AssetType     string `json:"asset_type"`
}

func (r operationRecord) toModel(transactionID string, index int32) models.Operation {
	return models.Operation{
		ID:            r.ID,
		TransactionID: transactionID,
		Index:         index,
		Type:          r.Type,
		SourceAccount: r.SourceAccount,
		From:          r.From,
		To:            r.To,
		Amount:        r.Amount,
		Asset:         r.AssetType,
	}
}

type operationsPage struct {
	Embedded struct {
		Records []operationRecord `json:"records"`
	} `json:"_embedded"`
}

type transactionsPage struct {
	Embedded struct {
		Records []transactionRecord `json:"records"`
	} `json:"_embedded"`
}

package models

// EnvelopeSummary is the decoded view of a transaction's envelope XDR.
type EnvelopeSummary struct {
	SourceAccount  string `json:"sourceAccount"`
	Fee            uint32 `json:"fee"`
	SequenceNumber int64  `json:"sequenceNumber"`
	OperationCount int    `json:"operationCount"`
	MemoType       string `json:"memoType,omitempty"`
	Memo           string `json:"memo,omitempty"`
}

// ResultSummary is the decoded view of a transaction's result XDR.
type ResultSummary struct {
	FeeCharged int64  `json:"feeCharged"`
	Code       string `json:"code"`
	Successful bool   `json:"successful"`
}

// TransactionPayloads bundles the decoded wire-format payloads served by the
// transaction-detail drill-down. Either side may be nil when the upstream
// record carried no XDR or it failed to decode.
type TransactionPayloads struct {
	Envelope *EnvelopeSummary `json:"envelope,omitempty"`
	Result   *ResultSummary   `json:"result,omitempty"`
}

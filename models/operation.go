package models

// Operation is one atomic action within a transaction. Index is the
// operation's position in the upstream response.
type Operation struct {
	ID            string `json:"id"`
	TransactionID string `json:"transactionId"`
	Index         int32  `json:"index"`
	Type          string `json:"type"`
	SourceAccount string `json:"sourceAccount,omitempty"`
	From          string `json:"from,omitempty"`
	To            string `json:"to,omitempty"`
	Amount        string `json:"amount,omitempty"`
	Asset         string `json:"asset,omitempty"`
}

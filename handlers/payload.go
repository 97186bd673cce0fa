package handlers

import (
	"fmt"

	"github.com/stellar/go/xdr"

	"github.com/daccred/lumenview.attest.so/models"
)

// DecodePayloads decodes a transaction's base64 XDR payloads into display
// summaries. Either side is omitted when absent or undecodable; a decode
// failure is logged, never surfaced, since the raw payloads are still served.
func (e *Explorer) DecodePayloads(tx *models.Transaction) *models.TransactionPayloads {
	payloads := &models.TransactionPayloads{}
	if tx.EnvelopeXdr != "" {
		envelope, err := decodeEnvelope(tx.EnvelopeXdr)
		if err != nil {
			e.logger.WithError(err).WithField("id", tx.ID).Debug("failed to decode envelope XDR")
		}
		payloads.Envelope = envelope
	}
	if tx.ResultXdr != "" {
		result, err := decodeResult(tx.ResultXdr)
		if err != nil {
			e.logger.WithError(err).WithField("id", tx.ID).Debug("failed to decode result XDR")
		}
		payloads.Result = result
	}
	if payloads.Envelope == nil && payloads.Result == nil {
		return nil
	}
	return payloads
}

func decodeEnvelope(envelopeXdr string) (*models.EnvelopeSummary, error) {
	var envelope xdr.TransactionEnvelope
	if err := xdr.SafeUnmarshalBase64(envelopeXdr, &envelope); err != nil {
		return nil, fmt.Errorf("unmarshaling envelope: %w", err)
	}

	summary := &models.EnvelopeSummary{
		SourceAccount:  envelope.SourceAccount().ToAccountId().Address(),
		Fee:            envelope.Fee(),
		SequenceNumber: envelope.SeqNum(),
		OperationCount: len(envelope.Operations()),
	}

	memo := envelope.Memo()
	switch memo.Type {
	case xdr.MemoTypeMemoText:
		summary.MemoType = "text"
		summary.Memo = string(memo.MustText())
	case xdr.MemoTypeMemoId:
		summary.MemoType = "id"
		summary.Memo = fmt.Sprintf("%d", memo.MustId())
	case xdr.MemoTypeMemoHash:
		summary.MemoType = "hash"
		summary.Memo = fmt.Sprintf("%x", memo.MustHash())
	case xdr.MemoTypeMemoReturn:
		summary.MemoType = "return"
		summary.Memo = fmt.Sprintf("%x", memo.MustRetHash())
	}
	return summary, nil
}

func decodeResult(resultXdr string) (*models.ResultSummary, error) {
	var result xdr.TransactionResult
	if err := xdr.SafeUnmarshalBase64(resultXdr, &result); err != nil {
		return nil, fmt.Errorf("unmarshaling result: %w", err)
	}
	return &models.ResultSummary{
		FeeCharged: int64(result.FeeCharged),
		Code:       result.Result.Code.String(),
		Successful: result.Successful(),
	}, nil
}

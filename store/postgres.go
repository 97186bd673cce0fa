package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/daccred/lumenview.attest.so/models"
)

// Postgres implements TransactionStore on a lib/pq connection pool.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) ListBySourceAccount(ctx context.Context, sourceAccount string, limit int) ([]models.Transaction, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, source_account, ledger, timestamp, fee_charged, successful,
		       memo, memo_type, envelope_xdr, result_xdr
		FROM transactions
		WHERE source_account = $1
		ORDER BY timestamp DESC
		LIMIT $2`, sourceAccount, limit)
	if err != nil {
		return nil, fmt.Errorf("listing transactions for %s: %w", sourceAccount, err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction row: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (p *Postgres) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT id, source_account, ledger, timestamp, fee_charged, successful,
		       memo, memo_type, envelope_xdr, result_xdr
		FROM transactions WHERE id = $1`, id)
	tx, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching transaction %s: %w", id, err)
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT id, transaction_id, idx, type, source_account, from_account,
		       to_account, amount, asset
		FROM operations
		WHERE transaction_id = $1
		ORDER BY idx`, id)
	if err != nil {
		return nil, fmt.Errorf("fetching operations for %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var op models.Operation
		var sourceAccount, from, to, amount, asset sql.NullString
		if err := rows.Scan(&op.ID, &op.TransactionID, &op.Index, &op.Type,
			&sourceAccount, &from, &to, &amount, &asset); err != nil {
			return nil, fmt.Errorf("scanning operation row: %w", err)
		}
		op.SourceAccount = sourceAccount.String
		op.From = from.String
		op.To = to.String
		op.Amount = amount.String
		op.Asset = asset.String
		tx.Operations = append(tx.Operations, op)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (p *Postgres) UpsertTransactions(ctx context.Context, txs []models.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	dbTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	for _, tx := range txs {
		if _, err := dbTx.ExecContext(ctx, `
			INSERT INTO transactions (id, source_account, ledger, timestamp,
				fee_charged, successful, memo, memo_type, envelope_xdr, result_xdr)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (id) DO NOTHING`,
			tx.ID, tx.SourceAccount, tx.Ledger, tx.Timestamp, tx.FeeCharged,
			tx.Successful, nullString(tx.Memo), nullString(tx.MemoType),
			nullString(tx.EnvelopeXdr), nullString(tx.ResultXdr)); err != nil {
			return fmt.Errorf("storing transaction %s: %w", tx.ID, err)
		}
	}
	return dbTx.Commit()
}

func (p *Postgres) UpsertOperations(ctx context.Context, ops []models.Operation) error {
	if len(ops) == 0 {
		return nil
	}
	dbTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	for _, op := range ops {
		if _, err := dbTx.ExecContext(ctx, `
			INSERT INTO operations (id, transaction_id, idx, type,
				source_account, from_account, to_account, amount, asset)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO NOTHING`,
			op.ID, op.TransactionID, op.Index, op.Type,
			nullString(op.SourceAccount), nullString(op.From),
			nullString(op.To), nullString(op.Amount), nullString(op.Asset)); err != nil {
			return fmt.Errorf("storing operation %s: %w", op.ID, err)
		}
	}
	return dbTx.Commit()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (models.Transaction, error) {
	var tx models.Transaction
	var memo, memoType, envelopeXdr, resultXdr sql.NullString
	err := row.Scan(&tx.ID, &tx.SourceAccount, &tx.Ledger, &tx.Timestamp,
		&tx.FeeCharged, &tx.Successful, &memo, &memoType, &envelopeXdr, &resultXdr)
	if err != nil {
		return tx, err
	}
	tx.Memo = memo.String
	tx.MemoType = memoType.String
	tx.EnvelopeXdr = envelopeXdr.String
	tx.ResultXdr = resultXdr.String
	return tx, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

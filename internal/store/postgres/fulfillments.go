package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FulfillmentLedger backs the at-most-once guarantee: the unique order_id
// column is the lock. Claiming is an insert; a duplicate submit loses the
// insert and must not issue a credit call.
type FulfillmentLedger struct {
	pool *pgxpool.Pool
}

func NewFulfillmentLedger(pool *pgxpool.Pool) *FulfillmentLedger {
	return &FulfillmentLedger{pool: pool}
}

// Claim records the intent to fulfill. Returns false when the order id was
// already claimed.
func (l *FulfillmentLedger) Claim(ctx context.Context, orderID string) (bool, error) {
	const q = `
		INSERT INTO fulfillments (order_id, status, created_at)
		VALUES ($1, 'claimed', now())
		ON CONFLICT (order_id) DO NOTHING`
	tag, err := l.pool.Exec(ctx, q, orderID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Finalize writes the fulfillment outcome and the purchase record's
// fulfillment fields in a single transaction, so a ledger row and its
// transaction row can never disagree.
func (l *FulfillmentLedger) Finalize(ctx context.Context, orderID string, fulfilled bool, transactionID, failure string) error {
	tx, err := l.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	status := "failed"
	if fulfilled {
		status = "completed"
	}

	const ledgerQ = `
		UPDATE fulfillments
		SET status=$2, transaction_id=NULLIF($3,''), failure=NULLIF($4,''), updated_at=now()
		WHERE order_id=$1`
	if _, err := tx.Exec(ctx, ledgerQ, orderID, status, transactionID, failure); err != nil {
		return err
	}

	const txQ = `
		UPDATE transactions
		SET fulfilled=$2, transaction_id=NULLIF($3,''), failure_reason=NULLIF($4,''), updated_at=now()
		WHERE order_id=$1`
	if _, err := tx.Exec(ctx, txQ, orderID, fulfilled, transactionID, failure); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

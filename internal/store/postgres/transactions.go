package postgres

import (
	"context"
	"errors"

	"advtopup/internal/domain/order"
	"advtopup/internal/store/repositories"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TransactionRepo persists purchase attempt records.
type TransactionRepo struct {
	pool *pgxpool.Pool
}

func NewTransactionRepo(pool *pgxpool.Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

func (r *TransactionRepo) Create(ctx context.Context, t *order.Transaction) error {
	const q = `
		INSERT INTO transactions
			(order_id, flow, country_code, operator_name, amount, currency,
			 recipient_hash, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id`
	return r.pool.QueryRow(ctx, q,
		t.OrderID, t.Flow, t.CountryCode, t.OperatorName, t.Amount, t.Currency,
		t.RecipientHash, t.Status, t.CreatedAt, t.UpdatedAt,
	).Scan(&t.ID)
}

func (r *TransactionRepo) UpdateStatus(ctx context.Context, orderID string, status order.Status, reason string) error {
	const q = `
		UPDATE transactions
		SET status=$2, failure_reason=$3, updated_at=now()
		WHERE order_id=$1`
	tag, err := r.pool.Exec(ctx, q, orderID, status, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *TransactionRepo) FindByOrderID(ctx context.Context, orderID string) (*order.Transaction, error) {
	const q = `
		SELECT id, order_id, flow, country_code, operator_name, amount, currency,
		       recipient_hash, status, COALESCE(transaction_id,''),
		       COALESCE(failure_reason,''), fulfilled, created_at, updated_at
		FROM transactions WHERE order_id=$1`
	t, err := scanTransaction(r.pool.QueryRow(ctx, q, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repositories.ErrNotFound
	}
	return t, err
}

func (r *TransactionRepo) ListRecent(ctx context.Context, limit, offset int) ([]*order.Transaction, error) {
	const q = `
		SELECT id, order_id, flow, country_code, operator_name, amount, currency,
		       recipient_hash, status, COALESCE(transaction_id,''),
		       COALESCE(failure_reason,''), fulfilled, created_at, updated_at
		FROM transactions
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*order.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*order.Transaction, error) {
	var t order.Transaction
	err := row.Scan(
		&t.ID, &t.OrderID, &t.Flow, &t.CountryCode, &t.OperatorName, &t.Amount,
		&t.Currency, &t.RecipientHash, &t.Status, &t.TransactionID,
		&t.FailureReason, &t.Fulfilled, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

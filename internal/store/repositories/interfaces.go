package repositories

import (
	"context"
	"errors"

	"advtopup/internal/domain/order"
	"advtopup/internal/domain/wizard"
)

// ErrNotFound is returned when a record or session does not exist.
var ErrNotFound = errors.New("not found")

// TransactionRepository persists purchase attempt records.
type TransactionRepository interface {
	Create(ctx context.Context, tx *order.Transaction) error
	UpdateStatus(ctx context.Context, orderID string, status order.Status, reason string) error
	FindByOrderID(ctx context.Context, orderID string) (*order.Transaction, error)
	ListRecent(ctx context.Context, limit, offset int) ([]*order.Transaction, error)
}

// FulfillmentLedger enforces at-most-once fulfillment per order id.
type FulfillmentLedger interface {
	// Claim records the intent to fulfill an order. It returns false when
	// the order was already claimed, in which case no credit call may be
	// made.
	Claim(ctx context.Context, orderID string) (bool, error)

	// Finalize records the fulfillment outcome and updates the purchase
	// record atomically.
	Finalize(ctx context.Context, orderID string, fulfilled bool, transactionID, failure string) error
}

// WizardStore holds transient wizard sessions.
type WizardStore interface {
	Save(ctx context.Context, s *wizard.State) error
	Load(ctx context.Context, id string) (*wizard.State, error)
	Delete(ctx context.Context, id string) error

	// AcquireLock claims the session's mutation lock in a single atomic
	// step. It returns false while another operation holds the lock;
	// callers treat that as the session being busy.
	AcquireLock(ctx context.Context, id string) (bool, error)
	ReleaseLock(ctx context.Context, id string) error
}

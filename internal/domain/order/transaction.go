package order

import (
	"fmt"
	"strings"
	"time"
)

// Transaction is the persisted record of one purchase attempt, from payment
// initiation through fulfillment. It backs the transaction history view and
// the order-status endpoint.
type Transaction struct {
	ID            int64     `json:"id"`
	OrderID       string    `json:"orderId"`
	Flow          string    `json:"flow"`
	CountryCode   string    `json:"countryCode"`
	OperatorName  string    `json:"operatorName"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	RecipientHash string    `json:"-"`
	Status        Status    `json:"status"`
	TransactionID string    `json:"transactionId,omitempty"`
	FailureReason string    `json:"failureReason,omitempty"`
	Fulfilled     bool      `json:"fulfilled"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// NewTransaction creates a pending purchase record.
func NewTransaction(orderID, flow, countryCode, operatorName string, amount float64, currency, recipientHash string) (*Transaction, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, fmt.Errorf("order id is required")
	}
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive: %v", amount)
	}
	now := time.Now()
	return &Transaction{
		OrderID:       orderID,
		Flow:          flow,
		CountryCode:   countryCode,
		OperatorName:  operatorName,
		Amount:        amount,
		Currency:      currency,
		RecipientHash: recipientHash,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// ApplyStatus moves the record to a new payment status, enforcing the legal
// transition graph.
func (t *Transaction) ApplyStatus(next Status, reason string) error {
	if t.Status == next {
		return nil
	}
	if !CanTransition(t.Status, next) {
		return fmt.Errorf("illegal status transition %s -> %s for %s", t.Status, next, t.OrderID)
	}
	t.Status = next
	t.FailureReason = reason
	t.UpdatedAt = time.Now()
	return nil
}

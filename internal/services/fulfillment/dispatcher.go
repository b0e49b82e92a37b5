// Package fulfillment converts a confirmed payment into exactly one
// service credit. The ledger claim is the at-most-once gate: no credit call
// is made for an order id that was already claimed, regardless of how the
// terminal-detection race resolved.
package fulfillment

import (
	"context"
	"errors"
	"fmt"

	"advtopup/internal/domain/order"
	"advtopup/internal/domain/phone"
	"advtopup/internal/domain/wizard"
	"advtopup/internal/provider"
	"advtopup/internal/store/repositories"

	"github.com/rs/zerolog/log"
)

// ErrAlreadyFulfilled means the order id was claimed by an earlier dispatch.
var ErrAlreadyFulfilled = errors.New("fulfillment: order already dispatched")

type Dispatcher struct {
	registry *provider.Registry
	ledger   repositories.FulfillmentLedger
}

func NewDispatcher(registry *provider.Registry, ledger repositories.FulfillmentLedger) *Dispatcher {
	return &Dispatcher{registry: registry, ledger: ledger}
}

// Dispatch issues the credit call for a confirmed COMPLETE payment. It is
// never retried automatically: a failure after successful payment is
// recorded as a reconciliation gap and surfaced to the caller.
func (d *Dispatcher) Dispatch(ctx context.Context, s *wizard.State, orderID string) (*order.PurchaseResult, error) {
	claimed, err := d.ledger.Claim(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("claim fulfillment: %w", err)
	}
	if !claimed {
		log.Warn().Str("order_id", orderID).Msg("fulfillment: duplicate dispatch blocked")
		return nil, ErrAlreadyFulfilled
	}

	req := provider.CreditRequest{
		OrderID:         orderID,
		Flow:            s.Flow,
		Operator:        s.Operator,
		Amount:          s.Amount,
		Bundle:          s.Bundle,
		RecipientMSISDN: phone.Normalize(s.RecipientPhone, s.CountryCode),
		SenderMSISDN:    phone.Normalize(s.SenderPhone, s.CountryCode),
		CountryCode:     s.CountryCode,
		Email:           s.Email,
	}

	pt := d.registry.ForPurchase(s.Flow, s.CountryCode)
	p, err := d.registry.Get(pt)
	if err != nil {
		d.recordFailure(ctx, orderID, err)
		return nil, err
	}

	log.Info().
		Str("order_id", orderID).
		Str("provider", string(pt)).
		Str("flow", string(s.Flow)).
		Msg("fulfillment: dispatching credit")

	res, err := p.Credit(ctx, req)
	if err != nil {
		// The customer has paid but was not credited. There is no
		// automatic retry or refund here; the ledger row marks the gap
		// for offline reconciliation.
		log.Error().Err(err).
			Str("order_id", orderID).
			Str("provider", string(pt)).
			Msg("fulfillment: credit failed after completed payment")
		d.recordFailure(ctx, orderID, err)
		return nil, err
	}

	transactionID := res.TransactionID
	if transactionID == "" {
		transactionID = orderID
	}
	if err := d.ledger.Finalize(ctx, orderID, true, transactionID, ""); err != nil {
		log.Error().Err(err).Str("order_id", orderID).Msg("fulfillment: finalize failed")
	}

	return &order.PurchaseResult{
		TransactionID: transactionID,
		OrderID:       orderID,
		PaymentStatus: order.StatusComplete,
	}, nil
}

func (d *Dispatcher) recordFailure(ctx context.Context, orderID string, cause error) {
	if err := d.ledger.Finalize(ctx, orderID, false, "", cause.Error()); err != nil {
		log.Error().Err(err).Str("order_id", orderID).Msg("fulfillment: failure record write failed")
	}
}

package provider

import (
	"context"

	"advtopup/internal/domain/operator"
	"advtopup/internal/domain/wizard"
)

// Type identifies a credit provider.
type Type string

const (
	// TypeReloadly is the cross-border airtime/data provider.
	TypeReloadly Type = "reloadly"
	// TypePrymo is the Ghana direct-topup provider.
	TypePrymo Type = "prymo"
)

// OperationType enumerates operations a provider can support.
type OperationType string

const (
	OpValidatePhone   OperationType = "validate_phone"
	OpDetectOperator  OperationType = "detect_operator"
	OpListBundles     OperationType = "list_bundles"
	OpRechargeAirtime OperationType = "recharge_airtime"
	OpBuyData         OperationType = "buy_data"
	OpDirectTopup     OperationType = "direct_topup"
)

// CreditRequest asks a provider for exactly one service credit after a
// confirmed payment.
type CreditRequest struct {
	OrderID  string
	Flow     wizard.Flow
	Operator *operator.Info

	// Amount in sender currency for airtime; Bundle set for data.
	Amount float64
	Bundle *operator.Bundle

	// MSISDNs already normalized to international form.
	RecipientMSISDN string
	SenderMSISDN    string

	CountryCode string
	Email       string
}

// CreditResult is the provider's acknowledgement of a credit.
type CreditResult struct {
	TransactionID string
	Message       string
}

// Provider credits airtime or data after payment confirmation.
type Provider interface {
	Name() string
	Type() Type
	SupportedOperations() []OperationType
	Credit(ctx context.Context, req CreditRequest) (*CreditResult, error)
}

// Error is a typed provider failure.
type Error struct {
	Code        string
	Message     string
	ProviderErr string
}

func (e *Error) Error() string {
	if e.ProviderErr != "" {
		return e.Message + ": " + e.ProviderErr
	}
	return e.Message
}

// Error codes
const (
	ErrInvalidPhone         = "invalid_phone"
	ErrInvalidAmount        = "invalid_amount"
	ErrOperatorNotFound     = "operator_not_found"
	ErrCountryMismatch      = "country_mismatch"
	ErrProviderNotFound     = "provider_not_found"
	ErrOperationUnsupported = "operation_not_supported"
	ErrCreditFailed         = "credit_failed"
)

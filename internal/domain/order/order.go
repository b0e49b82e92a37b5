package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle of one hosted-checkout payment attempt.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusComplete   Status = "complete"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
	StatusTimeout    Status = "timeout"
)

// Terminal reports whether no further status change is possible.
func (s Status) Terminal() bool {
	switch s {
	case StatusComplete, StatusFailed, StatusCancelled, StatusTimeout:
		return true
	}
	return false
}

// legalTransitions is the allowed status graph. Terminal states have no
// outgoing transitions.
var legalTransitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusProcessing: true,
		StatusComplete:   true,
		StatusFailed:     true,
		StatusCancelled:  true,
		StatusTimeout:    true,
	},
	StatusProcessing: {
		StatusComplete:  true,
		StatusFailed:    true,
		StatusCancelled: true,
		StatusTimeout:   true,
	},
	StatusComplete:  {},
	StatusFailed:    {},
	StatusCancelled: {},
	StatusTimeout:   {},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to Status) bool {
	return legalTransitions[from][to]
}

// ParseStatus maps the status spellings observed across the gateway and the
// payment callback onto the domain statuses. Unknown values stay pending.
func ParseStatus(raw string) Status {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "COMPLETE", "COMPLETED", "SUCCESS", "SUCCESSFUL", "PAID":
		return StatusComplete
	case "FAILED", "FAIL", "DECLINED", "ERROR":
		return StatusFailed
	case "CANCELLED", "CANCELED", "ABORTED":
		return StatusCancelled
	case "TIMEOUT", "EXPIRED":
		return StatusTimeout
	case "PROCESSING", "IN_PROGRESS":
		return StatusProcessing
	default:
		return StatusPending
	}
}

// orderIDPrefix brands every checkout attempt this service creates.
const orderIDPrefix = "ADV"

// NewOrderID allocates a globally unique order id for one payment attempt.
// A new submit always gets a fresh id; ids are never reused across retries.
func NewOrderID(now time.Time) string {
	return fmt.Sprintf("%s-%d-%s", orderIDPrefix, now.UnixMilli(), uuid.NewString()[:8])
}

// Session is one in-flight hosted payment attempt.
type Session struct {
	OrderID     string `json:"orderId"`
	CheckoutURL string `json:"checkoutUrl"`
	Token       string `json:"token"`
	Status      Status `json:"status"`
}

// PurchaseResult is the outcome record surfaced to the user after
// fulfillment succeeds.
type PurchaseResult struct {
	TransactionID string `json:"transactionId"`
	OrderID       string `json:"orderId"`
	PaymentStatus Status `json:"paymentStatus"`
}

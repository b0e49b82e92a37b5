// Package advansispay is the hosted-checkout gateway client: payment
// initiation and out-of-band status lookups by order id.
package advansispay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"advtopup/internal/domain/order"
	"advtopup/internal/upstream"
)

// ErrNoCheckoutURL means initiation nominally succeeded but returned no
// hosted-checkout URL. There is nothing to send the customer to, so the
// whole attempt fails fast.
var ErrNoCheckoutURL = errors.New("advansispay: initiation returned no checkout url")

// ErrStatusNotFound means the gateway has no status record for the order
// yet. Pollers treat this as transient.
var ErrStatusNotFound = errors.New("advansispay: payment status not found")

type Client struct {
	api *upstream.Client
}

func New(api *upstream.Client) *Client {
	return &Client{api: api}
}

// InitiateRequest starts one hosted payment attempt.
type InitiateRequest struct {
	OrderID   string  `json:"order-id"`
	Amount    float64 `json:"amount"`
	Email     string  `json:"email"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Phone     string  `json:"phone"`
}

// Initiate calls the payment-initiation endpoint and returns the checkout
// session. A missing checkout URL is a hard failure.
func (c *Client) Initiate(ctx context.Context, req InitiateRequest) (*order.Session, error) {
	var raw json.RawMessage
	if err := c.api.PostJSON(ctx, "/advansispay/initiate-payment", req, &raw); err != nil {
		return nil, fmt.Errorf("initiate payment: %w", err)
	}

	sess := normalizeInitiation(raw)
	if sess.CheckoutURL == "" {
		return nil, ErrNoCheckoutURL
	}
	sess.OrderID = req.OrderID
	sess.Status = order.StatusPending
	return sess, nil
}

// Status fetches the out-of-band payment status for an order id.
func (c *Client) Status(ctx context.Context, orderID string) (order.Status, error) {
	var raw json.RawMessage
	endpoint := "/advansispay/payment-status/" + url.PathEscape(orderID)
	if err := c.api.GetJSON(ctx, endpoint, &raw); err != nil {
		var apiErr *upstream.APIError
		if errors.As(err, &apiErr) && apiErr.NotFound() {
			return order.StatusPending, ErrStatusNotFound
		}
		return order.StatusPending, err
	}
	return normalizeStatus(raw), nil
}

// normalizeInitiation maps the initiation response shapes (checkoutUrl vs
// checkout_url, token under data, order-id echoes) into one session value.
func normalizeInitiation(raw json.RawMessage) *order.Session {
	var doc map[string]any
	_ = json.Unmarshal(raw, &doc)
	if data, ok := doc["data"].(map[string]any); ok {
		doc = data
	}

	sess := &order.Session{}
	for _, key := range []string{"checkoutUrl", "checkout_url", "checkoutURL"} {
		if s, ok := doc[key].(string); ok && s != "" {
			sess.CheckoutURL = s
			break
		}
	}
	if s, ok := doc["token"].(string); ok {
		sess.Token = s
	}
	return sess
}

// normalizeStatus maps {status} payloads, nested or bare, onto the domain
// statuses.
func normalizeStatus(raw json.RawMessage) order.Status {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return order.StatusPending
	}
	if data, ok := doc["data"].(map[string]any); ok {
		doc = data
	}
	if s, ok := doc["status"].(string); ok {
		return order.ParseStatus(s)
	}
	return order.StatusPending
}

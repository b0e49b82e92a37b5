// Package prymo implements the Ghana direct-topup provider. It credits
// airtime straight to the recipient MSISDN with a network code resolved
// from the operator's display name.
package prymo

import (
	"context"
	"encoding/json"
	"strings"

	"advtopup/internal/provider"
	"advtopup/internal/provider/reloadly"
	"advtopup/internal/upstream"
)

// NetworkAutoDetect lets the provider pick the serving network itself.
const NetworkAutoDetect = 0

// NetworkRule maps operator display-name fragments to a Prymo network code.
// Rules are evaluated in order; every fragment of a rule must appear in the
// lowercased operator name.
type NetworkRule struct {
	Fragments []string
	Code      int
}

// DefaultNetworkRules is the current operator-name mapping. The table is
// data, not control flow: display names change, so deployments can swap it
// without touching the dispatcher.
var DefaultNetworkRules = []NetworkRule{
	{Fragments: []string{"mtn", "yellow"}, Code: 13},
	{Fragments: []string{"mtn"}, Code: 4},
	{Fragments: []string{"airteltigo"}, Code: 1},
	{Fragments: []string{"tigo"}, Code: 1},
	{Fragments: []string{"airtel"}, Code: 1},
	{Fragments: []string{"vodafone"}, Code: 6},
	{Fragments: []string{"telecel"}, Code: 6},
}

type Client struct {
	api   *upstream.Client
	rules []NetworkRule
}

func New(api *upstream.Client, rules []NetworkRule) *Client {
	if rules == nil {
		rules = DefaultNetworkRules
	}
	return &Client{api: api, rules: rules}
}

func (c *Client) Name() string        { return "Prymo (Ghana direct topup)" }
func (c *Client) Type() provider.Type { return provider.TypePrymo }

func (c *Client) SupportedOperations() []provider.OperationType {
	return []provider.OperationType{provider.OpDirectTopup}
}

// Credit tops up airtime directly through the local provider.
func (c *Client) Credit(ctx context.Context, req provider.CreditRequest) (*provider.CreditResult, error) {
	if req.Amount <= 0 {
		return nil, &provider.Error{Code: provider.ErrInvalidAmount, Message: "Topup amount must be positive"}
	}

	network := NetworkAutoDetect
	if req.Operator != nil {
		network = c.NetworkCode(req.Operator.Name)
	}

	payload := map[string]any{
		"recipient": req.RecipientMSISDN,
		"amount":    req.Amount,
		"network":   network,
		"orderId":   req.OrderID,
	}

	var raw json.RawMessage
	if err := c.api.PostJSON(ctx, "/airtime/topup", payload, &raw); err != nil {
		return nil, &provider.Error{
			Code:        provider.ErrCreditFailed,
			Message:     "Airtime topup failed",
			ProviderErr: err.Error(),
		}
	}

	return &provider.CreditResult{
		TransactionID: reloadly.ExtractTransactionID(raw, req.OrderID),
	}, nil
}

// NetworkCode resolves an operator display name to a Prymo network code,
// falling back to auto-detect when no rule matches.
func (c *Client) NetworkCode(operatorName string) int {
	name := strings.ToLower(operatorName)
	for _, rule := range c.rules {
		if matchesAll(name, rule.Fragments) {
			return rule.Code
		}
	}
	return NetworkAutoDetect
}

func matchesAll(name string, fragments []string) bool {
	for _, f := range fragments {
		if !strings.Contains(name, f) {
			return false
		}
	}
	return len(fragments) > 0
}

// Package reloadly implements the cross-border airtime/data provider:
// phone/country validation, operator auto-detection with pricing and
// catalog data, and the post-payment credit calls.
package reloadly

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"advtopup/internal/domain/operator"
	"advtopup/internal/domain/wizard"
	"advtopup/internal/provider"
	"advtopup/internal/upstream"

	"github.com/rs/zerolog/log"
)

// DefaultAirtimeAmount is used when a resolved operator publishes no
// popular or suggested amounts.
const DefaultAirtimeAmount = 10

type Client struct {
	api *upstream.Client
}

func New(api *upstream.Client) *Client {
	return &Client{api: api}
}

func (c *Client) Name() string        { return "Reloadly" }
func (c *Client) Type() provider.Type { return provider.TypeReloadly }

func (c *Client) SupportedOperations() []provider.OperationType {
	return []provider.OperationType{
		provider.OpValidatePhone,
		provider.OpDetectOperator,
		provider.OpListBundles,
		provider.OpRechargeAirtime,
		provider.OpBuyData,
	}
}

// ValidatePhoneForCountry confirms the number plausibly belongs to the
// claimed country. This is a hard precondition for operator detection: a
// lookup failure blocks, it is not best-effort.
func (c *Client) ValidatePhoneForCountry(ctx context.Context, msisdn, countryCode string) error {
	endpoint := fmt.Sprintf("/reloadly-data/auto-detect?msisdn=%s&countryCode=%s",
		url.QueryEscape(msisdn), url.QueryEscape(countryCode))

	var raw json.RawMessage
	if err := c.api.GetJSON(ctx, endpoint, &raw); err != nil {
		return &provider.Error{
			Code:        provider.ErrInvalidPhone,
			Message:     "Could not verify the phone number for the selected country",
			ProviderErr: upstreamMessage(err),
		}
	}

	res := normalizeAutoDetect(raw)
	if !res.valid {
		expected := res.expectedCountry
		if expected == "" {
			expected = countryCode
		}
		return &provider.Error{
			Code:    provider.ErrCountryMismatch,
			Message: fmt.Sprintf("This phone number does not match the selected country (%s)", expected),
		}
	}
	return nil
}

// DetectOperator resolves the serving operator for a phone number. For the
// data flow the full country catalog is fetched as well so the operator
// snapshot carries its bundle amounts and descriptions.
func (c *Client) DetectOperator(ctx context.Context, msisdn, countryCode string, flow wizard.Flow) (*operator.Info, error) {
	var raw json.RawMessage
	payload := map[string]string{"phone": msisdn, "countryCode": countryCode}
	if err := c.api.PostJSON(ctx, "/reloadly/operator/autodetect", payload, &raw); err != nil {
		return nil, fmt.Errorf("operator autodetect: %w", err)
	}

	info, err := normalizeOperator(raw)
	if err != nil {
		return nil, &provider.Error{
			Code:    provider.ErrOperatorNotFound,
			Message: "No network operator found for this phone number",
		}
	}

	if flow == wizard.FlowData {
		full, err := c.findInCatalog(ctx, countryCode, info.OperatorID)
		if err != nil {
			log.Warn().Err(err).
				Int64("operator_id", info.OperatorID).
				Str("country", countryCode).
				Msg("reloadly: catalog lookup failed, using autodetect snapshot")
		} else if full != nil {
			info = full
		}
	}

	return info, nil
}

// findInCatalog fetches the country's operator list and returns the entry
// matching the detected operator id, nil when absent.
func (c *Client) findInCatalog(ctx context.Context, countryCode string, operatorID int64) (*operator.Info, error) {
	var raw json.RawMessage
	payload := map[string]string{"countryCode": countryCode}
	if err := c.api.PostJSON(ctx, "/reloadly-data/list-operators", payload, &raw); err != nil {
		return nil, fmt.Errorf("list operators: %w", err)
	}

	infos, err := normalizeOperatorList(raw)
	if err != nil {
		return nil, err
	}
	for _, info := range infos {
		if info.OperatorID == operatorID {
			return info, nil
		}
	}
	return nil, nil
}

// Credit issues the post-payment credit call for the request's flow.
func (c *Client) Credit(ctx context.Context, req provider.CreditRequest) (*provider.CreditResult, error) {
	switch req.Flow {
	case wizard.FlowData:
		return c.buyData(ctx, req)
	default:
		return c.recharge(ctx, req)
	}
}

func (c *Client) recharge(ctx context.Context, req provider.CreditRequest) (*provider.CreditResult, error) {
	payload := map[string]any{
		"operatorId":     req.Operator.OperatorID,
		"amount":         req.Amount,
		"recipientPhone": req.RecipientMSISDN,
		"senderPhone":    req.SenderMSISDN,
		"countryCode":    req.CountryCode,
		"orderId":        req.OrderID,
		"email":          req.Email,
	}

	var raw json.RawMessage
	if err := c.api.PostJSON(ctx, "/reload-airtime/recharge", payload, &raw); err != nil {
		return nil, &provider.Error{
			Code:        provider.ErrCreditFailed,
			Message:     "Airtime recharge failed",
			ProviderErr: upstreamMessage(err),
		}
	}
	return creditResult(raw, req.OrderID), nil
}

func (c *Client) buyData(ctx context.Context, req provider.CreditRequest) (*provider.CreditResult, error) {
	if req.Bundle == nil {
		return nil, &provider.Error{Code: provider.ErrInvalidAmount, Message: "No data bundle selected"}
	}
	payload := map[string]any{
		"operatorId":     req.Operator.OperatorID,
		"amount":         req.Bundle.Amount,
		"useLocalAmount": req.Bundle.Local,
		"recipientPhone": req.RecipientMSISDN,
		"senderPhone":    req.SenderMSISDN,
		"countryCode":    req.CountryCode,
		"orderId":        req.OrderID,
		"email":          req.Email,
	}

	var raw json.RawMessage
	if err := c.api.PostJSON(ctx, "/reloadly-data/buy-data", payload, &raw); err != nil {
		return nil, &provider.Error{
			Code:        provider.ErrCreditFailed,
			Message:     "Data bundle purchase failed",
			ProviderErr: upstreamMessage(err),
		}
	}
	return creditResult(raw, req.OrderID), nil
}

func creditResult(raw json.RawMessage, orderID string) *provider.CreditResult {
	return &provider.CreditResult{TransactionID: ExtractTransactionID(raw, orderID)}
}

// ExtractTransactionID pulls a transaction identifier out of the observed
// response shapes (data.transactionId, transactionId, id), falling back to
// the payment order id.
func ExtractTransactionID(raw json.RawMessage, orderID string) string {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err == nil {
		if data, ok := doc["data"].(map[string]any); ok {
			if id := stringish(data["transactionId"]); id != "" {
				return id
			}
		}
		if id := stringish(doc["transactionId"]); id != "" {
			return id
		}
		if id := stringish(doc["id"]); id != "" {
			return id
		}
	}
	return orderID
}

func stringish(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strings.TrimSuffix(fmt.Sprintf("%.0f", t), ".")
	case json.Number:
		return t.String()
	}
	return ""
}

func upstreamMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

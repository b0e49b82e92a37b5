package reloadly

import (
	"advtopup/internal/domain/operator"

	"encoding/json"
	"fmt"
	"strings"
)

// The upstream wraps the same operator document in several envelopes
// (bare object, {data:...}, {payload:...}, {content:...}). Each normalize
// function maps every observed shape of its response family into one typed
// result so the ambiguity stays at this boundary.

type operatorDoc struct {
	ID         int64  `json:"id"`
	OperatorID int64  `json:"operatorId"`
	Name       string `json:"name"`
	Country    struct {
		IsoName string `json:"isoName"`
	} `json:"country"`

	MinAmount      float64 `json:"minAmount"`
	MaxAmount      float64 `json:"maxAmount"`
	LocalMinAmount float64 `json:"localMinAmount"`
	LocalMaxAmount float64 `json:"localMaxAmount"`

	SenderCurrencyCode        string `json:"senderCurrencyCode"`
	SenderCurrencySymbol      string `json:"senderCurrencySymbol"`
	DestinationCurrencySymbol string `json:"destinationCurrencySymbol"`

	FX struct {
		Rate float64 `json:"rate"`
	} `json:"fx"`

	MostPopularAmount float64   `json:"mostPopularAmount"`
	SuggestedAmounts  []float64 `json:"suggestedAmounts"`

	FixedAmounts                  []float64         `json:"fixedAmounts"`
	FixedAmountsDescriptions      map[string]string `json:"fixedAmountsDescriptions"`
	LocalFixedAmounts             []float64         `json:"localFixedAmounts"`
	LocalFixedAmountsDescriptions map[string]string `json:"localFixedAmountsDescriptions"`
}

func (d *operatorDoc) toInfo() *operator.Info {
	id := d.OperatorID
	if id == 0 {
		id = d.ID
	}
	return &operator.Info{
		OperatorID:  id,
		Name:        d.Name,
		CountryCode: d.Country.IsoName,

		MinAmount:      d.MinAmount,
		MaxAmount:      d.MaxAmount,
		LocalMinAmount: d.LocalMinAmount,
		LocalMaxAmount: d.LocalMaxAmount,

		SenderCurrency:    d.SenderCurrencyCode,
		SenderSymbol:      d.SenderCurrencySymbol,
		DestinationSymbol: d.DestinationCurrencySymbol,

		FXRate: d.FX.Rate,

		MostPopularAmount: d.MostPopularAmount,
		SuggestedAmounts:  d.SuggestedAmounts,

		FixedAmounts:                  d.FixedAmounts,
		FixedAmountsDescriptions:      d.FixedAmountsDescriptions,
		LocalFixedAmounts:             d.LocalFixedAmounts,
		LocalFixedAmountsDescriptions: d.LocalFixedAmountsDescriptions,
	}
}

// unwrapEnvelope peels the known single-object envelopes off a response.
func unwrapEnvelope(raw json.RawMessage) json.RawMessage {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return raw
	}
	for _, key := range []string{"data", "payload", "content"} {
		if inner, ok := envelope[key]; ok && len(inner) > 0 && inner[0] != 'n' {
			return unwrapEnvelope(inner)
		}
	}
	return raw
}

func normalizeOperator(raw json.RawMessage) (*operator.Info, error) {
	body := unwrapEnvelope(raw)
	var doc operatorDoc
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode operator: %w", err)
	}
	info := doc.toInfo()
	if info.OperatorID == 0 && info.Name == "" {
		return nil, fmt.Errorf("no operator in response")
	}
	return info, nil
}

func normalizeOperatorList(raw json.RawMessage) ([]*operator.Info, error) {
	body := unwrapEnvelope(raw)
	var docs []operatorDoc
	if err := json.Unmarshal(body, &docs); err != nil {
		return nil, fmt.Errorf("decode operator list: %w", err)
	}
	out := make([]*operator.Info, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toInfo())
	}
	return out, nil
}

// autoDetectResult is the flattened phone/country validation outcome.
type autoDetectResult struct {
	valid           bool
	expectedCountry string
}

// normalizeAutoDetect maps the validation response shapes ({valid:bool},
// {match:bool}, {status:"..."}), with the expected country under country,
// countryName or expectedCountry.
func normalizeAutoDetect(raw json.RawMessage) autoDetectResult {
	body := unwrapEnvelope(raw)
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return autoDetectResult{}
	}

	res := autoDetectResult{}
	switch v := doc["valid"].(type) {
	case bool:
		res.valid = v
	default:
		if m, ok := doc["match"].(bool); ok {
			res.valid = m
		} else if s, ok := doc["status"].(string); ok {
			res.valid = strings.EqualFold(s, "ok") || strings.EqualFold(s, "valid")
		} else if _, ok := doc["operatorName"]; ok {
			// A successful detection implies the number matched the country.
			res.valid = true
		}
	}

	for _, key := range []string{"expectedCountry", "countryName", "country"} {
		if s, ok := doc[key].(string); ok && s != "" {
			res.expectedCountry = s
			break
		}
	}
	return res
}

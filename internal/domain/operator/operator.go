package operator

import (
	"fmt"
	"math"
	"strconv"
)

// Info is a read-only snapshot of a resolved network operator: identity,
// pricing bounds, FX and the raw amount catalog as returned by the upstream
// operator API. It is created once per resolution and discarded whenever the
// recipient phone or country changes.
type Info struct {
	OperatorID  int64  `json:"operatorId"`
	Name        string `json:"name"`
	CountryCode string `json:"countryCode"`

	// Pricing bounds in sender currency and destination currency.
	MinAmount      float64 `json:"minAmount"`
	MaxAmount      float64 `json:"maxAmount"`
	LocalMinAmount float64 `json:"localMinAmount"`
	LocalMaxAmount float64 `json:"localMaxAmount"`

	SenderCurrency    string `json:"senderCurrencyCode"`
	SenderSymbol      string `json:"senderCurrencySymbol"`
	DestinationSymbol string `json:"destinationCurrencySymbol"`

	FXRate float64 `json:"fxRate"`

	MostPopularAmount float64   `json:"mostPopularAmount"`
	SuggestedAmounts  []float64 `json:"suggestedAmounts"`

	FixedAmounts                  []float64         `json:"fixedAmounts"`
	FixedAmountsDescriptions      map[string]string `json:"fixedAmountsDescriptions"`
	LocalFixedAmounts             []float64         `json:"localFixedAmounts"`
	LocalFixedAmountsDescriptions map[string]string `json:"localFixedAmountsDescriptions"`
}

// Bundle is one purchasable data bundle in the operator's catalog.
type Bundle struct {
	Amount      float64 `json:"amount"`
	Local       bool    `json:"local"`
	Description string  `json:"description"`
}

// defaultQuickAmounts is the synthesized candidate set used when the
// operator publishes neither suggested nor fixed amounts.
var defaultQuickAmounts = []float64{1, 2, 5, 10, 20, 50, 100}

// fallbackPoints is the size of the synthesized amount sequence produced
// when range filtering empties the candidate set.
const fallbackPoints = 8

// DefaultAmount picks the initial purchase amount for a freshly resolved
// operator: most popular, else first suggested, else the provider default.
func (i *Info) DefaultAmount(providerDefault float64) float64 {
	if i.MostPopularAmount > 0 {
		return i.MostPopularAmount
	}
	if len(i.SuggestedAmounts) > 0 {
		return i.SuggestedAmounts[0]
	}
	return providerDefault
}

// QuickAmounts returns the airtime quick-pick candidates clamped to the
// operator's [MinAmount, MaxAmount] range. If clamping empties the set, a
// synthesized sequence stepping from MinAmount toward MaxAmount is returned
// instead.
func (i *Info) QuickAmounts() []float64 {
	candidates := i.SuggestedAmounts
	if len(candidates) == 0 {
		candidates = i.FixedAmounts
	}
	if len(candidates) == 0 {
		candidates = defaultQuickAmounts
	}

	var in []float64
	for _, a := range candidates {
		if i.inRange(a) {
			in = append(in, a)
		}
	}
	if len(in) > 0 {
		return in
	}
	return i.fallbackAmounts()
}

func (i *Info) inRange(a float64) bool {
	if i.MinAmount > 0 && a < i.MinAmount {
		return false
	}
	if i.MaxAmount > 0 && a > i.MaxAmount {
		return false
	}
	return true
}

// AmountInRange reports whether an airtime amount is purchasable for this
// operator.
func (i *Info) AmountInRange(a float64) bool {
	return a > 0 && i.inRange(a)
}

// fallbackAmounts steps from MinAmount toward MaxAmount in seven
// multiplicative increments, each value rounded to 2 decimal places and
// capped at MaxAmount.
func (i *Info) fallbackAmounts() []float64 {
	min, max := i.MinAmount, i.MaxAmount
	if min <= 0 {
		min = 1
	}
	if max < min {
		max = min
	}

	ratio := math.Pow(max/min, 1.0/float64(fallbackPoints-1))
	out := make([]float64, 0, fallbackPoints)
	prev := 0.0
	for n := 0; n < fallbackPoints; n++ {
		v := round2(min * math.Pow(ratio, float64(n)))
		if v > max {
			v = max
		}
		if v < prev {
			v = prev
		}
		out = append(out, v)
		prev = v
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Bundles parses the operator catalog into a normalized bundle list.
// Destination-currency entries are preferred; sender-currency fixed amounts
// are the fallback. Every available bundle is surfaced.
func (i *Info) Bundles() []Bundle {
	if len(i.LocalFixedAmounts) > 0 {
		out := make([]Bundle, 0, len(i.LocalFixedAmounts))
		for _, a := range i.LocalFixedAmounts {
			out = append(out, Bundle{
				Amount:      a,
				Local:       true,
				Description: describeAmount(i.LocalFixedAmountsDescriptions, a, i.DestinationSymbol),
			})
		}
		return out
	}

	out := make([]Bundle, 0, len(i.FixedAmounts))
	for _, a := range i.FixedAmounts {
		out = append(out, Bundle{
			Amount:      a,
			Description: describeAmount(i.FixedAmountsDescriptions, a, i.SenderSymbol),
		})
	}
	return out
}

// describeAmount resolves the human description for a catalog amount. The
// upstream keys its description maps inconsistently, so the exact-decimal,
// integer and one-decimal renderings are tried in that order before a
// description is synthesized.
func describeAmount(descriptions map[string]string, amount float64, symbol string) string {
	for _, key := range amountKeys(amount) {
		if d, ok := descriptions[key]; ok && d != "" {
			return d
		}
	}
	return fmt.Sprintf("%s %s Data", formatAmount(amount), symbol)
}

func amountKeys(amount float64) []string {
	keys := []string{strconv.FormatFloat(amount, 'f', 2, 64)}
	if amount == math.Trunc(amount) {
		keys = append(keys, strconv.FormatInt(int64(amount), 10))
	} else {
		keys = append(keys, strconv.FormatFloat(amount, 'f', -1, 64))
	}
	return append(keys, strconv.FormatFloat(amount, 'f', 1, 64))
}

func formatAmount(amount float64) string {
	if amount == math.Trunc(amount) {
		return strconv.FormatInt(int64(amount), 10)
	}
	return strconv.FormatFloat(amount, 'f', 2, 64)
}

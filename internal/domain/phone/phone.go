package phone

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

// Hash returns a privacy-preserving digest of an MSISDN for persistence.
func Hash(msisdn string) string {
	h := sha256.Sum256([]byte(msisdn))
	return hex.EncodeToString(h[:])
}

// countryPrefixes maps ISO country codes to dialing prefixes for the
// countries the product serves directly.
var countryPrefixes = map[string]string{
	"GH": "233",
	"NG": "234",
	"KE": "254",
}

// Normalize converts a raw recipient or sender number to international
// MSISDN form: every non-digit is stripped and, when the country has a known
// dialing prefix, a leading zero is replaced by it.
func Normalize(raw, countryCode string) string {
	d := digits(raw)
	prefix, ok := countryPrefixes[strings.ToUpper(countryCode)]
	if !ok || d == "" {
		return d
	}
	if strings.HasPrefix(d, "0") {
		return prefix + d[1:]
	}
	if !strings.HasPrefix(d, prefix) {
		return prefix + d
	}
	return d
}

func digits(v string) string {
	var b strings.Builder
	for _, r := range v {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Validator checks normalized numbers against per-country MSISDN shapes.
type Validator struct {
	countryCode string
	patterns    []*regexp.Regexp
}

// NewValidator builds a validator for one country. Countries without known
// patterns accept any plausible MSISDN length.
func NewValidator(countryCode string) *Validator {
	var patterns []*regexp.Regexp

	switch strings.ToUpper(countryCode) {
	case "GH": // Ghana: MTN, AirtelTigo, Telecel
		patterns = []*regexp.Regexp{
			regexp.MustCompile(`^233[2-5]\d{8}$`),
		}
	case "NG": // Nigeria
		patterns = []*regexp.Regexp{
			regexp.MustCompile(`^234[789]\d{9}$`),
		}
	case "KE": // Kenya
		patterns = []*regexp.Regexp{
			regexp.MustCompile(`^254[17]\d{8}$`),
		}
	}

	return &Validator{countryCode: strings.ToUpper(countryCode), patterns: patterns}
}

// Validate normalizes a number and checks it against the country patterns.
func (v *Validator) Validate(raw string) (string, error) {
	normalized := Normalize(raw, v.countryCode)
	if len(normalized) < 10 || len(normalized) > 15 {
		return "", fmt.Errorf("invalid phone number length for %s: %q", v.countryCode, raw)
	}
	if len(v.patterns) == 0 {
		return normalized, nil
	}
	for _, p := range v.patterns {
		if p.MatchString(normalized) {
			return normalized, nil
		}
	}
	return "", fmt.Errorf("invalid phone number format for %s", v.countryCode)
}

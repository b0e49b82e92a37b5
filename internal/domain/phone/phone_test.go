package phone

import "testing"

func TestNormalize(t *testing.T) {
	for _, tc := range []struct {
		raw     string
		country string
		want    string
	}{
		{"0244588584", "GH", "233244588584"},
		{"+233 24 458 8584", "GH", "233244588584"},
		{"244588584", "GH", "233244588584"},
		{"233244588584", "GH", "233244588584"},
		{"08031234567", "NG", "2348031234567"},
		{"0712345678", "KE", "254712345678"},
		// Unknown country: digits only, no prefixing.
		{"07-12-34", "ZZ", "071234"},
		{"", "GH", ""},
	} {
		if got := Normalize(tc.raw, tc.country); got != tc.want {
			t.Fatalf("Normalize(%q, %q) = %q, want %q", tc.raw, tc.country, got, tc.want)
		}
	}
}

func TestValidatorGhana(t *testing.T) {
	v := NewValidator("GH")

	got, err := v.Validate("0244588584")
	if err != nil {
		t.Fatalf("valid Ghana number rejected: %v", err)
	}
	if got != "233244588584" {
		t.Fatalf("expected normalized MSISDN, got %q", got)
	}

	if _, err := v.Validate("0944588584"); err == nil {
		t.Fatal("out-of-plan Ghana prefix must be rejected")
	}
	if _, err := v.Validate("024458"); err == nil {
		t.Fatal("too-short number must be rejected")
	}
}

func TestValidatorUnknownCountryAcceptsPlausibleLengths(t *testing.T) {
	v := NewValidator("FR")
	if _, err := v.Validate("33612345678"); err != nil {
		t.Fatalf("plausible MSISDN rejected for pattern-less country: %v", err)
	}
	if _, err := v.Validate("123"); err == nil {
		t.Fatal("implausible length must be rejected")
	}
}

func TestHashIsStable(t *testing.T) {
	a := Hash("233244588584")
	b := Hash("233244588584")
	if a != b {
		t.Fatal("hash must be deterministic")
	}
	if a == Hash("233244588585") {
		t.Fatal("different numbers must not collide trivially")
	}
	if len(a) != 64 {
		t.Fatalf("expected hex sha256, got %d chars", len(a))
	}
}

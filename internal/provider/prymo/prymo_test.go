package prymo

import "testing"

func TestNetworkCode(t *testing.T) {
	c := New(nil, nil)

	for name, want := range map[string]int{
		"MTN Ghana":        4,
		"mtn":              4,
		"MTN Yellow":       13,
		"AirtelTigo Ghana": 1,
		"Tigo":             1,
		"Airtel Ghana":     1,
		"Vodafone Ghana":   6,
		"Telecel Ghana":    6,
		"Glo Mobile":       0,
		"":                 0,
	} {
		if got := c.NetworkCode(name); got != want {
			t.Fatalf("NetworkCode(%q) = %d, want %d", name, got, want)
		}
	}
}

func TestNetworkRuleOrder(t *testing.T) {
	c := New(nil, nil)
	// A name matching both the combined and the bare rule must resolve
	// through the more specific combined rule.
	if got := c.NetworkCode("MTN Yellow Ghana"); got != 13 {
		t.Fatalf("expected combined rule to win, got %d", got)
	}
}

func TestCustomRules(t *testing.T) {
	c := New(nil, []NetworkRule{{Fragments: []string{"acme"}, Code: 9}})
	if got := c.NetworkCode("ACME Mobile"); got != 9 {
		t.Fatalf("custom rule not applied, got %d", got)
	}
	if got := c.NetworkCode("MTN Ghana"); got != NetworkAutoDetect {
		t.Fatalf("default rules must not apply with custom rules, got %d", got)
	}
}

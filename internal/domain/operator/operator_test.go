package operator

import "testing"

func TestQuickAmountsClampedToRange(t *testing.T) {
	info := &Info{
		SuggestedAmounts: []float64{1, 5, 10, 60},
		MinAmount:        2,
		MaxAmount:        50,
	}

	got := info.QuickAmounts()
	want := []float64{5, 10}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestQuickAmountsFallbackSequence(t *testing.T) {
	// Every default candidate is out of range, forcing synthesis.
	info := &Info{MinAmount: 200, MaxAmount: 500}

	got := info.QuickAmounts()
	if len(got) != 8 {
		t.Fatalf("expected 8 synthesized amounts, got %d: %v", len(got), got)
	}
	if got[0] != 200 {
		t.Fatalf("sequence must start at the minimum, got %v", got[0])
	}
	if got[len(got)-1] != 500 {
		t.Fatalf("sequence must end at the maximum, got %v", got[len(got)-1])
	}
	for i := 1; i < len(got); i++ {
		if got[i] < got[i-1] {
			t.Fatalf("sequence must be non-decreasing: %v", got)
		}
		if got[i] > 500 {
			t.Fatalf("sequence must stay within the maximum: %v", got)
		}
	}
}

func TestQuickAmountsDefaultCandidates(t *testing.T) {
	info := &Info{MinAmount: 2, MaxAmount: 30}

	got := info.QuickAmounts()
	want := []float64{2, 5, 10, 20}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestBundleDescriptionKeyLookup(t *testing.T) {
	info := &Info{
		LocalFixedAmounts: []float64{5, 2.5, 7},
		LocalFixedAmountsDescriptions: map[string]string{
			"5":    "5GB monthly bundle",
			"2.50": "1GB starter",
		},
		DestinationSymbol: "GHS",
	}

	bundles := info.Bundles()
	if len(bundles) != 3 {
		t.Fatalf("expected 3 bundles, got %d", len(bundles))
	}
	if bundles[0].Description != "5GB monthly bundle" {
		t.Fatalf("integer-keyed description not found: %q", bundles[0].Description)
	}
	if bundles[1].Description != "1GB starter" {
		t.Fatalf("two-decimal-keyed description not found: %q", bundles[1].Description)
	}
	// No description anywhere: synthesized from amount and symbol.
	if bundles[2].Description != "7 GHS Data" {
		t.Fatalf("expected synthesized description, got %q", bundles[2].Description)
	}
	for _, b := range bundles {
		if !b.Local {
			t.Fatal("destination-currency bundles must be marked local")
		}
	}
}

func TestBundlesFallBackToSenderCurrency(t *testing.T) {
	info := &Info{
		FixedAmounts:             []float64{9.99},
		FixedAmountsDescriptions: map[string]string{"9.99": "2GB"},
		SenderSymbol:             "$",
	}

	bundles := info.Bundles()
	if len(bundles) != 1 {
		t.Fatalf("expected 1 bundle, got %d", len(bundles))
	}
	if bundles[0].Local {
		t.Fatal("sender-currency bundles must not be marked local")
	}
	if bundles[0].Description != "2GB" {
		t.Fatalf("unexpected description %q", bundles[0].Description)
	}
}

func TestDefaultAmountPreference(t *testing.T) {
	info := &Info{MostPopularAmount: 20, SuggestedAmounts: []float64{5}}
	if got := info.DefaultAmount(10); got != 20 {
		t.Fatalf("most popular must win, got %v", got)
	}

	info = &Info{SuggestedAmounts: []float64{5}}
	if got := info.DefaultAmount(10); got != 5 {
		t.Fatalf("first suggested must win, got %v", got)
	}

	info = &Info{}
	if got := info.DefaultAmount(10); got != 10 {
		t.Fatalf("provider default expected, got %v", got)
	}
}

func TestAmountInRange(t *testing.T) {
	info := &Info{MinAmount: 1, MaxAmount: 100}
	for _, tc := range []struct {
		amount float64
		want   bool
	}{
		{0, false},
		{-5, false},
		{0.5, false},
		{1, true},
		{100, true},
		{101, false},
	} {
		if got := info.AmountInRange(tc.amount); got != tc.want {
			t.Fatalf("AmountInRange(%v) = %v, want %v", tc.amount, got, tc.want)
		}
	}
}

package pricing

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func sampleTable() *Table {
	return NewTable(&Data{Models: map[string]Rate{
		RouterModel:  {InputPer1M: 0.14},
		DefaultModel: {InputPer1M: 1.25, OutputPer1M: 10},
		"gpt-5":      {InputPer1M: 1.25, OutputPer1M: 10},
		"gpt-5-nano": {InputPer1M: 0.05, OutputPer1M: 0.4},
	}})
}

func TestLookupOrder(t *testing.T) {
	table := sampleTable()

	if got := table.Lookup("gpt-5-nano"); got.Source != Found || got.Rate.InputPer1M != 0.05 {
		t.Fatalf("expected found nano rate, got %+v", got)
	}
	got := table.Lookup("mystery")
	if got.Source != Fallback || got.Rate.InputPer1M != 1.25 || got.Reason == "" {
		t.Fatalf("expected default entry fallback, got %+v", got)
	}

	var nilTable *Table
	if got := nilTable.Lookup("gpt-5"); got.Source != Fallback || got.Rate.InputPer1M != 5 || got.Rate.OutputPer1M != 15 {
		t.Fatalf("expected hardcoded fallback for nil table, got %+v", got)
	}

	custom := NewTable(nil, WithFallback(Rate{InputPer1M: 2, OutputPer1M: 3}))
	if got := custom.Lookup("x"); got.Rate.InputPer1M != 2 || got.Rate.OutputPer1M != 3 {
		t.Fatalf("expected configured fallback, got %+v", got)
	}
}

func TestLookupWithoutDefaultEntry(t *testing.T) {
	table := NewTable(&Data{Models: map[string]Rate{"gpt-5": {InputPer1M: 1.25, OutputPer1M: 10}}})
	got := table.Lookup("other")
	if got.Source != Fallback || got.Rate != DefaultFallback {
		t.Fatalf("expected hardcoded fallback, got %+v", got)
	}
}

func TestRouterRateDefault(t *testing.T) {
	table := NewTable(&Data{Models: map[string]Rate{"gpt-5": {}}})
	if got := table.RouterRate(); got.InputPer1M != 0.14 || got.OutputPer1M != 0 {
		t.Fatalf("unexpected router rate: %+v", got)
	}
}

func TestRouterCostBreakdown(t *testing.T) {
	table := sampleTable()
	b, lookup := table.RouterCost("gpt-5", 100_000, 50_000)
	if lookup.Source != Found {
		t.Fatalf("expected found lookup, got %+v", lookup)
	}
	if !approx(b.RouterSurcharge, 0.014) {
		t.Fatalf("surcharge: %v", b.RouterSurcharge)
	}
	if !approx(b.UnderlyingInputCost, 0.125) {
		t.Fatalf("underlying input: %v", b.UnderlyingInputCost)
	}
	if !approx(b.InputCost, 0.139) {
		t.Fatalf("input: %v", b.InputCost)
	}
	if !approx(b.OutputCost, 0.5) {
		t.Fatalf("output: %v", b.OutputCost)
	}
	if !approx(b.Total, 0.639) {
		t.Fatalf("total: %v", b.Total)
	}
}

func TestBenchmarkCost(t *testing.T) {
	b, _ := sampleTable().BenchmarkCost("gpt-5", 100_000, 50_000)
	if !approx(b.Total, 0.625) || b.RouterSurcharge != 0 {
		t.Fatalf("unexpected benchmark breakdown: %+v", b)
	}
}

func TestTrackerCollectsFallbacks(t *testing.T) {
	table := sampleTable()
	var tr Tracker
	for _, m := range []string{"zeta", "gpt-5", "alpha", "zeta"} {
		tr.Note(m, table.Lookup(m))
	}
	if got := tr.Models(); !reflect.DeepEqual(got, []string{"alpha", "zeta"}) {
		t.Fatalf("unexpected fallback models: %v", got)
	}
}

func TestRound6(t *testing.T) {
	if got := Round6(0.1234567); got != 0.123457 {
		t.Fatalf("Round6: %v", got)
	}
}

func TestValidate(t *testing.T) {
	good := []byte(`{"pricing_info":{"currency":"USD"},"models":{"gpt-5":{"input_per_1m":1.25,"output_per_1m":10}}}`)
	if err := Validate(good); err != nil {
		t.Fatalf("expected valid document, got %v", err)
	}

	cases := map[string]string{
		"missing models":  `{"pricing_info":{}}`,
		"negative rate":   `{"models":{"x":{"input_per_1m":-1,"output_per_1m":1}}}`,
		"string rate":     `{"models":{"x":{"input_per_1m":"1","output_per_1m":1}}}`,
		"missing output":  `{"models":{"x":{"input_per_1m":1}}}`,
		"not json at all": `nope`,
	}
	for name, body := range cases {
		if err := Validate([]byte(body)); !errors.Is(err, ErrInvalidPricing) {
			t.Fatalf("%s: expected ErrInvalidPricing, got %v", name, err)
		}
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.json")
	body := `{"models":{"default":{"input_per_1m":1.25,"output_per_1m":10,"description":"d"}}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if data.Models[DefaultModel].Description != "d" {
		t.Fatalf("unexpected data: %+v", data)
	}
}

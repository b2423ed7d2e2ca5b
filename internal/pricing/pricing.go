// Package pricing resolves per-model token rates and turns token counts into costs.
package pricing

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
)

const (
	// RouterModel is the table key holding the router's own input surcharge.
	RouterModel = "model-router"
	// DefaultModel is the table key used for models without their own entry.
	DefaultModel = "default"
)

// Rate is a price in currency per one million tokens.
type Rate struct {
	InputPer1M  float64 `json:"input_per_1m"`
	OutputPer1M float64 `json:"output_per_1m"`
	Description string  `json:"description,omitempty"`
}

// Info describes a pricing table.
type Info struct {
	Description string `json:"description"`
	LastUpdated string `json:"last_updated"`
	Currency    string `json:"currency"`
}

// Data is the pricing payload served by the backend.
type Data struct {
	PricingInfo Info            `json:"pricing_info"`
	Models      map[string]Rate `json:"models"`
}

var (
	// DefaultFallback is used when no table is loaded at all.
	DefaultFallback = Rate{InputPer1M: 5.00, OutputPer1M: 15.00, Description: "hardcoded fallback"}
	// DefaultRouterRate is the router surcharge when the table has no model-router entry.
	DefaultRouterRate = Rate{InputPer1M: 0.14, OutputPer1M: 0, Description: "model router"}
)

// Source says where a resolved rate came from.
type Source int

const (
	Found Source = iota
	Fallback
)

func (s Source) String() string {
	if s == Found {
		return "found"
	}
	return "fallback"
}

// Lookup is the result of resolving a model's rate.
type Lookup struct {
	Rate   Rate
	Source Source
	Reason string
}

// Table resolves model rates. A nil *Table behaves like an empty one.
type Table struct {
	models   map[string]Rate
	fallback Rate
}

// Option configures a Table.
type Option func(*Table)

// WithFallback overrides the rate used when the table is empty.
func WithFallback(r Rate) Option {
	return func(t *Table) {
		t.fallback = r
	}
}

// NewTable builds a Table from pricing data. data may be nil.
func NewTable(data *Data, opts ...Option) *Table {
	t := &Table{models: map[string]Rate{}, fallback: DefaultFallback}
	if data != nil {
		for name, rate := range data.Models {
			t.models[name] = rate
		}
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Empty reports whether no rates are loaded.
func (t *Table) Empty() bool {
	return t == nil || len(t.models) == 0
}

// Models returns the table's model names in sorted order.
func (t *Table) Models() []string {
	if t == nil {
		return nil
	}
	names := make([]string, 0, len(t.models))
	for name := range t.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup resolves a rate: the model's own entry, then the default entry,
// then the hardcoded fallback.
func (t *Table) Lookup(model string) Lookup {
	if t.Empty() {
		fb := DefaultFallback
		if t != nil {
			fb = t.fallback
		}
		return Lookup{Rate: fb, Source: Fallback, Reason: "pricing table not loaded"}
	}
	if rate, ok := t.models[model]; ok {
		return Lookup{Rate: rate, Source: Found}
	}
	if rate, ok := t.models[DefaultModel]; ok {
		return Lookup{Rate: rate, Source: Fallback, Reason: fmt.Sprintf("no pricing for %q, using default", model)}
	}
	return Lookup{Rate: t.fallback, Source: Fallback, Reason: fmt.Sprintf("no pricing for %q and no default entry", model)}
}

// RouterRate returns the router surcharge rate.
func (t *Table) RouterRate() Rate {
	if t != nil {
		if rate, ok := t.models[RouterModel]; ok {
			return rate
		}
	}
	return DefaultRouterRate
}

// Breakdown itemizes a cost. For router costs InputCost includes the surcharge.
type Breakdown struct {
	InputCost           float64 `json:"input_cost"`
	UnderlyingInputCost float64 `json:"underlying_input_cost"`
	RouterSurcharge     float64 `json:"router_surcharge"`
	OutputCost          float64 `json:"output_cost"`
	Total               float64 `json:"total"`
}

func perMillion(tokens int, ratePer1M float64) float64 {
	return float64(tokens) / 1_000_000 * ratePer1M
}

// RouterCost prices a router call: input at router + underlying rate,
// output at the underlying model's rate only.
func (t *Table) RouterCost(model string, promptTokens, completionTokens int) (Breakdown, Lookup) {
	lookup := t.Lookup(model)
	router := t.RouterRate()
	b := Breakdown{
		UnderlyingInputCost: perMillion(promptTokens, lookup.Rate.InputPer1M),
		RouterSurcharge:     perMillion(promptTokens, router.InputPer1M),
		OutputCost:          perMillion(completionTokens, lookup.Rate.OutputPer1M),
	}
	b.InputCost = b.UnderlyingInputCost + b.RouterSurcharge
	b.Total = b.InputCost + b.OutputCost
	return b, lookup
}

// BenchmarkCost prices a direct model call.
func (t *Table) BenchmarkCost(model string, promptTokens, completionTokens int) (Breakdown, Lookup) {
	lookup := t.Lookup(model)
	b := Breakdown{
		InputCost:  perMillion(promptTokens, lookup.Rate.InputPer1M),
		OutputCost: perMillion(completionTokens, lookup.Rate.OutputPer1M),
	}
	b.UnderlyingInputCost = b.InputCost
	b.Total = b.InputCost + b.OutputCost
	return b, lookup
}

// Round6 rounds a currency amount to six decimal places.
func Round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// Tracker collects the models that were priced with a fallback rate.
type Tracker struct {
	mu     sync.Mutex
	models map[string]struct{}
}

// Note records model when lookup used a fallback rate.
func (tr *Tracker) Note(model string, lookup Lookup) {
	if lookup.Source != Fallback || strings.TrimSpace(model) == "" {
		return
	}
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if tr.models == nil {
		tr.models = map[string]struct{}{}
	}
	tr.models[model] = struct{}{}
}

// Models returns the fallback-priced models, sorted and unique.
func (tr *Tracker) Models() []string {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	out := make([]string, 0, len(tr.models))
	for m := range tr.models {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

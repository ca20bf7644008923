// Package governance applies disclosure control to survey aggregates: it maps
// a sample size to a confidence tier and decides whether a value, a trend or a
// flow cell may be shown.
package governance

import (
	"errors"
	"fmt"
	"strings"

	"switching-insights-go/internal/types"
)

type Tier string

const (
	Publishable Tier = "publishable"
	Indicative  Tier = "indicative"
	Suppressed  Tier = "suppressed"
)

var ErrInvalidThresholds = errors.New("invalid governance thresholds")

// Thresholds are the sample-size cut-offs. DevOverride is only read by
// NewDevelopment and has no effect on an engine built with New.
type Thresholds struct {
	Publishable     int `mapstructure:"publishable" yaml:"publishable"`
	Indicative      int `mapstructure:"indicative" yaml:"indicative"`
	SuppressedBelow int `mapstructure:"suppressed_below" yaml:"suppressed_below"`
	DevOverride     int `mapstructure:"dev_override" yaml:"dev_override"`

	MinMarketBase           int `mapstructure:"min_market_base" yaml:"min_market_base"`
	FlowCellMin             int `mapstructure:"flow_cell_min" yaml:"flow_cell_min"`
	EligibleInsurersWarning int `mapstructure:"eligible_insurers_warning" yaml:"eligible_insurers_warning"`
}

// DefaultThresholds are the production values.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Publishable:             50,
		Indicative:              30,
		SuppressedBelow:         30,
		MinMarketBase:           100,
		FlowCellMin:             10,
		EligibleInsurersWarning: 5,
	}
}

// Validate checks the cut-offs. SuppressedBelow must equal Indicative: it is
// the floor quoted in suppression messages and applied to trend halves, and
// ConfidenceTier suppresses everything below Indicative.
func (t Thresholds) Validate() error {
	switch {
	case t.Publishable < 0, t.Indicative < 0, t.SuppressedBelow < 0, t.DevOverride < 0:
		return fmt.Errorf("%w: negative threshold", ErrInvalidThresholds)
	case t.Indicative > t.Publishable:
		return fmt.Errorf("%w: indicative %d above publishable %d", ErrInvalidThresholds, t.Indicative, t.Publishable)
	case t.SuppressedBelow > t.Publishable:
		return fmt.Errorf("%w: suppressed_below %d above publishable %d", ErrInvalidThresholds, t.SuppressedBelow, t.Publishable)
	case t.SuppressedBelow != t.Indicative:
		return fmt.Errorf("%w: suppressed_below %d must equal indicative %d", ErrInvalidThresholds, t.SuppressedBelow, t.Indicative)
	}
	return nil
}

// Engine evaluates sample sizes against a fixed set of thresholds.
type Engine struct {
	publishable     int
	indicative      int
	suppressedBelow int
	limits          Thresholds
	development     bool
}

// New builds a production engine. DevOverride is ignored.
func New(t Thresholds) (*Engine, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		publishable:     t.Publishable,
		indicative:      t.Indicative,
		suppressedBelow: t.SuppressedBelow,
		limits:          t,
	}, nil
}

// NewDevelopment builds an engine whose publish threshold is loosened to
// DevOverride, for internal testing against small demo extracts.
func NewDevelopment(t Thresholds) (*Engine, error) {
	if t.DevOverride <= 0 {
		return nil, fmt.Errorf("%w: development engine requires a positive dev_override", ErrInvalidThresholds)
	}
	e, err := New(t)
	if err != nil {
		return nil, err
	}
	e.publishable = min(e.publishable, t.DevOverride)
	e.indicative = min(e.indicative, t.DevOverride)
	e.suppressedBelow = min(e.suppressedBelow, t.DevOverride)
	e.development = true
	return e, nil
}

// Development reports whether the engine runs with the override.
func (e *Engine) Development() bool { return e.development }

// PublishableThreshold is the effective publish cut-off.
func (e *Engine) PublishableThreshold() int { return e.publishable }

// MinimumThreshold is the effective suppression floor.
func (e *Engine) MinimumThreshold() int { return e.suppressedBelow }

func mustCount(n int) {
	if n < 0 {
		panic(fmt.Sprintf("governance: negative sample size %d", n))
	}
}

// ConfidenceTier maps a sample size to its tier. Negative n panics.
func (e *Engine) ConfidenceTier(n int) Tier {
	mustCount(n)
	switch {
	case n >= e.publishable:
		return Publishable
	case n >= e.indicative:
		return Indicative
	default:
		return Suppressed
	}
}

// Decision is the display verdict for a single value.
type Decision struct {
	Show    bool    `json:"show"`
	Tier    Tier    `json:"tier"`
	Message *string `json:"message"`
}

// EvaluateDisplay hides suppressed values and attaches a caution to
// indicative ones.
func (e *Engine) EvaluateDisplay(n int) Decision {
	tier := e.ConfidenceTier(n)
	switch tier {
	case Suppressed:
		msg := fmt.Sprintf("Insufficient data: only %d responses. A minimum of %d is required.", n, e.suppressedBelow)
		return Decision{Show: false, Tier: tier, Message: &msg}
	case Indicative:
		msg := fmt.Sprintf("Indicative result based on %d responses (small sample size).", n)
		return Decision{Show: true, Tier: tier, Message: &msg}
	default:
		return Decision{Show: true, Tier: tier}
	}
}

type TrendDecision struct {
	Show    bool    `json:"show"`
	Message *string `json:"message"`
}

// EvaluateTrendDisplay requires both periods to clear the suppression floor.
func (e *Engine) EvaluateTrendDisplay(nPeriodA, nPeriodB int) TrendDecision {
	mustCount(nPeriodA)
	mustCount(nPeriodB)
	if nPeriodA < e.suppressedBelow || nPeriodB < e.suppressedBelow {
		msg := "Insufficient data in one or both comparison periods for trend analysis."
		return TrendDecision{Show: false, Message: &msg}
	}
	return TrendDecision{Show: true}
}

// Metric is an aggregate value with the count it was computed over.
type Metric struct {
	Value          types.Rate `json:"value"`
	Count          int        `json:"count"`
	ConfidenceTier Tier       `json:"confidence_tier"`
}

func (e *Engine) Metric(value types.Rate, n int) Metric {
	return Metric{Value: value, Count: n, ConfidenceTier: e.ConfidenceTier(n)}
}

// Comparison is the insurer-vs-market display check.
type Comparison struct {
	CanShowInsurer bool    `json:"can_show_insurer"`
	CanShowMarket  bool    `json:"can_show_market"`
	InsurerN       int     `json:"insurer_n"`
	MarketN        int     `json:"market_n"`
	Message        *string `json:"message"`
	Warning        *string `json:"warning"`
}

// ActiveFilter is a named demographic filter shown in suppression messages.
type ActiveFilter struct {
	Name  string
	Value string
}

// CheckComparison gates an insurer figure on the publish threshold and the
// market benchmark on the market base.
func (e *Engine) CheckComparison(insurerN, marketN int, active []ActiveFilter) Comparison {
	mustCount(insurerN)
	mustCount(marketN)
	c := Comparison{
		CanShowInsurer: insurerN >= e.publishable,
		CanShowMarket:  marketN >= e.limits.MinMarketBase,
		InsurerN:       insurerN,
		MarketN:        marketN,
	}
	if !c.CanShowInsurer {
		msg := fmt.Sprintf("Insufficient data: %d responses (minimum %d required). ", insurerN, e.publishable)
		if len(active) > 0 {
			parts := make([]string, 0, len(active))
			for _, f := range active {
				parts = append(parts, f.Name+": "+f.Value)
			}
			msg += "Active filters: " + strings.Join(parts, ", ") + ". "
		}
		msg += "Try broadening your selection."
		c.Message = &msg
	}
	if len(active) >= 2 {
		w := fmt.Sprintf("Fewer than %d insurers may meet threshold with current filters.", e.limits.EligibleInsurersWarning)
		c.Warning = &w
	}
	return c
}

// SuppressFlowCell reports whether a switching-matrix cell is too small to show.
func (e *Engine) SuppressFlowCell(count int) bool {
	mustCount(count)
	return count < e.limits.FlowCellMin
}

package discount

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/order-discounts/internal/domain/order"
)

var two = decimal.NewFromInt(2)

// Calculator applies a rule set to orders and combines the rule outputs into
// a single discount using the top-two-average policy.
//
// A Calculator is immutable after construction and safe for concurrent use.
type Calculator struct {
	rules []Rule
	today time.Time
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithToday fixes the reference date used by date-sensitive rules.
func WithToday(today time.Time) Option {
	return func(c *Calculator) {
		c.today = today
	}
}

// WithRules replaces the default rule set.
func WithRules(rules ...Rule) Option {
	return func(c *Calculator) {
		c.rules = slices.Clone(rules)
	}
}

// NewCalculator returns a Calculator using the fixed rule set and the current
// time as reference date unless overridden by opts.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		rules: rules[:],
		today: time.Now(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Today returns the reference date the calculator scores against.
func (c *Calculator) Today() time.Time {
	return c.today
}

// Evaluate runs every rule against the order, in rule order.
func (c *Calculator) Evaluate(o order.Order) []Score {
	scores := make([]Score, len(c.rules))
	for i, r := range c.rules {
		scores[i] = Score{Rule: r.Name, Value: r.Eval(o, c.today)}
	}
	return scores
}

// Score evaluates the order and returns it annotated with the combined
// discount, together with the individual rule outputs.
func (c *Calculator) Score(o order.Order) (order.Order, []Score) {
	scores := c.Evaluate(o)
	values := make([]decimal.Decimal, len(scores))
	for i, s := range scores {
		values[i] = s.Value
	}
	return o.WithDiscount(Combine(values)), scores
}

// Apply returns a copy of the order with its final discount set.
func (c *Calculator) Apply(o order.Order) order.Order {
	scored, _ := c.Score(o)
	return scored
}

// Combine averages the two largest values, falls back to the single value or
// zero when fewer are given, and rounds the result once to 2 decimal places,
// halves away from zero.
func Combine(values []decimal.Decimal) decimal.Decimal {
	sorted := slices.Clone(values)
	slices.SortFunc(sorted, func(a, b decimal.Decimal) int {
		return b.Cmp(a)
	})

	var combined decimal.Decimal
	switch {
	case len(sorted) >= 2:
		combined = sorted[0].Add(sorted[1]).Div(two)
	case len(sorted) == 1:
		combined = sorted[0]
	default:
		combined = zero
	}

	return combined.Round(2)
}

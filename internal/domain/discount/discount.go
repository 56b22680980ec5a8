package discount

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/order-discounts/internal/domain/order"
)

// EvalFunc computes a candidate discount fraction for an order. today is the
// reference date of the batch; only date-sensitive rules read it.
type EvalFunc func(o order.Order, today time.Time) decimal.Decimal

// Rule is a named discount strategy. Rules are pure and total: they never
// fail and never read each other's output.
type Rule struct {
	Name string
	Eval EvalFunc
}

// Score is the output of one rule for one order.
type Score struct {
	Rule  string
	Value decimal.Decimal
}

// Rule names, in evaluation order.
const (
	RuleQuantity    = "quantity"
	RuleVisa        = "visa"
	RuleAppChannel  = "app_channel"
	RuleExpiry      = "expiry"
	RuleSpecialDate = "special_date"
	RuleProduct     = "product"
)

// rules is the fixed rule set, built once and shared by every Calculator.
var rules = [...]Rule{
	{Name: RuleQuantity, Eval: quantityDiscount},
	{Name: RuleVisa, Eval: visaDiscount},
	{Name: RuleAppChannel, Eval: appChannelDiscount},
	{Name: RuleExpiry, Eval: expiryDiscount},
	{Name: RuleSpecialDate, Eval: specialDateDiscount},
	{Name: RuleProduct, Eval: productDiscount},
}

// Rules returns a copy of the fixed rule set in evaluation order.
func Rules() []Rule {
	return slices.Clone(rules[:])
}

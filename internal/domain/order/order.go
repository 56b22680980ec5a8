package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order represents a single purchase transaction scored for discounts.
//
// Order is a value: it is never modified after construction. The only
// derived copy is the one returned by WithDiscount.
type Order struct {
	OrderDate     time.Time
	ProductName   string
	ExpiryDate    time.Time
	Quantity      int
	UnitPrice     decimal.Decimal
	Channel       string
	PaymentMethod string
	Discount      decimal.Decimal
}

// WithDiscount returns a copy of the order with Discount set to d.
func (o Order) WithDiscount(d decimal.Decimal) Order {
	o.Discount = d
	return o
}

// Discounted reports whether the order received a positive discount.
func (o Order) Discounted() bool {
	return o.Discount.IsPositive()
}

package discount

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/order-discounts/internal/domain/order"
)

var (
	zero = decimal.Zero

	fivePercent    = decimal.RequireFromString("0.05")
	sevenPercent   = decimal.RequireFromString("0.07")
	tenPercent     = decimal.RequireFromString("0.10")
	fifteenPercent = decimal.RequireFromString("0.15")
	halfOff        = decimal.RequireFromString("0.5")
)

const (
	// expiryWindowDays is the number of days before expiry at which the
	// expiry rule starts granting 1% per remaining day.
	expiryWindowDays = 30
)

// specialYear, specialMonth and specialDay identify the promotional order date.
const (
	specialYear  = 2023
	specialMonth = time.March
	specialDay   = 23
)

// quantityDiscount rewards larger baskets. Quantity 15 matches no band.
func quantityDiscount(o order.Order, _ time.Time) decimal.Decimal {
	q := o.Quantity
	switch {
	case q >= 6 && q <= 9:
		return fivePercent
	case q >= 10 && q <= 14:
		return sevenPercent
	case q > 15:
		return tenPercent
	default:
		return zero
	}
}

func visaDiscount(o order.Order, _ time.Time) decimal.Decimal {
	if strings.EqualFold(o.PaymentMethod, "visa") {
		return fivePercent
	}
	return zero
}

// appChannelDiscount applies to orders placed through the app, banded by quantity.
func appChannelDiscount(o order.Order, _ time.Time) decimal.Decimal {
	if !strings.EqualFold(o.Channel, "app") {
		return zero
	}

	q := o.Quantity
	switch {
	case q >= 1 && q <= 5:
		return fivePercent
	case q >= 6 && q <= 10:
		return tenPercent
	case q >= 11 && q <= 15:
		return fifteenPercent
	default:
		return zero
	}
}

// expiryDiscount grants 1% per day remaining once the product is within the
// expiry window. Already expired products yield a negative value.
func expiryDiscount(o order.Order, today time.Time) decimal.Decimal {
	days := daysBetween(today, o.ExpiryDate)
	if days > expiryWindowDays {
		return zero
	}
	return decimal.New(int64(days), -2)
}

func specialDateDiscount(o order.Order, _ time.Time) decimal.Decimal {
	y, m, d := o.OrderDate.Date()
	if y == specialYear && m == specialMonth && d == specialDay {
		return halfOff
	}
	return zero
}

// productDiscount favours cheese over wine when a name mentions both.
func productDiscount(o order.Order, _ time.Time) decimal.Decimal {
	name := strings.ToLower(o.ProductName)
	switch {
	case strings.Contains(name, "cheese"):
		return tenPercent
	case strings.Contains(name, "wine"):
		return fivePercent
	default:
		return zero
	}
}

// daysBetween returns the number of whole calendar days from one date to
// another, ignoring time of day and location.
func daysBetween(from, to time.Time) int {
	return int(civilDate(to).Sub(civilDate(from)).Hours() / 24)
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

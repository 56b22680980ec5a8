package orderio

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/order-discounts/internal/domain/order"
)

const (
	// InputFields is the number of fields in a raw order record.
	InputFields = 7
	// OutputFields is the number of fields in a scored order record.
	OutputFields = 8

	inputSeparator  = ","
	outputSeparator = ", "
)

// Header is the first line of every scored output.
const Header = "order_date, product_name, expiry_date, quantity, unit_price, channel, payment_method, discount"

// orderDateLayouts are tried in order. Timestamps without an offset are UTC.
var orderDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
}

// Record is one raw line read from a source.
type Record struct {
	Line int
	Text string
}

// Parse converts the record into an order, stamping parse errors with the
// record's line number.
func (r Record) Parse() (order.Order, error) {
	o, err := ParseRecord(r.Text)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Line = r.Line
		}
		return order.Order{}, err
	}
	return o, nil
}

// ParseRecord converts one comma-separated line with exactly 7 fields into an
// order with a zero discount.
func ParseRecord(line string) (order.Order, error) {
	fields, err := splitFields(line, InputFields)
	if err != nil {
		return order.Order{}, err
	}
	return parseOrder(fields)
}

// ParseScoredRecord converts one line of scored output, as produced by
// FormatRecord, back into an order including its discount.
func ParseScoredRecord(line string) (order.Order, error) {
	fields, err := splitFields(line, OutputFields)
	if err != nil {
		return order.Order{}, err
	}

	o, err := parseOrder(fields[:InputFields])
	if err != nil {
		return order.Order{}, err
	}

	discount, err := decimal.NewFromString(fields[7])
	if err != nil {
		return order.Order{}, &ParseError{Field: "discount", Value: fields[7], Err: err}
	}

	return o.WithDiscount(discount), nil
}

// FormatRecord renders a scored order as one output line.
func FormatRecord(o order.Order) string {
	return strings.Join([]string{
		o.OrderDate.Format(time.RFC3339Nano),
		o.ProductName,
		o.ExpiryDate.Format(time.DateOnly),
		strconv.Itoa(o.Quantity),
		o.UnitPrice.String(),
		o.Channel,
		o.PaymentMethod,
		o.Discount.String(),
	}, outputSeparator)
}

func splitFields(line string, want int) ([]string, error) {
	fields := strings.Split(line, inputSeparator)
	if len(fields) != want {
		return nil, &ParseError{
			Err: errors.Errorf("expected %d fields, got %d", want, len(fields)),
		}
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields, nil
}

func parseOrder(fields []string) (order.Order, error) {
	orderDate, err := parseOrderDate(fields[0])
	if err != nil {
		return order.Order{}, &ParseError{Field: "order_date", Value: fields[0], Err: err}
	}

	expiryDate, err := time.Parse(time.DateOnly, fields[2])
	if err != nil {
		return order.Order{}, &ParseError{Field: "expiry_date", Value: fields[2], Err: err}
	}

	quantity, err := strconv.Atoi(fields[3])
	if err != nil {
		return order.Order{}, &ParseError{Field: "quantity", Value: fields[3], Err: err}
	}
	if quantity < 0 {
		return order.Order{}, &ParseError{Field: "quantity", Value: fields[3], Err: errors.New("must not be negative")}
	}

	unitPrice, err := decimal.NewFromString(fields[4])
	if err != nil {
		return order.Order{}, &ParseError{Field: "unit_price", Value: fields[4], Err: err}
	}
	if unitPrice.IsNegative() {
		return order.Order{}, &ParseError{Field: "unit_price", Value: fields[4], Err: errors.New("must not be negative")}
	}

	return order.Order{
		OrderDate:     orderDate,
		ProductName:   fields[1],
		ExpiryDate:    expiryDate,
		Quantity:      quantity,
		UnitPrice:     unitPrice,
		Channel:       fields[5],
		PaymentMethod: fields[6],
		Discount:      decimal.Zero,
	}, nil
}

func parseOrderDate(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range orderDateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/order-discounts/internal/domain/order"
)

type mockCopier struct {
	table   pgx.Identifier
	columns []string
	rows    [][]any
	n       int64
	err     error
	calls   int
}

func (m *mockCopier) CopyFrom(_ context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error) {
	m.calls++
	m.table = table
	m.columns = columns
	for src.Next() {
		values, err := src.Values()
		if err != nil {
			return 0, err
		}
		m.rows = append(m.rows, values)
	}
	if m.err != nil {
		return 0, m.err
	}
	if m.n != 0 {
		return m.n, nil
	}
	return int64(len(m.rows)), nil
}

func testOrders() []order.Order {
	base := order.Order{
		OrderDate:     time.Date(2023, time.April, 18, 18, 18, 40, 0, time.UTC),
		ExpiryDate:    time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC),
		UnitPrice:     decimal.RequireFromString("1.20"),
		Channel:       "Store",
		PaymentMethod: "Cash",
	}

	milk := base
	milk.ProductName = "Milk"
	milk.Quantity = 8

	cheese := base
	cheese.ProductName = "Cheese Wheel"
	cheese.Quantity = 12

	return []order.Order{
		milk.WithDiscount(decimal.RequireFromString("0.03")),
		cheese.WithDiscount(decimal.RequireFromString("0.13")),
	}
}

func TestDiscountRepository_SaveRun(t *testing.T) {
	db := &mockCopier{}
	repo := NewDiscountRepository(db)
	runID := uuid.New()

	require.NoError(t, repo.SaveRun(context.Background(), runID, testOrders()))

	assert.Equal(t, pgx.Identifier{"order_discounts"}, db.table)
	assert.Equal(t, discountColumns, db.columns)
	require.Len(t, db.rows, 2)

	first := db.rows[0]
	require.Len(t, first, len(discountColumns))
	assert.Equal(t, pgtype.UUID{Bytes: runID, Valid: true}, first[0])
	assert.Equal(t, int32(1), first[1])
	assert.Equal(t, "Milk", first[3])
	assert.Equal(t, int64(8), first[5])
	assert.True(t, decimal.RequireFromString("0.03").Equal(first[9].(decimal.Decimal)))

	assert.Equal(t, int32(2), db.rows[1][1])
}

func TestDiscountRepository_SaveRun_LargeQuantity(t *testing.T) {
	db := &mockCopier{}
	orders := testOrders()
	orders[0].Quantity = 4294967297

	require.NoError(t, NewDiscountRepository(db).SaveRun(context.Background(), uuid.New(), orders))

	require.Len(t, db.rows, 2)
	assert.Equal(t, int64(4294967297), db.rows[0][5])
}

func TestDiscountRepository_SaveRun_Empty(t *testing.T) {
	db := &mockCopier{}

	require.NoError(t, NewDiscountRepository(db).SaveRun(context.Background(), uuid.New(), nil))
	assert.Zero(t, db.calls)
}

func TestDiscountRepository_SaveRun_Errors(t *testing.T) {
	tests := []struct {
		name     string
		db       *mockCopier
		wantText string
	}{
		{name: "copy fails", db: &mockCopier{err: errors.New("connection reset")}, wantText: "connection reset"},
		{name: "short copy", db: &mockCopier{n: 1}, wantText: "copied 1 of 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewDiscountRepository(tt.db).SaveRun(context.Background(), uuid.New(), testOrders())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantText)
		})
	}
}

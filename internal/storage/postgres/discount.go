package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/xenking/order-discounts/internal/domain/order"
)

var discountColumns = []string{
	"run_id",
	"seq",
	"order_date",
	"product_name",
	"expiry_date",
	"quantity",
	"unit_price",
	"channel",
	"payment_method",
	"discount",
}

// Copier is the subset of *pgxpool.Pool used for bulk inserts.
type Copier interface {
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, rows pgx.CopyFromSource) (int64, error)
}

// DiscountRepository stores scored orders in the order_discounts table.
type DiscountRepository struct {
	db Copier
}

// NewDiscountRepository returns a DiscountRepository that writes through db.
func NewDiscountRepository(db Copier) *DiscountRepository {
	return &DiscountRepository{db: db}
}

// SaveRun bulk-inserts the scored orders of one run. Rows are keyed by run ID
// and their 1-based position in the output.
func (r *DiscountRepository) SaveRun(ctx context.Context, runID uuid.UUID, orders []order.Order) error {
	if len(orders) == 0 {
		return nil
	}

	n, err := r.db.CopyFrom(ctx, pgx.Identifier{"order_discounts"}, discountColumns, pgx.CopyFromRows(discountRows(runID, orders)))
	if err != nil {
		return fmt.Errorf("copying %d scored orders for run %s: %w", len(orders), runID, err)
	}
	if n != int64(len(orders)) {
		return fmt.Errorf("copied %d of %d scored orders for run %s", n, len(orders), runID)
	}

	return nil
}

func discountRows(runID uuid.UUID, orders []order.Order) [][]any {
	id := pgtype.UUID{Bytes: runID, Valid: true}

	rows := make([][]any, len(orders))
	for i, o := range orders {
		rows[i] = []any{
			id,
			int32(i + 1),
			o.OrderDate,
			o.ProductName,
			o.ExpiryDate,
			int64(o.Quantity),
			o.UnitPrice,
			o.Channel,
			o.PaymentMethod,
			o.Discount,
		}
	}
	return rows
}

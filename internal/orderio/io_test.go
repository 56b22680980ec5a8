package orderio

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	pgzip "github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/order-discounts/internal/domain/order"
)

const sampleInput = `timestamp,product_name,expiry_date,quantity,unit_price,channel,payment_method
2023-04-18T18:18:40Z,Milk,2023-06-01,8,1.20,Store,Cash

2023-03-23T09:00:00Z,Bread,2023-06-01,1,2.50,Store,Cash
`

func TestRead(t *testing.T) {
	records, err := Read(context.Background(), strings.NewReader(sampleInput), "sample")
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, Record{Line: 2, Text: "2023-04-18T18:18:40Z,Milk,2023-06-01,8,1.20,Store,Cash"}, records[0])
	assert.Equal(t, 4, records[1].Line)
}

func TestRead_CRLF(t *testing.T) {
	input := "header\r\n2023-04-18T18:18:40Z,Milk,2023-06-01,8,1.20,Store,Cash\r\n"

	records, err := Read(context.Background(), strings.NewReader(input), "crlf")
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.False(t, strings.HasSuffix(records[0].Text, "\r"))
}

func TestRead_HeaderOnly(t *testing.T) {
	records, err := Read(context.Background(), strings.NewReader("header\n"), "empty")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRead_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Read(ctx, strings.NewReader(sampleInput), "sample")
	require.ErrorIs(t, err, context.Canceled)
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))

	require.ErrorIs(t, err, ErrUnavailable)
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "open", ioErr.Op)
}

func TestReadFile_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.csv.gz")

	var buf bytes.Buffer
	gz := pgzip.NewWriter(&buf)
	_, err := gz.Write([]byte(sampleInput))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	records, err := ReadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestReadFile_NotGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.csv.gz")
	require.NoError(t, os.WriteFile(path, []byte(sampleInput), 0o600))

	_, err := ReadFile(context.Background(), path)
	require.ErrorIs(t, err, ErrUnavailable)
}

func scoredOrders(t *testing.T) []order.Order {
	t.Helper()

	records, err := Read(context.Background(), strings.NewReader(sampleInput), "sample")
	require.NoError(t, err)

	orders := make([]order.Order, 0, len(records))
	for _, r := range records {
		o, err := r.Parse()
		require.NoError(t, err)
		orders = append(orders, o.WithDiscount(d("0.03")))
	}
	return orders
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "buffer", scoredOrders(t)))

	want := Header + "\n" +
		"2023-04-18T18:18:40Z, Milk, 2023-06-01, 8, 1.2, Store, Cash, 0.03\n" +
		"2023-03-23T09:00:00Z, Bread, 2023-06-01, 1, 2.5, Store, Cash, 0.03\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteFile_RoundTrip(t *testing.T) {
	for _, name := range []string{"out.csv", "out.csv.gz"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			orders := scoredOrders(t)

			require.NoError(t, WriteFile(path, orders))

			records, err := ReadFile(context.Background(), path)
			require.NoError(t, err)
			require.Len(t, records, len(orders))

			for i, r := range records {
				back, err := ParseScoredRecord(r.Text)
				require.NoError(t, err)
				assert.Equal(t, orders[i].ProductName, back.ProductName)
				assert.True(t, orders[i].Discount.Equal(back.Discount))
			}
		})
	}
}

func TestWriteFile_Unwritable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "out.csv")

	err := WriteFile(path, nil)
	require.ErrorIs(t, err, ErrUnavailable)
}

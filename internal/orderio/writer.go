package orderio

import (
	"bufio"
	"io"
	"os"

	pgzip "github.com/klauspost/pgzip"

	"github.com/xenking/order-discounts/internal/domain/order"
)

// WriteFile writes the header and one line per order to path, replacing any
// existing file. Paths ending in .gz are compressed.
func WriteFile(path string, orders []order.Order) (err error) {
	if path == Stdio {
		return Write(os.Stdout, path, orders)
	}

	f, err := os.Create(path)
	if err != nil {
		return &IOError{Op: "create", Path: path, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &IOError{Op: "close", Path: path, Err: cerr}
		}
	}()

	if !isGzip(path) {
		return Write(f, path, orders)
	}

	gz := pgzip.NewWriter(f)
	if err := Write(gz, path, orders); err != nil {
		_ = gz.Close()
		return err
	}
	if err := gz.Close(); err != nil {
		return &IOError{Op: "compress", Path: path, Err: err}
	}
	return nil
}

// Write writes the header and one line per order to w. name is only used in
// errors.
func Write(w io.Writer, name string, orders []order.Order) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(Header + "\n"); err != nil {
		return &IOError{Op: "write", Path: name, Err: err}
	}
	for _, o := range orders {
		if _, err := bw.WriteString(FormatRecord(o) + "\n"); err != nil {
			return &IOError{Op: "write", Path: name, Err: err}
		}
	}

	if err := bw.Flush(); err != nil {
		return &IOError{Op: "flush", Path: name, Err: err}
	}
	return nil
}

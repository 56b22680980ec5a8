package orderio

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	pgzip "github.com/klauspost/pgzip"
)

// Stdio is the path that selects standard input or output.
const Stdio = "-"

const maxLineSize = 1 << 20

// ReadFile reads every record from path. The first line is a header and is
// discarded. Paths ending in .gz are decompressed.
func ReadFile(ctx context.Context, path string) ([]Record, error) {
	if path == Stdio {
		return Read(ctx, os.Stdin, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if isGzip(path) {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, &IOError{Op: "create gzip reader for", Path: path, Err: err}
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	return Read(ctx, r, path)
}

// Read reads records from r, discarding the header line and skipping blank
// lines. name is only used in errors.
func Read(ctx context.Context, r io.Reader, name string) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		records []Record
		line    int
	)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line++
		if line == 1 {
			continue
		}

		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		records = append(records, Record{Line: line, Text: text})
	}

	if err := scanner.Err(); err != nil {
		return nil, &IOError{Op: "scan", Path: name, Err: err}
	}

	return records, nil
}

func isGzip(path string) bool {
	return strings.HasSuffix(path, ".gz")
}

// Package report renders the run summary of a discount batch.
package report

import (
	"os"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
)

// Summary describes one completed batch run.
type Summary struct {
	RunID              uuid.UUID
	ReferenceDate      time.Time
	Input              string
	Output             string
	Records            int
	Processed          int
	Discounted         int
	Malformed          int
	PossibleDuplicates int
	Duration           time.Duration
}

// Encode writes the summary as a JSON object.
func (s Summary) Encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("run_id", func(e *jx.Encoder) { e.Str(s.RunID.String()) })
		e.Field("reference_date", func(e *jx.Encoder) { e.Str(s.ReferenceDate.Format(time.DateOnly)) })
		e.Field("input", func(e *jx.Encoder) { e.Str(s.Input) })
		e.Field("output", func(e *jx.Encoder) { e.Str(s.Output) })
		e.Field("records", func(e *jx.Encoder) { e.Int(s.Records) })
		e.Field("processed", func(e *jx.Encoder) { e.Int(s.Processed) })
		e.Field("discounted", func(e *jx.Encoder) { e.Int(s.Discounted) })
		e.Field("malformed", func(e *jx.Encoder) { e.Int(s.Malformed) })
		e.Field("possible_duplicates", func(e *jx.Encoder) { e.Int(s.PossibleDuplicates) })
		e.Field("duration_ms", func(e *jx.Encoder) { e.Int64(s.Duration.Milliseconds()) })
	})
}

// MarshalJSON implements json.Marshaler.
func (s Summary) MarshalJSON() ([]byte, error) {
	var e jx.Encoder
	s.Encode(&e)
	return e.Bytes(), nil
}

// WriteFile writes the summary as JSON to path.
func WriteFile(path string, s Summary) error {
	data, err := s.MarshalJSON()
	if err != nil {
		return errors.Wrap(err, "encode summary")
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return errors.Wrapf(err, "write summary %s", path)
	}
	return nil
}

// Package batch scores a finite list of raw order records.
package batch

import (
	"context"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/order-discounts/internal/domain/discount"
	"github.com/xenking/order-discounts/internal/domain/order"
	"github.com/xenking/order-discounts/internal/orderio"
)

// Policy decides what happens to a record that cannot be parsed.
type Policy string

const (
	// PolicyAbort fails the whole batch on the first malformed record.
	PolicyAbort Policy = "abort"
	// PolicySkip drops malformed records, reports them and continues.
	PolicySkip Policy = "skip"
)

// duplicateFPR is the false positive rate of the duplicate detector.
const duplicateFPR = 0.001

// Scorer annotates an order with its final discount.
type Scorer interface {
	Score(o order.Order) (order.Order, []discount.Score)
}

var _ Scorer = (*discount.Calculator)(nil)

// Config controls a Processor.
type Config struct {
	// Workers is the number of goroutines scoring orders. Values below 2
	// score sequentially.
	Workers     int
	OnMalformed Policy
}

// Result holds the outcome of one batch.
type Result struct {
	// Orders are the scored orders in input order.
	Orders []order.Order
	// Discounted is the number of orders with a discount above zero.
	Discounted int
	// Malformed lists records dropped under PolicySkip.
	Malformed []*orderio.ParseError
	// PossibleDuplicates counts records whose exact text probably appeared
	// earlier in the batch.
	PossibleDuplicates int
}

// Processor turns raw records into scored orders.
type Processor struct {
	scorer Scorer
	cfg    Config
	tracer trace.Tracer
}

// Option configures a Processor.
type Option func(*Processor)

// WithTracer sets the tracer used for stage spans.
func WithTracer(t trace.Tracer) Option {
	return func(p *Processor) {
		p.tracer = t
	}
}

// NewProcessor creates a Processor. An empty policy means PolicyAbort.
func NewProcessor(scorer Scorer, cfg Config, opts ...Option) (*Processor, error) {
	switch cfg.OnMalformed {
	case "":
		cfg.OnMalformed = PolicyAbort
	case PolicyAbort, PolicySkip:
	default:
		return nil, errors.Errorf("unsupported malformed record policy: %q", cfg.OnMalformed)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	p := &Processor{
		scorer: scorer,
		cfg:    cfg,
		tracer: noop.NewTracerProvider().Tracer(""),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Process parses and scores every record. Under PolicyAbort the first
// malformed record is returned as an error matching
// orderio.ErrMalformedRecord and no result is produced.
func (p *Processor) Process(ctx context.Context, records []orderio.Record) (*Result, error) {
	ctx, span := p.tracer.Start(ctx, "batch.Process",
		trace.WithAttributes(attribute.Int("batch.records", len(records))),
	)
	defer span.End()

	parsed, res, err := p.parse(ctx, records)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	scored, err := p.score(ctx, parsed)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "score orders")
	}

	res.Orders = scored
	for _, o := range scored {
		if o.Discounted() {
			res.Discounted++
		}
	}

	span.SetAttributes(
		attribute.Int("batch.orders", len(scored)),
		attribute.Int("batch.discounted", res.Discounted),
	)
	return res, nil
}

// parsedOrder keeps the source line next to the order for audit logging.
type parsedOrder struct {
	line  int
	order order.Order
}

func (p *Processor) parse(ctx context.Context, records []orderio.Record) ([]parsedOrder, *Result, error) {
	_, span := p.tracer.Start(ctx, "batch.Parse")
	defer span.End()

	lg := zctx.From(ctx)
	res := &Result{}
	seen := bloom.NewWithEstimates(uint(max(len(records), 1)), duplicateFPR)

	parsed := make([]parsedOrder, 0, len(records))
	for _, r := range records {
		if seen.TestAndAddString(r.Text) {
			res.PossibleDuplicates++
			lg.Warn("Possible duplicate record", zap.Int("line", r.Line))
		}

		o, err := r.Parse()
		if err != nil {
			var pe *orderio.ParseError
			if p.cfg.OnMalformed == PolicyAbort || !errors.As(err, &pe) {
				return nil, nil, err
			}
			lg.Warn("Skipping malformed record", zap.Int("line", r.Line), zap.Error(err))
			res.Malformed = append(res.Malformed, pe)
			continue
		}
		parsed = append(parsed, parsedOrder{line: r.Line, order: o})
	}

	return parsed, res, nil
}

func (p *Processor) score(ctx context.Context, parsed []parsedOrder) ([]order.Order, error) {
	ctx, span := p.tracer.Start(ctx, "batch.Score",
		trace.WithAttributes(attribute.Int("batch.workers", p.cfg.Workers)),
	)
	defer span.End()

	lg := zctx.From(ctx)
	scored := make([]order.Order, len(parsed))

	scoreOne := func(i int) {
		o, scores := p.scorer.Score(parsed[i].order)
		scored[i] = o

		if ce := lg.Check(zap.DebugLevel, "Order scored"); ce != nil {
			fields := make([]zap.Field, 0, len(scores)+3)
			fields = append(fields,
				zap.Int("line", parsed[i].line),
				zap.String("product", o.ProductName),
				zap.Stringer("discount", o.Discount),
			)
			for _, s := range scores {
				fields = append(fields, zap.Stringer(s.Rule, s.Value))
			}
			ce.Write(fields...)
		}
	}

	if p.cfg.Workers < 2 {
		for i := range parsed {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			scoreOne(i)
		}
		return scored, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for i := range parsed {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			scoreOne(i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return scored, nil
}

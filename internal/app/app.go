package app

import (
	"context"
	"os"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xenking/order-discounts/internal/batch"
	"github.com/xenking/order-discounts/internal/domain/discount"
	"github.com/xenking/order-discounts/internal/orderio"
	"github.com/xenking/order-discounts/internal/report"
	"github.com/xenking/order-discounts/internal/storage/postgres"
)

// Run scores one batch of orders. It is the single wiring point for the
// application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	return run(ctx, lg, m.TracerProvider(), m.MeterProvider(), cfg)
}

func run(ctx context.Context, lg *zap.Logger, tp trace.TracerProvider, mp metric.MeterProvider, cfg *Config) error {
	start := time.Now()
	runID := uuid.New()

	if cfg.AuditLog != "" {
		audit, closeAudit, err := withAuditLog(lg, cfg.AuditLog)
		if err != nil {
			return errors.Wrap(err, "open audit log")
		}
		defer func() {
			_ = audit.Sync()
			_ = closeAudit()
		}()
		lg = audit
	}
	lg = lg.With(zap.Stringer("run_id", runID))
	ctx = zctx.Base(ctx, lg)

	tracer := tp.Tracer(instrumentationName)
	ctx, span := tracer.Start(ctx, "discount.Run",
		trace.WithAttributes(attribute.String("discount.run_id", runID.String())),
	)
	defer span.End()

	metrics, err := newBatchMetrics(mp)
	if err != nil {
		return err
	}

	today, err := cfg.ReferenceDate(start)
	if err != nil {
		return err
	}
	lg.Info("Starting batch",
		zap.String("input", cfg.Input),
		zap.String("output", cfg.Output),
		zap.String("reference_date", today.Format(time.DateOnly)),
		zap.String("on_malformed", cfg.OnMalformed),
		zap.Int("workers", cfg.Workers),
	)

	calc := discount.NewCalculator(discount.WithToday(today))
	proc, err := batch.NewProcessor(calc, batch.Config{
		Workers:     cfg.Workers,
		OnMalformed: batch.Policy(cfg.OnMalformed),
	}, batch.WithTracer(tracer))
	if err != nil {
		return errors.Wrap(err, "create processor")
	}

	records, err := orderio.ReadFile(ctx, cfg.Input)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "read orders")
	}
	lg.Info("Read records", zap.Int("count", len(records)))

	res, err := proc.Process(ctx, records)
	if err != nil {
		if errors.Is(err, orderio.ErrMalformedRecord) {
			metrics.malformed.Add(ctx, 1)
		}
		span.RecordError(err)
		return errors.Wrap(err, "process orders")
	}

	// The output file is written last so a failed run leaves it untouched.
	if cfg.DatabaseURL != "" {
		if err := saveRun(ctx, cfg.DatabaseURL, runID, res); err != nil {
			span.RecordError(err)
			return errors.Wrap(err, "store scored orders")
		}
	}

	if err := orderio.WriteFile(cfg.Output, res.Orders); err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "write scored orders")
	}

	metrics.record(ctx, res)

	summary := report.Summary{
		RunID:              runID,
		ReferenceDate:      today,
		Input:              cfg.Input,
		Output:             cfg.Output,
		Records:            len(records),
		Processed:          len(res.Orders),
		Discounted:         res.Discounted,
		Malformed:          len(res.Malformed),
		PossibleDuplicates: res.PossibleDuplicates,
		Duration:           time.Since(start),
	}
	if cfg.Summary != "" {
		if err := report.WriteFile(cfg.Summary, summary); err != nil {
			return err
		}
	}

	lg.Info("Batch completed",
		zap.Int("processed", summary.Processed),
		zap.Int("discounted", summary.Discounted),
		zap.Int("malformed", summary.Malformed),
		zap.Int("possible_duplicates", summary.PossibleDuplicates),
		zap.Duration("duration", summary.Duration),
	)

	return nil
}

func saveRun(ctx context.Context, databaseURL string, runID uuid.UUID, res *batch.Result) error {
	lg := zctx.From(ctx)

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := postgres.NewDiscountRepository(pool).SaveRun(ctx, runID, res.Orders); err != nil {
		return err
	}

	lg.Info("Stored scored orders", zap.Int("count", len(res.Orders)))
	return nil
}

// withAuditLog tees every entry of lg, including debug entries, into a JSON
// file at path.
func withAuditLog(lg *zap.Logger, path string) (*zap.Logger, func() error, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, &orderio.IOError{Op: "open", Path: path, Err: err}
	}

	enc := zapcore.NewJSONEncoder(zapcore.EncoderConfig{
		MessageKey:     "message",
		LevelKey:       "level",
		TimeKey:        "@timestamp",
		NameKey:        "logger",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
	})
	core := zapcore.NewCore(enc, zapcore.AddSync(f), zapcore.DebugLevel)

	audit := lg.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, core)
	}))
	return audit, f.Close, nil
}

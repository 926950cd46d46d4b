package ingest

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AngelCh415/crm-dashboard/internal/config"
	"github.com/AngelCh415/crm-dashboard/internal/metrics"
	"github.com/AngelCh415/crm-dashboard/internal/models"
	"github.com/AngelCh415/crm-dashboard/internal/pipeline"
	"github.com/AngelCh415/crm-dashboard/internal/store"
	"github.com/AngelCh415/crm-dashboard/internal/telemetry"
)

// ETL runs one refresh: fetch the export, canonicalize it, assemble the
// pipeline, aggregate and store the snapshot.
type ETL struct {
	c      HTTPClient
	st     *store.MemoryStore
	log    *slog.Logger
	cfg    config.Config
	tel    *telemetry.Metrics
	tracer trace.Tracer
	now    func() time.Time

	asm *pipeline.Assembler
	agg *metrics.Aggregator
}

func NewETL(c HTTPClient, st *store.MemoryStore, log *slog.Logger, cfg config.Config, tel *telemetry.Metrics) *ETL {
	return newETL(c, st, log, cfg, tel, time.Now)
}

func newETL(c HTTPClient, st *store.MemoryStore, log *slog.Logger, cfg config.Config, tel *telemetry.Metrics, now func() time.Time) *ETL {
	return &ETL{
		c:      c,
		st:     st,
		log:    log,
		cfg:    cfg,
		tel:    tel,
		tracer: telemetry.Tracer(),
		now:    now,
		asm:    pipeline.NewAssembler(cfg.Directory.StageOrder),
		agg: metrics.NewAggregator(metrics.Options{
			Now:          now,
			Location:     cfg.Location,
			MissingDates: cfg.MissingDates,
			Directory:    metrics.NewDirectory(cfg.Directory.Users),
			Goals:        cfg.Directory.Goals,
		}),
	}
}

// Run refreshes the snapshot for filter. On failure the store keeps the
// previous snapshot and records the error. An empty response leaves the store
// untouched and returns the previous snapshot.
func (e *ETL) Run(ctx context.Context, filter models.DateFilter) (*models.Snapshot, error) {
	ctx, span := e.tracer.Start(ctx, "etl.run", trace.WithAttributes(attribute.String("preset", string(filter.Preset))))
	defer span.End()

	gen := e.st.Begin()
	prev := e.st.Snapshot()
	started := time.Now()

	snap, err := e.build(ctx, filter, prev)
	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.st.Fail(gen, err)
		e.tel.Observe(telemetry.ResultError)
		e.log.Error("refresh failed", slog.Uint64("generation", gen), slog.String("err", err.Error()))
		return nil, err
	case snap == nil:
		e.tel.Observe(telemetry.ResultEmpty)
		e.log.Warn("empty response, keeping previous snapshot", slog.Uint64("generation", gen))
		return prev, nil
	}

	if !e.st.Save(gen, snap) {
		e.tel.Observe(telemetry.ResultStale)
		e.log.Info("discarded stale refresh", slog.Uint64("generation", gen))
		return e.st.Snapshot(), nil
	}
	e.tel.Observe(telemetry.ResultOK)
	e.tel.Stored(snap.Records, snap.LastUpdated)
	e.log.Info("refresh complete",
		slog.Uint64("generation", gen),
		slog.String("preset", string(snap.Filter.Preset)),
		slog.Int("records", snap.Records),
		slog.Int("stages", len(snap.Pipeline)),
		slog.Int("members", len(snap.Team)),
		slog.Duration("took", time.Since(started)),
	)
	return snap, nil
}

func (e *ETL) build(ctx context.Context, filter models.DateFilter, prev *models.Snapshot) (*models.Snapshot, error) {
	fctx, fetchSpan := e.tracer.Start(ctx, "etl.fetch")
	t0 := time.Now()
	body, err := Fetch(fctx, e.c, e.cfg.WebhookURL, e.now())
	e.tel.FetchTime.Observe(time.Since(t0).Seconds())
	fetchSpan.SetAttributes(attribute.Int("bytes", len(body)))
	fetchSpan.End()
	if err != nil {
		return nil, err
	}

	p, err := Decode(body)
	if err != nil || p == nil {
		return nil, err
	}

	_, aggSpan := e.tracer.Start(ctx, "etl.aggregate")
	defer aggSpan.End()
	t1 := time.Now()

	catalog := BuildCatalog(p.Tags)
	cards := Canonicalize(p.Cards, catalog)
	stages := e.asm.Assemble(StepDefs(p.Steps), cards)

	in := metrics.Input{
		Stages:        stages,
		Cards:         cards,
		Catalog:       catalog,
		Filter:        filter,
		Previous:      prev,
		RoleOverrides: e.st.RoleOverrides(),
	}
	if g, ok := e.st.Goals(); ok {
		in.Goals = &g
	}
	snap := e.agg.Aggregate(in)

	e.tel.AggTime.Observe(time.Since(t1).Seconds())
	aggSpan.SetAttributes(
		attribute.Int("records", len(cards)),
		attribute.Int("stages", len(stages)),
		attribute.Int("tags", catalog.Len()),
	)
	return snap, nil
}

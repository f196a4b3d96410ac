// Package pipeline orchestrates a strata run as a dependency DAG:
// conform:<entity> nodes feed transform:<table> nodes, which feed a single
// validate node. Gold tables are staged and only promoted and published
// once the gate passes.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/strata/internal/bronze"
	"github.com/mesh-intelligence/strata/internal/conform"
	"github.com/mesh-intelligence/strata/internal/store"
	"github.com/mesh-intelligence/strata/internal/transform"
	"github.com/mesh-intelligence/strata/internal/validate"
	"github.com/mesh-intelligence/strata/pkg/types"
)

// TracerName is the instrumentation name of pipeline spans.
const TracerName = "github.com/mesh-intelligence/strata/internal/pipeline"

// Node name prefixes.
const (
	conformPrefix   = "conform:"
	transformPrefix = "transform:"
	validateNode    = "validate"
)

// Runner executes pipeline runs against one data directory.
type Runner struct {
	Config    types.Config
	Lake      *store.Lake
	Publisher types.Publisher
	Gate      *validate.Gate
	Logger    *zap.Logger
	Tracer    trace.Tracer
	Metrics   *Metrics
	NewRunID  func() string
}

// NewRunner returns a runner with the default gate, a fresh metrics
// registry and the global tracer. publisher may be nil to skip the catalog.
func NewRunner(cfg types.Config, publisher types.Publisher, logger *zap.Logger) *Runner {
	cfg = cfg.WithDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		Config:    cfg,
		Lake:      store.NewLake(cfg.DataDir),
		Publisher: publisher,
		Gate:      validate.NewGate(cfg.Workers),
		Logger:    logger,
		Tracer:    otel.Tracer(TracerName),
		Metrics:   NewMetrics(),
		NewRunID:  newRunID,
	}
}

// newRunID returns a UUID v7, falling back to v4.
func newRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// RunResult summarizes one run.
type RunResult struct {
	RunID     string
	Conform   []conform.Result
	Report    *validate.Report
	Execution *Execution
	Published []string
	Duration  time.Duration
}

// Warnings collects the non-fatal conformance findings of the run.
func (r *RunResult) Warnings() []string {
	var out []string
	for _, res := range r.Conform {
		out = append(out, res.Warnings()...)
	}
	return out
}

// layers is the table state shared by the nodes of one run.
type layers struct {
	mu      sync.RWMutex
	silver  types.TableSet
	gold    types.TableSet
	results []conform.Result
	report  *validate.Report
}

func (l *layers) putSilver(ds types.Dataset, res conform.Result) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.silver.Add(ds)
	l.results = append(l.results, res)
}

func (l *layers) putGold(ds types.Dataset) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gold.Add(ds)
}

func (l *layers) snapshot() (silver, gold types.TableSet) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.silver.Merge(nil), l.gold.Merge(nil)
}

// Run executes one full bronze to gold run. Silver tables are replaced as
// their entities conform. Gold tables replace the published layer and the
// catalog only when the gate passes; on any failure the previous gold layer
// and catalog are left untouched.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	start := time.Now()
	cfg := r.Config.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	runID := r.NewRunID()
	logger := r.Logger.With(zap.String("run_id", runID))
	result := &RunResult{RunID: runID}

	ctx, span := r.Tracer.Start(ctx, "pipeline.run", trace.WithAttributes(attribute.String("run_id", runID)))
	defer span.End()

	err := r.run(ctx, cfg, runID, logger, result)
	result.Duration = time.Since(start)
	status := "succeeded"
	if err != nil {
		status = "failed"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("run failed", zap.Error(err), zap.Duration("duration", result.Duration))
	} else {
		logger.Info("run succeeded",
			zap.Int("tables", len(result.Published)),
			zap.Duration("duration", result.Duration),
		)
	}
	r.Metrics.Runs.WithLabelValues(status).Inc()
	if cfg.MetricsFile != "" {
		if werr := r.Metrics.WriteTextfile(cfg.MetricsFile); werr != nil {
			logger.Warn("metrics not written", zap.Error(werr))
		}
	}
	return result, err
}

func (r *Runner) run(ctx context.Context, cfg types.Config, runID string, logger *zap.Logger, result *RunResult) error {
	batches, err := bronze.ReadDir(cfg.BronzeDir)
	if err != nil {
		return err
	}
	logger.Info("bronze loaded", zap.String("dir", cfg.BronzeDir), zap.Int("entities", len(batches)))

	staging, err := r.Lake.Stage(runID)
	if err != nil {
		return err
	}
	defer staging.Discard()

	state := &layers{silver: types.TableSet{}, gold: types.TableSet{}}
	graph, err := r.buildGraph(batches, staging, state, logger)
	if err != nil {
		return err
	}

	exec, err := graph.Execute(ctx, cfg.Workers, r.hook(logger))
	result.Execution = exec
	state.mu.RLock()
	result.Conform = append([]conform.Result(nil), state.results...)
	result.Report = state.report
	state.mu.RUnlock()
	sort.Slice(result.Conform, func(i, j int) bool { return result.Conform[i].Table < result.Conform[j].Table })
	if err != nil {
		return err
	}

	_, gold := state.snapshot()
	if err := r.publish(ctx, runID, gold, logger); err != nil {
		return err
	}
	if err := staging.Promote(); err != nil {
		return fmt.Errorf("promoting gold: %w", err)
	}
	for _, name := range types.GoldTableNames {
		r.Metrics.TableRows.WithLabelValues(store.LayerGold, name).Set(float64(gold[name].Len()))
	}
	result.Published = append([]string(nil), types.GoldTableNames...)
	return nil
}

func (r *Runner) buildGraph(batches map[string]*bronze.RawBatch, staging *store.Staging, state *layers, logger *zap.Logger) (*Graph, error) {
	g := NewGraph()
	producer := make(map[string]string, len(types.Entities))

	for _, entity := range types.Entities {
		batch := batches[entity]
		name := conformPrefix + entity
		producer[types.SilverTableFor[entity]] = name
		err := g.Add(name, nil, func(ctx context.Context) error {
			ds, res, err := conform.Entity(batch)
			if err != nil {
				return err
			}
			res.Log(logger)
			r.recordConform(res)
			if err := r.Lake.WriteTable(store.LayerSilver, ds); err != nil {
				return err
			}
			r.Metrics.TableRows.WithLabelValues(store.LayerSilver, ds.Name()).Set(float64(ds.Len()))
			state.putSilver(ds, res)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	var built []string
	for _, b := range transform.Builders() {
		deps := make([]string, 0, len(b.Inputs))
		for _, in := range b.Inputs {
			deps = append(deps, producer[in])
		}
		name := transformPrefix + b.Table
		built = append(built, name)
		err := g.Add(name, deps, func(ctx context.Context) error {
			silver, _ := state.snapshot()
			ds, err := b.Build(silver)
			if err != nil {
				return err
			}
			if err := staging.Write(ds); err != nil {
				return err
			}
			state.putGold(ds)
			logger.Debug("table built", zap.String("table", ds.Name()), zap.Int("rows", ds.Len()))
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	err := g.Add(validateNode, built, func(ctx context.Context) error {
		silver, gold := state.snapshot()
		report, err := r.Gate.Evaluate(ctx, silver.Merge(gold))
		if err != nil {
			return err
		}
		state.mu.Lock()
		state.report = report
		state.mu.Unlock()
		r.recordReport(report, logger)
		return report.Err()
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

// publish registers every gold table in one catalog session.
func (r *Runner) publish(ctx context.Context, runID string, gold types.TableSet, logger *zap.Logger) error {
	if r.Publisher == nil {
		logger.Debug("no publisher configured, catalog skipped")
		return nil
	}
	ctx, span := r.Tracer.Start(ctx, "publish")
	defer span.End()

	session, err := r.Publisher.Begin(ctx, runID)
	if err != nil {
		return fmt.Errorf("opening publish session: %w", err)
	}
	for _, name := range types.GoldTableNames {
		ds, err := gold.Get(name)
		if err == nil {
			err = session.Publish(name, ds)
		}
		if err != nil {
			session.Rollback()
			return fmt.Errorf("publishing %s: %w", name, err)
		}
	}
	if err := session.Commit(); err != nil {
		session.Rollback()
		return err
	}
	return nil
}

// Revalidate reloads the persisted silver and gold layers and runs the gate
// over them without writing anything.
func (r *Runner) Revalidate(ctx context.Context) (*validate.Report, error) {
	silver, err := r.Lake.ReadLayer(store.LayerSilver, types.SilverTableNames)
	if err != nil {
		return nil, err
	}
	gold, err := r.Lake.ReadLayer(store.LayerGold, types.GoldTableNames)
	if err != nil {
		return nil, err
	}
	report, err := r.Gate.Evaluate(ctx, silver.Merge(gold))
	if err != nil {
		return nil, err
	}
	r.recordReport(report, r.Logger)
	return report, nil
}

func (r *Runner) recordConform(res conform.Result) {
	for reason, n := range res.Dropped {
		r.Metrics.RowsDropped.WithLabelValues(res.Table, reason).Add(float64(n))
	}
	for col, n := range res.Coerced {
		r.Metrics.Coerced.WithLabelValues(res.Table, col).Add(float64(n))
	}
}

func (r *Runner) recordReport(report *validate.Report, logger *zap.Logger) {
	r.Metrics.Violations.Reset()
	for _, v := range report.Violations {
		r.Metrics.Violations.WithLabelValues(v.Table, v.Rule, string(v.Kind)).Set(float64(v.Count))
		logger.Warn("validation violation",
			zap.String("table", v.Table),
			zap.String("rule", v.Rule),
			zap.String("kind", string(v.Kind)),
			zap.Int("count", v.Count),
			zap.Strings("keys", v.Keys),
		)
	}
	logger.Info("validation evaluated",
		zap.Int("rules", report.Rules),
		zap.Int("violations", len(report.Violations)),
		zap.Bool("passed", report.Passed()),
	)
}

// hook wraps every node in a span and records its duration.
func (r *Runner) hook(logger *zap.Logger) Hook {
	return func(ctx context.Context, node string, run NodeFunc) error {
		ctx, span := r.Tracer.Start(ctx, node)
		defer span.End()

		start := time.Now()
		err := run(ctx)
		elapsed := time.Since(start)

		status := string(StateSucceeded)
		if err != nil {
			status = string(StateFailed)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.Error("node failed", zap.String("node", node), zap.Error(err))
		} else {
			logger.Debug("node finished", zap.String("node", node), zap.Duration("elapsed", elapsed))
		}
		r.Metrics.NodeDuration.WithLabelValues(node, status).Observe(elapsed.Seconds())
		return err
	}
}

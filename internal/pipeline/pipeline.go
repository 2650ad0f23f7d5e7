package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/couchcryptid/envirocar-etl/internal/domain"
	"github.com/couchcryptid/envirocar-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

// DefaultProgressInterval is the number of documents between progress logs.
const DefaultProgressInterval = 1000

var errAlreadyRun = errors.New("pipeline has already run")

// Source provides the phenomenon set and the measurement documents.
type Source interface {
	DiscoverPhenomena(ctx context.Context) (domain.Phenomena, error)
	Measurements(ctx context.Context, filter any) iter.Seq2[domain.Measurement, error]
}

// Transformer converts a measurement document into a destination row.
type Transformer interface {
	Transform(m domain.Measurement) (domain.Row, error)
	SRID() int
}

// Loader owns the destination connection for one run.
type Loader interface {
	Connect(ctx context.Context) error
	Exec(ctx context.Context, sql string) error
	Copy(ctx context.Context, sql string) (io.WriteCloser, error)
	Close(ctx context.Context) error
}

// Options configures a run.
type Options struct {
	Table            string
	Filter           any
	ProgressInterval int
	Clock            clockwork.Clock
}

// Pipeline exports every measurement matching the filter into a freshly
// recreated destination table. A Pipeline runs once.
type Pipeline struct {
	source      Source
	transformer Transformer
	loader      Loader
	logger      *slog.Logger
	metrics     *observability.Metrics
	opts        Options
	clock       clockwork.Clock

	started atomic.Bool
	state   atomic.Int32
	stats   Stats

	mu     sync.Mutex
	report Report
}

// New creates a Pipeline with the given stages and observability.
func New(s Source, t Transformer, l Loader, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = DefaultProgressInterval
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Pipeline{
		source:      s,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		opts:        opts,
		clock:       clock,
		report:      Report{Table: opts.Table},
	}
}

// State returns the step the run is currently in.
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

// Stats returns the live document counters.
func (p *Pipeline) Stats() *Stats {
	return &p.stats
}

// CheckReadiness returns nil once the run has started streaming rows and has
// not failed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	switch s := p.State(); s {
	case StateStreaming, StateClosing, StateDone:
		return nil
	default:
		return fmt.Errorf("pipeline is %s", s)
	}
}

// Run performs the export: discover phenomena, recreate the table and stream
// every measurement into it. It returns nil or the first error encountered.
// Rows streamed before a failure stay in the table.
func (p *Pipeline) Run(ctx context.Context) (err error) {
	if !p.started.CompareAndSwap(false, true) {
		return errAlreadyRun
	}

	start := p.clock.Now()
	p.mu.Lock()
	p.report.StartedAt = start
	p.mu.Unlock()
	p.logger.Info("pipeline started", "table", p.opts.Table, "filter", p.opts.Filter)

	defer func() {
		p.metrics.RunDuration.Observe(p.clock.Since(start).Seconds())
		p.finish(err)
	}()

	p.setState(StateDiscovering)
	phenomena, err := p.source.DiscoverPhenomena(ctx)
	if err != nil {
		return fmt.Errorf("discover phenomena: %w", err)
	}
	p.metrics.PhenomenaObserved.Set(float64(len(phenomena)))
	schema := domain.NewTableSchema(p.opts.Table, p.transformer.SRID(), phenomena)

	p.mu.Lock()
	p.report.Phenomena = phenomena
	p.mu.Unlock()

	p.setState(StateConnecting)
	if err := p.loader.Connect(ctx); err != nil {
		return err
	}

	err = p.load(ctx, schema)
	if cerr := p.loader.Close(ctx); cerr != nil {
		p.logger.Warn("destination close failed", "error", cerr)
	}
	return err
}

// load recreates the table and streams the rows over the open connection.
func (p *Pipeline) load(ctx context.Context, schema domain.TableSchema) error {
	p.setState(StateDropping)
	if err := p.exec(ctx, schema.DropCommand()); err != nil {
		return err
	}

	p.setState(StateCreating)
	if err := p.exec(ctx, schema.CreateCommand()); err != nil {
		return err
	}

	p.setState(StateStreaming)
	copySQL := schema.CopyCommand()
	p.logger.Info("executing command", "sql", copySQL)
	w, err := p.loader.Copy(ctx, copySQL)
	if err != nil {
		return err
	}

	streamErr := p.stream(ctx, w, schema)

	p.setState(StateClosing)
	closeErr := w.Close()
	if streamErr != nil {
		if closeErr != nil {
			p.logger.Warn("copy close failed after error", "error", closeErr)
		}
		return streamErr
	}
	return closeErr
}

func (p *Pipeline) exec(ctx context.Context, sql string) error {
	p.logger.Info("executing command", "sql", sql)
	return p.loader.Exec(ctx, sql)
}

// stream writes one COPY record per valid measurement in source order.
func (p *Pipeline) stream(ctx context.Context, w io.Writer, schema domain.TableSchema) error {
	var buf []byte
	for m, err := range p.source.Measurements(ctx, p.opts.Filter) {
		if err != nil && !errors.Is(err, domain.ErrMalformedDocument) {
			return err
		}

		if n := p.stats.incRead(); n%int64(p.opts.ProgressInterval) == 0 {
			p.logger.Info("export progress", "stats", &p.stats)
		}
		p.metrics.DocumentsRead.Inc()

		var row domain.Row
		if err == nil {
			row, err = p.transformer.Transform(m)
		}
		if err != nil {
			if errors.Is(err, domain.ErrMalformedDocument) {
				p.logger.Debug("skipping malformed measurement", "error", err)
				p.stats.incSkipped()
				p.metrics.DocumentsSkipped.Inc()
				continue
			}
			return err
		}

		if n := unknownPhenomena(m, schema.Phenomena()); n > 0 {
			p.stats.addUnknown(int64(n))
			p.metrics.UnknownPhenomena.Add(float64(n))
		}

		buf = schema.AppendRow(buf[:0], row)
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("write row %s: %w", row.ID, err)
		}
		p.stats.incWritten()
		p.metrics.RowsWritten.Inc()
	}
	return nil
}

func (p *Pipeline) setState(s State) {
	prev := State(p.state.Swap(int32(s)))
	if prev != StateIdle {
		p.metrics.PipelineState.WithLabelValues(prev.String()).Set(0)
	}
	p.metrics.PipelineState.WithLabelValues(s.String()).Set(1)
	p.logger.Debug("pipeline state changed", "from", prev.String(), "to", s.String())
}

func (p *Pipeline) finish(err error) {
	p.mu.Lock()
	p.report.FinishedAt = p.clock.Now()
	if err != nil {
		p.report.Error = err.Error()
	}
	p.mu.Unlock()

	if err != nil {
		p.setState(StateFailed)
		p.logger.Error("pipeline failed", "error", err, "stats", &p.stats)
		return
	}
	p.setState(StateDone)
	p.logger.Info("pipeline finished", "stats", &p.stats)
}

package flow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/razeghi71/dqflow/table"
)

// Mode selects how much checking an execution does.
type Mode int

const (
	// ModeRelease evaluates nodes without extra checks.
	ModeRelease Mode = iota
	// ModeDebug validates every node's output against its schema.
	ModeDebug
)

func (m Mode) String() string {
	switch m {
	case ModeRelease:
		return "release"
	case ModeDebug:
		return "debug"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode maps "release" or "debug" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "release":
		return ModeRelease, nil
	case "debug":
		return ModeDebug, nil
	}
	return ModeRelease, fmt.Errorf("unknown execution mode %q", s)
}

type options struct {
	ctx      context.Context
	mode     Mode
	logger   *zap.Logger
	perf     func(*PerformanceLog)
	parallel bool
}

// Option configures one execution.
type Option func(*options)

// WithContext sets the context passed to sources and checked between nodes.
func WithContext(ctx context.Context) Option {
	return func(o *options) { o.ctx = ctx }
}

// WithMode selects release or debug execution; ModeRelease is the default.
func WithMode(m Mode) Option {
	return func(o *options) { o.mode = m }
}

// WithLogger logs execution progress to l.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithPerformanceLog records per-node timings and hands them to fn once the
// execution has succeeded.
func WithPerformanceLog(fn func(*PerformanceLog)) Option {
	return func(o *options) { o.perf = fn }
}

// WithParallel evaluates nodes of the same depth concurrently.
func WithParallel(parallel bool) Option {
	return func(o *options) { o.parallel = parallel }
}

func newOptions(opts []Option) *options {
	o := &options{
		ctx:    context.Background(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// run holds the state of one execution. Results are cached per run only.
type run struct {
	*options
	id      uuid.UUID
	log     *zap.Logger
	order   []*node
	pos     map[*node]int
	mu      sync.Mutex
	results map[*node]*table.Table
	records []PerformanceRecord
}

func newRun(root *node, o *options) *run {
	r := &run{
		options: o,
		id:      uuid.New(),
		order:   sorted(root),
		results: make(map[*node]*table.Table),
	}
	r.log = o.logger.With(zap.String("run", r.id.String()))
	r.pos = make(map[*node]int, len(r.order))
	for i, n := range r.order {
		r.pos[n] = i
	}
	if o.perf != nil {
		r.records = make([]PerformanceRecord, len(r.order))
	}
	return r
}

// materialize evaluates every node leading to root and returns root's table.
func (r *run) materialize(root *node) (*table.Table, error) {
	if !r.parallel {
		for _, n := range r.order {
			if err := r.evaluate(r.ctx, n); err != nil {
				return nil, err
			}
		}
		return r.result(root), nil
	}

	for _, level := range levels(r.order) {
		g, ctx := errgroup.WithContext(r.ctx)
		for _, n := range level {
			g.Go(func() error { return r.evaluate(ctx, n) })
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}
	return r.result(root), nil
}

func (r *run) result(n *node) *table.Table {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.results[n]
}

func (r *run) evaluate(ctx context.Context, n *node) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fail := func(err error) error {
		return &NodeError{ID: n.id, Kind: n.kind, Label: n.label, Err: err}
	}
	if n.err != nil {
		return fail(n.err)
	}

	in := make([]*table.Table, len(n.inputs))
	rowsIn := 0
	for i, p := range n.inputs {
		in[i] = r.result(p)
		rowsIn += in[i].Len()
	}

	start := time.Now()
	out, err := n.apply(ctx, in)
	elapsed := time.Since(start)
	if err != nil {
		r.log.Debug("node failed", zap.String("node", n.Name()), zap.Error(err))
		return fail(err)
	}
	if r.mode == ModeDebug {
		if err := out.Validate(); err != nil {
			return fail(err)
		}
		r.log.Debug("node schema", zap.String("node", n.Name()), zap.Stringer("schema", out.Schema))
	}
	r.log.Debug("node evaluated",
		zap.String("node", n.Name()),
		zap.String("label", n.label),
		zap.Int("rows_in", rowsIn),
		zap.Int("rows_out", out.Len()),
		zap.Duration("elapsed", elapsed),
	)

	r.mu.Lock()
	r.results[n] = out
	if r.records != nil {
		r.records[r.pos[n]] = PerformanceRecord{
			NodeID:  n.id,
			Kind:    n.kind,
			Label:   n.label,
			Elapsed: elapsed,
			RowsIn:  rowsIn,
			RowsOut: out.Len(),
		}
	}
	r.mu.Unlock()
	return nil
}

func (r *run) performanceLog(total time.Duration) *PerformanceLog {
	return &PerformanceLog{RunID: r.id, Records: r.records, Total: total}
}

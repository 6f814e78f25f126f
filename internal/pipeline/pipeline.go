package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/docs2md/internal/model"
)

// Phase names, in execution order.
const (
	PhaseSeeding     = "seeding"
	PhaseDiscovering = "discovering"
	PhaseDispatching = "dispatching"
	PhaseCollecting  = "collecting"
	PhaseIndexing    = "indexing"
	PhaseReporting   = "reporting"
)

// Phase is one state of a crawl run. Phases run in sequence, each receiving
// the run state accumulated by the previous ones.
type Phase interface {
	// Do executes the phase. A returned error is fatal for the run.
	// Per-page failures are recorded in the run summary instead.
	Do(ctx context.Context, run *model.CrawlRun) error

	// Name returns the phase name for logging.
	Name() string
}

// phaseFunc adapts a function to Phase.
type phaseFunc struct {
	name string
	do   func(ctx context.Context, run *model.CrawlRun) error
}

// NewPhase returns a Phase that calls do.
func NewPhase(name string, do func(ctx context.Context, run *model.CrawlRun) error) Phase {
	return &phaseFunc{name: name, do: do}
}

func (p *phaseFunc) Do(ctx context.Context, run *model.CrawlRun) error {
	return p.do(ctx, run)
}

func (p *phaseFunc) Name() string {
	return p.name
}

// Pipeline executes phases in order and stops at the first failing one.
type Pipeline struct {
	phases []Phase
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		phases: make([]Phase, 0, 6),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddPhases appends phases. They run in the order they are added.
func (p *Pipeline) AddPhases(phases ...Phase) {
	p.phases = append(p.phases, phases...)
}

// Execute runs every phase in sequence. Cancellation is checked between
// phases; a phase handles its own deadlines. Completed phase names are
// appended to run.PerformedPhases.
func (p *Pipeline) Execute(ctx context.Context, run *model.CrawlRun) error {
	for _, phase := range p.phases {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"phase", phase.Name(),
				"reason", ctx.Err(),
			)
			return ctx.Err()
		default:
		}

		p.logger.Debug("entering phase",
			"phase", phase.Name(),
			"entry", run.EntryURL,
		)

		if err := phase.Do(ctx, run); err != nil {
			p.logger.Error("phase failed",
				"phase", phase.Name(),
				"entry", run.EntryURL,
				"error", err,
			)
			return err
		}

		run.PerformedPhases = append(run.PerformedPhases, phase.Name())
	}
	return nil
}

// PhaseNames returns the names of all phases in execution order.
func (p *Pipeline) PhaseNames() []string {
	names := make([]string, len(p.phases))
	for i, phase := range p.phases {
		names[i] = phase.Name()
	}
	return names
}

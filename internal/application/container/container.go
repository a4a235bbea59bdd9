package container

import (
	"context"
	"time"

	"sigtrader/internal/application/port"
	"sigtrader/internal/application/service"
	"sigtrader/internal/domain/model"
)

// Deps are the externally constructed collaborators the container wires
// together. Notifier, Metrics and Scorer are optional.
type Deps struct {
	Exchange port.Exchange
	Provider port.SignalProvider
	Store    port.Store
	Notifier port.Notifier
	Metrics  port.MetricsRecorder
	Scorer   port.TrendScorer

	Config         model.TradingConfig
	CycleTimeout   time.Duration
	ErrorThreshold int
}

// Container lazily wires the application services.
type Container struct {
	deps Deps

	ledger   *service.Ledger
	sizer    *service.Sizer
	engine   *service.Engine
	runner   *service.Runner
	reporter *service.Reporter
}

// New creates a container over the given dependencies.
func New(deps Deps) *Container {
	return &Container{deps: deps}
}

func (c *Container) Ledger(ctx context.Context) *service.Ledger {
	if c.ledger == nil {
		c.ledger = service.NewLedger(ctx, c.deps.Store)
	}
	return c.ledger
}

func (c *Container) Sizer() *service.Sizer {
	if c.sizer == nil {
		c.sizer = service.NewSizer(c.deps.Scorer)
	}
	return c.sizer
}

func (c *Container) Engine(ctx context.Context) *service.Engine {
	if c.engine == nil {
		c.engine = service.NewEngine(c.deps.Exchange, c.Ledger(ctx), c.Sizer(), c.deps.Metrics)
	}
	return c.engine
}

func (c *Container) Runner(ctx context.Context) *service.Runner {
	if c.runner == nil {
		c.runner = service.NewRunner(ctx, service.RunnerDeps{
			Engine:         c.Engine(ctx),
			Exchange:       c.deps.Exchange,
			Provider:       c.deps.Provider,
			Store:          c.deps.Store,
			Notifier:       c.deps.Notifier,
			Metrics:        c.deps.Metrics,
			Ledger:         c.Ledger(ctx),
			Config:         c.deps.Config,
			CycleTimeout:   c.deps.CycleTimeout,
			ErrorThreshold: c.deps.ErrorThreshold,
		})
	}
	return c.runner
}

func (c *Container) Reporter(ctx context.Context) *service.Reporter {
	if c.reporter == nil {
		c.reporter = service.NewReporter(c.Ledger(ctx), c.deps.Exchange)
	}
	return c.reporter
}

// Close releases the container's owned resources.
func (c *Container) Close() error {
	if c.deps.Store != nil {
		return c.deps.Store.Close()
	}
	return nil
}

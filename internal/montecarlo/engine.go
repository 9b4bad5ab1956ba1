package montecarlo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"trade-montecarlo/internal/analysis"
	"trade-montecarlo/internal/model"
	"trade-montecarlo/internal/returns"
)

type Engine struct {
	newSampler returns.Factory
	now        func() time.Time
}

// New returns an engine drawing normally distributed R outcomes.
func New() *Engine { return NewWithSampler(returns.NormalFactory) }

// NewWithSampler returns an engine that draws outcomes from f.
func NewWithSampler(f returns.Factory) *Engine {
	return &Engine{newSampler: f, now: time.Now}
}

// Result is the immutable output of one run.
type Result struct {
	// Config is the configuration actually used, with Seed resolved.
	Config   model.SimulationConfig
	Ensemble *Ensemble
	Terminal []float64
	Summary  model.Summary
	Elapsed  time.Duration
}

// Run builds the full ensemble and summarizes its terminal balances.
// Nothing is returned unless every path was generated.
func (e *Engine) Run(ctx context.Context, cfg model.SimulationConfig) (*Result, error) {
	if e.newSampler == nil {
		return nil, fmt.Errorf("sampler factory is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Seed == 0 {
		cfg.Seed = uint64(e.now().UnixNano())
	}

	start := e.now()
	paths := make([]model.Path, cfg.NumSimulations)
	if err := e.generate(ctx, cfg, paths); err != nil {
		return nil, err
	}

	ens, err := NewEnsemble(paths)
	if err != nil {
		return nil, fmt.Errorf("assemble ensemble: %w", err)
	}
	terminal := ens.Terminal()
	summary, err := analysis.Summarize(terminal)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}

	return &Result{
		Config:   cfg,
		Ensemble: ens,
		Terminal: terminal,
		Summary:  summary,
		Elapsed:  e.now().Sub(start),
	}, nil
}

// generate fills paths with a bounded worker pool. Every path index has its
// own sampler and its own slot, so the output does not depend on scheduling.
func (e *Engine) generate(ctx context.Context, cfg model.SimulationConfig, paths []model.Path) error {
	workers := cfg.EffectiveWorkers()
	errs := make([]error, len(paths))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				p, err := GeneratePath(cfg, e.newSampler(cfg, i))
				if err != nil {
					errs[i] = fmt.Errorf("path %d: %w", i, err)
					continue
				}
				paths[i] = p
			}
		}()
	}

feed:
	for i := range paths {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("simulation cancelled: %w", err)
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

package alloc

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/openprocure/allocator/pkg/solver"
)

// Engine runs the allocation pipeline: validate constraints, build the
// model, solve it and interpret the solution. An Engine holds no run state
// beyond its optional result cache, so one engine can serve concurrent runs
// or a fresh engine can be created per run; each run owns its catalog, model
// and result.
type Engine struct {
	backend solver.Backend
	config  Config
	log     zerolog.Logger

	cacheMu sync.Mutex
	cache   map[string]*Result
}

// NewEngine creates an engine with the default branch-and-bound backend and
// no logging
func NewEngine(config Config) *Engine {
	return NewEngineWithBackend(solver.NewBackend(), config, zerolog.Nop())
}

// NewEngineWithBackend creates an engine with a custom solver backend and
// logger
func NewEngineWithBackend(backend solver.Backend, config Config, log zerolog.Logger) *Engine {
	e := &Engine{
		backend: backend,
		config:  config.withDefaults(),
		log:     log,
	}
	if e.config.EnableCache {
		e.cache = make(map[string]*Result)
	}
	return e
}

// Run executes one allocation. Pre-solve failures (invalid configuration,
// invalid or conflicting constraints) are returned as typed errors before any
// backend call. Solve-time outcomes, including infeasibility, timeouts and
// cancellation, are legitimate business results and land in Result.Status.
func (e *Engine) Run(ctx context.Context, catalog *Catalog, specs []ConstraintSpec) (*Result, error) {
	runID := uuid.NewString()
	log := e.log.With().Str("run_id", runID).Logger()

	if err := validateSpecs(catalog, specs); err != nil {
		log.Warn().Err(err).Msg("constraint validation failed")
		return nil, err
	}

	// Coverage precheck: with partial fulfillment off, an item whose bids
	// cannot jointly reach its demand makes the whole run infeasible, so
	// there is nothing to solve. This also keeps bid-less items from
	// producing demand rows with no variables.
	if !e.config.AllowPartialFulfillment {
		for _, item := range catalog.Items() {
			if capacity := catalog.TotalCapacity(item.ID); item.Demand > capacity+Tolerance {
				log.Info().
					Str("item", string(item.ID)).
					Float64("demand", item.Demand).
					Float64("capacity", capacity).
					Msg("item demand exceeds total bid capacity")
				return &Result{RunID: runID, Status: StatusInfeasible}, nil
			}
		}
	}

	var key string
	if e.cache != nil {
		key = contentHash(catalog, e.config, specs)
		e.cacheMu.Lock()
		cached, ok := e.cache[key]
		e.cacheMu.Unlock()
		if ok {
			log.Debug().Str("key", key).Msg("cache hit")
			return cached, nil
		}
	}

	model, idx, err := buildModel(catalog, e.config, specs)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Int("variables", len(model.Vars)).
		Int("constraints", len(model.Cons)).
		Int("integer_vars", model.NumIntegerVars()).
		Msg("model built")

	start := time.Now()
	sol, err := e.backend.Solve(ctx, model, solver.Options{
		TimeLimit: e.config.TimeLimit,
		IntTol:    Tolerance,
		Logger:    &log,
	})
	if err != nil {
		log.Error().Err(err).Msg("solver backend failed")
		return nil, &SolverError{Err: err}
	}

	result := interpret(catalog, e.config, model, idx, sol)
	result.RunID = runID
	result.Elapsed = time.Since(start)

	log.Info().
		Str("status", result.Status.String()).
		Str("objective", result.Objective.String()).
		Int("awards", len(result.Awards)).
		Dur("elapsed", result.Elapsed).
		Msg("allocation run finished")

	if e.cache != nil && result.Status.HasAllocation() {
		e.cacheMu.Lock()
		e.cache[key] = result
		e.cacheMu.Unlock()
	}
	return result, nil
}

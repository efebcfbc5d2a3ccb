package experiment

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Ensemble runs the same configuration over consecutive seeds. Each run owns
// its scene, so runs proceed in parallel.
type Ensemble struct {
	reg       *Registry
	cfg       Config
	numRuns   int
	seedStart int64
	workers   int
}

func NewEnsemble(reg *Registry, cfg Config, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{reg: reg, cfg: cfg, numRuns: numRuns, seedStart: seedStart}
}

// SetWorkers caps the number of concurrent runs. n <= 0 means no limit.
func (e *Ensemble) SetWorkers(n int) { e.workers = n }

// Run returns one result per seed, in seed order. The first failing run
// cancels the others.
func (e *Ensemble) Run(ctx context.Context) ([]*Result, error) {
	if e.numRuns < 1 {
		return nil, fmt.Errorf("experiment: ensemble needs at least one run, got %d", e.numRuns)
	}
	results := make([]*Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	if e.workers > 0 {
		g.SetLimit(e.workers)
	}
	for i := 0; i < e.numRuns; i++ {
		g.Go(func() error {
			cfg := e.cfg
			cfg.Seed = e.seedStart + int64(i)

			exp := New(cfg)
			if err := exp.Setup(e.reg, e.reg.DefaultMetrics()); err != nil {
				return fmt.Errorf("seed %d: %w", cfg.Seed, err)
			}
			res, err := exp.Run(ctx)
			if err != nil {
				return fmt.Errorf("seed %d: %w", cfg.Seed, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Summary is the mean and spread of one metric across an ensemble.
type Summary struct {
	Name string
	Mean float64
	Min  float64
	Max  float64
}

// Summarize aggregates the final metric values of results, sorted by name.
func Summarize(results []*Result) []Summary {
	if len(results) == 0 {
		return nil
	}
	var out []Summary
	for _, name := range sortedKeys(results[0].Metrics) {
		s := Summary{Name: name, Min: results[0].Metrics[name], Max: results[0].Metrics[name]}
		for _, r := range results {
			v := r.Metrics[name]
			s.Mean += v
			if v < s.Min {
				s.Min = v
			}
			if v > s.Max {
				s.Max = v
			}
		}
		s.Mean /= float64(len(results))
		out = append(out, s)
	}
	return out
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Package synth draws synthetic tracks from the observed value ranges of the
// dataset and scores them in batches.
package synth

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/align"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/data"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/track"
)

// DefaultMaxBatch bounds the number of draws in one batch.
const DefaultMaxBatch = 100

// generateSalt keeps the source behind Generate apart from the per-draw
// sources of Batch, which start at the seed itself.
const generateSalt = 0x5DEECE66D

// ResolveSeed returns seed, or a fresh random seed when seed is 0.
func ResolveSeed(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	return rand.Int63n(math.MaxInt64-1) + 1
}

// Generator produces aligned synthetic track records.
type Generator struct {
	dataset  *data.Dataset
	engine   *align.Engine
	catalog  track.Catalog
	seed     int64
	workers  int
	maxBatch int
	logger   *zap.Logger

	mu     sync.Mutex
	rng    *rand.Rand
	offset int64 // draws consumed by previous batches
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed fixes the seed so draws are reproducible. 0 picks a fresh seed.
func WithSeed(seed int64) Option      { return func(g *Generator) { g.seed = seed } }
func WithWorkers(n int) Option        { return func(g *Generator) { g.workers = n } }
func WithMaxBatch(n int) Option       { return func(g *Generator) { g.maxBatch = n } }
func WithLogger(l *zap.Logger) Option { return func(g *Generator) { g.logger = l } }

// New returns a generator over ds. The engine must have been built from the
// same dataset's statistics.
func New(ds *data.Dataset, engine *align.Engine, catalog track.Catalog, opts ...Option) (*Generator, error) {
	if ds == nil || engine == nil {
		return nil, errors.New("synth: dataset and engine are required")
	}
	if err := catalog.Validate(); err != nil {
		return nil, fmt.Errorf("synth: %w", err)
	}
	g := &Generator{
		dataset:  ds,
		engine:   engine,
		catalog:  catalog,
		workers:  runtime.GOMAXPROCS(0),
		maxBatch: DefaultMaxBatch,
		logger:   zap.NewNop(),
	}
	for _, o := range opts {
		o(g)
	}
	if g.workers < 1 {
		g.workers = 1
	}
	if g.maxBatch < 1 {
		g.maxBatch = DefaultMaxBatch
	}
	g.seed = ResolveSeed(g.seed)
	g.rng = rand.New(rand.NewSource(g.seed ^ generateSalt))
	g.logger.Debug("generator seeded", zap.Int64("seed", g.seed))
	return g, nil
}

// Seed returns the seed in use; pass it to WithSeed to replay a session.
func (g *Generator) Seed() int64 { return g.seed }

// MaxBatch returns the largest accepted batch size.
func (g *Generator) MaxBatch() int { return g.maxBatch }

// Catalog returns the catalog records are aligned to.
func (g *Generator) Catalog() track.Catalog { return g.catalog }

// Generate draws one synthetic track using the generator's own source.
func (g *Generator) Generate() (track.Record, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.GenerateWith(g.rng)
}

// GenerateWith draws one synthetic track from rng: a dataset row is sampled,
// its numeric catalog fields are redrawn uniformly within the observed
// column range and its categorical fields are kept. The result is aligned
// to the catalog.
func (g *Generator) GenerateWith(rng *rand.Rand) (track.Record, error) {
	row, err := g.dataset.Sample(rng)
	if err != nil {
		return track.Record{}, fmt.Errorf("synth: %w", err)
	}
	table := g.dataset.Stats()

	var tmpl track.Record
	for _, name := range g.catalog {
		col, ok := table.Column(name)
		if !ok {
			continue
		}
		if col.Kind == track.Category {
			if v, ok := row.Get(name); ok {
				tmpl.Set(name, v)
			}
			continue
		}
		if col.Count == 0 {
			continue
		}
		tmpl.Set(name, drawNumeric(rng, col.Kind, col.Min, col.Max))
	}
	return g.engine.Align(tmpl, g.catalog), nil
}

// drawNumeric draws uniformly from [lo, hi]; integer columns use an
// inclusive integer draw.
func drawNumeric(rng *rand.Rand, kind track.Kind, lo, hi float64) track.Value {
	if kind == track.Int {
		a, b := int(math.Ceil(lo)), int(math.Floor(hi))
		if b < a {
			return track.IntValue(a)
		}
		return track.IntValue(a + rng.Intn(b-a+1))
	}
	if hi <= lo {
		return track.FloatValue(lo)
	}
	return track.FloatValue(lo + rng.Float64()*(hi-lo))
}

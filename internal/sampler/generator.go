package sampler

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/chrissnell/livetemp/internal/types"
	"github.com/chrissnell/livetemp/pkg/config"
)

// Generator synthesizes readings uniformly distributed over [Min, Max]
type Generator struct {
	Min           float64
	Max           float64
	Precision     int
	FlagsEnabled  bool
	FlagThreshold float64

	rnd *rand.Rand
	now func() time.Time
}

// NewGenerator creates a Generator from the sampler configuration, seeded from the runtime's entropy source
func NewGenerator(c config.SamplerData) *Generator {
	return &Generator{
		Min:           c.Min,
		Max:           c.Max,
		Precision:     c.Precision,
		FlagsEnabled:  c.FlagsEnabled,
		FlagThreshold: c.FlagThreshold,
		rnd:           rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:           time.Now,
	}
}

// WithSource swaps the random source, for reproducible sequences
func (g *Generator) WithSource(src rand.Source) *Generator {
	g.rnd = rand.New(src)
	return g
}

// WithClock swaps the time source
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Next produces one reading.  It can't fail.
func (g *Generator) Next() types.Reading {
	v := Round(g.Min+g.rnd.Float64()*(g.Max-g.Min), g.Precision)

	// Rounding can push a value just past a bound that isn't representable at this precision
	if v < g.Min {
		v = Round(g.Min, g.Precision)
		if v < g.Min {
			v = g.Min
		}
	}
	if v > g.Max {
		v = Round(g.Max, g.Precision)
		if v > g.Max {
			v = g.Max
		}
	}

	r := types.Reading{
		Value:     v,
		Timestamp: g.now().Truncate(time.Second),
	}
	if g.FlagsEnabled {
		r.Flag = types.Classify(v, g.FlagThreshold)
	}
	return r
}

// Round rounds v half away from zero to the given number of decimal places
func Round(v float64, precision int) float64 {
	if precision <= 0 {
		return math.Round(v)
	}
	p := math.Pow(10, float64(precision))
	return math.Round(v*p) / p
}

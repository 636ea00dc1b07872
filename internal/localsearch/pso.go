package localsearch

import (
	"fmt"
	"math"
	"math/rand"
)

// PSOConfig configures particle swarm coefficient search, adapted
// directly over the continuous coefficient vector (the permutation
// random-key decode of the originating heuristic has no counterpart
// here since coefficients are already real-valued).
type PSOConfig struct {
	Iterations int
	Particles  int

	W  float64
	C1 float64
	C2 float64

	VMax float64
}

// DefaultPSOConfig returns the standard constriction-style weights.
func DefaultPSOConfig() PSOConfig {
	return PSOConfig{
		Iterations: 150,
		Particles:  40,
		W:          0.729,
		C1:         1.49445,
		C2:         1.49445,
		VMax:       1.0,
	}
}

// Validate checks the configuration is usable.
func (c PSOConfig) Validate() error {
	if c.Iterations <= 0 {
		return fmt.Errorf("localsearch: pso iterations must be > 0 (got %d)", c.Iterations)
	}
	if c.Particles <= 0 {
		return fmt.Errorf("localsearch: pso particles must be > 0 (got %d)", c.Particles)
	}
	if c.W < 0 {
		return fmt.Errorf("localsearch: pso W must be >= 0 (got %f)", c.W)
	}
	if c.C1 < 0 || c.C2 < 0 {
		return fmt.Errorf("localsearch: pso C1 and C2 must be >= 0 (got %f, %f)", c.C1, c.C2)
	}
	return nil
}

type particle struct {
	pos, vel []float64
	bestPos  []float64
	bestCost float64
}

// PSO refines coefficients with a swarm of particles following the
// standard velocity update v <- w*v + c1*r1*(pBest-pos) + c2*r2*(gBest-pos).
type PSO struct {
	Cfg PSOConfig
}

// NewPSO validates cfg and returns a PSO optimizer.
func NewPSO(cfg PSOConfig) (*PSO, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &PSO{Cfg: cfg}, nil
}

// Optimize runs the swarm starting from particles jittered around the
// individual's current coefficients.
func (ps *PSO) Optimize(rng *rand.Rand, p Problem) (Summary, error) {
	base := p.Individual.GetCoefficients()
	n := len(base)

	initialCost, _, err := cost(p, base)
	if err != nil {
		return Summary{}, err
	}

	swarm := make([]particle, ps.Cfg.Particles)
	for i := range swarm {
		swarm[i] = particle{
			pos:     make([]float64, n),
			vel:     make([]float64, n),
			bestPos: make([]float64, n),
		}
		for d := 0; d < n; d++ {
			swarm[i].pos[d] = base[d] + rng.NormFloat64()
			swarm[i].vel[d] = (rng.Float64()*2 - 1) * ps.Cfg.VMax
		}
		c, _, err := cost(p, swarm[i].pos)
		if err != nil {
			return Summary{}, err
		}
		swarm[i].bestCost = c
		copy(swarm[i].bestPos, swarm[i].pos)
	}

	gBestPos := append([]float64(nil), base...)
	gBestCost := initialCost
	for i := range swarm {
		if swarm[i].bestCost < gBestCost {
			gBestCost = swarm[i].bestCost
			copy(gBestPos, swarm[i].bestPos)
		}
	}

	w, c1, c2, vMax := ps.Cfg.W, ps.Cfg.C1, ps.Cfg.C2, ps.Cfg.VMax
	iterations := 0

	for iter := 0; iter < ps.Cfg.Iterations; iter++ {
		for i := range swarm {
			part := &swarm[i]
			for d := 0; d < n; d++ {
				r1, r2 := rng.Float64(), rng.Float64()
				v := w*part.vel[d] + c1*r1*(part.bestPos[d]-part.pos[d]) + c2*r2*(gBestPos[d]-part.pos[d])
				if vMax > 0 {
					v = math.Max(-vMax, math.Min(vMax, v))
				}
				part.vel[d] = v
				part.pos[d] += v
			}

			c, _, err := cost(p, part.pos)
			iterations++
			if err != nil {
				return Summary{}, err
			}
			if math.IsNaN(c) {
				continue
			}
			if c < part.bestCost {
				part.bestCost = c
				copy(part.bestPos, part.pos)
			}
			if c < gBestCost {
				gBestCost = c
				copy(gBestPos, part.pos)
			}
		}
	}

	return Summary{
		InitialCost: initialCost,
		FinalCost:   gBestCost,
		Iterations:  iterations,
		Success:     gBestCost < initialCost,
		Parameters:  gBestPos,
	}, nil
}

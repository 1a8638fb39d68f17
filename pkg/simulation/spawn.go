package simulation

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/aquilax/go-perlin"
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/geometry"
)

// perlin field settings, the scale keeps neighbouring agents on similar headings
const (
	noiseAlpha   = 2.0
	noiseBeta    = 2.0
	noiseOctaves = 3
	noiseScale   = 0.004
)

// Spawner creates the initial flock.
// In random mode positions and velocities are uniform, in perlin mode the
// positions stay uniform but headings follow a smooth noise field, so the
// flock starts out in loose streams instead of pure noise.
type Spawner struct {
	pattern string
	rng     *rand.Rand
	noise   *perlin.Perlin
}

// NewSpawner returns a spawner for pattern. A zero seed picks a random one.
func NewSpawner(pattern string, seed uint64) (*Spawner, error) {
	if seed == 0 {
		seed = rand.Uint64()
	}
	s := &Spawner{
		pattern: pattern,
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
	switch pattern {
	case SpawnRandom:
	case SpawnPerlin:
		s.noise = perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctaves, int64(seed))
	default:
		return nil, fmt.Errorf("%w: unknown spawnPattern %q", ErrInvalidConfig, pattern)
	}
	return s, nil
}

// Spawn returns n agents inside area with IDs 0..n-1. speed is the initial
// speed of perlin agents, random agents get a velocity in [-1, 1)² which the
// integrator clamps on the first tick.
func (s *Spawner) Spawn(n int, area geometry.Rectangle, speed float64) []behavior.Agent {
	agents := make([]behavior.Agent, n)
	for i := range agents {
		a := behavior.New(i, area, s.rng)
		if s.noise != nil {
			a.Vel = geometry.NewVectorPolar(speed, s.heading(a.Pos))
		}
		agents[i] = a
	}
	return agents
}

// heading maps the noise at pos from [-1, 1] to an angle in [0, 2π].
func (s *Spawner) heading(pos geometry.Vector2D) float64 {
	v := s.noise.Noise2D(pos.X*noiseScale, pos.Y*noiseScale)
	return (v + 1) / 2 * 2 * math.Pi
}

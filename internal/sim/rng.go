package sim

import "math/rand"

// RNG is the random-number collaborator every stochastic decision in
// the simulation goes through: slot counter draws and frame-survival
// coin flips. Tests inject a deterministic RNG; production code wraps
// math/rand.
type RNG interface {
	Float64() float64
	Intn(n int) int
}

// defaultRNG wraps a seeded math/rand.Rand.
type defaultRNG struct {
	r *rand.Rand
}

// NewRNG returns an RNG backed by math/rand, seeded deterministically.
func NewRNG(seed int64) RNG {
	return &defaultRNG{r: rand.New(rand.NewSource(seed))}
}

func (d *defaultRNG) Float64() float64 { return d.r.Float64() }
func (d *defaultRNG) Intn(n int) int   { return d.r.Intn(n) }

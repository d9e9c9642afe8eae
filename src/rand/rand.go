package rand

import (
	"sync"

	"golang.org/x/exp/rand"
)

type Random interface {
	// Returns a float64 in [0, 1).
	Float64() float64
}

type DefaultRandom struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRand(seed uint64) *DefaultRandom {
	return &DefaultRandom{rng: rand.New(rand.NewSource(seed))}
}

// Returns a float64 in [0, 1). Safe for concurrent use.
func (random *DefaultRandom) Float64() float64 {
	random.mu.Lock()
	defer random.mu.Unlock()

	return random.rng.Float64()
}

// Generates a boolean with probability `p` of it being true.
func (random *DefaultRandom) GenBool(p float64) bool {
	return random.Float64() < p
}

// Package beta draws samples from a Beta(a, b) distribution with a variant of
// Cheng's rejection algorithm. Uniform draws come from an injected rand.Random
// so that sampling is reproducible given a fixed sequence.
package beta

import (
	"errors"
	"fmt"
	"math"

	"github.com/poorlydefinedbehaviour/bayesian-bandit/src/rand"
)

var ErrDidNotConverge = errors.New("beta sampling did not converge")

// Sample returns a value in (0, 1) drawn from Beta(a, b).
//
// Each iteration consumes exactly two values from random. The loop has no
// upper bound on the number of iterations: extreme shape parameters may
// reject for a long time. Use SampleBounded when that is not acceptable.
func Sample(random rand.Random, a, b float64) float64 {
	params := newParameters(a, b)

	for {
		if y, accepted := params.propose(random); accepted {
			return params.transform(y)
		}
	}
}

// SampleBounded is Sample with at most maxIterations proposals.
func SampleBounded(random rand.Random, a, b float64, maxIterations int) (float64, error) {
	params := newParameters(a, b)

	for i := 0; i < maxIterations; i++ {
		if y, accepted := params.propose(random); accepted {
			return params.transform(y), nil
		}
	}

	return 0, fmt.Errorf("a=%f b=%f maxIterations=%d %w", a, b, maxIterations, ErrDidNotConverge)
}

type parameters struct {
	a      float64
	total  float64
	ratio  float64
	lambda float64
}

func newParameters(a, b float64) parameters {
	total := a + b
	smaller := math.Min(a, b)

	lambda := smaller
	if smaller > 1 {
		lambda = math.Sqrt((2*a*b - a - b) / (total - 2))
	}

	return parameters{
		a:      a,
		total:  total,
		ratio:  a / b,
		lambda: lambda,
	}
}

// Draws a candidate and reports whether it was accepted.
func (params *parameters) propose(random rand.Random) (float64, bool) {
	r1 := random.Float64()
	r2 := random.Float64()

	y := math.Pow(1/r1-1, 1/params.lambda)

	lhs := 4 * r1 * r2 * r2
	rhs := math.Pow(y, params.a-params.lambda) *
		math.Pow((1+params.ratio)/(1+params.ratio*y), params.total)

	return y, lhs < rhs
}

func (params *parameters) transform(y float64) float64 {
	return params.ratio * y / (1 + params.ratio*y)
}

// Sampler binds a random source to Sample.
type Sampler struct {
	random rand.Random
}

func NewSampler(random rand.Random) *Sampler {
	return &Sampler{random: random}
}

func (sampler *Sampler) Sample(a, b float64) float64 {
	return Sample(sampler.random, a, b)
}

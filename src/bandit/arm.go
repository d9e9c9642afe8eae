package bandit

import (
	"sync"

	"github.com/poorlydefinedbehaviour/bayesian-bandit/src/types"
)

// Sampler draws one value from Beta(a, b).
type Sampler interface {
	Sample(a, b float64) float64
}

// Arm tracks the rewards observed for one option. Count and sum are always
// read and written together, so an arm can be rewarded and sampled from
// different goroutines.
type Arm struct {
	mu      sync.Mutex
	count   int64
	sum     float64
	sampler Sampler
}

func NewArm(sampler Sampler, stats types.ArmStats) *Arm {
	return &Arm{
		count:   stats.Count,
		sum:     stats.Sum,
		sampler: sampler,
	}
}

// Reward records one trial. The reward defaults to 0 (a trial without
// success) when no value is given. Only the first value is used.
func (arm *Arm) Reward(value ...float64) {
	reward := 0.0
	if len(value) > 0 {
		reward = value[0]
	}

	arm.RewardMultiple(1, reward)
}

// RewardMultiple records numTries trials that accumulated totalValue.
// Values are not validated.
func (arm *Arm) RewardMultiple(numTries int64, totalValue float64) {
	arm.mu.Lock()
	defer arm.mu.Unlock()

	arm.count += numTries
	arm.sum += totalValue
}

// Sample draws the arm's success probability from its posterior,
// Beta(1 + sum, 1 + count - sum).
func (arm *Arm) Sample() float64 {
	stats := arm.Stats()

	return arm.sampler.Sample(stats.Alpha(), stats.Beta())
}

func (arm *Arm) Stats() types.ArmStats {
	arm.mu.Lock()
	defer arm.mu.Unlock()

	return types.ArmStats{Count: arm.count, Sum: arm.sum}
}

func (arm *Arm) Count() int64 {
	return arm.Stats().Count
}

func (arm *Arm) Sum() float64 {
	return arm.Stats().Sum
}

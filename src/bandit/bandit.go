// Package bandit implements a Bernoulli multi-armed bandit that selects arms
// with Thompson sampling.
package bandit

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/poorlydefinedbehaviour/bayesian-bandit/src/beta"
	"github.com/poorlydefinedbehaviour/bayesian-bandit/src/rand"
	"github.com/poorlydefinedbehaviour/bayesian-bandit/src/slicesx"
	"github.com/poorlydefinedbehaviour/bayesian-bandit/src/types"
	"go.uber.org/zap"
)

// NoArm is returned by SelectArm when the bandit has no arms.
const NoArm = -1

var ErrArmIndexOutOfBounds = errors.New("arm index out of bounds")

type Config struct {
	// Number of empty arms to create. Ignored when Arms is not nil.
	NumberOfArms int

	// Statistics used to seed one arm each, in order.
	Arms []types.ArmStats
}

type options struct {
	random     rand.Random
	newSampler func(index int) Sampler
	logger     *zap.SugaredLogger
}

type Option = func(*options)

// WithRandom sets the uniform source used by the default Beta sampler.
func WithRandom(random rand.Random) Option {
	return func(o *options) {
		o.random = random
	}
}

// WithSampler overrides the sampler used by each arm.
func WithSampler(newSampler func(index int) Sampler) Option {
	return func(o *options) {
		o.newSampler = newSampler
	}
}

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

type Bandit struct {
	// Never changes after New returns. The index is the arm identity.
	arms []*Arm

	logger *zap.SugaredLogger
}

func New(config Config, opts ...Option) *Bandit {
	o := options{logger: zap.NewNop().Sugar()}
	for _, option := range opts {
		option(&o)
	}
	if o.random == nil {
		o.random = rand.NewRand(uint64(time.Now().UnixNano()))
	}
	if o.newSampler == nil {
		sampler := beta.NewSampler(o.random)
		o.newSampler = func(int) Sampler { return sampler }
	}

	stats := config.Arms
	if stats == nil && config.NumberOfArms > 0 {
		stats = make([]types.ArmStats, config.NumberOfArms)
	}

	arms := make([]*Arm, 0, len(stats))
	for i, armStats := range stats {
		arms = append(arms, NewArm(o.newSampler(i), armStats))
	}

	o.logger.Debugw("bandit created", "arms", len(arms), "seeded", config.Arms != nil)

	return &Bandit{arms: arms, logger: o.logger}
}

// SelectArm samples every arm and returns the index of the largest sample.
// The first arm wins ties. Returns NoArm when there are no arms.
func (bandit *Bandit) SelectArm() int {
	max := math.Inf(-1)
	indexOfMax := NoArm

	for i, arm := range bandit.arms {
		sample := arm.Sample()
		if sample > max {
			max = sample
			indexOfMax = i
		}
	}

	bandit.logger.Debugw("arm selected", "index", indexOfMax, "sample", max)

	return indexOfMax
}

func (bandit *Bandit) Len() int {
	return len(bandit.arms)
}

// Arm returns the arm at index or nil if it does not exist.
func (bandit *Bandit) Arm(index int) *Arm {
	if index < 0 || index >= len(bandit.arms) {
		return nil
	}

	return bandit.arms[index]
}

func (bandit *Bandit) Reward(index int, value ...float64) error {
	arm := bandit.Arm(index)
	if arm == nil {
		return fmt.Errorf("rewarding arm: index=%d arms=%d %w", index, len(bandit.arms), ErrArmIndexOutOfBounds)
	}

	arm.Reward(value...)

	return nil
}

func (bandit *Bandit) RewardMultiple(index int, numTries int64, totalValue float64) error {
	arm := bandit.Arm(index)
	if arm == nil {
		return fmt.Errorf("rewarding arm: index=%d arms=%d %w", index, len(bandit.arms), ErrArmIndexOutOfBounds)
	}

	arm.RewardMultiple(numTries, totalValue)

	return nil
}

// Snapshot returns the statistics of every arm in index order. Passing it
// back as Config.Arms recreates the bandit.
func (bandit *Bandit) Snapshot() []types.ArmStats {
	return slicesx.Map(bandit.arms, func(arm **Arm) types.ArmStats {
		return (*arm).Stats()
	})
}

package bandit

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/poorlydefinedbehaviour/bayesian-bandit/src/rand"
	"github.com/poorlydefinedbehaviour/bayesian-bandit/src/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"
)

func fixedSamples(samples ...float64) Option {
	return WithSampler(func(index int) Sampler {
		return fixedSampler(samples[index])
	})
}

func TestNew(t *testing.T) {
	t.Parallel()

	cases := []struct {
		description string
		config      Config
		expected    []types.ArmStats
	}{
		{
			description: "creates the specified number of empty arms",
			config:      Config{NumberOfArms: 3},
			expected:    []types.ArmStats{{}, {}, {}},
		},
		{
			description: "when nothing is passed creates 0 arms",
			config:      Config{},
			expected:    []types.ArmStats{},
		},
		{
			description: "negative number of arms creates 0 arms",
			config:      Config{NumberOfArms: -3},
			expected:    []types.ArmStats{},
		},
		{
			description: "seeds arms from the given statistics in order",
			config: Config{Arms: []types.ArmStats{
				{Count: 100, Sum: 20},
				{Count: 50, Sum: 30},
				{Count: 70, Sum: 10},
			}},
			expected: []types.ArmStats{
				{Count: 100, Sum: 20},
				{Count: 50, Sum: 30},
				{Count: 70, Sum: 10},
			},
		},
		{
			description: "statistics take precedence over the number of arms",
			config: Config{
				NumberOfArms: 5,
				Arms:         []types.ArmStats{{Count: 1, Sum: 1}},
			},
			expected: []types.ArmStats{{Count: 1, Sum: 1}},
		},
		{
			description: "empty statistics take precedence over the number of arms",
			config: Config{
				NumberOfArms: 5,
				Arms:         []types.ArmStats{},
			},
			expected: []types.ArmStats{},
		},
	}

	for _, tt := range cases {
		bandit := New(tt.config, WithRandom(rand.NewRand(0)))

		assert.Equal(t, len(tt.expected), bandit.Len(), tt.description)
		assert.Equal(t, tt.expected, bandit.Snapshot(), tt.description)
	}
}

func TestNewDoesNotAliasTheGivenStatistics(t *testing.T) {
	t.Parallel()

	stats := []types.ArmStats{{Count: 1, Sum: 1}}

	bandit := New(Config{Arms: stats})
	bandit.Arm(0).Reward(1)

	assert.Equal(t, types.ArmStats{Count: 1, Sum: 1}, stats[0])
	assert.Equal(t, types.ArmStats{Count: 2, Sum: 2}, bandit.Arm(0).Stats())
}

func TestEmptyArmsAreIndependent(t *testing.T) {
	t.Parallel()

	bandit := New(Config{NumberOfArms: 2})
	bandit.Arm(0).Reward(1)

	assert.Equal(t, types.ArmStats{Count: 1, Sum: 1}, bandit.Arm(0).Stats())
	assert.Equal(t, types.ArmStats{}, bandit.Arm(1).Stats())
}

func TestSelectArm(t *testing.T) {
	t.Parallel()

	t.Run("returns the arm with the largest sample", func(t *testing.T) {
		t.Parallel()

		bandit := New(Config{NumberOfArms: 3}, fixedSamples(0.2, 0.9, 0.3))

		assert.Equal(t, 1, bandit.SelectArm())
	})

	t.Run("the first arm wins ties", func(t *testing.T) {
		t.Parallel()

		bandit := New(Config{NumberOfArms: 4}, fixedSamples(0.1, 0.7, 0.2, 0.7))

		assert.Equal(t, 1, bandit.SelectArm())
	})

	t.Run("returns NoArm when there are no arms", func(t *testing.T) {
		t.Parallel()

		bandit := New(Config{})

		assert.Equal(t, NoArm, bandit.SelectArm())
	})

	t.Run("samples every arm once", func(t *testing.T) {
		t.Parallel()

		samplers := []*recordingSampler{{}, {}, {}}
		bandit := New(Config{NumberOfArms: 3}, WithSampler(func(index int) Sampler {
			return samplers[index]
		}))

		bandit.SelectArm()

		for _, sampler := range samplers {
			assert.Equal(t, 1, sampler.calls)
		}
	})

	t.Run("returns the index of the maximum sample", rapid.MakeCheck(func(t *rapid.T) {
		samples := rapid.SliceOfN(rapid.Float64Range(0, 1), 1, 50).Draw(t, "samples")

		bandit := New(Config{NumberOfArms: len(samples)}, fixedSamples(samples...))

		selected := bandit.SelectArm()

		for i, sample := range samples {
			if i < selected {
				assert.Less(t, sample, samples[selected])
			} else {
				assert.LessOrEqual(t, sample, samples[selected])
			}
		}
	}))
}

func TestRewardByIndex(t *testing.T) {
	t.Parallel()

	bandit := New(Config{NumberOfArms: 2})

	assert.NoError(t, bandit.Reward(0))
	assert.NoError(t, bandit.Reward(1, 1))
	assert.NoError(t, bandit.RewardMultiple(1, 10, 4))

	assert.Equal(t, []types.ArmStats{{Count: 1, Sum: 0}, {Count: 11, Sum: 5}}, bandit.Snapshot())

	for _, index := range []int{-1, 2, 100} {
		assert.ErrorIs(t, bandit.Reward(index, 1), ErrArmIndexOutOfBounds)
		assert.ErrorIs(t, bandit.RewardMultiple(index, 1, 1), ErrArmIndexOutOfBounds)
		assert.Nil(t, bandit.Arm(index))
	}
}

func TestSnapshotRecreatesTheBandit(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		stats := rapid.SliceOf(armStatsGenerator()).Draw(t, "stats")

		bandit := New(Config{Arms: stats})
		restored := New(Config{Arms: bandit.Snapshot()})

		assert.Equal(t, bandit.Snapshot(), restored.Snapshot())
		assert.Equal(t, bandit.Len(), restored.Len())
	})
}

func TestBanditModel(t *testing.T) {
	t.Parallel()

	const (
		OpReward         = "Reward"
		OpRewardMultiple = "RewardMultiple"
		OpSelectArm      = "SelectArm"
		OpSnapshot       = "Snapshot"
	)

	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Uint64().Draw(t, "seed")
		numberOfArms := rapid.IntRange(0, 10).Draw(t, "numberOfArms")

		bandit := New(Config{NumberOfArms: numberOfArms}, WithRandom(rand.NewRand(seed)))
		model := make([]types.ArmStats, numberOfArms)

		ops := rapid.SliceOf(rapid.SampledFrom([]string{
			OpReward,
			OpRewardMultiple,
			OpSelectArm,
			OpSnapshot,
		})).Draw(t, "ops")

		for _, op := range ops {
			switch op {
			case OpReward:
				index := rapid.IntRange(-1, numberOfArms).Draw(t, "reward: index")
				value := rapid.SampledFrom([]float64{0, 1}).Draw(t, "reward: value")

				err := bandit.Reward(index, value)
				if index < 0 || index >= numberOfArms {
					assert.True(t, errors.Is(err, ErrArmIndexOutOfBounds))
					continue
				}
				assert.NoError(t, err)

				model[index].Count++
				model[index].Sum += value

			case OpRewardMultiple:
				index := rapid.IntRange(-1, numberOfArms).Draw(t, "reward multiple: index")
				numTries := rapid.Int64Range(0, 100).Draw(t, "reward multiple: numTries")
				totalValue := rapid.Float64Range(0, float64(numTries)).Draw(t, "reward multiple: totalValue")

				err := bandit.RewardMultiple(index, numTries, totalValue)
				if index < 0 || index >= numberOfArms {
					assert.True(t, errors.Is(err, ErrArmIndexOutOfBounds))
					continue
				}
				assert.NoError(t, err)

				model[index].Count += numTries
				model[index].Sum += totalValue

			case OpSelectArm:
				selected := bandit.SelectArm()
				if numberOfArms == 0 {
					assert.Equal(t, NoArm, selected)
				} else {
					assert.GreaterOrEqual(t, selected, 0)
					assert.Less(t, selected, numberOfArms)
				}

			case OpSnapshot:
				assert.Equal(t, model, bandit.Snapshot())

			default:
				panic(fmt.Sprintf("unexpected op: %s", op))
			}
		}

		assert.Equal(t, model, bandit.Snapshot())
	})
}

func pullArms(t *testing.T, bandit *Bandit, probabilities []float64, rewards *rand.DefaultRandom, times int) {
	t.Helper()

	for i := 0; i < times; i++ {
		selected := bandit.SelectArm()
		require.NotEqual(t, NoArm, selected)

		value := 0.0
		if rewards.GenBool(probabilities[selected]) {
			value = 1
		}

		require.NoError(t, bandit.Reward(selected, value))
	}
}

func TestExploresAllArms(t *testing.T) {
	t.Parallel()

	bandit := New(Config{NumberOfArms: 2}, WithRandom(rand.NewRand(1)))

	pullArms(t, bandit, []float64{0.3, 0.8}, rand.NewRand(2), 100)

	assert.Greater(t, bandit.Arm(0).Count(), int64(1))
	assert.Greater(t, bandit.Arm(1).Count(), int64(1))
}

func TestConvergesOnTheOptimalArm(t *testing.T) {
	t.Parallel()

	const times = 1_000

	bandit := New(Config{NumberOfArms: 2}, WithRandom(rand.NewRand(3)))

	pullArms(t, bandit, []float64{0.1, 0.9}, rand.NewRand(4), times)

	worst := bandit.Arm(0).Count()
	best := bandit.Arm(1).Count()

	assert.Equal(t, int64(times), worst+best)
	assert.Greater(t, worst, int64(1))
	assert.Less(t, worst, int64(times/10))
	assert.Greater(t, best, int64(times*9/10))
}

func TestConcurrentSelectAndReward(t *testing.T) {
	t.Parallel()

	bandit := New(Config{NumberOfArms: 3}, WithRandom(rand.NewRand(5)), WithLogger(zap.NewNop().Sugar()))

	const (
		goroutines = 8
		pulls      = 500
	)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < pulls; j++ {
				selected := bandit.SelectArm()
				assert.NoError(t, bandit.Reward(selected, 1))
			}
		}()
	}
	wg.Wait()

	total := int64(0)
	for _, stats := range bandit.Snapshot() {
		assert.Equal(t, float64(stats.Count), stats.Sum)
		total += stats.Count
	}
	assert.Equal(t, int64(goroutines*pulls), total)
}

func armStatsGenerator() *rapid.Generator[types.ArmStats] {
	return rapid.Custom(func(t *rapid.T) types.ArmStats {
		count := rapid.Int64Range(0, 1_000_000).Draw(t, "Count")
		return types.ArmStats{
			Count: count,
			Sum:   rapid.Float64Range(0, float64(count)).Draw(t, "Sum"),
		}
	})
}

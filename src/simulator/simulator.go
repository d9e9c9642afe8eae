// Package simulator drives a bandit against arms with known success
// probabilities and reports how the selection policy behaved.
package simulator

import (
	"context"
	"errors"
	"fmt"

	"github.com/poorlydefinedbehaviour/bayesian-bandit/src/bandit"
	"github.com/poorlydefinedbehaviour/bayesian-bandit/src/rand"
	"github.com/poorlydefinedbehaviour/bayesian-bandit/src/ringbuffer"
	"github.com/poorlydefinedbehaviour/bayesian-bandit/src/storage"
	"github.com/poorlydefinedbehaviour/bayesian-bandit/src/types"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrArmCountMismatch = errors.New("number of arms does not match the number of probabilities")
	ErrInvalidConfig    = errors.New("invalid simulator config")
)

type Config struct {
	// True success probability of each arm. Arm i is rewarded with 1 with
	// probability Probabilities[i] and with 0 otherwise.
	Probabilities []float64

	// Number of pull-reward cycles Run executes.
	Trials int

	// Number of recent trials used for the moving reward rate.
	Window int
}

type ArmSummary struct {
	Index         int     `yaml:"index"`
	Probability   float64 `yaml:"probability"`
	Count         int64   `yaml:"count"`
	Sum           float64 `yaml:"sum"`
	PosteriorMean float64 `yaml:"posterior_mean"`
}

type Summary struct {
	Trials           int          `yaml:"trials"`
	TotalReward      float64      `yaml:"total_reward"`
	RecentRewardRate float64      `yaml:"recent_reward_rate"`
	ExpectedRegret   float64      `yaml:"expected_regret"`
	MeanProbability  float64      `yaml:"mean_probability_of_pulled_arms"`
	Arms             []ArmSummary `yaml:"arms"`
}

type Simulator struct {
	config  Config
	bandit  *bandit.Bandit
	rewards rand.Random
	logger  *zap.SugaredLogger

	// Rewards of the most recent trials.
	window    *ringbuffer.RingBuffer[float64]
	windowSum float64

	trials      int
	totalReward float64
}

func New(config Config, bandit *bandit.Bandit, rewards rand.Random, logger *zap.SugaredLogger) (*Simulator, error) {
	if bandit.Len() != len(config.Probabilities) {
		return nil, fmt.Errorf("arms=%d probabilities=%d %w", bandit.Len(), len(config.Probabilities), ErrArmCountMismatch)
	}
	if len(config.Probabilities) == 0 {
		return nil, fmt.Errorf("at least one arm is required %w", ErrInvalidConfig)
	}
	for i, probability := range config.Probabilities {
		if probability < 0 || probability > 1 {
			return nil, fmt.Errorf("probability must be in [0, 1]: arm=%d probability=%f %w", i, probability, ErrInvalidConfig)
		}
	}
	if config.Trials < 0 {
		return nil, fmt.Errorf("trials must not be negative: trials=%d %w", config.Trials, ErrInvalidConfig)
	}

	window, err := ringbuffer.New[float64](config.Window)
	if err != nil {
		return nil, fmt.Errorf("creating reward window: %s %w", err, ErrInvalidConfig)
	}

	return &Simulator{
		config:  config,
		bandit:  bandit,
		rewards: rewards,
		logger:  logger,
		window:  window,
	}, nil
}

// Step runs one pull-reward cycle and returns the selected arm and its reward.
func (simulator *Simulator) Step() (int, float64) {
	selected := simulator.bandit.SelectArm()

	reward := 0.0
	if simulator.rewards.Float64() < simulator.config.Probabilities[selected] {
		reward = 1
	}

	// Arm count was validated in New.
	simulator.bandit.Arm(selected).Reward(reward)

	if evicted, ok := simulator.window.PushEvicting(reward); ok {
		simulator.windowSum -= evicted
	}
	simulator.windowSum += reward

	simulator.trials++
	simulator.totalReward += reward

	return selected, reward
}

// Run executes Config.Trials steps, calling onTrial after each one. It stops
// early when ctx is cancelled and returns the summary so far with ctx.Err().
func (simulator *Simulator) Run(ctx context.Context, onTrial func(trial int)) (Summary, error) {
	for i := 0; i < simulator.config.Trials; i++ {
		if err := ctx.Err(); err != nil {
			simulator.logger.Infow("simulation interrupted", "trials", simulator.trials)
			return simulator.Summary(), err
		}

		selected, reward := simulator.Step()

		simulator.logger.Debugw("trial", "trial", i, "arm", selected, "reward", reward)

		if onTrial != nil {
			onTrial(i)
		}
	}

	return simulator.Summary(), nil
}

// RecentRewardRate is the average reward over the last Config.Window trials.
func (simulator *Simulator) RecentRewardRate() float64 {
	if simulator.window.Len() == 0 {
		return 0
	}

	return simulator.windowSum / float64(simulator.window.Len())
}

func (simulator *Simulator) Summary() Summary {
	snapshot := simulator.bandit.Snapshot()
	probabilities := simulator.config.Probabilities

	best := floats.Max(probabilities)

	arms := make([]ArmSummary, 0, len(snapshot))
	counts := make([]float64, 0, len(snapshot))
	regret := 0.0

	for i, stats := range snapshot {
		arms = append(arms, ArmSummary{
			Index:         i,
			Probability:   probabilities[i],
			Count:         stats.Count,
			Sum:           stats.Sum,
			PosteriorMean: stats.PosteriorMean(),
		})
		counts = append(counts, float64(stats.Count))
		regret += float64(stats.Count) * (best - probabilities[i])
	}

	meanProbability := 0.0
	if floats.Sum(counts) > 0 {
		meanProbability = stat.Mean(probabilities, counts)
	}

	return Summary{
		Trials:           simulator.trials,
		TotalReward:      simulator.totalReward,
		RecentRewardRate: simulator.RecentRewardRate(),
		ExpectedRegret:   regret,
		MeanProbability:  meanProbability,
		Arms:             arms,
	}
}

// Resume builds the bandit config from the last persisted snapshot, or a
// config of empty arms when nothing was persisted.
func Resume(storage storage.Storage, numberOfArms int) (bandit.Config, error) {
	arms, err := storage.Load()
	if err != nil {
		return bandit.Config{}, fmt.Errorf("loading snapshot: directory=%s %w", storage.Directory(), err)
	}

	if arms == nil {
		return bandit.Config{NumberOfArms: numberOfArms}, nil
	}

	if len(arms) != numberOfArms {
		return bandit.Config{}, fmt.Errorf("snapshot has %d arms, expected %d %w", len(arms), numberOfArms, ErrArmCountMismatch)
	}

	return bandit.Config{Arms: arms}, nil
}

// Save persists the bandit statistics so a later Resume continues from them.
func Save(storage storage.Storage, arms []types.ArmStats) error {
	if err := storage.Persist(arms); err != nil {
		return fmt.Errorf("persisting snapshot: directory=%s %w", storage.Directory(), err)
	}

	return nil
}

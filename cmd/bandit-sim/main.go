package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/poorlydefinedbehaviour/bayesian-bandit/src/appconfig"
	"github.com/poorlydefinedbehaviour/bayesian-bandit/src/bandit"
	"github.com/poorlydefinedbehaviour/bayesian-bandit/src/rand"
	"github.com/poorlydefinedbehaviour/bayesian-bandit/src/simulator"
	"github.com/poorlydefinedbehaviour/bayesian-bandit/src/storage"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func main() {
	cfg, err := appconfig.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := newRootCommand(cfg).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand(cfg *appconfig.AppConfig) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "bandit-sim",
		Short: "Simulates Bernoulli arms and selects them with Thompson sampling",
		Long: `bandit-sim pulls arms with known success probabilities, rewards the bandit
with the observed outcome and prints how often each arm was selected.

When --state-dir is set, arm statistics are loaded before the run and
persisted after it, so consecutive runs keep learning.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(verbose)
			if err != nil {
				return fmt.Errorf("creating logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
		},
	}

	flags := cmd.Flags()
	flags.Float64SliceVar(&cfg.Probabilities, "probabilities", cfg.Probabilities, "true success probability of each arm")
	flags.IntVar(&cfg.Trials, "trials", cfg.Trials, "number of pull-reward cycles")
	flags.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "seed for the random sources, 0 uses the clock")
	flags.StringVar(&cfg.StateDir, "state-dir", cfg.StateDir, "directory where arm statistics are persisted")
	flags.IntVar(&cfg.Window, "window", cfg.Window, "number of recent trials used for the moving reward rate")
	flags.StringVarP(&cfg.Output, "output", "o", cfg.Output, "summary format: text or yaml")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log every trial")

	return cmd
}

func newLogger(verbose bool) (*zap.SugaredLogger, error) {
	var (
		log *zap.Logger
		err error
	)
	if verbose {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction(zap.WithCaller(true))
	}
	if err != nil {
		return nil, err
	}

	return log.Sugar(), nil
}

func run(ctx context.Context, cfg *appconfig.AppConfig, out, progressOut io.Writer, logger *zap.SugaredLogger) error {
	if cfg.Output != "text" && cfg.Output != "yaml" {
		return fmt.Errorf("unknown output format: output=%s", cfg.Output)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	var store storage.Storage = storage.NewInMemoryStorage()
	if cfg.StateDir != "" {
		fileStorage, err := storage.NewFileStorage(cfg.StateDir)
		if err != nil {
			return fmt.Errorf("opening state: %w", err)
		}
		defer fileStorage.Close()
		store = fileStorage
	}

	banditConfig, err := simulator.Resume(store, len(cfg.Probabilities))
	if err != nil {
		return err
	}

	b := bandit.New(banditConfig, bandit.WithRandom(rand.NewRand(seed)), bandit.WithLogger(logger))

	sim, err := simulator.New(simulator.Config{
		Probabilities: cfg.Probabilities,
		Trials:        cfg.Trials,
		Window:        cfg.Window,
	}, b, rand.NewRand(seed+1), logger)
	if err != nil {
		return err
	}

	logger.Infow("starting simulation",
		"arms", b.Len(),
		"trials", cfg.Trials,
		"seed", seed,
		"resumed", banditConfig.Arms != nil,
	)

	bar := progressbar.NewOptions(cfg.Trials,
		progressbar.OptionSetWriter(progressOut),
		progressbar.OptionSetDescription("simulating"),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)

	summary, runErr := sim.Run(ctx, func(int) { _ = bar.Add(1) })
	_ = bar.Finish()

	// Keep what was learned even when the run was interrupted.
	if err := simulator.Save(store, b.Snapshot()); err != nil {
		return err
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("running simulation: %w", runErr)
	}

	logger.Infow("simulation finished", "trials", summary.Trials, "total_reward", summary.TotalReward)

	return printSummary(out, cfg.Output, summary)
}

func printSummary(out io.Writer, format string, summary simulator.Summary) error {
	if format == "yaml" {
		encoder := yaml.NewEncoder(out)
		defer encoder.Close()

		if err := encoder.Encode(summary); err != nil {
			return fmt.Errorf("encoding summary: %w", err)
		}
		return nil
	}

	fmt.Fprintf(out, "trials: %d\n", summary.Trials)
	fmt.Fprintf(out, "total reward: %.0f\n", summary.TotalReward)
	fmt.Fprintf(out, "recent reward rate: %.3f\n", summary.RecentRewardRate)
	fmt.Fprintf(out, "expected regret: %.2f\n", summary.ExpectedRegret)
	fmt.Fprintf(out, "mean probability of pulled arms: %.3f\n", summary.MeanProbability)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "%-5s %-11s %-8s %-8s %s\n", "arm", "probability", "pulls", "reward", "posterior mean")
	for _, arm := range summary.Arms {
		fmt.Fprintf(out, "%-5d %-11.3f %-8d %-8.0f %.3f\n", arm.Index, arm.Probability, arm.Count, arm.Sum, arm.PosteriorMean)
	}

	return nil
}

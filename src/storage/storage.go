package storage

import (
	"errors"

	"github.com/poorlydefinedbehaviour/bayesian-bandit/src/types"
)

var ErrCorruptSnapshot = errors.New("corrupt snapshot")

// Storage keeps the latest snapshot of a bandit's arm statistics.
type Storage interface {
	Directory() string

	// Returns nil when nothing has been persisted yet.
	Load() ([]types.ArmStats, error)

	// Replaces the persisted snapshot.
	Persist(arms []types.ArmStats) error
}

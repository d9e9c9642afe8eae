package storage

import (
	"sync"

	"github.com/poorlydefinedbehaviour/bayesian-bandit/src/types"
)

type InMemoryStorage struct {
	mu    sync.Mutex
	arms  []types.ArmStats
	saved bool
}

func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{}
}

func (storage *InMemoryStorage) Directory() string {
	return ""
}

func (storage *InMemoryStorage) Load() ([]types.ArmStats, error) {
	storage.mu.Lock()
	defer storage.mu.Unlock()

	if !storage.saved {
		return nil, nil
	}

	return append(make([]types.ArmStats, 0, len(storage.arms)), storage.arms...), nil
}

func (storage *InMemoryStorage) Persist(arms []types.ArmStats) error {
	storage.mu.Lock()
	defer storage.mu.Unlock()

	storage.arms = append(make([]types.ArmStats, 0, len(arms)), arms...)
	storage.saved = true

	return nil
}

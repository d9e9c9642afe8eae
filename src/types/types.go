package types

// ArmStats is the sufficient statistics of one arm. It is what callers persist
// between process restarts and feed back to seed a bandit.
type ArmStats struct {
	// Number of trials observed on the arm.
	Count int64

	// Total reward observed on the arm.
	Sum float64
}

// Alpha is the first shape parameter of the arm's posterior under a Beta(1, 1) prior.
func (stats ArmStats) Alpha() float64 {
	return 1 + stats.Sum
}

// Beta is the second shape parameter of the arm's posterior under a Beta(1, 1) prior.
func (stats ArmStats) Beta() float64 {
	return 1 + float64(stats.Count) - stats.Sum
}

// PosteriorMean is the expected success probability given the observations.
func (stats ArmStats) PosteriorMean() float64 {
	return stats.Alpha() / (stats.Alpha() + stats.Beta())
}

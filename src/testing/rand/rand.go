package testingrand

import "fmt"

// Sequence returns the given values in order and panics once they run out,
// so a test notices when code draws more numbers than expected.
type Sequence struct {
	values []float64
	next   int
}

func NewSequence(values ...float64) *Sequence {
	return &Sequence{values: values}
}

func (sequence *Sequence) Float64() float64 {
	if sequence.next >= len(sequence.values) {
		panic(fmt.Sprintf("unexpected call to Float64: all %d values were consumed", len(sequence.values)))
	}

	value := sequence.values[sequence.next]
	sequence.next++

	return value
}

// Returns how many values have been drawn so far.
func (sequence *Sequence) Consumed() int {
	return sequence.next
}

type Constant float64

func (constant Constant) Float64() float64 {
	return float64(constant)
}

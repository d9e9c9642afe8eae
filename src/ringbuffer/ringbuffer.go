package ringbuffer

import (
	"errors"
	"fmt"
)

var (
	ErrRingFull = errors.New("the ring buffer is full")
)

type RingBuffer[T any] struct {
	head  int
	tail  int
	size  int
	items []T
}

func New[T any](size int) (*RingBuffer[T], error) {
	if size <= 0 {
		return nil, fmt.Errorf("size must be greater than 0: size=%d", size)
	}

	return &RingBuffer[T]{
		head:  0,
		tail:  0,
		items: make([]T, size),
	}, nil
}

func (ring *RingBuffer[T]) isFull() bool {
	return ring.size == len(ring.items)
}

func (ring *RingBuffer[T]) isEmpty() bool {
	return ring.size == 0
}

func (ring *RingBuffer[T]) Len() int {
	return ring.size
}

func (ring *RingBuffer[T]) Push(value T) error {
	if ring.isFull() {
		return ErrRingFull
	}

	ring.items[ring.tail] = value
	ring.tail = (ring.tail + 1) % len(ring.items)
	ring.size++

	return nil
}

// PushEvicting pushes value, dropping the oldest item first if the ring is full.
// Returns the dropped item.
func (ring *RingBuffer[T]) PushEvicting(value T) (T, bool) {
	var evicted T

	full := ring.isFull()
	if full {
		evicted, _ = ring.Pop()
	}

	ring.items[ring.tail] = value
	ring.tail = (ring.tail + 1) % len(ring.items)
	ring.size++

	return evicted, full
}

func (ring *RingBuffer[T]) Pop() (T, bool) {
	var zeroValue T

	if ring.isEmpty() {
		return zeroValue, false
	}

	value := ring.items[ring.head]
	ring.items[ring.head] = zeroValue
	ring.head = (ring.head + 1) % len(ring.items)
	ring.size--

	return value, true
}

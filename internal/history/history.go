// Package history provides the bounded, oldest-evicting reading buffer that backs the dashboard.
package history

import (
	"sync"

	"github.com/chrissnell/livetemp/internal/types"
)

// DefaultCapacity is the number of readings retained when no capacity is configured
const DefaultCapacity = 10

// History is a fixed-capacity FIFO of readings, oldest first.  It has a single
// writer (the sampler) and hands out copies to any number of readers.
type History struct {
	mu       sync.RWMutex
	readings []types.Reading
	head     int // index of the oldest reading
	count    int
}

// New creates an empty History.  A capacity below one falls back to DefaultCapacity.
func New(capacity int) *History {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &History{
		readings: make([]types.Reading, capacity),
	}
}

// Append adds r to the tail, evicting the oldest reading when the buffer is full
func (h *History) Append(r types.Reading) {
	h.mu.Lock()
	defer h.mu.Unlock()

	capacity := len(h.readings)
	if h.count == capacity {
		h.readings[h.head] = r
		h.head = (h.head + 1) % capacity
		return
	}
	h.readings[(h.head+h.count)%capacity] = r
	h.count++
}

// Snapshot returns a copy of the current contents, oldest first.  The copy is never
// touched by later appends.
func (h *History) Snapshot() []types.Reading {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]types.Reading, h.count)
	for i := 0; i < h.count; i++ {
		out[i] = h.readings[(h.head+i)%len(h.readings)]
	}
	return out
}

// Latest returns the most recently appended reading.  ok is false if nothing has
// been appended yet.
func (h *History) Latest() (r types.Reading, ok bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.count == 0 {
		return types.Reading{}, false
	}
	return h.readings[(h.head+h.count-1)%len(h.readings)], true
}

// Len returns the number of readings currently held
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Capacity returns the maximum number of readings held
func (h *History) Capacity() int {
	return len(h.readings)
}

// Package storage defines interfaces for the optional reading storage backends.
package storage

import (
	"context"
	"sync"

	"github.com/chrissnell/livetemp/internal/types"
)

// StorageEngineInterface is an interface that provides a few standardized
// methods for various storage backends
type StorageEngineInterface interface {
	// StartStorageEngine launches the engine's goroutine and returns the channel
	// it consumes readings from.  The engine releases its resources when ctx is done.
	StartStorageEngine(context.Context, *sync.WaitGroup) chan<- types.Reading
}

// ReadingBufferSize is the per-engine channel depth
const ReadingBufferSize = 10

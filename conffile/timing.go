// FILE: lixenwraith/getopt/conffile/timing.go
package conffile

import "time"

// Core timing constants for file watching.
const (
	SpinWaitInterval = 5 * time.Millisecond   // CPU-friendly busy-wait quantum
	MinDebounce      = 10 * time.Millisecond  // Hard floor for change coalescence
	ShutdownTimeout  = 100 * time.Millisecond // Graceful watcher termination window
	DefaultDebounce  = 500 * time.Millisecond // File change coalescence period
)

// Derived timing relationships for internal use.
const (
	// shutdownPollCycles defines how many spin-wait cycles comprise a shutdown timeout
	shutdownPollCycles = ShutdownTimeout / SpinWaitInterval // = 20 cycles

	// subscriberBuffer is the capacity of each subscriber channel
	subscriberBuffer = 10
)

// internal/protocol/protocol.go
package protocol

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"
)

// ErrSelectionCancelled is returned by an Opener when no port was chosen
var ErrSelectionCancelled = errors.New("port selection cancelled")

// ErrPortClosed is returned by reads and writes on a closed port
var ErrPortClosed = errors.New("port closed")

// Port is an open session to the board. Read is the read source and
// returns io.EOF once the stream has ended; Write is the write sink.
// A Read returning (0, nil) means a read timeout elapsed and is not an
// end of stream.
type Port interface {
	io.Reader
	io.Writer
	io.Closer

	// Name returns the OS path of the port, e.g. /dev/ttyUSB0
	Name() string
}

// InputCanceller is implemented by ports that can abort pending input
type InputCanceller interface {
	ResetInputBuffer() error
}

// OutputReleaser is implemented by ports that can flush their write sink
// before being closed
type OutputReleaser interface {
	Drain() error
}

// StatsProvider is implemented by ports that count their traffic
type StatsProvider interface {
	Stats() PortStats
}

// Opener requests a port from the environment and opens it at the
// fixed symbol rate. It returns ErrSelectionCancelled when the user
// declined to pick a port.
type Opener interface {
	Open(ctx context.Context) (Port, error)
}

// OpenerFunc adapts a function to Opener
type OpenerFunc func(ctx context.Context) (Port, error)

// Open implements Opener
func (f OpenerFunc) Open(ctx context.Context) (Port, error) {
	return f(ctx)
}

// PortStats provides transport-level statistics
type PortStats struct {
	BytesWritten int64     `json:"bytes_written"`
	BytesRead    int64     `json:"bytes_read"`
	Writes       int64     `json:"writes"`
	Reads        int64     `json:"reads"`
	ErrorCount   int64     `json:"error_count"`
	LastActivity time.Time `json:"last_activity"`
}

// StatsRecorder accumulates PortStats. The zero value is ready to use.
type StatsRecorder struct {
	mu    sync.Mutex
	stats PortStats
}

// RecordRead adds a completed read
func (r *StatsRecorder) RecordRead(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.BytesRead += int64(n)
	r.stats.Reads++
	r.stats.LastActivity = time.Now()
}

// RecordWrite adds a completed write
func (r *StatsRecorder) RecordWrite(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.BytesWritten += int64(n)
	r.stats.Writes++
	r.stats.LastActivity = time.Now()
}

// RecordError counts a failed operation
func (r *StatsRecorder) RecordError() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.ErrorCount++
}

// Snapshot returns a copy of the current counters
func (r *StatsRecorder) Snapshot() PortStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// internal/wire/decoder.go
package wire

import (
	"bytes"
	"strings"
)

// MaxLineLength bounds a line. Longer lines are dropped whole, however
// they were split into chunks.
const MaxLineLength = 1024

// LineDecoder reassembles lines from arbitrarily split byte chunks.
// A line is only emitted once its terminator has arrived. It is not safe
// for concurrent use; each connection owns one.
type LineDecoder struct {
	buf       []byte
	discarded int
}

// NewLineDecoder creates an empty decoder
func NewLineDecoder() *LineDecoder {
	return &LineDecoder{buf: make([]byte, 0, 64)}
}

// Feed appends a chunk and returns every line completed by it, trimmed of
// surrounding whitespace. Empty lines are skipped. The trailing partial line
// is retained for the next call.
func (d *LineDecoder) Feed(chunk []byte) []string {
	var lines []string

	for len(chunk) > 0 {
		i := bytes.IndexByte(chunk, Terminator)
		if i < 0 {
			d.buf = append(d.buf, chunk...)
			break
		}

		if d.discarded > 0 || len(d.buf)+i > MaxLineLength {
			// overlong line, or the tail of one
			d.discarded = 0
			d.buf = d.buf[:0]
			chunk = chunk[i+1:]
			continue
		}

		d.buf = append(d.buf, chunk[:i]...)
		chunk = chunk[i+1:]

		if line := strings.TrimSpace(string(d.buf)); line != "" {
			lines = append(lines, line)
		}
		d.buf = d.buf[:0]
	}

	if len(d.buf) > MaxLineLength {
		d.discarded += len(d.buf)
		d.buf = d.buf[:0]
	}

	return lines
}

// Pending returns the number of buffered bytes not yet terminated
func (d *LineDecoder) Pending() int {
	return len(d.buf)
}

// Reset drops any partial line
func (d *LineDecoder) Reset() {
	d.buf = d.buf[:0]
	d.discarded = 0
}

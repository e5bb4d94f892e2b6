// Package telemetry carries debug output out of the IR core. The core only
// sees a Sink; where the text ends up (a console, a character display, a
// host log) is decided by the board.
package telemetry

import (
	"fmt"
	"sync"
)

// Sink receives formatted debug lines. *log.Logger and *logrus.Logger satisfy it.
type Sink interface {
	Printf(format string, args ...interface{})
}

type discard struct{}

func (discard) Printf(string, ...interface{}) {}

// Discard drops everything.
var Discard Sink = discard{}

// Or returns s, or Discard when s is nil.
func Or(s Sink) Sink {
	if s == nil {
		return Discard
	}
	return s
}

// Ring keeps the most recent lines in a fixed buffer. It is safe for use
// from the main loop and a display task; it must not be used from interrupts.
type Ring struct {
	mu    sync.Mutex
	lines []string
	next  int
	count int
	width int
}

// NewRing keeps up to n lines, each truncated to width bytes (0 means no limit).
func NewRing(n, width int) *Ring {
	if n < 1 {
		n = 1
	}
	return &Ring{lines: make([]string, n), width: width}
}

func (r *Ring) Printf(format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	if r.width > 0 && len(line) > r.width {
		line = line[:r.width]
	}

	r.mu.Lock()
	r.lines[r.next] = line
	r.next = (r.next + 1) % len(r.lines)
	if r.count < len(r.lines) {
		r.count++
	}
	r.mu.Unlock()
}

// Lines returns the buffered lines, oldest first.
func (r *Ring) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, r.count)
	start := (r.next - r.count + len(r.lines)) % len(r.lines)
	for i := 0; i < r.count; i++ {
		out = append(out, r.lines[(start+i)%len(r.lines)])
	}
	return out
}

// Tee forwards every line to all sinks.
func Tee(sinks ...Sink) Sink { return tee(sinks) }

type tee []Sink

func (t tee) Printf(format string, args ...interface{}) {
	for _, s := range t {
		s.Printf(format, args...)
	}
}

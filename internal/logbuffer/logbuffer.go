// Package logbuffer keeps the most recent log lines in memory for the management console.
package logbuffer

import (
	"strings"
	"sync"
)

// DefaultCapacity is the number of lines kept when no capacity is given.
const DefaultCapacity = 200

// Buffer is a fixed-capacity ring of log lines. It implements io.Writer,
// treating every Write call as one line. Safe for concurrent use.
type Buffer struct {
	mu    sync.Mutex
	lines []string
	next  int
	full  bool
}

// New creates a Buffer holding at most capacity lines.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{lines: make([]string, capacity)}
}

// Write stores p as a single line, evicting the oldest line when full.
func (b *Buffer) Write(p []byte) (int, error) {
	line := strings.TrimRight(string(p), "\r\n")

	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines[b.next] = line
	b.next = (b.next + 1) % len(b.lines)
	if b.next == 0 {
		b.full = true
	}
	return len(p), nil
}

// Entries returns a copy of the stored lines, oldest first.
func (b *Buffer) Entries() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.full {
		return append([]string(nil), b.lines[:b.next]...)
	}
	out := make([]string, 0, len(b.lines))
	out = append(out, b.lines[b.next:]...)
	return append(out, b.lines[:b.next]...)
}

// Package logging provides logging utilities, including the noise filter
// applied when external tool output is echoed to an interactive console.
package logging

import (
	"io"
	"strings"
	"sync"
)

// noisyPrefixes lists line prefixes of common progress chatter emitted by the
// wrapped VCS tools (hg and bzr are the worst offenders). Lines starting with
// any of these are suppressed from interactive echo so a large checkout does
// not flood the terminal. The filter is advisory only: it never touches the
// captured output adapters parse.
var noisyPrefixes = []string{ //nolint:gochecknoglobals // Package-level deny-list for reuse
	"adding ",
	"updating ",
	"(",
	"requesting ",
	"resolving ",
	"searching ",
	"pulling ",
	"applying ",
	"remote: ",
}

// IsNoiseLine reports whether a single output line matches the deny-list of
// progress chatter prefixes.
func IsNoiseLine(line string) bool {
	for _, prefix := range noisyPrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// NoiseFilterWriter wraps an io.Writer and drops deny-listed lines before
// writing. It buffers partial lines across Write calls so prefix matching
// always sees complete lines.
type NoiseFilterWriter struct {
	mu  sync.Mutex
	w   io.Writer
	buf strings.Builder
}

// NewNoiseFilterWriter creates a NoiseFilterWriter that writes kept lines to w.
func NewNoiseFilterWriter(w io.Writer) *NoiseFilterWriter {
	return &NoiseFilterWriter{w: w}
}

// Write implements io.Writer. Complete lines are filtered and forwarded;
// a trailing partial line is buffered until its newline arrives or Flush is
// called. The returned length always equals len(p) so callers never see a
// short write caused by filtering.
func (nw *NoiseFilterWriter) Write(p []byte) (n int, err error) {
	nw.mu.Lock()
	defer nw.mu.Unlock()

	nw.buf.Write(p)
	data := nw.buf.String()

	idx := strings.LastIndexByte(data, '\n')
	if idx == -1 {
		// No complete line yet; keep buffering.
		return len(p), nil
	}

	complete := data[:idx+1]
	nw.buf.Reset()
	nw.buf.WriteString(data[idx+1:])

	if err := nw.writeFiltered(complete); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Flush writes any buffered partial line, subject to filtering.
func (nw *NoiseFilterWriter) Flush() error {
	nw.mu.Lock()
	defer nw.mu.Unlock()

	rest := nw.buf.String()
	nw.buf.Reset()
	if rest == "" {
		return nil
	}
	return nw.writeFiltered(rest + "\n")
}

// writeFiltered forwards the non-noise lines of a newline-terminated block.
// Caller must hold nw.mu.
func (nw *NoiseFilterWriter) writeFiltered(block string) error {
	for line := range strings.Lines(block) {
		if IsNoiseLine(line) {
			continue
		}
		if _, err := io.WriteString(nw.w, line); err != nil {
			return err
		}
	}
	return nil
}

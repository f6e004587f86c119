package eventlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

// FileSink appends each event as one JSON line to an underlying writer,
// buffering writes so the tick loop never blocks on disk in the common case.
// Adapted from the session-snapshot-to-JSON-file idiom used elsewhere in this
// tree, generalized from whole-object snapshots to an append-only stream.
type FileSink struct {
	mu  sync.Mutex
	w   *bufio.Writer
	c   io.Closer
	enc *json.Encoder
}

// NewFileSink opens path for appending (creating it if absent) and returns a
// Sink that writes one JSON object per line.
func NewFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("eventlog: open %q: %w", path, err)
	}
	return NewFileSinkWriter(f), nil
}

// NewFileSinkWriter wraps an existing writer (typically an *os.File) as a
// FileSink. If w implements io.Closer, Close will close it.
func NewFileSinkWriter(w io.Writer) *FileSink {
	bw := bufio.NewWriter(w)
	closer, _ := w.(io.Closer)
	return &FileSink{w: bw, c: closer, enc: json.NewEncoder(bw)}
}

// Emit writes e as a JSON line and flushes. Flushing on every event trades
// some throughput for making tail -f a viable way to watch a live room; a
// higher-volume deployment would batch flushes instead.
func (s *FileSink) Emit(e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(e); err != nil {
		return fmt.Errorf("eventlog: encode event: %w", err)
	}
	return s.w.Flush()
}

// Close flushes and closes the underlying writer, if closable.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.w.Flush(); err != nil {
		return err
	}
	if s.c != nil {
		return s.c.Close()
	}
	return nil
}

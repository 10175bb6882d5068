package trace

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Recorder appends records to a trace file. It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	file    *os.File
	encoder *cbor.Encoder
	session string
	closed  bool
	now     func() time.Time
}

// NewRecorder opens path for appending, creating it if needed. Every record
// is tagged with session.
func NewRecorder(path, session string) (*Recorder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	return &Recorder{
		file:    f,
		encoder: NewEncoder(f),
		session: session,
		now:     time.Now,
	}, nil
}

// Record writes one message. Calls after Close are ignored.
func (r *Recorder) Record(dir Direction, kind string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	rec := Record{
		Timestamp: r.now(),
		Session:   r.session,
		Direction: dir,
		Kind:      kind,
		Data:      append([]byte(nil), data...),
	}
	if err := r.encoder.Encode(rec); err != nil {
		return fmt.Errorf("failed to write trace record: %w", err)
	}
	return nil
}

// Close closes the file. It is safe to call Close more than once.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	return r.file.Close()
}

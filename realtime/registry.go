package realtime

import (
	"log/slog"
	"sync"
)

// Registry is the process-wide connection slot: at most one live channel per
// session, regardless of how many times the UI mounts and unmounts. It is an
// explicit object with a lifecycle owned by the orchestrator, not an
// implicit global, and views never reach it directly.
type Registry struct {
	mu   sync.Mutex
	conn *Conn
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Acquire returns the live connection, creating it on first use. Subsequent
// calls return the same handle until Teardown.
func (r *Registry) Acquire(log *slog.Logger, url string, opts Options) *Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn == nil {
		r.conn = NewConn(log, url, opts)
	}
	return r.conn
}

// Teardown disconnects and clears the slot so a later Acquire builds a fresh
// channel.
func (r *Registry) Teardown() error {
	r.mu.Lock()
	conn := r.conn
	r.conn = nil
	r.mu.Unlock()

	if conn == nil {
		return nil
	}
	return conn.Disconnect()
}

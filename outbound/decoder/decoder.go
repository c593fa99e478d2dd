package decoder

import (
	"io"
	"os"
	"sync"
)

// Session is the capability the scan workflow drives. Any decode backend
// (camera pipeline, serial scanner, keyboard wedge) can sit behind it.
// Failures never cross the session boundary as errors or panics; they are
// funneled through the error callback passed to Start.
type Session interface {
	Start(onDecode func(token string), onErr func(err error))
	Stop()
}

// OpenFunc acquires the underlying capture device. It is called on every
// Start so a stopped session can be restarted on the same region.
type OpenFunc func() (io.ReadCloser, error)

// DeviceOpener opens a scanner character device (keyboard-wedge readers
// present as a device file emitting one payload per line).
func DeviceOpener(path string) OpenFunc {
	return func() (io.ReadCloser, error) {
		return os.Open(path)
	}
}

// Registry hands out at most one live session per region id. Acquisition is
// lazy and idempotent: a second Acquire for the same region returns the
// session constructed by the first.
type Registry struct {
	factory func(region string) Session

	mu       sync.Mutex
	sessions map[string]Session
}

func NewRegistry(factory func(region string) Session) *Registry {
	return &Registry{
		factory:  factory,
		sessions: make(map[string]Session),
	}
}

func (r *Registry) Acquire(region string) Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[region]; ok {
		return s
	}

	s := r.factory(region)
	r.sessions[region] = s

	return s
}

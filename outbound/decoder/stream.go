package decoder

import (
	"bufio"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"ticket-gate/common/constant"
	"ticket-gate/common/errs"
)

const (
	// DefaultFrameRate paces the capture loop; one read is delivered at
	// most every 1/DefaultFrameRate seconds.
	DefaultFrameRate = 10

	// Payload length bounds act as the accept window: reads outside the
	// window are discarded without a decode callback.
	DefaultMinPayload = 4
	DefaultMaxPayload = 128
)

// StreamSession decodes tokens from a line-oriented capture device. A single
// read loop runs per session; each accepted payload triggers the decode
// callback exactly once.
type StreamSession struct {
	region   string
	open     OpenFunc
	interval time.Duration
	minLen   int
	maxLen   int

	mu      sync.Mutex
	started bool
	running bool
	stop    chan struct{}
	rc      io.ReadCloser
}

func NewStreamSession(region string, open OpenFunc, frameRate int) *StreamSession {
	if frameRate <= 0 {
		frameRate = DefaultFrameRate
	}

	return &StreamSession{
		region:   region,
		open:     open,
		interval: time.Second / time.Duration(frameRate),
		minLen:   DefaultMinPayload,
		maxLen:   DefaultMaxPayload,
	}
}

// Start acquires the device and begins the paced read loop. Acquisition
// failures are reported through onErr only. Starting an already running
// session is a no-op; leftover state from a previous run on the same region
// is discarded before the new loop begins.
func (s *StreamSession) Start(onDecode func(token string), onErr func(err error)) {
	s.mu.Lock()

	if s.running {
		s.mu.Unlock()
		return
	}

	// Drop whatever a previous loop on this region left behind. The old
	// reader may already be gone; failures here must not block a restart.
	if s.rc != nil {
		_ = s.rc.Close()
		s.rc = nil
	}

	rc, err := s.open()
	if err != nil {
		s.mu.Unlock()
		slog.Warn("decoder device acquisition failed",
			slog.String(constant.LogFieldRegion, s.region),
			slog.Any(constant.LogFieldErr, err))
		onErr(errs.Camera(err))
		return
	}

	stop := make(chan struct{})
	s.rc = rc
	s.stop = stop
	s.started = true
	s.running = true
	s.mu.Unlock()

	go s.readLoop(rc, stop, onDecode, onErr)
}

// Stop halts the capture loop. Before any successful Start it is a no-op,
// and it never surfaces a failure to the caller.
func (s *StreamSession) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || !s.running {
		return
	}

	close(s.stop)
	_ = s.rc.Close()
	s.running = false
}

func (s *StreamSession) readLoop(rc io.Reader, stop chan struct{}, onDecode func(string), onErr func(error)) {
	pace := time.NewTicker(s.interval)
	defer pace.Stop()

	sc := bufio.NewScanner(rc)
	for sc.Scan() {
		payload := strings.TrimSpace(sc.Text())
		if len(payload) < s.minLen || len(payload) > s.maxLen {
			continue
		}

		select {
		case <-stop:
			return
		default:
		}

		onDecode(payload)

		select {
		case <-stop:
			return
		case <-pace.C:
		}
	}

	select {
	case <-stop:
		// The loop was halted by Stop closing the reader.
		return
	default:
	}

	if err := sc.Err(); err != nil {
		slog.Warn("decoder read loop failed",
			slog.String(constant.LogFieldRegion, s.region),
			slog.Any(constant.LogFieldErr, err))
		onErr(errs.Camera(err))
		return
	}

	// Device reached EOF: the capture source went away mid-session.
	onErr(errs.Camera(io.EOF))
}

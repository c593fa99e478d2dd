package decoder

import (
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-gate/common/errs"
)

func collectDecodes() (func(string), chan string) {
	decoded := make(chan string, 16)
	return func(token string) { decoded <- token }, decoded
}

func collectErrors() (func(error), chan error) {
	failed := make(chan error, 16)
	return func(err error) { failed <- err }, failed
}

func waitToken(t *testing.T, decoded chan string) string {
	t.Helper()

	select {
	case token := <-decoded:
		return token
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for decode")
		return ""
	}
}

func TestStreamSessionDecodes(t *testing.T) {
	pr, pw := io.Pipe()

	session := NewStreamSession("entry-a", func() (io.ReadCloser, error) { return pr, nil }, 1000)
	onDecode, decoded := collectDecodes()
	onErr, failed := collectErrors()

	session.Start(onDecode, onErr)
	defer session.Stop()

	go func() {
		fmt.Fprintln(pw, "  TOKEN-123  ")
		fmt.Fprintln(pw, "TOKEN-456")
	}()

	assert.Equal(t, "TOKEN-123", waitToken(t, decoded))
	assert.Equal(t, "TOKEN-456", waitToken(t, decoded))
	assert.Empty(t, failed)
}

func TestStreamSessionAcceptWindow(t *testing.T) {
	pr, pw := io.Pipe()

	session := NewStreamSession("entry-a", func() (io.ReadCloser, error) { return pr, nil }, 1000)
	onDecode, decoded := collectDecodes()
	onErr, _ := collectErrors()

	session.Start(onDecode, onErr)
	defer session.Stop()

	go func() {
		// Too short, too long, then acceptable.
		fmt.Fprintln(pw, "abc")
		fmt.Fprintln(pw, string(make([]byte, DefaultMaxPayload+1)))
		fmt.Fprintln(pw, "TOKEN-789")
	}()

	assert.Equal(t, "TOKEN-789", waitToken(t, decoded))
}

func TestStreamSessionOpenFailure(t *testing.T) {
	session := NewStreamSession("entry-a", func() (io.ReadCloser, error) {
		return nil, errors.New("device busy")
	}, 0)
	onDecode, decoded := collectDecodes()
	onErr, failed := collectErrors()

	session.Start(onDecode, onErr)

	select {
	case err := <-failed:
		var scanErr *errs.ScanError
		require.True(t, errors.As(err, &scanErr))
		assert.Equal(t, errs.KindCamera, scanErr.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for error callback")
	}

	assert.Empty(t, decoded)

	// A failed start never marks the session as started: Stop stays a no-op.
	session.Stop()
}

func TestStreamSessionStopBeforeStartIsNoop(t *testing.T) {
	opened := 0
	session := NewStreamSession("entry-a", func() (io.ReadCloser, error) {
		opened++
		return io.NopCloser(nil), nil
	}, 0)

	session.Stop()
	session.Stop()

	assert.Zero(t, opened)
}

func TestStreamSessionStopHaltsLoop(t *testing.T) {
	pr, pw := io.Pipe()

	session := NewStreamSession("entry-a", func() (io.ReadCloser, error) { return pr, nil }, 1000)
	onDecode, decoded := collectDecodes()
	onErr, failed := collectErrors()

	session.Start(onDecode, onErr)

	go fmt.Fprintln(pw, "TOKEN-123")
	waitToken(t, decoded)

	session.Stop()
	// Stopping twice must stay silent.
	session.Stop()

	pw.Write([]byte("TOKEN-999\n"))

	select {
	case token := <-decoded:
		t.Fatalf("unexpected decode after stop: %s", token)
	case err := <-failed:
		t.Fatalf("unexpected error after stop: %v", err)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestStreamSessionDoubleStartIsNoop(t *testing.T) {
	pr, _ := io.Pipe()

	opened := 0
	session := NewStreamSession("entry-a", func() (io.ReadCloser, error) {
		opened++
		return pr, nil
	}, 1000)
	onDecode, _ := collectDecodes()
	onErr, _ := collectErrors()

	session.Start(onDecode, onErr)
	defer session.Stop()
	session.Start(onDecode, onErr)

	assert.Equal(t, 1, opened)
}

func TestStreamSessionRestartsAfterStop(t *testing.T) {
	var writers []*io.PipeWriter

	session := NewStreamSession("entry-a", func() (io.ReadCloser, error) {
		pr, pw := io.Pipe()
		writers = append(writers, pw)
		return pr, nil
	}, 1000)
	onDecode, decoded := collectDecodes()
	onErr, _ := collectErrors()

	session.Start(onDecode, onErr)
	go fmt.Fprintln(writers[0], "TOKEN-123")
	waitToken(t, decoded)

	session.Stop()

	session.Start(onDecode, onErr)
	defer session.Stop()
	go fmt.Fprintln(writers[1], "TOKEN-456")

	assert.Equal(t, "TOKEN-456", waitToken(t, decoded))
}

func TestRegistryAcquireIsIdempotent(t *testing.T) {
	constructed := 0
	registry := NewRegistry(func(region string) Session {
		constructed++
		return NewStreamSession(region, func() (io.ReadCloser, error) { return nil, errors.New("unused") }, 0)
	})

	first := registry.Acquire("entry-a")
	second := registry.Acquire("entry-a")
	other := registry.Acquire("entry-b")

	assert.Same(t, first, second)
	assert.NotSame(t, first, other)
	assert.Equal(t, 2, constructed)
}

package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"ticket-gate/common"
	"ticket-gate/common/constant"
	"ticket-gate/common/errs"
	"ticket-gate/model"
	"ticket-gate/monitoring"
	"ticket-gate/outbound/audit"
	"ticket-gate/outbound/decoder"
)

// TicketApi is the slice of the backend client the controller drives.
type TicketApi interface {
	Lookup(ctx context.Context, token string) (*model.TicketInfo, error)
	Validate(ctx context.Context, token string) (*model.TicketInfo, error)
}

// Controller owns the decoder session and the ticket under review, and is
// the only writer of both. Decode events, manual submissions and staff
// actions arrive on arbitrary goroutines; the mutex serializes them, and an
// attempt generation counter discards responses that land after a Reset.
type Controller struct {
	Api       TicketApi
	Session   decoder.Session
	Cache     *redis.Client       // optional duplicate-scan guard
	Publisher jetstream.Publisher // optional outcome stream
	Recorder  *audit.Recorder     // optional audit trail
	Validator *validator.Validate

	GateId    string
	Policy    Policy
	RecentTTL time.Duration
	TimeNow   func() time.Time

	// OnChange receives every state transition. Called outside the lock.
	OnChange func(Snapshot)

	mu            sync.Mutex
	phase         Phase
	ticket        *model.TicketInfo
	scanErr       *errs.ScanError
	manual        string
	seenRecently  bool
	attempt       uint64
	attemptCancel context.CancelFunc
	baseCtx       context.Context
	closed        bool

	closeOnce sync.Once
}

// Start binds the controller to its lifetime context, enters the scanning
// phase and starts the decoder session.
func (c *Controller) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	c.mu.Lock()
	c.baseCtx = ctx
	c.phase = PhaseScanning
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
	c.Session.Start(c.handleDecode, c.handleSessionError)
}

// Close tears the workflow down. The decoder session is stopped exactly
// once regardless of the current phase; any in-flight request is cancelled
// and its eventual completion discarded.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.attempt++
		if c.attemptCancel != nil {
			c.attemptCancel()
			c.attemptCancel = nil
		}
		c.mu.Unlock()

		c.Session.Stop()
	})
}

// State returns the current render state.
func (c *Controller) State() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.snapshotLocked()
}

// SubmitManual feeds a staff-typed token into the workflow. Empty or
// whitespace-only input is a strict no-op: no request, no transition.
func (c *Controller) SubmitManual(text string) error {
	token := strings.TrimSpace(text)
	if token == "" {
		return nil
	}

	if c.Validator != nil {
		if err := c.Validator.Struct(model.ManualEntryRequest{Token: token}); err != nil {
			return err
		}
	}

	c.submit(token, "manual")

	return nil
}

// Validate marks the reviewed ticket as used. It is refused outside the
// reviewing phase, for tickets no longer in the issued status, and while a
// previous validation is still outstanding.
func (c *Controller) Validate() {
	c.mu.Lock()

	if c.closed || c.phase != PhaseReviewing || !c.ticket.CanValidate() {
		c.mu.Unlock()
		return
	}

	c.phase = PhaseValidating
	token := c.ticket.Token
	attempt, ctx := c.beginAttemptLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)

	go func() {
		started := c.now()
		partial, err := c.Api.Validate(ctx, token)
		monitoring.ObserveValidateDuration(c.GateId, c.now().Sub(started))

		c.completeValidate(ctx, attempt, token, partial, err)
	}()
}

// Reset returns the workflow to its initial scanning state from any phase.
func (c *Controller) Reset() {
	c.mu.Lock()

	if c.closed {
		c.mu.Unlock()
		return
	}

	c.attempt++
	if c.attemptCancel != nil {
		c.attemptCancel()
		c.attemptCancel = nil
	}

	c.ticket = nil
	c.scanErr = nil
	c.manual = ""
	c.seenRecently = false
	c.phase = PhaseScanning
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)

	// The confirm variant stopped the session when the attempt began; the
	// direct variant keeps it running the whole time.
	if c.Policy.RequiresLookup {
		c.Session.Start(c.handleDecode, c.handleSessionError)
	}
}

func (c *Controller) handleDecode(token string) {
	c.submit(token, "decode")
}

func (c *Controller) handleSessionError(err error) {
	var scanErr *errs.ScanError
	if !errors.As(err, &scanErr) {
		scanErr = errs.Camera(err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	c.phase = PhaseFailed
	c.scanErr = scanErr
	snap := c.snapshotLocked()
	c.mu.Unlock()

	slog.Error("decoder session failed", slog.String(constant.LogFieldGate, c.GateId), slog.Any(constant.LogFieldErr, err))
	c.notify(snap)
}

func (c *Controller) submit(token string, source string) {
	c.mu.Lock()

	if c.closed || c.phase != PhaseScanning {
		c.mu.Unlock()
		return
	}

	c.manual = ""
	c.scanErr = nil
	c.seenRecently = false

	if c.Policy.RequiresLookup {
		// The session must be halted before the lookup leaves the gate so
		// a second decode cannot race a request already in flight.
		c.Session.Stop()
		c.phase = PhaseFetching
	} else {
		c.phase = PhaseValidating
	}

	attempt, ctx := c.beginAttemptLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
	monitoring.RecordScanAttempt(c.GateId, source)

	go c.runAttempt(ctx, attempt, token)
}

func (c *Controller) runAttempt(ctx context.Context, attempt uint64, token string) {
	c.markRecent(ctx, attempt, token)

	started := c.now()

	if c.Policy.RequiresLookup {
		info, err := c.Api.Lookup(ctx, token)
		monitoring.ObserveLookupDuration(c.GateId, c.now().Sub(started))
		c.completeLookup(ctx, attempt, token, info, err)
		return
	}

	partial, err := c.Api.Validate(ctx, token)
	monitoring.ObserveValidateDuration(c.GateId, c.now().Sub(started))
	c.completeValidate(ctx, attempt, token, partial, err)
}

func (c *Controller) completeLookup(ctx context.Context, attempt uint64, token string, info *model.TicketInfo, err error) {
	c.mu.Lock()

	if c.closed || attempt != c.attempt {
		// A Reset or Close moved the workflow on; this response is stale.
		c.mu.Unlock()
		return
	}

	if err != nil {
		c.phase = PhaseFailed
		c.scanErr = asScanError(err, errs.Fetch)
		snap := c.snapshotLocked()
		c.mu.Unlock()

		c.notify(snap)
		monitoring.RecordScanOutcome(c.GateId, constant.ScanOutcomeRejected)
		c.reportOutcome(ctx, constant.ScanOutcomeRejected, token, token, "")
		return
	}

	c.ticket = info
	c.phase = PhaseReviewing
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
}

func (c *Controller) completeValidate(ctx context.Context, attempt uint64, token string, partial *model.TicketInfo, err error) {
	c.mu.Lock()

	if c.closed || attempt != c.attempt {
		c.mu.Unlock()
		return
	}

	var outcome string

	switch {
	case err == nil:
		if c.ticket == nil {
			partial.TicketToken = token
			c.ticket = partial
		} else {
			c.ticket.Merge(*partial)
		}

		c.phase = PhaseValidated
		outcome = constant.ScanOutcomeValidated
	default:
		scanErr := asScanError(err, errs.Validation)

		if snapshot, ok := conflictSnapshot(scanErr); ok && c.Policy.ConflictDisplay {
			// Already-used is a legitimate outcome at a direct gate: show
			// the server's snapshot, no failure page.
			c.ticket = snapshot
			c.phase = PhaseConflict
			outcome = constant.ScanOutcomeConflict
		} else {
			if scanErr.Kind == errs.KindConflict {
				scanErr = errs.Validation(scanErr)
			}

			// The reviewed ticket is retained so staff can still see what
			// was being validated.
			c.phase = PhaseFailed
			c.scanErr = scanErr
			outcome = constant.ScanOutcomeRejected
		}
	}

	canonical := token
	ticketToken := token
	status := ""
	if c.ticket != nil {
		canonical = c.ticket.Token
		ticketToken = c.ticket.TicketToken
		status = string(c.ticket.Status)
	}

	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
	monitoring.RecordScanOutcome(c.GateId, outcome)
	c.reportOutcome(ctx, outcome, canonical, ticketToken, status)
}

// beginAttemptLocked opens a new attempt generation with its own cancelable
// context; the previous attempt, if any, is cancelled and stranded.
func (c *Controller) beginAttemptLocked() (uint64, context.Context) {
	if c.attemptCancel != nil {
		c.attemptCancel()
	}

	c.attempt++

	base := c.baseCtx
	if base == nil {
		base = context.Background()
	}

	ctx, cancel := context.WithCancel(base)
	c.attemptCancel = cancel

	return c.attempt, ctx
}

func (c *Controller) markRecent(ctx context.Context, attempt uint64, token string) {
	if c.Cache == nil {
		return
	}

	ttl := c.RecentTTL
	if ttl == 0 {
		ttl = constant.RecentScanDefaultTTL
	}

	fresh, err := c.Cache.SetNX(ctx, fmt.Sprintf(constant.RecentScanKey, token), c.GateId, ttl).Result()
	if err != nil {
		// The guard is advisory; a cache outage must not block entry.
		slog.WarnContext(ctx, "recent-scan guard unavailable", slog.Any(constant.LogFieldErr, err))
		return
	}

	if fresh {
		return
	}

	c.mu.Lock()
	if !c.closed && attempt == c.attempt {
		c.seenRecently = true
	}
	c.mu.Unlock()
}

func (c *Controller) reportOutcome(ctx context.Context, outcome, token, ticketToken, status string) {
	msg := model.ScanResultEventMessage{
		AttemptId:   ulid.Make().String(),
		GateId:      c.GateId,
		Token:       token,
		TicketToken: ticketToken,
		Outcome:     outcome,
		Status:      status,
		ScannedAt:   c.now().UTC().Format(time.RFC3339),
	}

	if c.Publisher != nil {
		subject := constant.SubjectScanRejected
		switch outcome {
		case constant.ScanOutcomeValidated:
			subject = constant.SubjectScanValidated
		case constant.ScanOutcomeConflict:
			subject = constant.SubjectScanConflict
		}

		_ = common.PublishMessage(ctx, c.Publisher, subject, msg)
	}

	if c.Recorder != nil {
		_ = c.Recorder.Record(ctx, msg)
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		Phase:        c.phase,
		Err:          c.scanErr,
		ManualEntry:  c.manual,
		SeenRecently: c.seenRecently,
	}

	if c.ticket != nil {
		t := *c.ticket
		snap.Ticket = &t
	}

	return snap
}

func (c *Controller) notify(snap Snapshot) {
	if c.OnChange != nil {
		c.OnChange(snap)
	}
}

func (c *Controller) now() time.Time {
	if c.TimeNow != nil {
		return c.TimeNow()
	}

	return time.Now()
}

func asScanError(err error, wrap func(error) *errs.ScanError) *errs.ScanError {
	var scanErr *errs.ScanError
	if errors.As(err, &scanErr) {
		return scanErr
	}

	return wrap(err)
}

func conflictSnapshot(err *errs.ScanError) (*model.TicketInfo, bool) {
	if err.Kind != errs.KindConflict {
		return nil, false
	}

	snapshot, ok := err.Data.(*model.TicketInfo)
	return snapshot, ok
}

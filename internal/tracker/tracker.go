package tracker

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/croplands/parcel-recon/internal/common"
	"github.com/croplands/parcel-recon/internal/entity"
)

// MaxRetries is the retry budget per captured request. An entry whose retry
// count has reached this limit is removed on the next failure.
const MaxRetries = 3

// Tracker records in-flight crop-statistics fetches by request id. It is
// purely accounting: it never initiates a fetch itself. Safe for concurrent
// use by the resolver's workers.
type Tracker struct {
	mu      sync.Mutex
	pending map[string]entity.PendingRequest
	logger  *slog.Logger
	now     func() time.Time
}

func New(logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		pending: make(map[string]entity.PendingRequest),
		logger:  logger,
		now:     time.Now,
	}
}

// Capture stores a new pending request with a zero retry count. Capturing an
// id that is already pending is a programmer error upstream; it is logged and
// ignored rather than overwriting the captured payload. Returns whether the
// request was recorded.
func (t *Tracker) Capture(requestID string, payload []byte) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.pending[requestID]; ok {
		t.logger.Warn("tracker.capture.duplicate", "request_id", requestID)
		return false
	}
	t.pending[requestID] = entity.PendingRequest{
		RequestID:  requestID,
		Payload:    payload,
		IssuedAt:   t.now(),
		RetryCount: 0,
	}
	return true
}

// Get returns the pending request for an id, if present.
func (t *Tracker) Get(requestID string) (entity.PendingRequest, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.pending[requestID]
	return p, ok
}

// BumpRetry increments the retry count and returns the new value. Bumping an
// absent id is a programmer error and returns ErrNotFound.
func (t *Tracker) BumpRetry(requestID string) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.pending[requestID]
	if !ok {
		return 0, fmt.Errorf("bump retry %q: %w", requestID, common.ErrNotFound)
	}
	p.RetryCount++
	t.pending[requestID] = p
	return p.RetryCount, nil
}

// Discard removes the entry and reports whether it was still present.
// Idempotent: discarding an absent id returns false and changes nothing.
func (t *Tracker) Discard(requestID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.pending[requestID]
	delete(t.pending, requestID)
	return ok
}

// Len returns the number of pending requests.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// Clear drops every pending request. Later-arriving completions for cleared
// ids become safe no-ops because lookup returns absent.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = make(map[string]entity.PendingRequest)
}

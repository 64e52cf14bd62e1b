package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/croplands/parcel-recon/constants"
	"github.com/croplands/parcel-recon/internal/common"
	"github.com/croplands/parcel-recon/internal/entity"
	"github.com/croplands/parcel-recon/internal/tracker"
)

// Backfiller is the slice of the correlation engine the resolver needs:
// applying a parsed profile to the stored parcels.
type Backfiller interface {
	ApplyProfile(ctx context.Context, prof entity.CropProfile) (int, error)
}

// Resolver owns the retry state machine for crop-statistics fetches:
// CAPTURED → FETCHING → SUCCEEDED, or FAILED with a scheduled re-entry into
// FETCHING while the retry budget lasts, DISCARDED once it is spent.
//
// Every attempt re-validates tracker presence before acting, so a global
// clear between suspension points turns any late completion into a no-op.
type Resolver struct {
	tracker    *tracker.Tracker
	fetcher    Fetcher
	backfiller Backfiller
	logger     *slog.Logger

	baseDelay time.Duration
	timeout   time.Duration
	// after schedules a retry; replaced in tests to run deterministically.
	after func(d time.Duration, fn func())
	// enqueueRetry re-submits a job after its backoff delay; wired by the
	// queue that owns the worker pool.
	enqueueRetry func(job Job)
}

type Option func(*Resolver)

func WithBaseDelay(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.baseDelay = d
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithAfterFunc(after func(d time.Duration, fn func())) Option {
	return func(r *Resolver) {
		if after != nil {
			r.after = after
		}
	}
}

func New(tr *tracker.Tracker, fetcher Fetcher, backfiller Backfiller, logger *slog.Logger, opts ...Option) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{
		tracker:    tr,
		fetcher:    fetcher,
		backfiller: backfiller,
		logger:     logger,
		baseDelay:  2 * time.Second,
		timeout:    time.Minute,
		after: func(d time.Duration, fn func()) {
			time.AfterFunc(d, fn)
		},
	}
	r.enqueueRetry = func(job Job) {
		r.logger.Warn("retry dropped: no queue attached", "request_id", job.RequestID)
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Process runs one fetch attempt for a captured request. Failures never
// escape: they either schedule a retry or end the request terminally.
func (r *Resolver) Process(ctx context.Context, job Job) {
	pend, ok := r.tracker.Get(job.RequestID)
	if !ok {
		// Cleared or already resolved while this attempt was queued.
		r.logger.Info("resolver.request.absent", "request_id", job.RequestID)
		return
	}

	r.logger.Info("resolver.fetch.start",
		"request_id", job.RequestID,
		"state", constants.RequestFetching,
		"attempt", pend.RetryCount+1,
	)

	body, status, err := r.fetcher.Fetch(ctx, pend.Payload)
	if err != nil {
		r.fail(job, &FetchError{Kind: KindTransport, Err: err})
		return
	}
	if status/100 != 2 {
		r.fail(job, &FetchError{Kind: KindStatus, Status: status, Err: fmt.Errorf("non-2xx status: %d", status)})
		return
	}

	prof, err := ParseCropStats(body)
	if err != nil {
		ferr, ok := err.(*FetchError)
		if !ok {
			ferr = &FetchError{Kind: KindShape, Err: err}
		}
		r.fail(job, ferr)
		return
	}

	// The fetch may have been suspended for a while; re-validate presence
	// before committing. A clear that landed mid-fetch makes this result
	// stale, so drop it instead of resurrecting the profile.
	if !r.tracker.Discard(job.RequestID) {
		r.logger.Info("resolver.request.absent", "request_id", job.RequestID)
		return
	}
	updated, err := r.backfiller.ApplyProfile(ctx, prof)
	if err != nil {
		r.logger.Error("resolver.backfill.failed", "request_id", job.RequestID, "error", err)
		return
	}
	r.logger.Info("resolver.fetch.ok",
		"request_id", job.RequestID,
		"state", constants.RequestSucceeded,
		"profile_key", prof.Key,
		"backfilled", updated,
	)
}

// fail increments the retry count and either schedules the next attempt or
// discards the request once the budget is spent. Transport and status
// failures back off linearly (base*attempt); shape failures back off
// exponentially (base*2^(attempt-1)). The two policies are intentionally
// distinct paths; keep them that way.
func (r *Resolver) fail(job Job, ferr *FetchError) {
	pend, ok := r.tracker.Get(job.RequestID)
	if !ok {
		r.logger.Info("resolver.request.absent", "request_id", job.RequestID)
		return
	}
	if pend.RetryCount >= tracker.MaxRetries {
		r.tracker.Discard(job.RequestID)
		r.logger.Warn("resolver.retry.exhausted",
			"request_id", job.RequestID,
			"state", constants.RequestDiscarded,
			"retries", pend.RetryCount,
			"error", fmt.Errorf("%w: %v", common.ErrRetryExhausted, ferr),
		)
		return
	}

	attempt, err := r.tracker.BumpRetry(job.RequestID)
	if err != nil {
		r.logger.Info("resolver.request.absent", "request_id", job.RequestID)
		return
	}

	var delay time.Duration
	switch ferr.Kind {
	case KindShape:
		delay = r.baseDelay * time.Duration(1<<(attempt-1))
	default:
		delay = r.baseDelay * time.Duration(attempt)
	}

	r.logger.Warn("resolver.fetch.failed",
		"request_id", job.RequestID,
		"state", constants.RequestFailed,
		"kind", string(ferr.Kind),
		"retry", attempt,
		"delay_ms", delay.Milliseconds(),
		"error", ferr,
	)
	r.after(delay, func() {
		r.enqueueRetry(job)
	})
}

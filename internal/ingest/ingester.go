package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/croplands/parcel-recon/constants"
	"github.com/croplands/parcel-recon/internal/entity"
	"github.com/croplands/parcel-recon/internal/resolver"
)

// parcelSink is the slice of the correlation engine the ingester needs.
type parcelSink interface {
	AddParcel(ctx context.Context, raw entity.RawParcel) (bool, error)
}

// requestTracker is the capture half of the request tracker contract.
type requestTracker interface {
	Capture(requestID string, payload []byte) bool
}

// dispatcher schedules the first fetch attempt for a captured request.
type dispatcher interface {
	Enqueue(ctx context.Context, job resolver.Job) error
}

// Ingester reads spooled event files, routes them to the engine or the
// tracker, and removes files that were handled. Malformed files are logged
// and left in place for inspection; they never halt ingestion of later
// events.
type Ingester struct {
	Engine  parcelSink
	Tracker requestTracker
	Queue   dispatcher
	Logger  *slog.Logger
}

func NewIngester(engine parcelSink, tr requestTracker, queue dispatcher, logger *slog.Logger) *Ingester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingester{Engine: engine, Tracker: tr, Queue: queue, Logger: logger}
}

// Run consumes watcher paths until the channel closes or ctx ends.
func (i *Ingester) Run(ctx context.Context, paths <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case path, ok := <-paths:
			if !ok {
				return
			}
			if err := i.HandleFile(ctx, path); err != nil {
				i.Logger.Warn("ingest.file.failed", "path", path, "error", err)
				continue
			}
			if err := os.Remove(path); err != nil {
				i.Logger.Warn("ingest.file.cleanup_failed", "path", path, "error", err)
			}
		}
	}
}

// HandleFile parses one spooled event file and routes it.
func (i *Ingester) HandleFile(ctx context.Context, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return i.HandleEvent(ctx, raw)
}

// HandleEvent routes one decoded envelope.
func (i *Ingester) HandleEvent(ctx context.Context, raw []byte) error {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return err
	}
	if env.TraceID == "" {
		env.TraceID = uuid.New().String()
	}

	switch env.Type {
	case TypeParcel:
		if env.Parcel == nil {
			return errors.New("parcel event missing body")
		}
		added, err := i.Engine.AddParcel(ctx, *env.Parcel)
		if err != nil {
			return err
		}
		i.Logger.Info("ingest.parcel",
			"trace_id", env.TraceID,
			"parcel_id", env.Parcel.ID,
			"added", added,
		)
		return nil

	case TypeCropRequest:
		if env.CropRequest == nil || env.CropRequest.RequestID == "" {
			return errors.New("crop_request event missing request id")
		}
		if !i.Tracker.Capture(env.CropRequest.RequestID, env.CropRequest.Payload) {
			// Already pending; the original capture keeps its payload.
			return nil
		}
		i.Logger.Info("ingest.crop_request",
			"trace_id", env.TraceID,
			"request_id", env.CropRequest.RequestID,
			"state", constants.RequestCaptured,
		)
		return i.Queue.Enqueue(ctx, resolver.Job{
			RequestID:   env.CropRequest.RequestID,
			TraceID:     env.TraceID,
			SubmittedAt: time.Now(),
		})

	default:
		return errors.New("unknown event type: " + env.Type)
	}
}

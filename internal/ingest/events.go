package ingest

import (
	"encoding/json"

	"github.com/croplands/parcel-recon/internal/entity"
)

// Event types accepted from the spool directory.
const (
	TypeParcel      = "parcel"
	TypeCropRequest = "crop_request"
)

// CropRequestEvent is a captured outbound crop-statistics request observed by
// the automation collaborator. The payload is opaque; the resolver replays it
// verbatim.
type CropRequestEvent struct {
	RequestID string          `json:"request_id"`
	Payload   json.RawMessage `json:"payload"`
}

// Envelope is one spooled event file. Exactly one of the typed bodies is set,
// selected by Type.
type Envelope struct {
	Type        string            `json:"type"`
	TraceID     string            `json:"trace_id,omitempty"`
	Parcel      *entity.RawParcel `json:"parcel,omitempty"`
	CropRequest *CropRequestEvent `json:"crop_request,omitempty"`
}

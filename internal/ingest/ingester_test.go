package ingest

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/croplands/parcel-recon/internal/entity"
	"github.com/croplands/parcel-recon/internal/resolver"
)

type fakeSink struct {
	parcels []entity.RawParcel
}

func (s *fakeSink) AddParcel(_ context.Context, raw entity.RawParcel) (bool, error) {
	s.parcels = append(s.parcels, raw)
	return true, nil
}

type fakeTracker struct {
	captured map[string][]byte
}

func (f *fakeTracker) Capture(requestID string, payload []byte) bool {
	if _, ok := f.captured[requestID]; ok {
		return false
	}
	f.captured[requestID] = payload
	return true
}

type fakeQueue struct {
	jobs []resolver.Job
}

func (q *fakeQueue) Enqueue(_ context.Context, job resolver.Job) error {
	q.jobs = append(q.jobs, job)
	return nil
}

func newTestIngester() (*Ingester, *fakeSink, *fakeTracker, *fakeQueue) {
	sink := &fakeSink{}
	tr := &fakeTracker{captured: map[string][]byte{}}
	q := &fakeQueue{}
	return NewIngester(sink, tr, q, nil), sink, tr, q
}

func TestHandleEvent_Parcel(t *testing.T) {
	ing, sink, _, q := newTestIngester()

	raw := []byte(`{
		"type": "parcel",
		"parcel": {
			"id": "A",
			"document_number": "2026-0012345",
			"jurisdiction_code": "06019",
			"sale_date": "2026-03-14",
			"sale_amount": 450000,
			"area_acres": 40.0
		}
	}`)
	require.NoError(t, ing.HandleEvent(context.Background(), raw))

	require.Len(t, sink.parcels, 1)
	assert.Equal(t, "A", sink.parcels[0].ID)
	assert.Equal(t, 40.0, sink.parcels[0].AreaAcres)
	assert.Empty(t, q.jobs)
}

func TestHandleEvent_CropRequestCapturesAndDispatches(t *testing.T) {
	ing, sink, tr, q := newTestIngester()

	raw := []byte(`{
		"type": "crop_request",
		"trace_id": "t-1",
		"crop_request": {
			"request_id": "req-1",
			"payload": {"lon": -119.7, "lat": 36.7}
		}
	}`)
	require.NoError(t, ing.HandleEvent(context.Background(), raw))

	assert.JSONEq(t, `{"lon": -119.7, "lat": 36.7}`, string(tr.captured["req-1"]))
	require.Len(t, q.jobs, 1)
	assert.Equal(t, "req-1", q.jobs[0].RequestID)
	assert.Equal(t, "t-1", q.jobs[0].TraceID)
	assert.Empty(t, sink.parcels)
}

func TestHandleEvent_DuplicateCaptureNotDispatchedTwice(t *testing.T) {
	ing, _, _, q := newTestIngester()

	env := Envelope{
		Type:        TypeCropRequest,
		CropRequest: &CropRequestEvent{RequestID: "req-1", Payload: json.RawMessage(`{}`)},
	}
	raw, err := json.Marshal(env)
	require.NoError(t, err)

	require.NoError(t, ing.HandleEvent(context.Background(), raw))
	require.NoError(t, ing.HandleEvent(context.Background(), raw))
	assert.Len(t, q.jobs, 1)
}

func TestHandleEvent_Malformed(t *testing.T) {
	ing, sink, _, q := newTestIngester()

	cases := [][]byte{
		[]byte(`not json`),
		[]byte(`{"type": "parcel"}`),
		[]byte(`{"type": "crop_request", "crop_request": {"payload": {}}}`),
		[]byte(`{"type": "mystery"}`),
	}
	for _, raw := range cases {
		assert.Error(t, ing.HandleEvent(context.Background(), raw), string(raw))
	}
	assert.Empty(t, sink.parcels)
	assert.Empty(t, q.jobs)
}

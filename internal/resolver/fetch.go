package resolver

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Fetcher replays a captured request payload against the crop-statistics
// endpoint and returns the raw response. Transport errors come back as err;
// the HTTP status is reported separately so the caller can classify it.
type Fetcher interface {
	Fetch(ctx context.Context, payload []byte) (body []byte, status int, err error)
}

// HTTPFetcher posts the captured payload as-is to a fixed endpoint.
type HTTPFetcher struct {
	Client *http.Client
	URL    string
	Logger *slog.Logger
}

func NewHTTPFetcher(url string, timeout time.Duration, logger *slog.Logger) *HTTPFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPFetcher{
		Client: &http.Client{Timeout: timeout},
		URL:    url,
		Logger: logger,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, payload []byte) ([]byte, int, error) {
	reqID := uuid.New().String()
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.URL, bytes.NewReader(payload))
	if err != nil {
		f.Logger.Error("resolver.http.build_request_error", "req_id", reqID, "error", err)
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		f.Logger.Error("resolver.http.send_error",
			"req_id", reqID,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, 0, err
	}
	defer func(body io.ReadCloser) {
		if cerr := body.Close(); cerr != nil {
			f.Logger.Warn("resolver.http.response_body_close_error", "req_id", reqID, "error", cerr)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	f.Logger.Info("resolver.http.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return raw, resp.StatusCode, nil
}

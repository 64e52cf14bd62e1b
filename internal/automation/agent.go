package automation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Outcome summarizes one interaction attempt.
type Outcome struct {
	Triggered bool
	Detail    string
}

// Agent is the capability boundary to the page-automation collaborator. The
// interaction heuristics live on the other side of this interface; the core
// only schedules attempts.
type Agent interface {
	AttemptInteraction(ctx context.Context) (Outcome, error)
}

// HTTPNudger is an Agent that nudges an upstream collector endpoint so it
// emits fresh events into the spool.
type HTTPNudger struct {
	Client *http.Client
	URL    string
	Logger *slog.Logger
}

func NewHTTPNudger(url string, logger *slog.Logger) *HTTPNudger {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPNudger{
		Client: &http.Client{Timeout: 10 * time.Second},
		URL:    url,
		Logger: logger,
	}
}

func (n *HTTPNudger) AttemptInteraction(ctx context.Context) (Outcome, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, nil)
	if err != nil {
		return Outcome{}, err
	}
	resp, err := n.Client.Do(req)
	if err != nil {
		return Outcome{}, err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode/100 != 2 {
		return Outcome{Detail: resp.Status}, fmt.Errorf("nudge returned %s", resp.Status)
	}
	return Outcome{Triggered: true, Detail: resp.Status}, nil
}

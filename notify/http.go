package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var ErrRelayRejected = errors.New("relay rejected notification")

// HTTPRelay posts notifications to a relay endpoint that accepts
// {"subject": ..., "html": ...}.
type HTTPRelay struct {
	url    string
	client *http.Client
}

// NewHTTPRelay returns a relay client for url. A zero timeout leaves the
// request bounded only by ctx.
func NewHTTPRelay(url string, timeout time.Duration) *HTTPRelay {
	return &HTTPRelay{
		url: url,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (r *HTTPRelay) Send(ctx context.Context, subject, html string) error {
	payload, err := json.Marshal(struct {
		Subject string `json:"subject"`
		HTML    string `json:"html"`
	}{subject, html})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling relay: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	var body struct {
		Error string `json:"error"`
	}
	json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body)
	return fmt.Errorf("%w: status %d: %s", ErrRelayRejected, resp.StatusCode, body.Error)
}

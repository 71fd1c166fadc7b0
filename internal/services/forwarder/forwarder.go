package forwarder

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/DIMO-Network/server-garage/pkg/richerrors"
)

const (
	// ForwardFailureCode is the code of errors caused by the destination being unreachable.
	ForwardFailureCode = -1

	// DefaultTimeout bounds a single forward attempt.
	DefaultTimeout = 10 * time.Second
	// responses are drained up to this size so connections can be reused
	maxDrainSize = 4096
)

// Forwarder delivers event bodies to account destinations.
type Forwarder struct {
	client *http.Client
}

// New creates a Forwarder. A nil client gets one with DefaultTimeout.
func New(client *http.Client) *Forwarder {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Forwarder{client: client}
}

// NewWithTimeout creates a Forwarder whose client gives up after timeout.
func NewWithTimeout(timeout time.Duration) *Forwarder {
	return New(&http.Client{Timeout: timeout})
}

// Forward POSTs body to destination once and returns the response status.
// A non-2xx status is not an error; only failures to build or send the request are.
func (f *Forwarder) Forward(ctx context.Context, destination string, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, destination, bytes.NewReader(body))
	if err != nil {
		return 0, richerrors.Error{
			Code: ForwardFailureCode,
			Err:  fmt.Errorf("invalid destination URL: %w", err),
		}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, richerrors.Error{
			Code: ForwardFailureCode,
			Err:  fmt.Errorf("failed to POST to destination: %w", err),
		}
	}
	defer resp.Body.Close() //nolint:errcheck
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainSize))

	return resp.StatusCode, nil
}

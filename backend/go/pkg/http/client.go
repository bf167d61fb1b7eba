package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"docsearch/backend/go/pkg/circuitbreaker"
)

var errServerStatus = errors.New("server error status")

// breakerTransport is an http.RoundTripper that routes every request
// through a circuit breaker. Transport errors and 5xx responses count as
// failures; 5xx responses are still returned to the caller.
type breakerTransport struct {
	base    http.RoundTripper
	breaker circuitbreaker.CircuitBreaker
}

func (t *breakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	err := t.breaker.Execute(func() error {
		var err error
		resp, err = t.base.RoundTrip(req)
		if err != nil {
			return err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("%w: %d", errServerStatus, resp.StatusCode)
		}
		return nil
	})
	if errors.Is(err, errServerStatus) {
		return resp, nil
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// NewClient creates an http.Client protected by breaker. A zero timeout
// leaves the deadline to the request context. A nil breaker is treated as
// one that never opens.
func NewClient(breaker circuitbreaker.CircuitBreaker, timeout time.Duration) *http.Client {
	if breaker == nil {
		breaker = circuitbreaker.Noop()
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &breakerTransport{
			base:    http.DefaultTransport,
			breaker: breaker,
		},
	}
}

package httpclient

import (
	"errors"
	"io"
	"net"
	"net/http"
	"syscall"
)

// retryTransport retries transient transport errors immediately, without
// backoff: the failure mode it targets is a dead pod behind a service IP,
// where the fix is simply a different connection. After exhausting retries it
// drops the idle pool and makes one final attempt on a fresh connection.
type retryTransport struct {
	base       http.RoundTripper
	transport  *http.Transport // stored for CloseIdleConnections
	maxRetries int
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	for attempt := 0; attempt <= t.maxRetries; {
		resp, err := t.doRequest(req, attempt)
		if err == nil {
			return resp, nil
		}

		// Expired connections don't count as retries, just get a new one.
		if errors.Is(err, ErrConnExpired) {
			continue
		}

		if !isRetryableError(err) {
			return nil, err
		}
		attempt++
	}

	if t.transport != nil {
		t.transport.CloseIdleConnections()
	}

	return t.doRequest(req, t.maxRetries+1)
}

func (t *retryTransport) doRequest(req *http.Request, attempt int) (*http.Response, error) {
	reqToSend := req

	// Clone request for retry, the body may have been consumed.
	if attempt > 0 {
		reqToSend = req.Clone(req.Context())
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			reqToSend.Body = body
		}
	}

	return t.base.RoundTrip(reqToSend)
}

func isRetryableError(err error) bool {
	switch {
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ENETUNREACH),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, net.ErrClosed):
		return true
	}
	return false
}

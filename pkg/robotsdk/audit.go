package robotsdk

import (
	"log/slog"
	"net/http"
	"time"
)

// WrapHTTPClient returns an http.Client that logs, at debug level, every
// request a robot controller makes to its edge coordinator that gets a
// response (transport errors are not logged), grounded on the teacher's
// governedTransport audit wrapper.
func WrapHTTPClient(wrapped *http.Client) *http.Client {
	if wrapped == nil {
		wrapped = http.DefaultClient
	}
	return &http.Client{
		Timeout:   wrapped.Timeout,
		Transport: &auditTransport{wrapped: wrapped.Transport},
	}
}

type auditTransport struct {
	wrapped http.RoundTripper
}

func (t *auditTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	transport := t.wrapped
	if transport == nil {
		transport = http.DefaultTransport
	}

	resp, err := transport.RoundTrip(req)
	if err == nil {
		slog.Debug("robotsdk request", "method", req.Method, "path", req.URL.Path,
			"status_code", resp.StatusCode, "elapsed", time.Since(start))
	}
	return resp, err
}

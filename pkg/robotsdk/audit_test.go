package robotsdk

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapHTTPClientPassesRequestsThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer server.Close()

	wrapped := WrapHTTPClient(http.DefaultClient)
	resp, err := wrapped.Get(server.URL)

	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
}

func TestWrapHTTPClientDefaultsToDefaultClientWhenNilPassed(t *testing.T) {
	wrapped := WrapHTTPClient(nil)
	assert.NotNil(t, wrapped)
	assert.NotNil(t, wrapped.Transport)
}

func TestWrapHTTPClientPreservesTimeout(t *testing.T) {
	base := &http.Client{Timeout: 5_000_000_000}
	wrapped := WrapHTTPClient(base)
	assert.Equal(t, base.Timeout, wrapped.Timeout)
}

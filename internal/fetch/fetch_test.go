package fetch

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	c := New(Options{UserAgent: "test-agent"})

	body, err := c.Fetch(t.Context(), srv.URL)
	require.NoError(t, err, "Fetch() error")
	require.Equal(t, "<html></html>", string(body), "Fetch() body")
}

func TestFetch_ErrorClassification(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    bool
	}{
		{name: "not modified", statusCode: http.StatusNotModified, wantErr: true},
		{name: "not found", statusCode: http.StatusNotFound, wantErr: true},
		{name: "server error", statusCode: http.StatusInternalServerError, wantErr: true},
		{name: "ok", statusCode: http.StatusOK, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				w.WriteHeader(tt.statusCode)
			}))
			defer srv.Close()

			c := New(Options{})
			_, err := c.Fetch(t.Context(), srv.URL)
			if tt.wantErr {
				require.Error(t, err, "Fetch() error")
			} else {
				require.NoError(t, err, "Fetch() error")
			}
		})
	}
}

func TestFetch_UnexpectedContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(Options{})
	_, err := c.Fetch(t.Context(), srv.URL)
	require.ErrorIs(t, err, ErrUpstreamUnexpectedContentType, "Fetch() error")
}

func TestFetch_BodyTooLarge(t *testing.T) {
	big := make([]byte, MaxBodyBytes+1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write(big)
	}))
	defer srv.Close()

	c := New(Options{})
	_, err := c.Fetch(t.Context(), srv.URL)
	require.ErrorIs(t, err, ErrUpstreamBodyTooLarge, "Fetch() error")
}

func TestIsRetryable(t *testing.T) {
	require.False(t, IsRetryable(nil), "IsRetryable(nil)")
	require.True(t, IsRetryable(&UpstreamHTTPError{Status: 503}), "IsRetryable(503)")
	require.True(t, IsRetryable(&UpstreamHTTPError{Status: 429}), "IsRetryable(429)")
	require.False(t, IsRetryable(&UpstreamHTTPError{Status: 404}), "IsRetryable(404)")
}

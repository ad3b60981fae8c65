package jokeapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"joke-browser/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const batch = `[
	{"id": 1, "setup": "A", "punchline": "B", "type": "general"},
	{"id": 2, "setup": "Why do programmers prefer dark mode?", "punchline": "Because light attracts bugs.", "type": "programming"}
]`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(config.APIConfig{
		BaseURL: srv.URL,
		Path:    "/jokes/random/250",
		Timeout: 2 * time.Second,
	})
}

func TestFetchAll(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/jokes/random/250", r.URL.Path)
		assert.Empty(t, r.URL.RawQuery)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(batch))
	})

	jokes, err := client.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, jokes, 2)

	assert.EqualValues(t, 1, jokes[0].ID)
	assert.Equal(t, "A", jokes[0].Setup)
	assert.Equal(t, "B", jokes[0].Punchline)
	assert.Equal(t, "general", jokes[0].Type)
	assert.Nil(t, jokes[0].Rating)
	assert.Equal(t, "programming", jokes[1].Type)
}

func TestFetchAllStatusMessages(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusBadRequest, "Bad Request: Please check your input."},
		{http.StatusUnauthorized, "Unauthorized: Please log in."},
		{http.StatusForbidden, "Forbidden: You do not have permission."},
		{http.StatusNotFound, "Not Found: The requested resource was not found."},
		{http.StatusInternalServerError, "Internal Server Error: Please try again later."},
		{http.StatusTeapot, "Unexpected Error: 418"},
		{http.StatusBadGateway, "Unexpected Error: 502"},
		{http.StatusServiceUnavailable, "Unexpected Error: 503"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			jokes, err := client.FetchAll(context.Background())
			require.Error(t, err)
			assert.Nil(t, jokes)
			assert.Equal(t, tt.want, err.Error())

			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, KindStatus, apiErr.Kind)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.ErrorIs(t, err, ErrStatus)
		})
	}
}

func TestFetchAllTimeoutIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	client := New(config.APIConfig{BaseURL: srv.URL, Path: "/jokes/random/250", Timeout: 50 * time.Millisecond})

	_, err := client.FetchAll(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Network Error: Please check your internet connection.", err.Error())
	assert.ErrorIs(t, err, ErrNetwork)
	assert.NotErrorIs(t, err, ErrRequest)
}

func TestFetchAllConnectionRefusedIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := New(config.APIConfig{BaseURL: url, Path: "/jokes/random/250", Timeout: time.Second})

	_, err := client.FetchAll(context.Background())
	require.Error(t, err)
	assert.Equal(t, NetworkErrorMessage, err.Error())
}

func TestFetchAllCanceledContextIsNetworkError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(batch))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchAll(ctx)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchAllRequestErrors(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		want    string
	}{
		{"unsupported scheme", "ftp://jokes.example", `Error: unsupported protocol scheme "ftp"`},
		{"missing scheme", "jokes.example", `Error: unsupported protocol scheme ""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := New(config.APIConfig{BaseURL: tt.baseURL, Path: "/jokes/random/250"})

			_, err := client.FetchAll(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
			assert.ErrorIs(t, err, ErrRequest)
		})
	}
}

func TestFetchAllMalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"type":"error","message":"nope"}`))
	})

	_, err := client.FetchAll(context.Background())
	require.Error(t, err)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, KindDecode, apiErr.Kind)
	assert.Contains(t, err.Error(), "Error: ")
	assert.ErrorIs(t, err, ErrRequest)
}

func TestNewDefaultsTimeout(t *testing.T) {
	client := New(config.APIConfig{BaseURL: "https://official-joke-api.appspot.com", Path: "/jokes/random/250"})
	assert.Equal(t, DefaultTimeout, client.client.Timeout)
	assert.Equal(t, "https://official-joke-api.appspot.com/jokes/random/250", client.URL())
}

func TestWithHTTPClient(t *testing.T) {
	custom := &http.Client{Timeout: time.Minute}
	client := New(config.APIConfig{}, WithHTTPClient(custom))
	assert.Same(t, custom, client.client)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "status", KindStatus.String())
	assert.Equal(t, "network", KindNetwork.String())
	assert.Equal(t, "request", KindRequest.String())
	assert.Equal(t, "decode", KindDecode.String())
	assert.Equal(t, "unknown", Kind(0).String())
}

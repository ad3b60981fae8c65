package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"joke-browser/internal/config"
	"joke-browser/internal/jokeapi"
	"joke-browser/internal/jokes"
	"joke-browser/internal/models"
	"joke-browser/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	router   http.Handler
	store    *jokes.Store
	kv       *storage.Memory
	upstream atomic.Int32
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{kv: storage.NewMemory()}
	f.upstream.Store(http.StatusOK)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status := int(f.upstream.Load()); status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Write([]byte(`[{"id":1,"setup":"A","punchline":"B","type":"general"},{"id":2,"setup":"C","punchline":"D","type":"programming"}]`))
	}))
	t.Cleanup(upstream.Close)

	store, err := jokes.NewStore(context.Background(), f.kv)
	require.NoError(t, err)
	f.store = store

	client := jokeapi.New(config.APIConfig{BaseURL: upstream.URL, Path: "/jokes/random/250", Timeout: time.Second})
	f.router = NewRouter(config.HTTPConfig{HealthEndpoint: "/healthz"}, jokes.NewLoader(client, store), f.kv)

	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestListJokesEmptyByDefault(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/jokes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestListJokesLoadFetchesOnce(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/jokes?load=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Joke](t, rec), 2)

	f.upstream.Store(http.StatusInternalServerError)
	rec = f.do(t, http.MethodGet, "/api/jokes?load=true", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRefreshUpstreamError(t *testing.T) {
	f := newFixture(t)
	f.upstream.Store(http.StatusNotFound)

	rec := f.do(t, http.MethodPost, "/api/jokes/refresh", "")
	require.Equal(t, http.StatusBadGateway, rec.Code)

	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "upstream_status", resp.Error)
	assert.Equal(t, "Not Found: The requested resource was not found.", resp.Message)
}

func TestRateAndClearJokes(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/jokes/refresh", "").Code)

	rec := f.do(t, http.MethodPut, "/api/jokes/1/rating", `{"rating":5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	j := decode[models.Joke](t, rec)
	require.NotNil(t, j.Rating)
	assert.Equal(t, 5.0, *j.Rating)

	rec = f.do(t, http.MethodPut, "/api/jokes/99/rating", `{"rating":5}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/jokes/1/rating", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/jokes/abc/rating", `{"rating":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/jokes", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, f.store.Jokes())
}

func TestFavoritesLifecycle(t *testing.T) {
	f := newFixture(t)
	joke := `{"id":7,"setup":"A","punchline":"B","type":"general"}`

	rec := f.do(t, http.MethodPost, "/api/favorites", joke)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/favorites", joke)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Joke](t, rec), 1)

	rec = f.do(t, http.MethodGet, "/api/favorites/7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":7,"favorite":true}`, rec.Body.String())

	stored, err := f.kv.Get(context.Background(), jokes.DefaultFavoritesKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[`+joke+`]`, stored)

	rec = f.do(t, http.MethodDelete, "/api/favorites/7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/favorites/7", "")
	assert.JSONEq(t, `{"id":7,"favorite":false}`, rec.Body.String())

	rec = f.do(t, http.MethodDelete, "/api/favorites/7", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/favorites", `nope`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/favorites", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestAddFavoriteRejectsEmptyBody(t *testing.T) {
	f := newFixture(t)

	for _, body := range []string{`null`, `{}`, `nope`} {
		rec := f.do(t, http.MethodPost, "/api/favorites", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}

	assert.Empty(t, f.store.FavoriteJokes())
	_, err := f.kv.Get(context.Background(), jokes.DefaultFavoritesKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCORS(t *testing.T) {
	store, err := jokes.NewStore(context.Background(), storage.NewMemory())
	require.NoError(t, err)
	router := NewRouter(config.HTTPConfig{CORSAllowedOrigins: []string{"http://localhost:5173"}},
		jokes.NewLoader(jokeapi.New(config.APIConfig{}), store), storage.NewMemory())

	req := httptest.NewRequest(http.MethodGet, "/api/favorites", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewServerAddr(t *testing.T) {
	srv := NewServer(config.HTTPConfig{Port: 9090}, http.NotFoundHandler())
	assert.Equal(t, ":9090", srv.Addr)
}

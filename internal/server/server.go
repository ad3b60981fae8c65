// Package server exposes the joke store over a small JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"joke-browser/internal/config"
	"joke-browser/internal/jokes"
	"joke-browser/internal/models"
	"joke-browser/internal/storage"
	"joke-browser/pkg/logger"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handler struct {
	loader *jokes.Loader
	store  *jokes.Store
	kv     storage.KV
}

func NewRouter(cfg config.HTTPConfig, loader *jokes.Loader, kv storage.KV) http.Handler {
	h := &Handler{
		loader: loader,
		store:  loader.Store(),
		kv:     kv,
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}))
	}

	health := cfg.HealthEndpoint
	if health == "" {
		health = "/healthz"
	}
	r.Get(health, h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/jokes", func(r chi.Router) {
			r.Get("/", h.ListJokes)
			r.Delete("/", h.ClearJokes)
			r.Post("/refresh", h.RefreshJokes)
			r.Put("/{id}/rating", h.RateJoke)
		})

		r.Route("/favorites", func(r chi.Router) {
			r.Get("/", h.ListFavorites)
			r.Post("/", h.AddFavorite)
			r.Get("/{id}", h.IsFavorite)
			r.Delete("/{id}", h.RemoveFavorite)
		})
	})

	return r
}

func NewServer(cfg config.HTTPConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.Debug("HTTP request",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", ww.Status()),
			logger.Duration("elapsed", time.Since(start)),
			logger.String("request_id", chimw.GetReqID(r.Context())),
		)
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.kv.(storage.Pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			logger.Warn("Storage ping failed", logger.Err(err))
			http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// ListJokes returns the session list. ?load=true fetches a batch first when
// the list is empty.
func (h *Handler) ListJokes(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("load") == "true" {
		if _, err := h.loader.Ensure(r.Context()); err != nil {
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, h.store.Jokes())
}

func (h *Handler) RefreshJokes(w http.ResponseWriter, r *http.Request) {
	if _, err := h.loader.Refresh(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.store.Jokes())
}

func (h *Handler) ClearJokes(w http.ResponseWriter, r *http.Request) {
	h.store.ClearJokes()
	w.WriteHeader(http.StatusNoContent)
}

type ratingRequest struct {
	Rating *float64 `json:"rating"`
}

func (h *Handler) RateJoke(w http.ResponseWriter, r *http.Request) {
	id, ok := jokeID(w, r)
	if !ok {
		return
	}

	var req ratingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Rating == nil {
		writeBadRequest(w, "body must be {\"rating\": number}")
		return
	}

	h.store.UpdateJokeRating(id, *req.Rating)

	if j, found := h.store.Joke(id); found {
		writeJSON(w, http.StatusOK, j)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.FavoriteJokes())
}

func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	var j models.Joke
	if err := json.NewDecoder(r.Body).Decode(&j); err != nil || j.IsZero() {
		writeBadRequest(w, "body must be a joke")
		return
	}

	if err := h.store.AddFavorite(r.Context(), j); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.store.FavoriteJokes())
}

type favoriteResponse struct {
	ID       int64 `json:"id"`
	Favorite bool  `json:"favorite"`
}

func (h *Handler) IsFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := jokeID(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, favoriteResponse{ID: id, Favorite: h.store.IsFavorite(id)})
}

func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := jokeID(w, r)
	if !ok {
		return
	}

	if err := h.store.RemoveFavorite(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.store.FavoriteJokes())
}

func jokeID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeBadRequest(w, "joke id must be an integer")
		return 0, false
	}
	return id, true
}

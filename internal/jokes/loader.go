package jokes

import (
	"context"

	"joke-browser/internal/models"
	"joke-browser/pkg/logger"
)

type Fetcher interface {
	FetchAll(ctx context.Context) ([]models.Joke, error)
}

// Loader moves fetched batches into a Store.
type Loader struct {
	fetcher Fetcher
	store   *Store
}

func NewLoader(fetcher Fetcher, store *Store) *Loader {
	return &Loader{fetcher: fetcher, store: store}
}

func (l *Loader) Store() *Store {
	return l.store
}

// Refresh fetches a new batch and replaces the session list with it. On
// failure the session list is left as it was.
func (l *Loader) Refresh(ctx context.Context) (int, error) {
	batch, err := l.fetcher.FetchAll(ctx)
	if err != nil {
		return 0, err
	}

	l.store.SaveJokes(batch)
	logger.Debug("Session jokes replaced",
		logger.String("key", l.store.FavoritesKey()),
		logger.Int("count", len(batch)),
	)

	return len(batch), nil
}

// Ensure fetches only when the session list is empty.
func (l *Loader) Ensure(ctx context.Context) (int, error) {
	if n := l.store.Len(); n > 0 {
		return n, nil
	}
	return l.Refresh(ctx)
}

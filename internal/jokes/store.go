// Package jokes holds the session joke list and the durable favorites list.
package jokes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"joke-browser/internal/models"
	"joke-browser/internal/queue"
	"joke-browser/internal/storage"
	"joke-browser/pkg/logger"
)

const DefaultFavoritesKey = "favoriteJokes"

var ErrCorruptFavorites = errors.New("stored favorites are not a joke list")

type Publisher interface {
	PublishFavorite(ctx context.Context, event *queue.FavoriteEvent) error
}

// Store is safe for concurrent use. Accessors return copies; mutating a
// returned slice never changes the store.
type Store struct {
	mu        sync.RWMutex
	kv        storage.KV
	key       string
	publisher Publisher
	now       func() time.Time

	jokes     []models.Joke
	favorites []models.Joke
}

type Option func(*Store)

func WithFavoritesKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

func WithPublisher(p Publisher) Option {
	return func(s *Store) {
		s.publisher = p
	}
}

// NewStore hydrates the favorites list from kv. A missing key yields an
// empty list; a value that does not decode is an error wrapping
// ErrCorruptFavorites.
func NewStore(ctx context.Context, kv storage.KV, opts ...Option) (*Store, error) {
	s := &Store{
		kv:        kv,
		key:       DefaultFavoritesKey,
		now:       time.Now,
		jokes:     []models.Joke{},
		favorites: []models.Joke{},
	}

	for _, opt := range opts {
		opt(s)
	}

	if err := s.loadFavorites(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Store) FavoritesKey() string {
	return s.key
}

func (s *Store) loadFavorites(ctx context.Context) error {
	raw, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load favorites: %w", err)
	}

	if raw == "" {
		return nil
	}

	var favorites []models.Joke
	if err := json.Unmarshal([]byte(raw), &favorites); err != nil {
		return fmt.Errorf("%w (key %s): %v", ErrCorruptFavorites, s.key, err)
	}
	if favorites != nil {
		s.favorites = favorites
	}

	logger.Debug("Favorites loaded",
		logger.String("key", s.key),
		logger.Int("count", len(s.favorites)),
	)

	return nil
}

// saveFavorites writes the whole list under the favorites key. Callers hold mu.
func (s *Store) saveFavorites(ctx context.Context, favorites []models.Joke) error {
	data, err := json.Marshal(favorites)
	if err != nil {
		return fmt.Errorf("failed to encode favorites: %w", err)
	}

	if err := s.kv.Set(ctx, s.key, string(data)); err != nil {
		return fmt.Errorf("failed to save favorites: %w", err)
	}

	return nil
}

// SaveJokes replaces the session list with list.
func (s *Store) SaveJokes(list []models.Joke) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jokes = models.CloneJokes(list)
}

func (s *Store) Jokes() []models.Joke {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return models.CloneJokes(s.jokes)
}

func (s *Store) Joke(id int64) (models.Joke, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOfJoke(id)
	if i == -1 {
		return models.Joke{}, false
	}
	return s.jokes[i].Clone(), true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.jokes)
}

func (s *Store) ClearJokes() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jokes = []models.Joke{}
}

// UpdateJokeRating sets the rating of the first session joke with id.
// Unknown ids are ignored.
func (s *Store) UpdateJokeRating(id int64, rating float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfJoke(id)
	if i == -1 {
		return
	}

	r := rating
	s.jokes[i].Rating = &r
}

// AddFavorite appends a snapshot of joke and persists the list. A joke whose
// id is already a favorite is ignored.
func (s *Store) AddFavorite(ctx context.Context, joke models.Joke) error {
	event, err := s.addFavorite(ctx, joke)
	if err != nil || event == nil {
		return err
	}

	s.publish(ctx, event)
	return nil
}

func (s *Store) addFavorite(ctx context.Context, joke models.Joke) (*queue.FavoriteEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOfFavorite(joke.ID) != -1 {
		return nil, nil
	}

	snapshot := joke.Clone()
	next := append(slices.Clip(s.favorites), snapshot)
	if err := s.saveFavorites(ctx, next); err != nil {
		return nil, err
	}
	s.favorites = next

	logger.Info("Favorite added",
		logger.String("key", s.key),
		logger.Int64("joke_id", joke.ID),
	)

	return s.newEvent(queue.ActionAdded, joke.ID, &snapshot), nil
}

// RemoveFavorite drops the favorite with id and persists the list. Unknown
// ids are ignored.
func (s *Store) RemoveFavorite(ctx context.Context, id int64) error {
	event, err := s.removeFavorite(ctx, id)
	if err != nil || event == nil {
		return err
	}

	s.publish(ctx, event)
	return nil
}

func (s *Store) removeFavorite(ctx context.Context, id int64) (*queue.FavoriteEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfFavorite(id)
	if i == -1 {
		return nil, nil
	}

	next := slices.Delete(slices.Clone(s.favorites), i, i+1)
	if err := s.saveFavorites(ctx, next); err != nil {
		return nil, err
	}
	s.favorites = next

	logger.Info("Favorite removed",
		logger.String("key", s.key),
		logger.Int64("joke_id", id),
	)

	return s.newEvent(queue.ActionRemoved, id, nil), nil
}

func (s *Store) IsFavorite(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.indexOfFavorite(id) != -1
}

func (s *Store) FavoriteJokes() []models.Joke {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return models.CloneJokes(s.favorites)
}

func (s *Store) indexOfJoke(id int64) int {
	return slices.IndexFunc(s.jokes, func(j models.Joke) bool { return j.ID == id })
}

func (s *Store) indexOfFavorite(id int64) int {
	return slices.IndexFunc(s.favorites, func(j models.Joke) bool { return j.ID == id })
}

// newEvent returns nil when no publisher is configured. Callers hold mu.
func (s *Store) newEvent(action queue.Action, id int64, joke *models.Joke) *queue.FavoriteEvent {
	if s.publisher == nil {
		return nil
	}

	event := &queue.FavoriteEvent{
		Action: action,
		Key:    s.key,
		JokeID: id,
		At:     s.now().UTC(),
	}
	if joke != nil {
		j := joke.Clone()
		event.Joke = &j
	}
	return event
}

// publish must be called without mu held.
func (s *Store) publish(ctx context.Context, event *queue.FavoriteEvent) {
	if err := s.publisher.PublishFavorite(ctx, event); err != nil {
		logger.Error("Failed to publish favorite event",
			logger.Err(err),
			logger.String("action", string(event.Action)),
			logger.Int64("joke_id", event.JokeID),
		)
	}
}

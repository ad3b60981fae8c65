package bot

import (
	"context"
	"fmt"
	"sync"

	"joke-browser/internal/jokes"
	"joke-browser/internal/models"
	"joke-browser/internal/storage"
	"joke-browser/pkg/logger"
)

// Session is one chat's view of the data layer: its own session batch,
// its own favorites key and a cursor into the batch.
type Session struct {
	ChatID int64

	mu     sync.Mutex
	loader *jokes.Loader
	cursor int
}

func (s *Session) Store() *jokes.Store {
	return s.loader.Store()
}

// Next returns the next joke of the batch, fetching a batch when there is
// none and a fresh one when the cursor runs off the end.
func (s *Session) Next(ctx context.Context) (models.Joke, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.loader.Ensure(ctx)
	if err != nil {
		return models.Joke{}, err
	}
	if n == 0 {
		s.cursor = 0
		return models.Joke{}, ErrEmptyBatch
	}

	list := s.Store().Jokes()
	if s.cursor >= len(list) {
		n, err = s.loader.Refresh(ctx)
		if err != nil {
			return models.Joke{}, err
		}
		s.cursor = 0
		if n == 0 {
			return models.Joke{}, ErrEmptyBatch
		}
		list = s.Store().Jokes()
	}

	j := list[s.cursor]
	s.cursor++
	return j, nil
}

func (s *Session) Refresh(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Store().ClearJokes()
	s.cursor = 0
	return s.loader.Refresh(ctx)
}

type Sessions struct {
	mu        sync.Mutex
	kv        storage.KV
	fetcher   jokes.Fetcher
	keyPrefix string
	opts      []jokes.Option
	sessions  map[int64]*Session
}

func NewSessions(kv storage.KV, fetcher jokes.Fetcher, keyPrefix string, opts ...jokes.Option) *Sessions {
	if keyPrefix == "" {
		keyPrefix = jokes.DefaultFavoritesKey
	}
	return &Sessions{
		kv:        kv,
		fetcher:   fetcher,
		keyPrefix: keyPrefix,
		opts:      opts,
		sessions:  make(map[int64]*Session),
	}
}

func (s *Sessions) Key(chatID int64) string {
	return fmt.Sprintf("%s:%d", s.keyPrefix, chatID)
}

// Get returns the chat's session, hydrating its favorites on first use.
func (s *Sessions) Get(ctx context.Context, chatID int64) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[chatID]; ok {
		return sess, nil
	}

	opts := append([]jokes.Option{jokes.WithFavoritesKey(s.Key(chatID))}, s.opts...)
	store, err := jokes.NewStore(ctx, s.kv, opts...)
	if err != nil {
		return nil, err
	}

	sess := &Session{
		ChatID: chatID,
		loader: jokes.NewLoader(s.fetcher, store),
	}
	s.sessions[chatID] = sess

	logger.Debug("Chat session created",
		logger.Int64("chat_id", chatID),
		logger.Int("favorites", len(store.FavoriteJokes())),
	)

	return sess, nil
}

func (s *Sessions) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}

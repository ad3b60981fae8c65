package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"joke-browser/internal/config"
	"joke-browser/internal/models"
	"joke-browser/pkg/logger"

	"github.com/nats-io/nats.go"
)

const (
	FavoritesSubject = "jokes.favorites"
	ConsumerGroup    = "joke-browser"
)

type NATS struct {
	conn      *nats.Conn
	jetstream nats.JetStreamContext
	cfg       config.NATSConfig
}

func New(cfg config.NATSConfig) (*NATS, error) {
	conn, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to get JetStream: %w", err)
	}

	n := &NATS{
		conn:      conn,
		jetstream: js,
		cfg:       cfg,
	}

	if err := n.ensureStream(); err != nil {
		conn.Close()
		return nil, err
	}

	return n, nil
}

func (n *NATS) ensureStream() error {
	_, err := n.jetstream.StreamInfo(n.cfg.StreamName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("failed to look up stream %s: %w", n.cfg.StreamName, err)
	}

	_, err = n.jetstream.AddStream(&nats.StreamConfig{
		Name:     n.cfg.StreamName,
		Subjects: []string{FavoritesSubject},
	})
	if err != nil {
		return fmt.Errorf("failed to create stream %s: %w", n.cfg.StreamName, err)
	}

	logger.Info("Created NATS stream", logger.String("stream", n.cfg.StreamName))
	return nil
}

func (n *NATS) Close() {
	if n.conn != nil {
		n.conn.Close()
	}
}

type Action string

const (
	ActionAdded   Action = "added"
	ActionRemoved Action = "removed"
)

// FavoriteEvent records one persisted change to a favorites list.
type FavoriteEvent struct {
	Action Action       `json:"action"`
	Key    string       `json:"key"`
	JokeID int64        `json:"joke_id"`
	Joke   *models.Joke `json:"joke,omitempty"`
	At     time.Time    `json:"at"`
}

func (n *NATS) PublishFavorite(ctx context.Context, event *FavoriteEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal favorite event: %w", err)
	}

	_, err = n.jetstream.Publish(FavoritesSubject, data, nats.Context(ctx))
	if err != nil {
		return fmt.Errorf("failed to publish favorite event: %w", err)
	}

	logger.Debug("Favorite event published",
		logger.String("action", string(event.Action)),
		logger.Int64("joke_id", event.JokeID),
	)

	return nil
}

func (n *NATS) ConsumeFavorites(ctx context.Context, handler func(*FavoriteEvent) error) error {
	sub, err := n.jetstream.PullSubscribe(
		FavoritesSubject,
		ConsumerGroup,
		nats.BindStream(n.cfg.StreamName),
	)
	if err != nil {
		return fmt.Errorf("failed to subscribe to favorites: %w", err)
	}
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			msgs, err := sub.Fetch(10, nats.MaxWait(500*time.Millisecond))
			if err != nil {
				if errors.Is(err, nats.ErrTimeout) {
					continue
				}
				return fmt.Errorf("failed to fetch messages: %w", err)
			}

			for _, msg := range msgs {
				event, err := DecodeFavoriteEvent(msg.Data)
				if err != nil {
					logger.Error("Failed to unmarshal favorite event", logger.Err(err))
					msg.Term()
					continue
				}

				if err := handler(event); err != nil {
					logger.Error("Failed to process favorite event", logger.Err(err))
					msg.Nak()
					continue
				}

				msg.Ack()
			}
		}
	}
}

func DecodeFavoriteEvent(data []byte) (*FavoriteEvent, error) {
	var event FavoriteEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	if event.Action != ActionAdded && event.Action != ActionRemoved {
		return nil, fmt.Errorf("unknown favorite action %q", event.Action)
	}
	return &event, nil
}

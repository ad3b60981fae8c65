package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"joke-browser/internal/config"
	"joke-browser/internal/jokeapi"
	"joke-browser/pkg/logger"

	"gopkg.in/telebot.v4"
)

var ErrEmptyBatch = errors.New("joke API returned an empty batch")

const requestTimeout = 15 * time.Second

type Bot struct {
	settings telebot.Settings
	sessions *Sessions
	tbot     *telebot.Bot
	cfg      config.BotConfig
}

func New(cfg config.BotConfig, sessions *Sessions) (*Bot, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("bot sessions are required")
	}

	return &Bot{
		cfg:      cfg,
		sessions: sessions,
		settings: telebot.Settings{
			Token:  cfg.Token,
			Poller: &telebot.LongPoller{Timeout: cfg.PollInterval},
		},
	}, nil
}

func (b *Bot) Start() (*telebot.Bot, error) {
	tbot, err := telebot.NewBot(b.settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b.tbot = tbot
	b.setupHandlers(tbot)

	go tbot.Start()

	return tbot, nil
}

func (b *Bot) setupHandlers(bot *telebot.Bot) {
	bot.Use(logUpdates)

	bot.Handle("/start", b.handleStart)
	bot.Handle("/help", b.handleHelp)
	bot.Handle("/joke", b.handleJoke)
	bot.Handle("/refresh", b.handleRefresh)
	bot.Handle("/favorites", b.handleFavorites)
	bot.Handle("/unfav", b.handleUnfav)
	bot.Handle("/stats", b.handleStats)
	bot.Handle(telebot.OnText, b.handleText)

	bot.Handle(&telebot.Btn{Unique: uniqueRate}, b.handleRate)
	bot.Handle(&telebot.Btn{Unique: uniqueFav}, b.handleFav)
	bot.Handle(&telebot.Btn{Unique: uniqueUnfav}, b.handleUnfavButton)
	bot.Handle(&telebot.Btn{Unique: uniqueReveal}, b.handleReveal)
	bot.Handle(&telebot.Btn{Unique: uniqueNext}, b.handleNext)
}

func logUpdates(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		attrs := []any{logger.Int64("chat_id", chatID(c))}
		if cb := c.Callback(); cb != nil {
			attrs = append(attrs, logger.String("callback", cb.Unique), logger.String("data", cb.Data))
		} else {
			attrs = append(attrs, logger.String("text", c.Text()))
		}
		logger.Info("Incoming update", attrs...)
		return next(c)
	}
}

func chatID(c telebot.Context) int64 {
	if chat := c.Chat(); chat != nil {
		return chat.ID
	}
	if sender := c.Sender(); sender != nil {
		return sender.ID
	}
	return 0
}

func (b *Bot) parseMode() telebot.ParseMode {
	return telebot.ParseMode(b.cfg.ParseMode)
}

const helpText = "*Joke Browser*\n\n" +
	"Commands:\n" +
	"- /joke - Show the next joke\n" +
	"- /refresh - Fetch a fresh batch of jokes\n" +
	"- /favorites - List your favorite jokes\n" +
	"- /unfav <id> - Remove a favorite\n" +
	"- /stats - Session statistics\n" +
	"- /help - Show this help message\n\n" +
	"Rate jokes with the 1★–5★ buttons and save them with ☆."

func (b *Bot) handleStart(c telebot.Context) error {
	return c.Send("*Welcome!* I fetch random jokes for you.\n\n"+helpText, b.parseMode())
}

func (b *Bot) handleHelp(c telebot.Context) error {
	return c.Send(helpText, b.parseMode())
}

func (b *Bot) handleText(c telebot.Context) error {
	return c.Send("Use /joke to get a joke!")
}

func (b *Bot) handleJoke(c telebot.Context) error {
	text, markup := b.nextJokeReply(chatID(c))
	return b.sendJoke(c, text, markup)
}

func (b *Bot) handleNext(c telebot.Context) error {
	_ = c.Respond()
	text, markup := b.nextJokeReply(chatID(c))
	return b.sendJoke(c, text, markup)
}

func (b *Bot) sendJoke(c telebot.Context, text string, markup *telebot.ReplyMarkup) error {
	if markup == nil {
		return c.Send(text)
	}
	return c.Send(text, markup, b.parseMode())
}

func (b *Bot) handleRefresh(c telebot.Context) error {
	return c.Send(b.refreshReply(chatID(c)), b.parseMode())
}

func (b *Bot) handleFavorites(c telebot.Context) error {
	return c.Send(b.favoritesReply(chatID(c)), b.parseMode())
}

func (b *Bot) handleUnfav(c telebot.Context) error {
	args := c.Args()
	if len(args) == 0 {
		return c.Send("Usage: /unfav <id>")
	}
	return c.Send(b.unfavoriteReply(chatID(c), args[0]))
}

func (b *Bot) handleStats(c telebot.Context) error {
	return c.Send(b.statsReply(chatID(c)), b.parseMode())
}

func (b *Bot) handleRate(c telebot.Context) error {
	args := c.Args()
	if len(args) != 2 {
		return c.Respond(&telebot.CallbackResponse{Text: "Bad rating button"})
	}

	text, markup, notice := b.rate(chatID(c), args[0], args[1])
	if markup != nil {
		if err := c.Edit(text, markup, b.parseMode()); err != nil {
			logger.Warn("Failed to edit joke message", logger.Err(err))
		}
	}
	return c.Respond(&telebot.CallbackResponse{Text: notice})
}

func (b *Bot) handleFav(c telebot.Context) error {
	return b.toggleFavorite(c, true)
}

func (b *Bot) handleUnfavButton(c telebot.Context) error {
	return b.toggleFavorite(c, false)
}

func (b *Bot) toggleFavorite(c telebot.Context, add bool) error {
	args := c.Args()
	if len(args) == 0 {
		return c.Respond(&telebot.CallbackResponse{Text: "Bad favorite button"})
	}

	text, markup, notice := b.setFavorite(chatID(c), args[0], add)
	if markup != nil {
		if err := c.Edit(text, markup, b.parseMode()); err != nil {
			logger.Warn("Failed to edit joke message", logger.Err(err))
		}
	}
	return c.Respond(&telebot.CallbackResponse{Text: notice})
}

func (b *Bot) handleReveal(c telebot.Context) error {
	args := c.Args()
	if len(args) == 0 {
		return c.Respond(&telebot.CallbackResponse{Text: "Bad button"})
	}

	text, markup, notice := b.reveal(chatID(c), args[0])
	if markup != nil {
		if err := c.Edit(text, markup, b.parseMode()); err != nil {
			logger.Warn("Failed to edit joke message", logger.Err(err))
		}
	}
	return c.Respond(&telebot.CallbackResponse{Text: notice})
}

// The reply builders below hold the behavior; the handlers above only move
// their output to Telegram.

func (b *Bot) session(chat int64) (*Session, context.Context, context.CancelFunc, error) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	sess, err := b.sessions.Get(ctx, chat)
	if err != nil {
		cancel()
		logger.Error("Failed to open chat session", logger.Err(err), logger.Int64("chat_id", chat))
		return nil, nil, nil, err
	}
	return sess, ctx, cancel, nil
}

func userMessage(err error) string {
	var apiErr *jokeapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if errors.Is(err, ErrEmptyBatch) {
		return "Sorry, no jokes available right now. Try again later!"
	}
	return "Something went wrong. Try again later!"
}

func (b *Bot) nextJokeReply(chat int64) (string, *telebot.ReplyMarkup) {
	sess, ctx, cancel, err := b.session(chat)
	if err != nil {
		return userMessage(err), nil
	}
	defer cancel()

	j, err := sess.Next(ctx)
	if err != nil {
		logger.Error("Failed to get joke", logger.Err(err), logger.Int64("chat_id", chat))
		return userMessage(err), nil
	}

	fav := sess.Store().IsFavorite(j.ID)
	return formatJoke(j, false, fav), jokeMarkup(j, fav)
}

func (b *Bot) refreshReply(chat int64) string {
	sess, ctx, cancel, err := b.session(chat)
	if err != nil {
		return userMessage(err)
	}
	defer cancel()

	n, err := sess.Refresh(ctx)
	if err != nil {
		logger.Error("Failed to refresh jokes", logger.Err(err), logger.Int64("chat_id", chat))
		return userMessage(err)
	}
	return fmt.Sprintf("Fetched %d fresh jokes. Use /joke to start.", n)
}

func (b *Bot) favoritesReply(chat int64) string {
	sess, _, cancel, err := b.session(chat)
	if err != nil {
		return userMessage(err)
	}
	defer cancel()

	return formatFavorites(sess.Store().FavoriteJokes())
}

func (b *Bot) unfavoriteReply(chat int64, rawID string) string {
	id, err := parseID(rawID)
	if err != nil {
		return "Usage: /unfav <id>"
	}

	sess, ctx, cancel, err := b.session(chat)
	if err != nil {
		return userMessage(err)
	}
	defer cancel()

	if !sess.Store().IsFavorite(id) {
		return fmt.Sprintf("Joke #%d is not in your favorites.", id)
	}
	if err := sess.Store().RemoveFavorite(ctx, id); err != nil {
		return userMessage(err)
	}
	return fmt.Sprintf("Removed joke #%d from favorites.", id)
}

func (b *Bot) statsReply(chat int64) string {
	sess, _, cancel, err := b.session(chat)
	if err != nil {
		return userMessage(err)
	}
	defer cancel()

	store := sess.Store()
	rated := 0
	for _, j := range store.Jokes() {
		if j.HasRating() {
			rated++
		}
	}

	return fmt.Sprintf(
		"*Session Statistics*\n\n"+
			"Jokes in batch: %d\n"+
			"Rated: %d\n"+
			"Favorites: %d\n"+
			"Active chats: %d",
		store.Len(), rated, len(store.FavoriteJokes()), b.sessions.Count(),
	)
}

func (b *Bot) rate(chat int64, rawID, rawRating string) (string, *telebot.ReplyMarkup, string) {
	id, err := parseID(rawID)
	if err != nil {
		return "", nil, "Bad rating button"
	}
	rating, err := parseID(rawRating)
	if err != nil || rating < 1 || rating > 5 {
		return "", nil, "Bad rating button"
	}

	sess, _, cancel, err := b.session(chat)
	if err != nil {
		return "", nil, userMessage(err)
	}
	defer cancel()

	store := sess.Store()
	store.UpdateJokeRating(id, float64(rating))

	j, ok := store.Joke(id)
	if !ok {
		return "", nil, "That joke is no longer in your batch"
	}
	fav := store.IsFavorite(id)
	return formatJoke(j, true, fav), jokeMarkup(j, fav), fmt.Sprintf("Rated %d★", rating)
}

func (b *Bot) setFavorite(chat int64, rawID string, add bool) (string, *telebot.ReplyMarkup, string) {
	id, err := parseID(rawID)
	if err != nil {
		return "", nil, "Bad favorite button"
	}

	sess, ctx, cancel, err := b.session(chat)
	if err != nil {
		return "", nil, userMessage(err)
	}
	defer cancel()

	store := sess.Store()
	j, inBatch := store.Joke(id)

	if add {
		if !inBatch {
			return "", nil, "That joke is no longer in your batch"
		}
		if err := store.AddFavorite(ctx, j); err != nil {
			return "", nil, userMessage(err)
		}
	} else if err := store.RemoveFavorite(ctx, id); err != nil {
		return "", nil, userMessage(err)
	}

	notice := "Removed from favorites"
	if add {
		notice = "Added to favorites"
	}

	if !inBatch {
		return "", nil, notice
	}
	fav := store.IsFavorite(id)
	return formatJoke(j, true, fav), jokeMarkup(j, fav), notice
}

func (b *Bot) reveal(chat int64, rawID string) (string, *telebot.ReplyMarkup, string) {
	id, err := parseID(rawID)
	if err != nil {
		return "", nil, "Bad button"
	}

	sess, _, cancel, err := b.session(chat)
	if err != nil {
		return "", nil, userMessage(err)
	}
	defer cancel()

	j, ok := sess.Store().Joke(id)
	if !ok {
		return "", nil, "That joke is no longer in your batch"
	}
	fav := sess.Store().IsFavorite(id)
	return formatJoke(j, true, fav), jokeMarkup(j, fav), strings.TrimSpace(j.Punchline)
}

package bot

import (
	"fmt"
	"strconv"
	"strings"

	"joke-browser/internal/models"

	"gopkg.in/telebot.v4"
)

const (
	uniqueRate   = "rate"
	uniqueFav    = "fav"
	uniqueUnfav  = "unfav"
	uniqueReveal = "reveal"
	uniqueNext   = "next"
)

var markdownEscaper = strings.NewReplacer(
	"_", "\\_",
	"*", "\\*",
	"`", "\\`",
	"[", "\\[",
)

func escape(s string) string {
	return markdownEscaper.Replace(s)
}

func stars(rating *float64) string {
	if rating == nil {
		return "not rated"
	}
	n := int(*rating + 0.5)
	n = max(0, min(n, 5))
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}

func formatJoke(j models.Joke, reveal, favorite bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "*Joke #%d* [%s]", j.ID, escape(j.Type))
	if favorite {
		b.WriteString(" ♥")
	}
	b.WriteString("\n\n")
	b.WriteString(escape(j.Setup))

	if reveal {
		b.WriteString("\n\n")
		b.WriteString(escape(j.Punchline))
	}

	fmt.Fprintf(&b, "\n\nRating: %s", stars(j.Rating))
	return b.String()
}

func formatFavorites(favorites []models.Joke) string {
	if len(favorites) == 0 {
		return "You have no favorite jokes yet. Tap ☆ under a joke to save it."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*Favorite jokes* (%d)\n", len(favorites))
	for _, j := range favorites {
		fmt.Fprintf(&b, "\n#%d %s\n%s\n", j.ID, escape(j.Setup), escape(j.Punchline))
	}
	b.WriteString("\nUse /unfav <id> to remove one.")
	return b.String()
}

func jokeMarkup(j models.Joke, favorite bool) *telebot.ReplyMarkup {
	m := &telebot.ReplyMarkup{}
	id := strconv.FormatInt(j.ID, 10)

	rates := make([]telebot.Btn, 0, 5)
	for i := 1; i <= 5; i++ {
		rates = append(rates, m.Data(strconv.Itoa(i)+"★", uniqueRate, id, strconv.Itoa(i)))
	}

	favBtn := m.Data("☆ Favorite", uniqueFav, id)
	if favorite {
		favBtn = m.Data("✕ Unfavorite", uniqueUnfav, id)
	}

	m.Inline(
		m.Row(rates...),
		m.Row(m.Data("Punchline", uniqueReveal, id), favBtn, m.Data("Next ›", uniqueNext)),
	)
	return m
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid joke id %q", s)
	}
	return id, nil
}

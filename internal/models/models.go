package models

type Joke struct {
	ID        int64    `json:"id"`
	Setup     string   `json:"setup"`
	Punchline string   `json:"punchline"`
	Type      string   `json:"type"`
	Rating    *float64 `json:"rating,omitempty"`
}

// Clone returns a snapshot that shares no memory with j.
func (j Joke) Clone() Joke {
	if j.Rating != nil {
		r := *j.Rating
		j.Rating = &r
	}
	return j
}

// IsZero reports whether j carries no data at all.
func (j Joke) IsZero() bool {
	return j.ID == 0 && j.Setup == "" && j.Punchline == "" && j.Type == "" && j.Rating == nil
}

func (j Joke) HasRating() bool {
	return j.Rating != nil
}

func CloneJokes(jokes []Joke) []Joke {
	if jokes == nil {
		return []Joke{}
	}
	out := make([]Joke, len(jokes))
	for i, j := range jokes {
		out[i] = j.Clone()
	}
	return out
}

type JokeType string

const (
	TypeGeneral     JokeType = "general"
	TypeProgramming JokeType = "programming"
	TypeKnockKnock  JokeType = "knock-knock"
	TypeDad         JokeType = "dad"
)

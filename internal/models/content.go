// internal/models/content.go
package models

// Game is a published set of rounds. Rounds are ordered by RoundNumber.
type Game struct {
	GameID    int64   `json:"game_id"`
	Title     string  `json:"title"`
	Slug      string  `json:"slug"`
	Published string  `json:"published"` // YYYY-MM-DD
	IsActive  bool    `json:"is_active"`
	Rounds    []Round `json:"rounds,omitempty"`
}

// Round is a themed group of up to three clues sharing one canonical answer.
type Round struct {
	RoundID     int64  `json:"round_id"`
	GameID      int64  `json:"game_id"`
	RoundNumber int    `json:"round_number"`
	Category    string `json:"category"`
	Answer      string `json:"answer"`
	Clues       []Clue `json:"clues"`
}

// Clue is one hint within a round. Points never increase with ClueNumber.
type Clue struct {
	ClueID         int64  `json:"clue_id"`
	RoundID        int64  `json:"round_id"`
	ClueNumber     int    `json:"clue_number"`
	Text           string `json:"clue_text"`
	PercentCorrect int    `json:"percent_correct"`
	Points         int    `json:"points"`
}

// RoundByID returns the round with the given id and its index, or nil and -1.
func (g *Game) RoundByID(roundID int64) (*Round, int) {
	for i := range g.Rounds {
		if g.Rounds[i].RoundID == roundID {
			return &g.Rounds[i], i
		}
	}
	return nil, -1
}

// ClueByNumber returns the clue with the given 1-based number, or nil.
func (r *Round) ClueByNumber(n int) *Clue {
	for i := range r.Clues {
		if r.Clues[i].ClueNumber == n {
			return &r.Clues[i]
		}
	}
	return nil
}

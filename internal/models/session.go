// internal/models/session.go
package models

import "time"

// GameSession is one player's progress through a game.
type GameSession struct {
	ID              string          `json:"sessionId"`
	GameID          int64           `json:"gameId"`
	UserID          string          `json:"userId,omitempty"`
	CurrentRound    int             `json:"currentRound"`
	CurrentQuestion int             `json:"currentQuestion"`
	RevealedClues   int             `json:"revealedClues"`
	Attempts        int             `json:"attempts"`
	Score           int             `json:"score"`
	Completed       bool            `json:"completed"`
	History         []AnswerAttempt `json:"history"`
	Version         int64           `json:"version"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// AnswerAttempt is one answer submission. Round is zero-based.
type AnswerAttempt struct {
	Round     int       `json:"round"`
	Answer    string    `json:"answer"`
	Correct   bool      `json:"correct"`
	Points    int       `json:"points"`
	Timestamp time.Time `json:"timestamp"`
}

// NewGameSession returns a session positioned on the first clue of the first round.
func NewGameSession(gameID int64, userID string) *GameSession {
	return &GameSession{
		GameID:        gameID,
		UserID:        userID,
		RevealedClues: 1,
		History:       []AnswerAttempt{},
	}
}

// RoundAttempts returns the attempts made in the given round, oldest first.
func (s *GameSession) RoundAttempts(round int) []AnswerAttempt {
	var out []AnswerAttempt
	for _, a := range s.History {
		if a.Round == round {
			out = append(out, a)
		}
	}
	return out
}

// LatestAttempt returns the most recent attempt in the given round, or nil.
func (s *GameSession) LatestAttempt(round int) *AnswerAttempt {
	for i := len(s.History) - 1; i >= 0; i-- {
		if s.History[i].Round == round {
			a := s.History[i]
			return &a
		}
	}
	return nil
}

// AttemptCount returns how many answers were submitted in the given round.
func (s *GameSession) AttemptCount(round int) int {
	return len(s.RoundAttempts(round))
}

// Clone returns a deep copy so callers can mutate without aliasing History.
func (s *GameSession) Clone() *GameSession {
	if s == nil {
		return nil
	}
	c := *s
	c.History = make([]AnswerAttempt, len(s.History))
	copy(c.History, s.History)
	return &c
}

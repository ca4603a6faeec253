package game

import (
	"time"

	"github.com/jason-s-yu/thrice/internal/engine"
	"github.com/jason-s-yu/thrice/internal/models"
)

type StartGameRequest struct {
	UserID string `json:"userId,omitempty"`
	GameID int64  `json:"gameId,omitempty"`
}

type StartGameResponse struct {
	SessionID     string           `json:"sessionId"`
	Message       string           `json:"message"`
	FirstQuestion *engine.Question `json:"firstQuestion"`
}

type AnswerRequest struct {
	SessionID string `json:"sessionId"`
	Answer    string `json:"answer"`
}

// AnswerResponse.Attempts counts the answers given in the round just
// answered, this one included.
type AnswerResponse struct {
	Correct      bool             `json:"correct"`
	Points       int              `json:"points"`
	TotalScore   int              `json:"totalScore"`
	NextQuestion *engine.Question `json:"nextQuestion"`
	Message      string           `json:"message"`
	Attempts     int              `json:"attempts"`
	GameOver     bool             `json:"gameOver,omitempty"`
}

// StatusResponse reports 1-based positions. LastAnswer is the latest answer
// given in the reported round.
type StatusResponse struct {
	CurrentRound    int                   `json:"currentRound"`
	CurrentQuestion int                   `json:"currentQuestion"`
	Score           int                   `json:"score"`
	Completed       bool                  `json:"completed"`
	LastAnswer      *models.AnswerAttempt `json:"lastAnswer,omitempty"`
}

type ListGamesRequest struct {
	Limit  int
	Offset int
	Search string
}

type Pagination struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type GameList struct {
	Games      []models.Game `json:"games"`
	Pagination Pagination    `json:"pagination"`
}

type CreateGameResponse struct {
	ID   int64  `json:"id"`
	Slug string `json:"slug"`
}

type UpdateGameRequest struct {
	Title     *string `json:"title,omitempty"`
	Published *string `json:"published,omitempty"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

type PlayRequest struct {
	UserID string `json:"userId"`
}

// PlayRound is a round as shown to a player: only revealed clues are included
// and the answer is withheld.
type PlayRound struct {
	RoundID     int64         `json:"round_id"`
	RoundNumber int           `json:"round_number"`
	Category    string        `json:"category"`
	Clues       []models.Clue `json:"clues"`
}

type PlayState struct {
	SessionID     string     `json:"session_id"`
	GameID        int64      `json:"game_id"`
	Title         string     `json:"title"`
	UserID        string     `json:"user_id"`
	CurrentRound  *PlayRound `json:"current_round"`
	TotalRounds   int        `json:"total_rounds"`
	Score         int        `json:"score"`
	RevealedClues int        `json:"revealed_clues"`
	Status        string     `json:"status"`
	Timestamp     time.Time  `json:"timestamp"`
}

const (
	ActionRevealClue = "reveal_clue"
	ActionNextRound  = "next_round"
)

type PlayUpdateRequest struct {
	UserID     string `json:"userId"`
	Action     string `json:"action"`
	RoundID    int64  `json:"roundId"`
	ClueNumber int    `json:"clueNumber,omitempty"`
}

type PlayUpdateResponse struct {
	RevealedClue  *models.Clue `json:"revealed_clue,omitempty"`
	RevealedClues int          `json:"revealed_clues,omitempty"`
	Message       string       `json:"message,omitempty"`
	CurrentRound  int          `json:"current_round,omitempty"`
	Completed     bool         `json:"completed,omitempty"`
}

type CheckAnswerRequest struct {
	RoundID    int64  `json:"roundId"`
	Answer     string `json:"answer"`
	ClueNumber int    `json:"clueNumber"`
}

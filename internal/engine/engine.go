// internal/engine/engine.go
package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jason-s-yu/thrice/internal/models"
	"golang.org/x/text/cases"
)

// MaxClues is the number of clues a round can reveal.
const MaxClues = 3

var (
	ErrGameCompleted    = errors.New("game already completed")
	ErrInvalidClueIndex = errors.New("invalid clue index")
	ErrClueNotFound     = errors.New("clue not found")
	ErrRoundNotFound    = errors.New("round not found")
	ErrNoRounds         = errors.New("game has no rounds")
)

// AdvanceMode decides what a correct answer moves the session to.
type AdvanceMode string

const (
	// AdvanceByRound closes the round on the first correct answer.
	AdvanceByRound AdvanceMode = "round"
	// AdvanceByClue moves to the next clue of the same round; the round
	// closes after its last clue has been answered.
	AdvanceByClue AdvanceMode = "clue"
)

// ParseAdvanceMode accepts "round" or "clue". Empty means AdvanceByRound.
func ParseAdvanceMode(s string) (AdvanceMode, error) {
	switch AdvanceMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", AdvanceByRound:
		return AdvanceByRound, nil
	case AdvanceByClue:
		return AdvanceByClue, nil
	}
	return "", fmt.Errorf("unknown advance mode %q", s)
}

// Rules holds the configurable parts of round progression.
type Rules struct {
	Mode AdvanceMode
}

// Question is what the player is currently asked. Numbers are 1-based.
type Question struct {
	Category       string `json:"category"`
	Text           string `json:"question"`
	RoundNumber    int    `json:"roundNumber"`
	QuestionNumber int    `json:"questionNumber"`
}

// Result is the outcome of one answer evaluation.
type Result struct {
	Correct       bool
	Points        int
	RoundAdvanced bool
	GameOver      bool
	Attempt       models.AnswerAttempt
	Next          *models.GameSession
}

// Points is the award for a correct answer after the given number of wrong attempts.
func Points(attempts int) int {
	switch {
	case attempts <= 0:
		return 3
	case attempts == 1:
		return 2
	case attempts == 2:
		return 1
	default:
		return 0
	}
}

// IsCorrect compares answers ignoring surrounding whitespace and case.
func IsCorrect(submitted, canonical string) bool {
	s := strings.TrimSpace(submitted)
	c := strings.TrimSpace(canonical)
	if s == "" || c == "" {
		return false
	}
	return cases.Fold().String(s) == cases.Fold().String(c)
}

// CurrentQuestion derives the posed clue from the session position. It
// returns nil once the session is completed or the position is off the content.
func (r Rules) CurrentQuestion(s *models.GameSession, g *models.Game) *Question {
	if s == nil || g == nil || s.Completed {
		return nil
	}
	if s.CurrentRound < 0 || s.CurrentRound >= len(g.Rounds) {
		return nil
	}
	round := g.Rounds[s.CurrentRound]
	q := &Question{
		Category:       round.Category,
		RoundNumber:    s.CurrentRound + 1,
		QuestionNumber: s.CurrentQuestion + 1,
	}
	if s.CurrentQuestion >= 0 && s.CurrentQuestion < len(round.Clues) {
		q.Text = round.Clues[s.CurrentQuestion].Text
	}
	return q
}

// Evaluate scores one submitted answer against the session's current round.
// The input session is not modified; Result.Next holds the new state.
func (r Rules) Evaluate(s *models.GameSession, g *models.Game, answer string, now time.Time) (Result, error) {
	if s.Completed {
		return Result{}, ErrGameCompleted
	}
	if len(g.Rounds) == 0 {
		return Result{}, ErrNoRounds
	}
	if s.CurrentRound < 0 || s.CurrentRound >= len(g.Rounds) {
		return Result{}, ErrRoundNotFound
	}
	round := g.Rounds[s.CurrentRound]
	next := s.Clone()

	res := Result{Correct: IsCorrect(answer, round.Answer)}
	if !res.Correct {
		next.Attempts++
	} else {
		res.Points = Points(s.Attempts)
		next.Score += res.Points
		next.Attempts = 0
		switch {
		case r.Mode == AdvanceByClue && next.CurrentQuestion+1 < len(round.Clues):
			next.CurrentQuestion++
			next.RevealedClues = min(MaxClues, max(next.RevealedClues, next.CurrentQuestion+1))
		default:
			res.RoundAdvanced = true
			res.GameOver = advance(next, len(g.Rounds))
		}
	}

	res.Attempt = models.AnswerAttempt{
		Round:     s.CurrentRound,
		Answer:    strings.TrimSpace(answer),
		Correct:   res.Correct,
		Points:    res.Points,
		Timestamp: now,
	}
	next.History = append(next.History, res.Attempt)
	res.Next = next
	return res, nil
}

// RevealNext returns the clue after clueNumber in the given round. Repeating a
// request yields the same clue. Only a reveal in the session's current round
// moves the session forward.
func RevealNext(s *models.GameSession, g *models.Game, roundID int64, clueNumber int) (models.Clue, *models.GameSession, error) {
	if clueNumber < 1 || clueNumber >= MaxClues {
		return models.Clue{}, nil, ErrInvalidClueIndex
	}
	if s.Completed {
		return models.Clue{}, nil, ErrGameCompleted
	}
	round, idx := g.RoundByID(roundID)
	if round == nil {
		return models.Clue{}, nil, ErrRoundNotFound
	}
	clue := round.ClueByNumber(clueNumber + 1)
	if clue == nil {
		return models.Clue{}, nil, ErrClueNotFound
	}

	next := s.Clone()
	if idx == s.CurrentRound {
		next.RevealedClues = max(next.RevealedClues, clueNumber+1)
		next.CurrentQuestion = max(next.CurrentQuestion, clueNumber)
	}
	return *clue, next, nil
}

// AdvanceRound skips the rest of the current round without points. Any round
// id other than the current one leaves the session unchanged, so retried
// requests do not skip twice.
func AdvanceRound(s *models.GameSession, g *models.Game, roundID int64) (*models.GameSession, bool, error) {
	if s.Completed {
		return nil, false, ErrGameCompleted
	}
	_, idx := g.RoundByID(roundID)
	if idx < 0 {
		return nil, false, ErrRoundNotFound
	}
	next := s.Clone()
	if idx != s.CurrentRound {
		return next, false, nil
	}
	return next, advance(next, len(g.Rounds)), nil
}

// advance moves s to the next round and reports whether the game is over.
func advance(s *models.GameSession, totalRounds int) bool {
	s.CurrentRound++
	s.CurrentQuestion = 0
	s.Attempts = 0
	if s.CurrentRound >= totalRounds {
		s.CurrentRound = totalRounds
		s.RevealedClues = 0
		s.Completed = true
		return true
	}
	s.RevealedClues = 1
	return false
}

// AnswerCheck is the outcome of a stateless answer check.
type AnswerCheck struct {
	Correct bool   `json:"correct"`
	Answer  string `json:"answer,omitempty"`
	Message string `json:"message"`
	Points  int    `json:"points"`
}

// CheckAnswer checks an answer given while clueNumber clues were visible.
// Every extra clue counts as a spent attempt.
func CheckAnswer(round *models.Round, answer string, clueNumber int) (AnswerCheck, error) {
	last := min(len(round.Clues), MaxClues)
	if clueNumber < 1 || clueNumber > last {
		return AnswerCheck{}, ErrInvalidClueIndex
	}
	if IsCorrect(answer, round.Answer) {
		return AnswerCheck{
			Correct: true,
			Answer:  round.Answer,
			Message: "Correct!",
			Points:  Points(clueNumber - 1),
		}, nil
	}
	if clueNumber == last {
		return AnswerCheck{Answer: round.Answer, Message: "Out of clues"}, nil
	}
	return AnswerCheck{Message: "Incorrect answer, try again"}, nil
}

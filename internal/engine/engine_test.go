package engine

import (
	"testing"
	"time"

	"github.com/jason-s-yu/thrice/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testGame builds a game with the given number of rounds, each answered by "answer<N>".
func testGame(rounds int) *models.Game {
	g := &models.Game{GameID: 1, Title: "Test", IsActive: true}
	for i := 0; i < rounds; i++ {
		r := models.Round{
			RoundID:     int64(100 + i),
			GameID:      1,
			RoundNumber: i + 1,
			Category:    "Category",
			Answer:      "Answer" + string(rune('A'+i)),
		}
		for n := 1; n <= MaxClues; n++ {
			r.Clues = append(r.Clues, models.Clue{
				ClueID:     int64(1000 + i*10 + n),
				RoundID:    r.RoundID,
				ClueNumber: n,
				Text:       "clue",
				Points:     4 - n,
			})
		}
		g.Rounds = append(g.Rounds, r)
	}
	return g
}

func answerOf(g *models.Game, s *models.GameSession) string {
	return g.Rounds[s.CurrentRound].Answer
}

func checkInvariants(t *testing.T, s *models.GameSession, g *models.Game) {
	t.Helper()
	assert.GreaterOrEqual(t, s.Attempts, 0)
	assert.GreaterOrEqual(t, s.RevealedClues, 0)
	assert.LessOrEqual(t, s.RevealedClues, MaxClues)
	assert.GreaterOrEqual(t, s.CurrentRound, 0)
	assert.LessOrEqual(t, s.CurrentRound, len(g.Rounds))
	assert.GreaterOrEqual(t, s.Score, 0)
}

func TestPoints(t *testing.T) {
	assert.Equal(t, 3, Points(0))
	assert.Equal(t, 2, Points(1))
	assert.Equal(t, 1, Points(2))
	assert.Equal(t, 0, Points(3))
	assert.Equal(t, 0, Points(10))
}

func TestIsCorrect(t *testing.T) {
	assert.True(t, IsCorrect("paris", "Paris"))
	assert.True(t, IsCorrect("  PARIS \n", "Paris"))
	assert.True(t, IsCorrect("ÉCOLE", "école"))
	assert.False(t, IsCorrect("Pari", "Paris"))
	assert.False(t, IsCorrect("", "Paris"))
	assert.False(t, IsCorrect("   ", ""))
}

func TestParseAdvanceMode(t *testing.T) {
	m, err := ParseAdvanceMode("")
	require.NoError(t, err)
	assert.Equal(t, AdvanceByRound, m)

	m, err = ParseAdvanceMode(" Clue ")
	require.NoError(t, err)
	assert.Equal(t, AdvanceByClue, m)

	_, err = ParseAdvanceMode("sometimes")
	assert.Error(t, err)
}

func TestFirstQuestion(t *testing.T) {
	g := testGame(5)
	s := models.NewGameSession(1, "")
	q := Rules{}.CurrentQuestion(s, g)
	require.NotNil(t, q)
	assert.Equal(t, 1, q.RoundNumber)
	assert.Equal(t, 1, q.QuestionNumber)
	assert.Equal(t, "Category", q.Category)
	assert.Equal(t, "clue", q.Text)
}

func TestCorrectFirstTry(t *testing.T) {
	g := testGame(5)
	s := models.NewGameSession(1, "")
	now := time.Now()

	res, err := Rules{}.Evaluate(s, g, "answera", now)
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.Equal(t, 3, res.Points)
	assert.Equal(t, 3, res.Next.Score)
	assert.True(t, res.RoundAdvanced)
	assert.Equal(t, 1, res.Next.CurrentRound)
	assert.Equal(t, 1, res.Next.RevealedClues)

	// The input session is untouched.
	assert.Equal(t, 0, s.Score)
	assert.Empty(t, s.History)
	require.Len(t, res.Next.History, 1)
	assert.Equal(t, models.AnswerAttempt{Round: 0, Answer: "answera", Correct: true, Points: 3, Timestamp: now}, res.Next.History[0])
}

func TestTwoWrongThenCorrect(t *testing.T) {
	g := testGame(5)
	s := models.NewGameSession(1, "")
	rules := Rules{}

	for i := 0; i < 2; i++ {
		res, err := rules.Evaluate(s, g, "wrong", time.Now())
		require.NoError(t, err)
		assert.False(t, res.Correct)
		assert.Equal(t, 0, res.Points)
		s = res.Next
	}
	assert.Equal(t, 2, s.Attempts)
	assert.Equal(t, 0, s.CurrentRound)

	res, err := rules.Evaluate(s, g, answerOf(g, s), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Points)
	assert.Equal(t, 1, res.Next.Score)
	assert.Equal(t, 0, res.Next.Attempts)
	assert.Equal(t, 3, res.Next.AttemptCount(0))
	assert.True(t, res.Next.LatestAttempt(0).Correct)
}

func TestPerfectGame(t *testing.T) {
	g := testGame(5)
	s := models.NewGameSession(1, "")
	rules := Rules{}

	var last Result
	for i := 0; i < 5; i++ {
		res, err := rules.Evaluate(s, g, answerOf(g, s), time.Now())
		require.NoError(t, err)
		checkInvariants(t, res.Next, g)
		s = res.Next
		last = res
	}
	assert.True(t, last.GameOver)
	assert.True(t, s.Completed)
	assert.Equal(t, 15, s.Score)
	assert.Equal(t, 5, s.CurrentRound)
	assert.Equal(t, 0, s.RevealedClues)
	assert.Nil(t, rules.CurrentQuestion(s, g))

	_, err := rules.Evaluate(s, g, "anything", time.Now())
	assert.ErrorIs(t, err, ErrGameCompleted)
}

func TestAdvanceByClue(t *testing.T) {
	g := testGame(2)
	s := models.NewGameSession(1, "")
	rules := Rules{Mode: AdvanceByClue}

	for q := 0; q < MaxClues; q++ {
		res, err := rules.Evaluate(s, g, answerOf(g, s), time.Now())
		require.NoError(t, err)
		checkInvariants(t, res.Next, g)
		s = res.Next
		if q < MaxClues-1 {
			assert.False(t, res.RoundAdvanced)
			assert.Equal(t, 0, s.CurrentRound)
			assert.Equal(t, q+1, s.CurrentQuestion)
			assert.Equal(t, q+2, s.RevealedClues)
		} else {
			assert.True(t, res.RoundAdvanced)
			assert.Equal(t, 1, s.CurrentRound)
			assert.Equal(t, 0, s.CurrentQuestion)
		}
	}
	assert.Equal(t, 9, s.Score)

	q := rules.CurrentQuestion(s, g)
	require.NotNil(t, q)
	assert.Equal(t, 2, q.RoundNumber)
	assert.Equal(t, 1, q.QuestionNumber)
}

func TestScoreMonotoneAndInvariantsHold(t *testing.T) {
	g := testGame(5)
	s := models.NewGameSession(1, "")
	rules := Rules{Mode: AdvanceByClue}
	inputs := []string{"x", "y", "", "z", "w"}

	prev := 0
	for i := 0; !s.Completed && i < 200; i++ {
		answer := answerOf(g, s)
		if i%3 != 0 {
			answer = inputs[i%len(inputs)]
		}
		res, err := rules.Evaluate(s, g, answer, time.Now())
		require.NoError(t, err)
		s = res.Next
		checkInvariants(t, s, g)
		assert.GreaterOrEqual(t, s.Score, prev)
		prev = s.Score
	}
	assert.True(t, s.Completed)
}

func TestRevealNext(t *testing.T) {
	g := testGame(2)
	s := models.NewGameSession(1, "")
	roundID := g.Rounds[0].RoundID

	clue, next, err := RevealNext(s, g, roundID, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, clue.ClueNumber)
	assert.Equal(t, 2, next.RevealedClues)
	assert.Equal(t, 1, next.CurrentQuestion)

	again, next2, err := RevealNext(next, g, roundID, 1)
	require.NoError(t, err)
	assert.Equal(t, clue, again)
	assert.Equal(t, next.RevealedClues, next2.RevealedClues)
	assert.Equal(t, next.CurrentQuestion, next2.CurrentQuestion)

	// Revealing in a round that is not current returns the clue without moving the session.
	other, next3, err := RevealNext(next, g, g.Rounds[1].RoundID, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, other.ClueNumber)
	assert.Equal(t, next.RevealedClues, next3.RevealedClues)
}

func TestRevealNextErrors(t *testing.T) {
	g := testGame(1)
	s := models.NewGameSession(1, "")
	roundID := g.Rounds[0].RoundID

	_, _, err := RevealNext(s, g, roundID, 3)
	assert.ErrorIs(t, err, ErrInvalidClueIndex)
	_, _, err = RevealNext(s, g, roundID, 0)
	assert.ErrorIs(t, err, ErrInvalidClueIndex)
	_, _, err = RevealNext(s, g, 9999, 1)
	assert.ErrorIs(t, err, ErrRoundNotFound)

	g.Rounds[0].Clues = g.Rounds[0].Clues[:1]
	_, _, err = RevealNext(s, g, roundID, 1)
	assert.ErrorIs(t, err, ErrClueNotFound)

	done := s.Clone()
	done.Completed = true
	_, _, err = RevealNext(done, g, roundID, 1)
	assert.ErrorIs(t, err, ErrGameCompleted)
}

func TestAdvanceRound(t *testing.T) {
	g := testGame(2)
	s := models.NewGameSession(1, "")

	next, over, err := AdvanceRound(s, g, g.Rounds[0].RoundID)
	require.NoError(t, err)
	assert.False(t, over)
	assert.Equal(t, 1, next.CurrentRound)
	assert.Equal(t, 0, next.Score)

	// A retried request for the old round does nothing.
	same, over, err := AdvanceRound(next, g, g.Rounds[0].RoundID)
	require.NoError(t, err)
	assert.False(t, over)
	assert.Equal(t, 1, same.CurrentRound)

	last, over, err := AdvanceRound(same, g, g.Rounds[1].RoundID)
	require.NoError(t, err)
	assert.True(t, over)
	assert.True(t, last.Completed)

	_, _, err = AdvanceRound(last, g, g.Rounds[1].RoundID)
	assert.ErrorIs(t, err, ErrGameCompleted)
	_, _, err = AdvanceRound(s, g, 42)
	assert.ErrorIs(t, err, ErrRoundNotFound)
}

func TestCheckAnswer(t *testing.T) {
	g := testGame(1)
	r := &g.Rounds[0]

	res, err := CheckAnswer(r, "answera", 1)
	require.NoError(t, err)
	assert.Equal(t, AnswerCheck{Correct: true, Answer: "AnswerA", Message: "Correct!", Points: 3}, res)

	res, err = CheckAnswer(r, "answera", 3)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Points)

	res, err = CheckAnswer(r, "nope", 2)
	require.NoError(t, err)
	assert.Equal(t, AnswerCheck{Message: "Incorrect answer, try again"}, res)

	res, err = CheckAnswer(r, "nope", 3)
	require.NoError(t, err)
	assert.Equal(t, AnswerCheck{Answer: "AnswerA", Message: "Out of clues"}, res)

	_, err = CheckAnswer(r, "answera", 4)
	assert.ErrorIs(t, err, ErrInvalidClueIndex)
}

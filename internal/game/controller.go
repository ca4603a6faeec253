// Package game orchestrates sessions, content and the round engine behind
// the HTTP API. It validates requests and translates failures; all scoring
// lives in the engine package.
package game

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jason-s-yu/thrice/internal/content"
	"github.com/jason-s-yu/thrice/internal/engine"
	"github.com/jason-s-yu/thrice/internal/history"
	"github.com/jason-s-yu/thrice/internal/models"
	"github.com/jason-s-yu/thrice/internal/session"
	log "github.com/sirupsen/logrus"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Options wires a Controller. Zero values fall back to in-memory defaults.
type Options struct {
	Sessions      session.Store
	Content       content.Source
	Rules         engine.Rules
	History       history.Publisher
	Logger        *log.Logger
	DefaultGameID int64
}

type Controller struct {
	sessions    session.Store
	content     content.Source
	rules       engine.Rules
	history     history.Publisher
	logger      *log.Logger
	defaultGame int64
	now         func() time.Time
}

func NewController(opts Options) *Controller {
	c := &Controller{
		sessions:    opts.Sessions,
		content:     opts.Content,
		rules:       opts.Rules,
		history:     opts.History,
		logger:      opts.Logger,
		defaultGame: opts.DefaultGameID,
		now:         func() time.Time { return time.Now().UTC() },
	}
	if c.sessions == nil {
		c.sessions = session.NewMemoryStore()
	}
	if c.content == nil {
		c.content = content.NewReferenceSource()
	}
	if c.rules.Mode == "" {
		c.rules.Mode = engine.AdvanceByRound
	}
	if c.history == nil {
		c.history = history.Nop{}
	}
	if c.logger == nil {
		c.logger = log.StandardLogger()
	}
	if c.defaultGame == 0 {
		c.defaultGame = content.ReferenceGameID
	}
	return c
}

// StartGame opens a session on the requested game, or the default game.
func (c *Controller) StartGame(ctx context.Context, req StartGameRequest) (*StartGameResponse, error) {
	if req.GameID < 0 {
		return nil, newError(KindValidation, "Invalid game ID format")
	}
	gameID := req.GameID
	if gameID == 0 {
		gameID = c.defaultGame
	}
	g, err := c.playableGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	s := models.NewGameSession(g.GameID, strings.TrimSpace(req.UserID))
	if err := c.sessions.Create(ctx, s); err != nil {
		return nil, c.translate(err)
	}
	c.logger.WithFields(log.Fields{"session": s.ID, "game": g.GameID}).Info("game started")

	return &StartGameResponse{
		SessionID:     s.ID,
		Message:       "Game started",
		FirstQuestion: c.rules.CurrentQuestion(s, g),
	}, nil
}

// SubmitAnswer scores an answer against the session's current round.
func (c *Controller) SubmitAnswer(ctx context.Context, req AnswerRequest) (*AnswerResponse, error) {
	if strings.TrimSpace(req.SessionID) == "" {
		return nil, newError(KindValidation, "sessionId is required")
	}
	if strings.TrimSpace(req.Answer) == "" {
		return nil, newError(KindValidation, "answer is required")
	}

	cur, err := c.sessions.Get(ctx, req.SessionID)
	if err != nil {
		return nil, c.translate(err)
	}
	if cur.Completed {
		return nil, c.translate(engine.ErrGameCompleted)
	}
	g, err := c.content.GetGame(ctx, cur.GameID)
	if err != nil {
		return nil, c.translate(err)
	}

	var res engine.Result
	next, err := c.sessions.Mutate(ctx, req.SessionID, func(s *models.GameSession) error {
		r, err := c.rules.Evaluate(s, g, req.Answer, c.now())
		if err != nil {
			return err
		}
		res = r
		*s = *r.Next
		return nil
	})
	if err != nil {
		return nil, c.translate(err)
	}
	c.publish(ctx, next, res.Attempt)

	resp := &AnswerResponse{
		Correct:      res.Correct,
		Points:       res.Points,
		TotalScore:   next.Score,
		NextQuestion: c.rules.CurrentQuestion(next, g),
		Attempts:     next.AttemptCount(res.Attempt.Round),
		GameOver:     res.GameOver,
	}
	switch {
	case res.GameOver:
		resp.Message = "Game completed!"
		c.logger.WithFields(log.Fields{"session": next.ID, "score": next.Score}).Info("game completed")
	case res.Correct:
		resp.Message = "Correct!"
	default:
		resp.Message = "Incorrect answer, try again"
	}
	return resp, nil
}

// Status reports the session position. Positions are 1-based and never pass the last round.
func (c *Controller) Status(ctx context.Context, sessionID string) (*StatusResponse, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, newError(KindValidation, "sessionId is required")
	}
	s, err := c.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, c.translate(err)
	}
	round := s.CurrentRound + 1
	if g, err := c.content.GetGame(ctx, s.GameID); err == nil && len(g.Rounds) > 0 {
		round = min(round, len(g.Rounds))
	}
	return &StatusResponse{
		CurrentRound:    round,
		CurrentQuestion: s.CurrentQuestion + 1,
		Score:           s.Score,
		Completed:       s.Completed,
		LastAnswer:      s.LatestAttempt(round - 1),
	}, nil
}

func (c *Controller) ListGames(ctx context.Context, req ListGamesRequest) (*GameList, error) {
	if req.Limit < 0 || req.Offset < 0 {
		return nil, newError(KindValidation, "limit and offset must not be negative")
	}
	if req.Limit == 0 {
		req.Limit = defaultPageSize
	}
	req.Limit = min(req.Limit, maxPageSize)

	games, total, err := c.content.ListGames(ctx, content.ListOptions{
		Limit:  req.Limit,
		Offset: req.Offset,
		Search: req.Search,
	})
	if err != nil {
		return nil, c.translate(err)
	}
	return &GameList{
		Games:      games,
		Pagination: Pagination{Total: total, Limit: req.Limit, Offset: req.Offset},
	}, nil
}

// GetGame looks a game up by numeric id or slug.
func (c *Controller) GetGame(ctx context.Context, ref string) (*models.Game, error) {
	g, err := c.resolveGame(ctx, ref)
	if err != nil {
		return nil, c.translate(err)
	}
	return g, nil
}

func (c *Controller) CreateGame(ctx context.Context, g *models.Game) (*CreateGameResponse, error) {
	if g == nil {
		return nil, newError(KindValidation, "game is required")
	}
	if err := validPublished(g.Published); err != nil {
		return nil, err
	}
	// ids are assigned by the store
	g.GameID = 0
	content.Normalize(g)
	if err := content.Validate(g); err != nil {
		return nil, &Error{Kind: KindValidation, Message: err.Error(), Err: err}
	}
	if err := c.content.CreateGame(ctx, g); err != nil {
		return nil, c.translate(err)
	}
	c.logger.WithFields(log.Fields{"game": g.GameID, "slug": g.Slug, "rounds": len(g.Rounds)}).Info("game created")
	return &CreateGameResponse{ID: g.GameID, Slug: g.Slug}, nil
}

func (c *Controller) UpdateGame(ctx context.Context, ref string, req UpdateGameRequest) error {
	u := content.GameUpdate{Title: req.Title, Published: req.Published, IsActive: req.IsActive}
	if u.Empty() {
		return newError(KindValidation, "No fields to update")
	}
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		return newError(KindValidation, "title must not be empty")
	}
	if u.Published != nil {
		if err := validPublished(*u.Published); err != nil {
			return err
		}
	}
	g, err := c.resolveGame(ctx, ref)
	if err != nil {
		return c.translate(err)
	}
	if err := c.content.UpdateGame(ctx, g.GameID, u); err != nil {
		return c.translate(err)
	}
	return nil
}

func (c *Controller) DeleteGame(ctx context.Context, ref string) error {
	g, err := c.resolveGame(ctx, ref)
	if err != nil {
		return c.translate(err)
	}
	if err := c.content.DeleteGame(ctx, g.GameID); err != nil {
		return c.translate(err)
	}
	c.logger.WithField("game", g.GameID).Info("game deleted")
	return nil
}

// StartPlay opens a fresh session of the game for the player and returns the
// first round with only its first clue.
func (c *Controller) StartPlay(ctx context.Context, ref string, req PlayRequest) (*PlayState, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, newError(KindValidation, "User ID is required")
	}
	g, err := c.resolveGame(ctx, ref)
	if err != nil {
		return nil, c.translate(err)
	}
	if g, err = c.checkPlayable(g); err != nil {
		return nil, err
	}

	s := models.NewGameSession(g.GameID, userID)
	if err := c.sessions.Create(ctx, s); err != nil {
		return nil, c.translate(err)
	}
	c.logger.WithFields(log.Fields{"session": s.ID, "game": g.GameID, "user": userID}).Info("play started")
	return c.playState(s, g), nil
}

// PlayState returns the player's latest session of the game.
func (c *Controller) PlayState(ctx context.Context, ref, userID string) (*PlayState, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, newError(KindValidation, "User ID is required")
	}
	g, err := c.resolveGame(ctx, ref)
	if err != nil {
		return nil, c.translate(err)
	}
	s, err := c.sessions.FindByPlayer(ctx, g.GameID, userID)
	if err != nil {
		return nil, c.translate(err)
	}
	return c.playState(s, g), nil
}

// UpdatePlay reveals the next clue or skips to the next round.
func (c *Controller) UpdatePlay(ctx context.Context, ref string, req PlayUpdateRequest) (*PlayUpdateResponse, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" || req.Action == "" {
		return nil, newError(KindValidation, "Missing required parameters")
	}
	if req.RoundID <= 0 {
		return nil, newError(KindValidation, "Invalid round or clue parameters")
	}
	switch req.Action {
	case ActionRevealClue:
		if req.ClueNumber < 1 || req.ClueNumber > engine.MaxClues {
			return nil, newError(KindValidation, "Invalid round or clue parameters")
		}
	case ActionNextRound:
	default:
		return nil, newError(KindValidation, "Invalid action")
	}

	g, err := c.resolveGame(ctx, ref)
	if err != nil {
		return nil, c.translate(err)
	}
	s, err := c.sessions.FindByPlayer(ctx, g.GameID, userID)
	if err != nil {
		return nil, c.translate(err)
	}

	if req.Action == ActionRevealClue {
		var clue models.Clue
		_, err := c.sessions.Mutate(ctx, s.ID, func(cur *models.GameSession) error {
			revealed, next, err := engine.RevealNext(cur, g, req.RoundID, req.ClueNumber)
			if err != nil {
				return err
			}
			clue = revealed
			*cur = *next
			return nil
		})
		if err != nil {
			return nil, c.translate(err)
		}
		return &PlayUpdateResponse{RevealedClue: &clue, RevealedClues: clue.ClueNumber}, nil
	}

	var gameOver bool
	next, err := c.sessions.Mutate(ctx, s.ID, func(cur *models.GameSession) error {
		n, over, err := engine.AdvanceRound(cur, g, req.RoundID)
		if err != nil {
			return err
		}
		gameOver = over
		*cur = *n
		return nil
	})
	if err != nil {
		return nil, c.translate(err)
	}
	resp := &PlayUpdateResponse{
		Message:      "Advanced to next round",
		CurrentRound: min(next.CurrentRound+1, len(g.Rounds)),
		Completed:    next.Completed,
	}
	if gameOver {
		resp.Message = "Game completed!"
	}
	return resp, nil
}

// CheckAnswer checks an answer without touching any session.
func (c *Controller) CheckAnswer(ctx context.Context, req CheckAnswerRequest) (*engine.AnswerCheck, error) {
	if req.RoundID <= 0 {
		return nil, newError(KindValidation, "roundId is required")
	}
	if strings.TrimSpace(req.Answer) == "" {
		return nil, newError(KindValidation, "answer is required")
	}
	if req.ClueNumber < 1 || req.ClueNumber > engine.MaxClues {
		return nil, newError(KindValidation, "Invalid clue number")
	}
	round, err := c.content.GetRound(ctx, req.RoundID)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			return nil, newError(KindNotFound, "Round not found")
		}
		return nil, c.translate(err)
	}
	res, err := engine.CheckAnswer(round, req.Answer, req.ClueNumber)
	if err != nil {
		return nil, c.translate(err)
	}
	return &res, nil
}

func (c *Controller) playState(s *models.GameSession, g *models.Game) *PlayState {
	st := &PlayState{
		SessionID:     s.ID,
		GameID:        g.GameID,
		Title:         g.Title,
		UserID:        s.UserID,
		TotalRounds:   len(g.Rounds),
		Score:         s.Score,
		RevealedClues: s.RevealedClues,
		Status:        "active",
		Timestamp:     c.now(),
	}
	if s.Completed {
		st.Status = "completed"
		return st
	}
	if s.CurrentRound < len(g.Rounds) {
		r := g.Rounds[s.CurrentRound]
		pr := &PlayRound{
			RoundID:     r.RoundID,
			RoundNumber: r.RoundNumber,
			Category:    r.Category,
			Clues:       []models.Clue{},
		}
		for _, clue := range r.Clues {
			if clue.ClueNumber <= s.RevealedClues {
				pr.Clues = append(pr.Clues, clue)
			}
		}
		st.CurrentRound = pr
	}
	return st
}

func (c *Controller) publish(ctx context.Context, s *models.GameSession, a models.AnswerAttempt) {
	if err := c.history.Publish(ctx, history.FromAttempt(s, a)); err != nil {
		c.logger.WithError(err).WithField("session", s.ID).Warn("failed to publish answer attempt")
	}
}

// playableGame loads a game that can be started.
func (c *Controller) playableGame(ctx context.Context, id int64) (*models.Game, error) {
	g, err := c.content.GetGame(ctx, id)
	if err != nil {
		return nil, c.translate(err)
	}
	return c.checkPlayable(g)
}

func (c *Controller) checkPlayable(g *models.Game) (*models.Game, error) {
	if !g.IsActive {
		return nil, newError(KindForbidden, "Game is not active")
	}
	if len(g.Rounds) == 0 {
		return nil, newError(KindNotFound, "No rounds found for this game")
	}
	return g, nil
}

// resolveGame accepts a numeric game id or a slug.
func (c *Controller) resolveGame(ctx context.Context, ref string) (*models.Game, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, newError(KindValidation, "Invalid game ID format")
	}
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		if id <= 0 {
			return nil, newError(KindValidation, "Invalid game ID format")
		}
		return c.content.GetGame(ctx, id)
	}
	return c.content.GetGameBySlug(ctx, ref)
}

func validPublished(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse(time.DateOnly, s); err != nil {
		return newError(KindValidation, "published must be a YYYY-MM-DD date")
	}
	return nil
}

// translate maps package errors onto the client-facing taxonomy.
func (c *Controller) translate(err error) error {
	var e *Error
	switch {
	case errors.As(err, &e):
		return e
	case errors.Is(err, session.ErrNotFound):
		return newError(KindNotFound, "Game session not found")
	case errors.Is(err, content.ErrNotFound):
		return newError(KindNotFound, "Game not found")
	case errors.Is(err, content.ErrAlreadyExists):
		return newError(KindValidation, "A game with this title already exists")
	case errors.Is(err, engine.ErrGameCompleted):
		return newError(KindAlreadyCompleted, "Game already completed")
	case errors.Is(err, engine.ErrInvalidClueIndex):
		return newError(KindValidation, "Invalid clue index")
	case errors.Is(err, engine.ErrClueNotFound):
		return newError(KindNotFound, "Clue not found")
	case errors.Is(err, engine.ErrRoundNotFound):
		return newError(KindNotFound, "Round not found")
	case errors.Is(err, engine.ErrNoRounds):
		return newError(KindNotFound, "No rounds found for this game")
	}
	c.logger.WithError(err).Error("internal error")
	return &Error{Kind: KindInternal, Message: "Internal Server Error", Err: err}
}

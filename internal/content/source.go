// Package content defines where games, rounds and clues come from.
package content

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gosimple/slug"
	"github.com/jason-s-yu/thrice/internal/models"
)

var (
	// ErrNotFound is returned when a game or round does not exist.
	ErrNotFound = errors.New("content not found")
	// ErrAlreadyExists is returned when a game slug is taken.
	ErrAlreadyExists = errors.New("content already exists")
)

// ListOptions selects one page of games. Search matches titles case-insensitively.
type ListOptions struct {
	Limit  int
	Offset int
	Search string
}

// GameUpdate carries the fields of a partial game update; nil means unchanged.
type GameUpdate struct {
	Title     *string
	Published *string
	IsActive  *bool
}

// Empty reports whether the update changes nothing.
func (u GameUpdate) Empty() bool {
	return u.Title == nil && u.Published == nil && u.IsActive == nil
}

// Source is the read/write content store behind the game catalog and play.
type Source interface {
	// ListGames returns one page of games without rounds, newest first, plus the total match count.
	ListGames(ctx context.Context, opts ListOptions) ([]models.Game, int, error)
	// GetGame returns a game with its rounds and clues.
	GetGame(ctx context.Context, id int64) (*models.Game, error)
	GetGameBySlug(ctx context.Context, slug string) (*models.Game, error)
	// GetRound returns a round with its clues.
	GetRound(ctx context.Context, roundID int64) (*models.Round, error)
	// CreateGame stores g with its rounds and clues, filling in generated ids and the slug.
	CreateGame(ctx context.Context, g *models.Game) error
	UpdateGame(ctx context.Context, id int64, u GameUpdate) error
	// DeleteGame removes the game together with its rounds and clues.
	DeleteGame(ctx context.Context, id int64) error
}

// Slugify derives the URL slug for a game title.
func Slugify(title string) string {
	return slug.Make(strings.TrimSpace(title))
}

// Matches reports whether title satisfies a search term.
func Matches(title, search string) bool {
	search = strings.TrimSpace(search)
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(title), strings.ToLower(search))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// LikePattern turns a search term into a lowercase substring pattern for
// `LIKE ? ESCAPE '\'`, so SQL stores match the same titles as Matches.
func LikePattern(search string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(search))) + "%"
}

// DefaultPoints is the point value of a clue when the content does not set one.
func DefaultPoints(clueNumber int) int {
	return max(0, 4-clueNumber)
}

// Normalize fills defaults on a game before it is stored. Round and clue
// numbers follow slice order when unset, and rounds and clues are then sorted
// by number. A round whose clues carry no points gets 3/2/1.
func Normalize(g *models.Game) {
	g.Title = strings.TrimSpace(g.Title)
	g.Slug = Slugify(g.Title)
	for i := range g.Rounds {
		r := &g.Rounds[i]
		if r.RoundNumber == 0 {
			r.RoundNumber = i + 1
		}
		r.Answer = strings.TrimSpace(r.Answer)

		unscored := true
		for j := range r.Clues {
			c := &r.Clues[j]
			if c.ClueNumber == 0 {
				c.ClueNumber = j + 1
			}
			if c.Points != 0 {
				unscored = false
			}
		}
		if unscored {
			for j := range r.Clues {
				r.Clues[j].Points = DefaultPoints(r.Clues[j].ClueNumber)
			}
		}
		sort.SliceStable(r.Clues, func(a, b int) bool {
			return r.Clues[a].ClueNumber < r.Clues[b].ClueNumber
		})
	}
	sort.SliceStable(g.Rounds, func(a, b int) bool {
		return g.Rounds[a].RoundNumber < g.Rounds[b].RoundNumber
	})
}

// Validate checks the structural rules of a game tree: round numbers are
// positive and distinct, every round needs an answer and one to three clues
// with distinct numbers 1..3, and points never increase with the clue number.
func Validate(g *models.Game) error {
	if strings.TrimSpace(g.Title) == "" {
		return errors.New("title is required")
	}
	rounds := make(map[int]bool, len(g.Rounds))
	for i, r := range g.Rounds {
		if r.RoundNumber < 1 {
			return fmt.Errorf("round %d: round number %d out of range", i+1, r.RoundNumber)
		}
		if rounds[r.RoundNumber] {
			return fmt.Errorf("round %d: duplicate round number %d", i+1, r.RoundNumber)
		}
		rounds[r.RoundNumber] = true
		if strings.TrimSpace(r.Answer) == "" {
			return fmt.Errorf("round %d: answer is required", r.RoundNumber)
		}
		if len(r.Clues) == 0 || len(r.Clues) > 3 {
			return fmt.Errorf("round %d: expected 1 to 3 clues, got %d", r.RoundNumber, len(r.Clues))
		}

		byNumber := make([]*models.Clue, 4)
		for j := range r.Clues {
			c := &r.Clues[j]
			if c.ClueNumber < 1 || c.ClueNumber > 3 {
				return fmt.Errorf("round %d: clue number %d out of range", r.RoundNumber, c.ClueNumber)
			}
			if byNumber[c.ClueNumber] != nil {
				return fmt.Errorf("round %d: duplicate clue number %d", r.RoundNumber, c.ClueNumber)
			}
			byNumber[c.ClueNumber] = c
			if strings.TrimSpace(c.Text) == "" {
				return fmt.Errorf("round %d clue %d: text is required", r.RoundNumber, c.ClueNumber)
			}
			if c.Points < 0 {
				return fmt.Errorf("round %d clue %d: negative points", r.RoundNumber, c.ClueNumber)
			}
		}

		prev := -1
		for n, c := range byNumber {
			if c == nil {
				continue
			}
			if prev >= 0 && c.Points > prev {
				return fmt.Errorf("round %d clue %d: points must not increase", r.RoundNumber, n)
			}
			prev = c.Points
		}
	}
	return nil
}

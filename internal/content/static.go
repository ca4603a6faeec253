// internal/content/static.go
package content

import (
	"context"
	"sort"
	"sync"

	"github.com/jason-s-yu/thrice/internal/models"
)

// ReferenceGameID is the id of the built-in game served by the static source.
const ReferenceGameID int64 = 1

// StaticSource keeps games in memory. It backs tests and single-instance
// deployments that do not need a database.
type StaticSource struct {
	mu        sync.RWMutex
	games     map[int64]*models.Game
	nextGame  int64
	nextRound int64
	nextClue  int64
}

// NewStaticSource returns a source holding the given games. Ids left at zero are assigned.
func NewStaticSource(games ...models.Game) *StaticSource {
	s := &StaticSource{games: make(map[int64]*models.Game)}
	for i := range games {
		g := games[i]
		_ = s.CreateGame(context.Background(), &g)
	}
	return s
}

// NewReferenceSource returns a static source seeded with the reference game.
func NewReferenceSource() *StaticSource {
	return NewStaticSource(ReferenceGame())
}

// ReferenceGame is the built-in five round game.
func ReferenceGame() models.Game {
	round := func(category, answer string, clues ...string) models.Round {
		r := models.Round{Category: category, Answer: answer}
		for i, text := range clues {
			r.Clues = append(r.Clues, models.Clue{ClueNumber: i + 1, Text: text, Points: DefaultPoints(i + 1)})
		}
		return r
	}
	return models.Game{
		GameID:    ReferenceGameID,
		Title:     "Thrice Classic",
		Published: "2024-01-01",
		IsActive:  true,
		Rounds: []models.Round{
			round("Geography", "Paris",
				"What is the capital of France?",
				"Which city is known as the City of Light?",
				"Where is the Eiffel Tower located?"),
			round("History", "Napoleon",
				"Who declared himself Emperor of France in 1804?",
				"Which French leader was exiled to Elba?",
				"Who lost the Battle of Waterloo?"),
			round("Science", "Water",
				"What is H2O commonly known as?",
				"What substance covers about 71% of the Earth's surface?",
				"Which liquid is essential for human survival?"),
			round("Movies", "Titanic",
				"Which movie features a ship hitting an iceberg?",
				"What film starred Leonardo DiCaprio and Kate Winslet in 1997?",
				"What is the name of the luxury liner in a James Cameron film?"),
			round("Sports", "Soccer",
				"Which sport is known as football outside the United States?",
				"In which sport is a goal scored by kicking the ball?",
				"Which game has the FIFA World Cup as its main competition?"),
		},
	}
}

func (s *StaticSource) ListGames(ctx context.Context, opts ListOptions) ([]models.Game, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]models.Game, 0, len(s.games))
	for _, g := range s.games {
		if !Matches(g.Title, opts.Search) {
			continue
		}
		summary := *g
		summary.Rounds = nil
		matched = append(matched, summary)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Published != matched[j].Published {
			return matched[i].Published > matched[j].Published
		}
		return matched[i].GameID > matched[j].GameID
	})

	total := len(matched)
	start := min(max(opts.Offset, 0), total)
	end := total
	if opts.Limit > 0 {
		end = min(start+opts.Limit, total)
	}
	return matched[start:end], total, nil
}

func (s *StaticSource) GetGame(ctx context.Context, id int64) (*models.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneGame(g), nil
}

func (s *StaticSource) GetGameBySlug(ctx context.Context, slug string) (*models.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.games {
		if g.Slug == slug {
			return cloneGame(g), nil
		}
	}
	return nil, ErrNotFound
}

func (s *StaticSource) GetRound(ctx context.Context, roundID int64) (*models.Round, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.games {
		if r, _ := g.RoundByID(roundID); r != nil {
			out := *r
			out.Clues = append([]models.Clue(nil), r.Clues...)
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (s *StaticSource) CreateGame(ctx context.Context, g *models.Game) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	Normalize(g)
	if err := Validate(g); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.games {
		if existing.Slug == g.Slug {
			return ErrAlreadyExists
		}
	}
	if g.GameID == 0 {
		g.GameID = s.nextGame + 1
	}
	if _, taken := s.games[g.GameID]; taken {
		return ErrAlreadyExists
	}
	s.nextGame = max(s.nextGame, g.GameID)
	for i := range g.Rounds {
		r := &g.Rounds[i]
		s.nextRound++
		r.RoundID = s.nextRound
		r.GameID = g.GameID
		for j := range r.Clues {
			s.nextClue++
			r.Clues[j].ClueID = s.nextClue
			r.Clues[j].RoundID = r.RoundID
		}
	}
	s.games[g.GameID] = cloneGame(g)
	return nil
}

func (s *StaticSource) UpdateGame(ctx context.Context, id int64, u GameUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	if !ok {
		return ErrNotFound
	}
	if u.Title != nil {
		newSlug := Slugify(*u.Title)
		for otherID, other := range s.games {
			if otherID != id && other.Slug == newSlug {
				return ErrAlreadyExists
			}
		}
		g.Title = *u.Title
		g.Slug = newSlug
	}
	if u.Published != nil {
		g.Published = *u.Published
	}
	if u.IsActive != nil {
		g.IsActive = *u.IsActive
	}
	return nil
}

func (s *StaticSource) DeleteGame(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[id]; !ok {
		return ErrNotFound
	}
	delete(s.games, id)
	return nil
}

func cloneGame(g *models.Game) *models.Game {
	out := *g
	out.Rounds = make([]models.Round, len(g.Rounds))
	for i, r := range g.Rounds {
		r.Clues = append([]models.Clue(nil), r.Clues...)
		out.Rounds[i] = r
	}
	return &out
}

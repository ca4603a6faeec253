package content

import (
	"context"
	"testing"

	"github.com/jason-s-yu/thrice/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGame(title, published string) models.Game {
	return models.Game{
		Title:     title,
		Published: published,
		IsActive:  true,
		Rounds: []models.Round{{
			Category: "Geo",
			Answer:   " Paris ",
			Clues: []models.Clue{
				{Text: "Capital of France"},
				{Text: "City of Light"},
				{Text: "Eiffel Tower"},
			},
		}},
	}
}

func TestReferenceSource(t *testing.T) {
	ctx := context.Background()
	src := NewReferenceSource()

	g, err := src.GetGame(ctx, ReferenceGameID)
	require.NoError(t, err)
	assert.Equal(t, "thrice-classic", g.Slug)
	require.Len(t, g.Rounds, 5)
	for i, r := range g.Rounds {
		assert.Equal(t, i+1, r.RoundNumber)
		require.Len(t, r.Clues, 3)
		assert.Equal(t, []int{3, 2, 1}, []int{r.Clues[0].Points, r.Clues[1].Points, r.Clues[2].Points})
	}

	r, err := src.GetRound(ctx, g.Rounds[2].RoundID)
	require.NoError(t, err)
	assert.Equal(t, "Water", r.Answer)
}

func TestStaticSourceCreateNormalizes(t *testing.T) {
	ctx := context.Background()
	src := NewStaticSource()

	g := sampleGame("  Friday Quiz ", "2024-02-02")
	require.NoError(t, src.CreateGame(ctx, &g))
	assert.Equal(t, int64(1), g.GameID)
	assert.Equal(t, "friday-quiz", g.Slug)
	assert.Equal(t, "Paris", g.Rounds[0].Answer)
	assert.Equal(t, 1, g.Rounds[0].RoundNumber)
	assert.Equal(t, 2, g.Rounds[0].Clues[1].ClueNumber)
	assert.Equal(t, 1, g.Rounds[0].Clues[2].Points)
	assert.NotZero(t, g.Rounds[0].RoundID)

	got, err := src.GetGameBySlug(ctx, "friday-quiz")
	require.NoError(t, err)
	assert.Equal(t, g, *got)

	dup := sampleGame("Friday Quiz", "2024-02-03")
	assert.ErrorIs(t, src.CreateGame(ctx, &dup), ErrAlreadyExists)
}

func TestStaticSourceCopies(t *testing.T) {
	ctx := context.Background()
	src := NewReferenceSource()

	g, err := src.GetGame(ctx, ReferenceGameID)
	require.NoError(t, err)
	g.Rounds[0].Answer = "changed"
	g.Rounds[0].Clues[0].Text = "changed"

	again, err := src.GetGame(ctx, ReferenceGameID)
	require.NoError(t, err)
	assert.Equal(t, "Paris", again.Rounds[0].Answer)
	assert.NotEqual(t, "changed", again.Rounds[0].Clues[0].Text)
}

func TestStaticSourceListGames(t *testing.T) {
	ctx := context.Background()
	src := NewStaticSource(
		sampleGame("Alpha Night", "2024-01-01"),
		sampleGame("Beta Night", "2024-03-01"),
		sampleGame("Gamma Day", "2024-02-01"),
	)

	games, total, err := src.ListGames(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, games, 3)
	assert.Equal(t, []string{"Beta Night", "Gamma Day", "Alpha Night"},
		[]string{games[0].Title, games[1].Title, games[2].Title})
	assert.Nil(t, games[0].Rounds)

	games, total, err = src.ListGames(ctx, ListOptions{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, games, 1)
	assert.Equal(t, "Gamma Day", games[0].Title)

	games, total, err = src.ListGames(ctx, ListOptions{Search: "NIGHT"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, games, 2)

	games, _, err = src.ListGames(ctx, ListOptions{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, games)
}

func TestStaticSourceUpdateDelete(t *testing.T) {
	ctx := context.Background()
	src := NewStaticSource(sampleGame("One", "2024-01-01"), sampleGame("Two", "2024-01-02"))

	title := "Uno"
	inactive := false
	require.NoError(t, src.UpdateGame(ctx, 1, GameUpdate{Title: &title, IsActive: &inactive}))
	g, err := src.GetGame(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "uno", g.Slug)
	assert.False(t, g.IsActive)

	clash := "Two"
	assert.ErrorIs(t, src.UpdateGame(ctx, 1, GameUpdate{Title: &clash}), ErrAlreadyExists)
	assert.ErrorIs(t, src.UpdateGame(ctx, 99, GameUpdate{Title: &title}), ErrNotFound)

	require.NoError(t, src.DeleteGame(ctx, 1))
	_, err = src.GetGame(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, src.DeleteGame(ctx, 1), ErrNotFound)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(g *models.Game){
		"missing title":    func(g *models.Game) { g.Title = " " },
		"missing answer":   func(g *models.Game) { g.Rounds[0].Answer = "" },
		"no clues":         func(g *models.Game) { g.Rounds[0].Clues = nil },
		"too many clues":   func(g *models.Game) { g.Rounds[0].Clues = append(g.Rounds[0].Clues, models.Clue{Text: "x", Points: 1}) },
		"empty clue":       func(g *models.Game) { g.Rounds[0].Clues[1].Text = "" },
		"rising points":    func(g *models.Game) { g.Rounds[0].Clues[2].Points = 5 },
		"clue number high": func(g *models.Game) { g.Rounds[0].Clues[2].ClueNumber = 4 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			g := sampleGame("Valid", "2024-01-01")
			Normalize(&g)
			mutate(&g)
			assert.Error(t, Validate(&g))
		})
	}

	g := sampleGame("Valid", "2024-01-01")
	Normalize(&g)
	assert.NoError(t, Validate(&g))
}

func TestNormalizeOrdersByNumber(t *testing.T) {
	g := models.Game{
		Title: "Order",
		Rounds: []models.Round{
			{RoundNumber: 2, Answer: "b", Clues: []models.Clue{{Text: "round two"}}},
			{RoundNumber: 1, Answer: "a", Clues: []models.Clue{
				{ClueNumber: 3, Text: "third"},
				{ClueNumber: 1, Text: "first"},
				{ClueNumber: 2, Text: "second"},
			}},
		},
	}
	Normalize(&g)
	require.NoError(t, Validate(&g))

	assert.Equal(t, 1, g.Rounds[0].RoundNumber)
	clues := g.Rounds[0].Clues
	assert.Equal(t, []string{"first", "second", "third"}, []string{clues[0].Text, clues[1].Text, clues[2].Text})
	assert.Equal(t, []int{3, 2, 1}, []int{clues[0].Points, clues[1].Points, clues[2].Points})
}

func TestNormalizeKeepsExplicitPoints(t *testing.T) {
	g := sampleGame("Zero Point Finale", "2024-03-03")
	g.Rounds[0].Clues[0].Points = 5
	g.Rounds[0].Clues[1].Points = 1
	Normalize(&g)
	require.NoError(t, Validate(&g))

	clues := g.Rounds[0].Clues
	assert.Equal(t, []int{5, 1, 0}, []int{clues[0].Points, clues[1].Points, clues[2].Points})
}

func TestValidateClueNumbers(t *testing.T) {
	unsorted := func() models.Game {
		return models.Game{
			Title: "Unsorted",
			Rounds: []models.Round{{
				RoundNumber: 1,
				Answer:      "Paris",
				Clues: []models.Clue{
					{ClueNumber: 2, Text: "City of Light", Points: 3},
					{ClueNumber: 1, Text: "Capital of France", Points: 2},
				},
			}},
		}
	}

	g := unsorted()
	assert.ErrorContains(t, Validate(&g), "points must not increase")
	g = unsorted()
	Normalize(&g)
	assert.ErrorContains(t, Validate(&g), "points must not increase")

	g = unsorted()
	g.Rounds[0].Clues[0].Points = 1
	assert.NoError(t, Validate(&g))

	g = unsorted()
	g.Rounds[0].Clues[1].ClueNumber = 2
	assert.ErrorContains(t, Validate(&g), "duplicate clue number")

	g = unsorted()
	g.Rounds[0].Clues[1].ClueNumber = 0
	assert.ErrorContains(t, Validate(&g), "out of range")

	g = unsorted()
	g.Rounds = append(g.Rounds, g.Rounds[0])
	g.Rounds[0].RoundNumber, g.Rounds[1].RoundNumber = 1, 1
	g.Rounds[0].Clues[0].Points = 1
	assert.ErrorContains(t, Validate(&g), "duplicate round number")
}

func TestStaticSourceRejectsDuplicateClueNumbers(t *testing.T) {
	src := NewStaticSource()
	g := sampleGame("Doubled", "2024-04-04")
	g.Rounds[0].Clues[0].ClueNumber = 2
	g.Rounds[0].Clues[1].ClueNumber = 2
	assert.Error(t, src.CreateGame(context.Background(), &g))
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%%", LikePattern("  "))
	assert.Equal(t, "%thrice%", LikePattern(" Thrice "))
	assert.Equal(t, `%100\% snake\_case c:\\%`, LikePattern(`100% Snake_Case C:\`))
}

package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDump = `Scraping https://thrice.geekswhodrink.com/stats?day=2024-11-30
Round 1: Paris
What is the capital of France? 91%
Which city is known as the City of Light? 64%
Where is the Eiffel Tower located? 40%
Round 2: Napoleon
Who declared himself Emperor of France in 1804? 55%
Who lost the Battle of Waterloo? 33%
Inserting data into database...
`

func TestParseDump(t *testing.T) {
	g, err := ParseDump(strings.NewReader(sampleDump), "2024-11-30")
	require.NoError(t, err)
	assert.Equal(t, "Thrice 2024-11-30", g.Title)
	assert.Equal(t, "thrice-2024-11-30", g.Slug)
	assert.Equal(t, "2024-11-30", g.Published)
	require.Len(t, g.Rounds, 2)

	r := g.Rounds[0]
	assert.Equal(t, "Paris", r.Answer)
	require.Len(t, r.Clues, 3)
	assert.Equal(t, "What is the capital of France?", r.Clues[0].Text)
	assert.Equal(t, 91, r.Clues[0].PercentCorrect)
	assert.Equal(t, []int{3, 2, 1}, []int{r.Clues[0].Points, r.Clues[1].Points, r.Clues[2].Points})

	assert.Len(t, g.Rounds[1].Clues, 2)
	assert.Equal(t, 2, g.Rounds[1].Clues[1].ClueNumber)
}

func TestParseDumpErrors(t *testing.T) {
	_, err := ParseDump(strings.NewReader(sampleDump), "30/11/2024")
	assert.Error(t, err)

	_, err = ParseDump(strings.NewReader("nothing here\n"), "2024-11-30")
	assert.Error(t, err)

	_, err = ParseDump(strings.NewReader("Orphan clue? 10%\n"), "2024-11-30")
	assert.Error(t, err)

	_, err = ParseDump(strings.NewReader("Round 1: Paris\n"), "2024-11-30")
	assert.Error(t, err, "a round without clues is invalid")
}

func TestParseGames(t *testing.T) {
	games, err := ParseGames(strings.NewReader(`{"title":"Solo"}`))
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "Solo", games[0].Title)

	games, err = ParseGames(strings.NewReader(` [{"title":"A"},{"title":"B"}]`))
	require.NoError(t, err)
	assert.Len(t, games, 2)

	_, err = ParseGames(strings.NewReader(`{"title":`))
	assert.Error(t, err)
}

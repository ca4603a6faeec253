package content

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jason-s-yu/thrice/internal/models"
)

var (
	roundLine = regexp.MustCompile(`^Round\s+(\d+):\s*(.+)$`)
	clueLine  = regexp.MustCompile(`^(.*[.?!])\s+(\d+)%$`)
)

// ParseDump reads the per-day listing printed by the scraper:
//
//	Round 1: Paris
//	What is the capital of France? 91%
//	...
//
// Other lines are ignored. The game is titled after the day and published on it.
func ParseDump(r io.Reader, day string) (models.Game, error) {
	if _, err := time.Parse(time.DateOnly, day); err != nil {
		return models.Game{}, fmt.Errorf("day %q: %w", day, err)
	}
	g := models.Game{Title: "Thrice " + day, Published: day, IsActive: true}

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if m := roundLine.FindStringSubmatch(line); m != nil {
			n, _ := strconv.Atoi(m[1])
			g.Rounds = append(g.Rounds, models.Round{RoundNumber: n, Answer: strings.TrimSpace(m[2])})
			continue
		}
		m := clueLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if len(g.Rounds) == 0 {
			return models.Game{}, fmt.Errorf("line %d: clue before any round", lineNo)
		}
		pct, _ := strconv.Atoi(m[2])
		r := &g.Rounds[len(g.Rounds)-1]
		r.Clues = append(r.Clues, models.Clue{Text: strings.TrimSpace(m[1]), PercentCorrect: pct})
	}
	if err := sc.Err(); err != nil {
		return models.Game{}, err
	}
	if len(g.Rounds) == 0 {
		return models.Game{}, fmt.Errorf("no rounds found for %s", day)
	}
	Normalize(&g)
	if err := Validate(&g); err != nil {
		return models.Game{}, err
	}
	return g, nil
}

// ParseGames reads either one game object or an array of games.
func ParseGames(r io.Reader) ([]models.Game, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var games []models.Game
		if err := json.Unmarshal(data, &games); err != nil {
			return nil, fmt.Errorf("decode games: %w", err)
		}
		return games, nil
	}
	var g models.Game
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("decode game: %w", err)
	}
	return []models.Game{g}, nil
}

package search

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundRating(t *testing.T) {
	// 14/3 is the [5 5 4] case.
	assert.Equal(t, 4.67, roundRating(14.0/3.0))
	assert.Equal(t, 0.0, roundRating(0))
	assert.Equal(t, 3.99, roundRating(3.994))
	assert.Equal(t, 4.0, roundRating(3.996))
}

func TestRank(t *testing.T) {
	t.Run("orders by average rating descending", func(t *testing.T) {
		rows := []RankedBook{
			{Title: "Middling", AvgRating: 3.2},
			{Title: "Best", AvgRating: 4.67},
			{Title: "Unreviewed", AvgRating: 0},
		}

		rank(rows)

		assert.Equal(t, "Best", rows[0].Title)
		assert.Equal(t, "Middling", rows[1].Title)
		assert.Equal(t, "Unreviewed", rows[2].Title)
	})

	t.Run("breaks ties by title ascending", func(t *testing.T) {
		rows := []RankedBook{
			{Title: "Beta", AvgRating: 4.0},
			{Title: "Alpha", AvgRating: 4.0},
			{Title: "Gamma", AvgRating: 4.0},
		}

		rank(rows)

		assert.Equal(t, []string{"Alpha", "Beta", "Gamma"},
			[]string{rows[0].Title, rows[1].Title, rows[2].Title})
	})

	t.Run("rounded averages decide ties", func(t *testing.T) {
		rows := []RankedBook{
			{Title: "Later", AvgRating: roundRating(3.9951)},
			{Title: "Earlier", AvgRating: roundRating(4.0049)},
		}

		rank(rows)

		// Both round to 4.00, so the title decides.
		assert.Equal(t, "Earlier", rows[0].Title)
	})
}

func TestTruncate(t *testing.T) {
	var rows []RankedBook
	for i := 0; i < 15; i++ {
		rows = append(rows, RankedBook{
			Title:     fmt.Sprintf("Book %02d", i),
			AvgRating: roundRating(float64(15-i) / 3.0),
		})
	}
	rank(rows)

	t.Run("keeps the first n after ranking", func(t *testing.T) {
		top := truncate(rows, 10)

		assert.Len(t, top, 10)
		assert.Equal(t, 5.0, top[0].AvgRating)
		for i := 1; i < len(top); i++ {
			assert.LessOrEqual(t, top[i].AvgRating, top[i-1].AvgRating)
		}
	})

	t.Run("short input passes through", func(t *testing.T) {
		short := []RankedBook{{Title: "Only"}}
		assert.Len(t, truncate(short, 10), 1)
	})

	t.Run("non-positive n empties the result", func(t *testing.T) {
		assert.Empty(t, truncate(rows, 0))
		assert.Empty(t, truncate(rows, -3))
	})
}

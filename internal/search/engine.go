package search

import (
	"context"
	"math"
	"sort"
)

// Filters are AND-combined; zero values mean "no constraint". MinRating
// applies to the rounded average rating, after aggregation.
type Filters struct {
	SearchTerm string
	AuthorName string
	GenreName  string
	MinPrice   *float64
	MaxPrice   *float64
	MinRating  *float64
}

type RankedBook struct {
	Id        string   `json:"id"`
	Title     string   `json:"title"`
	Price     float64  `json:"price"`
	Authors   []string `json:"authors"`
	Genres    []string `json:"genres"`
	AvgRating float64  `json:"average_rating"`
}

// Engine evaluates filters over the catalog and ranks the result. It
// performs no writes and is safe for unbounded concurrent use.
type Engine interface {
	Search(ctx context.Context, f Filters) ([]RankedBook, error)
	// TopN ranks the whole catalog and keeps the first n entries.
	TopN(ctx context.Context, n int) ([]RankedBook, error)
}

// roundRating rounds to 2 decimal places; a book with no reviews has
// average rating exactly 0.
func roundRating(avg float64) float64 {
	return math.Round(avg*100) / 100
}

// rank applies the ordering policy: average rating descending, ties
// broken by title ascending.
func rank(rows []RankedBook) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].AvgRating != rows[j].AvgRating {
			return rows[i].AvgRating > rows[j].AvgRating
		}
		return rows[i].Title < rows[j].Title
	})
}

// truncate keeps the first n entries of an already ranked slice.
func truncate(rows []RankedBook, n int) []RankedBook {
	if n < 0 {
		n = 0
	}
	if len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

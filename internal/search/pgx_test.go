package search

import (
	"strings"
	"testing"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchQuery(t *testing.T) {
	g := goqu.Dialect("postgres")

	t.Run("min rating filters after aggregation", func(t *testing.T) {
		min := 4.0

		sql, _, err := searchQuery(g, Filters{MinRating: &min}).ToSQL()
		require.NoError(t, err)

		groupAt := strings.Index(sql, "GROUP BY")
		havingAt := strings.Index(sql, "HAVING")
		require.GreaterOrEqual(t, groupAt, 0)
		require.GreaterOrEqual(t, havingAt, 0)
		assert.Greater(t, havingAt, groupAt)

		// The predicate compares the rounded average, not raw ratings.
		having := sql[havingAt:]
		assert.Contains(t, having, "avg(review.rating)")
		assert.Contains(t, having, "round(")
		assert.Contains(t, having, ">= 4")
	})

	t.Run("no min rating means no having clause", func(t *testing.T) {
		sql, _, err := searchQuery(g, Filters{}).ToSQL()
		require.NoError(t, err)

		assert.NotContains(t, sql, "HAVING")
		assert.Contains(t, sql, "GROUP BY")
	})

	t.Run("price bounds stay in the where clause", func(t *testing.T) {
		min, max := 5.0, 20.0

		sql, _, err := searchQuery(g, Filters{MinPrice: &min, MaxPrice: &max}).ToSQL()
		require.NoError(t, err)

		whereAt := strings.Index(sql, "WHERE")
		groupAt := strings.Index(sql, "GROUP BY")
		require.GreaterOrEqual(t, whereAt, 0)
		require.GreaterOrEqual(t, groupAt, 0)
		assert.Greater(t, groupAt, whereAt)
		assert.NotContains(t, sql, "HAVING")
	})

	t.Run("search term escapes like metacharacters", func(t *testing.T) {
		sql, _, err := searchQuery(g, Filters{SearchTerm: "100%_sure"}).ToSQL()
		require.NoError(t, err)

		assert.Contains(t, sql, "ILIKE")
		assert.Contains(t, sql, `\%`)
		assert.Contains(t, sql, `\_`)
	})
}

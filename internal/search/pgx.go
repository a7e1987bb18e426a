package search

import (
	"context"
	"log/slog"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	subAuthorNames = goqu.Select(goqu.L("array_agg(author.name)")).
			From("book_author").
			Join(goqu.T("author"), goqu.On(
			goqu.C("id").Table("author").
				Eq(goqu.C("author_id")),
		)).
		Where(goqu.C("book_id").Eq(goqu.C("id").Table("book")))
	subGenreTitles = goqu.Select(goqu.L("array_agg(genre.title order by genre.title)")).
			From("book_genre").
			Join(goqu.T("genre"), goqu.On(
			goqu.C("id").Table("genre").
				Eq(goqu.C("genre_id")),
		)).
		Where(goqu.C("book_id").Eq(goqu.C("id").Table("book")))
	exprAvgRating = goqu.L("round(coalesce(avg(review.rating), 0)::numeric, 2)::float8")
)

func NewPGXEngine(pg *pgxpool.Pool, l *slog.Logger) Engine {
	return &pgxEngine{pg: pg, g: goqu.Dialect("postgres"), l: l}
}

type pgxEngine struct {
	pg *pgxpool.Pool
	g  goqu.DialectWrapper
	l  *slog.Logger
}

type pgxRanked struct {
	Id        string   `db:"id"`
	Title     string   `db:"title"`
	Price     float64  `db:"price"`
	Authors   []string `db:"authors"`
	Genres    []string `db:"genres"`
	AvgRating float64  `db:"avg_rating"`
}

// searchQuery builds the filter+aggregate query. The MinRating predicate
// goes into HAVING so it applies to the rounded post-aggregate average.
func searchQuery(g goqu.DialectWrapper, f Filters) *goqu.SelectDataset {
	qb := g.From("book").
		Select(goqu.C("id").Table("book"), goqu.C("title"), goqu.C("price"),
			subAuthorNames.As("authors"),
			subGenreTitles.As("genres"),
			exprAvgRating.As("avg_rating")).
		LeftJoin(goqu.T("review"), goqu.On(
			goqu.C("book_id").Table("review").
				Eq(goqu.C("id").Table("book")),
		)).
		GroupBy(goqu.C("id").Table("book"), goqu.C("title"), goqu.C("price"))

	if term := escapeLike(f.SearchTerm); term != "" {
		qb = qb.Where(goqu.C("title").ILike("%" + term + "%"))
	}

	if name := escapeLike(f.AuthorName); name != "" {
		qb = qb.Where(goqu.C("id").Table("book").In(
			goqu.Select("book_id").
				From("book_author").
				Join(goqu.T("author"), goqu.On(
					goqu.C("id").Table("author").
						Eq(goqu.C("author_id")),
				)).
				Where(goqu.C("name").ILike("%" + name + "%")),
		))
	}

	if name := escapeLike(f.GenreName); name != "" {
		qb = qb.Where(goqu.C("id").Table("book").In(
			goqu.Select("book_id").
				From("book_genre").
				Join(goqu.T("genre"), goqu.On(
					goqu.C("id").Table("genre").
						Eq(goqu.C("genre_id")),
				)).
				Where(goqu.C("title").Table("genre").ILike("%" + name + "%")),
		))
	}

	if f.MinPrice != nil {
		qb = qb.Where(goqu.C("price").Gte(*f.MinPrice))
	}

	if f.MaxPrice != nil {
		qb = qb.Where(goqu.C("price").Lte(*f.MaxPrice))
	}

	// Applied after aggregation: a 3.99 average fails a 4.0 minimum.
	if f.MinRating != nil {
		qb = qb.Having(exprAvgRating.Gte(*f.MinRating))
	}

	return qb
}

func (p *pgxEngine) Search(ctx context.Context, f Filters) ([]RankedBook, error) {
	sql, params, err := searchQuery(p.g, f).ToSQL()
	if err != nil {
		return nil, err
	}

	var rows []pgxRanked

	err = pgxscan.Select(ctx, p.pg, &rows, sql, params...)
	if err != nil {
		return nil, err
	}

	ret := make([]RankedBook, 0, len(rows))
	for _, row := range rows {
		authors := row.Authors
		if authors == nil {
			authors = make([]string, 0)
		}
		genres := row.Genres
		if genres == nil {
			genres = make([]string, 0)
		}

		ret = append(ret, RankedBook{
			Id:        row.Id,
			Title:     row.Title,
			Price:     row.Price,
			Authors:   authors,
			Genres:    genres,
			AvgRating: roundRating(row.AvgRating),
		})
	}

	rank(ret)

	return ret, nil
}

func (p *pgxEngine) TopN(ctx context.Context, n int) ([]RankedBook, error) {
	rows, err := p.Search(ctx, Filters{})
	if err != nil {
		return nil, err
	}

	return truncate(rows, n), nil
}

func escapeLike(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(strings.ReplaceAll(strings.TrimSpace(s),
		"\\", "\\\\"),
		"_", "\\_"),
		"%", "\\%")
}

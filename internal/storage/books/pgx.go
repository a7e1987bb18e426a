package books

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookstore/internal/types"
)

var (
	subAuthors = goqu.Select(goqu.L("array_agg(author_id)")).
			From("book_author").
			Where(goqu.C("book_id").Eq(goqu.C("id").Table("book")))
	subGenres = goqu.Select(goqu.L("array_agg(genre.title order by genre.title)")).
			From("book_genre").
			Join(goqu.T("genre"), goqu.On(
			goqu.C("id").Table("genre").
				Eq(goqu.C("genre_id")),
		)).
		Where(goqu.C("book_id").Eq(goqu.C("id").Table("book")))
)

func NewPGXRepository(pg *pgxpool.Pool, l *slog.Logger) Repository {
	return &pgxRepo{pg: pg, g: goqu.Dialect("postgres"), l: l}
}

type pgxRepo struct {
	pg *pgxpool.Pool
	g  goqu.DialectWrapper
	l  *slog.Logger
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so the insert
// helpers below serve the CRUD path and the transactional import commit.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type pgxBook struct {
	Id    string  `db:"id"`
	Title string  `db:"title"`
	Price float64 `db:"price"`
}

type pgxBookFull struct {
	Base      pgxBook  `db:""` // follow
	AuthorIds []string `db:"authors"`
	Genres    []string `db:"genres"`
}

func (b *pgxBookFull) intoCommon() *types.Book {
	return &types.Book{
		Id:      b.Base.Id,
		Title:   b.Base.Title,
		Price:   b.Base.Price,
		Authors: b.AuthorIds,
		Genres:  b.Genres,
	}
}

func (p *pgxRepo) GetById(ctx context.Context, id string) (*types.Book, error) {
	sql, params, err := p.g.From("book").
		Select("id", "title", "price",
			subAuthors.As("authors"),
			subGenres.As("genres")).
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return nil, err
	}

	var row pgxBookFull

	err = pgxscan.Get(ctx, p.pg, &row, sql, params...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = nil
		}
		return nil, err
	}

	return row.intoCommon(), nil
}

func (p *pgxRepo) GetAll(ctx context.Context) ([]*types.Book, error) {
	sql, params, err := p.g.From("book").
		Select("id", "title", "price",
			subAuthors.As("authors"),
			subGenres.As("genres")).
		Order(goqu.C("title").Asc()).
		ToSQL()
	if err != nil {
		return nil, err
	}

	var rows []pgxBookFull

	err = pgxscan.Select(ctx, p.pg, &rows, sql, params...)
	if err != nil {
		return nil, err
	}

	ret := make([]*types.Book, 0, len(rows))
	for _, row := range rows {
		ret = append(ret, row.intoCommon())
	}

	return ret, nil
}

func (p *pgxRepo) Create(ctx context.Context, book *types.Book, authorIds []string, genreIds []uint16) error {
	tx, err := p.pg.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := p.insertBooks(ctx, tx, book); err != nil {
		return err
	}

	if err := p.linkAuthors(ctx, tx, book.Id, authorIds); err != nil {
		return err
	}

	if err := p.linkGenres(ctx, tx, book.Id, genreIds); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (p *pgxRepo) UpdatePrice(ctx context.Context, id string, price float64) (bool, error) {
	sql, params, err := p.g.Update("book").
		Set(goqu.Record{"price": price}).
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return false, err
	}

	tag, err := p.pg.Exec(ctx, sql, params...)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}

func (p *pgxRepo) Delete(ctx context.Context, id string) (bool, error) {
	sql, params, err := p.g.Delete("book").
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return false, err
	}

	tag, err := p.pg.Exec(ctx, sql, params...)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}

func (p *pgxRepo) SetAuthors(ctx context.Context, bookId string, authorIds ...string) error {
	return p.linkAuthors(ctx, p.pg, bookId, authorIds)
}

func (p *pgxRepo) SetGenres(ctx context.Context, bookId string, genreIds ...uint16) error {
	return p.linkGenres(ctx, p.pg, bookId, genreIds)
}

func (p *pgxRepo) FoldedTitles(ctx context.Context) (map[string]struct{}, error) {
	sql, params, err := p.g.From("book").
		Select(goqu.L("lower(trim(title))")).
		ToSQL()
	if err != nil {
		return nil, err
	}

	var rows []string

	err = pgxscan.Select(ctx, p.pg, &rows, sql, params...)
	if err != nil {
		return nil, err
	}

	ret := make(map[string]struct{}, len(rows))
	for _, title := range rows {
		ret[title] = struct{}{}
	}

	return ret, nil
}

func (p *pgxRepo) CommitImport(ctx context.Context, batch *ImportBatch) error {
	if len(batch.Books) == 0 {
		return nil
	}

	tx, err := p.pg.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning import transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := p.insertAuthors(ctx, tx, batch.NewAuthors); err != nil {
		return fmt.Errorf("inserting new authors: %w", err)
	}

	genreIds, err := p.insertGenres(ctx, tx, batch)
	if err != nil {
		return fmt.Errorf("inserting new genres: %w", err)
	}

	if err := p.insertBooks(ctx, tx, batch.Books...); err != nil {
		return fmt.Errorf("inserting books: %w", err)
	}

	for _, book := range batch.Books {
		if err := p.linkAuthors(ctx, tx, book.Id, book.Authors); err != nil {
			return fmt.Errorf("linking book and authors: %w", err)
		}

		var bookGenres []uint16
		for _, title := range book.Genres {
			genreId, ok := genreIds[strings.ToLower(title)]
			if !ok {
				// Resolver guarantees presence; a miss means the title
				// was dropped from the batch, so the link is skipped.
				continue
			}
			bookGenres = append(bookGenres, genreId)
		}

		if err := p.linkGenres(ctx, tx, book.Id, bookGenres); err != nil {
			return fmt.Errorf("linking book and genres: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (p *pgxRepo) insertBooks(ctx context.Context, db querier, books ...*types.Book) error {
	if len(books) == 0 {
		return nil
	}

	rows := make([]any, 0, len(books))
	for _, book := range books {
		rows = append(rows, pgxBook{
			Id:    book.Id,
			Title: book.Title,
			Price: book.Price,
		})
	}

	sql, params, err := p.g.Insert("book").
		Rows(rows...).
		ToSQL()
	if err != nil {
		return err
	}

	_, err = db.Exec(ctx, sql, params...)
	return err
}

func (p *pgxRepo) insertAuthors(ctx context.Context, db querier, authors []*types.Author) error {
	if len(authors) == 0 {
		return nil
	}

	vals := make([][]any, 0, len(authors))
	for _, author := range authors {
		vals = append(vals, []any{author.Id, author.Name, author.BirthYear})
	}

	sql, params, err := p.g.Insert("author").
		Cols("id", "name", "birth_year").
		Vals(vals...).
		ToSQL()
	if err != nil {
		return err
	}

	_, err = db.Exec(ctx, sql, params...)
	return err
}

// insertGenres creates the batch's pending genre titles and returns ids
// for every genre title referenced by the batch's books, keyed by
// lowercased title.
func (p *pgxRepo) insertGenres(ctx context.Context, db querier, batch *ImportBatch) (map[string]uint16, error) {
	if len(batch.NewGenreTitles) > 0 {
		vals := make([][]any, 0, len(batch.NewGenreTitles))
		for _, title := range batch.NewGenreTitles {
			vals = append(vals, []any{title})
		}

		sql, params, err := p.g.Insert("genre").
			Cols("title").
			Vals(vals...).
			OnConflict(goqu.DoNothing()).
			ToSQL()
		if err != nil {
			return nil, err
		}

		if _, err := db.Exec(ctx, sql, params...); err != nil {
			return nil, err
		}
	}

	var folded []string
	seen := make(map[string]struct{})
	for _, book := range batch.Books {
		for _, title := range book.Genres {
			lower := strings.ToLower(title)
			if _, ok := seen[lower]; ok {
				continue
			}
			seen[lower] = struct{}{}
			folded = append(folded, lower)
		}
	}

	if len(folded) == 0 {
		return nil, nil
	}

	sql, params, err := p.g.From("genre").
		Select("id", goqu.L("lower(title)").As("title")).
		Where(goqu.L("lower(title)").In(folded)).
		ToSQL()
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Id    uint16 `db:"id"`
		Title string `db:"title"`
	}

	err = pgxscan.Select(ctx, db, &rows, sql, params...)
	if err != nil {
		return nil, err
	}

	ret := make(map[string]uint16, len(rows))
	for _, row := range rows {
		ret[row.Title] = row.Id
	}

	return ret, nil
}

func (p *pgxRepo) linkAuthors(ctx context.Context, db querier, bookId string, authorIds []string) error {
	sql, params, err := p.g.Delete("book_author").
		Where(goqu.C("book_id").Eq(bookId)).
		ToSQL()
	if err != nil {
		return err
	}

	_, err = db.Exec(ctx, sql, params...)
	if err != nil {
		return err
	}

	if len(authorIds) == 0 {
		return nil
	}

	type row struct {
		BookId   string `db:"book_id"`
		AuthorId string `db:"author_id"`
	}

	rows := make([]any, 0, len(authorIds))
	for _, authorId := range authorIds {
		rows = append(rows, row{BookId: bookId, AuthorId: authorId})
	}

	sql, params, err = p.g.Insert("book_author").
		Rows(rows...).
		ToSQL()
	if err != nil {
		return err
	}

	_, err = db.Exec(ctx, sql, params...)
	return err
}

func (p *pgxRepo) linkGenres(ctx context.Context, db querier, bookId string, genreIds []uint16) error {
	sql, params, err := p.g.Delete("book_genre").
		Where(goqu.C("book_id").Eq(bookId)).
		ToSQL()
	if err != nil {
		return err
	}

	_, err = db.Exec(ctx, sql, params...)
	if err != nil {
		return err
	}

	if len(genreIds) == 0 {
		return nil
	}

	type row struct {
		BookId  string `db:"book_id"`
		GenreId uint16 `db:"genre_id"`
	}

	rows := make([]any, 0, len(genreIds))
	for _, genreId := range genreIds {
		rows = append(rows, row{BookId: bookId, GenreId: genreId})
	}

	sql, params, err = p.g.Insert("book_genre").
		Rows(rows...).
		ToSQL()
	if err != nil {
		return err
	}

	_, err = db.Exec(ctx, sql, params...)
	return err
}

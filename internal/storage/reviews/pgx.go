package reviews

import (
	"context"
	"errors"
	"log/slog"

	"github.com/doug-martin/goqu/v9"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookstore/internal/types"
)

func NewPGXRepository(pg *pgxpool.Pool, l *slog.Logger) Repository {
	return &pgxRepo{pg: pg, g: goqu.Dialect("postgres"), l: l}
}

type pgxRepo struct {
	pg *pgxpool.Pool
	g  goqu.DialectWrapper
	l  *slog.Logger
}

type pgxReview struct {
	Id          string `db:"id"`
	BookId      string `db:"book_id"`
	Description string `db:"description"`
	Rating      int    `db:"rating"`
}

func (r *pgxReview) intoCommon() *types.Review {
	return &types.Review{
		Id:          r.Id,
		BookId:      r.BookId,
		Description: r.Description,
		Rating:      r.Rating,
	}
}

func (p *pgxRepo) GetById(ctx context.Context, id string) (*types.Review, error) {
	sql, params, err := p.g.From("review").
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return nil, err
	}

	var row pgxReview

	err = pgxscan.Get(ctx, p.pg, &row, sql, params...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = nil
		}
		return nil, err
	}

	return row.intoCommon(), nil
}

func (p *pgxRepo) GetByBookId(ctx context.Context, bookId string) ([]*types.Review, error) {
	sql, params, err := p.g.From("review").
		Where(goqu.C("book_id").Eq(bookId)).
		ToSQL()
	if err != nil {
		return nil, err
	}

	var rows []pgxReview

	err = pgxscan.Select(ctx, p.pg, &rows, sql, params...)
	if err != nil {
		return nil, err
	}

	ret := make([]*types.Review, 0, len(rows))
	for _, row := range rows {
		ret = append(ret, row.intoCommon())
	}

	return ret, nil
}

func (p *pgxRepo) Create(ctx context.Context, review *types.Review) error {
	sql, params, err := p.g.Insert("review").
		Rows(pgxReview{
			Id:          review.Id,
			BookId:      review.BookId,
			Description: review.Description,
			Rating:      review.Rating,
		}).
		ToSQL()
	if err != nil {
		return err
	}

	_, err = p.pg.Exec(ctx, sql, params...)
	return err
}

func (p *pgxRepo) Update(ctx context.Context, id string, description string, rating int) (bool, error) {
	sql, params, err := p.g.Update("review").
		Set(goqu.Record{"description": description, "rating": rating}).
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
	sql, params, err := p.g.Delete("review").
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

package genres

import (
	"context"
	"errors"
	"log/slog"
	"strings"

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

type pgxGenre struct {
	Id    uint16 `db:"id"`
	Title string `db:"title"`
}

func (p *pgxRepo) GetById(ctx context.Context, id uint16) (*types.Genre, error) {
	sql, params, err := p.g.From("genre").
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return nil, err
	}

	var row pgxGenre

	err = pgxscan.Get(ctx, p.pg, &row, sql, params...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = nil
		}
		return nil, err
	}

	return &types.Genre{Id: row.Id, Title: row.Title}, nil
}

func (p *pgxRepo) GetAll(ctx context.Context) ([]*types.Genre, error) {
	sql, params, err := p.g.From("genre").
		Order(goqu.C("title").Asc()).
		ToSQL()
	if err != nil {
		return nil, err
	}

	var rows []pgxGenre

	err = pgxscan.Select(ctx, p.pg, &rows, sql, params...)
	if err != nil {
		return nil, err
	}

	ret := make([]*types.Genre, 0, len(rows))
	for _, row := range rows {
		ret = append(ret, &types.Genre{Id: row.Id, Title: row.Title})
	}

	return ret, nil
}

func (p *pgxRepo) GetIdByTitles(ctx context.Context, titles ...string) (map[string]uint16, error) {
	if len(titles) == 0 {
		return make(map[string]uint16), nil
	}

	lowerTitles := make([]string, 0, len(titles))
	for _, title := range titles {
		lowerTitles = append(lowerTitles, strings.ToLower(title))
	}

	sql, params, err := p.g.From("genre").
		Where(goqu.L("lower(title)").In(lowerTitles)).
		ToSQL()
	if err != nil {
		return nil, err
	}

	var rows []pgxGenre

	err = pgxscan.Select(ctx, p.pg, &rows, sql, params...)
	if err != nil {
		return nil, err
	}

	ret := make(map[string]uint16, len(rows))
	for _, row := range rows {
		ret[strings.ToLower(row.Title)] = row.Id
	}

	return ret, nil
}

func (p *pgxRepo) Insert(ctx context.Context, titles ...string) (map[string]uint16, error) {
	if len(titles) == 0 {
		return make(map[string]uint16), nil
	}

	vals := make([][]any, 0, len(titles))
	for _, title := range titles {
		vals = append(vals, []any{title})
	}

	sql, params, err := p.g.Insert("genre").
		Cols("title").
		Vals(vals...).
		OnConflict(goqu.DoNothing()).
		Returning("id", "title").
		ToSQL()
	if err != nil {
		return nil, err
	}

	rows := make([]pgxGenre, 0, len(titles))

	err = pgxscan.Select(ctx, p.pg, &rows, sql, params...)
	if err != nil {
		return nil, err
	}

	ret := make(map[string]uint16, len(titles))
	for _, row := range rows {
		ret[strings.ToLower(row.Title)] = row.Id
	}

	// Rows dropped by the conflict clause return nothing, fetch them.
	var missingTitles []string
	for _, title := range titles {
		if _, ok := ret[strings.ToLower(title)]; !ok {
			missingTitles = append(missingTitles, title)
		}
	}

	if len(missingTitles) > 0 {
		moreIds, err := p.GetIdByTitles(ctx, missingTitles...)
		if err != nil {
			return nil, err
		}

		for title, id := range moreIds {
			ret[title] = id
		}
	}

	return ret, nil
}

func (p *pgxRepo) Update(ctx context.Context, id uint16, title string) (bool, error) {
	sql, params, err := p.g.Update("genre").
		Set(goqu.Record{"title": title}).
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

func (p *pgxRepo) Delete(ctx context.Context, id uint16) (bool, error) {
	sql, params, err := p.g.Delete("genre").
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

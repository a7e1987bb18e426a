package runs

import (
	"context"
	"log/slog"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewPGXRepository(pg *pgxpool.Pool, l *slog.Logger) Repository {
	return &pgxRepo{pg: pg, g: goqu.Dialect("postgres"), l: l}
}

type pgxRepo struct {
	pg *pgxpool.Pool
	g  goqu.DialectWrapper
	l  *slog.Logger
}

type pgxRecord struct {
	Id         uint64    `db:"id"`
	StartedAt  time.Time `db:"started_at"`
	FinishedAt time.Time `db:"finished_at"`
	Added      int       `db:"added"`
	Error      string    `db:"error"`
}

func (p *pgxRepo) Save(ctx context.Context, rec *Record) error {
	sql, params, err := p.g.Insert("import_run").
		Cols("started_at", "finished_at", "added", "error").
		Vals([]any{rec.StartedAt, rec.FinishedAt, rec.Added, rec.Error}).
		ToSQL()
	if err != nil {
		return err
	}

	_, err = p.pg.Exec(ctx, sql, params...)
	return err
}

func (p *pgxRepo) Recent(ctx context.Context, limit uint) ([]*Record, error) {
	sql, params, err := p.g.From("import_run").
		Order(goqu.C("started_at").Desc()).
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, err
	}

	var rows []pgxRecord

	err = pgxscan.Select(ctx, p.pg, &rows, sql, params...)
	if err != nil {
		return nil, err
	}

	ret := make([]*Record, 0, len(rows))
	for _, row := range rows {
		ret = append(ret, &Record{
			Id:         row.Id,
			StartedAt:  row.StartedAt,
			FinishedAt: row.FinishedAt,
			Added:      row.Added,
			Error:      row.Error,
		})
	}

	return ret, nil
}

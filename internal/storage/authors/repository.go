package authors

import (
	"context"

	"bookstore/internal/types"
)

type Repository interface {
	GetById(ctx context.Context, id string) (*types.Author, error)
	// GetByIds shall return map with NON-NULLS!
	GetByIds(ctx context.Context, ids ...string) (map[string]*types.Author, error)
	GetAll(ctx context.Context) ([]*types.Author, error)

	// GetByNames matches case-insensitively; the result is keyed by
	// lowercased name, one entry per matched row.
	GetByNames(ctx context.Context, names ...string) (map[string]*types.Author, error)

	Save(ctx context.Context, authors ...*types.Author) error
	Delete(ctx context.Context, id string) (bool, error)
}

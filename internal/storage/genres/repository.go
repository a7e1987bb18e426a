package genres

import (
	"context"

	"bookstore/internal/types"
)

type Repository interface {
	GetById(ctx context.Context, id uint16) (*types.Genre, error)
	GetAll(ctx context.Context) ([]*types.Genre, error)

	// GetIdByTitles matches case-insensitively; the result is keyed by
	// lowercased title.
	GetIdByTitles(ctx context.Context, titles ...string) (map[string]uint16, error)

	Insert(ctx context.Context, titles ...string) (map[string]uint16, error)
	Update(ctx context.Context, id uint16, title string) (bool, error)
	Delete(ctx context.Context, id uint16) (bool, error)
}

package reviews

import (
	"context"

	"bookstore/internal/types"
)

type Repository interface {
	GetById(ctx context.Context, id string) (*types.Review, error)
	GetByBookId(ctx context.Context, bookId string) ([]*types.Review, error)

	Create(ctx context.Context, review *types.Review) error
	Update(ctx context.Context, id string, description string, rating int) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

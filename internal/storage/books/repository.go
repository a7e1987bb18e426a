package books

import (
	"context"

	"bookstore/internal/types"
)

// ImportBatch is the unit persisted by one import run. Books carry
// pre-assigned ids, author ids in Authors and genre titles in Genres.
// NewAuthors and NewGenreTitles were produced by name resolution and do
// not exist in the store until CommitImport succeeds.
type ImportBatch struct {
	Books          []*types.Book
	NewAuthors     []*types.Author
	NewGenreTitles []string
}

type Repository interface {
	GetById(ctx context.Context, id string) (*types.Book, error)
	GetAll(ctx context.Context) ([]*types.Book, error)

	Create(ctx context.Context, book *types.Book, authorIds []string, genreIds []uint16) error
	UpdatePrice(ctx context.Context, id string, price float64) (bool, error)
	// Delete removes the book; its reviews and join rows go with it.
	Delete(ctx context.Context, id string) (bool, error)

	SetAuthors(ctx context.Context, bookId string, authorIds ...string) error
	SetGenres(ctx context.Context, bookId string, genreIds ...uint16) error

	// FoldedTitles returns the set of every stored title after trimming
	// and lowercasing. It is the dedup key of the import pipeline.
	FoldedTitles(ctx context.Context) (map[string]struct{}, error)

	// CommitImport persists the whole batch in a single transaction:
	// either every book, author, genre and join row lands, or none do.
	CommitImport(ctx context.Context, batch *ImportBatch) error
}

package importer

import (
	"context"

	"github.com/stretchr/testify/mock"

	"bookstore/internal/storage/books"
	"bookstore/internal/types"
)

type mockFeed struct {
	mock.Mock
}

func (m *mockFeed) FetchAll(ctx context.Context) ([]types.ImportRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.ImportRecord), args.Error(1)
}

type mockBooks struct {
	mock.Mock
}

func (m *mockBooks) GetById(ctx context.Context, id string) (*types.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Book), args.Error(1)
}

func (m *mockBooks) GetAll(ctx context.Context) ([]*types.Book, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.Book), args.Error(1)
}

func (m *mockBooks) Create(ctx context.Context, book *types.Book, authorIds []string, genreIds []uint16) error {
	args := m.Called(ctx, book, authorIds, genreIds)
	return args.Error(0)
}

func (m *mockBooks) UpdatePrice(ctx context.Context, id string, price float64) (bool, error) {
	args := m.Called(ctx, id, price)
	return args.Bool(0), args.Error(1)
}

func (m *mockBooks) Delete(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockBooks) SetAuthors(ctx context.Context, bookId string, authorIds ...string) error {
	args := m.Called(ctx, bookId, authorIds)
	return args.Error(0)
}

func (m *mockBooks) SetGenres(ctx context.Context, bookId string, genreIds ...uint16) error {
	args := m.Called(ctx, bookId, genreIds)
	return args.Error(0)
}

func (m *mockBooks) FoldedTitles(ctx context.Context) (map[string]struct{}, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]struct{}), args.Error(1)
}

func (m *mockBooks) CommitImport(ctx context.Context, batch *books.ImportBatch) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

type mockAuthors struct {
	mock.Mock
}

func (m *mockAuthors) GetById(ctx context.Context, id string) (*types.Author, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Author), args.Error(1)
}

func (m *mockAuthors) GetByIds(ctx context.Context, ids ...string) (map[string]*types.Author, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*types.Author), args.Error(1)
}

func (m *mockAuthors) GetAll(ctx context.Context) ([]*types.Author, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.Author), args.Error(1)
}

func (m *mockAuthors) GetByNames(ctx context.Context, names ...string) (map[string]*types.Author, error) {
	args := m.Called(ctx, names)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*types.Author), args.Error(1)
}

func (m *mockAuthors) Save(ctx context.Context, authors ...*types.Author) error {
	args := m.Called(ctx, authors)
	return args.Error(0)
}

func (m *mockAuthors) Delete(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type mockGenres struct {
	mock.Mock
}

func (m *mockGenres) GetById(ctx context.Context, id uint16) (*types.Genre, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Genre), args.Error(1)
}

func (m *mockGenres) GetAll(ctx context.Context) ([]*types.Genre, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.Genre), args.Error(1)
}

func (m *mockGenres) GetIdByTitles(ctx context.Context, titles ...string) (map[string]uint16, error) {
	args := m.Called(ctx, titles)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]uint16), args.Error(1)
}

func (m *mockGenres) Insert(ctx context.Context, titles ...string) (map[string]uint16, error) {
	args := m.Called(ctx, titles)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]uint16), args.Error(1)
}

func (m *mockGenres) Update(ctx context.Context, id uint16, title string) (bool, error) {
	args := m.Called(ctx, id, title)
	return args.Bool(0), args.Error(1)
}

func (m *mockGenres) Delete(ctx context.Context, id uint16) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

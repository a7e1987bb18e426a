package importer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"bookstore/internal/feed"
	"bookstore/internal/storage/books"
	"bookstore/internal/types"
)

// Pipeline runs one import: fetch the whole feed, drop records whose
// folded title already exists in the catalog, resolve author and genre
// names, and commit everything new in a single transaction. Any failure
// aborts the run with nothing committed; retrying is the caller's call.
//
// A Pipeline holds no state between runs, but runs must not overlap; the
// scheduler owns that guarantee.
type Pipeline struct {
	Feed     feed.Feed
	Books    books.Repository
	Resolver *Resolver
	Logger   *slog.Logger
}

// ImportBooks returns the number of books actually added, 0 when the
// feed was empty or contained only duplicates.
func (p *Pipeline) ImportBooks(ctx context.Context) (int, error) {
	p.Logger.Info("Starting book import")

	records, err := p.Feed.FetchAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetching import records: %w", err)
	}

	existing, err := p.Books.FoldedTitles(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading existing titles: %w", err)
	}

	// First occurrence of a folded title wins, within the feed too.
	var fresh []types.ImportRecord
	for _, rec := range records {
		folded := fold(rec.Title)
		if folded == "" {
			continue
		}
		if _, ok := existing[folded]; ok {
			continue
		}
		existing[folded] = struct{}{}
		fresh = append(fresh, rec)
	}

	if skipped := len(records) - len(fresh); skipped > 0 {
		p.Logger.Info(fmt.Sprintf("Skipping %d duplicate records, importing %d new books", skipped, len(fresh)))
	}

	if len(fresh) == 0 {
		p.Logger.Info("No new books to import")
		return 0, nil
	}

	authorNames := distinctNames(fresh, func(rec types.ImportRecord) []string { return rec.AuthorNames })
	genreNames := distinctNames(fresh, func(rec types.ImportRecord) []string { return rec.GenreNames })

	var (
		authorsByName map[string]*types.Author
		newAuthors    []*types.Author
		genresByName  map[string]string
		newGenres     []string
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		authorsByName, newAuthors, err = p.Resolver.ResolveAuthors(egCtx, authorNames)
		return err
	})
	eg.Go(func() error {
		var err error
		genresByName, newGenres, err = p.Resolver.ResolveGenres(egCtx, genreNames)
		return err
	})
	if err := eg.Wait(); err != nil {
		return 0, err
	}

	batch := &books.ImportBatch{
		NewAuthors:     newAuthors,
		NewGenreTitles: newGenres,
	}

	for _, rec := range fresh {
		book := &types.Book{
			Id:    uuid.NewString(),
			Title: strings.TrimSpace(rec.Title),
			Price: rec.Price,
		}

		seenAuthors := make(map[string]struct{}, len(rec.AuthorNames))
		for _, name := range rec.AuthorNames {
			author, ok := authorsByName[fold(name)]
			if !ok {
				continue
			}
			if _, ok := seenAuthors[author.Id]; ok {
				continue
			}
			seenAuthors[author.Id] = struct{}{}
			book.Authors = append(book.Authors, author.Id)
		}

		seenGenres := make(map[string]struct{}, len(rec.GenreNames))
		for _, name := range rec.GenreNames {
			title, ok := genresByName[fold(name)]
			if !ok {
				continue
			}
			if _, ok := seenGenres[fold(title)]; ok {
				continue
			}
			seenGenres[fold(title)] = struct{}{}
			book.Genres = append(book.Genres, title)
		}

		batch.Books = append(batch.Books, book)
	}

	if err := p.Books.CommitImport(ctx, batch); err != nil {
		return 0, fmt.Errorf("committing import: %w", err)
	}

	p.Logger.Info(fmt.Sprintf("Book import completed, added %d books", len(batch.Books)))

	return len(batch.Books), nil
}

// distinctNames collects names across records, case-insensitively
// distinct, keeping the first-seen spelling.
func distinctNames(records []types.ImportRecord, pick func(types.ImportRecord) []string) []string {
	var names []string
	seen := make(map[string]struct{})

	for _, rec := range records {
		for _, name := range pick(rec) {
			folded := fold(name)
			if folded == "" {
				continue
			}
			if _, ok := seen[folded]; ok {
				continue
			}
			seen[folded] = struct{}{}
			names = append(names, strings.TrimSpace(name))
		}
	}

	return names
}

package importer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"bookstore/internal/storage/authors"
	"bookstore/internal/storage/genres"
	"bookstore/internal/types"
)

// Birth year for authors the feed names but never describes.
const defaultBirthYear = 1970

// fold is the identity function for titles and names: equality after
// trimming and lowercasing.
func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Resolver maps free-text author and genre names from a batch of import
// records onto catalog rows. Existing rows are matched case-insensitively
// in one bulk lookup; every unmatched folded name yields exactly one new
// entity, which stays pending until the caller commits the batch.
type Resolver struct {
	Authors authors.Repository
	Genres  genres.Repository
	Logger  *slog.Logger
}

// ResolveAuthors returns one entry per distinct folded candidate name,
// keyed by folded name, plus the authors that need to be created.
func (r *Resolver) ResolveAuthors(ctx context.Context, names []string) (map[string]*types.Author, []*types.Author, error) {
	byName := make(map[string]*types.Author, len(names))
	if len(names) == 0 {
		return byName, nil, nil
	}

	existing, err := r.Authors.GetByNames(ctx, names...)
	if err != nil {
		return nil, nil, fmt.Errorf("checking existing authors: %w", err)
	}

	var created []*types.Author

	for _, name := range names {
		folded := fold(name)
		if folded == "" {
			continue
		}
		if _, ok := byName[folded]; ok {
			continue
		}

		if author, ok := existing[folded]; ok {
			byName[folded] = author
			continue
		}

		author := &types.Author{
			Id:        uuid.NewString(),
			Name:      strings.TrimSpace(name),
			BirthYear: defaultBirthYear,
		}
		byName[folded] = author
		created = append(created, author)
	}

	if len(created) > 0 {
		r.Logger.Info(fmt.Sprintf("Creating %d new authors", len(created)))
	}

	return byName, created, nil
}

// ResolveGenres returns the genre title to attach per distinct folded
// candidate name, plus the titles missing from the store. New genres get
// their ids assigned inside the commit transaction, so only titles travel.
func (r *Resolver) ResolveGenres(ctx context.Context, names []string) (map[string]string, []string, error) {
	byName := make(map[string]string, len(names))
	if len(names) == 0 {
		return byName, nil, nil
	}

	existing, err := r.Genres.GetIdByTitles(ctx, names...)
	if err != nil {
		return nil, nil, fmt.Errorf("checking existing genres: %w", err)
	}

	var created []string

	for _, name := range names {
		folded := fold(name)
		if folded == "" {
			continue
		}
		if _, ok := byName[folded]; ok {
			continue
		}

		title := strings.TrimSpace(name)
		byName[folded] = title

		if _, ok := existing[folded]; !ok {
			created = append(created, title)
		}
	}

	if len(created) > 0 {
		r.Logger.Info(fmt.Sprintf("Creating %d new genres", len(created)))
	}

	return byName, created, nil
}

package feed

import (
	"context"

	"bookstore/internal/types"
)

// Feed produces the full set of import records from the external catalog
// source. Whole-feed semantics: the fetch either returns every record or
// fails, there is no pagination and no partial result.
type Feed interface {
	FetchAll(ctx context.Context) ([]types.ImportRecord, error)
}

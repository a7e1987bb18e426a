package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"bookstore/internal/types"
)

// JSONFeed fetches a flat JSON array of book records from a single URL.
type JSONFeed struct {
	Client *http.Client
	URL    *url.URL
	Logger *slog.Logger
}

func (f *JSONFeed) FetchAll(ctx context.Context) ([]types.ImportRecord, error) {
	f.Logger.Debug("Begin fetching catalog feed " + f.URL.Path)

	req := (&http.Request{
		Method: http.MethodGet,
		URL:    f.URL,
		Header: http.Header{"Accept": []string{"application/json"}},
	}).WithContext(ctx)

	res, err := f.Client.Do(req)
	if err != nil {
		f.Logger.Error("Failed to fetch catalog feed " + f.URL.Path + ": " + err.Error())
		return nil, fmt.Errorf("fetching catalog feed: %w", err)
	}

	var bs []byte
	func() {
		defer res.Body.Close()
		bs, err = io.ReadAll(res.Body)
	}()

	if err != nil {
		f.Logger.Error("Failed to read body of catalog feed " + f.URL.Path + ": " + err.Error())
		return nil, fmt.Errorf("fetching catalog feed (reading response): %w", err)
	}

	if res.StatusCode != http.StatusOK {
		f.Logger.Error("Catalog feed " + f.URL.Path + " responded " + res.Status)
		return nil, fmt.Errorf("fetching catalog feed: unexpected status %s", res.Status)
	}

	var records []types.ImportRecord
	err = json.Unmarshal(bs, &records)
	if err != nil {
		f.Logger.Error("Failed to unmarshal catalog feed " + f.URL.Path + ": " + err.Error())
		return nil, fmt.Errorf("unmarshalling catalog feed: %w", err)
	}

	f.Logger.Info(fmt.Sprintf("Catalog feed returned %d records", len(records)))

	return records, nil
}

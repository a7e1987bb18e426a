package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/opds-community/libopds2-go/opds1"

	"bookstore/internal/types"
)

// OPDSFeed reads a single OPDS 1 acquisition feed. Entry titles, author
// names and category terms map onto the import record; OPDS catalogs of
// free books carry no price, so Price stays 0.
type OPDSFeed struct {
	Client *http.Client
	URL    *url.URL
	Logger *slog.Logger
}

func (f *OPDSFeed) FetchAll(ctx context.Context) ([]types.ImportRecord, error) {
	f.Logger.Debug("Begin fetching OPDS feed " + f.URL.Path)

	req := (&http.Request{
		Method: http.MethodGet,
		URL:    f.URL,
	}).WithContext(ctx)

	res, err := f.Client.Do(req)
	if err != nil {
		f.Logger.Error("Failed to fetch OPDS feed " + f.URL.Path + ": " + err.Error())
		return nil, fmt.Errorf("fetching OPDS feed: %w", err)
	}

	var bs []byte
	func() {
		defer res.Body.Close()
		bs, err = io.ReadAll(res.Body)
	}()

	if err != nil {
		f.Logger.Error("Failed to read body of OPDS feed " + f.URL.Path + ": " + err.Error())
		return nil, fmt.Errorf("fetching OPDS feed (reading response): %w", err)
	}

	if res.StatusCode != http.StatusOK {
		f.Logger.Error("OPDS feed " + f.URL.Path + " responded " + res.Status)
		return nil, fmt.Errorf("fetching OPDS feed: unexpected status %s", res.Status)
	}

	var parsed opds1.Feed
	err = xml.Unmarshal(removeDisallowedCodepoints(bs, f.Logger), &parsed)
	if err != nil {
		f.Logger.Error("Failed to unmarshal OPDS feed " + f.URL.Path + ": " + err.Error())
		return nil, fmt.Errorf("unmarshalling OPDS feed: %w", err)
	}

	l := f.Logger.With(slog.String("feed", f.URL.Path))

	records := make([]types.ImportRecord, 0, len(parsed.Entries))

	for _, entry := range parsed.Entries {
		title := strings.TrimSpace(entry.Title)
		if title == "" {
			l.Warn("Skipping entry without title " + strings.TrimSpace(entry.ID))
			continue
		}

		var authorNames []string
		seenAuthors := make(map[string]struct{}, len(entry.Author))
		for _, auth := range entry.Author {
			name := strings.TrimSpace(auth.Name)
			if name == "" {
				continue
			}
			if _, ok := seenAuthors[strings.ToLower(name)]; ok {
				l.Warn("In the same entry found duplicate of author " + name)
				continue
			}
			seenAuthors[strings.ToLower(name)] = struct{}{}
			authorNames = append(authorNames, name)
		}

		var genreNames []string
		seenGenres := make(map[string]struct{}, len(entry.Category))
		for _, cat := range entry.Category {
			term := strings.TrimSpace(cat.Term)
			if term == "" {
				continue
			}
			if _, ok := seenGenres[strings.ToLower(term)]; ok {
				l.Warn("In the same entry found duplicate of genre " + term)
				continue
			}
			seenGenres[strings.ToLower(term)] = struct{}{}
			genreNames = append(genreNames, term)
		}

		records = append(records, types.ImportRecord{
			Title:       title,
			AuthorNames: authorNames,
			GenreNames:  genreNames,
		})
	}

	l.Info(fmt.Sprintf("OPDS feed returned %d records", len(records)))

	return records, nil
}

// Some catalog servers emit control characters the XML parser rejects,
// strip everything outside the XML Character Range before unmarshalling.
func removeDisallowedCodepoints(bs []byte, l *slog.Logger) []byte {
	ret := bs[:0]
	buf := bs

	for len(buf) > 0 {
		r, size := utf8.DecodeRune(buf)
		if r == utf8.RuneError && size == 1 {
			l.Warn("Going to fail XML parsing because the bytes do not represent valid UTF8")
			return bs
		}

		if isInCharacterRange(r) {
			ret = append(ret, buf[:size]...)
		} else {
			l.Warn("Removed invalid rune from XML")
		}

		buf = buf[size:]
	}

	return ret
}

// Per the Char production of XML 1.0, Section 2.2.
func isInCharacterRange(r rune) bool {
	return r == 0x09 ||
		r == 0x0A ||
		r == 0x0D ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= 0x10FFFF
}

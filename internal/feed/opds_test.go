package feed

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const opdsSample = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <id>urn:catalog:root</id>
  <title>Catalog</title>
  <entry>
    <id>urn:book:1</id>
    <title> Dune </title>
    <author><name>Frank Herbert</name></author>
    <author><name>frank herbert</name></author>
    <category term="Sci-Fi"/>
    <category term="sci-fi"/>
    <category term="Classics"/>
  </entry>
  <entry>
    <id>urn:book:2</id>
    <title></title>
  </entry>
  <entry>
    <id>urn:book:3</id>
    <title>Hyperion</title>
    <author><name>Dan Simmons</name></author>
  </entry>
</feed>`

func TestOPDSFeedFetchAll(t *testing.T) {
	t.Run("maps entries and drops intra-entry duplicates", func(t *testing.T) {
		u := serveBody(t, http.StatusOK, "application/atom+xml", opdsSample)

		f := &OPDSFeed{Client: http.DefaultClient, URL: u, Logger: discardLogger()}

		records, err := f.FetchAll(context.Background())

		require.NoError(t, err)
		require.Len(t, records, 2)

		assert.Equal(t, "Dune", records[0].Title)
		assert.Equal(t, []string{"Frank Herbert"}, records[0].AuthorNames)
		assert.Equal(t, []string{"Sci-Fi", "Classics"}, records[0].GenreNames)
		assert.Equal(t, 0.0, records[0].Price)

		assert.Equal(t, "Hyperion", records[1].Title)
		assert.Equal(t, []string{"Dan Simmons"}, records[1].AuthorNames)
	})

	t.Run("non-200 response is an error", func(t *testing.T) {
		u := serveBody(t, http.StatusNotFound, "text/plain", "gone")

		f := &OPDSFeed{Client: http.DefaultClient, URL: u, Logger: discardLogger()}

		_, err := f.FetchAll(context.Background())

		assert.ErrorContains(t, err, "unexpected status")
	})

	t.Run("broken XML is an error", func(t *testing.T) {
		u := serveBody(t, http.StatusOK, "application/atom+xml", "<feed><entry>")

		f := &OPDSFeed{Client: http.DefaultClient, URL: u, Logger: discardLogger()}

		_, err := f.FetchAll(context.Background())

		assert.ErrorContains(t, err, "unmarshalling OPDS feed")
	})
}

func TestRemoveDisallowedCodepoints(t *testing.T) {
	t.Run("strips control characters", func(t *testing.T) {
		in := []byte("<title>Du\x08ne</title>")

		assert.Equal(t, "<title>Dune</title>", string(removeDisallowedCodepoints(in, discardLogger())))
	})

	t.Run("leaves valid text alone", func(t *testing.T) {
		in := []byte("<title>Война и мир</title>")

		assert.Equal(t, string(in), string(removeDisallowedCodepoints(append([]byte(nil), in...), discardLogger())))
	})
}

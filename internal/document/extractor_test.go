package document

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDoc is an in-memory paginated document.
type fakeDoc struct {
	pages   []string
	failOn  int // 0-based page index whose Text fails, -1 for none
	meta    map[string]string
	closed  bool
	readLog []int
}

func (d *fakeDoc) NumPage() int { return len(d.pages) }

func (d *fakeDoc) Text(page int) (string, error) {
	d.readLog = append(d.readLog, page)
	if page == d.failOn {
		return "", errors.New("broken content stream")
	}
	return d.pages[page], nil
}

func (d *fakeDoc) Metadata() map[string]string { return d.meta }

func (d *fakeDoc) Close() error {
	d.closed = true
	return nil
}

// newTestExtractor returns an extractor that opens doc for any existing path,
// plus a real file path to satisfy the existence check.
func newTestExtractor(t *testing.T, separator string, doc *fakeDoc) (*Extractor, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "book.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))

	e := NewExtractor(separator)
	e.open = func(string) (pageSource, error) { return doc, nil }
	return e, path
}

func TestExtractConcatenatesPagesInOrder(t *testing.T) {
	doc := &fakeDoc{pages: []string{"Hello.", "World.", ""}, failOn: -1}
	e, path := newTestExtractor(t, "", doc)

	text, err := e.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Hello.World.", text)
	assert.Equal(t, []int{0, 1, 2}, doc.readLog)
	assert.True(t, doc.closed, "document must be closed after extraction")
}

func TestExtractWithSeparatorSkipsEmptyPages(t *testing.T) {
	doc := &fakeDoc{pages: []string{"Hello.", "", "World.", ""}, failOn: -1}
	e, path := newTestExtractor(t, " ", doc)

	text, err := e.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Hello. World.", text)
}

func TestExtractPreservesPageOrderForManyPages(t *testing.T) {
	pages := make([]string, 25)
	total := 0
	for i := range pages {
		pages[i] = fmt.Sprintf("[page-%02d]", i+1)
		total += len(pages[i])
	}
	doc := &fakeDoc{pages: pages, failOn: -1}
	e, path := newTestExtractor(t, "\n", doc)

	text, err := e.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(text), total)

	last := -1
	for _, p := range pages {
		idx := strings.Index(text, p)
		require.NotEqual(t, -1, idx, "missing %s", p)
		assert.Greater(t, idx, last, "%s out of order", p)
		last = idx
	}
}

func TestExtractBlankDocumentIsNotAnError(t *testing.T) {
	doc := &fakeDoc{pages: []string{"", "", ""}, failOn: -1}
	e, path := newTestExtractor(t, "", doc)

	text, err := e.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, text)
	assert.True(t, doc.closed)
}

func TestExtractPageFailureClosesDocument(t *testing.T) {
	doc := &fakeDoc{pages: []string{"one", "two", "three"}, failOn: 1}
	e, path := newTestExtractor(t, "", doc)

	_, err := e.Extract(context.Background(), path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOpen))

	var openErr *OpenError
	require.True(t, errors.As(err, &openErr))
	assert.Equal(t, 2, openErr.Page)
	assert.True(t, doc.closed, "document must be closed on the failure path")
}

func TestExtractCancelledContextClosesDocument(t *testing.T) {
	doc := &fakeDoc{pages: []string{"one", "two"}, failOn: -1}
	e, path := newTestExtractor(t, "", doc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Extract(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, doc.closed)
}

func TestExtractMissingFile(t *testing.T) {
	opened := false
	e := NewExtractor("")
	e.open = func(string) (pageSource, error) {
		opened = true
		return nil, nil
	}

	_, err := e.Extract(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, opened, "open must not be attempted for a missing file")
}

func TestExtractRejectsDirectoryAndEmptyPath(t *testing.T) {
	e := NewExtractor("")

	_, err := e.Extract(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, ErrOpen)

	_, err = e.Extract(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrOpen)
}

func TestExtractMalformedDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))

	e := NewExtractor("")
	e.open = func(string) (pageSource, error) { return nil, errors.New("no objects found") }

	_, err := e.Extract(context.Background(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOpen)
	assert.Contains(t, err.Error(), "no objects found")
}

func TestInspectReportsPagesAndMetadata(t *testing.T) {
	doc := &fakeDoc{
		pages:  []string{"a", "b", "c"},
		failOn: -1,
		meta:   map[string]string{"title": "Moby Dick", "author": "Herman Melville", "format": "PDF 1.7"},
	}
	e, path := newTestExtractor(t, "", doc)

	info, err := e.Inspect(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 3, info.Pages)
	assert.Equal(t, "Moby Dick", info.Title)
	assert.Equal(t, "Herman Melville", info.Author)
	assert.Equal(t, "PDF 1.7", info.Format)
	assert.True(t, doc.closed)
	assert.Empty(t, doc.readLog, "inspect must not extract page text")
}

// TestExtractRealPDF reads a three-page fixture ("Hello.", "World.", blank)
// through go-fitz.
func TestExtractRealPDF(t *testing.T) {
	path := filepath.Join("testdata", "hello_world.pdf")
	e := NewExtractor("")

	text, err := e.Extract(context.Background(), path)
	require.NoError(t, err)
	// MuPDF ends each line with a newline; the words themselves join as-is.
	assert.Equal(t, "Hello.World.", strings.Join(strings.Fields(text), ""))
	assert.Less(t, strings.Index(text, "Hello."), strings.Index(text, "World."))

	info, err := e.Inspect(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 3, info.Pages)
	assert.Equal(t, "Narrator Fixture", info.Title)
	assert.Equal(t, "pdf-narrator", info.Author)
}

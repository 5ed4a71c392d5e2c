// Package document reads text out of paginated documents (PDF, XPS, EPUB and
// anything else MuPDF can open).
package document

import (
	"context"
	"os"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// Info describes a document without extracting its text.
type Info struct {
	Path   string            `json:"path"`
	Pages  int               `json:"pages"`
	Title  string            `json:"title,omitempty"`
	Author string            `json:"author,omitempty"`
	Format string            `json:"format,omitempty"`
	Meta   map[string]string `json:"-"`
}

// pageSource is the part of a MuPDF document the extractor reads.
type pageSource interface {
	NumPage() int
	Text(page int) (string, error)
	Metadata() map[string]string
	Close() error
}

// fitzDocument adapts *fitz.Document to pageSource.
type fitzDocument struct {
	doc *fitz.Document
}

func (d *fitzDocument) NumPage() int                  { return d.doc.NumPage() }
func (d *fitzDocument) Text(page int) (string, error) { return d.doc.Text(page) }
func (d *fitzDocument) Metadata() map[string]string   { return d.doc.Metadata() }

func (d *fitzDocument) Close() error {
	d.doc.Close()
	return nil
}

func openFitz(path string) (pageSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return &fitzDocument{doc: doc}, nil
}

// Extractor turns a document into one string of text.
type Extractor struct {
	separator string
	open      func(path string) (pageSource, error)
	stat      func(name string) (os.FileInfo, error)
}

// NewExtractor creates an extractor. separator is inserted between the text
// of consecutive non-empty pages; an empty separator concatenates page text
// exactly as each page yields it.
func NewExtractor(separator string) *Extractor {
	return &Extractor{
		separator: separator,
		open:      openFitz,
		stat:      os.Stat,
	}
}

// Extract opens path, reads every page in order and returns the joined text.
// The document is always closed before Extract returns. An empty result is
// not an error here; callers decide whether empty text is acceptable.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	doc, err := e.openDocument(path)
	if err != nil {
		return "", err
	}
	defer doc.Close()

	var b strings.Builder
	wrote := false
	for page := 0; page < doc.NumPage(); page++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, err := doc.Text(page)
		if err != nil {
			return "", &OpenError{Path: path, Page: page + 1, Message: "cannot extract page text", Err: err}
		}
		if text == "" {
			continue
		}
		if wrote && e.separator != "" {
			b.WriteString(e.separator)
		}
		b.WriteString(text)
		wrote = true
	}

	return b.String(), nil
}

// Inspect reports page count and metadata.
func (e *Extractor) Inspect(ctx context.Context, path string) (Info, error) {
	if err := ctx.Err(); err != nil {
		return Info{}, err
	}

	doc, err := e.openDocument(path)
	if err != nil {
		return Info{}, err
	}
	defer doc.Close()

	meta := doc.Metadata()
	return Info{
		Path:   path,
		Pages:  doc.NumPage(),
		Title:  meta["title"],
		Author: meta["author"],
		Format: meta["format"],
		Meta:   meta,
	}, nil
}

func (e *Extractor) openDocument(path string) (pageSource, error) {
	if strings.TrimSpace(path) == "" {
		return nil, &OpenError{Path: path, Message: "document path is required"}
	}

	info, err := e.stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &OpenError{Path: path, Message: "file does not exist", Err: err}
		}
		return nil, &OpenError{Path: path, Message: "cannot access file", Err: err}
	}
	if info.IsDir() {
		return nil, &OpenError{Path: path, Message: "path is a directory, not a document"}
	}

	doc, err := e.open(path)
	if err != nil {
		return nil, &OpenError{Path: path, Message: "not a readable document", Err: err}
	}
	return doc, nil
}

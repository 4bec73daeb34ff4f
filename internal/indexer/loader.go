package indexer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrEmptyDocument is returned when a document yields no text.
var ErrEmptyDocument = errors.New("document has no content")

// ErrUnsupported is returned for file types the loader cannot read.
var ErrUnsupported = errors.New("unsupported document type")

// SupportedExtensions lists the file types the loader reads.
var SupportedExtensions = map[string]bool{
	".pdf": true,
	".md":  true,
	".txt": true,
}

// Loader reads source documents into pages.
type Loader struct {
	markdown *markdownExtractor
}

// NewLoader creates a new document loader.
func NewLoader() *Loader {
	return &Loader{markdown: newMarkdownExtractor()}
}

// Load reads the file at path. PDFs keep their page numbers; markdown and plain
// text become a single page.
func (l *Loader) Load(path string) (*Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !SupportedExtensions[ext] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	doc := &Document{
		Source:  path,
		Title:   titleFromFilename(path),
		Content: content,
	}

	switch ext {
	case ".pdf":
		pages, err := readPDFPages(path)
		if err != nil {
			return nil, err
		}
		doc.Pages = pages
	case ".md":
		title, plain := l.markdown.Extract(content, path)
		doc.Title = title
		doc.Pages = singlePage(plain)
	case ".txt":
		doc.Pages = singlePage(string(content))
	}

	if len(doc.Pages) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyDocument)
	}
	return doc, nil
}

func singlePage(s string) []Page {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return []Page{{Number: 1, Text: s}}
}

// readPDFPages extracts plain text per page. Pages without text are dropped but
// keep their numbering.
func readPDFPages(path string) ([]Page, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	pages := make([]Page, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to extract page %d of %s: %w", i, path, err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		pages = append(pages, Page{Number: i, Text: text})
	}
	return pages, nil
}

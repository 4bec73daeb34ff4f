package indexer

// Page is the text of one page of a source document.
type Page struct {
	Number int // 1-based
	Text   string
}

// Document is a loaded source file split into pages.
type Document struct {
	Source  string // Path as given to the loader
	Title   string
	Content []byte // Raw file bytes, used for change detection
	Pages   []Page
}

// Chunk represents a piece of a page that is embedded on its own.
type Chunk struct {
	Index      int    // Chunk index within document (starts at 0)
	PageNumber int    // Page the chunk came from
	Text       string // Chunk text content
}

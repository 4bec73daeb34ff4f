package indexer

import (
	"path/filepath"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// markdownExtractor turns markdown into plain text, one line per block.
type markdownExtractor struct {
	parser goldmark.Markdown
}

func newMarkdownExtractor() *markdownExtractor {
	return &markdownExtractor{
		parser: goldmark.New(
			goldmark.WithExtensions(extension.Table),
		),
	}
}

// Extract returns the document title and its plain text.
func (e *markdownExtractor) Extract(content []byte, filename string) (title, plain string) {
	doc := e.parser.Parser().Parse(text.NewReader(content))
	title = extractTitle(doc, content, filename)

	var lines []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading, *ast.Paragraph, *ast.TextBlock:
			if s := extractTextFromNode(node, content); s != "" {
				lines = append(lines, s)
			}
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			var b strings.Builder
			for i := 0; i < node.Lines().Len(); i++ {
				seg := node.Lines().At(i)
				b.Write(seg.Value(content))
			}
			if s := strings.TrimSpace(b.String()); s != "" {
				lines = append(lines, s)
			}
			return ast.WalkSkipChildren, nil
		case *extast.TableHeader, *extast.TableRow:
			if s := extractTableRowText(node, content); s != "" {
				lines = append(lines, s)
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return title, strings.Join(lines, "\n")
}

// extractTitle picks the first level-1 heading, then the first level-2 heading,
// then falls back to the filename.
func extractTitle(doc ast.Node, content []byte, filename string) string {
	var firstH1, firstH2 string

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		if heading, ok := n.(*ast.Heading); ok {
			headingText := extractTextFromNode(heading, content)
			if heading.Level == 1 && firstH1 == "" {
				firstH1 = headingText
				return ast.WalkStop, nil
			}
			if heading.Level == 2 && firstH2 == "" {
				firstH2 = headingText
			}
		}
		return ast.WalkContinue, nil
	})

	if firstH1 != "" {
		return firstH1
	}
	if firstH2 != "" {
		return firstH2
	}
	return titleFromFilename(filename)
}

// titleFromFilename strips the extension and capitalizes each word.
func titleFromFilename(filename string) string {
	name := filepath.Base(filename)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)

	words := strings.Fields(name)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// extractTextFromNode extracts text content from a node and its children.
func extractTextFromNode(n ast.Node, content []byte) string {
	var textBuilder strings.Builder

	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch v := node.(type) {
		case *ast.Text:
			textBuilder.Write(v.Segment.Value(content))
			if v.SoftLineBreak() || v.HardLineBreak() {
				textBuilder.WriteByte(' ')
			}
		case *ast.String:
			textBuilder.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(textBuilder.String())
}

// extractTableRowText extracts text from a table row, formatting cells with pipe separators.
func extractTableRowText(row ast.Node, content []byte) string {
	cells := make([]string, 0, row.ChildCount())
	for c := row.FirstChild(); c != nil; c = c.NextSibling() {
		if _, ok := c.(*extast.TableCell); ok {
			cells = append(cells, extractTextFromNode(c, content))
		}
	}
	return strings.TrimSpace(strings.Join(cells, " | "))
}

package rag

import (
	"fmt"
	"math"
	"path"
	"sort"
	"strconv"
	"strings"
)

// FormatCitations builds one citation per chunk, numbered from 1.
func FormatCitations(chunks []ChunkResult) []Citation {
	citations := make([]Citation, 0, len(chunks))
	for i, c := range chunks {
		pct := int(math.Round(c.Confidence * 100))
		citations = append(citations, Citation{
			Number:     i + 1,
			Source:     c.Source,
			PageNumber: c.PageNumber,
			Confidence: c.Confidence,
			Label:      fmt.Sprintf("[%d] %s หน้า %d (ความมั่นใจ %d%%)", i+1, sourceName(c.Source), c.PageNumber, pct),
		})
	}
	return citations
}

// sourceName returns the file name of a source path written with either separator.
func sourceName(source string) string {
	return path.Base(strings.ReplaceAll(source, "\\", "/"))
}

// PageSummary lists the sorted unique page numbers, e.g. "อ้างอิงจากหน้า: 1, 3".
// Page numbers <= 0 mean the page is unknown and are left out, so the summary
// is empty when no chunk has a known page.
func PageSummary(chunks []ChunkResult) string {
	seen := make(map[int]bool)
	pages := make([]int, 0, len(chunks))
	for _, c := range chunks {
		if c.PageNumber <= 0 || seen[c.PageNumber] {
			continue
		}
		seen[c.PageNumber] = true
		pages = append(pages, c.PageNumber)
	}
	if len(pages) == 0 {
		return ""
	}
	sort.Ints(pages)

	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = strconv.Itoa(p)
	}
	return "อ้างอิงจากหน้า: " + strings.Join(parts, ", ")
}

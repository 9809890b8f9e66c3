package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// Extraction joins pages into a single string with a marker line before
// each page. SplitPages reverses it. The chunker runs on the
// marker-segmented form so page attribution survives chunking.
const (
	pageMarkerFormat = "\n\n--- Page %d ---\n\n"
	pageMarkerPrefix = "\n\n--- Page "
)

// Page is the extracted text of one document page.
type Page struct {
	Number int
	Text   string
}

// JoinPages renders pages as marker-segmented text. Pages with no
// visible text are dropped; their numbers are simply absent.
func JoinPages(pages []Page) string {
	var sb strings.Builder
	for _, p := range pages {
		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		sb.WriteString(fmt.Sprintf(pageMarkerFormat, p.Number))
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// SplitPages parses marker-segmented text back into pages. Text before
// the first marker, text with no markers at all, and segments whose
// header line does not parse all fall back to page 1, with the
// unparsed header retained as content.
func SplitPages(text string) []Page {
	var pages []Page
	for _, segment := range strings.Split(text, pageMarkerPrefix) {
		if strings.TrimSpace(segment) == "" {
			continue
		}
		num, content, ok := parsePageHeader(segment)
		if !ok {
			num, content = 1, segment
		}
		pages = append(pages, Page{Number: num, Text: content})
	}
	return pages
}

// parsePageHeader splits a segment of the form "N ---\n<text>" into its
// page number and text.
func parsePageHeader(segment string) (int, string, bool) {
	header, rest, found := strings.Cut(segment, "\n")
	if !found {
		return 0, "", false
	}
	numStr := strings.TrimSuffix(strings.TrimSpace(header), " ---")
	num, err := strconv.Atoi(numStr)
	if err != nil || num < 0 {
		return 0, "", false
	}
	return num, rest, true
}

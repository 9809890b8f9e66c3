package parser

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

// ErrDocumentUnreadable marks a source document that cannot be loaded:
// missing file, unsupported format, or a failed extraction. It is
// fatal for indexing.
var ErrDocumentUnreadable = errors.New("document unreadable")

// Load extracts the document at path as marker-segmented text, one
// marker per non-empty page. Plain text files are returned verbatim
// and may already carry page markers of their own.
func Load(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))

	var (
		pages []Page
		err   error
	)
	switch ext {
	case ".pdf":
		pages, err = parsePDF(path)
	case ".txt", ".text":
		return parseText(path)
	case ".md", ".markdown":
		pages, err = parseMarkdown(path)
	case ".docx":
		pages, err = parseDOCX(path)
	case ".pptx":
		pages, err = parsePPTX(path)
	case ".xlsx":
		pages, err = parseXLSX(path)
	case ".ods":
		pages, err = parseODS(path)
	default:
		return "", fmt.Errorf("%w: unsupported file format %q", ErrDocumentUnreadable, ext)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDocumentUnreadable, err)
	}

	log.Debug().Str("file", filepath.Base(path)).Int("pages", len(pages)).Msg("Extracted document")
	return JoinPages(pages), nil
}

func parsePDF(path string) ([]Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, err
	}

	var pages []Page
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			// a single bad page loses its text, not the document
			log.Warn().Int("page", i).Err(err).Msg("Skipping unreadable page")
			continue
		}
		pages = append(pages, Page{Number: i, Text: pageText})
	}
	return pages, nil
}

func parseText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDocumentUnreadable, err)
	}
	return string(data), nil
}

// parseMarkdown walks the goldmark AST collecting text nodes, so
// formatting syntax does not leak into the index.
func parseMarkdown(path string) ([]Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc := goldmark.New().Parser().Parse(gmtext.NewReader(data))
	var sb strings.Builder
	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			switch n.(type) {
			case *ast.Paragraph, *ast.Heading, *ast.ListItem:
				sb.WriteString("\n\n")
			}
			return ast.WalkContinue, nil
		}
		if t, ok := n.(*ast.Text); ok {
			sb.Write(t.Segment.Value(data))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteString("\n")
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	return []Page{{Number: 1, Text: sb.String()}}, nil
}

func parseDOCX(path string) ([]Page, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	content := r.Editable().GetContent()
	var paragraphs []string
	for _, para := range strings.Split(content, "</w:p>") {
		text := strings.TrimSpace(extractTextFromXML(para, "<w:t"))
		if text != "" {
			paragraphs = append(paragraphs, text)
		}
	}
	// DOCX has no page boundaries; everything lands on page 1
	return []Page{{Number: 1, Text: strings.Join(paragraphs, "\n\n")}}, nil
}

func parsePPTX(path string) ([]Page, error) {
	f, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pages []Page
	slideNum := 0
	for _, file := range f.File {
		if !strings.HasPrefix(file.Name, "ppt/slides/slide") {
			continue
		}
		slideNum++
		rc, err := file.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		// slide per page
		pages = append(pages, Page{Number: slideNum, Text: extractTextFromXML(string(data), "<a:t")})
	}
	return pages, nil
}

func parseXLSX(path string) ([]Page, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, err
	}

	var pages []Page
	for sheetNum, sheet := range f.Sheets {
		var text strings.Builder
		text.WriteString(fmt.Sprintf("Sheet: %s\n", sheet.Name))
		for _, row := range sheet.Rows {
			for _, cell := range row.Cells {
				text.WriteString(cell.String() + "\t")
			}
			text.WriteString("\n")
		}
		// sheet per page
		pages = append(pages, Page{Number: sheetNum + 1, Text: text.String()})
	}
	return pages, nil
}

func parseODS(path string) ([]Page, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pages []Page
	for sheetNum, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		var text strings.Builder
		text.WriteString(fmt.Sprintf("Sheet: %s\n", sheetName))
		for _, row := range rows {
			for _, cell := range row {
				text.WriteString(cell + "\t")
			}
			text.WriteString("\n")
		}
		pages = append(pages, Page{Number: sheetNum + 1, Text: text.String()})
	}
	return pages, nil
}

// extractTextFromXML pulls the text between occurrences of the given
// opening tag prefix and its closing counterpart. Good enough for the
// office XML formats where text lives in w:t / a:t runs.
func extractTextFromXML(xmlContent, openPrefix string) string {
	closeTag := "</" + strings.TrimPrefix(openPrefix, "<") + ">"
	var text strings.Builder
	parts := strings.Split(xmlContent, openPrefix)
	for i, part := range parts {
		if i == 0 {
			continue
		}
		start := strings.Index(part, ">")
		if start < 0 {
			continue
		}
		end := strings.Index(part, closeTag)
		if end > start {
			text.WriteString(part[start+1:end] + " ")
		}
	}
	return text.String()
}

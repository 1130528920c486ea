package loader

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
)

// loadPlain returns content as a string, replacing invalid UTF-8 sequences
// with the replacement character.
func loadPlain(content []byte) string {
	if !utf8.Valid(content) {
		return strings.ToValidUTF8(string(content), "�")
	}
	return string(content)
}

// loadPDF concatenates the plain text of every page, one page per line.
func loadPDF(content []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}
	var buf strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("PDF page %d: %w", i, err)
		}
		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(text)
	}
	return buf.String(), nil
}

// loadExcel emits one line per row, cells tab-separated, sheets in order.
func loadExcel(content []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var buf strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("sheet %q: %w", sheet, err)
		}
		for _, row := range rows {
			buf.WriteString(strings.Join(row, "\t"))
			buf.WriteByte('\n')
		}
	}
	return strings.TrimSpace(buf.String()), nil
}

// loadCSV emits one line per record, fields tab-separated. Records with a
// variable number of fields are accepted.
func loadCSV(content []byte) (string, error) {
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	var buf strings.Builder
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse CSV: %w", err)
		}
		buf.WriteString(strings.Join(record, "\t"))
		buf.WriteByte('\n')
	}
	return strings.TrimSpace(buf.String()), nil
}

const wordMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"

// wtTag matches <w:t> run text regardless of attributes such as
// xml:space="preserve".
var wtTag = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)

// Override elements in [Content_Types].xml vary attribute order between
// producers, so PartName and ContentType are pulled out separately.
var (
	overrideTag     = regexp.MustCompile(`<Override[^>]*/?>`)
	partNameAttr    = regexp.MustCompile(`PartName="([^"]+)"`)
	contentTypeAttr = regexp.MustCompile(`ContentType="([^"]+)"`)
)

// loadDOCX extracts the <w:t> text nodes of the main document part. The
// part path comes from [Content_Types].xml when present, falling back to
// the conventional word/document.xml. Text nodes are matched regardless of
// run attributes so real-world documents with styled paragraphs still
// yield their content.
func loadDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open document: not a zip: %w", err)
	}

	docPath := wordMainDocumentPath(zr)
	if docPath == "" {
		docPath = "word/document.xml"
	}
	docXML, err := zipEntry(zr, docPath)
	if err != nil {
		return "", fmt.Errorf("document part: %w", err)
	}

	parts := wtTag.FindAllStringSubmatch(string(docXML), -1)
	var buf strings.Builder
	for _, p := range parts {
		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(strings.TrimSpace(p[1]))
	}
	return strings.TrimSpace(buf.String()), nil
}

// wordMainDocumentPath resolves the main document part from
// [Content_Types].xml, or "" when it cannot be determined.
func wordMainDocumentPath(zr *zip.Reader) string {
	ct, err := zipEntry(zr, "[Content_Types].xml")
	if err != nil {
		return ""
	}
	for _, override := range overrideTag.FindAllString(string(ct), -1) {
		typeMatch := contentTypeAttr.FindStringSubmatch(override)
		if typeMatch == nil || typeMatch[1] != wordMainContentType {
			continue
		}
		if nameMatch := partNameAttr.FindStringSubmatch(override); nameMatch != nil {
			return strings.TrimPrefix(nameMatch[1], "/")
		}
	}
	return ""
}

var atTag = regexp.MustCompile(`<a:t[^>]*>([^<]*)</a:t>`)

// loadPPTX extracts <a:t> text nodes from every slide part.
func loadPPTX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open presentation: not a zip: %w", err)
	}
	var buf strings.Builder
	for _, f := range zr.File {
		if !strings.HasPrefix(f.Name, "ppt/slides/slide") || !strings.HasSuffix(f.Name, ".xml") {
			continue
		}
		slideXML, err := zipEntry(zr, f.Name)
		if err != nil {
			return "", fmt.Errorf("slide %s: %w", f.Name, err)
		}
		for _, p := range atTag.FindAllStringSubmatch(string(slideXML), -1) {
			if buf.Len() > 0 {
				buf.WriteByte(' ')
			}
			buf.WriteString(strings.TrimSpace(p[1]))
		}
	}
	return strings.TrimSpace(buf.String()), nil
}

// odfTextTag matches OpenDocument text:p, text:span, and text:h elements
// that directly wrap text.
var odfTextTag = regexp.MustCompile(`<text:(p|span|h)[^>]*>([^<]*)</text:(?:p|span|h)>`)

// loadOpenDocument extracts text elements from content.xml of an .odp or
// .ods package.
func loadOpenDocument(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open document: not a zip: %w", err)
	}
	contentXML, err := zipEntry(zr, "content.xml")
	if err != nil {
		return "", fmt.Errorf("content part: %w", err)
	}
	var buf strings.Builder
	for _, p := range odfTextTag.FindAllStringSubmatch(string(contentXML), -1) {
		if strings.TrimSpace(p[2]) == "" {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(strings.TrimSpace(p[2]))
	}
	return strings.TrimSpace(buf.String()), nil
}

// zipEntry reads one named file out of a zip archive.
func zipEntry(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%s not found in archive", name)
}

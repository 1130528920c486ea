package loader

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/xuri/excelize/v2"
)

func fileSource(path string) *models.Source {
	return &models.Source{ID: "src-1", Type: models.SourceTypeFile, Origin: path}
}

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_plainFile(t *testing.T) {
	path := writeFile(t, "notes.txt", []byte("Hello world\nLine 2"))
	got, err := New().Load(context.Background(), fileSource(path))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != "Hello world\nLine 2" {
		t.Errorf("got %q", got)
	}
}

func TestLoad_plainInvalidUTF8(t *testing.T) {
	path := writeFile(t, "notes.md", []byte("hello\x80world"))
	got, err := New().Load(context.Background(), fileSource(path))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != "hello�world" {
		t.Errorf("got %q", got)
	}
}

func TestLoad_csv(t *testing.T) {
	path := writeFile(t, "data.csv", []byte("name,score\nalpha,1\nbeta,2\n"))
	got, err := New().Load(context.Background(), fileSource(path))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := "name\tscore\nalpha\t1\nbeta\t2"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLoad_excel(t *testing.T) {
	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "Title")
	f.SetCellValue("Sheet1", "A2", "Value 1")
	f.SetCellValue("Sheet1", "B2", "Value 2")
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	f.Close()

	path := writeFile(t, "data.xlsx", buf.Bytes())
	got, err := New().Load(context.Background(), fileSource(path))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != "Title\nValue 1\tValue 2" {
		t.Errorf("got %q", got)
	}
}

// minimalDocx builds a .docx zip whose main document holds text inside
// <w:t> runs.
func minimalDocx(text string) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, _ := w.Create("word/document.xml")
	fw.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p w:rsidR="00A"><w:r><w:t>` + text + `</w:t></w:r></w:p></w:body></w:document>`))
	w.Close()
	return buf.Bytes()
}

func TestLoad_docx(t *testing.T) {
	path := writeFile(t, "report.docx", minimalDocx("Quarterly figures"))
	got, err := New().Load(context.Background(), fileSource(path))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != "Quarterly figures" {
		t.Errorf("got %q", got)
	}
}

func TestLoad_docxContentTypesAnyAttributeOrder(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	ct, _ := w.Create("[Content_Types].xml")
	ct.Write([]byte(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Override ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml" PartName="/word/document2.xml"/>
</Types>`))
	fw, _ := w.Create("word/document2.xml")
	fw.Write([]byte(`<w:document><w:body><w:p><w:r><w:t>From document2</w:t></w:r></w:p></w:body></w:document>`))
	w.Close()

	path := writeFile(t, "report.docx", buf.Bytes())
	got, err := New().Load(context.Background(), fileSource(path))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != "From document2" {
		t.Errorf("got %q", got)
	}
}

func TestLoad_pptx(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	s1, _ := w.Create("ppt/slides/slide1.xml")
	s1.Write([]byte(`<p:sld><a:p><a:r><a:t>First slide</a:t></a:r></a:p></p:sld>`))
	s2, _ := w.Create("ppt/slides/slide2.xml")
	s2.Write([]byte(`<p:sld><a:p><a:r><a:t>Second slide</a:t></a:r></a:p></p:sld>`))
	w.Close()

	path := writeFile(t, "deck.pptx", buf.Bytes())
	got, err := New().Load(context.Background(), fileSource(path))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != "First slide Second slide" {
		t.Errorf("got %q", got)
	}
}

func TestLoad_openDocument(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, _ := w.Create("content.xml")
	fw.Write([]byte(`<office:document><office:body><text:h>Heading</text:h><text:p>Body text</text:p></office:body></office:document>`))
	w.Close()

	path := writeFile(t, "pres.odp", buf.Bytes())
	got, err := New().Load(context.Background(), fileSource(path))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != "Heading Body text" {
		t.Errorf("got %q", got)
	}
}

func TestLoad_unsupportedExtension(t *testing.T) {
	path := writeFile(t, "image.png", []byte{0x89, 0x50, 0x4e, 0x47})
	_, err := New().Load(context.Background(), fileSource(path))
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected LoadError, got %v", err)
	}
}

func TestLoad_blankFileIsLoadError(t *testing.T) {
	path := writeFile(t, "empty.txt", []byte("   \n\t\n"))
	_, err := New().Load(context.Background(), fileSource(path))
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected LoadError for blank content, got %v", err)
	}
}

func TestLoad_missingFile(t *testing.T) {
	_, err := New().Load(context.Background(), fileSource("/nonexistent/file.txt"))
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected LoadError, got %v", err)
	}
}

func TestLoad_linkFetchesPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Release Notes</title><style>p{color:red}</style></head>
<body><p>Version 2 shipped.</p><script>track()</script></body></html>`))
	}))
	defer srv.Close()

	src := &models.Source{ID: "lnk-1", Type: models.SourceTypeLink, Origin: srv.URL}
	got, err := New().Load(context.Background(), src)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !strings.HasPrefix(got, "Title: Release Notes") {
		t.Errorf("expected Title preamble, got %q", got)
	}
	if !strings.Contains(got, "Version 2 shipped.") {
		t.Errorf("expected body text, got %q", got)
	}
	if strings.Contains(got, "track()") || strings.Contains(got, "color:red") {
		t.Errorf("script/style content leaked into %q", got)
	}
}

func TestLoad_linkPrefersTranscript(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("transcript present, page should not be fetched")
	}))
	defer srv.Close()

	dir := t.TempDir()
	transcript := "Title: Talk on Indexing\n\nWelcome to the talk."
	if err := os.WriteFile(filepath.Join(dir, "lnk-2.txt"), []byte(transcript), 0600); err != nil {
		t.Fatal(err)
	}

	l := New(WithTranscriptsDir(dir))
	src := &models.Source{ID: "lnk-2", Type: models.SourceTypeLink, Origin: srv.URL}
	got, err := l.Load(context.Background(), src)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != transcript {
		t.Errorf("got %q, want transcript content", got)
	}
}

func TestLoad_linkNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	src := &models.Source{ID: "lnk-3", Type: models.SourceTypeLink, Origin: srv.URL}
	_, err := New().Load(context.Background(), src)
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected LoadError, got %v", err)
	}
}

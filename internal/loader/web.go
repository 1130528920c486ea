package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
)

// maxPageBytes caps how much of a fetched page is read.
const maxPageBytes = 10 << 20

var (
	titleTag      = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	scriptBlock   = regexp.MustCompile(`(?is)<(script|style|noscript)[^>]*>.*?</(?:script|style|noscript)>`)
	htmlComment   = regexp.MustCompile(`(?s)<!--.*?-->`)
	blockCloseTag = regexp.MustCompile(`(?i)</(p|div|li|h[1-6]|tr|br|section|article)>|<br\s*/?>`)
	anyTag        = regexp.MustCompile(`<[^>]+>`)
)

// fetchPage downloads url and reduces it to readable text. The page title,
// when present, is emitted as a leading "Title:" line so downstream
// display-name resolution can pick it up.
func (l *Loader) fetchPage(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "kotae/1.0")
	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	page := loadPlain(body)

	var buf strings.Builder
	if m := titleTag.FindStringSubmatch(page); m != nil {
		if title := strings.TrimSpace(stripTags(m[1])); title != "" {
			buf.WriteString("Title: ")
			buf.WriteString(title)
			buf.WriteString("\n\n")
		}
	}
	buf.WriteString(stripTags(page))
	return buf.String(), nil
}

// stripTags removes markup from html, keeping block boundaries as line
// breaks so the cleaner can work on line structure.
func stripTags(html string) string {
	text := scriptBlock.ReplaceAllString(html, " ")
	text = htmlComment.ReplaceAllString(text, " ")
	text = blockCloseTag.ReplaceAllString(text, "\n")
	text = anyTag.ReplaceAllString(text, " ")
	lines := strings.Split(text, "\n")
	var buf strings.Builder
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(line)
	}
	return buf.String()
}

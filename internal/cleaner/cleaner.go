// Package cleaner normalizes extracted text before chunking.
package cleaner

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	pageNumberLine = regexp.MustCompile(`^\d+$`)
	pageOfLine     = regexp.MustCompile(`(?i)^page \d+ of \d+$`)
	copyrightLine  = regexp.MustCompile(`^©.*\d{4}.*$`)
	htmlEntity     = regexp.MustCompile(`&[a-zA-Z]+;`)
	ellipsisRun    = regexp.MustCompile(`\.{3,}`)
)

// Clean normalizes whitespace and strips common document boilerplate:
// standalone page numbers, "Page N of M" lines, copyright lines, HTML
// entities, and runs of dots. Line structure is preserved so marker lines
// such as "Title:" survive cleaning. Returns "" for blank input.
func Clean(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = collapseSpaces(strings.TrimSpace(line))
		if line == "" {
			continue
		}
		if pageNumberLine.MatchString(line) || pageOfLine.MatchString(line) || copyrightLine.MatchString(line) {
			continue
		}
		line = htmlEntity.ReplaceAllString(line, " ")
		line = ellipsisRun.ReplaceAllString(line, "...")
		line = collapseSpaces(strings.TrimSpace(line))
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}

// collapseSpaces replaces runs of whitespace within a line with single spaces.
func collapseSpaces(s string) string {
	var b strings.Builder
	wasSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !wasSpace {
				b.WriteRune(' ')
				wasSpace = true
			}
		} else {
			b.WriteRune(r)
			wasSpace = false
		}
	}
	return b.String()
}

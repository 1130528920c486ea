package rag

import (
	"fmt"
	"strings"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/pkg/utils"
)

// unknownSourceName is the final display-name fallback.
const unknownSourceName = "Unknown source"

// previewLength caps citation previews.
const previewLength = 200

// GroupBySource collapses retrieved chunks into one SourceGroup per
// distinct source_id, preserving the first-encounter order of source IDs.
// That order becomes citation order.
func GroupBySource(chunks []models.RetrievedChunk) []models.SourceGroup {
	byID := make(map[string]int)
	var groups []models.SourceGroup
	for _, chunk := range chunks {
		i, seen := byID[chunk.SourceID]
		if !seen {
			i = len(groups)
			byID[chunk.SourceID] = i
			groups = append(groups, models.SourceGroup{
				SourceID:   chunk.SourceID,
				SourceType: metadataString(chunk.Metadata, "source_type"),
			})
		}
		g := &groups[i]
		g.Chunks = append(g.Chunks, chunk)
		if chunk.Score > g.MaxScore {
			g.MaxScore = chunk.Score
		}
	}
	for i := range groups {
		groups[i].DisplayName = resolveDisplayName(&groups[i])
	}
	return groups
}

// resolveDisplayName picks a human-readable name for a group: the filename
// metadata when present, then a "Title:" line in the chunk text for
// transcript-backed links, then the source URL or path, and finally a
// fixed placeholder.
func resolveDisplayName(g *models.SourceGroup) string {
	for _, chunk := range g.Chunks {
		if name := metadataString(chunk.Metadata, "filename"); name != "" {
			return name
		}
	}
	if g.SourceType == string(models.SourceTypeLink) {
		if title := extractTitle(g.Chunks); title != "" {
			return title
		}
	}
	for _, key := range []string{"url", "path"} {
		for _, chunk := range g.Chunks {
			if v := metadataString(chunk.Metadata, key); v != "" {
				return v
			}
		}
	}
	return unknownSourceName
}

// extractTitle scans the concatenated chunk text for a "Title:" line.
func extractTitle(chunks []models.RetrievedChunk) string {
	var texts []string
	for _, c := range chunks {
		texts = append(texts, c.Text)
	}
	for _, line := range strings.Split(strings.Join(texts, "\n"), "\n") {
		line = strings.TrimSpace(line)
		if after, ok := strings.CutPrefix(line, "Title:"); ok {
			if title := strings.TrimSpace(after); title != "" {
				return title
			}
		}
	}
	return ""
}

// BuildCitations assigns numbers 1..N to groups in order.
func BuildCitations(groups []models.SourceGroup) []models.Citation {
	citations := make([]models.Citation, 0, len(groups))
	for i, g := range groups {
		citations = append(citations, models.Citation{
			Number:     i + 1,
			SourceID:   g.SourceID,
			Name:       g.DisplayName,
			Type:       g.SourceType,
			URLOrPath:  groupOrigin(&g),
			Score:      g.MaxScore,
			ChunkCount: len(g.Chunks),
			Preview:    utils.Truncate(groupText(&g), previewLength),
		})
	}
	return citations
}

// BuildContext renders the groups as the numbered context blocks handed to
// the LLM: "[n] <type>: <name>:" followed by the group's chunk texts,
// blocks separated by a blank line.
func BuildContext(groups []models.SourceGroup) string {
	blocks := make([]string, 0, len(groups))
	for i, g := range groups {
		var b strings.Builder
		fmt.Fprintf(&b, "[%d] %s: %s:\n", i+1, g.SourceType, g.DisplayName)
		for j, chunk := range g.Chunks {
			if j > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(chunk.Text)
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

func groupOrigin(g *models.SourceGroup) string {
	for _, key := range []string{"url", "path"} {
		for _, chunk := range g.Chunks {
			if v := metadataString(chunk.Metadata, key); v != "" {
				return v
			}
		}
	}
	return ""
}

func groupText(g *models.SourceGroup) string {
	var texts []string
	for _, c := range g.Chunks {
		texts = append(texts, c.Text)
	}
	return strings.Join(texts, " ")
}

func metadataString(meta map[string]interface{}, key string) string {
	if meta == nil {
		return ""
	}
	if v, ok := meta[key].(string); ok {
		return v
	}
	return ""
}

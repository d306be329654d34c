package resolver

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/helpdesk-kb/kbresolver/internal/corpus"
)

var (
	whitespaceRe  = regexp.MustCompile(`\s+`)
	timestampRe   = regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4},?\s+\d{1,2}:\d{2}`)
	urlRe         = regexp.MustCompile(`https?://[^\s]+`)
	pipeRe        = regexp.MustCompile(`\|[^|]*\|`)
	parentheticRe = regexp.MustCompile(`\([^)]*\)`)
	specialCharRe = regexp.MustCompile(`[^\w\s.,!?-]`)
	sentenceEndRe = regexp.MustCompile(`[.!?]+`)
)

const (
	minCleanedLength  = 50
	minSentenceLength = 10
	minFormattedLen   = 100
	fallbackWordCount = 50
)

// FormatChunkText turns raw extracted text into a short readable excerpt of
// at most roughly maxLength characters.
func FormatChunkText(raw string, maxLength int) string {
	basic := strings.TrimSpace(whitespaceRe.ReplaceAllString(raw, " "))

	cleaned := timestampRe.ReplaceAllString(basic, "")
	cleaned = urlRe.ReplaceAllString(cleaned, "")
	cleaned = pipeRe.ReplaceAllString(cleaned, "")
	cleaned = parentheticRe.ReplaceAllString(cleaned, "")
	cleaned = specialCharRe.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)

	if runeLen(cleaned) < minCleanedLength {
		cleaned = basic
	}

	var result strings.Builder
	for _, sentence := range sentenceEndRe.Split(cleaned, -1) {
		sentence = strings.TrimSpace(sentence)
		if runeLen(sentence) <= minSentenceLength {
			continue
		}
		if runeLen(result.String())+runeLen(sentence)+1 > maxLength {
			break
		}
		if result.Len() > 0 {
			result.WriteString(". ")
		}
		result.WriteString(sentence)
	}

	excerpt := result.String()
	if runeLen(excerpt) < minFormattedLen {
		words := strings.Split(cleaned, " ")
		excerpt = strings.Join(words[:min(fallbackWordCount, len(words))], " ")
	}

	if runeLen(excerpt) < runeLen(cleaned) {
		excerpt += "..."
	}
	if excerpt == "" {
		return truncateRunes(cleaned, maxLength) + "..."
	}
	return excerpt
}

// FormatChunkResponse renders a document chunk answer with its provenance
// footer.
func FormatChunkResponse(chunk *corpus.DocumentChunk, maxLength int) string {
	return fmt.Sprintf("%s\n\n*Source: %s (Part %d/%d)*",
		FormatChunkText(chunk.Content, maxLength), chunk.Source, chunk.ChunkIndex, chunk.TotalChunks)
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func truncateRunes(s string, n int) string {
	if runeLen(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

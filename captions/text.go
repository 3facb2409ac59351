// Package captions resolves, derives and serializes the caption track.
package captions

import (
	"regexp"
	"strings"
	"unicode"

	"reelsmith/config"
	"reelsmith/types"
)

var (
	linkPattern    = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	hashtagPattern = regexp.MustCompile(`(^|\s)#[\p{L}\p{N}_]+`)
	bulletPattern  = regexp.MustCompile(`^\s*(?:[-*+>]|\d+[.)])\s+`)
	markupPattern  = regexp.MustCompile("[*_`~#]+")
	spacePattern   = regexp.MustCompile(`\s+`)
)

// ParseLines splits caption file contents into non-empty trimmed lines
func ParseLines(content string) []string {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n") {
		if l := strings.TrimSpace(line); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// Entries derives an untimed caption entry from every line. Lines whose
// spoken form is empty (pure emoji or hashtags) keep their display text and
// are spoken as silence.
func Entries(lines []string) []types.CaptionEntry {
	entries := make([]types.CaptionEntry, 0, len(lines))
	for _, l := range lines {
		display := DisplayText(l)
		if display == "" {
			continue
		}
		entries = append(entries, types.CaptionEntry{
			VoiceText:   VoiceText(l),
			DisplayText: display,
		})
	}
	return entries
}

// VoiceText is the form of line sent to speech synthesis: markdown, hashtags
// and emoji removed.
func VoiceText(line string) string {
	s := linkPattern.ReplaceAllString(line, "$1")
	s = bulletPattern.ReplaceAllString(s, "")
	s = hashtagPattern.ReplaceAllString(s, "$1")
	s = markupPattern.ReplaceAllString(s, "")
	s = strings.Map(func(r rune) rune {
		if isEmoji(r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}

// DisplayText is the on-screen form of line, truncated to fit one subtitle row
func DisplayText(line string) string {
	s := strings.TrimSpace(bulletPattern.ReplaceAllString(line, ""))
	s = spacePattern.ReplaceAllString(s, " ")
	return truncate(s, config.MaxDisplayRunes)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max-1])) + "…"
}

func isEmoji(r rune) bool {
	switch {
	case r == 0x200D || r == 0xFE0F || r == 0x20E3:
		return true
	case r >= 0x1F000 && r <= 0x1FAFF:
		return true
	case r >= 0x2600 && r <= 0x27BF:
		return true
	case r >= 0x1F1E6 && r <= 0x1F1FF:
		return true
	}
	return unicode.Is(unicode.So, r)
}

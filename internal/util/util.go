// internal/util/util.go
package util

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// WriteFile writes data with 0o644 permissions, creating parent directories.
func WriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// TruncateRunes shortens text to maxRunes runes and appends an ellipsis when
// anything was cut. Newlines are flattened so table cells stay on one line.
func TruncateRunes(text string, maxRunes int) string {
	text = strings.Join(strings.Fields(text), " ")
	if maxRunes <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	return string([]rune(text)[:maxRunes]) + "…"
}

// WrapToWidth wraps each paragraph of text at width runes. Words longer than
// width are split. Blank lines are kept.
func WrapToWidth(text string, width int) string {
	if width <= 0 {
		return text
	}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		out = append(out, wrapLine(line, width)...)
	}
	return strings.Join(out, "\n")
}

func wrapLine(line string, width int) []string {
	words := strings.Fields(line)
	if len(words) == 0 {
		return []string{""}
	}

	var (
		lines []string
		cur   []rune
	)
	flush := func() {
		if len(cur) > 0 {
			lines = append(lines, string(cur))
			cur = cur[:0]
		}
	}
	for _, w := range words {
		word := []rune(w)
		switch {
		case len(cur) > 0 && len(cur)+1+len(word) <= width:
			cur = append(cur, ' ')
			cur = append(cur, word...)
		case len(word) <= width:
			flush()
			cur = append(cur, word...)
		default:
			flush()
			for len(word) > width {
				lines = append(lines, string(word[:width]))
				word = word[width:]
			}
			cur = append(cur, word...)
		}
	}
	flush()
	return lines
}

package extract

import (
	"strconv"
	"strings"
)

// SummaryLine returns the first non-empty line of text that is not a markdown
// heading, cut to maxRunes runes. It returns "" when there is none.
func SummaryLine(text string, maxRunes int) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if maxRunes > 0 {
			if r := []rune(line); len(r) > maxRunes {
				line = string(r[:maxRunes])
			}
		}
		return line
	}
	return ""
}

// RenderPagePrompt fills the {page_number}, {total_pages} and {previous_summary} placeholders.
func RenderPagePrompt(tmpl string, page, total int, previousSummary string) string {
	return strings.NewReplacer(
		"{page_number}", strconv.Itoa(page),
		"{total_pages}", strconv.Itoa(total),
		"{previous_summary}", previousSummary,
	).Replace(tmpl)
}

package boundary

import (
	"regexp"
	"strconv"
	"strings"

	"smartsplit/internal/domain"
)

var pageNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^page\s+(\d{1,4})(?:\s+of\s+\d{1,4})?$`),
	regexp.MustCompile(`^-\s*(\d{1,4})\s*-$`),
	regexp.MustCompile(`^(\d{1,4})\s*/\s*\d{1,4}$`),
	regexp.MustCompile(`^(\d{1,4})$`),
}

// PageNumber looks for a printed page number in the last tailLines lines of the
// page text, bottom-up, then in the page's first lines.
func PageNumber(p domain.PageFeatures, tailLines int) (int, bool) {
	lines := nonEmptyLines(p.Text)
	start := len(lines) - tailLines
	if start < 0 {
		start = 0
	}
	for i := len(lines) - 1; i >= start; i-- {
		if n, ok := parsePageNumber(lines[i]); ok {
			return n, true
		}
	}
	for _, l := range p.FirstLines {
		if n, ok := parsePageNumber(l); ok {
			return n, true
		}
	}
	return 0, false
}

func parsePageNumber(line string) (int, bool) {
	line = strings.TrimSpace(line)
	for _, re := range pageNumberPatterns {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return n, true
	}
	return 0, false
}

func nonEmptyLines(text string) []string {
	var out []string
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

package content

import (
	"regexp"
	"strings"
)

// DefaultTitlePattern matches a 【…】 lead-in at the very start of a body.
// Group 1 is the title, group 2 the remainder.
var DefaultTitlePattern = regexp.MustCompile(`(?s)^\s*(【.*?】)\s*(.*)`)

// SplitTitle returns title and body unchanged when an explicit title exists.
// Otherwise a leading bracketed segment becomes the title.
func (t *Transformer) SplitTitle(title, body string) (string, string) {
	return splitTitle(t.title, title, body)
}

func splitTitle(re *regexp.Regexp, title, body string) (string, string) {
	if strings.TrimSpace(title) != "" {
		return title, body
	}
	m := re.FindStringSubmatch(body)
	if len(m) < 3 {
		return "", body
	}
	return m[1], m[2]
}

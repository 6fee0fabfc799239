package nutrition

import (
	"regexp"
	"strconv"
)

var servingsPattern = regexp.MustCompile(`\d+`)

// ParseServings reads the first run of digits from a free-text servings
// field ("Serves 4-6" is 4). Nil, empty, digitless and zero all give 1.
func ParseServings(text *string) int {
	if text == nil {
		return 1
	}
	return ParseServingsString(*text)
}

// ParseServingsString is ParseServings for a plain string
func ParseServingsString(text string) int {
	m := servingsPattern.FindString(text)
	if m == "" {
		return 1
	}
	n, err := strconv.Atoi(m)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

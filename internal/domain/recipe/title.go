package recipe

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// FallbackTitle is used when neither of the first two lines qualifies.
	FallbackTitle = "Generated Recipe (title not extracted)"
	// EmptyTextTitle is used when the generated text is blank.
	EmptyTextTitle = "Generated Recipe (empty text)"
)

var markdownMarkers = regexp.MustCompile(`^[*#]+\s*|\s*[*#]+$`)

// ExtractTitle derives a display title from generated text. The first line
// wins when its marker-stripped length is strictly between 3 and 80 runes;
// the second line is only tried when the first was too short or is the
// bare word "recipe".
func ExtractTitle(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return EmptyTextTitle
	}

	lines := strings.Split(text, "\n")
	first := titleCandidate(lines[0])
	if acceptableTitle(first) {
		return first
	}

	if len(lines) > 1 && (utf8.RuneCountInString(first) <= 3 || strings.EqualFold(first, "recipe")) {
		if second := titleCandidate(lines[1]); acceptableTitle(second) {
			return second
		}
	}

	return FallbackTitle
}

func titleCandidate(line string) string {
	return markdownMarkers.ReplaceAllString(strings.TrimSpace(line), "")
}

func acceptableTitle(s string) bool {
	n := utf8.RuneCountInString(s)
	return n > 3 && n < 80
}

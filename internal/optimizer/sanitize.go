package optimizer

import (
	"regexp"
	"strings"
)

var (
	codeFencePattern  = regexp.MustCompile("(?s)^```[a-zA-Z]*\\n?(.*?)\\n?```$")
	multiSpacePattern = regexp.MustCompile(`\s{2,}`)
)

// SanitizeResponse cleans a raw model response: strip a Markdown code-fence
// wrapper, strip a single layer of surrounding quotes, then mechanically
// remove every denylisted word. The mechanical strip runs regardless of what
// the prompt instructed; model compliance with negative-word instructions is
// not reliable.
func SanitizeResponse(text string, negativeWords []string) string {
	text = strings.TrimSpace(text)

	if m := codeFencePattern.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}

	text = stripQuotes(text)
	text = RemoveNegativeWords(text, negativeWords)
	return text
}

// RemoveNegativeWords deletes whole-word, case-insensitive occurrences of
// each denylisted word and collapses the resulting double spaces.
func RemoveNegativeWords(text string, words []string) string {
	if len(words) == 0 || text == "" {
		return text
	}

	quoted := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w != "" {
			quoted = append(quoted, regexp.QuoteMeta(w))
		}
	}
	if len(quoted) == 0 {
		return text
	}

	pattern, err := regexp.Compile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)
	if err != nil {
		return text
	}

	text = pattern.ReplaceAllString(text, "")
	text = multiSpacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

func stripQuotes(text string) string {
	if len(text) >= 2 {
		first, last := text[0], text[len(text)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return text[1 : len(text)-1]
		}
	}
	return text
}

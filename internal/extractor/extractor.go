package extractor

import "regexp"

var genericFence = regexp.MustCompile("(?s)```(?:[\\w+#.-]*\\n)?(.*?)```")

// taggedFence returns the pattern for a block opened with "```<languageID>\n".
func taggedFence(languageID string) *regexp.Regexp {
	return regexp.MustCompile("(?s)```" + regexp.QuoteMeta(languageID) + "\\n(.*?)```")
}

// Extract returns the body of the first fenced block tagged with languageID,
// else the body of the first fenced block of any kind, else text unchanged.
func Extract(text, languageID string) string {
	if m := taggedFence(languageID).FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if m := genericFence.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return text
}

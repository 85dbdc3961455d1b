package brain

import (
	"regexp"
	"strings"
)

// speakerTagPattern matches a transcript-style speaker prefix that models
// sometimes echo back at the start of a reply.
// Examples: "[Gemini] ", "3. [Grok]", "  [GPT]  "
var speakerTagPattern = regexp.MustCompile(`^\s*(?:\d+\.\s*)?\[[^\]\n]{1,40}\]`)

// SanitizeReply removes echoed speaker tags from the front of a reply.
// Tags later in the text and leading markdown links are left alone.
// Returns the cleaned content and the number of tags stripped.
func SanitizeReply(content string) (string, int) {
	count := 0
	for {
		loc := speakerTagPattern.FindStringIndex(content)
		if loc == nil || strings.HasPrefix(content[loc[1]:], "(") {
			break
		}
		content = strings.TrimLeft(content[loc[1]:], " \t\n")
		count++
	}
	if count == 0 {
		return content, 0
	}
	return strings.TrimSpace(content), count
}

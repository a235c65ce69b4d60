package harvest

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// bbcodeTag matches Steam's markup tags such as [b], [/spoiler] and [url=...].
var bbcodeTag = regexp.MustCompile(`(?i)\[/?(?:h[1-3]|b|i|u|s|strike|spoiler|noparse|hr|code|quote|list|olist|table|tr|th|td|\*|url|img|previewyoutube)(?:=[^\]]*)?\]`)

// Sanitizer turns raw review markup into plain text.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer creates a Sanitizer that strips all HTML.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// Clean removes HTML and BBCode and collapses whitespace.
func (s *Sanitizer) Clean(text string) string {
	text = bbcodeTag.ReplaceAllString(text, " ")
	text = html.UnescapeString(s.policy.Sanitize(text))
	return strings.Join(strings.Fields(text), " ")
}

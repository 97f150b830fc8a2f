// Package markup sanitizes the optional per-task markup payload before it is
// stored and renders it for terminal display.
package markup

import (
	"html"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/microcosm-cc/bluemonday"
)

// Policy selects how much markup survives sanitization.
type Policy string

const (
	// PolicyStrict removes every tag, leaving escaped text.
	PolicyStrict Policy = "strict"
	// PolicyUGC keeps the safe formatting subset used for user content.
	PolicyUGC Policy = "ugc"
)

// Policies lists the accepted policy names.
var Policies = []Policy{PolicyStrict, PolicyUGC}

func (p Policy) IsValid() bool {
	return p == PolicyStrict || p == PolicyUGC
}

// Sanitizer filters markup payloads. It is safe for concurrent use.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer returns a sanitizer for p. Unknown policies fall back to strict.
func NewSanitizer(p Policy) *Sanitizer {
	if p == PolicyUGC {
		return &Sanitizer{policy: bluemonday.UGCPolicy()}
	}
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// Sanitize returns the filtered payload with surrounding whitespace removed.
func (s *Sanitizer) Sanitize(payload string) string {
	if payload == "" {
		return ""
	}
	return strings.TrimSpace(s.policy.Sanitize(payload))
}

const defaultWrap = 80

// Render formats a stored payload for a terminal of the given width.
// Remaining tags are stripped and entities decoded before the text is
// rendered as markdown without colors.
func Render(payload string, width int) (string, error) {
	if strings.TrimSpace(payload) == "" {
		return "", nil
	}
	if width <= 0 {
		width = defaultWrap
	}

	text := html.UnescapeString(bluemonday.StrictPolicy().Sanitize(payload))

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("notty"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}

	out, err := r.Render(text)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

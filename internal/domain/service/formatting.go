package service

import (
	"fmt"
	"strings"
)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

var markupStripper = strings.NewReplacer(
	"<b>", "", "</b>", "",
	"<i>", "", "</i>", "",
	"<u>", "", "</u>", "",
)

// EscapeHTML escapes markup-significant characters. It is not idempotent:
// an already escaped "&amp;" becomes "&amp;amp;".
func EscapeHTML(text string) string {
	return htmlEscaper.Replace(text)
}

// FormatToggles are the per-session bold/italic/underline switches.
type FormatToggles struct {
	Bold      bool `json:"bold"`
	Italic    bool `json:"italic"`
	Underline bool `json:"underline"`
}

func (t *FormatToggles) Toggle(name string) error {
	switch name {
	case "bold":
		t.Bold = !t.Bold
	case "italic":
		t.Italic = !t.Italic
	case "underline":
		t.Underline = !t.Underline
	default:
		return fmt.Errorf("unknown format toggle %q", name)
	}
	return nil
}

func (t *FormatToggles) Reset() {
	*t = FormatToggles{}
}

// ApplyFormatting wraps already escaped text. Bold is outermost, then
// italic, then underline.
func ApplyFormatting(escaped string, t FormatToggles) string {
	out := escaped
	if t.Underline {
		out = "<u>" + out + "</u>"
	}
	if t.Italic {
		out = "<i>" + out + "</i>"
	}
	if t.Bold {
		out = "<b>" + out + "</b>"
	}
	return out
}

// StripMarkup removes the formatting tags ApplyFormatting adds.
func StripMarkup(formatted string) string {
	return markupStripper.Replace(formatted)
}

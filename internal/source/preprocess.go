package source

import (
	"html"
	"strings"
	"unicode"

	"github.com/hyperjump/grantseek/pkg/utils"
)

// Preprocess normalizes text for embedding: HTML entities from upstream synopses are
// decoded, control and format characters dropped, and whitespace collapsed.
func Preprocess(text string) string {
	text = html.UnescapeString(text)
	text = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return ' '
		case unicode.IsControl(r), unicode.Is(unicode.Cf, r):
			return -1
		}
		return r
	}, text)
	return utils.CollapseSpace(text)
}

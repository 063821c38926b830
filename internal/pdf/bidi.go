package pdf

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/bidi"
)

// visual reorders a logical-order line into the left-to-right glyph order
// the page is drawn in, treating the paragraph as right-to-left. Lines with
// no Hebrew or Arabic letters are returned unchanged.
func visual(s string) string {
	if !hasRTL(s) {
		return s
	}

	var p bidi.Paragraph
	if _, err := p.SetString(s, bidi.DefaultDirection(bidi.RightToLeft)); err != nil {
		return s
	}

	o, err := p.Order()
	if err != nil || o.NumRuns() == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := o.NumRuns() - 1; i >= 0; i-- {
		run := o.Run(i)
		if run.Direction() == bidi.RightToLeft {
			b.WriteString(bidi.ReverseString(run.String()))
		} else {
			b.WriteString(run.String())
		}
	}

	return b.String()
}

func hasRTL(s string) bool {
	for _, r := range s {
		if unicode.In(r, unicode.Hebrew, unicode.Arabic) {
			return true
		}
	}

	return false
}

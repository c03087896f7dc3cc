package markdown

import "regexp"

// The fixed post-processing pass applied to every rendered body. Each
// rule repairs a markup defect that span-level rendering cannot see
// because it spans a span or paragraph boundary.
var (
	// Bidirectional control characters break spacing next to the text.
	bidiMarks = regexp.MustCompile("[‎‏‪-‮⁦-⁩]")

	// Non-breaking spaces are normalised to plain spaces.
	hardSpaces = regexp.MustCompile("[  ]")

	// A bold pair wrapping an italic pair (or the reverse) fuses into
	// the canonical bold-italic form.
	boldWrappingItalic = regexp.MustCompile(`\*\*\s*\*([^*]+)\*\s*\*\*`)
	italicWrappingBold = regexp.MustCompile(`\*\s*\*\*([^*]+)\*\*\s*\*`)

	// Runs of four or more emphasis markers collapse to the canonical
	// two- or three-marker form.
	emphasisRun = regexp.MustCompile(`\*{4,}`)

	// Stray whitespace between link brackets and emphasis markers.
	linkInnerSpacing = regexp.MustCompile(`\[(\*{2,3})\s*(.+?)\s*(\*{2,3})\]\(([^)]+)\)`)

	// Emphasis straddling a link moves inside the link text.
	tripleAroundLink = regexp.MustCompile(`\*\*\*\[([^\]]+)\]\(([^)]+)\)\*\*\*`)
	doubleAroundLink = regexp.MustCompile(`\*\*\[([^\]]+)\]\(([^)]+)\)\*\*`)
	singleAroundLink = regexp.MustCompile(`\*\[([^\]]+)\]\(([^)]+)\)\*`)

	// Directional quotation marks never keep a gap on their inner side.
	openQuoteGap  = regexp.MustCompile("([«„“‘])[ \t]+")
	closeQuoteGap = regexp.MustCompile("[ \t]+([»”’])")
)

// PostProcess applies the fixed repair pass to rendered markdown.
func PostProcess(text string) string {
	text = bidiMarks.ReplaceAllString(text, "")
	text = hardSpaces.ReplaceAllString(text, " ")

	text = boldWrappingItalic.ReplaceAllString(text, "***$1***")
	text = italicWrappingBold.ReplaceAllString(text, "***$1***")
	text = emphasisRun.ReplaceAllStringFunc(text, collapseRun)

	text = linkInnerSpacing.ReplaceAllString(text, "[$1$2$3]($4)")
	text = tripleAroundLink.ReplaceAllString(text, "[***$1***]($2)")
	text = doubleAroundLink.ReplaceAllString(text, "[**$1**]($2)")
	text = singleAroundLink.ReplaceAllString(text, "[*$1*]($2)")

	text = openQuoteGap.ReplaceAllString(text, "$1")
	text = closeQuoteGap.ReplaceAllString(text, "$1")
	return text
}

func collapseRun(run string) string {
	if len(run)%2 == 0 {
		return "**"
	}
	return "***"
}

package segment

import (
	"regexp"
	"strings"
)

var (
	bulletRe      = regexp.MustCompile(`(?m)^[\s]*[•●▪‣◦*·–—-]+[\s]*`)
	emailRe       = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phoneRe       = regexp.MustCompile(`(?:\+\d{1,3}[\s.-]?)?(?:\(\d{3}\)|\d{3})[\s.-]\d{3}[\s.-]\d{4}`)
	urlRe         = regexp.MustCompile(`(?i)\b(?:https?://|www\.)\S+`)
	repeatPunctRe = regexp.MustCompile(`!{2,}|\?{2,}|\.{2,}|,{2,}|;{2,}|:{2,}`)
	spaceRunRe    = regexp.MustCompile(`[ \t]+`)
	blankRunRe    = regexp.MustCompile(`\n{3,}`)
)

// Clean strips bullet glyphs, contact noise (emails, phones, URLs) and
// repeated punctuation, and collapses horizontal whitespace runs to single
// spaces. Newlines are preserved so entry boundaries survive cleaning.
func Clean(text string) string {
	out := bulletRe.ReplaceAllString(text, "")
	out = emailRe.ReplaceAllString(out, "")
	out = urlRe.ReplaceAllString(out, "")
	out = phoneRe.ReplaceAllString(out, "")
	out = repeatPunctRe.ReplaceAllStringFunc(out, func(m string) string { return m[:1] })
	out = spaceRunRe.ReplaceAllString(out, " ")
	out = blankRunRe.ReplaceAllString(out, "\n\n")

	lines := strings.Split(out, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

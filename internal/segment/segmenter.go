package segment

import (
	"regexp"
	"strings"
)

const (
	// DefaultSectionName labels documents too short to be worth segmenting.
	DefaultSectionName = "Main Content"
	// seedSectionName labels content preceding the first detected header.
	seedSectionName = "Introduction"

	minParagraphLen  = 20
	maxHeaderLen     = 50
	minSectionLen    = 30
	smallDocParas    = 3
)

// Section is a named region of document text in source order.
type Section struct {
	Name    string
	Content string
}

// headerRe matches a title-case header paragraph: capitalized first letter
// followed by letters and spaces only, at least three characters.
var headerRe = regexp.MustCompile(`^[A-Z][A-Za-z ]{2,}$`)

// paragraphSplitRe splits on blank-line boundaries.
var paragraphSplitRe = regexp.MustCompile(`\n[ \t]*\n`)

// Segment splits raw text into named sections using the generic paragraph
// heuristic. Documents with three or fewer significant paragraphs collapse
// into a single section named DefaultSectionName.
func Segment(text string) []Section {
	paragraphs := splitParagraphs(text)
	if len(paragraphs) == 0 {
		return nil
	}

	significant := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		if len(p) >= minParagraphLen {
			significant = append(significant, p)
		}
	}

	if len(significant) <= smallDocParas {
		return []Section{{
			Name:    DefaultSectionName,
			Content: strings.Join(paragraphs, "\n\n"),
		}}
	}

	var sections []Section
	current := seedSectionName
	var acc []string
	flush := func() {
		if len(acc) == 0 {
			return
		}
		sections = append(sections, Section{
			Name:    current,
			Content: strings.Join(acc, "\n\n"),
		})
		acc = nil
	}

	for _, p := range paragraphs {
		if len(p) < maxHeaderLen && headerRe.MatchString(p) {
			flush()
			current = p
			continue
		}
		if len(p) >= minParagraphLen {
			acc = append(acc, p)
		}
	}
	flush()

	return filterShortSections(sections)
}

// resumeHeading pairs a canonical section label with the heading patterns
// that introduce it. Patterns are matched per line, case-insensitively.
type resumeHeading struct {
	name string
	re   *regexp.Regexp
}

var resumeHeadings = []resumeHeading{
	{"Summary", regexp.MustCompile(`(?i)^\s*(professional\s+|career\s+)?(summary|profile|objective)\b`)},
	{"Experience", regexp.MustCompile(`(?i)^\s*(work\s+|professional\s+|employment\s+)?(experience|history)\b`)},
	{"Education", regexp.MustCompile(`(?i)^\s*education(al)?\b`)},
	{"Skills", regexp.MustCompile(`(?i)^\s*(technical\s+|core\s+|key\s+)?(skills|competencies)\b`)},
	{"Projects", regexp.MustCompile(`(?i)^\s*(personal\s+|selected\s+|key\s+)?projects?\b`)},
	{"Certifications", regexp.MustCompile(`(?i)^\s*(certifications?|licenses?)\b`)},
	{"Awards", regexp.MustCompile(`(?i)^\s*(awards?|honors?|achievements?)\b`)},
}

// SegmentResume cuts section boundaries at lines matching conventional resume
// headings; lines between matches belong to the preceding heading's section.
// When no heading matches anywhere, it falls back to the paragraph heuristic.
func SegmentResume(text string) []Section {
	lines := strings.Split(text, "\n")

	var sections []Section
	current := seedSectionName
	var acc []string
	matched := false
	flush := func() {
		content := strings.TrimSpace(strings.Join(acc, "\n"))
		if content != "" {
			sections = append(sections, Section{Name: current, Content: content})
		}
		acc = nil
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if name, ok := matchResumeHeading(trimmed); ok {
			matched = true
			flush()
			current = name
			continue
		}
		acc = append(acc, line)
	}
	flush()

	if !matched {
		return Segment(text)
	}
	return filterShortSections(sections)
}

func matchResumeHeading(line string) (string, bool) {
	// Headings are short lines; a paragraph that merely starts with a
	// keyword is body text, not a boundary.
	if line == "" || len(line) >= maxHeaderLen {
		return "", false
	}
	for _, h := range resumeHeadings {
		if h.re.MatchString(line) {
			return h.name, true
		}
	}
	return "", false
}

func splitParagraphs(text string) []string {
	raw := paragraphSplitRe.Split(text, -1)
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func filterShortSections(sections []Section) []Section {
	out := sections[:0]
	for _, s := range sections {
		if len(s.Content) >= minSectionLen {
			out = append(out, s)
		}
	}
	return out
}

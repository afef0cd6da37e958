package segment

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

const (
	minEntryLen     = 30
	minEducationLen = 15
)

// Entry is one embeddable subsection candidate produced from a section.
type Entry struct {
	Title   string
	Content string
}

// Split cleans the section content once, resolves the section kind, and
// dispatches to that kind's splitting strategy. Output order follows source
// order.
func Split(sectionName, content string) []Entry {
	cleaned := Clean(content)
	if cleaned == "" {
		return nil
	}
	switch KindOf(sectionName) {
	case KindExperience:
		return splitExperience(cleaned)
	case KindProjects:
		return splitProjects(cleaned)
	case KindEducation:
		return splitEducation(cleaned)
	case KindSkills:
		return splitSkills(cleaned)
	default:
		return []Entry{{Title: sectionName, Content: cleaned}}
	}
}

// patternFamily is one surface form of a structural entry. Families apply in
// declared order; an earlier family's match consumes its span so later
// families cannot claim overlapping text.
type patternFamily struct {
	re    *regexp.Regexp
	title func(groups []string) string
}

type structMatch struct {
	start, end int
	title      string
}

// findStructural applies the families in priority order over the content,
// skipping matches that overlap an already-consumed span, and returns the
// accepted matches in source order.
func findStructural(content string, families []patternFamily) []structMatch {
	var accepted []structMatch
	overlaps := func(start, end int) bool {
		for _, m := range accepted {
			if start < m.end && end > m.start {
				return true
			}
		}
		return false
	}

	for _, fam := range families {
		for _, idx := range fam.re.FindAllStringSubmatchIndex(content, -1) {
			start, end := idx[0], idx[1]
			if overlaps(start, end) {
				continue
			}
			groups := make([]string, len(idx)/2)
			for g := 0; g < len(idx)/2; g++ {
				if idx[2*g] >= 0 {
					groups[g] = content[idx[2*g]:idx[2*g+1]]
				}
			}
			accepted = append(accepted, structMatch{
				start: start,
				end:   end,
				title: fam.title(groups),
			})
		}
	}

	sort.Slice(accepted, func(i, j int) bool { return accepted[i].start < accepted[j].start })
	return accepted
}

var experienceFamilies = []patternFamily{
	// "Senior Engineer at Acme Corp, 2020 - 2023"
	{
		re: regexp.MustCompile(`(?m)^[ \t]*([A-Za-z][A-Za-z0-9 /&.+#-]{2,60}?) at ([A-Z][A-Za-z0-9 &.'-]{1,60}?)(?:[ \t]*[,|–—-][ \t]*([^\n]*\d{4}[^\n]*))?$`),
		title: func(g []string) string {
			return fmt.Sprintf("%s at %s", strings.TrimSpace(g[1]), strings.TrimSpace(g[2]))
		},
	},
	// "Acme Corp | Senior Engineer | 2020 - 2023"
	{
		re: regexp.MustCompile(`(?m)^[ \t]*([^|\n]{2,60}?)[ \t]*\|[ \t]*([^|\n]{2,60}?)[ \t]*\|[ \t]*([^|\n]{2,40}?)[ \t]*$`),
		title: func(g []string) string {
			return fmt.Sprintf("%s at %s", strings.TrimSpace(g[2]), strings.TrimSpace(g[1]))
		},
	},
	// "Acme Corp - Senior Engineer (2020 - 2023)"
	{
		re: regexp.MustCompile(`(?m)^[ \t]*([A-Z][A-Za-z0-9 &.']{1,60}?)[ \t]*[–—-][ \t]*([A-Za-z][A-Za-z0-9 /&.+#-]{2,60}?)[ \t]*\(([^)\n]*\d{4}[^)\n]*)\)[ \t]*$`),
		title: func(g []string) string {
			return fmt.Sprintf("%s at %s", strings.TrimSpace(g[2]), strings.TrimSpace(g[1]))
		},
	},
}

func splitExperience(content string) []Entry {
	matches := findStructural(content, experienceFamilies)
	if len(matches) == 0 {
		return paragraphEntries(content, "Experience Entry")
	}

	var entries []Entry
	prevEnd := 0
	for _, m := range matches {
		if gap := strings.TrimSpace(content[prevEnd:m.start]); len(gap) >= minEntryLen {
			entries = append(entries, Entry{Title: "Previous Role", Content: gap})
		}
		entries = append(entries, Entry{
			Title:   m.title,
			Content: strings.TrimSpace(content[m.start:m.end]),
		})
		prevEnd = m.end
	}
	if tail := strings.TrimSpace(content[prevEnd:]); len(tail) >= minEntryLen {
		entries = append(entries, Entry{Title: "Previous Role", Content: tail})
	}
	return entries
}

var projectFamilies = []patternFamily{
	// "Project Name: short description of what it does"
	{
		re: regexp.MustCompile(`(?m)^[ \t]*([A-Z][A-Za-z0-9 .+#/-]{2,60}?)[ \t]*[:–—][ \t]*(\S[^\n]{9,})$`),
		title: func(g []string) string {
			return strings.TrimSpace(g[1])
		},
	},
}

func splitProjects(content string) []Entry {
	matches := findStructural(content, projectFamilies)
	if len(matches) == 0 {
		return paragraphEntries(content, "Project")
	}
	entries := make([]Entry, 0, len(matches))
	for _, m := range matches {
		entries = append(entries, Entry{
			Title:   m.title,
			Content: strings.TrimSpace(content[m.start:m.end]),
		})
	}
	return entries
}

var educationFamilies = []patternFamily{
	// "B.Sc Computer Science, State University, 2016 - 2020"
	{
		re: regexp.MustCompile(`(?im)^[ \t]*((?:b\.?[ ]?(?:sc?|a|eng|tech)|m\.?[ ]?(?:sc?|a|eng|ba|tech)|ph\.?d|bachelor|master|doctor(?:ate)?|associate|diploma)[^,\n]*)(?:,[ \t]*([^,\n]+?))?(?:,[ \t]*((?:19|20)\d{2}[^\n]*))?$`),
		title: func(g []string) string {
			degree := strings.TrimSpace(g[1])
			if inst := strings.TrimSpace(g[2]); inst != "" {
				return degree + ", " + inst
			}
			return degree
		},
	},
}

func splitEducation(content string) []Entry {
	matches := findStructural(content, educationFamilies)
	if len(matches) == 0 {
		return lineEntries(content, "Education Entry", minEducationLen)
	}
	entries := make([]Entry, 0, len(matches))
	for _, m := range matches {
		entries = append(entries, Entry{
			Title:   m.title,
			Content: strings.TrimSpace(content[m.start:m.end]),
		})
	}
	return entries
}

var (
	skillCategoryRe = regexp.MustCompile(`(?i)^[ \t]*((?:technical|soft|languages?|tools?|frameworks?)[a-z &]*?)[ \t]*:[ \t]*(.*)$`)
	skillKeywordRe  = regexp.MustCompile(`(?i)\b(technical|soft|languages?|tools?)\b`)
	skillItemSplit  = regexp.MustCompile(`[,;]`)
)

// splitSkills buckets skills under category headers when the content carries
// category-indicator keywords; otherwise the whole section becomes one flat
// comma-joined entry.
func splitSkills(content string) []Entry {
	if !skillKeywordRe.MatchString(content) {
		items := splitSkillItems(content)
		if len(items) == 0 {
			return nil
		}
		return []Entry{{Title: "Skills", Content: strings.Join(items, ", ")}}
	}

	var order []string
	buckets := map[string][]string{}
	current := "Skills"
	add := func(category string, raw string) {
		items := splitSkillItems(raw)
		if len(items) == 0 {
			return
		}
		if _, seen := buckets[category]; !seen {
			order = append(order, category)
		}
		buckets[category] = append(buckets[category], items...)
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := skillCategoryRe.FindStringSubmatch(line); m != nil {
			current = strings.TrimSpace(m[1])
			add(current, m[2])
			continue
		}
		add(current, line)
	}

	entries := make([]Entry, 0, len(order))
	for _, category := range order {
		entries = append(entries, Entry{
			Title:   category,
			Content: strings.Join(buckets[category], ", "),
		})
	}
	return entries
}

func splitSkillItems(raw string) []string {
	parts := skillItemSplit.Split(raw, -1)
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			items = append(items, p)
		}
	}
	return items
}

func paragraphEntries(content, titlePrefix string) []Entry {
	var entries []Entry
	n := 0
	for _, p := range splitParagraphs(content) {
		if len(p) < minEntryLen {
			continue
		}
		n++
		entries = append(entries, Entry{
			Title:   fmt.Sprintf("%s %d", titlePrefix, n),
			Content: p,
		})
	}
	return entries
}

func lineEntries(content, titlePrefix string, minLen int) []Entry {
	var entries []Entry
	n := 0
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if len(line) < minLen {
			continue
		}
		n++
		entries = append(entries, Entry{
			Title:   fmt.Sprintf("%s %d", titlePrefix, n),
			Content: line,
		})
	}
	return entries
}

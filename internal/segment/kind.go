// Package segment turns extracted document text into named sections and
// size-bounded, embeddable subsection entries. All heuristics are regular
// expressions and keyword patterns; identical input always yields identical
// output.
package segment

import "strings"

// Kind is the closed set of splitting strategies. A section name resolves to
// exactly one kind once, before splitting.
type Kind int

const (
	KindGeneric Kind = iota
	KindExperience
	KindProjects
	KindEducation
	KindSkills
)

func (k Kind) String() string {
	switch k {
	case KindExperience:
		return "experience"
	case KindProjects:
		return "projects"
	case KindEducation:
		return "education"
	case KindSkills:
		return "skills"
	default:
		return "generic"
	}
}

// KindOf classifies a section name. Matching is case-insensitive and
// substring-based so "Work Experience" and "Professional Experience" both
// resolve to the experience kind.
func KindOf(sectionName string) Kind {
	name := strings.ToLower(strings.TrimSpace(sectionName))
	switch {
	case strings.Contains(name, "experience") || strings.Contains(name, "employment"):
		return KindExperience
	case strings.Contains(name, "project"):
		return KindProjects
	case strings.Contains(name, "education") || strings.Contains(name, "academic"):
		return KindEducation
	case strings.Contains(name, "skill"):
		return KindSkills
	default:
		return KindGeneric
	}
}

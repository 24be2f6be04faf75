// Package classify maps free-text posting titles onto listing categories.
//
// Classification is a layered keyword policy. Rules are evaluated in order
// against a lower-cased, width-folded title and each matching rule adds its
// category, so a title may carry several categories (a postdoc position that
// is also advertised as a part-time assistant role, for instance). Only the
// administrative-staff rule short-circuits the evaluation.
package classify

import (
	"strings"

	"golang.org/x/text/width"

	"github.com/JakeFAU/academic-radar/internal/listing"
)

var (
	adminMarkers        = []string{"行政", "職員", "專員", "組員", "書記", "administrative", "clerk", "officer", "secretary"}
	assistantMarkers    = []string{"助理", "assistant"}
	postdocMarkers      = []string{"博士後", "postdoc", "post-doc", "postdoctoral"}
	researchAsstMarkers = []string{"研究助理", "research assistant"}
	gatedAsstMarkers    = []string{"兼任助理", "專任助理", "part-time assistant", "full-time assistant", "assistant"}
	fullTimeAsstMarkers = []string{"專任助理", "full-time assistant"}
	researcherMarkers   = []string{"研究人員", "researcher", "research staff"}
	professorMarkers    = []string{"教授", "professor"}
	projectMarkers      = []string{"專案", "約聘", "編制外", "project", "contract", "(案)"}
	facultyMarkers      = []string{"教授", "講師", "教師", "師資", "專業技術人員", "faculty", "teacher", "lecturer", "professor"}
	adjunctMarkers      = []string{"兼任", "part-time", "adjunct"}
	fullTimeMarkers     = []string{"專任", "full-time"}
)

// Title is a normalized title ready for marker matching.
type Title string

// Normalize lower-cases and width-folds a raw title.
func Normalize(raw string) Title {
	return Title(strings.ToLower(width.Fold.String(strings.TrimSpace(raw))))
}

func (t Title) has(markers []string) bool {
	for _, m := range markers {
		if strings.Contains(string(t), m) {
			return true
		}
	}
	return false
}

func (t Title) administrative() bool { return t.has(adminMarkers) }

func (t Title) professor() bool { return t.has(professorMarkers) }

// explicitAssistant reports research-assistant style wording. Generic
// assistant wording only counts when the title is not a professor rank,
// since 助理教授 and "assistant professor" are faculty titles.
func (t Title) explicitAssistant() bool {
	if t.has(researchAsstMarkers) {
		return true
	}
	return t.has(gatedAsstMarkers) && !t.professor()
}

func (t Title) fullTimeAssistant() bool {
	return t.has(fullTimeAsstMarkers) && !t.professor()
}

func (t Title) fullTime() bool { return t.has(fullTimeMarkers) }

// Set is a bitset of categories.
type Set uint8

func bit(c listing.Category) Set {
	for i, known := range listing.Categories {
		if known == c {
			return 1 << i
		}
	}
	return 0
}

// Has reports whether c is in the set.
func (s Set) Has(c listing.Category) bool { return s&bit(c) != 0 }

func (s Set) with(c listing.Category) Set { return s | bit(c) }

// Categories returns the members in canonical order.
func (s Set) Categories() []listing.Category {
	out := make([]listing.Category, 0, len(listing.Categories))
	for _, c := range listing.Categories {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// Rule adds Category when Applies matches. A Stop rule replaces whatever was
// collected so far and ends evaluation.
type Rule struct {
	Name     string
	Category listing.Category
	Applies  func(t Title, got Set) bool
	Stop     bool
}

func untyped(got Set) bool {
	return !got.Has(listing.CategoryPostdoc) && !got.Has(listing.CategoryAssistant)
}

// Rules is the ordered classification policy.
var Rules = []Rule{
	{
		Name:     "administrative",
		Category: listing.CategoryOther,
		Stop:     true,
		Applies: func(t Title, _ Set) bool {
			return t.administrative() && !t.has(assistantMarkers)
		},
	},
	{
		Name:     "administrative-assistant",
		Category: listing.CategoryAssistant,
		Applies: func(t Title, _ Set) bool {
			return t.administrative() && t.has(assistantMarkers)
		},
	},
	{
		Name:     "postdoc",
		Category: listing.CategoryPostdoc,
		Applies: func(t Title, _ Set) bool {
			return t.has(postdocMarkers)
		},
	},
	{
		Name:     "research-assistant",
		Category: listing.CategoryAssistant,
		Applies: func(t Title, _ Set) bool {
			return t.explicitAssistant()
		},
	},
	{
		// "postdoctoral researcher" is not also a generic research assistant.
		Name:     "researcher",
		Category: listing.CategoryAssistant,
		Applies: func(t Title, got Set) bool {
			if !t.has(researcherMarkers) {
				return false
			}
			return !got.Has(listing.CategoryPostdoc) || t.explicitAssistant()
		},
	},
	{
		Name:     "project-faculty",
		Category: listing.CategoryProject,
		Applies: func(t Title, got Set) bool {
			return untyped(got) && t.has(projectMarkers) && t.has(facultyMarkers)
		},
	},
	{
		Name:     "adjunct",
		Category: listing.CategoryAdjunct,
		Applies: func(t Title, got Set) bool {
			return untyped(got) && t.has(adjunctMarkers)
		},
	},
	{
		Name:     "faculty",
		Category: listing.CategoryFaculty,
		Applies: func(t Title, got Set) bool {
			if !untyped(got) {
				return false
			}
			// Full-time wording wins with or without a project marker, which
			// lets 專任(案) postings carry both project and faculty.
			if t.fullTime() && !t.fullTimeAssistant() {
				return true
			}
			return t.has(facultyMarkers) &&
				!got.Has(listing.CategoryProject) &&
				!got.Has(listing.CategoryAdjunct)
		},
	},
}

// Evaluate runs rules against a raw title and returns the resulting set
// along with the names of the rules that fired.
func Evaluate(rules []Rule, raw string) (Set, []string) {
	t := Normalize(raw)
	var (
		got   Set
		fired []string
	)
	for _, r := range rules {
		if !r.Applies(t, got) {
			continue
		}
		fired = append(fired, r.Name)
		if r.Stop {
			return Set(0).with(r.Category), fired
		}
		got = got.with(r.Category)
	}
	if got == 0 {
		got = got.with(listing.CategoryOther)
	}
	return got, fired
}

// Classify returns the categories for a posting title. The result is never
// empty and is ordered canonically.
func Classify(title string) []listing.Category {
	set, _ := Evaluate(Rules, title)
	return set.Categories()
}

// Explain returns the names of the rules that fire for title.
func Explain(title string) []string {
	_, fired := Evaluate(Rules, title)
	return fired
}

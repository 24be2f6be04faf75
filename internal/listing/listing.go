// Package listing defines the normalized job listing record shared by every
// source adapter, the store backends and the read-only display layer.
package listing

import (
	"errors"
	"time"
)

// Source identifies the upstream site a listing was scraped from.
type Source string

// Known upstream sources.
const (
	SourceMOE  Source = "MOE"
	SourceNSTC Source = "NSTC"
)

// Category is a classification label derived from a listing title.
type Category string

// The closed set of categories, in canonical order.
const (
	CategoryFaculty   Category = "faculty"
	CategoryPostdoc   Category = "postdoc"
	CategoryAssistant Category = "assistant"
	CategoryProject   Category = "project"
	CategoryAdjunct   Category = "adjunct"
	CategoryOther     Category = "other"
)

// Categories lists every category in canonical order.
var Categories = []Category{
	CategoryFaculty,
	CategoryPostdoc,
	CategoryAssistant,
	CategoryProject,
	CategoryAdjunct,
	CategoryOther,
}

// Sentinel field values understood by the display layer.
const (
	// DepartmentSeeTitle is used when no department could be split from the organization.
	DepartmentSeeTitle = "詳見標題"
	// NoDeadline marks a listing without an application deadline.
	NoDeadline = "-"
)

// DateLayout is the ISO calendar date layout used for every date field.
const DateLayout = "2006-01-02"

// JobListing is one normalized academic job posting.
type JobListing struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	School        string     `json:"school"`
	Department    string     `json:"department"`
	PublishedDate string     `json:"publishedDate"`
	DeadlineDate  string     `json:"deadlineDate"`
	Source        Source     `json:"source"`
	Link          string     `json:"link"`
	Tags          []string   `json:"tags"`
	Categories    []Category `json:"categories"`
}

// Validation errors returned by JobListing.Validate.
var (
	ErrMissingID         = errors.New("listing id is required")
	ErrMissingTitle      = errors.New("listing title is required")
	ErrInvalidDate       = errors.New("listing published date must be YYYY-MM-DD")
	ErrMissingCategories = errors.New("listing must carry at least one category")
)

// Validate checks the invariants every persisted listing must satisfy.
func (l JobListing) Validate() error {
	if l.ID == "" {
		return ErrMissingID
	}
	if l.Title == "" {
		return ErrMissingTitle
	}
	if _, err := time.Parse(DateLayout, l.PublishedDate); err != nil {
		return ErrInvalidDate
	}
	if len(l.Categories) == 0 {
		return ErrMissingCategories
	}
	return nil
}

// Published returns the published date as a time. The zero time is returned
// when the stored value is malformed.
func (l JobListing) Published() time.Time {
	t, err := time.Parse(DateLayout, l.PublishedDate)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Deadline returns the deadline date and whether the listing has one.
func (l JobListing) Deadline() (time.Time, bool) {
	if l.DeadlineDate == "" || l.DeadlineDate == NoDeadline {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, l.DeadlineDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// HasCategory reports whether c is among the listing's categories.
func (l JobListing) HasCategory(c Category) bool {
	for _, got := range l.Categories {
		if got == c {
			return true
		}
	}
	return false
}

// IDSet is a read-only-after-construction set of known listing identities.
type IDSet map[string]struct{}

// NewIDSet builds the identity set for the given listings.
func NewIDSet(listings []JobListing) IDSet {
	set := make(IDSet, len(listings))
	for _, l := range listings {
		set[l.ID] = struct{}{}
	}
	return set
}

// Has reports whether id is in the set.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

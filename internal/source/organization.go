package source

import (
	"strings"

	"github.com/JakeFAU/academic-radar/internal/listing"
)

// institutionSuffixes is tried in order; more specific suffixes come first.
var institutionSuffixes = []string{
	"科技大學",
	"大學",
	"技術學院",
	"學院",
	"專科學校",
	"研究院",
	"研究中心",
	"研究所",
	"醫院",
}

// departmentBoilerplate is stripped from either end of the department text.
var departmentBoilerplate = []string{
	"徵聘", "誠徵", "招聘", "招募", "公告", "甄選", "甄試",
}

const departmentSeparators = " \t-_/|、，,:：·．.~～"

// SplitOrganization splits a combined organization string into school and
// department. The department falls back to listing.DepartmentSeeTitle.
func SplitOrganization(org string) (school, department string) {
	org = CleanText(org)
	for _, suffix := range institutionSuffixes {
		i := strings.Index(org, suffix)
		if i < 0 {
			continue
		}
		end := i + len(suffix)
		return org[:end], cleanDepartment(org[end:])
	}
	return org, listing.DepartmentSeeTitle
}

func cleanDepartment(rest string) string {
	for {
		before := rest
		rest = strings.Trim(rest, departmentSeparators)
		for _, word := range departmentBoilerplate {
			rest = strings.TrimPrefix(rest, word)
			rest = strings.TrimSuffix(rest, word)
		}
		if rest == before {
			break
		}
	}
	if rest == "" {
		return listing.DepartmentSeeTitle
	}
	return rest
}

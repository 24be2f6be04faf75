package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/academic-radar/internal/listing"
)

func TestClassifyExamples(t *testing.T) {
	t.Parallel()

	cases := []struct {
		title string
		want  []listing.Category
	}{
		{"國立台灣大學 博士後研究人員", []listing.Category{listing.CategoryPostdoc}},
		{"XX大學 專任助理教授", []listing.Category{listing.CategoryFaculty}},
		{"YY大學 兼任講師", []listing.Category{listing.CategoryAdjunct}},
		{"ZZ大學 行政專員", []listing.Category{listing.CategoryOther}},
		{"AA大學 專案研究人員", []listing.Category{listing.CategoryAssistant}},
		{"BB大學 博士後研究人員（兼任助理）", []listing.Category{listing.CategoryPostdoc, listing.CategoryAssistant}},
		{"CC大學 專任(案)助理教授", []listing.Category{listing.CategoryFaculty, listing.CategoryProject}},
		{"DD大學 約聘專案教師", []listing.Category{listing.CategoryProject}},
		{"EE大學 兼任助理教授", []listing.Category{listing.CategoryAdjunct}},
		{"FF大學 行政助理", []listing.Category{listing.CategoryAssistant}},
		{"GG大學 專任行政人員", []listing.Category{listing.CategoryOther}},
		{"HH研究院 研究助理", []listing.Category{listing.CategoryAssistant}},
		{"Assistant Professor of Physics", []listing.Category{listing.CategoryFaculty}},
		{"Postdoctoral Researcher", []listing.Category{listing.CategoryPostdoc}},
		{"Part-time Lecturer", []listing.Category{listing.CategoryAdjunct}},
		{"II大學 專任助理", []listing.Category{listing.CategoryAssistant}},
		{"JJ大學 工讀生", []listing.Category{listing.CategoryOther}},
		{"", []listing.Category{listing.CategoryOther}},
	}
	for _, tc := range cases {
		t.Run(tc.title, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, Classify(tc.title))
		})
	}
}

func TestClassifyIsNeverEmptyAndClosed(t *testing.T) {
	t.Parallel()

	allowed := make(map[listing.Category]bool)
	for _, c := range listing.Categories {
		allowed[c] = true
	}
	titles := []string{
		"", "   ", "教授", "行政", "助理", "postdoc assistant", "專任兼任", "(案)",
		"contract project faculty", "研究人員 研究助理 博士後", "secretary assistant",
	}
	for _, title := range titles {
		got := Classify(title)
		require.NotEmpty(t, got, "title %q", title)
		for _, c := range got {
			require.True(t, allowed[c], "unexpected category %q for %q", c, title)
		}
	}
}

func TestClassifyIsPure(t *testing.T) {
	t.Parallel()

	title := "BB大學 博士後研究人員（兼任助理）"
	assert.Equal(t, Classify(title), Classify(title))
	assert.Equal(t, Classify("POSTDOC"), Classify("postdoc"))
}

func TestAdministrativeRuleStopsEvaluation(t *testing.T) {
	t.Parallel()

	// Faculty and postdoc wording never survives the administrative exclusion.
	assert.Equal(t, []listing.Category{listing.CategoryOther}, Classify("專任行政職員 博士後 教授"))
	assert.Equal(t, []string{"administrative"}, Explain("ZZ大學 行政專員"))
}

func TestExplain(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"postdoc", "research-assistant", "researcher"}, Explain("博士後研究人員（兼任助理）"))
	assert.Equal(t, []string{"project-faculty", "faculty"}, Explain("專任(案)助理教授"))
	assert.Empty(t, Explain("工讀生"))
}

func TestNormalizeFoldsWidth(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Title("(案)postdoc"), Normalize(" （案）ＰＯＳＴＤＯＣ "))
}

func TestSetCategoriesCanonicalOrder(t *testing.T) {
	t.Parallel()

	s := Set(0).with(listing.CategoryOther).with(listing.CategoryFaculty).with(listing.CategoryAdjunct)
	assert.Equal(t, []listing.Category{
		listing.CategoryFaculty,
		listing.CategoryAdjunct,
		listing.CategoryOther,
	}, s.Categories())
}

func TestEvaluateCustomRules(t *testing.T) {
	t.Parallel()

	rules := []Rule{{
		Name:     "always-project",
		Category: listing.CategoryProject,
		Applies:  func(Title, Set) bool { return true },
	}}
	set, fired := Evaluate(rules, "anything")
	assert.True(t, set.Has(listing.CategoryProject))
	assert.Equal(t, []string{"always-project"}, fired)
}

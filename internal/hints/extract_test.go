package hints_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/identity-resolver/internal/hints"
	"github.com/sells-group/identity-resolver/internal/model"
)

func TestExtract_TitleDerivedName(t *testing.T) {
	out := hints.Extract(hints.Input{
		Slug:      "jane-doe-12345",
		SERPTitle: "Jane Doe - Senior SWE at Acme | LinkedIn",
	})
	assert.True(t, out.Name.Has())
	assert.Equal(t, "Jane Doe", out.Name.String())
	assert.GreaterOrEqual(t, out.Name.Confidence, 0.75)
	assert.Equal(t, model.HintSourceSERPTitle, out.Name.Source)
	assert.True(t, out.Headline.Has())
	assert.Contains(t, out.Headline.String(), "Senior SWE")
}

func TestExtract_SlugFallback(t *testing.T) {
	out := hints.Extract(hints.Input{
		Slug:      "john-smith-phd",
		SERPTitle: "",
	})
	assert.True(t, out.Name.Has())
	assert.Equal(t, "John Smith", out.Name.String())
	assert.Equal(t, model.HintSourceURLSlug, out.Name.Source)
	assert.InDelta(t, 0.40, out.Name.Confidence, 0.01)
}

func TestExtract_SlugNoHyphenFails(t *testing.T) {
	out := hints.Extract(hints.Input{Slug: "janedoe123456789abcdef"})
	assert.False(t, out.Name.Has())
}

func TestExtract_CommaReversed(t *testing.T) {
	out := hints.Extract(hints.Input{
		SERPTitle: "Doe, Jane - Engineer | LinkedIn",
	})
	assert.Equal(t, "Jane Doe", out.Name.String())
}

func TestExtract_KnowledgeGraphOverride(t *testing.T) {
	out := hints.Extract(hints.Input{
		SERPTitle:          "J. Doe | LinkedIn",
		KnowledgeGraphName: "Jane Doe",
	})
	assert.Equal(t, "Jane Doe", out.Name.String())
	assert.InDelta(t, 0.95, out.Name.Confidence, 0.001)
}

func TestExtract_CompanyAtPattern(t *testing.T) {
	out := hints.Extract(hints.Input{
		SERPTitle: "Jane Doe - Engineer at Google | LinkedIn",
	})
	assert.Equal(t, "Google", out.Company.String())
	assert.InDelta(t, 0.95, out.Company.Confidence, 0.001)
}

func TestExtract_CompanyRejectsAcademic(t *testing.T) {
	out := hints.Extract(hints.Input{
		SERPTitle: "Jane Doe - Researcher at The University of Example | LinkedIn",
	})
	assert.NotEqual(t, "The University of Example", out.Company.String())
}

func TestExtract_LocationCityState(t *testing.T) {
	out := hints.Extract(hints.Input{
		SERPTitle:   "Jane Doe | LinkedIn",
		SERPSnippet: "Software engineer based in Austin, TX building developer tools.",
	})
	assert.True(t, out.Location.Has())
}

func TestExtract_LocationExplicitPrefix(t *testing.T) {
	out := hints.Extract(hints.Input{
		SERPSnippet: "Location: San Francisco",
	})
	assert.Equal(t, "San Francisco", out.Location.String())
	assert.InDelta(t, 0.95, out.Location.Confidence, 0.001)
}

func TestExtract_LocaleAgreementBoost(t *testing.T) {
	withLocale := hints.Extract(hints.Input{
		SERPSnippet:       "Location: Austin, TX",
		LocaleCountryCode: "US",
	})
	without := hints.Extract(hints.Input{
		SERPSnippet: "Location: Austin, TX",
	})
	assert.Greater(t, withLocale.Location.Confidence, without.Location.Confidence)
}

func TestExtract_NeverPanics(t *testing.T) {
	assert.NotPanics(t, func() {
		hints.Extract(hints.Input{})
	})
}

func TestTechKeywords_OnlyForEligibleRoles(t *testing.T) {
	kws := hints.TechKeywords("Backend engineer working on Kubernetes and Golang", model.RoleEngineer)
	assert.NotEmpty(t, kws)
	assert.LessOrEqual(t, len(kws), 2)

	assert.Empty(t, hints.TechKeywords("Backend engineer working on Kubernetes", model.RoleFounder))
}

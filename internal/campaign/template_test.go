package campaign

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateRenderWithFilters(t *testing.T) {
	ts := NewTemplateService()

	out, err := ts.Render(
		`Hello {{ first_name | default: "there" }} from {{ company | titlecase }}!`,
		map[string]interface{}{"first_name": "", "company": "ACME CORP"},
	)
	require.NoError(t, err)
	assert.Equal(t, "Hello there from Acme Corp!", out)
}

func TestTemplateCurrencyAndTruncate(t *testing.T) {
	ts := NewTemplateService()

	out, err := ts.Render(
		`{{ deal_value | currency }} / {{ pitch | truncate: 10 }}`,
		map[string]interface{}{"deal_value": 12500.5, "pitch": "a very long pitch indeed"},
	)
	require.NoError(t, err)
	assert.Equal(t, "$12500.50 / a very ...", out)
}

func TestTemplateParseErrorSurfaces(t *testing.T) {
	ts := NewTemplateService()

	_, err := ts.Render(`{% if %}broken`, nil)
	assert.Error(t, err)
}

func TestTemplateCacheReturnsSameResult(t *testing.T) {
	ts := NewTemplateService()
	src := `{{ name | capitalize }}`

	first, err := ts.Render(src, map[string]interface{}{"name": "ava"})
	require.NoError(t, err)
	second, err := ts.Render(src, map[string]interface{}{"name": "ava"})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, "Ava", first)
}

func TestPreviewBindingsFlattenSnapshot(t *testing.T) {
	b := PreviewBindings(testSnapshot())
	assert.Equal(t, "Ava", b["first_name"])
	assert.Equal(t, "Ava Stone", b["name"])
	assert.Equal(t, 82, b["lead_score"])
	assert.Equal(t, "hot", b["lead_status"])
}

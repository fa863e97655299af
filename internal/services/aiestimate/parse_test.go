package aiestimate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEstimate_DirectJSON(t *testing.T) {
	fv, rationale, err := parseEstimate(`{"fv": 26.25, "rationale": "blend of multiples"}`)
	require.NoError(t, err)
	assert.InDelta(t, 26.25, fv, 1e-9)
	assert.Equal(t, "blend of multiples", rationale)
}

func TestParseEstimate_FencedWithNoise(t *testing.T) {
	text := "noise ```json\n{\"fv\": 27.10, \"rationale\": \"ok\"}\n``` trailing"

	fv, rationale, err := parseEstimate(text)
	require.NoError(t, err)
	assert.InDelta(t, 27.10, fv, 1e-9)
	assert.Equal(t, "ok", rationale)
}

func TestParseEstimate_PlainFence(t *testing.T) {
	text := "```\n{\"fv\": 5.5, \"rationale\": \"r\"}\n```"

	fv, _, err := parseEstimate(text)
	require.NoError(t, err)
	assert.InDelta(t, 5.5, fv, 1e-9)
}

func TestParseEstimate_BraceSlice(t *testing.T) {
	text := `The fair value works out as follows: {"fv": 12.3, "rationale": "sales based"} hope that helps.`

	fv, rationale, err := parseEstimate(text)
	require.NoError(t, err)
	assert.InDelta(t, 12.3, fv, 1e-9)
	assert.Equal(t, "sales based", rationale)
}

func TestParseEstimate_NotJSON(t *testing.T) {
	_, _, err := parseEstimate("not json at all")
	assert.Error(t, err)
}

func TestParseEstimate_MissingFairValue(t *testing.T) {
	// A rationale without a numeric fv does not count as a parse.
	_, _, err := parseEstimate(`{"rationale": "no number here"}`)
	assert.Error(t, err)
}

func TestParseEstimate_ZeroFairValueIsValid(t *testing.T) {
	fv, _, err := parseEstimate(`{"fv": 0, "rationale": "worthless"}`)
	require.NoError(t, err)
	assert.Zero(t, fv)
}

func TestParseEstimate_Empty(t *testing.T) {
	_, _, err := parseEstimate("")
	assert.Error(t, err)
}

func TestFencedBlock(t *testing.T) {
	assert.Equal(t, "body\n", fencedBlock("```json\nbody\n```"))
	assert.Equal(t, "", fencedBlock("no fences here"))
	assert.Equal(t, "", fencedBlock("``` unclosed"))
}

func TestBraceSlice(t *testing.T) {
	assert.Equal(t, `{"a": {"b": 1}}`, braceSlice(`x {"a": {"b": 1}} y`))
	assert.Equal(t, "", braceSlice("no braces"))
	assert.Equal(t, "", braceSlice("} reversed {"))
}

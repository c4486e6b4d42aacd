package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAcceptsFencedJSON(t *testing.T) {
	raw := "```json\n{\"conversationalSummary\":\"Here you go\",\"slides\":[{\"title\":\"Intro\",\"contentSummary\":\"Hello\"}]}\n```"
	resp, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "Here you go", resp.Summary())
	require.Len(t, resp.Slides, 1)
	assert.Equal(t, "Intro", resp.Slides[0].Title)
}

func TestParseEmptyOutput(t *testing.T) {
	resp, err := Parse("  ")
	require.NoError(t, err)
	assert.Empty(t, resp.Slides)
	assert.Equal(t, FallbackSummary, resp.Summary())
}

func TestParseRejectsMalformedOutput(t *testing.T) {
	_, err := Parse("Sure! Here is your deck")
	assert.ErrorIs(t, err, ErrMalformedOutput)

	_, err = Parse(`{"slides": "three"}`)
	assert.ErrorIs(t, err, ErrMalformedOutput)

	_, err = Parse(`{"slides": [{"title": 7}]}`)
	assert.ErrorIs(t, err, ErrMalformedOutput)
}

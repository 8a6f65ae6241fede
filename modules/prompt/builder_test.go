package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleContext(t *testing.T) PromptContext {
	t.Helper()
	ctx, err := CreatePsychologistContext("clinical therapy", SettingStudio, StyleFormal, GenderUnisex)
	require.NoError(t, err)
	return ctx
}

func TestBuildPrompt(t *testing.T) {
	ctx := sampleContext(t)
	specs := MustSpecs(SpecStudioPortrait)

	t.Run("example prompt", func(t *testing.T) {
		p := BuildPrompt(ctx, specs, GenderUnisex)
		assert.Contains(t, p, "clinical therapy")
		assert.Contains(t, p, "this person")
		assert.Contains(t, p, "Professional photography studio environment")
		assert.Contains(t, p, "Canon EOS R5")
	})

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, BuildPrompt(ctx, specs, GenderMale), BuildPrompt(ctx, specs, GenderMale))
	})

	t.Run("prefix", func(t *testing.T) {
		for _, g := range []Gender{GenderMale, GenderFemale, GenderUnisex, "other"} {
			assert.True(t, strings.HasPrefix(BuildPrompt(ctx, specs, g), PromptPrefix))
		}
		assert.True(t, strings.HasPrefix(BuildPrompt(PromptContext{}, TechnicalSpecs{}, ""), PromptPrefix))
	})

	t.Run("pronoun mapping", func(t *testing.T) {
		tests := []struct {
			gender Gender
			want   string
		}{
			{GenderMale, "this man"},
			{GenderFemale, "this woman"},
			{GenderUnisex, "this person"},
			{"nonbinary", "this person"},
			{"", "this person"},
		}
		for _, tt := range tests {
			assert.Contains(t, BuildPrompt(ctx, specs, tt.gender), "Show "+tt.want+" as a ")
		}
	})

	t.Run("segment order", func(t *testing.T) {
		p := BuildPrompt(ctx, specs, GenderFemale)
		markers := []string{"CRITICAL: Preserve", "Show this woman", "Pose: ", "Mood: ", "Setting: ", "Shot on "}
		last := -1
		for _, m := range markers {
			idx := strings.Index(p, m)
			require.GreaterOrEqual(t, idx, 0, m)
			assert.Greater(t, idx, last, m)
			last = idx
		}
	})

	t.Run("all technical fields", func(t *testing.T) {
		p := BuildPrompt(ctx, specs, GenderUnisex)
		assert.Contains(t, p, "Shot on "+specs.Camera+" with "+specs.Lens+", "+specs.Lighting+", "+specs.Quality+", "+specs.PostProcessing+".")
	})

	t.Run("placeholder-like values are not expanded", func(t *testing.T) {
		odd := ctx
		odd.Mood = "{camera} {lens}"
		p := BuildPrompt(odd, specs, GenderUnisex)
		assert.Contains(t, p, "Mood: {camera} {lens}.")
	})

	t.Run("empty context tolerated", func(t *testing.T) {
		p := BuildPrompt(PromptContext{}, specs, GenderUnisex)
		assert.Contains(t, p, "Pose: , wearing .")
		assert.Contains(t, p, "Canon EOS R5")
	})
}

func TestGenerateVariations(t *testing.T) {
	ctx := sampleContext(t)
	specs := MustSpecs(SpecOfficeEnvironment)
	ctxCopy, specsCopy := ctx, specs

	variations := GenerateVariations(ctx, specs, GenderMale)

	require.Len(t, variations, VariationCount)
	assert.Equal(t, BuildPrompt(ctx, specs, GenderMale), variations[0])
	assert.Contains(t, variations[1], "Mood: preserving identical facial identity, "+ctx.Mood)
	assert.Contains(t, variations[2], specs.Quality+", photorealistic skin texture")
	assert.Contains(t, variations[2], specs.PostProcessing+", maintaining natural facial identity")
	assert.NotEqual(t, variations[0], variations[1])
	assert.NotEqual(t, variations[0], variations[2])

	assert.Equal(t, ctxCopy, ctx)
	assert.Equal(t, specsCopy, specs)
	assert.Equal(t, specs, MustSpecs(SpecOfficeEnvironment))

	for _, v := range variations {
		assert.Equal(t, 100, ValidatePrompt(v).Score)
	}
}

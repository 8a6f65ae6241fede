package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePsychologistContext(t *testing.T) {
	t.Run("every setting and style is handled", func(t *testing.T) {
		for _, setting := range AllSettings() {
			for _, style := range AllStyles() {
				ctx, err := CreatePsychologistContext("trauma recovery", setting, style, GenderFemale)
				require.NoError(t, err, "%s/%s", setting, style)
				assert.Equal(t, "licensed psychologist specializing in trauma recovery", ctx.Profession)
				assert.NotEmpty(t, ctx.Setting)
				assert.NotEmpty(t, ctx.Background)
				assert.NotEmpty(t, ctx.Pose)
				assert.NotEmpty(t, ctx.Clothing)
				assert.NotEmpty(t, ctx.Mood)
			}
		}
	})

	t.Run("setting and style are independent", func(t *testing.T) {
		a, err := CreatePsychologistContext("x", SettingHome, StyleFormal, GenderMale)
		require.NoError(t, err)
		b, err := CreatePsychologistContext("x", SettingHome, StyleCasual, GenderMale)
		require.NoError(t, err)
		assert.Equal(t, a.Setting, b.Setting)
		assert.Equal(t, a.Pose, b.Pose)
		assert.NotEqual(t, a.Clothing, b.Clothing)
	})

	t.Run("unknown setting", func(t *testing.T) {
		_, err := CreatePsychologistContext("x", Setting("beach"), StyleFormal, GenderMale)
		require.ErrorIs(t, err, ErrInvalidArgument)
		assert.Contains(t, err.Error(), "beach")
	})

	t.Run("unknown style", func(t *testing.T) {
		_, err := CreatePsychologistContext("x", SettingOffice, Style("punk"), GenderMale)
		require.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func TestParse(t *testing.T) {
	s, err := ParseSetting("  Outdoor ")
	require.NoError(t, err)
	assert.Equal(t, SettingOutdoor, s)

	_, err = ParseSetting("")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	st, err := ParseStyle("CREATIVE")
	require.NoError(t, err)
	assert.Equal(t, StyleCreative, st)

	_, err = ParseStyle("loud")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	assert.Equal(t, GenderUnisex, ParseGender(""))
	assert.Equal(t, GenderFemale, ParseGender("Female"))
	assert.Equal(t, Gender("other"), ParseGender("other"))
}

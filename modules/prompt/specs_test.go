package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpecs(t *testing.T) {
	keys := SpecKeys()
	assert.Len(t, keys, 6)
	assert.IsIncreasing(t, keys)

	for _, key := range keys {
		specs, ok := Specs(key)
		require.True(t, ok, key)
		assert.NotEmpty(t, specs.Camera)
		assert.NotEmpty(t, specs.Lens)
		assert.NotEmpty(t, specs.Lighting)
		assert.NotEmpty(t, specs.Quality)
		assert.NotEmpty(t, specs.PostProcessing)
	}

	_, ok := Specs("missing")
	assert.False(t, ok)
	assert.Panics(t, func() { MustSpecs("missing") })

	t.Run("returned value is a copy", func(t *testing.T) {
		specs := MustSpecs(SpecPresentation)
		specs.Camera = "changed"
		assert.Equal(t, "Nikon Z9", MustSpecs(SpecPresentation).Camera)
	})
}

func TestSpecsForSetting(t *testing.T) {
	want := map[Setting]string{
		SettingStudio:  SpecStudioPortrait,
		SettingOffice:  SpecOfficeEnvironment,
		SettingHome:    SpecHomeOffice,
		SettingOutdoor: SpecOutdoorNatural,
		SettingVideo:   SpecVideoCall,
	}
	for _, setting := range AllSettings() {
		key, err := SpecsForSetting(setting)
		require.NoError(t, err)
		assert.Equal(t, want[setting], key)
	}

	_, err := SpecsForSetting("moon")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"portrait-studio-server/modules/quality"
)

func TestWriteSummary(t *testing.T) {
	summary, err := quality.RunPromptQualityTest()
	require.NoError(t, err)

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeSummary(&buf, summary, "text"))
		assert.Contains(t, buf.String(), "PROMPT QUALITY REPORT")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeSummary(&buf, summary, "json"))
		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.EqualValues(t, summary.TotalTemplates, decoded["totalTemplates"])
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeSummary(&buf, summary, "yaml"))
		var decoded map[string]interface{}
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, summary.TotalTemplates, decoded["totalTemplates"])
	})

	t.Run("unknown", func(t *testing.T) {
		assert.Error(t, writeSummary(&bytes.Buffer{}, summary, "xml"))
	})
}

func TestRunPrompt(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"prompt", "--specialization", "addiction recovery", "--setting", "video", "--variations"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())
	out := buf.String()
	assert.Contains(t, out, "# 1 (spec=video_call")
	assert.Contains(t, out, "# 3 ")
	assert.Contains(t, out, "addiction recovery")
}

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"portrait-studio-server/modules/quality"
)

var qualityFormat string

var qualityCmd = &cobra.Command{
	Use:   "quality",
	Short: "Score every catalog template prompt and print the quality report",
	Long: `Builds the prompt for every template in the catalog, scores identity,
technical and professional consistency, and prints the report.
Exits non-zero when any template fails.`,
	RunE: runQuality,
}

func init() {
	qualityCmd.Flags().StringVarP(&qualityFormat, "format", "f", "text", "output format: text, json or yaml")
	rootCmd.AddCommand(qualityCmd)
}

// writeSummary - 형식별 출력
func writeSummary(w io.Writer, summary quality.TestSummary, format string) error {
	switch format {
	case "text", "":
		_, err := io.WriteString(w, quality.GenerateQualityReport(summary))
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(summary); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}
}

func runQuality(cmd *cobra.Command, args []string) error {
	summary, err := quality.RunPromptQualityTest()
	if err != nil {
		return fmt.Errorf("run quality test: %w", err)
	}

	if err := writeSummary(cmd.OutOrStdout(), summary, qualityFormat); err != nil {
		return err
	}

	if !summary.AllPassed() {
		return fmt.Errorf("%d of %d templates failed", summary.FailedTemplates, summary.TotalTemplates)
	}
	return nil
}

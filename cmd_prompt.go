package main

import (
	"fmt"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"portrait-studio-server/modules/prompt"
)

var promptOpts struct {
	specialization string
	setting        string
	style          string
	gender         string
	spec           string
	variations     bool
}

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print the generation prompt(s) for a psychologist portrait",
	RunE:  runPrompt,
}

func init() {
	f := promptCmd.Flags()
	f.StringVar(&promptOpts.specialization, "specialization", "", "psychology specialization (required)")
	f.StringVar(&promptOpts.setting, "setting", string(prompt.SettingStudio), "office, home, studio, outdoor or video")
	f.StringVar(&promptOpts.style, "style", string(prompt.StyleFormal), "formal, casual or creative")
	f.StringVar(&promptOpts.gender, "gender", string(prompt.GenderUnisex), "male, female or unisex")
	f.StringVar(&promptOpts.spec, "spec", "", "technical spec key (default: chosen from setting)")
	f.BoolVar(&promptOpts.variations, "variations", false, "print all variations")
	_ = promptCmd.MarkFlagRequired("specialization")
	rootCmd.AddCommand(promptCmd)
}

func runPrompt(cmd *cobra.Command, args []string) error {
	setting, err := prompt.ParseSetting(promptOpts.setting)
	if err != nil {
		return err
	}
	style, err := prompt.ParseStyle(promptOpts.style)
	if err != nil {
		return err
	}
	gender := prompt.ParseGender(promptOpts.gender)

	key := promptOpts.spec
	if key == "" {
		if key, err = prompt.SpecsForSetting(setting); err != nil {
			return err
		}
	}
	specs, ok := prompt.Specs(key)
	if !ok {
		return fmt.Errorf("unknown spec %q (available: %v)", key, prompt.SpecKeys())
	}

	ctx, err := prompt.CreatePsychologistContext(promptOpts.specialization, setting, style, gender)
	if err != nil {
		return err
	}

	prompts := []string{prompt.BuildPrompt(ctx, specs, gender)}
	if promptOpts.variations {
		prompts = prompt.GenerateVariations(ctx, specs, gender)
	}

	out := cmd.OutOrStdout()
	for i, p := range prompts {
		v := prompt.ValidatePrompt(p)
		fmt.Fprintf(out, "# %d (spec=%s, length=%d, score=%d)\n%s\n", i+1, key, utf8.RuneCountInString(p), v.Score, p)
		for _, issue := range v.Issues {
			fmt.Fprintf(out, "  ! %s\n", issue)
		}
		fmt.Fprintln(out)
	}
	return nil
}

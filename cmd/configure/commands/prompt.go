package commands

import (
	"fmt"

	"github.com/benvon/levelup-ai/internal/models"
	"github.com/benvon/levelup-ai/internal/preferences"
	"github.com/benvon/levelup-ai/internal/prompt"
	"github.com/spf13/cobra"
)

// NewPromptCmd creates the prompt command
func NewPromptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Work with prompt templates",
	}
	cmd.AddCommand(newPromptPreviewCmd())
	return cmd
}

func newPromptPreviewCmd() *cobra.Command {
	var (
		kind, mode, text, language, templates string
		params                                models.ModeParams
	)
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render the prompt a request would send, without calling a provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			builder, err := loadBuilder(templates)
			if err != nil {
				return err
			}
			parsed, err := models.ParseMode(mode)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch models.InputKind(kind) {
			case models.InputText:
				rendered, err := builder.Build(parsed, text, params, language)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, rendered)
			case models.InputAudio:
				fmt.Fprintln(out, "# transcription")
				fmt.Fprintln(out, builder.Transcription(language))
				rendered, err := builder.Build(parsed, text, params, language)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, "# generation")
				fmt.Fprintln(out, rendered)
			case models.InputImage:
				rendered, err := builder.Image(parsed, params, language)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, rendered)
			default:
				return fmt.Errorf("unknown --kind %q (text, audio or image)", kind)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(models.InputText), "Input kind: text, audio or image")
	cmd.Flags().StringVar(&mode, "mode", string(models.ModeSummarize), "Processing mode")
	cmd.Flags().StringVar(&text, "text", "{text}", "Input text (or transcription for audio)")
	cmd.Flags().StringVar(&language, "language", preferences.DefaultLanguage, "Output language")
	cmd.Flags().StringVar(&params.Format, "format", "", "Summary format, e.g. "+models.FormatThreePoints)
	cmd.Flags().StringVar(&params.DietaryConstraint, "constraint", "", "Dietary constraint for recipes")
	cmd.Flags().StringVar(&params.Tone, "tone", "", "Tone for rewrites")
	cmd.Flags().StringVar(&templates, "templates", "", "Template override file (default built-in templates)")
	return cmd
}

func loadBuilder(path string) (*prompt.Builder, error) {
	if path == "" {
		return prompt.New()
	}
	return prompt.Load(path)
}

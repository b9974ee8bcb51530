package commands

import (
	"fmt"
	"io"

	"github.com/benvon/levelup-ai/internal/models"
	"github.com/spf13/cobra"
)

// NewPrefsCmd creates the prefs command with show and set subcommands
func NewPrefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Inspect and edit user preferences",
	}
	cmd.AddCommand(newPrefsShowCmd())
	cmd.AddCommand(newPrefsSetCmd())
	return cmd
}

func newPrefsShowCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a user's preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			prefs, err := e.prefs.Get(cmd.Context(), userID)
			if err != nil {
				return err
			}
			printPrefs(cmd.OutOrStdout(), userID, prefs)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User ID (required)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newPrefsSetCmd() *cobra.Command {
	var userID string
	var update models.PreferencesUpdate
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Merge preference fields for a user",
		Long:  "Only the flags given are changed; other fields keep their stored values.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if update.IsEmpty() {
				return fmt.Errorf("at least one of --name, --email or --language is required")
			}
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			prefs, err := e.prefs.Update(cmd.Context(), userID, update)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Preferences updated.")
			printPrefs(cmd.OutOrStdout(), userID, prefs)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User ID (required)")
	cmd.Flags().StringVar(&update.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&update.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&update.DefaultLanguage, "language", "", "Output language for generated text")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func printPrefs(out io.Writer, userID string, prefs *models.Preferences) {
	fmt.Fprintf(out, "User:     %s\n", userID)
	fmt.Fprintf(out, "Name:     %s\n", prefs.Name)
	fmt.Fprintf(out, "Email:    %s\n", prefs.Email)
	fmt.Fprintf(out, "Language: %s\n", prefs.DefaultLanguage)
}

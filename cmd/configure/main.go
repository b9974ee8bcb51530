package main

import (
	"context"
	"fmt"
	"os"

	"github.com/benvon/levelup-ai/cmd/configure/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:           "levelup-configure",
		Short:         "Administration tool for the Level Up AI backend",
		Long:          "CLI tool for inspecting quotas, editing preferences and previewing prompts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewUsageCmd())
	rootCmd.AddCommand(commands.NewPrefsCmd())
	rootCmd.AddCommand(commands.NewPromptCmd())
	rootCmd.AddCommand(commands.NewCheckCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

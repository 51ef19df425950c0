// Package main provides the recipegen command line
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands
type RootOptions struct {
	ConfigPath string
}

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "recipegen",
		Short:         "AI recipe generator web application",
		Long:          "Generates recipes with a language model, keeps them in memory by category and exports selections to PDF.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default: ./config.yaml, ./config/config.yaml, /etc/recipegen/config.yaml)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewTaxonomyCommand(opts))
	cmd.AddCommand(NewHashPasswordCommand(opts))

	return cmd
}

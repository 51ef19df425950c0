package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/alchemorsel/recipegen/internal/infrastructure/config"
	"github.com/alchemorsel/recipegen/internal/infrastructure/container"
	"github.com/alchemorsel/recipegen/internal/infrastructure/security"
	"github.com/spf13/cobra"
)

// NewTaxonomyCommand creates the taxonomy command
func NewTaxonomyCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "taxonomy",
		Short: "Print the categories and subcategories recipes are filed under",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			taxonomy, err := container.LoadTaxonomy(cfg.Recipes)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, category := range taxonomy.Categories() {
				fmt.Fprintln(out, category.Name)
				for _, sub := range category.Subcategories {
					fmt.Fprintf(out, "  %s\n", sub)
				}
			}
			return nil
		},
	}
}

// NewHashPasswordCommand creates the hash-password command, which prints
// the bcrypt hash to put under auth.users. The cost defaults to
// auth.bcrypt_cost.
func NewHashPasswordCommand(opts *RootOptions) *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Hash a password for the auth.users setting",
		Long:  "Hash a password for the auth.users setting. The password is read from stdin when not given as an argument.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				line, err := readLine(cmd.InOrStdin())
				if err != nil {
					return err
				}
				password = line
			}
			if password == "" {
				return fmt.Errorf("password must not be empty")
			}
			if !cmd.Flags().Changed("cost") {
				cfg, err := config.Load(opts.ConfigPath)
				if err != nil {
					return err
				}
				cost = cfg.Auth.BCryptCost
			}

			hash, err := security.HashPassword(password, cost)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}

	cmd.Flags().IntVar(&cost, "cost", 0, "bcrypt cost (default: auth.bcrypt_cost)")
	return cmd
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

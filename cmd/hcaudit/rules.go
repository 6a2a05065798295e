package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/hcaudit/internal/rules"
)

func newRulesCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rules [FILE]",
		Short: "Print the effective rule tables, or validate a rules file",
		Long: `Without arguments, print the rule tables in effect (built-in or --rules) as
YAML together with their digest. With FILE, validate it against the rules
schema and print it back normalised.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, o, nil)
			if err != nil {
				return err
			}
			path := cfg.RulesPath
			if len(args) == 1 {
				path = args[0]
			}
			r := rules.Default()
			if path != "" {
				if r, err = rules.Load(path); err != nil {
					return err
				}
			}
			out, err := r.YAML()
			if err != nil {
				return fmt.Errorf("render rules: %w", err)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "# digest: %s\n", r.Digest())
			_, err = w.Write(out)
			return err
		},
	}
}

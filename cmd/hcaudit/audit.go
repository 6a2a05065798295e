package main

import (
	"github.com/spf13/cobra"

	"github.com/hyperifyio/hcaudit/internal/app"
)

func newAuditCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "audit [paths...]",
		Short: "Audit report files or directories",
		Long: `Audit every DOCX and HTML report found under the given paths. Directories
are walked recursively using the include and exclude globs; files are audited
as given. Reports go to stdout unless --report.dir is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, o, args)
			if err != nil {
				return err
			}
			if err := app.ValidateConfig(cfg); err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			a.SetOutput(cmd.OutOrStdout())
			_, err = a.Run(cmd.Context())
			return err
		},
	}
}

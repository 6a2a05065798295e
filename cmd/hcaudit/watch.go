package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/hcaudit/internal/app"
)

func newWatchCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch DIR",
		Short: "Audit reports as they are added or changed under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, o, args)
			if err != nil {
				return err
			}
			if err := app.ValidateConfig(cfg); err != nil {
				return err
			}
			info, err := os.Stat(args[0])
			if err != nil {
				return fmt.Errorf("%w: %v", app.ErrDocumentUnavailable, err)
			}
			if !info.IsDir() {
				return errors.New("watch: not a directory: " + args[0])
			}
			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			a.SetOutput(cmd.OutOrStdout())
			return a.Watch(cmd.Context(), args[0])
		},
	}
}

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/leoprim/ranked-tracker-web/pkg/template"
	"github.com/spf13/cobra"
)

var unitOpts template.UnitOptions

var unitCmd = &cobra.Command{
	Use:   "systemd-unit",
	Short: "Print a systemd unit file for the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := unitOpts
		if opts.Binary == "" {
			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("failed to locate executable: %w", err)
			}
			if opts.Binary, err = filepath.Abs(exe); err != nil {
				return fmt.Errorf("failed to resolve executable path: %w", err)
			}
		}
		if opts.ConfigPath == "" && cfgFile != "" {
			path, err := filepath.Abs(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to resolve config path: %w", err)
			}
			opts.ConfigPath = path
		}
		fmt.Fprint(cmd.OutOrStdout(), template.RenderSystemdUnit(opts))
		return nil
	},
}

func init() {
	unitCmd.Flags().StringVar(&unitOpts.Description, "description", "Ranked Tracker web (SR Tracker download page)", "unit description")
	unitCmd.Flags().StringVar(&unitOpts.User, "user", "rtweb", "service user")
	unitCmd.Flags().StringVar(&unitOpts.Group, "group", "rtweb", "service group")
	unitCmd.Flags().StringVar(&unitOpts.WorkDir, "workdir", "/var/lib/ranked-tracker-web", "working directory")
	unitCmd.Flags().StringVar(&unitOpts.Binary, "binary", "", "path of the server binary (default: this executable)")
	unitCmd.Flags().StringVar(&unitOpts.EnvFile, "env-file", "/etc/ranked-tracker-web/env", "optional environment file, e.g. for RTWEB_GITHUB_TOKEN")
	RootCmd.AddCommand(unitCmd)
}

// Package command implements the retrobot CLI: the long-running bot server
// and offline commands that read the stored feedback snapshot.
package command

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-retrobot/internal/config"
	"github.com/tbourn/go-retrobot/internal/sysutil"
)

const AppName = "retrobot"

// Version is overwritten at build time using -ldflags.
var Version = "dev"

// app carries state shared by subcommands once the root pre-run has loaded
// the configuration.
type app struct {
	version string
	cfg     config.Config
}

func NewRootCmd(version string) *cobra.Command {
	a := &app{version: version}

	cmd := &cobra.Command{
		Use:           AppName,
		Short:         "Retrospective feedback bot for Slack",
		Long:          "retrobot records start/stop/continue/kudo feedback from Slack mentions and summarizes it by date range.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			envFile, _ := cmd.Flags().GetString("env-file")
			if err := loadEnvFile(envFile); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			sysutil.SetLogLevel(cfg.LogLevel)
			sysutil.SetupLogger(cmd.ErrOrStderr(), cfg.LogPretty)
			a.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.Version = version
	cmd.SetVersionTemplate(AppName + " version {{.Version}}\n")
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.PersistentFlags().String("env-file", "", "load environment from this file (default: .env when present)")

	cmd.AddCommand(
		newServeCmd(a),
		newReportCmd(a),
		newEntriesCmd(a),
	)
	return cmd
}

func Execute() error {
	return NewRootCmd(Version).Execute()
}

// loadEnvFile loads path into the environment without overriding variables
// that are already set. An empty path loads .env if it exists.
func loadEnvFile(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gopromerge/internal/config"
)

func newConfigCommand(opts *rootOptions) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand(opts))
	configCmd.AddCommand(newConfigShowCommand(opts))
	configCmd.AddCommand(newConfigPathCommand())

	return configCmd
}

func newConfigInitCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a sample configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			target := opts.configPath
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return err
				}
				target = defaultPath
			}
			if err := config.WriteSample(target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
			return nil
		},
	}
}

func newConfigShowCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "merge.parallel            = %d\n", cfg.Merge.Parallel)
			fmt.Fprintf(out, "merge.reporter            = %s\n", cfg.Merge.Reporter)
			fmt.Fprintf(out, "merge.keep_partial_output = %t\n", cfg.Merge.KeepPartialOutput)
			fmt.Fprintf(out, "tools.ffmpeg              = %s\n", cfg.Tools.FFmpeg)
			fmt.Fprintf(out, "tools.ffprobe             = %s\n", cfg.Tools.FFprobe)
			fmt.Fprintf(out, "paths.log_dir             = %s\n", cfg.Paths.LogDir)
			fmt.Fprintf(out, "logging.format            = %s\n", cfg.Logging.Format)
			fmt.Fprintf(out, "logging.level             = %s\n", cfg.Logging.Level)
			return nil
		},
	}
}

func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the default configuration file location",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.DefaultConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"gopromerge/internal/deps"
)

func newDepsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check availability of required external tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			statuses := deps.CheckBinaries(deps.Default(cfg))

			tw := table.NewWriter()
			tw.SetStyle(table.StyleRounded)
			tw.AppendHeader(table.Row{"Tool", "Command", "Status", "Purpose"})
			for _, status := range statuses {
				state := "ok"
				if !status.Available {
					state = "missing: " + status.Detail
				}
				tw.AppendRow(table.Row{status.Name, status.Command, state, status.Description})
			}
			fmt.Fprintln(cmd.OutOrStdout(), tw.Render())

			return deps.Missing(statuses)
		},
	}
}

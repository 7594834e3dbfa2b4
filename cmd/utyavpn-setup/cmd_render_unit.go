package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/UtyaVPN/UtyaVPN/internal/steps"
)

var renderUnitCmd = &cobra.Command{
	Use:   "render-unit",
	Short: "Print the systemd unit without installing it",
	Args:  cobra.NoArgs,
	RunE:  renderUnit,
}

func init() {
	rootCmd.AddCommand(renderUnitCmd)
}

func renderUnit(cmd *cobra.Command, args []string) error {
	opts, _, err := buildOptions(cmd)
	if err != nil {
		return err
	}

	content, err := steps.RenderUnit(*opts)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), string(content))
	return nil
}

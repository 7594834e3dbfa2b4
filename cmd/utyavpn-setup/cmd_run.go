package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/UtyaVPN/UtyaVPN/internal/cli"
)

var runCmd = &cobra.Command{
	Use:   "run [stage|all]",
	Short: "Run installation stages",
	Long:  "Run one installation stage, or all of them in order.\n\nStages:\n" + stageHelp(),
	Args:  cobra.ExactArgs(1),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		names := []string{"all"}
		for _, s := range cli.GetAllStages() {
			names = append(names, s.ShortName)
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: runStage,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func stageHelp() string {
	var b strings.Builder
	fmt.Fprintf(&b, "  %-11s - %s\n", "all", "Run every stage")
	for _, s := range cli.GetAllStages() {
		fmt.Fprintf(&b, "  %-11s - %s\n", s.ShortName, s.Description)
	}
	return b.String()
}

func runStage(cmd *cobra.Command, args []string) error {
	stage := args[0]
	if _, ok := cli.LookupStage(stage); !ok && stage != "all" {
		return fmt.Errorf("unknown stage: %s", stage)
	}

	sc, cleanup, err := newSetupContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if stage == "all" {
		return cli.RunAll(cmd.Context(), sc)
	}
	return cli.RunStage(cmd.Context(), sc, stage)
}

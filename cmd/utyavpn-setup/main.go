package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/UtyaVPN/UtyaVPN/internal/cli"
	"github.com/UtyaVPN/UtyaVPN/pkg/version"
)

var rootCmd = &cobra.Command{
	Use:   "utyavpn-setup",
	Short: "UtyaVPN bot installer",
	Long: `Installs the UtyaVPN Telegram bot on a Debian or Ubuntu host.

The installer runs these stages in order and stops at the first failure:
- Pre-flight checks
- Bot configuration (writes the .env file)
- Locale installation
- Python virtual environment and dependencies
- Bot database schema
- systemd service registration and start

Run without arguments to perform a full install.`,
	Version:       version.Short(),
	SilenceUsage:  true, // We handle errors manually, but silence usage on error
	SilenceErrors: true, // We format errors ourselves for consistent output
	RunE:          runInstall,
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Run every installation stage",
	Args:  cobra.NoArgs,
	RunE:  runInstall,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Info())
	},
}

func init() {
	registerFlags(rootCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(versionCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	sc, cleanup, err := newSetupContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	return cli.RunAll(cmd.Context(), sc)
}

// reportError prints err for the operator and returns the exit status
func reportError(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	fmt.Fprintf(w, "Error: %v\n", err)
	return 1
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	os.Exit(reportError(os.Stdout, err))
}

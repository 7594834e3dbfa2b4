package main

import (
	"bytes"

	"github.com/spf13/cobra"

	"github.com/UtyaVPN/UtyaVPN/internal/config"
	"github.com/UtyaVPN/UtyaVPN/internal/steps"
	"github.com/UtyaVPN/UtyaVPN/internal/system"
	"github.com/UtyaVPN/UtyaVPN/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show installation status",
	Long:  `Show the environment file, virtual environment and service state of an installation.`,
	Args:  cobra.NoArgs,
	RunE:  showStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func showStatus(cmd *cobra.Command, args []string) error {
	opts, _, err := buildOptions(cmd)
	if err != nil {
		return err
	}

	u := ui.New()
	u.SetNoColor(noColor)
	fs := system.NewFileSystem()
	runner := system.NewCommandRunner(nil)
	services := system.NewServiceManager(runner, false)
	locales := system.NewLocaleManager(runner, false)
	ctx := cmd.Context()

	u.Header("UtyaVPN Installation Status")
	u.Bold("Project root: " + opts.ProjectRoot)
	u.Separator()

	u.Step("Environment File")
	envPath := opts.EnvFilePath()
	if env, err := config.ReadEnvFile(envPath); err != nil {
		u.Warningf("%s: %v", envPath, err)
	} else {
		u.Successf("%s (%d keys)", envPath, env.Len())
		for _, key := range env.Keys() {
			value, _ := env.Get(key)
			if key == config.KeyToken {
				value = config.MaskSecret(value)
			}
			u.Printf("  %s=%s", key, value)
		}
	}

	u.Step("Locale")
	if ok, err := locales.IsAvailable(ctx, opts.Locale); err != nil {
		u.Warningf("Could not list locales: %v", err)
	} else if ok {
		u.Successf("%s is generated", opts.Locale)
	} else {
		u.Warningf("%s is not generated", opts.Locale)
	}

	u.Step("Python Environment")
	if ok, _ := fs.DirectoryExists(opts.VenvPath()); !ok {
		u.Warningf("%s not found", opts.VenvPath())
	} else if ok, _ := fs.FileExists(opts.VenvInterpreterPath()); ok {
		u.Successf("%s", opts.VenvInterpreterPath())
	} else {
		u.Warningf("%s exists but has no %s", opts.VenvPath(), opts.Interpreter)
	}

	u.Step("Service")
	unitPath := opts.UnitPath()
	installed, err := fs.ReadFile(unitPath)
	if err != nil {
		u.Warningf("%s not found", unitPath)
		return nil
	}
	u.Successf("%s", unitPath)
	if want, err := steps.RenderUnit(*opts); err == nil && !bytes.Equal(installed, want) {
		u.Warningf("%s differs from the current options; run the service stage to regenerate it", unitPath)
	}

	unit := opts.UnitName()
	if enabled, err := services.IsEnabled(ctx, unit); err != nil {
		u.Warningf("Could not query %s: %v", unit, err)
	} else if enabled {
		u.Successf("%s is enabled", unit)
	} else {
		u.Warningf("%s is not enabled", unit)
	}

	if active, err := services.IsActive(ctx, unit); err != nil {
		u.Warningf("Could not query %s: %v", unit, err)
	} else if active {
		u.Successf("%s is running", unit)
	} else {
		u.Errorf("%s is not running", unit)
		u.Infof("Check the logs with: journalctl -u %s -n 50", unit)
	}

	return nil
}

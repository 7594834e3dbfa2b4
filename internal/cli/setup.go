// Package cli wires the installer's stages together: it builds the shared
// SetupContext, knows the stage order and runs one stage or the whole chain,
// stopping at the first failure.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/UtyaVPN/UtyaVPN/internal/config"
	"github.com/UtyaVPN/UtyaVPN/internal/steps"
	"github.com/UtyaVPN/UtyaVPN/internal/system"
	"github.com/UtyaVPN/UtyaVPN/internal/telegram"
	"github.com/UtyaVPN/UtyaVPN/internal/ui"
)

// SetupContext holds all dependencies needed for setup operations
type SetupContext struct {
	UI      *ui.UI
	Options *steps.Options
	// Answers are [bot] values from the answers file
	Answers map[string]string
	// Bot is filled by the config stage, or loaded from the env file when a
	// later stage runs on its own
	Bot *config.BotConfig

	Runner   system.CommandRunner
	FS       system.FileSystemManager
	Packages *system.PackageManager
	Services *system.ServiceManager
	Locales  *system.LocaleManager
	Verifier steps.TokenVerifier
	UseSudo  bool

	Logger *zap.Logger
	RunID  string
}

// NewSetupContext creates a SetupContext that acts on the local host
func NewSetupContext(u *ui.UI, opts *steps.Options, answers map[string]string, logger *zap.Logger, runID string) *SetupContext {
	if logger == nil {
		logger = zap.NewNop()
	}
	runner := system.NewCommandRunner(logger)
	useSudo := system.NeedsSudo()
	fs := system.NewPrivilegedFileSystem(runner, useSudo)
	sc := NewSetupContextWithDeps(u, opts, answers, runner, fs, useSudo)
	sc.Logger = logger
	sc.RunID = runID
	return sc
}

// NewSetupContextWithDeps creates a SetupContext around the given runner
// and filesystem
func NewSetupContextWithDeps(u *ui.UI, opts *steps.Options, answers map[string]string, runner system.CommandRunner, fs system.FileSystemManager, useSudo bool) *SetupContext {
	return &SetupContext{
		UI:       u,
		Options:  opts,
		Answers:  answers,
		Runner:   runner,
		FS:       fs,
		Packages: system.NewPackageManager(runner, useSudo),
		Services: system.NewServiceManager(runner, useSudo),
		Locales:  system.NewLocaleManager(runner, useSudo),
		Verifier: telegram.NewVerifier(),
		UseSudo:  useSudo,
		Logger:   zap.NewNop(),
	}
}

// StageInfo contains metadata about a stage
type StageInfo struct {
	Name        string
	ShortName   string
	Description string
	Optional    bool
}

// GetAllStages returns information about all stages in order
func GetAllStages() []StageInfo {
	return []StageInfo{
		{Name: "pre-flight check", ShortName: steps.StagePreflight, Description: "Verify the host can run the installer"},
		{Name: "bot configuration", ShortName: steps.StageConfig, Description: "Collect settings and write the environment file"},
		{Name: "locale", ShortName: steps.StageLocale, Description: "Install and activate the bot locale"},
		{Name: "python environment", ShortName: steps.StagePython, Description: "Create the virtual environment and install dependencies"},
		{Name: "database", ShortName: steps.StageDatabase, Description: "Create the bot database schema", Optional: true},
		{Name: "systemd service", ShortName: steps.StageService, Description: "Register and start the bot service"},
	}
}

// LookupStage finds a stage by short name
func LookupStage(shortName string) (StageInfo, bool) {
	for _, s := range GetAllStages() {
		if s.ShortName == shortName {
			return s, true
		}
	}
	return StageInfo{}, false
}

var titleCaser = cases.Title(language.English)

// RunStage executes a single stage by short name
func RunStage(ctx context.Context, sc *SetupContext, shortName string) error {
	return RunStages(ctx, sc, shortName)
}

// RunAll executes every stage in order, stopping at the first failure
func RunAll(ctx context.Context, sc *SetupContext) error {
	names := make([]string, 0, len(GetAllStages()))
	for _, s := range GetAllStages() {
		names = append(names, s.ShortName)
	}

	if err := RunStages(ctx, sc, names...); err != nil {
		return err
	}

	printSummary(sc)
	return nil
}

// RunStages executes the named stages in the given order
func RunStages(ctx context.Context, sc *SetupContext, shortNames ...string) error {
	for i, name := range shortNames {
		info, ok := LookupStage(name)
		if !ok {
			return fmt.Errorf("unknown stage: %s", name)
		}

		if err := ctx.Err(); err != nil {
			return fmt.Errorf("installation interrupted before %s stage: %w", name, err)
		}

		title := titleCaser.String(info.Name)
		if len(shortNames) > 1 {
			title = fmt.Sprintf("[%d/%d] %s", i+1, len(shortNames), title)
		}
		sc.UI.Header(title)

		start := time.Now()
		sc.Logger.Info("stage started", zap.String("stage", name))

		if err := runStage(ctx, sc, name); err != nil {
			sc.Logger.Error("stage failed", zap.String("stage", name), zap.Duration("duration", time.Since(start)), zap.Error(err))
			return err
		}

		sc.Logger.Info("stage finished", zap.String("stage", name), zap.Duration("duration", time.Since(start)))
		sc.UI.Successf("Stage '%s' completed successfully!", name)
	}
	return nil
}

func runStage(ctx context.Context, sc *SetupContext, name string) error {
	opts := sc.Options

	switch name {
	case steps.StagePreflight:
		return steps.NewPreflight(sc.Runner, sc.FS, sc.UI, opts, sc.UseSudo).Run(ctx)
	case steps.StageConfig:
		cfg, err := steps.NewEnvConfig(sc.UI, sc.UI, sc.FS, sc.Verifier, opts, sc.Answers).Run(ctx)
		if err != nil {
			return err
		}
		sc.Bot = cfg
		sc.Logger.Info("bot configuration written", zap.String("path", opts.EnvFilePath()), zap.Stringer("config", cfg))
		return nil
	case steps.StageLocale:
		return steps.NewLocaleSetup(sc.Packages, sc.Locales, sc.UI, opts).Run(ctx)
	case steps.StagePython:
		return steps.NewPythonSetup(sc.Runner, sc.Packages, sc.FS, sc.UI, opts).Run(ctx)
	case steps.StageDatabase:
		if opts.SkipDatabase {
			sc.UI.Info("Skipping database initialization")
			return nil
		}
		if err := ensureBotConfig(sc); err != nil {
			return err
		}
		return steps.NewDatabaseSetup(sc.FS, sc.UI, opts, sc.Bot).Run(ctx)
	case steps.StageService:
		return steps.NewServiceSetup(sc.Services, sc.FS, sc.UI, opts).Run(ctx)
	default:
		return fmt.Errorf("unknown stage: %s", name)
	}
}

// ensureBotConfig loads the env file written by an earlier run when the
// config stage has not run in this process
func ensureBotConfig(sc *SetupContext) error {
	if sc.Bot != nil {
		return nil
	}

	path := sc.Options.EnvFilePath()
	env, err := config.ReadEnvFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &steps.StageError{Stage: steps.StageDatabase, Kind: steps.KindPrerequisite, Err: fmt.Errorf("%s not found; run the config stage first", path)}
		}
		return &steps.StageError{Stage: steps.StageDatabase, Kind: steps.KindFilesystem, Err: err}
	}

	cfg, err := config.BotConfigFromEnv(env)
	if err != nil {
		return &steps.StageError{Stage: steps.StageDatabase, Kind: steps.KindValidation, Err: err}
	}

	sc.UI.Infof("Loaded configuration from %s", path)
	sc.Bot = &cfg
	return nil
}

func printSummary(sc *SetupContext) {
	unit := sc.Options.UnitName()

	sc.UI.Header("Installation Complete")
	sc.UI.Successf("%s is installed and running", unit)
	sc.UI.Print("")
	sc.UI.Info("Useful commands:")
	sc.UI.Printf("  systemctl status %s", unit)
	sc.UI.Printf("  journalctl -u %s -f", unit)
	sc.UI.Printf("  systemctl restart %s", unit)
	if sc.RunID != "" {
		sc.UI.Print("")
		sc.UI.Infof("Run ID: %s", sc.RunID)
	}
}

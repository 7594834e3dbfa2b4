package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/UtyaVPN/UtyaVPN/internal/cli"
	"github.com/UtyaVPN/UtyaVPN/internal/config"
	"github.com/UtyaVPN/UtyaVPN/internal/logging"
	"github.com/UtyaVPN/UtyaVPN/internal/steps"
	"github.com/UtyaVPN/UtyaVPN/internal/system"
	"github.com/UtyaVPN/UtyaVPN/internal/ui"
	"github.com/UtyaVPN/UtyaVPN/pkg/version"
)

var (
	// Global flags
	projectRoot    string
	envFile        string
	answersFile    string
	logFile        string
	noColor        bool
	nonInteractive bool

	// Installation flags
	profile      string
	serviceName  string
	serviceUser  string
	systemdDir   string
	venvDir      string
	interpreter  string
	mainFile     string
	requirements string
	locale       string
	verifyToken  bool
	skipDatabase bool
)

func registerFlags(cmd *cobra.Command) {
	defaults := steps.DefaultOptions("")
	flags := cmd.PersistentFlags()

	flags.StringVar(&projectRoot, "project-root", "", "Bot checkout directory (default: current directory)")
	flags.StringVar(&envFile, "env-file", defaults.EnvFile, "Environment file, relative to the project root unless absolute")
	flags.StringVar(&answersFile, "answers", "", "TOML file with pre-filled answers")
	flags.StringVar(&logFile, "log-file", "", "Append a JSON audit log of executed commands to this file")
	flags.BoolVar(&noColor, "no-color", false, "Disable coloured output")
	flags.BoolVar(&nonInteractive, "non-interactive", false, "Never prompt; every required value must come from the answers file")

	flags.StringVar(&profile, "profile", string(defaults.Profile), "Prompt profile: gated or compact")
	flags.StringVar(&serviceName, "service-name", defaults.ServiceName, "systemd service name, without .service")
	flags.StringVar(&serviceUser, "service-user", defaults.ServiceUser, "User the bot runs as")
	flags.StringVar(&systemdDir, "systemd-dir", defaults.SystemdDir, "Directory the unit file is written to")
	flags.StringVar(&venvDir, "venv-dir", defaults.VenvDir, "Virtual environment directory, relative to the project root")
	flags.StringVar(&interpreter, "interpreter", defaults.Interpreter, "Python interpreter used to create the virtual environment")
	flags.StringVar(&mainFile, "main-file", defaults.MainFile, "Bot entry point, relative to the project root")
	flags.StringVar(&requirements, "requirements", defaults.Requirements, "Requirements manifest, relative to the project root")
	flags.StringVar(&locale, "locale", defaults.Locale, "Locale to generate and make the system default")
	flags.BoolVar(&verifyToken, "verify-token", false, "Check the bot token with Telegram before writing it")
	flags.BoolVar(&skipDatabase, "skip-database", false, "Do not create the bot database")
}

// buildOptions merges defaults, the [installer] table of the answers file
// and explicit flags, in increasing order of precedence.
func buildOptions(cmd *cobra.Command) (*steps.Options, *config.Answers, error) {
	answers := &config.Answers{}
	if answersFile != "" {
		loaded, err := config.LoadAnswers(answersFile)
		if err != nil {
			return nil, nil, err
		}
		answers = loaded
	}
	in := answers.Installer
	flags := cmd.Flags()

	root := pick(flags, "project-root", projectRoot, in.ProjectRoot)
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to determine current directory: %w", err)
		}
		root = wd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve project root: %w", err)
	}

	opts := steps.DefaultOptions(root)
	opts.EnvFile = pick(flags, "env-file", envFile, in.EnvFile)
	opts.ServiceName = pick(flags, "service-name", serviceName, in.ServiceName)
	opts.ServiceUser = pick(flags, "service-user", serviceUser, in.ServiceUser)
	opts.SystemdDir = pick(flags, "systemd-dir", systemdDir, in.SystemdDir)
	opts.VenvDir = pick(flags, "venv-dir", venvDir, in.VenvDir)
	opts.Interpreter = pick(flags, "interpreter", interpreter, in.Interpreter)
	opts.MainFile = pick(flags, "main-file", mainFile, in.MainFile)
	opts.Requirements = pick(flags, "requirements", requirements, in.Requirements)
	opts.Locale = pick(flags, "locale", locale, in.Locale)
	opts.VerifyToken = pickBool(flags, "verify-token", verifyToken, in.VerifyToken)
	opts.SkipDatabase = pickBool(flags, "skip-database", skipDatabase, in.SkipDatabase)
	opts.Advanced = in.Advanced

	p, err := config.ParseProfile(pick(flags, "profile", profile, in.Profile))
	if err != nil {
		return nil, nil, err
	}
	opts.Profile = p

	if err := opts.Validate(); err != nil {
		return nil, nil, err
	}

	return &opts, answers, nil
}

// pick returns the flag value when it was set explicitly, else the answer,
// else the flag default
func pick(flags *pflag.FlagSet, name, flagValue, answer string) string {
	if flags.Changed(name) || answer == "" {
		return flagValue
	}
	return answer
}

func pickBool(flags *pflag.FlagSet, name string, flagValue bool, answer *bool) bool {
	if flags.Changed(name) || answer == nil {
		return flagValue
	}
	return *answer
}

// newSetupContext builds everything a stage needs. The returned cleanup
// flushes the audit log.
func newSetupContext(cmd *cobra.Command) (*cli.SetupContext, func(), error) {
	opts, answers, err := buildOptions(cmd)
	if err != nil {
		return nil, nil, err
	}

	logger, runID, err := logging.New(logFile)
	if err != nil {
		return nil, nil, err
	}

	u := ui.New()
	u.SetNoColor(noColor)
	if nonInteractive {
		u.SetNonInteractive(true)
	}

	if keys := answers.BotKeys(); len(keys) > 0 {
		u.Infof("Using answers file %s for: %s", answersFile, strings.Join(keys, ", "))
	}
	logger.Info("installer started",
		zap.String("version", version.Short()),
		zap.String("project_root", opts.ProjectRoot),
		zap.String("profile", string(opts.Profile)),
		zap.Bool("interactive", !u.IsNonInteractive()),
		zap.Bool("sudo", system.NeedsSudo()),
	)

	sc := cli.NewSetupContext(u, opts, answers.BotValues(), logger, runID)
	cleanup := func() { _ = logger.Sync() }
	return sc, cleanup, nil
}

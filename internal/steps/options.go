package steps

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/UtyaVPN/UtyaVPN/internal/common"
	"github.com/UtyaVPN/UtyaVPN/internal/config"
	"github.com/UtyaVPN/UtyaVPN/internal/system"
)

// Options describes where the bot lives and how it is installed
type Options struct {
	ProjectRoot  string
	EnvFile      string
	Profile      config.Profile
	ServiceName  string
	ServiceUser  string
	SystemdDir   string
	VenvDir      string
	Interpreter  string
	MainFile     string
	Requirements string
	Locale       string
	VerifyToken  bool
	SkipDatabase bool
	// Advanced answers the "configure advanced settings" question up front.
	// nil means ask.
	Advanced *bool
}

// DefaultOptions returns the installer defaults for a project root
func DefaultOptions(projectRoot string) Options {
	return Options{
		ProjectRoot:  projectRoot,
		EnvFile:      ".env",
		Profile:      config.ProfileGated,
		ServiceName:  "utyavpn",
		ServiceUser:  "root",
		SystemdDir:   "/etc/systemd/system",
		VenvDir:      "venv",
		Interpreter:  "python3",
		MainFile:     "main.py",
		Requirements: "requirements.txt",
		Locale:       "ru_RU.UTF-8",
	}
}

// Validate checks the options before any stage runs
func (o Options) Validate() error {
	if err := common.ValidatePath(o.ProjectRoot); err != nil {
		return fmt.Errorf("invalid project root: %w", err)
	}
	if err := common.ValidatePath(o.SystemdDir); err != nil {
		return fmt.Errorf("invalid systemd directory: %w", err)
	}
	if err := validateServiceName(o.ServiceName); err != nil {
		return err
	}
	if err := common.ValidateUsername(o.ServiceUser); err != nil {
		return fmt.Errorf("invalid service user: %w", err)
	}
	if o.Interpreter == "" || strings.ContainsRune(o.Interpreter, '/') {
		return fmt.Errorf("interpreter must be a command name such as python3, got %q", o.Interpreter)
	}
	if err := common.ValidateNotEmpty(o.EnvFile); err != nil {
		return fmt.Errorf("invalid env file: %w", err)
	}
	if err := common.ValidateNotEmpty(o.Locale); err != nil {
		return fmt.Errorf("invalid locale: %w", err)
	}

	relative := map[string]string{
		"venv directory":        o.VenvDir,
		"main file":             o.MainFile,
		"requirements manifest": o.Requirements,
	}
	for name, value := range relative {
		if value == "" {
			return fmt.Errorf("%s cannot be empty", name)
		}
		if filepath.IsAbs(value) {
			return fmt.Errorf("%s must be relative to the project root: %s", name, value)
		}
	}

	if _, err := config.ParseProfile(string(o.Profile)); err != nil {
		return err
	}
	return nil
}

func validateServiceName(name string) error {
	if name == "" {
		return fmt.Errorf("service name cannot be empty")
	}
	for _, c := range name {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == '_' || c == '.' || c == '@') {
			return fmt.Errorf("service name contains invalid character %q: %s", c, name)
		}
	}
	if strings.HasSuffix(name, ".service") {
		return fmt.Errorf("service name must not include the .service suffix: %s", name)
	}
	return nil
}

// resolve joins a path onto the project root unless it is already absolute
func (o Options) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(o.ProjectRoot, path)
}

// EnvFilePath is the environment file the bot reads
func (o Options) EnvFilePath() string {
	return o.resolve(o.EnvFile)
}

// VenvPath is the virtual environment directory
func (o Options) VenvPath() string {
	return filepath.Join(o.ProjectRoot, o.VenvDir)
}

// VenvInterpreterPath is the interpreter inside the virtual environment
func (o Options) VenvInterpreterPath() string {
	return filepath.Join(o.ProjectRoot, o.VenvDir, "bin", o.Interpreter)
}

// PipPath is pip inside the virtual environment
func (o Options) PipPath() string {
	return filepath.Join(o.ProjectRoot, o.VenvDir, "bin", "pip")
}

// MainPath is the bot entry point
func (o Options) MainPath() string {
	return filepath.Join(o.ProjectRoot, o.MainFile)
}

// RequirementsPath is the dependency manifest
func (o Options) RequirementsPath() string {
	return filepath.Join(o.ProjectRoot, o.Requirements)
}

// UnitName is the systemd unit name
func (o Options) UnitName() string {
	return system.UnitName(o.ServiceName)
}

// UnitPath is where the unit file is written
func (o Options) UnitPath() string {
	return filepath.Join(o.SystemdDir, o.UnitName())
}

// DatabasePath resolves the bot's database path. The bot runs with the
// project root as its working directory, so relative paths land there.
func (o Options) DatabasePath(cfg config.BotConfig) string {
	return o.resolve(cfg.DatabasePath)
}

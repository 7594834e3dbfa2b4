package steps

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"

	"github.com/UtyaVPN/UtyaVPN/internal/system"
	"github.com/UtyaVPN/UtyaVPN/internal/ui"
)

// PythonSetup creates the bot's virtual environment and installs its
// dependencies into it
type PythonSetup struct {
	runner   system.CommandRunner
	packages *system.PackageManager
	fs       system.FileSystemManager
	ui       *ui.UI
	opts     *Options
	lookPath func(string) (string, error)
}

// NewPythonSetup creates the Python environment stage
func NewPythonSetup(runner system.CommandRunner, packages *system.PackageManager, fs system.FileSystemManager, ui *ui.UI, opts *Options) *PythonSetup {
	return &PythonSetup{
		runner:   runner,
		packages: packages,
		fs:       fs,
		ui:       ui,
		opts:     opts,
		lookPath: exec.LookPath,
	}
}

var versionedPython = regexp.MustCompile(`^python3(\.\d+)?$`)

// venvPackage returns the Debian package that provides the venv module
// for an interpreter: python3.11 needs python3.11-venv.
func venvPackage(interpreter string) string {
	if versionedPython.MatchString(interpreter) {
		return interpreter + "-venv"
	}
	return "python3-venv"
}

// Run checks the interpreter, creates the venv and installs requirements.
// A venv left behind by a failed run is reused on the next one.
func (p *PythonSetup) Run(ctx context.Context) error {
	interpreter := p.opts.Interpreter

	p.ui.Step("Python Interpreter")
	path, err := p.lookPath(interpreter)
	if err != nil {
		return stageFailure(StagePython, KindPrerequisite, fmt.Errorf("python interpreter %q not found on PATH: %w", interpreter, err))
	}
	p.ui.Successf("Found %s", path)

	pkg := venvPackage(interpreter)
	installed, err := p.packages.EnsureInstalled(ctx, pkg)
	if err != nil {
		return stageFailure(StagePython, KindPackage, err)
	}
	if installed {
		p.ui.Successf("Installed %s", pkg)
	}

	requirements := p.opts.RequirementsPath()
	exists, err := p.fs.FileExists(requirements)
	if err != nil {
		return stageFailure(StagePython, KindFilesystem, err)
	}
	if !exists {
		return stageFailure(StagePython, KindPrerequisite, fmt.Errorf("requirements manifest not found: %s", requirements))
	}

	p.ui.Step("Virtual Environment")
	venv := p.opts.VenvPath()
	if output, err := p.runner.Run(ctx, interpreter, "-m", "venv", venv); err != nil {
		return stageFailure(StagePython, KindPackage, fmt.Errorf("failed to create virtual environment %s: %w\nOutput: %s", venv, err, output))
	}
	p.ui.Successf("Virtual environment ready at %s", venv)

	p.ui.Step("Installing Dependencies")
	p.ui.Infof("Installing packages from %s (this may take a while)...", requirements)
	if err := p.runner.Stream(ctx, p.ui.Writer(), p.opts.PipPath(), "install", "-r", requirements); err != nil {
		return stageFailure(StagePython, KindPackage, fmt.Errorf("failed to install dependencies: %w", err))
	}
	p.ui.Success("Dependencies installed")

	return nil
}

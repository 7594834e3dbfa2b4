package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/UtyaVPN/UtyaVPN/internal/system"
	"github.com/UtyaVPN/UtyaVPN/internal/ui"
)

// requiredCommands are used by later stages and must already exist.
// locale-gen is not listed: it comes with the locales package.
var requiredCommands = []string{"apt-get", "dpkg-query", "systemctl"}

// Preflight verifies the host can run the installer
type Preflight struct {
	runner        system.CommandRunner
	fs            system.FileSystemManager
	ui            *ui.UI
	opts          *Options
	useSudo       bool
	commandExists func(string) bool
	currentUser   func() (string, error)
}

// NewPreflight creates the preflight stage
func NewPreflight(runner system.CommandRunner, fs system.FileSystemManager, ui *ui.UI, opts *Options, useSudo bool) *Preflight {
	return &Preflight{
		runner:        runner,
		fs:            fs,
		ui:            ui,
		opts:          opts,
		useSudo:       useSudo,
		commandExists: system.CommandExists,
		currentUser:   system.CurrentUsername,
	}
}

// checkCommands verifies the Debian tooling and systemd are present
func (p *Preflight) checkCommands() error {
	p.ui.Info("Checking required commands...")

	var missing []string
	for _, cmd := range requiredCommands {
		if p.commandExists(cmd) {
			p.ui.Successf("  ✓ %s", cmd)
		} else {
			p.ui.Errorf("  ✗ %s not found", cmd)
			missing = append(missing, cmd)
		}
	}

	if len(missing) > 0 {
		p.ui.Info("This installer supports Debian and Ubuntu hosts running systemd")
		return fmt.Errorf("missing required commands: %s", strings.Join(missing, ", "))
	}
	return nil
}

// checkSudoAccess makes sure privileged commands will not stop for a password
func (p *Preflight) checkSudoAccess(ctx context.Context) error {
	if !p.useSudo {
		p.ui.Success("Running as root")
		return nil
	}

	who, err := p.currentUser()
	if err != nil {
		who = "current user"
	}
	p.ui.Infof("Not running as root (%s), checking passwordless sudo...", who)
	if output, err := p.runner.Run(ctx, "sudo", "-n", "true"); err != nil {
		p.ui.Info("Re-run the installer as root, or configure passwordless sudo")
		return fmt.Errorf("sudo requires a password: %w\nOutput: %s", err, output)
	}
	p.ui.Success("Passwordless sudo is configured")
	return nil
}

// checkProject verifies the bot checkout is where the unit will point
func (p *Preflight) checkProject() error {
	p.ui.Infof("Checking project at %s...", p.opts.ProjectRoot)

	entry := p.opts.MainPath()
	exists, err := p.fs.FileExists(entry)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("bot entry point not found: %s", entry)
	}
	p.ui.Successf("  ✓ %s", entry)
	return nil
}

// Run executes every check and reports all failures together
func (p *Preflight) Run(ctx context.Context) error {
	var errorMessages []string

	p.ui.Step("Checking Operating System")
	if err := p.checkCommands(); err != nil {
		errorMessages = append(errorMessages, err.Error())
	}

	p.ui.Step("Checking Privileges")
	if err := p.checkSudoAccess(ctx); err != nil {
		errorMessages = append(errorMessages, err.Error())
	}

	p.ui.Step("Checking Project Files")
	if err := p.checkProject(); err != nil {
		errorMessages = append(errorMessages, err.Error())
	}

	if len(errorMessages) > 0 {
		return stageFailure(StagePreflight, KindPrerequisite, fmt.Errorf("%s", strings.Join(errorMessages, "; ")))
	}

	p.ui.Success("All pre-flight checks passed")
	return nil
}

package system

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// PackageManager installs and queries Debian packages
type PackageManager struct {
	runner  CommandRunner
	useSudo bool
	updated bool
}

// NewPackageManager creates a package manager. useSudo prefixes apt-get
// with "sudo -n".
func NewPackageManager(runner CommandRunner, useSudo bool) *PackageManager {
	return &PackageManager{runner: runner, useSudo: useSudo}
}

// IsInstalled checks if a package is installed
func (pm *PackageManager) IsInstalled(ctx context.Context, packageName string) (bool, error) {
	output, err := pm.runner.Run(ctx, "dpkg-query", "-W", "-f=${Status}", packageName)
	if err != nil {
		// dpkg-query exits 1 for packages it has never heard of
		if exitCode(err) == 1 {
			return false, nil
		}
		return false, fmt.Errorf("failed to check package %s: %w\nOutput: %s", packageName, err, output)
	}

	return strings.Contains(output, "install ok installed"), nil
}

// Install installs the given packages with apt-get. The package index is
// refreshed once per PackageManager before the first install.
func (pm *PackageManager) Install(ctx context.Context, packages ...string) error {
	if len(packages) == 0 {
		return nil
	}

	if !pm.updated {
		name, args := privileged(pm.useSudo, "apt-get", "update", "-q")
		if output, err := pm.runner.Run(ctx, name, args...); err != nil {
			return fmt.Errorf("failed to update package index: %w\nOutput: %s", err, output)
		}
		pm.updated = true
	}

	installArgs := append([]string{"DEBIAN_FRONTEND=noninteractive", "apt-get", "install", "-y", "-q"}, packages...)
	name, args := privileged(pm.useSudo, "env", installArgs...)
	if output, err := pm.runner.Run(ctx, name, args...); err != nil {
		return fmt.Errorf("failed to install %s: %w\nOutput: %s", strings.Join(packages, " "), err, output)
	}

	return nil
}

// EnsureInstalled installs packageName unless it is already present. It
// reports whether an install was performed.
func (pm *PackageManager) EnsureInstalled(ctx context.Context, packageName string) (bool, error) {
	installed, err := pm.IsInstalled(ctx, packageName)
	if err != nil {
		return false, err
	}
	if installed {
		return false, nil
	}

	if err := pm.Install(ctx, packageName); err != nil {
		return false, err
	}
	return true, nil
}

// CommandExists checks if a command is available in PATH
func CommandExists(command string) bool {
	_, err := exec.LookPath(command)
	return err == nil
}

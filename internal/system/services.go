package system

import (
	"context"
	"fmt"
)

// ServiceManager drives systemd through systemctl
type ServiceManager struct {
	runner  CommandRunner
	useSudo bool
}

// NewServiceManager creates a service manager. useSudo prefixes state
// changing systemctl calls with "sudo -n".
func NewServiceManager(runner CommandRunner, useSudo bool) *ServiceManager {
	return &ServiceManager{runner: runner, useSudo: useSudo}
}

func (sm *ServiceManager) systemctl(ctx context.Context, args ...string) (string, error) {
	name, args := privileged(sm.useSudo, "systemctl", args...)
	return sm.runner.Run(ctx, name, args...)
}

// DaemonReload reloads systemd manager configuration
func (sm *ServiceManager) DaemonReload(ctx context.Context) error {
	output, err := sm.systemctl(ctx, "daemon-reload")
	if err != nil {
		return fmt.Errorf("failed to reload systemd daemon: %w\nOutput: %s", err, output)
	}
	return nil
}

// Enable enables a service to start on boot
func (sm *ServiceManager) Enable(ctx context.Context, serviceName string) error {
	output, err := sm.systemctl(ctx, "enable", serviceName)
	if err != nil {
		return fmt.Errorf("failed to enable service %s: %w\nOutput: %s", serviceName, err, output)
	}
	return nil
}

// Start starts a service
func (sm *ServiceManager) Start(ctx context.Context, serviceName string) error {
	output, err := sm.systemctl(ctx, "start", serviceName)
	if err != nil {
		return fmt.Errorf("failed to start service %s: %w\nOutput: %s", serviceName, err, output)
	}
	return nil
}

// Status returns the status output for a service.
// systemctl status exits non-zero for inactive services; the output is
// returned in that case too.
func (sm *ServiceManager) Status(ctx context.Context, serviceName string) (string, error) {
	return sm.runner.Run(ctx, "systemctl", "status", serviceName, "--no-pager")
}

// IsActive checks if a service is currently active
func (sm *ServiceManager) IsActive(ctx context.Context, serviceName string) (bool, error) {
	return sm.query(ctx, "is-active", serviceName)
}

// IsEnabled checks if a service is enabled to start on boot
func (sm *ServiceManager) IsEnabled(ctx context.Context, serviceName string) (bool, error) {
	return sm.query(ctx, "is-enabled", serviceName)
}

func (sm *ServiceManager) query(ctx context.Context, verb, serviceName string) (bool, error) {
	output, err := sm.runner.Run(ctx, "systemctl", verb, "--quiet", serviceName)
	if err == nil {
		return true, nil
	}

	// any exit status means "no"; only a failure to run systemctl is an error
	if code := exitCode(err); code > 0 {
		return false, nil
	}

	return false, fmt.Errorf("failed to run systemctl %s %s: %w\nOutput: %s", verb, serviceName, err, output)
}

// UnitName returns the unit file name for a service
func UnitName(serviceName string) string {
	return serviceName + ".service"
}

package steps

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/UtyaVPN/UtyaVPN/internal/system"
	"github.com/UtyaVPN/UtyaVPN/internal/ui"
)

const unitTemplate = `[Unit]
Description=UtyaVPN Telegram bot
After=network.target

[Service]
User={{.User}}
WorkingDirectory={{.WorkingDirectory}}
ExecStart={{.ExecStart}}
Restart=always
RestartSec=5
StandardOutput=journal
StandardError=journal
SyslogIdentifier={{.SyslogIdentifier}}

[Install]
WantedBy=multi-user.target
`

var unitTmpl = template.Must(template.New("unit").Parse(unitTemplate))

// UnitData fills the unit template
type UnitData struct {
	User             string
	WorkingDirectory string
	ExecStart        string
	SyslogIdentifier string
}

// ExecStart returns the venv interpreter followed by the entry point
func ExecStart(opts Options) string {
	return quoteUnitArg(opts.VenvInterpreterPath()) + " " + quoteUnitArg(opts.MainPath())
}

// quoteUnitArg quotes a path for systemd's command line splitting. Paths
// without whitespace are left as they are. Only ExecStart is split this
// way; WorkingDirectory takes the path verbatim.
func quoteUnitArg(arg string) string {
	if !strings.ContainsAny(arg, " \t") {
		return arg
	}
	return `"` + strings.ReplaceAll(arg, `"`, `\"`) + `"`
}

// RenderUnit renders the unit file for opts
func RenderUnit(opts Options) ([]byte, error) {
	data := UnitData{
		User:             opts.ServiceUser,
		WorkingDirectory: opts.ProjectRoot,
		ExecStart:        ExecStart(opts),
		SyslogIdentifier: opts.ServiceName,
	}

	var buf bytes.Buffer
	if err := unitTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render unit file: %w", err)
	}
	return buf.Bytes(), nil
}

// ServiceSetup registers and starts the bot's systemd unit
type ServiceSetup struct {
	services   *system.ServiceManager
	fs         system.FileSystemManager
	ui         *ui.UI
	opts       *Options
	userExists func(string) (bool, error)
}

// NewServiceSetup creates the service registration stage
func NewServiceSetup(services *system.ServiceManager, fs system.FileSystemManager, ui *ui.UI, opts *Options) *ServiceSetup {
	return &ServiceSetup{
		services:   services,
		fs:         fs,
		ui:         ui,
		opts:       opts,
		userExists: system.UserExists,
	}
}

// Run writes the unit, reloads systemd, then enables and starts the bot.
// The closing status query is informational and never fails the stage.
func (s *ServiceSetup) Run(ctx context.Context) error {
	unit := s.opts.UnitName()

	exists, err := s.userExists(s.opts.ServiceUser)
	if err != nil {
		return stageFailure(StageService, KindPrerequisite, err)
	}
	if !exists {
		return stageFailure(StageService, KindPrerequisite, fmt.Errorf("service user %s does not exist", s.opts.ServiceUser))
	}

	s.ui.Step("Writing Unit File")
	content, err := RenderUnit(*s.opts)
	if err != nil {
		return stageFailure(StageService, KindFilesystem, err)
	}
	path := s.opts.UnitPath()
	if err := s.fs.WriteFile(path, content, 0644); err != nil {
		return stageFailure(StageService, KindFilesystem, fmt.Errorf("failed to write unit file %s: %w", path, err))
	}
	s.ui.Successf("Wrote %s", path)

	s.ui.Step("Starting Service")
	if err := s.services.DaemonReload(ctx); err != nil {
		return stageFailure(StageService, KindService, err)
	}
	s.ui.Success("Reloaded systemd")

	if err := s.services.Enable(ctx, unit); err != nil {
		return stageFailure(StageService, KindService, err)
	}
	s.ui.Successf("Enabled %s", unit)

	if err := s.services.Start(ctx, unit); err != nil {
		return stageFailure(StageService, KindService, err)
	}
	s.ui.Successf("Started %s", unit)

	status, err := s.services.Status(ctx, unit)
	if err != nil {
		s.ui.Warningf("systemctl status %s reported a problem: %v", unit, err)
	}
	if status = strings.TrimRight(status, "\n"); status != "" {
		s.ui.Print(status)
	}

	return nil
}

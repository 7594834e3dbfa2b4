package steps

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/UtyaVPN/UtyaVPN/internal/system"
)

const wantUnit = `[Unit]
Description=UtyaVPN Telegram bot
After=network.target

[Service]
User=root
WorkingDirectory=/opt/UtyaVPN
ExecStart=/opt/UtyaVPN/venv/bin/python3 /opt/UtyaVPN/main.py
Restart=always
RestartSec=5
StandardOutput=journal
StandardError=journal
SyslogIdentifier=utyavpn

[Install]
WantedBy=multi-user.target
`

func newTestServiceSetup(runner *fakeCommandRunner, fs *system.MockFileSystem) *ServiceSetup {
	testUI, _ := newTestUI()
	s := NewServiceSetup(system.NewServiceManager(runner, false), fs, testUI, testOptions())
	s.userExists = func(string) (bool, error) { return true, nil }
	return s
}

func TestRenderUnit(t *testing.T) {
	got, err := RenderUnit(*testOptions())
	if err != nil {
		t.Fatalf("RenderUnit() error = %v", err)
	}
	if string(got) != wantUnit {
		t.Errorf("RenderUnit() =\n%s\nwant:\n%s", got, wantUnit)
	}
}

func TestRenderUnitRootWithSpace(t *testing.T) {
	opts := testOptions()
	opts.ProjectRoot = "/opt/Utya VPN"

	got, err := RenderUnit(*opts)
	if err != nil {
		t.Fatalf("RenderUnit() error = %v", err)
	}
	unit := string(got)
	if !strings.Contains(unit, "\nWorkingDirectory=/opt/Utya VPN\n") {
		t.Errorf("WorkingDirectory must be written unquoted, got:\n%s", unit)
	}
	if !strings.Contains(unit, `ExecStart="/opt/Utya VPN/venv/bin/python3" "/opt/Utya VPN/main.py"`) {
		t.Errorf("ExecStart arguments must be quoted, got:\n%s", unit)
	}
}

func TestExecStartConcatenation(t *testing.T) {
	tests := []struct {
		name string
		edit func(*Options)
		want string
	}{
		{
			name: "defaults",
			edit: func(*Options) {},
			want: "/opt/UtyaVPN/venv/bin/python3 /opt/UtyaVPN/main.py",
		},
		{
			name: "custom venv and interpreter",
			edit: func(o *Options) {
				o.VenvDir = ".venv"
				o.Interpreter = "python3.11"
				o.MainFile = "bot/main.py"
			},
			want: "/opt/UtyaVPN/.venv/bin/python3.11 /opt/UtyaVPN/bot/main.py",
		},
		{
			name: "trailing slash on root",
			edit: func(o *Options) { o.ProjectRoot = "/opt/UtyaVPN/" },
			want: "/opt/UtyaVPN/venv/bin/python3 /opt/UtyaVPN/main.py",
		},
		{
			name: "root with a space",
			edit: func(o *Options) { o.ProjectRoot = "/opt/Utya VPN" },
			want: `"/opt/Utya VPN/venv/bin/python3" "/opt/Utya VPN/main.py"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions()
			tt.edit(opts)
			if got := ExecStart(*opts); got != tt.want {
				t.Errorf("ExecStart() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestServiceSetupWritesUnitAndStarts(t *testing.T) {
	runner := newFakeCommandRunner()
	fs := system.NewMockFileSystem()

	if err := newTestServiceSetup(runner, fs).Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	content, ok := fs.File("/etc/systemd/system/utyavpn.service")
	if !ok {
		t.Fatalf("unit file not written, files: %v", fs.WrittenFiles)
	}
	if string(content) != wantUnit {
		t.Errorf("unit content =\n%s", content)
	}

	want := []string{
		"systemctl daemon-reload",
		"systemctl enable utyavpn.service",
		"systemctl start utyavpn.service",
		"systemctl status utyavpn.service --no-pager",
	}
	if strings.Join(runner.commands, "\n") != strings.Join(want, "\n") {
		t.Errorf("commands = %v, want %v", runner.commands, want)
	}
}

func TestServiceSetupRerunIsByteIdentical(t *testing.T) {
	fs := system.NewMockFileSystem()

	if err := newTestServiceSetup(newFakeCommandRunner(), fs).Run(context.Background()); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	first, _ := fs.File("/etc/systemd/system/utyavpn.service")

	if err := newTestServiceSetup(newFakeCommandRunner(), fs).Run(context.Background()); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	second, _ := fs.File("/etc/systemd/system/utyavpn.service")

	if string(first) != string(second) {
		t.Errorf("unit changed between identical runs:\n%s\n---\n%s", first, second)
	}
}

func TestServiceSetupStartFailure(t *testing.T) {
	runner := newFakeCommandRunner()
	runner.failCommand = "systemctl start utyavpn.service"

	err := newTestServiceSetup(runner, system.NewMockFileSystem()).Run(context.Background())
	requireStageError(t, err, StageService, KindService)

	if runner.ranPrefix("systemctl status") {
		t.Errorf("status must not run after start fails, commands: %v", runner.commands)
	}
}

func TestServiceSetupStatusFailureIsInformational(t *testing.T) {
	runner := newFakeCommandRunner()
	runner.failCommand = "systemctl status utyavpn.service --no-pager"

	if err := newTestServiceSetup(runner, system.NewMockFileSystem()).Run(context.Background()); err != nil {
		t.Fatalf("a failing status query must not fail the stage: %v", err)
	}
}

func TestServiceSetupWriteFailure(t *testing.T) {
	runner := newFakeCommandRunner()
	fs := system.NewMockFileSystem()
	fs.WriteErr = errors.New("permission denied")

	err := newTestServiceSetup(runner, fs).Run(context.Background())
	requireStageError(t, err, StageService, KindFilesystem)

	if len(runner.commands) != 0 {
		t.Errorf("systemctl must not run without a unit file, commands: %v", runner.commands)
	}
}

func TestServiceSetupMissingUser(t *testing.T) {
	runner := newFakeCommandRunner()
	fs := system.NewMockFileSystem()
	s := newTestServiceSetup(runner, fs)
	s.userExists = func(string) (bool, error) { return false, nil }

	err := s.Run(context.Background())
	requireStageError(t, err, StageService, KindPrerequisite)

	if len(fs.WrittenFiles) != 0 {
		t.Error("unit file must not be written for a missing user")
	}
}

func TestServiceSetupUsesSudoWhenNotRoot(t *testing.T) {
	runner := newFakeCommandRunner()
	testUI, _ := newTestUI()
	s := NewServiceSetup(system.NewServiceManager(runner, true), system.NewMockFileSystem(), testUI, testOptions())
	s.userExists = func(string) (bool, error) { return true, nil }

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !runner.ran("sudo -n systemctl enable utyavpn.service") {
		t.Errorf("expected sudo prefix, commands: %v", runner.commands)
	}
}

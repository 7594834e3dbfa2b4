package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UtyaVPN/UtyaVPN/internal/config"
	"github.com/UtyaVPN/UtyaVPN/internal/steps"
	"github.com/UtyaVPN/UtyaVPN/internal/system"
	"github.com/UtyaVPN/UtyaVPN/internal/ui"
)

type fakeCommandRunner struct {
	commands    []string
	failCommand string
}

func (f *fakeCommandRunner) Run(_ context.Context, name string, args ...string) (string, error) {
	cmd := strings.TrimSpace(name + " " + strings.Join(args, " "))
	f.commands = append(f.commands, cmd)
	if strings.HasPrefix(cmd, "dpkg-query") {
		return "install ok installed", nil
	}
	if cmd == f.failCommand {
		return "", fmt.Errorf("exit status 1")
	}
	return "", nil
}

func (f *fakeCommandRunner) Stream(ctx context.Context, w io.Writer, name string, args ...string) error {
	_, err := f.Run(ctx, name, args...)
	return err
}

func newTestContext(t *testing.T, runner system.CommandRunner, fs system.FileSystemManager) (*SetupContext, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	opts := steps.DefaultOptions("/opt/UtyaVPN")
	// sh is on every PATH and stands in for the interpreter
	opts.Interpreter = "sh"
	opts.SkipDatabase = true
	return NewSetupContextWithDeps(ui.NewWithWriter(buf), &opts, nil, runner, fs, false), buf
}

func TestGetAllStagesOrder(t *testing.T) {
	var names []string
	for _, s := range GetAllStages() {
		names = append(names, s.ShortName)
	}
	assert.Equal(t, []string{"preflight", "config", "locale", "python", "database", "service"}, names)
}

func TestLookupStage(t *testing.T) {
	info, ok := LookupStage("python")
	require.True(t, ok)
	assert.Equal(t, "python environment", info.Name)

	_, ok = LookupStage("wireguard")
	assert.False(t, ok)
}

func TestRunStageUnknown(t *testing.T) {
	sc, _ := newTestContext(t, &fakeCommandRunner{}, system.NewMockFileSystem())
	err := RunStage(context.Background(), sc, "nope")
	assert.EqualError(t, err, "unknown stage: nope")
}

func TestPipFailureWritesNoUnit(t *testing.T) {
	runner := &fakeCommandRunner{failCommand: "/opt/UtyaVPN/venv/bin/pip install -r /opt/UtyaVPN/requirements.txt"}
	fs := system.NewMockFileSystem()
	fs.Existing["/opt/UtyaVPN/requirements.txt"] = true
	sc, _ := newTestContext(t, runner, fs)

	err := RunStages(context.Background(), sc, steps.StagePython, steps.StageDatabase, steps.StageService)

	var stageErr *steps.StageError
	require.True(t, errors.As(err, &stageErr), "got %v", err)
	assert.Equal(t, steps.StagePython, stageErr.Stage)
	assert.Equal(t, steps.KindPackage, stageErr.Kind)

	_, written := fs.File("/etc/systemd/system/utyavpn.service")
	assert.False(t, written, "unit file must not be written after a failed install")
	for _, cmd := range runner.commands {
		assert.NotContains(t, cmd, "systemctl")
	}
}

func TestPythonThroughServiceSucceeds(t *testing.T) {
	username, err := system.CurrentUsername()
	require.NoError(t, err)

	runner := &fakeCommandRunner{}
	fs := system.NewMockFileSystem()
	fs.Existing["/opt/UtyaVPN/requirements.txt"] = true
	sc, buf := newTestContext(t, runner, fs)
	sc.Options.ServiceUser = username

	require.NoError(t, RunStages(context.Background(), sc, steps.StagePython, steps.StageDatabase, steps.StageService))

	unit, written := fs.File("/etc/systemd/system/utyavpn.service")
	require.True(t, written)
	assert.Contains(t, string(unit), "ExecStart=/opt/UtyaVPN/venv/bin/sh /opt/UtyaVPN/main.py\n")
	assert.Contains(t, runner.commands, "systemctl start utyavpn.service")
	assert.Contains(t, buf.String(), "[1/3] Python Environment")
	assert.Contains(t, buf.String(), "[3/3] Systemd Service")
}

func TestInterruptedContextStopsBeforeNextStage(t *testing.T) {
	runner := &fakeCommandRunner{}
	sc, _ := newTestContext(t, runner, system.NewMockFileSystem())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RunStages(ctx, sc, steps.StageLocale)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, runner.commands)
}

func TestConfigThenDatabaseWithAnswers(t *testing.T) {
	root := t.TempDir()
	no := false
	opts := steps.DefaultOptions(root)
	opts.Advanced = &no

	answers := map[string]string{
		config.KeyToken:            "123456789:AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw_",
		config.KeyAdminID:          "111",
		config.KeySupportID:        "222",
		config.KeyPublicChannelURL: "https://t.me/utyavpn",
		config.KeyTrialChannelID:   "-100333",
	}
	buf := &bytes.Buffer{}
	sc := NewSetupContextWithDeps(ui.NewWithWriter(buf), &opts, answers, &fakeCommandRunner{}, system.NewFileSystem(), false)

	require.NoError(t, RunStages(context.Background(), sc, steps.StageConfig, steps.StageDatabase))

	require.NotNil(t, sc.Bot)
	_, err := os.Stat(filepath.Join(root, ".env"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "users.db"))
	assert.NoError(t, err)
}

func TestDatabaseStageLoadsEnvFile(t *testing.T) {
	root := t.TempDir()
	dbPath := filepath.Join(root, "data.db")
	env := "TOKEN=\"123456789:AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw_\"\nDATABASE_PATH=\"" + dbPath + "\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte(env), 0600))

	opts := steps.DefaultOptions(root)
	sc := NewSetupContextWithDeps(ui.NewWithWriter(&bytes.Buffer{}), &opts, nil, &fakeCommandRunner{}, system.NewFileSystem(), false)

	require.NoError(t, RunStage(context.Background(), sc, steps.StageDatabase))
	_, err := os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestDatabaseStageWithoutEnvFile(t *testing.T) {
	opts := steps.DefaultOptions(t.TempDir())
	sc := NewSetupContextWithDeps(ui.NewWithWriter(&bytes.Buffer{}), &opts, nil, &fakeCommandRunner{}, system.NewFileSystem(), false)

	err := RunStage(context.Background(), sc, steps.StageDatabase)

	var stageErr *steps.StageError
	require.True(t, errors.As(err, &stageErr), "got %v", err)
	assert.Equal(t, steps.KindPrerequisite, stageErr.Kind)
	assert.Contains(t, err.Error(), "run the config stage first")
}

package steps

import (
	"context"
	"os"
	"testing"

	"github.com/UtyaVPN/UtyaVPN/internal/system"
)

func newTestLocaleSetup(runner *fakeCommandRunner) *LocaleSetup {
	testUI, _ := newTestUI()
	return NewLocaleSetup(
		system.NewPackageManager(runner, false),
		system.NewLocaleManager(runner, false),
		testUI,
		testOptions(),
	)
}

// markGenerated makes "locale -a" list the bot's locale the way glibc does
func markGenerated(runner *fakeCommandRunner) {
	runner.outputs["locale -a"] = "C\nC.utf8\nPOSIX\nru_RU.utf8\n"
}

func TestLocaleSetupRunsSubStepsInOrder(t *testing.T) {
	t.Setenv("LANG", "C")
	t.Setenv("LC_ALL", "C")

	runner := newFakeCommandRunner()
	runner.markInstalled("locales")
	markGenerated(runner)

	if err := newTestLocaleSetup(runner).Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []string{
		"dpkg-query -W -f=${Status} locales",
		"locale-gen ru_RU.UTF-8",
		"locale -a",
		"update-locale LANG=ru_RU.UTF-8",
	}
	if len(runner.commands) != len(want) {
		t.Fatalf("commands = %v, want %v", runner.commands, want)
	}
	for i := range want {
		if runner.commands[i] != want[i] {
			t.Errorf("command %d = %q, want %q", i, runner.commands[i], want[i])
		}
	}

	if got := os.Getenv("LANG"); got != "ru_RU.UTF-8" {
		t.Errorf("LANG = %q, want ru_RU.UTF-8", got)
	}
	if got := os.Getenv("LC_ALL"); got != "ru_RU.UTF-8" {
		t.Errorf("LC_ALL = %q, want ru_RU.UTF-8", got)
	}
}

func TestLocaleSetupInstallsMissingPackage(t *testing.T) {
	t.Setenv("LANG", "C")
	t.Setenv("LC_ALL", "C")

	runner := newFakeCommandRunner()
	markGenerated(runner)

	if err := newTestLocaleSetup(runner).Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !runner.ran("env DEBIAN_FRONTEND=noninteractive apt-get install -y -q locales") {
		t.Errorf("expected locales to be installed, commands: %v", runner.commands)
	}
}

func TestLocaleSetupGenerateFailureStops(t *testing.T) {
	runner := newFakeCommandRunner()
	runner.markInstalled("locales")
	runner.failCommand = "locale-gen ru_RU.UTF-8"

	err := newTestLocaleSetup(runner).Run(context.Background())
	requireStageError(t, err, StageLocale, KindPackage)

	if runner.ranPrefix("update-locale") {
		t.Errorf("update-locale must not run after locale-gen fails, commands: %v", runner.commands)
	}
}

func TestLocaleSetupPackageFailure(t *testing.T) {
	runner := newFakeCommandRunner()
	runner.failCommand = "apt-get update -q"

	err := newTestLocaleSetup(runner).Run(context.Background())
	requireStageError(t, err, StageLocale, KindPackage)

	if runner.ranPrefix("locale-gen") {
		t.Errorf("locale-gen must not run without the locales package, commands: %v", runner.commands)
	}
}

func TestLocaleSetupMissingAfterGenerate(t *testing.T) {
	runner := newFakeCommandRunner()
	runner.markInstalled("locales")
	runner.outputs["locale -a"] = "C\nPOSIX\n"

	err := newTestLocaleSetup(runner).Run(context.Background())
	requireStageError(t, err, StageLocale, KindPackage)

	if runner.ranPrefix("update-locale") {
		t.Errorf("update-locale must not run for a locale that was not generated, commands: %v", runner.commands)
	}
}

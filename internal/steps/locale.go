package steps

import (
	"context"
	"fmt"

	"github.com/UtyaVPN/UtyaVPN/internal/system"
	"github.com/UtyaVPN/UtyaVPN/internal/ui"
)

// localePackage provides locale-gen and the locale definitions
const localePackage = "locales"

// LocaleSetup installs and activates the bot's locale
type LocaleSetup struct {
	packages *system.PackageManager
	locales  *system.LocaleManager
	ui       *ui.UI
	opts     *Options
}

// NewLocaleSetup creates the locale stage
func NewLocaleSetup(packages *system.PackageManager, locales *system.LocaleManager, ui *ui.UI, opts *Options) *LocaleSetup {
	return &LocaleSetup{
		packages: packages,
		locales:  locales,
		ui:       ui,
		opts:     opts,
	}
}

// Run ensures the locale package, generates the locale, makes it the
// system default and exports it into this process.
func (l *LocaleSetup) Run(ctx context.Context) error {
	locale := l.opts.Locale

	l.ui.Step("Locale Package")
	installed, err := l.packages.EnsureInstalled(ctx, localePackage)
	if err != nil {
		return stageFailure(StageLocale, KindPackage, err)
	}
	if installed {
		l.ui.Successf("Installed %s", localePackage)
	} else {
		l.ui.Successf("%s is already installed", localePackage)
	}

	l.ui.Step("Generating Locale")
	if err := l.locales.Generate(ctx, locale); err != nil {
		return stageFailure(StageLocale, KindPackage, err)
	}

	available, err := l.locales.IsAvailable(ctx, locale)
	if err != nil {
		return stageFailure(StageLocale, KindPackage, err)
	}
	if !available {
		return stageFailure(StageLocale, KindPackage, fmt.Errorf("locale %s is missing from \"locale -a\" after locale-gen", locale))
	}
	l.ui.Successf("Generated %s", locale)

	if err := l.locales.SetDefault(ctx, locale); err != nil {
		return stageFailure(StageLocale, KindPackage, err)
	}
	l.ui.Successf("System locale set to %s", locale)

	if err := l.locales.Export(locale); err != nil {
		return stageFailure(StageLocale, KindPrerequisite, fmt.Errorf("failed to export locale: %w", err))
	}
	l.ui.Infof("LANG and LC_ALL set to %s for the rest of the install", locale)

	return nil
}

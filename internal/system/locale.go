package system

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// LocaleManager generates locales and sets the system default
type LocaleManager struct {
	runner  CommandRunner
	useSudo bool
}

// NewLocaleManager creates a locale manager
func NewLocaleManager(runner CommandRunner, useSudo bool) *LocaleManager {
	return &LocaleManager{runner: runner, useSudo: useSudo}
}

// Generate compiles the locale with locale-gen
func (lm *LocaleManager) Generate(ctx context.Context, locale string) error {
	name, args := privileged(lm.useSudo, "locale-gen", locale)
	if output, err := lm.runner.Run(ctx, name, args...); err != nil {
		return fmt.Errorf("failed to generate locale %s: %w\nOutput: %s", locale, err, output)
	}
	return nil
}

// SetDefault makes locale the system-wide LANG
func (lm *LocaleManager) SetDefault(ctx context.Context, locale string) error {
	name, args := privileged(lm.useSudo, "update-locale", "LANG="+locale)
	if output, err := lm.runner.Run(ctx, name, args...); err != nil {
		return fmt.Errorf("failed to set default locale %s: %w\nOutput: %s", locale, err, output)
	}
	return nil
}

// IsAvailable checks "locale -a" for the locale. glibc lists
// ru_RU.UTF-8 as ru_RU.utf8, so names are compared normalized.
func (lm *LocaleManager) IsAvailable(ctx context.Context, locale string) (bool, error) {
	output, err := lm.runner.Run(ctx, "locale", "-a")
	if err != nil {
		return false, fmt.Errorf("failed to list locales: %w\nOutput: %s", err, output)
	}

	want := NormalizeLocale(locale)
	for _, line := range strings.Split(output, "\n") {
		if NormalizeLocale(strings.TrimSpace(line)) == want {
			return true, nil
		}
	}
	return false, nil
}

// Export sets LANG and LC_ALL for this process so child processes inherit
// the locale.
func (lm *LocaleManager) Export(locale string) error {
	for _, key := range []string{"LANG", "LC_ALL"} {
		if err := os.Setenv(key, locale); err != nil {
			return fmt.Errorf("failed to export %s: %w", key, err)
		}
	}
	return nil
}

// NormalizeLocale lower-cases the codeset and strips dashes from it,
// matching glibc's normalized locale names.
func NormalizeLocale(locale string) string {
	lang, codeset, ok := strings.Cut(locale, ".")
	if !ok {
		return locale
	}
	codeset = strings.ToLower(strings.ReplaceAll(codeset, "-", ""))
	return lang + "." + codeset
}

package steps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/UtyaVPN/UtyaVPN/internal/config"
	"github.com/UtyaVPN/UtyaVPN/internal/system"
	"github.com/UtyaVPN/UtyaVPN/internal/telegram"
	"github.com/UtyaVPN/UtyaVPN/internal/ui"
)

// Prompter asks the operator for values
type Prompter interface {
	PromptYesNo(prompt string, defaultYes bool) (bool, error)
	PromptInputWithValidation(prompt, defaultValue string, check func(string) error) (string, error)
	PromptSecret(prompt string, check func(string) error) (string, error)
}

// TokenVerifier confirms a bot token with Telegram
type TokenVerifier interface {
	Verify(token string) (*telegram.Bot, error)
}

// EnvConfig collects the bot settings and writes the environment file
type EnvConfig struct {
	prompter Prompter
	ui       *ui.UI
	fs       system.FileSystemManager
	verifier TokenVerifier
	opts     *Options
	answers  map[string]string
	// portOpen probes the Xray API after collection
	portOpen func(host string, port int, timeout time.Duration) bool
}

// NewEnvConfig creates the configuration stage. answers holds values from
// the answers file; those keys are not prompted.
func NewEnvConfig(prompter Prompter, ui *ui.UI, fs system.FileSystemManager, verifier TokenVerifier, opts *Options, answers map[string]string) *EnvConfig {
	if answers == nil {
		answers = map[string]string{}
	}
	return &EnvConfig{
		prompter: prompter,
		ui:       ui,
		fs:       fs,
		verifier: verifier,
		opts:     opts,
		answers:  answers,
		portOpen: system.IsPortOpen,
	}
}

// Run collects every value the profile needs and writes the env file once.
func (e *EnvConfig) Run(ctx context.Context) (*config.BotConfig, error) {
	cfg, err := e.Collect(ctx)
	if err != nil {
		return nil, stageFailure(StageConfig, collectFailureKind(err), err)
	}

	if e.opts.VerifyToken {
		if err := e.verifyToken(cfg.Token); err != nil {
			return nil, stageFailure(StageConfig, KindValidation, err)
		}
	}

	path := e.opts.EnvFilePath()
	e.ui.Step("Writing Environment File")
	if err := cfg.Env(e.opts.Profile).Save(e.fs, path); err != nil {
		return nil, stageFailure(StageConfig, KindFilesystem, err)
	}
	e.ui.Successf("Configuration written to %s", path)

	e.printSummary(cfg)
	e.checkXrayAPI(cfg)

	return &cfg, nil
}

// Collect builds the bot config from answers, prompts and defaults.
func (e *EnvConfig) Collect(ctx context.Context) (config.BotConfig, error) {
	cfg := config.DefaultBotConfig()
	profile := e.opts.Profile

	e.ui.Step("Bot Settings")

	if profile == config.ProfileCompact {
		for _, key := range profile.Keys() {
			if err := e.fill(ctx, &cfg, key, config.Defaults[key]); err != nil {
				return cfg, err
			}
		}
		return cfg, nil
	}

	for _, key := range config.RequiredKeys {
		if err := e.fill(ctx, &cfg, key, ""); err != nil {
			return cfg, err
		}
	}

	advanced, err := e.wantAdvanced()
	if err != nil {
		return cfg, err
	}

	for _, key := range config.AdvancedKeys {
		if value, ok := e.answers[key]; ok {
			if err := cfg.Set(key, value); err != nil {
				return cfg, err
			}
			continue
		}
		if !advanced {
			// DefaultBotConfig already holds the default
			continue
		}
		if err := e.fill(ctx, &cfg, key, config.Defaults[key]); err != nil {
			return cfg, err
		}
	}

	if !advanced {
		e.ui.Info("Advanced settings left at their defaults")
	}

	return cfg, nil
}

// collectFailureKind separates rejected values from aborted or broken prompts
func collectFailureKind(err error) FailureKind {
	var verr *config.ValidationError
	switch {
	case errors.As(err, &verr):
		return KindValidation
	case errors.Is(err, context.Canceled), errors.Is(err, ui.ErrInterrupted):
		return KindInterrupted
	default:
		return KindPrerequisite
	}
}

func (e *EnvConfig) wantAdvanced() (bool, error) {
	if e.opts.Advanced != nil {
		return *e.opts.Advanced, nil
	}
	advanced, err := e.prompter.PromptYesNo("Configure advanced settings?", false)
	if err != nil {
		return false, fmt.Errorf("failed to read advanced settings choice: %w", err)
	}
	return advanced, nil
}

// fill sets one key from the answers file or, failing that, a prompt
func (e *EnvConfig) fill(ctx context.Context, cfg *config.BotConfig, key, defaultValue string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if value, ok := e.answers[key]; ok {
		return cfg.Set(key, value)
	}

	check := func(value string) error {
		if err := config.ValidateValue(key, value); err != nil {
			var verr *config.ValidationError
			if errors.As(err, &verr) {
				return errors.New(verr.Reason)
			}
			return err
		}
		return nil
	}

	var (
		value string
		err   error
	)
	if key == config.KeyToken {
		value, err = e.prompter.PromptSecret(config.Prompts[key], check)
	} else {
		value, err = e.prompter.PromptInputWithValidation(config.Prompts[key], defaultValue, check)
	}
	if err != nil {
		if errors.Is(err, ui.ErrNoInput) {
			return &config.ValidationError{Key: key, Reason: "no value supplied; pass it in the answers file when running non-interactively"}
		}
		return fmt.Errorf("failed to read %s: %w", key, err)
	}

	return cfg.Set(key, value)
}

func (e *EnvConfig) verifyToken(token string) error {
	e.ui.Info("Verifying bot token with Telegram...")
	bot, err := e.verifier.Verify(token)
	if err != nil {
		return &config.ValidationError{Key: config.KeyToken, Value: config.MaskSecret(token), Reason: err.Error()}
	}
	e.ui.Successf("Token belongs to @%s (%d)", bot.Username, bot.ID)
	return nil
}

func (e *EnvConfig) printSummary(cfg config.BotConfig) {
	for _, key := range e.opts.Profile.Keys() {
		value := cfg.Value(key)
		if key == config.KeyToken {
			value = config.MaskSecret(value)
		}
		e.ui.Printf("  %s=%s", key, value)
	}
}

// checkXrayAPI warns when the Xray API the bot talks to is not listening.
// Xray may be installed after the bot, so this never fails the stage.
func (e *EnvConfig) checkXrayAPI(cfg config.BotConfig) {
	if e.opts.Profile != config.ProfileGated {
		return
	}
	if e.portOpen(cfg.XrayAPIHost, cfg.XrayAPIPort, 2*time.Second) {
		e.ui.Successf("Xray API reachable at %s:%d", cfg.XrayAPIHost, cfg.XrayAPIPort)
		return
	}
	e.ui.Warningf("Xray API not reachable at %s:%d; the bot will fail to manage Xray clients until it is", cfg.XrayAPIHost, cfg.XrayAPIPort)
}

package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/UtyaVPN/UtyaVPN/internal/common"
)

// BotConfig is the typed form of the environment file
type BotConfig struct {
	Token            string
	AdminID          int64
	SupportID        int64
	PublicChannelURL string
	TrialChannelID   int64

	Timezone      string
	DatabasePath  string
	VPNConfigPath string

	RootDir      string
	EasyRSADir   string
	OpenVPNDir   string
	WireGuardDir string

	XrayDBPath  string
	XrayAPIHost string
	XrayAPIPort int
}

// DefaultBotConfig returns a config with every optional key at its default
// and the required keys empty.
func DefaultBotConfig() BotConfig {
	cfg := BotConfig{}
	for _, key := range AdvancedKeys {
		// Defaults are known-good, Set cannot fail on them
		_ = cfg.Set(key, Defaults[key])
	}
	return cfg
}

// validators maps each key to the check its value must pass
var validators = map[string]func(string) error{
	KeyToken:            common.ValidateBotToken,
	KeyAdminID:          common.ValidateTelegramID,
	KeySupportID:        common.ValidateTelegramID,
	KeyPublicChannelURL: common.ValidateURL,
	KeyTrialChannelID:   common.ValidateTelegramID,
	KeyTimezone:         common.ValidateTimezone,
	KeyDatabasePath:     common.ValidateNotEmpty,
	KeyVPNConfigPath:    common.ValidatePath,
	KeyRootDir:          common.ValidatePath,
	KeyEasyRSADir:       common.ValidatePath,
	KeyOpenVPNDir:       common.ValidatePath,
	KeyWireGuardDir:     common.ValidatePath,
	KeyXrayDBPath:       common.ValidatePath,
	KeyXrayAPIHost:      common.ValidateHost,
	KeyXrayAPIPort:      common.ValidatePort,
}

// ValidateValue checks a single raw value for a key
func ValidateValue(key, value string) error {
	check, ok := validators[key]
	if !ok {
		return &ValidationError{Key: key, Value: value, Reason: "unknown key"}
	}
	trimmed := strings.TrimSpace(value)
	err := check(trimmed)
	if err == nil {
		err = CheckEnvValue(trimmed)
	}
	if err != nil {
		shown := value
		if key == KeyToken {
			shown = MaskSecret(value)
		}
		return &ValidationError{Key: key, Value: shown, Reason: err.Error()}
	}
	return nil
}

// Set validates a raw value and stores it in the typed field for key
func (c *BotConfig) Set(key, value string) error {
	value = strings.TrimSpace(value)
	if err := ValidateValue(key, value); err != nil {
		return err
	}

	switch key {
	case KeyToken:
		c.Token = value
	case KeyAdminID:
		c.AdminID, _ = strconv.ParseInt(value, 10, 64)
	case KeySupportID:
		c.SupportID, _ = strconv.ParseInt(value, 10, 64)
	case KeyPublicChannelURL:
		c.PublicChannelURL = value
	case KeyTrialChannelID:
		c.TrialChannelID, _ = strconv.ParseInt(value, 10, 64)
	case KeyTimezone:
		c.Timezone = value
	case KeyDatabasePath:
		c.DatabasePath = value
	case KeyVPNConfigPath:
		c.VPNConfigPath = value
	case KeyRootDir:
		c.RootDir = value
	case KeyEasyRSADir:
		c.EasyRSADir = value
	case KeyOpenVPNDir:
		c.OpenVPNDir = value
	case KeyWireGuardDir:
		c.WireGuardDir = value
	case KeyXrayDBPath:
		c.XrayDBPath = value
	case KeyXrayAPIHost:
		c.XrayAPIHost = value
	case KeyXrayAPIPort:
		c.XrayAPIPort, _ = strconv.Atoi(value)
	}

	return nil
}

// Value returns the serialized value of key, or "" if it is unset
func (c BotConfig) Value(key string) string {
	switch key {
	case KeyToken:
		return c.Token
	case KeyAdminID:
		return formatID(c.AdminID)
	case KeySupportID:
		return formatID(c.SupportID)
	case KeyPublicChannelURL:
		return c.PublicChannelURL
	case KeyTrialChannelID:
		return formatID(c.TrialChannelID)
	case KeyTimezone:
		return c.Timezone
	case KeyDatabasePath:
		return c.DatabasePath
	case KeyVPNConfigPath:
		return c.VPNConfigPath
	case KeyRootDir:
		return c.RootDir
	case KeyEasyRSADir:
		return c.EasyRSADir
	case KeyOpenVPNDir:
		return c.OpenVPNDir
	case KeyWireGuardDir:
		return c.WireGuardDir
	case KeyXrayDBPath:
		return c.XrayDBPath
	case KeyXrayAPIHost:
		return c.XrayAPIHost
	case KeyXrayAPIPort:
		if c.XrayAPIPort == 0 {
			return ""
		}
		return strconv.Itoa(c.XrayAPIPort)
	}
	return ""
}

func formatID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

// Validate checks that every key the profile writes holds a valid value
func (c BotConfig) Validate(profile Profile) error {
	for _, key := range profile.Keys() {
		value := c.Value(key)
		if value == "" {
			return &ValidationError{Key: key, Reason: "value is required"}
		}
		if err := ValidateValue(key, value); err != nil {
			return err
		}
	}
	return nil
}

// Env converts the config into an environment file in the profile's order
func (c BotConfig) Env(profile Profile) *EnvFile {
	env := NewEnvFile()
	for _, key := range profile.Keys() {
		env.Set(key, c.Value(key))
	}
	return env
}

// BotConfigFromEnv rebuilds a config from an environment file. Keys the
// file lacks keep their defaults; keys the bot does not read are ignored.
func BotConfigFromEnv(env *EnvFile) (BotConfig, error) {
	cfg := DefaultBotConfig()
	for _, key := range env.Keys() {
		if _, known := validators[key]; !known {
			continue
		}
		value, _ := env.Get(key)
		if err := cfg.Set(key, value); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// String renders the config with the token masked
func (c BotConfig) String() string {
	var b strings.Builder
	for _, key := range ProfileGated.Keys() {
		value := c.Value(key)
		if key == KeyToken {
			value = MaskSecret(value)
		}
		fmt.Fprintf(&b, "%s=%s\n", key, value)
	}
	return b.String()
}

// MaskSecret keeps the bot id part of a token and hides the rest
func MaskSecret(token string) string {
	if token == "" {
		return ""
	}
	id, _, ok := strings.Cut(token, ":")
	if !ok {
		return "****"
	}
	return id + ":****"
}

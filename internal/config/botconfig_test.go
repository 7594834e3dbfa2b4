package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "123456789:AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw_"

func filledConfig(t *testing.T) BotConfig {
	t.Helper()
	cfg := DefaultBotConfig()
	require.NoError(t, cfg.Set(KeyToken, testToken))
	require.NoError(t, cfg.Set(KeyAdminID, "111"))
	require.NoError(t, cfg.Set(KeySupportID, "222"))
	require.NoError(t, cfg.Set(KeyPublicChannelURL, "https://t.me/utyavpn"))
	require.NoError(t, cfg.Set(KeyTrialChannelID, "-1001234567890"))
	return cfg
}

func TestDefaultBotConfigMatchesDefaultsTable(t *testing.T) {
	cfg := DefaultBotConfig()
	for _, key := range AdvancedKeys {
		assert.Equal(t, Defaults[key], cfg.Value(key), key)
	}
	for _, key := range RequiredKeys {
		assert.Empty(t, cfg.Value(key), key)
	}
}

func TestBotConfigSetRejectsInvalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{KeyToken, "not-a-token"},
		{KeyAdminID, "admin"},
		{KeySupportID, "1.5"},
		{KeyTrialChannelID, ""},
		{KeyPublicChannelURL, "t.me/utyavpn"},
		{KeyTimezone, "MSK"},
		{KeyDatabasePath, "   "},
		{KeyRootDir, "relative/dir"},
		{KeyVPNConfigPath, `/root/vpn\`},
		{KeyEasyRSADir, "/root/$EASYRSA"},
		{KeyXrayAPIHost, "http://127.0.0.1"},
		{KeyXrayAPIPort, "70000"},
		{"UNKNOWN", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			cfg := DefaultBotConfig()
			err := cfg.Set(tt.key, tt.value)
			require.Error(t, err)

			var verr *ValidationError
			assert.True(t, errors.As(err, &verr), "want *ValidationError, got %T", err)
			assert.Equal(t, tt.key, verr.Key)
		})
	}
}

func TestBotConfigSetTrimsInput(t *testing.T) {
	cfg := DefaultBotConfig()
	require.NoError(t, cfg.Set(KeyAdminID, "  42 "))
	assert.Equal(t, int64(42), cfg.AdminID)
	assert.Equal(t, "42", cfg.Value(KeyAdminID))
}

func TestBotConfigValidateRequiresKeys(t *testing.T) {
	cfg := DefaultBotConfig()
	err := cfg.Validate(ProfileGated)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, KeyToken, verr.Key)

	assert.NoError(t, filledConfig(t).Validate(ProfileGated))
	assert.NoError(t, filledConfig(t).Validate(ProfileCompact))
}

func TestBotConfigEnvGated(t *testing.T) {
	env := filledConfig(t).Env(ProfileGated)

	assert.Equal(t, ProfileGated.Keys(), env.Keys())
	assert.Equal(t, 15, env.Len())
	for _, key := range AdvancedKeys {
		v, _ := env.Get(key)
		assert.Equal(t, Defaults[key], v, key)
	}
	v, _ := env.Get(KeyTrialChannelID)
	assert.Equal(t, "-1001234567890", v)
}

func TestBotConfigEnvCompact(t *testing.T) {
	env := filledConfig(t).Env(ProfileCompact)

	assert.Equal(t, []string{
		KeyToken, KeyAdminID, KeySupportID, KeyTrialChannelID,
		KeyPublicChannelURL, KeyTimezone, KeyDatabasePath, KeyVPNConfigPath,
	}, env.Keys())
	_, hasXray := env.Get(KeyXrayAPIPort)
	assert.False(t, hasXray)
}

func TestBotConfigStringMasksToken(t *testing.T) {
	s := filledConfig(t).String()
	assert.Contains(t, s, "TOKEN=123456789:****")
	assert.NotContains(t, s, "AAHdqTcv")
}

func TestParseProfile(t *testing.T) {
	p, err := ParseProfile("")
	require.NoError(t, err)
	assert.Equal(t, ProfileGated, p)

	p, err = ParseProfile("compact")
	require.NoError(t, err)
	assert.Equal(t, ProfileCompact, p)

	_, err = ParseProfile("full")
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestBotConfigFromEnv(t *testing.T) {
	env := NewEnvFile()
	env.Set(KeyToken, testToken)
	env.Set(KeyDatabasePath, "/var/lib/utyavpn/users.db")
	env.Set("SOMETHING_ELSE", "ignored")

	cfg, err := BotConfigFromEnv(env)
	require.NoError(t, err)
	assert.Equal(t, testToken, cfg.Token)
	assert.Equal(t, "/var/lib/utyavpn/users.db", cfg.DatabasePath)
	// absent keys keep their defaults
	assert.Equal(t, "Europe/Moscow", cfg.Timezone)
	assert.Equal(t, 10085, cfg.XrayAPIPort)
}

func TestBotConfigFromEnvRejectsBadValue(t *testing.T) {
	env := NewEnvFile()
	env.Set(KeyXrayAPIPort, "70000")

	_, err := BotConfigFromEnv(env)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, KeyXrayAPIPort, verr.Key)
}

func TestValidateValueMasksToken(t *testing.T) {
	err := ValidateValue(KeyToken, "123456:hunter2")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "hunter2")
	assert.Contains(t, err.Error(), "123456:****")
}

package config

// Environment file keys read by the bot at start-up
const (
	// Telegram settings
	KeyToken            = "TOKEN"
	KeyAdminID          = "ADMIN_ID"
	KeySupportID        = "SUPPORT_ID"
	KeyPublicChannelURL = "PUBLIC_CHANNEL_URL"
	KeyTrialChannelID   = "TRIAL_CHANNEL_ID"

	// Bot runtime settings
	KeyTimezone      = "TIMEZONE"
	KeyDatabasePath  = "DATABASE_PATH"
	KeyVPNConfigPath = "VPN_CONFIG_PATH"

	// VPN backend locations
	KeyRootDir      = "ROOT_DIR"
	KeyEasyRSADir   = "EASYRSA_DIR"
	KeyOpenVPNDir   = "OPENVPN_DIR"
	KeyWireGuardDir = "WIREGUARD_DIR"

	// Xray settings
	KeyXrayDBPath  = "XRAY_DB_PATH"
	KeyXrayAPIHost = "XRAY_API_HOST"
	KeyXrayAPIPort = "XRAY_API_PORT"
)

// Defaults holds the documented default of every optional key.
// Keys without an entry are required.
var Defaults = map[string]string{
	KeyTimezone:      "Europe/Moscow",
	KeyDatabasePath:  "users.db",
	KeyVPNConfigPath: "/root/vpn",
	KeyRootDir:       "/root/antizapret",
	KeyEasyRSADir:    "/etc/openvpn/easyrsa3",
	KeyOpenVPNDir:    "/etc/openvpn",
	KeyWireGuardDir:  "/etc/wireguard",
	KeyXrayDBPath:    "/root/antizapret/xray.db",
	KeyXrayAPIHost:   "127.0.0.1",
	KeyXrayAPIPort:   "10085",
}

// RequiredKeys are prompted first and have no default
var RequiredKeys = []string{
	KeyToken,
	KeyAdminID,
	KeySupportID,
	KeyPublicChannelURL,
	KeyTrialChannelID,
}

// AdvancedKeys are the optional keys behind the "advanced settings" question
var AdvancedKeys = []string{
	KeyTimezone,
	KeyDatabasePath,
	KeyVPNConfigPath,
	KeyRootDir,
	KeyEasyRSADir,
	KeyOpenVPNDir,
	KeyWireGuardDir,
	KeyXrayDBPath,
	KeyXrayAPIHost,
	KeyXrayAPIPort,
}

// Profile selects which keys are prompted and written, and in what order
type Profile string

const (
	// ProfileGated asks the required keys, then offers the advanced block
	// behind a yes/no question that defaults to no.
	ProfileGated Profile = "gated"
	// ProfileCompact always asks a reduced set with inline defaults.
	ProfileCompact Profile = "compact"
)

// Keys returns the ordered list of keys the profile writes
func (p Profile) Keys() []string {
	switch p {
	case ProfileCompact:
		return []string{
			KeyToken,
			KeyAdminID,
			KeySupportID,
			KeyTrialChannelID,
			KeyPublicChannelURL,
			KeyTimezone,
			KeyDatabasePath,
			KeyVPNConfigPath,
		}
	default:
		keys := make([]string, 0, len(RequiredKeys)+len(AdvancedKeys))
		keys = append(keys, RequiredKeys...)
		return append(keys, AdvancedKeys...)
	}
}

// ParseProfile converts a flag value into a Profile
func ParseProfile(s string) (Profile, error) {
	switch Profile(s) {
	case ProfileGated, ProfileCompact:
		return Profile(s), nil
	case "":
		return ProfileGated, nil
	default:
		return "", &ValidationError{Key: "profile", Value: s, Reason: "must be \"gated\" or \"compact\""}
	}
}

// Prompts holds the operator-facing question for each key
var Prompts = map[string]string{
	KeyToken:            "Telegram bot token",
	KeyAdminID:          "Administrator Telegram ID",
	KeySupportID:        "Support Telegram ID",
	KeyPublicChannelURL: "Public channel URL",
	KeyTrialChannelID:   "Trial channel ID",
	KeyTimezone:         "Timezone",
	KeyDatabasePath:     "Database path",
	KeyVPNConfigPath:    "VPN config path",
	KeyRootDir:          "AntiZapret root directory",
	KeyEasyRSADir:       "EasyRSA directory",
	KeyOpenVPNDir:       "OpenVPN directory",
	KeyWireGuardDir:     "WireGuard directory",
	KeyXrayDBPath:       "Xray database path",
	KeyXrayAPIHost:      "Xray API host",
	KeyXrayAPIPort:      "Xray API port",
}

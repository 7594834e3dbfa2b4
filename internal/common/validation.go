package common

import (
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // zone names resolve on hosts without /usr/share/zoneinfo
)

// ValidateIP validates an IPv4 address
func ValidateIP(ip string) error {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return fmt.Errorf("invalid IP address: %s", ip)
	}

	// Ensure it's IPv4
	if parsed.To4() == nil {
		return fmt.Errorf("not a valid IPv4 address: %s", ip)
	}

	return nil
}

// ValidateHost accepts an IPv4 address or a domain name
func ValidateHost(host string) error {
	if ValidateIP(host) == nil {
		return nil
	}
	if err := ValidateDomain(host); err != nil {
		return fmt.Errorf("invalid host: %s", host)
	}
	return nil
}

// ValidatePort validates a port number (1-65535)
func ValidatePort(port string) error {
	p, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("invalid port number: %s", port)
	}

	if p < 1 || p > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got: %d", p)
	}

	return nil
}

// ValidatePath validates that a path is absolute
func ValidatePath(path string) error {
	if !filepath.IsAbs(path) {
		return fmt.Errorf("path must be absolute: %s", path)
	}
	return nil
}

// ValidateUsername validates a Unix username
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}

	if len(username) > 32 {
		return fmt.Errorf("username too long (max 32 characters): %s", username)
	}

	firstChar := username[0]
	if !((firstChar >= 'a' && firstChar <= 'z') || (firstChar >= 'A' && firstChar <= 'Z') || firstChar == '_') {
		return fmt.Errorf("username must start with a letter or underscore: %s", username)
	}

	for _, c := range username {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' || c == '-') {
			return fmt.Errorf("username contains invalid character: %s", username)
		}
	}

	return nil
}

// ValidateNotEmpty validates that a string is not empty
func ValidateNotEmpty(value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("value cannot be empty")
	}
	return nil
}

// ValidateDomain validates a domain name (basic validation)
func ValidateDomain(domain string) error {
	if domain == "" {
		return fmt.Errorf("domain cannot be empty")
	}

	if len(domain) > 253 {
		return fmt.Errorf("domain name too long: %s", domain)
	}

	parts := strings.Split(domain, ".")
	for _, part := range parts {
		if part == "" {
			return fmt.Errorf("invalid domain (empty label): %s", domain)
		}
		if len(part) > 63 {
			return fmt.Errorf("domain label too long: %s", part)
		}

		for i, c := range part {
			if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-') {
				return fmt.Errorf("invalid character in domain: %s", domain)
			}
			// Hyphen cannot be at start or end
			if c == '-' && (i == 0 || i == len(part)-1) {
				return fmt.Errorf("domain label cannot start or end with hyphen: %s", part)
			}
		}
	}

	return nil
}

// ValidateTimezone checks tz against the IANA zone database
func ValidateTimezone(tz string) error {
	if tz == "" {
		return fmt.Errorf("timezone cannot be empty")
	}

	// LoadLocation maps "Local" to the host zone, which the bot cannot parse
	if tz == "Local" {
		return fmt.Errorf("invalid timezone (use a zone name such as Europe/Moscow): %s", tz)
	}

	if _, err := time.LoadLocation(tz); err != nil {
		return fmt.Errorf("unknown timezone (should be Region/City or UTC): %s", tz)
	}

	return nil
}

// ValidateTelegramID validates a Telegram user or chat identifier.
// Channel and supergroup IDs are negative (-100...), so the sign is allowed.
func ValidateTelegramID(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("telegram ID cannot be empty")
	}

	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram ID must be an integer: %s", id)
	}
	if n == 0 {
		return fmt.Errorf("telegram ID cannot be zero")
	}

	return nil
}

// ValidateURL validates an absolute http or https URL
func ValidateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("URL cannot be empty")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL %s: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL must start with http:// or https://: %s", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("URL has no host: %s", raw)
	}

	return nil
}

// ValidateBotToken checks the <bot id>:<secret> shape of a Telegram bot token
func ValidateBotToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("bot token cannot be empty")
	}

	id, secret, ok := strings.Cut(token, ":")
	if !ok {
		return fmt.Errorf("bot token must look like <bot id>:<secret>")
	}
	if _, err := strconv.ParseUint(id, 10, 64); err != nil {
		return fmt.Errorf("bot token must start with a numeric bot id")
	}
	if len(secret) < 30 {
		return fmt.Errorf("bot token secret is too short")
	}

	for _, c := range secret {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' || c == '-') {
			return fmt.Errorf("bot token contains invalid character: %q", c)
		}
	}

	return nil
}

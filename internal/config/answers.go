package config

import (
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"
)

// Answers pre-seeds the installer from a TOML file.
//
//	[installer]
//	project_root = "/opt/UtyaVPN"
//	profile = "compact"
//
//	[bot]
//	TOKEN = "123456:ABC..."
//	ADMIN_ID = 123456789
type Answers struct {
	Installer InstallerAnswers `toml:"installer"`
	Bot       map[string]any   `toml:"bot"`
}

// InstallerAnswers mirrors the install command's flags. Empty strings and
// nil pointers mean "not answered".
type InstallerAnswers struct {
	ProjectRoot  string `toml:"project_root"`
	EnvFile      string `toml:"env_file"`
	Profile      string `toml:"profile"`
	ServiceName  string `toml:"service_name"`
	ServiceUser  string `toml:"service_user"`
	SystemdDir   string `toml:"systemd_dir"`
	VenvDir      string `toml:"venv_dir"`
	Interpreter  string `toml:"interpreter"`
	MainFile     string `toml:"main_file"`
	Requirements string `toml:"requirements"`
	Locale       string `toml:"locale"`
	VerifyToken  *bool  `toml:"verify_token"`
	SkipDatabase *bool  `toml:"skip_database"`
	Advanced     *bool  `toml:"advanced"`
}

// LoadAnswers decodes an answers file. Unknown keys are rejected so typos
// do not silently fall back to prompts or defaults.
func LoadAnswers(path string) (*Answers, error) {
	var answers Answers
	meta, err := toml.DecodeFile(path, &answers)
	if err != nil {
		return nil, fmt.Errorf("failed to parse answers file %s: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown keys in answers file %s: %v", path, undecoded)
	}

	for key := range answers.Bot {
		if _, ok := validators[key]; !ok {
			return nil, &ValidationError{Key: key, Reason: "unknown key in [bot] table"}
		}
	}

	return &answers, nil
}

// BotValues returns the [bot] table with every value as a string
func (a *Answers) BotValues() map[string]string {
	out := make(map[string]string, len(a.Bot))
	for key, value := range a.Bot {
		out[key] = fmt.Sprint(value)
	}
	return out
}

// BotKeys returns the answered bot keys in sorted order
func (a *Answers) BotKeys() []string {
	keys := make([]string, 0, len(a.Bot))
	for key := range a.Bot {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

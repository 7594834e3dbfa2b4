// Package config provides the configuration model of the UtyaVPN installer:
// the typed bot settings, the ordered environment file the bot reads at
// start-up, and the optional answers file used to pre-seed prompts.
package config

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// EnvFile is an ordered set of KEY="VALUE" assignments.
// A key is stored once; setting it again replaces the value in place.
type EnvFile struct {
	keys   []string
	values map[string]string
}

// NewEnvFile creates an empty EnvFile
func NewEnvFile() *EnvFile {
	return &EnvFile{values: make(map[string]string)}
}

// Set assigns a value, keeping the key's first position
func (e *EnvFile) Set(key, value string) {
	if _, exists := e.values[key]; !exists {
		e.keys = append(e.keys, key)
	}
	e.values[key] = value
}

// Get returns the value of a key
func (e *EnvFile) Get(key string) (string, bool) {
	v, ok := e.values[key]
	return v, ok
}

// Keys returns the keys in insertion order
func (e *EnvFile) Keys() []string {
	out := make([]string, len(e.keys))
	copy(out, e.keys)
	return out
}

// Len returns the number of keys
func (e *EnvFile) Len() int {
	return len(e.keys)
}

// Marshal renders the file content, one quoted assignment per line
func (e *EnvFile) Marshal() []byte {
	var buf bytes.Buffer
	for _, key := range e.keys {
		fmt.Fprintf(&buf, "%s=\"%s\"\n", key, quoteValue(e.values[key]))
	}
	return buf.Bytes()
}

// quoteValue escapes a value for a double-quoted dotenv assignment.
// Values are expected to have passed CheckEnvValue.
func quoteValue(v string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		"\n", `\n`,
		"\r", `\r`,
	)
	return r.Replace(v)
}

// CheckEnvValue reports whether a value reads back unchanged, both through
// godotenv and through the bot's dotenv loader. godotenv strips every
// trailing quote of a double-quoted value and treats a closing quote after
// a backslash as escaped. It also expands $VAR, which the bot does not.
func CheckEnvValue(v string) error {
	switch {
	case strings.HasSuffix(v, `\`):
		return fmt.Errorf("value must not end with a backslash")
	case strings.HasSuffix(v, `"`):
		return fmt.Errorf("value must not end with a double quote")
	case strings.Contains(v, "$"):
		return fmt.Errorf("value must not contain '$'")
	}
	return nil
}

// FileWriter replaces a file's content in one step
type FileWriter interface {
	WriteFile(path string, content []byte, perms os.FileMode) error
}

// Save writes the file through w. The file holds the bot token, so it is
// readable by its owner only.
func (e *EnvFile) Save(w FileWriter, path string) error {
	for _, key := range e.keys {
		if err := CheckEnvValue(e.values[key]); err != nil {
			return fmt.Errorf("cannot write %s to %s: %w", key, path, err)
		}
	}
	if err := w.WriteFile(path, e.Marshal(), 0600); err != nil {
		return fmt.Errorf("failed to write env file %s: %w", path, err)
	}
	return nil
}

// ReadEnvFile parses an existing environment file.
// godotenv returns an unordered map, so keys come back in the canonical
// order first and any unknown keys after them, sorted.
func ReadEnvFile(path string) (*EnvFile, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}

	env := NewEnvFile()
	for _, key := range ProfileGated.Keys() {
		if v, ok := values[key]; ok {
			env.Set(key, v)
			delete(values, key)
		}
	}

	extra := make([]string, 0, len(values))
	for key := range values {
		extra = append(extra, key)
	}
	sort.Strings(extra)
	for _, key := range extra {
		env.Set(key, values[key])
	}

	return env, nil
}

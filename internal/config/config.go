// Package config loads, saves and updates the labelwatch configuration file.
//
// The file holds sections of key/value pairs. Every printer setting lives in
// the DEFAULT section; a key missing from a named section falls back to
// DEFAULT. Readers always supply their own fallback, so a hand-edited file
// with missing keys still yields a working configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"labelwatch/internal/errors"
)

// DefaultSection holds the settings every other section inherits
const DefaultSection = "DEFAULT"

// Recognized keys
const (
	KeyDeleteFiles   = "delete_files"
	KeyFileDirectory = "file_directory"
	KeyPrinter1      = "printer1"
	KeyPrinter2      = "printer2"
	KeyPrintCommand  = "print_command"
	KeySettleMillis  = "settle_millis"
)

// Defaults. delete_files uses the same value on disk and as the runtime
// fallback.
const (
	DefaultDeleteFiles   = true
	DefaultFileDirectory = "Downloads"
	DefaultPrinter1      = "Printer1"
	DefaultPrinter2      = "Printer2"
	DefaultPrintCommand  = "lpr"
	DefaultSettleMillis  = 250
)

// Configuration is a set of named sections of string values.
// It is not safe for concurrent writers.
type Configuration struct {
	sections map[string]map[string]string
}

// New returns a configuration holding the first-run defaults
func New() *Configuration {
	cfg := Empty()
	cfg.Set(DefaultSection, KeyDeleteFiles, strconv.FormatBool(DefaultDeleteFiles))
	cfg.Set(DefaultSection, KeyFileDirectory, DefaultFileDirectory)
	cfg.Set(DefaultSection, KeyPrinter1, DefaultPrinter1)
	cfg.Set(DefaultSection, KeyPrinter2, DefaultPrinter2)
	return cfg
}

// Empty returns a configuration with no values
func Empty() *Configuration {
	return &Configuration{sections: make(map[string]map[string]string)}
}

// Get looks key up in section, then in DEFAULT
func (c *Configuration) Get(section, key string) (string, bool) {
	if c == nil {
		return "", false
	}
	section = normalizeSection(section)
	if values, ok := c.sections[section]; ok {
		if v, ok := values[key]; ok {
			return v, true
		}
	}
	if section != DefaultSection {
		if v, ok := c.sections[DefaultSection][key]; ok {
			return v, true
		}
	}
	return "", false
}

// Set stores value under section/key, creating the section if needed
func (c *Configuration) Set(section, key, value string) {
	section = normalizeSection(section)
	if c.sections[section] == nil {
		c.sections[section] = make(map[string]string)
	}
	c.sections[section][key] = value
}

// Sections returns the section names in sorted order
func (c *Configuration) Sections() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.sections))
	for name := range c.sections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Keys returns the keys set directly in section, sorted
func (c *Configuration) Keys(section string) []string {
	if c == nil {
		return nil
	}
	values := c.sections[normalizeSection(section)]
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy
func (c *Configuration) Clone() *Configuration {
	out := Empty()
	if c == nil {
		return out
	}
	for section, values := range c.sections {
		out.sections[section] = make(map[string]string, len(values))
		for k, v := range values {
			out.sections[section][k] = v
		}
	}
	return out
}

// String returns the value of section/key, or fallback when the key is
// missing or blank
func (c *Configuration) String(section, key, fallback string) string {
	v, ok := c.Get(section, key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	return strings.TrimSpace(v)
}

// Bool returns the boolean value of section/key, or fallback when the key is
// missing or not a recognized boolean
func (c *Configuration) Bool(section, key string, fallback bool) bool {
	v, ok := c.Get(section, key)
	if !ok {
		return fallback
	}
	b, err := parseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// Int returns the integer value of section/key, or fallback when the key is
// missing or not an integer
func (c *Configuration) Int(section, key string, fallback int) int {
	v, ok := c.Get(section, key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return n
}

// DeleteFiles reports whether source files are removed after printing
func (c *Configuration) DeleteFiles() bool {
	return c.Bool(DefaultSection, KeyDeleteFiles, DefaultDeleteFiles)
}

// FileDirectory is the watched directory, relative to the home directory
// unless absolute
func (c *Configuration) FileDirectory() string {
	return c.String(DefaultSection, KeyFileDirectory, DefaultFileDirectory)
}

// Printer1 receives the first (card) segment of a split job
func (c *Configuration) Printer1() string {
	return c.String(DefaultSection, KeyPrinter1, DefaultPrinter1)
}

// Printer2 receives the second (form) segment of a split job
func (c *Configuration) Printer2() string {
	return c.String(DefaultSection, KeyPrinter2, DefaultPrinter2)
}

// PrintCommand is the spooler executable
func (c *Configuration) PrintCommand() string {
	return c.String(DefaultSection, KeyPrintCommand, DefaultPrintCommand)
}

// SettleDelay is how long a file must stay quiet before it is printed
func (c *Configuration) SettleDelay() time.Duration {
	ms := c.Int(DefaultSection, KeySettleMillis, DefaultSettleMillis)
	if ms < 0 {
		ms = DefaultSettleMillis
	}
	return time.Duration(ms) * time.Millisecond
}

// Validate checks every recognized key that is present.
// Unknown keys are accepted.
func (c *Configuration) Validate() error {
	if c == nil {
		return errors.NewConfigError("nil config", "", errors.InvalidConfig, nil)
	}
	var errs []error
	for _, section := range c.Sections() {
		for _, key := range c.Keys(section) {
			if err := ValidateValue(key, c.sections[section][key]); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// ValidateValue checks value for a recognized key
func ValidateValue(key, value string) error {
	trimmed := strings.TrimSpace(value)
	switch key {
	case KeyDeleteFiles:
		if _, err := parseBool(value); err != nil {
			return errors.NewConfigError("invalid value", key, errors.InvalidConfig, err)
		}
	case KeyFileDirectory, KeyPrintCommand:
		if trimmed == "" {
			return errors.NewConfigError("value must not be empty", key, errors.InvalidConfig, nil)
		}
	case KeyPrinter1, KeyPrinter2:
		if trimmed == "" {
			return errors.NewConfigError("value must not be empty", key, errors.InvalidConfig, nil)
		}
		if strings.ContainsAny(trimmed, " \t/#") {
			return errors.NewConfigError("printer name must not contain spaces, '/' or '#'", key, errors.InvalidConfig, nil)
		}
	case KeySettleMillis:
		n, err := strconv.Atoi(trimmed)
		if err != nil {
			return errors.NewConfigError("invalid value", key, errors.InvalidConfig, err)
		}
		if n < 0 {
			return errors.NewConfigError("value must be >= 0", key, errors.InvalidConfig, nil)
		}
	}
	return nil
}

// DefaultPath returns ~/.config/labelwatch/config.yaml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "labelwatch", "config.yaml"), nil
}

// Load reads the configuration at path. A missing file is first created
// with the defaults from New.
func Load(path string) (*Configuration, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := Save(New(), path); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigError("error reading config file", path, errors.ConfigNotFound, err)
	}

	cfg, err := decode(formatFor(path), data)
	if err != nil {
		return nil, errors.NewConfigError("error parsing config file", path, errors.InvalidConfig, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating parent directories
func Save(cfg *Configuration, path string) error {
	if cfg == nil {
		return errors.NewConfigError("nil config", path, errors.InvalidConfig, nil)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewConfigError("failed to create config directory", path, errors.ConfigWriteFailed, err)
	}

	data, err := encode(formatFor(path), cfg)
	if err != nil {
		return errors.NewConfigError("failed to marshal config", path, errors.ConfigWriteFailed, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.NewConfigError("failed to write config file", path, errors.ConfigWriteFailed, err)
	}
	return nil
}

// Update rewrites the file at path with a single changed value.
// The read-modify-write is neither atomic nor safe against concurrent writers.
func Update(path, section, key, value string) error {
	if err := ValidateValue(key, value); err != nil {
		return err
	}
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	cfg.Set(section, key, value)
	return Save(cfg, path)
}

// Store binds the load/save/update operations to one file
type Store struct {
	path string
}

// NewStore creates a store for the file at path
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file
func (s *Store) Path() string {
	return s.path
}

// Load reads the backing file, creating it with defaults when absent
func (s *Store) Load() (*Configuration, error) {
	return Load(s.path)
}

// Save overwrites the backing file
func (s *Store) Save(cfg *Configuration) error {
	return Save(cfg, s.path)
}

// Update changes one value in the backing file
func (s *Store) Update(section, key, value string) error {
	return Update(s.path, section, key, value)
}

func normalizeSection(section string) string {
	section = strings.TrimSpace(section)
	if section == "" || strings.EqualFold(section, DefaultSection) {
		return DefaultSection
	}
	return section
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "yes", "true", "on":
		return true, nil
	case "0", "no", "false", "off":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", value)
}

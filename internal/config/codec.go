package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

type fileFormat int

const (
	formatYAML fileFormat = iota
	formatTOML
)

func formatFor(path string) fileFormat {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return formatTOML
	}
	return formatYAML
}

func decode(format fileFormat, data []byte) (*Configuration, error) {
	raw := map[string]interface{}{}
	var err error
	switch format {
	case formatTOML:
		err = toml.Unmarshal(data, &raw)
	default:
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, err
	}

	cfg := Empty()
	for name, value := range raw {
		switch v := value.(type) {
		case map[string]interface{}:
			section := normalizeSection(name)
			if cfg.sections[section] == nil {
				cfg.sections[section] = make(map[string]string)
			}
			for key, item := range v {
				cfg.Set(section, key, stringify(item))
			}
		case nil:
			// An empty section header.
			section := normalizeSection(name)
			if cfg.sections[section] == nil {
				cfg.sections[section] = make(map[string]string)
			}
		default:
			// Top-level scalars belong to DEFAULT.
			cfg.Set(DefaultSection, name, stringify(v))
		}
	}
	return cfg, nil
}

func encode(format fileFormat, cfg *Configuration) ([]byte, error) {
	out := make(map[string]map[string]interface{}, len(cfg.sections))
	for section, values := range cfg.sections {
		typed := make(map[string]interface{}, len(values))
		for k, v := range values {
			typed[k] = typedValue(v)
		}
		out[section] = typed
	}

	switch format {
	case formatTOML:
		return toml.Marshal(out)
	default:
		return yaml.Marshal(out)
	}
}

func stringify(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

// typedValue writes booleans and integers unquoted so hand-edited files
// stay natural.
func typedValue(s string) interface{} {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && strconv.FormatInt(n, 10) == s {
		return n
	}
	return s
}

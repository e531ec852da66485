package config

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// For mocking in tests
var osUserHomeDir = os.UserHomeDir
var osGetwd = os.Getwd

const (
	userConfigDir    = ".config/capctl"
	projectConfigDir = ".capctl"
	configFileName   = "config.yaml"
)

// LoadConfig loads the capctl configuration by layering default, user, and project settings.
func LoadConfig() (CapctlConfig, error) {
	config := GetDefaultConfig()

	userConfigPath, err := getUserConfigPath()
	if err != nil {
		// user config is optional
		fmt.Fprintf(os.Stderr, "Warning: Could not determine user config path: %v\n", err)
	} else if fileExists(userConfigPath) {
		config, err = overlayFromFile(config, userConfigPath)
		if err != nil {
			return CapctlConfig{}, fmt.Errorf("error loading user config from %s: %w", userConfigPath, err)
		}
	}

	projectConfigPath, err := getProjectConfigPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not determine project config path: %v\n", err)
	} else if fileExists(projectConfigPath) {
		config, err = overlayFromFile(config, projectConfigPath)
		if err != nil {
			return CapctlConfig{}, fmt.Errorf("error loading project config from %s: %w", projectConfigPath, err)
		}
	}

	return config, nil
}

// LoadConfigFromPath layers a single explicit file over the defaults. The user
// and project layers are skipped.
func LoadConfigFromPath(path string) (CapctlConfig, error) {
	config, err := overlayFromFile(GetDefaultConfig(), path)
	if err != nil {
		return CapctlConfig{}, fmt.Errorf("error loading config from %s: %w", path, err)
	}
	return config, nil
}

var getUserConfigPath = func() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir, configFileName), nil
}

var getProjectConfigPath = func() (string, error) {
	wd, err := osGetwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, projectConfigDir, configFileName), nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// overlayFromFile decodes the YAML file on top of base. Keys missing from the
// file keep their value from base; lists are replaced, message overrides are
// merged per kind.
func overlayFromFile(base CapctlConfig, filePath string) (CapctlConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return CapctlConfig{}, err
	}

	merged := base
	merged.Messages = maps.Clone(base.Messages)
	if merged.Messages == nil {
		merged.Messages = map[string]MessageOverrides{}
	}

	if err := yaml.Unmarshal([]byte(expandEnv(string(data))), &merged); err != nil {
		return CapctlConfig{}, err
	}
	return merged, nil
}

// expandEnv replaces ${VAR} and ${VAR:-default} references.
// A bare $ is left alone.
func expandEnv(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(ref string) string {
		name, def, hasDefault := strings.Cut(ref[2:len(ref)-1], ":-")
		if v, ok := os.LookupEnv(name); ok && v != "" {
			return v
		}
		if hasDefault {
			return def
		}
		return ""
	})
}

var envRef = regexp.MustCompile(`\$\{[A-Za-z_][A-Za-z0-9_]*(:-[^}]*)?\}`)

// GetUserConfigDir returns the user configuration directory path
func GetUserConfigDir() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

//go:build !tinygo

package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadConfigYAML parses a YAML board description
func LoadConfigYAML(data []byte) (*BoardConfig, error) {
	var config BoardConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}
	return finish(&config)
}

// LoadConfigFile reads a board description from disk. Files ending in
// .yaml or .yml are parsed as YAML, everything else as JSON.
func LoadConfigFile(path string) (*BoardConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadConfigYAML(data)
	}
	return LoadConfig(data)
}

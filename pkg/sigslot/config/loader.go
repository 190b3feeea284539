package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// decodeFunc unmarshals raw config bytes into a map.
type decodeFunc func([]byte, any) error

// decoders maps file extensions to their decode functions.
var decoders = map[string]decodeFunc{
	".yaml": yaml.Unmarshal,
	".yml":  yaml.Unmarshal,
	".json": json.Unmarshal,
}

// FromFile loads configuration from a file, picking the decoder from the
// extension. YAML (.yaml, .yml) and JSON (.json) are supported.
func FromFile(path string) (Config, error) {
	decode, ok := decoders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return Config{}, fmt.Errorf("unsupported config file extension: %s", filepath.Ext(path))
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return load(raw, decode)
}

// FromYAML parses YAML data into a Config.
func FromYAML(raw []byte) (Config, error) {
	return load(raw, yaml.Unmarshal)
}

// FromJSON parses JSON data into a Config.
func FromJSON(raw []byte) (Config, error) {
	return load(raw, json.Unmarshal)
}

func load(raw []byte, decode decodeFunc) (Config, error) {
	var m map[string]any
	if err := decode(raw, &m); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return New(m), nil
}

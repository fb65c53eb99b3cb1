package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// readSecret looks up key in a flat YAML secrets file. A missing file is not
// an error, it simply yields no value.
func readSecret(path, key string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read secrets file: %w", err)
	}
	secrets := make(map[string]string)
	if err := yaml.Unmarshal(data, &secrets); err != nil {
		return "", fmt.Errorf("parse secrets file %s: %w", path, err)
	}
	return strings.TrimSpace(secrets[key]), nil
}

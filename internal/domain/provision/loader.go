package provision

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Parse decodes and validates a YAML description.
func Parse(data []byte) (*Description, error) {
	var d Description
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse description: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("validate description: %w", err)
	}
	return &d, nil
}

// LoadFromFile reads a description from a YAML file.
func LoadFromFile(path string) (*Description, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("read description %s: %w", path, err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Package seed embeds the demo tenant description and the shared icon catalog.
package seed

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/Strob0t/MenuForge/internal/domain/icon"
	"github.com/Strob0t/MenuForge/internal/domain/provision"
)

//go:embed demo.yaml
var demoYAML []byte

//go:embed icons.yaml
var iconsYAML []byte

// Demo returns a fresh copy of the demo tenant description.
func Demo() (*provision.Description, error) {
	d, err := provision.Parse(demoYAML)
	if err != nil {
		return nil, fmt.Errorf("demo seed: %w", err)
	}
	return d, nil
}

// Icons returns the shared icon catalog.
func Icons() ([]icon.Icon, error) {
	var icons []icon.Icon
	if err := yaml.Unmarshal(iconsYAML, &icons); err != nil {
		return nil, fmt.Errorf("icon catalog: %w", err)
	}
	for i := range icons {
		if err := icons[i].Validate(); err != nil {
			return nil, fmt.Errorf("icon catalog: %w", err)
		}
	}
	return icons, nil
}

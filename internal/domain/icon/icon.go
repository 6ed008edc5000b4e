// Package icon defines the shared, platform-wide icon catalog.
package icon

import (
	"errors"
	"fmt"
	"regexp"
)

// Icon is a tag attachable to menu items. Icons are not tenant-scoped.
type Icon struct {
	ID           string `json:"id"`
	Code         string `json:"code" yaml:"code"`
	LabelI18nKey string `json:"label_i18n_key" yaml:"label_i18n_key"`
}

var codeRegex = regexp.MustCompile(`^[a-z][a-z0-9_]{0,31}$`)

// Validate checks the icon code and label key.
func (i *Icon) Validate() error {
	if !codeRegex.MatchString(i.Code) {
		return fmt.Errorf("invalid icon code %q", i.Code)
	}
	if i.LabelI18nKey == "" {
		return errors.New("icon label key is required")
	}
	return nil
}

// Catalog maps stable icon codes to icon identities. It is loaded once per
// provisioning run.
type Catalog map[string]Icon

// NewCatalog indexes icons by code.
func NewCatalog(icons []Icon) Catalog {
	c := make(Catalog, len(icons))
	for _, i := range icons {
		c[i.Code] = i
	}
	return c
}

// Lookup returns the icon for code and whether it exists.
func (c Catalog) Lookup(code string) (Icon, bool) {
	i, ok := c[code]
	return i, ok
}

package seed

import (
	"testing"

	"github.com/Strob0t/MenuForge/internal/domain/menu"
)

func TestDemo_Shape(t *testing.T) {
	d, err := Demo()
	if err != nil {
		t.Fatalf("Demo: %v", err)
	}
	if d.Tenant.Name != "Restaurante Demo S.A." {
		t.Errorf("tenant name = %q", d.Tenant.Name)
	}
	if d.Restaurant == nil || d.Restaurant.Slug != "la-parrilla-del-sur" {
		t.Fatalf("unexpected restaurant %+v", d.Restaurant)
	}
	if len(d.Restaurant.Menus) != 1 {
		t.Fatalf("expected 1 menu, got %d", len(d.Restaurant.Menus))
	}
	m := d.Restaurant.Menus[0]
	if m.Slug != "carta-principal" || menu.Status(m.Status) != menu.StatusPublished {
		t.Errorf("unexpected menu %q status %q", m.Slug, m.Status)
	}
	if len(m.Sections) != 4 {
		t.Errorf("expected 4 sections, got %d", len(m.Sections))
	}

	items := 0
	for _, s := range m.Sections {
		for _, it := range s.Items {
			items++
			for _, p := range it.Prices {
				if p.Amount <= 0 {
					t.Errorf("item %q has non-positive price %d", it.Name, p.Amount)
				}
			}
		}
	}
	if items != 9 {
		t.Errorf("expected 9 items, got %d", items)
	}
	if len(d.Translations) != 3 {
		t.Errorf("expected 3 translations, got %d", len(d.Translations))
	}
}

func TestDemo_IconsComeFromCatalog(t *testing.T) {
	d, err := Demo()
	if err != nil {
		t.Fatal(err)
	}
	icons, err := Icons()
	if err != nil {
		t.Fatalf("Icons: %v", err)
	}
	if len(icons) != 6 {
		t.Fatalf("expected 6 icons, got %d", len(icons))
	}
	known := make(map[string]bool, len(icons))
	for _, ic := range icons {
		known[ic.Code] = true
	}
	for _, s := range d.Restaurant.Menus[0].Sections {
		for _, it := range s.Items {
			for _, code := range it.Icons {
				if !known[code] {
					t.Errorf("item %q uses unknown icon %q", it.Name, code)
				}
			}
		}
	}
}

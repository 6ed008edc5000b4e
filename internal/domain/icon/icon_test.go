package icon

import "testing"

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		icon    Icon
		wantErr bool
	}{
		{"valid", Icon{Code: "vegan", LabelI18nKey: "icon.vegan"}, false},
		{"underscore", Icon{Code: "gluten_free", LabelI18nKey: "icon.gluten_free"}, false},
		{"uppercase", Icon{Code: "Vegan", LabelI18nKey: "icon.vegan"}, true},
		{"empty code", Icon{LabelI18nKey: "icon.x"}, true},
		{"missing label", Icon{Code: "spicy"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.icon.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCatalogLookup(t *testing.T) {
	c := NewCatalog([]Icon{{ID: "1", Code: "vegan"}, {ID: "2", Code: "spicy"}})
	if got, ok := c.Lookup("spicy"); !ok || got.ID != "2" {
		t.Errorf("Lookup(spicy) = %+v, %v", got, ok)
	}
	if _, ok := c.Lookup("kosher"); ok {
		t.Error("unknown code must report not found")
	}
}

package provision

import (
	"strings"
	"testing"
)

const sample = `
tenant:
  name: "Demo S.A."
  settings:
    currency: ARS
users:
  - email: Admin@Demo.test
    name: Admin
    password: supersecret
    role: ADMIN
restaurant:
  name: La Parrilla
  slug: la-parrilla
  menus:
    - name: Carta
      status: PUBLISHED
      sections:
        - name: Entradas
          items:
            - name: Empanada
              prices:
                - label: Unidad
                  amount: "1500.50"
              icons: [spicy]
translations:
  - entity: menu
    menu: carta
    locale: en
    key: name
    value: Main menu
`

func TestParse(t *testing.T) {
	d, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if d.Restaurant.Name != "La Parrilla" || d.Restaurant.Slug != "la-parrilla" {
		t.Errorf("inline restaurant fields not decoded: %+v", d.Restaurant.CreateRequest)
	}
	price := d.Restaurant.Menus[0].Sections[0].Items[0].Prices[0]
	if price.Amount.Minor() != 150050 {
		t.Errorf("amount = %d, want 150050", price.Amount.Minor())
	}
	if d.ActorEmail() != "admin@demo.test" {
		t.Errorf("actor = %q", d.ActorEmail())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "no admin",
			yaml:    "tenant: {name: X}\nusers: [{email: e@x.test, role: EDITOR}]\n",
			wantErr: "ADMIN user is required",
		},
		{
			name:    "super admin in tenant",
			yaml:    "tenant: {name: X}\nusers: [{email: a@x.test, role: ADMIN}, {email: s@x.test, role: SUPER_ADMIN}]\n",
			wantErr: "SUPER_ADMIN cannot be provisioned",
		},
		{
			name:    "duplicate email",
			yaml:    "tenant: {name: X}\nusers: [{email: a@x.test, role: ADMIN}, {email: A@x.test, role: EDITOR}]\n",
			wantErr: "duplicate email",
		},
		{
			name:    "unknown actor",
			yaml:    "tenant: {name: X}\nactor: ghost@x.test\nusers: [{email: a@x.test, role: ADMIN}]\n",
			wantErr: "not one of the provisioned users",
		},
		{
			name:    "item without price",
			yaml:    "tenant: {name: X}\nusers: [{email: a@x.test, role: ADMIN}]\nrestaurant: {name: R, menus: [{name: M, sections: [{name: S, items: [{name: I}]}]}]}\n",
			wantErr: "at least one price",
		},
		{
			name:    "translation without menu",
			yaml:    "tenant: {name: X}\nusers: [{email: a@x.test, role: ADMIN}]\nrestaurant: {name: R}\ntranslations: [{entity: item, name: I, locale: en, key: name, value: v}]\n",
			wantErr: "requires a menu",
		},
		{
			name:    "missing tenant name",
			yaml:    "users: [{email: a@x.test, role: ADMIN}]\n",
			wantErr: "tenant name is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"1500", 150000, false},
		{"12.5", 1250, false},
		{"0.99", 99, false},
		{"0", 0, false},
		{"-1", 0, true},
		{"1.234", 0, true},
		{"abc", 0, true},
		{"", 0, true},
		{"5.-1", 0, true},
		{"5.+5", 0, true},
		{"+5", 0, true},
		{".5", 0, true},
		{"5.", 0, true},
		{"1 000", 0, true},
		{"92233720368547757.99", 9223372036854775799, false},
		{"92233720368547758", 0, true},
		{"92233720368547759", 0, true},
		{"184467440737095517", 0, true},
		{"99999999999999999999", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAmount(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got.Minor() != tt.want {
				t.Errorf("ParseAmount(%q) = %d, want %d", tt.in, got.Minor(), tt.want)
			}
		})
	}
}

func TestResultWarnings(t *testing.T) {
	var r Result
	if r.WarningsErr() != nil {
		t.Error("no warnings should join to nil")
	}
	r.Warn(errString("icon kosher not found"))
	r.Warn(errString("qr failed"))
	if got := r.WarningsErr().Error(); !strings.Contains(got, "kosher") || !strings.Contains(got, "qr failed") {
		t.Errorf("joined warnings = %q", got)
	}
}

type errString string

func (e errString) Error() string { return string(e) }

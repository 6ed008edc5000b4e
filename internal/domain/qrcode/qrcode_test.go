package qrcode

import "testing"

func TestPublicURL(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"https://menus.example.com", "https://menus.example.com/r/la-parrilla-del-sur"},
		{"https://menus.example.com/", "https://menus.example.com/r/la-parrilla-del-sur"},
		{"http://localhost:3000//", "http://localhost:3000/r/la-parrilla-del-sur"},
	}
	for _, tt := range tests {
		if got := PublicURL(tt.base, "la-parrilla-del-sur"); got != tt.want {
			t.Errorf("PublicURL(%q) = %q, want %q", tt.base, got, tt.want)
		}
	}
}

func TestMenuURL(t *testing.T) {
	got := MenuURL("https://m.example.com", "bar", "carta")
	if got != "https://m.example.com/r/bar/carta" {
		t.Errorf("MenuURL = %q", got)
	}
}

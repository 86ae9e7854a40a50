package fetch

import (
	"net/url"
	"testing"
)

func TestRewriteURL(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		width  int
		scale  float64
		wantOK bool
		wantW  string
	}{
		{"width scaled", "https://images.unsplash.com/photo-1?ixlib=rb-4.0", 300, 2, true, "600"},
		{"width capped at 600", "https://images.unsplash.com/photo-1", 1000, 3, true, "1800"},
		{"zero width uses cap", "https://images.unsplash.com/photo-1", 0, 2, true, "1200"},
		{"fractional scale", "https://images.unsplash.com/photo-1", 100, 1.5, true, "150"},
		{"existing params replaced", "https://images.unsplash.com/photo-1?w=4000&q=100", 200, 1, true, "200"},
		{"other host untouched", "https://cdn.example.com/a.jpg", 300, 2, false, ""},
		{"not a url", "::nope", 300, 2, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := RewriteURL(tt.raw, tt.width, tt.scale)
			if ok != tt.wantOK {
				t.Fatalf("RewriteURL() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				if got != tt.raw {
					t.Errorf("unrewritten URL changed: %q", got)
				}
				return
			}

			u, err := url.Parse(got)
			if err != nil {
				t.Fatal(err)
			}
			q := u.Query()
			if q.Get("w") != tt.wantW {
				t.Errorf("w = %q, want %q (url %s)", q.Get("w"), tt.wantW, got)
			}
			if q.Get("q") != "60" {
				t.Errorf("q = %q, want 60", q.Get("q"))
			}
		})
	}
}

func TestRewriteURLKeepsOtherParams(t *testing.T) {
	got, _ := RewriteURL("https://images.unsplash.com/photo-1?ixlib=rb-4.0&fit=crop", 300, 2)
	u, _ := url.Parse(got)
	if u.Query().Get("ixlib") != "rb-4.0" || u.Query().Get("fit") != "crop" {
		t.Errorf("existing parameters lost: %s", got)
	}
	if u.Path != "/photo-1" {
		t.Errorf("path changed: %s", u.Path)
	}
}

func TestIsRemote(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"https://images.unsplash.com/photo-1", true},
		{"http://example.com/a.png", true},
		{"placeholder_salad", false},
		{"recipe1", false},
		{"file:///etc/passwd", false},
		{"https://", false},
	}
	for _, tt := range tests {
		if got := IsRemote(tt.id); got != tt.want {
			t.Errorf("IsRemote(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

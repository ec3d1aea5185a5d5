package google

import "testing"

func TestNormalizeDomain(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"example.com", "example.com"},
		{"https://www.example.com", "example.com"},
		{"http://example.com/path?x=1", "example.com"},
		{"www.example.com/", "example.com"},
		{"WWW.Example.com", "WWW.Example.com"}, // case folding happens when an ad's domain is derived from its landing URL, not here
	}
	for _, tt := range tests {
		if got := normalizeDomain(tt.raw); got != tt.want {
			t.Errorf("normalizeDomain(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestDetailURLFromHref_AppendsRegion(t *testing.T) {
	got := detailURLFromHref("/advertiser/AR1/creative/CR1")
	want := "https://adstransparency.google.com/advertiser/AR1/creative/CR1?region=KR"
	if got != want {
		t.Errorf("detailURLFromHref = %q, want %q", got, want)
	}
}

func TestDetailURLFromHref_KeepsExistingRegion(t *testing.T) {
	got := detailURLFromHref("/advertiser/AR1/creative/CR1?region=KR&foo=bar")
	want := "https://adstransparency.google.com/advertiser/AR1/creative/CR1?region=KR&foo=bar"
	if got != want {
		t.Errorf("detailURLFromHref = %q, want %q", got, want)
	}
}

func TestFilterKnownCreatives(t *testing.T) {
	hrefs := []string{
		"/advertiser/AR1/creative/CR1",
		"/advertiser/AR1/creative/CR2",
		"/advertiser/AR1/creative/CR3",
	}
	known := map[string]struct{}{"CR2": {}}

	got := filterKnownCreatives(hrefs, known)
	if len(got) != 2 {
		t.Fatalf("filterKnownCreatives returned %d hrefs, want 2", len(got))
	}
	for _, h := range got {
		if h == "/advertiser/AR1/creative/CR2" {
			t.Error("filterKnownCreatives kept an already-known creative")
		}
	}
}

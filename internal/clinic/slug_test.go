package clinic

import "testing"

func TestResolveSlug(t *testing.T) {
	cases := []struct {
		name          string
		headerSlug    string
		forwardedHost string
		host          string
		want          string
	}{
		{"header wins", "Norte ", "demo.example.com", "other.example.com", "norte"},
		{"forwarded host", "", "demo.example.com", "", "demo"},
		{"direct host", "", "", "demo.example.com:8080", "demo"},
		{"www is not a slug", "", "www.example.com", "", "fallback"},
		{"api is not a slug", "", "api.example.com", "", "fallback"},
		{"bare domain", "", "example.com", "", "fallback"},
		{"localhost", "", "", "localhost:8080", "fallback"},
		{"nothing", "", "", "", "fallback"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveSlug(tc.headerSlug, tc.forwardedHost, tc.host, "fallback")
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

package clinic

import "strings"

// ResolveSlug picks the clinic slug for a request: an explicit header wins,
// then the first label of the forwarded (or direct) host, then the
// configured default.
func ResolveSlug(headerSlug, forwardedHost, host, defaultSlug string) string {
	if headerSlug != "" {
		return strings.ToLower(strings.TrimSpace(headerSlug))
	}

	h := strings.TrimSpace(forwardedHost)
	if h == "" {
		h = strings.TrimSpace(host)
	}
	if slug := slugFromHost(h); slug != "" {
		return slug
	}

	return defaultSlug
}

// slugFromHost extracts a clinic slug from a subdomain:
// "demo.example.com" -> "demo", while "api.example.com", "www.example.com",
// "localhost" and bare domains yield "".
func slugFromHost(host string) string {
	if host == "" {
		return ""
	}

	host = strings.ToLower(host)
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	if host == "localhost" || host == "127.0.0.1" {
		return ""
	}

	parts := strings.Split(host, ".")
	if len(parts) < 3 {
		return ""
	}

	sub := parts[0]
	if sub == "www" || sub == "api" {
		return ""
	}

	return sub
}

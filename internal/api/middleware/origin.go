// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package middleware

import (
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// OriginPolicy decides whether a browser origin may drive the player.
type OriginPolicy struct {
	allowAll bool
	origins  map[string]bool
}

// NewOriginPolicy builds a policy from an allow-list. Same-origin requests
// are always accepted.
func NewOriginPolicy(allowedOrigins []string) OriginPolicy {
	p := OriginPolicy{origins: make(map[string]bool, len(allowedOrigins))}
	for _, origin := range allowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "*" {
			p.allowAll = true
			continue
		}
		if normalized, ok := normalizeOrigin(trimmed); ok {
			p.origins[normalized] = true
		}
	}
	return p
}

// Allowed reports whether r may proceed. Requests without Origin or Referer
// come from non-browser clients and are allowed.
func (p OriginPolicy) Allowed(r *http.Request) bool {
	origin, present := requestOrigin(r)
	if !present {
		return true
	}
	if origin == "" {
		return false
	}
	if p.allowAll || p.origins[origin] {
		return true
	}
	// Same-origin is only trusted if no proxy headers are present.
	if hasProxyHeaders(r) {
		return false
	}
	return origin == strictSameOrigin(r)
}

// OriginGuard rejects state-changing requests from untrusted browser origins.
func OriginGuard(allowedOrigins []string) func(http.Handler) http.Handler {
	policy := NewOriginPolicy(allowedOrigins)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			if !policy.Allowed(r) {
				writeError(w, r, http.StatusForbidden, "ORIGIN_FORBIDDEN", "origin not trusted")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestOrigin returns the normalized Origin, falling back to Referer.
// present is false when neither header is set.
func requestOrigin(r *http.Request) (origin string, present bool) {
	if raw := r.Header.Get("Origin"); raw != "" {
		normalized, _ := normalizeOrigin(raw)
		return normalized, true
	}
	referer := r.Header.Get("Referer")
	if referer == "" {
		return "", false
	}
	u, err := url.Parse(referer)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", true
	}
	normalized, _ := normalizeOrigin(u.Scheme + "://" + u.Host)
	return normalized, true
}

func hasProxyHeaders(r *http.Request) bool {
	for _, h := range []string{"Forwarded", "X-Forwarded-For", "X-Forwarded-Host", "X-Forwarded-Proto"} {
		if r.Header.Get(h) != "" {
			return true
		}
	}
	return false
}

func strictSameOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if r.Host == "" {
		return ""
	}
	origin, _ := normalizeOrigin(scheme + "://" + r.Host)
	return origin
}

func normalizeOrigin(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", false
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" || strings.ContainsAny(host, " \t\r\n/@\\") {
		return "", false
	}

	port := parsed.Port()
	if port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n < 1 || n > 65535 {
			return "", false
		}
	}
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}

	authority := host
	if strings.Contains(host, ":") {
		authority = "[" + host + "]"
	}
	if port != "" {
		authority = net.JoinHostPort(host, port)
	}
	return scheme + "://" + authority, true
}

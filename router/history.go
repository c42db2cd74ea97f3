package router

import (
	"net/http"
	"strings"
)

// History maps between request URLs and app-relative locations.
type History interface {
	// Base is the URL prefix the app is served under, with leading and trailing slash
	Base() string
	// Location returns the app-relative path of a request
	Location(r *http.Request) string
	// Href turns an app-relative path into a URL path
	Href(location string) string
}

// webHistory uses real URL paths under a base, no fragments.
type webHistory struct {
	base string
}

// WebHistory returns a history for clean URLs served under base.
// An empty base means "/".
func WebHistory(base string) History {
	return &webHistory{base: normalizeBase(base)}
}

func normalizeBase(base string) string {
	base = strings.TrimSpace(base)
	if !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}

func (h *webHistory) Base() string {
	return h.base
}

func (h *webHistory) Location(r *http.Request) string {
	path := r.URL.Path
	if path == "" {
		path = "/"
	}
	if h.base == "/" {
		return path
	}

	prefix := strings.TrimSuffix(h.base, "/")
	if path == prefix {
		return "/"
	}
	if strings.HasPrefix(path, h.base) {
		return "/" + strings.TrimPrefix(path, h.base)
	}
	return path
}

func (h *webHistory) Href(location string) string {
	if !strings.HasPrefix(location, "/") {
		location = "/" + location
	}
	if h.base == "/" {
		return location
	}
	return strings.TrimSuffix(h.base, "/") + location
}

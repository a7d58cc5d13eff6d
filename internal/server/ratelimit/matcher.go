package ratelimit

import "strings"

// MatchEndpoint finds the configuration for a request. Exact paths win over
// prefix entries (paths ending in "/"), and GET /health is always unlimited.
// It returns nil when the default limit applies.
func MatchEndpoint(path, method string, configs []EndpointConfig) *EndpointConfig {
	if path == "/health" && method == "GET" {
		return &EndpointConfig{Path: path, Method: method}
	}

	for i := range configs {
		if configs[i].Method == method && configs[i].Path == path {
			return &configs[i]
		}
	}

	for i := range configs {
		ep := &configs[i]
		if ep.Method == method && ep.isPrefix() && strings.HasPrefix(path, ep.Path) {
			return ep
		}
	}
	return nil
}

func (e *EndpointConfig) isPrefix() bool {
	return strings.HasSuffix(e.Path, "/")
}

// key is the bucket key for a request matched by e. Prefix entries share one
// bucket so that /reports/a and /reports/b draw from the same budget.
func (e *EndpointConfig) key(path string) string {
	if e.Path == "" || !e.isPrefix() {
		return path
	}
	return e.Path + "*"
}

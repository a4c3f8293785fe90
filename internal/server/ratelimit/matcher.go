package ratelimit

import (
	"net/http"
	"strings"
)

// unlimited is returned for routes that are never throttled.
var unlimited = EndpointConfig{Path: "/health", Method: http.MethodGet}

// MatchEndpoint returns the rule that governs a request, or nil when only the
// default limit applies.
//
// Rule paths use the router's syntax: a "{name}" segment matches any single
// path segment, so "/api/applications/{id}/submit" matches every submit
// call. A path ending in "/" matches by prefix. Exact paths win over
// patterns, patterns win over prefixes, and the longest prefix wins among
// prefixes.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	if path == unlimited.Path && method == unlimited.Method {
		hc := unlimited
		return &hc
	}

	segments := splitPath(path)
	var pattern, prefix *EndpointConfig
	for i := range configs {
		rule := &configs[i]
		if rule.Method != method {
			continue
		}
		switch {
		case rule.Path == path:
			return rule
		case strings.Contains(rule.Path, "{"):
			if pattern == nil && matchSegments(splitPath(rule.Path), segments) {
				pattern = rule
			}
		case strings.HasSuffix(rule.Path, "/") && strings.HasPrefix(path, rule.Path):
			if prefix == nil || len(rule.Path) > len(prefix.Path) {
				prefix = rule
			}
		}
	}
	if pattern != nil {
		return pattern
	}
	return prefix
}

func splitPath(p string) []string {
	return strings.Split(strings.Trim(p, "/"), "/")
}

func matchSegments(rule, path []string) bool {
	if len(rule) != len(path) {
		return false
	}
	for i, seg := range rule {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			if path[i] == "" {
				return false
			}
			continue
		}
		if seg != path[i] {
			return false
		}
	}
	return true
}

package auth

import (
	"net/http"
	"strings"

	"github.com/fgtintas/referral-service/internal/domain"
)

// Requirement is what a route demands from the caller before the handler runs.
type Requirement int

const (
	RequirePublic Requirement = iota
	RequireSession
	RequireAdmin
	RequireProfessional
)

// Role returns the role a requirement is bound to, if any.
func (r Requirement) Role() (domain.Role, bool) {
	switch r {
	case RequireAdmin:
		return domain.RoleAdmin, true
	case RequireProfessional:
		return domain.RoleProfessional, true
	default:
		return "", false
	}
}

type rolePrefix struct {
	prefix      string
	requirement Requirement
}

// RoutePolicy statically classifies request paths.
type RoutePolicy struct {
	publicExact   map[string]struct{}
	publicGet     [][]string
	assetPrefixes []string
	assetExts     []string
	rolePrefixes  []rolePrefix
}

// DefaultRoutePolicy returns the policy for the service's HTTP surface.
func DefaultRoutePolicy() *RoutePolicy {
	p := &RoutePolicy{
		publicExact: map[string]struct{}{},
		assetPrefixes: []string{
			"/static/", "/images/", "/fonts/", "/favicon",
		},
		assetExts: []string{
			".ico", ".png", ".jpg", ".jpeg", ".svg", ".css", ".js", ".webp",
		},
		rolePrefixes: []rolePrefix{
			{prefix: "/admin", requirement: RequireAdmin},
			{prefix: "/professional", requirement: RequireProfessional},
		},
	}
	for _, path := range []string{
		"/",
		"/auth/login",
		"/auth/register",
		"/auth/logout",
		"/auth/me",
		"/professionals",
		"/health/live",
		"/health/ready",
		"/metrics",
	} {
		p.publicExact[path] = struct{}{}
	}
	for _, pattern := range []string{
		"/professionals/*",
		"/professionals/by-code/*",
		"/professionals/*/referral-qr",
	} {
		p.publicGet = append(p.publicGet, splitPath(pattern))
	}
	return p
}

// Classify returns the requirement for method and path. Role-prefixed paths
// are checked first so no allow-list entry can open them.
func (p *RoutePolicy) Classify(method, path string) Requirement {
	path = normalizePath(path)

	for _, rp := range p.rolePrefixes {
		if path == rp.prefix || strings.HasPrefix(path, rp.prefix+"/") {
			return rp.requirement
		}
	}
	if _, ok := p.publicExact[path]; ok {
		return RequirePublic
	}
	if p.isAsset(path) {
		return RequirePublic
	}
	if method == http.MethodGet || method == http.MethodHead {
		segments := splitPath(path)
		for _, pattern := range p.publicGet {
			if matchSegments(pattern, segments) {
				return RequirePublic
			}
		}
	}
	return RequireSession
}

func (p *RoutePolicy) isAsset(path string) bool {
	for _, prefix := range p.assetPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	lower := strings.ToLower(path)
	for _, ext := range p.assetExts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func normalizePath(path string) string {
	if path == "" {
		return "/"
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			return "/"
		}
	}
	return path
}

func splitPath(path string) []string {
	return strings.Split(strings.Trim(path, "/"), "/")
}

func matchSegments(pattern, segments []string) bool {
	if len(pattern) != len(segments) {
		return false
	}
	for i, seg := range pattern {
		if seg == "*" {
			if segments[i] == "" {
				return false
			}
			continue
		}
		if seg != segments[i] {
			return false
		}
	}
	return true
}

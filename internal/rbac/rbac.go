// Package rbac maps a role to the routes it may reach. The table is
// data, not scattered conditionals, so the gate is testable on its own.
package rbac

import (
	"strings"

	"leadgps/internal/domain"
)

// NotFound is the terminal fallback for unmatched paths. Resolving to it
// is designed behavior, not a failure.
const NotFound = "not_found"

// DefaultRoute is the landing route for every role.
const DefaultRoute = "/"

var managerRoutes = []string{
	"/",
	"/feedback",
	"/sessions",
	"/notifications",
	"/settings",
	"/team-sentiment",
	"/action-items",
	"/manager-toolkit",
	"/reports",
	"/template-details",
}

var employeeRoutes = []string{
	"/",
	"/feedback-given",
	"/provide-feedback/:requestId",
	"/self-assessment/:type",
	"/peer-feedback/:peerId",
}

// Routes returns the allowed route patterns for a role. Unknown roles get
// no routes at all.
func Routes(role domain.Role) []string {
	switch role {
	case domain.RoleManager:
		return append([]string(nil), managerRoutes...)
	case domain.RoleEmployee:
		return append([]string(nil), employeeRoutes...)
	default:
		return nil
	}
}

// Resolve matches a concrete path against the role's route table and
// returns the matched pattern, or NotFound when nothing matches.
func Resolve(role domain.Role, path string) string {
	for _, pattern := range Routes(role) {
		if matches(pattern, path) {
			return pattern
		}
	}
	return NotFound
}

// Allowed reports whether a path is reachable for a role.
func Allowed(role domain.Role, path string) bool {
	return Resolve(role, path) != NotFound
}

// matches compares pattern and path segment by segment; a :param segment
// matches any single non-empty segment.
func matches(pattern, path string) bool {
	if pattern == path {
		return true
	}
	pseg := splitPath(pattern)
	seg := splitPath(path)
	if len(pseg) != len(seg) {
		return false
	}
	for i := range pseg {
		if strings.HasPrefix(pseg[i], ":") {
			if seg[i] == "" {
				return false
			}
			continue
		}
		if pseg[i] != seg[i] {
			return false
		}
	}
	return true
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

package routes

// Package routes contains the route permission table the gateway consults for
// path-level authorization. Rules are static, loaded at process start, and
// immutable during request handling.

import (
	"fmt"
	"strings"

	"github.com/clinova/platform/internal/domain/identity"
)

// Rule maps a path pattern to the canonical roles allowed to visit it. A rule
// matches a cleaned path that equals Pattern exactly or starts with
// Pattern + "/".
type Rule struct {
	Pattern      string
	AllowedRoles []identity.CanonicalRole
	// RedirectTarget overrides the generic unauthorized path for denied
	// callers. Optional.
	RedirectTarget string
}

// UnauthorizedPath is the generic redirect target for denied callers when a
// rule configures no specific one.
const UnauthorizedPath = "/unauthorized"

// Table is an ordered list of rules scanned top to bottom; the first
// structural match is authoritative. Declaration order is load-bearing:
// NewTable rejects a table where a broader rule shadows a later, more
// specific one, so reordering mistakes surface at startup rather than as
// silent permission changes.
type Table struct {
	Rules []Rule
}

// NewTable validates the rule list and returns a Table over it.
// Validation errors:
//   - a rule with an empty allowed-role set (would make a path fully
//     inaccessible unintentionally),
//   - a rule whose pattern is shadowed by an earlier, broader rule and can
//     therefore never match.
func NewTable(rules []Rule) (*Table, error) {
	for i, r := range rules {
		if r.Pattern == "" || !strings.HasPrefix(r.Pattern, "/") {
			return nil, fmt.Errorf("rule %d: pattern %q must start with '/'", i, r.Pattern)
		}
		if len(r.AllowedRoles) == 0 {
			return nil, fmt.Errorf("rule %d (%s): allowed-role set must not be empty", i, r.Pattern)
		}
		for j := 0; j < i; j++ {
			if shadows(rules[j].Pattern, r.Pattern) {
				return nil, fmt.Errorf(
					"rule %d (%s) is unreachable: shadowed by earlier rule %d (%s); order most-specific-first",
					i, r.Pattern, j, rules[j].Pattern)
			}
		}
	}
	return &Table{Rules: rules}, nil
}

// shadows reports whether an earlier pattern structurally covers a later one.
func shadows(earlier, later string) bool {
	return earlier == later || strings.HasPrefix(later, earlier+"/")
}

// HasPermission reports whether the role may visit the path. Paths matching
// no rule are allowed for every role: the default is deliberately permissive
// for unlisted routes, mirroring the gateway's fail-open stance. Unlisted
// paths are expected to be public pages; protected surfaces must be listed.
func (t *Table) HasPermission(role identity.CanonicalRole, path string) bool {
	rule := t.match(path)
	if rule == nil {
		return true
	}
	effective := effectiveRole(role)
	for _, allowed := range rule.AllowedRoles {
		if allowed == effective {
			return true
		}
	}
	return false
}

// RedirectFor returns the redirect target for a denied caller on the path, or
// "" when the caller is permitted (or no rule matches).
func (t *Table) RedirectFor(role identity.CanonicalRole, path string) string {
	rule := t.match(path)
	if rule == nil {
		return ""
	}
	if t.HasPermission(role, path) {
		return ""
	}
	if rule.RedirectTarget != "" {
		return rule.RedirectTarget
	}
	return UnauthorizedPath
}

func (t *Table) match(path string) *Rule {
	cleaned := StripLocale(path)
	for i := range t.Rules {
		r := &t.Rules[i]
		if cleaned == r.Pattern || strings.HasPrefix(cleaned, r.Pattern+"/") {
			return r
		}
	}
	return nil
}

// effectiveRole coerces the empty role and guest to public: for permission
// matching the two are synonyms. This collapse is separate from the alias
// table in identity.Normalize, which never maps guest to public.
func effectiveRole(role identity.CanonicalRole) identity.CanonicalRole {
	if role == "" || role == identity.RoleGuest {
		return identity.RolePublic
	}
	return role
}

// localeExclusions are short leading segments that are route names, not
// locale prefixes.
var localeExclusions = map[string]struct{}{
	"api": {},
}

// StripLocale removes a leading two-or-three-letter locale segment from the
// path, since the same logical route exists under every locale prefix.
func StripLocale(path string) string {
	rest, ok := splitLocale(path)
	if !ok {
		return path
	}
	return rest
}

// Locale returns the leading locale segment of the path, or "" when the path
// carries none.
func Locale(path string) string {
	if _, ok := splitLocale(path); !ok {
		return ""
	}
	seg := strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(seg, '/'); i >= 0 {
		seg = seg[:i]
	}
	return seg
}

func splitLocale(path string) (rest string, ok bool) {
	if !strings.HasPrefix(path, "/") {
		return path, false
	}
	seg := path[1:]
	end := strings.IndexByte(seg, '/')
	if end < 0 {
		end = len(seg)
	}
	seg = seg[:end]
	if len(seg) < 2 || len(seg) > 3 || !isAlpha(seg) {
		return path, false
	}
	if _, excluded := localeExclusions[strings.ToLower(seg)]; excluded {
		return path, false
	}
	rest = path[1+end:]
	if rest == "" {
		rest = "/"
	}
	return rest, true
}

func isAlpha(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return true
}

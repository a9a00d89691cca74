package middleware

import (
	"fmt"
	"strings"
)

// Access is the authentication level a route requires
type Access string

const (
	// AccessPublic routes are reachable without a principal
	AccessPublic Access = "PUBLIC"
	// AccessAuthenticated routes require a valid bearer token
	AccessAuthenticated Access = "AUTHENTICATED"
)

// RouteRule maps a path pattern to an access level.
//
// Patterns are one of:
//
//	/user/login    exact path
//	/docs/**       /docs and every path below it
//	/static*       any path starting with /static
type RouteRule struct {
	Pattern string
	Access  Access
}

// Matches reports whether path matches the rule's pattern
func (r RouteRule) Matches(path string) bool {
	switch {
	case strings.HasSuffix(r.Pattern, "/**"):
		base := strings.TrimSuffix(r.Pattern, "/**")
		return base == "" || path == base || strings.HasPrefix(path, base+"/")
	case strings.HasSuffix(r.Pattern, "*"):
		return strings.HasPrefix(path, strings.TrimSuffix(r.Pattern, "*"))
	default:
		return path == r.Pattern
	}
}

// RoutePolicy is an ordered list of rules. The first matching rule wins and
// paths no rule matches require authentication. It is read-only once built.
type RoutePolicy struct {
	rules []RouteRule
}

// NewRoutePolicy validates rules and builds a policy
func NewRoutePolicy(rules ...RouteRule) (*RoutePolicy, error) {
	for i, rule := range rules {
		if err := validateRule(rule); err != nil {
			return nil, fmt.Errorf("route rule %d: %w", i, err)
		}
	}
	return &RoutePolicy{rules: append([]RouteRule(nil), rules...)}, nil
}

// PublicRules turns a list of patterns into PUBLIC rules, keeping order
func PublicRules(patterns []string) []RouteRule {
	rules := make([]RouteRule, 0, len(patterns))
	for _, p := range patterns {
		rules = append(rules, RouteRule{Pattern: p, Access: AccessPublic})
	}
	return rules
}

// Decide returns the access level required for path
func (p *RoutePolicy) Decide(path string) Access {
	for _, rule := range p.rules {
		if rule.Matches(path) {
			return rule.Access
		}
	}
	return AccessAuthenticated
}

// Rules returns a copy of the policy's rules
func (p *RoutePolicy) Rules() []RouteRule {
	return append([]RouteRule(nil), p.rules...)
}

func validateRule(rule RouteRule) error {
	if rule.Access != AccessPublic && rule.Access != AccessAuthenticated {
		return fmt.Errorf("unknown access %q for pattern %q", rule.Access, rule.Pattern)
	}
	if !strings.HasPrefix(rule.Pattern, "/") {
		return fmt.Errorf("pattern %q must start with /", rule.Pattern)
	}

	body := rule.Pattern
	if strings.HasSuffix(body, "/**") {
		body = strings.TrimSuffix(body, "/**")
	} else {
		body = strings.TrimSuffix(body, "*")
	}
	if strings.Contains(body, "*") {
		return fmt.Errorf("pattern %q may only use a wildcard at the end", rule.Pattern)
	}
	return nil
}

// Package policy decides, before dispatch, whether a request needs a
// session token and which role it must carry.
//
// Route patterns use gobwas/glob with '/' as the segment separator:
//   - '*' matches within one path segment
//   - '**' matches across segments
//
// "/users**" therefore matches "/users", "/users/1" and "/users/1/orders".
package policy

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// Kind is what a rule demands from the caller.
type Kind int

const (
	Public Kind = iota
	Authenticated
	RoleRequired
)

// Requirement is the outcome of a table lookup.
type Requirement struct {
	Kind Kind
	Role string
}

func (r Requirement) String() string {
	switch r.Kind {
	case Authenticated:
		return "authenticated"
	case RoleRequired:
		return "role:" + r.Role
	default:
		return "public"
	}
}

// Rule is one row of the policy table as written in the YAML file.
type Rule struct {
	Method  string `yaml:"method"`
	Pattern string `yaml:"pattern"`
	Require string `yaml:"require"`
}

type compiledRule struct {
	method  string
	pattern string
	glob    glob.Glob
	require Requirement
}

// Table is an ordered list of rules. The first match wins; a request that
// matches nothing is public. Table is immutable once built.
type Table struct {
	rules []compiledRule
}

// DefaultRules protects reads of the users collection and nothing else.
func DefaultRules() []Rule {
	return []Rule{
		{Method: http.MethodGet, Pattern: "/users**", Require: "authenticated"},
	}
}

// Default returns the table built from DefaultRules.
func Default() *Table {
	t, err := NewTable(DefaultRules())
	if err != nil {
		panic("invalid default policy: " + err.Error())
	}
	return t
}

func NewTable(rules []Rule) (*Table, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for i, r := range rules {
		method := strings.ToUpper(strings.TrimSpace(r.Method))
		if method == "" {
			method = "*"
		}
		if r.Pattern == "" {
			return nil, oops.Code("POLICY_INVALID_RULE").With("rule", i).Errorf("empty pattern")
		}
		g, err := glob.Compile(r.Pattern, '/')
		if err != nil {
			return nil, oops.Code("POLICY_INVALID_RULE").
				With("rule", i).With("pattern", r.Pattern).
				Wrap(err)
		}
		req, err := ParseRequirement(r.Require)
		if err != nil {
			return nil, oops.Code("POLICY_INVALID_RULE").With("rule", i).Wrap(err)
		}
		compiled = append(compiled, compiledRule{method: method, pattern: r.Pattern, glob: g, require: req})
	}
	return &Table{rules: compiled}, nil
}

// ParseRequirement reads "public", "authenticated" or "role:<name>".
func ParseRequirement(s string) (Requirement, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "" || s == "public":
		return Requirement{Kind: Public}, nil
	case s == "authenticated":
		return Requirement{Kind: Authenticated}, nil
	case strings.HasPrefix(s, "role:") && len(s) > len("role:"):
		return Requirement{Kind: RoleRequired, Role: strings.TrimPrefix(s, "role:")}, nil
	}
	return Requirement{}, fmt.Errorf("unknown requirement %q", s)
}

type fileFormat struct {
	Rules []Rule `yaml:"rules"`
}

// Load reads a YAML policy file:
//
//	rules:
//	  - method: GET
//	    pattern: /users**
//	    require: authenticated
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.Code("POLICY_READ_FAILED").With("path", path).Wrap(err)
	}
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, oops.Code("POLICY_PARSE_FAILED").With("path", path).Wrap(err)
	}
	return NewTable(f.Rules)
}

// Evaluate returns the requirement of the first rule matching method and
// path. HEAD is evaluated as GET since the mux serves it with the GET
// handler.
func (t *Table) Evaluate(method, path string) Requirement {
	method = strings.ToUpper(method)
	if method == http.MethodHead {
		method = http.MethodGet
	}
	for _, r := range t.rules {
		if r.method != "*" && r.method != method {
			continue
		}
		if r.glob.Match(path) {
			return r.require
		}
	}
	return Requirement{Kind: Public}
}

// Len is the number of rules.
func (t *Table) Len() int { return len(t.rules) }

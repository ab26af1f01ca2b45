package siterules

import (
	"slices"
	"strings"
)

// Package siterules holds the per-publisher structural rules used to locate
// article text in a page.

// GenericHost is the table key of the fallback rule.
const GenericHost = "generic"

// Optional wraps a value that may be absent. The zero value is absent.
type Optional[T any] struct {
	value T
	ok    bool
}

// Some returns a present Optional holding v.
func Some[T any](v T) Optional[T] { return Optional[T]{value: v, ok: true} }

// None returns an absent Optional.
func None[T any]() Optional[T] { return Optional[T]{} }

// Get returns the held value and whether it is present.
func (o Optional[T]) Get() (T, bool) { return o.value, o.ok }

// Present reports whether a value is held.
func (o Optional[T]) Present() bool { return o.ok }

// TagMatcher selects elements by tag name and an optional attribute filter.
type TagMatcher struct {
	Tag    Optional[string]
	Attr   Optional[string]
	Values Optional[[]string]
}

// Match builds a matcher. An empty attr means no attribute constraint; an
// empty values list with a non-empty attr only requires the attribute to exist.
func Match(tag, attr string, values ...string) TagMatcher {
	m := TagMatcher{}
	if tag = strings.TrimSpace(tag); tag != "" {
		m.Tag = Some(strings.ToLower(tag))
	}
	if attr = strings.TrimSpace(attr); attr != "" {
		m.Attr = Some(strings.ToLower(attr))
		if len(values) > 0 {
			m.Values = Some(slices.Clone(values))
		}
	}
	return m
}

// AcceptsValue reports whether an attribute value satisfies the matcher's value
// set. The class attribute is multi-valued, so any one of its tokens may match.
func (m TagMatcher) AcceptsValue(value string) bool {
	values, ok := m.Values.Get()
	if !ok {
		return true
	}
	if slices.Contains(values, value) {
		return true
	}
	if attr, _ := m.Attr.Get(); attr == "class" {
		for _, token := range strings.Fields(value) {
			if slices.Contains(values, token) {
				return true
			}
		}
	}
	return false
}

// SiteRule pairs the container and paragraph matchers for one publisher host.
type SiteRule struct {
	Host      string
	Container TagMatcher
	Paragraph TagMatcher
}

// GenericRule searches the whole document for plain paragraphs.
func GenericRule() SiteRule {
	return SiteRule{Host: GenericHost, Paragraph: Match("p", "")}
}

// Table maps normalized hosts to rules. It is immutable once built.
type Table struct {
	rules   map[string]SiteRule
	generic SiteRule
}

// NewTable builds a table from rules. A rule keyed GenericHost replaces the
// built-in fallback.
func NewTable(rules ...SiteRule) *Table {
	t := &Table{
		rules:   make(map[string]SiteRule, len(rules)),
		generic: GenericRule(),
	}
	for _, r := range rules {
		host := normalizeHost(r.Host)
		if host == "" {
			continue
		}
		r.Host = host
		if host == GenericHost {
			t.generic = r
			continue
		}
		t.rules[host] = r
	}
	return t
}

// Lookup returns the rule for host, or the generic rule when host is empty or
// unknown.
func (t *Table) Lookup(host string) SiteRule {
	if t == nil {
		return GenericRule()
	}
	host = normalizeHost(host)
	if host == "" {
		return t.generic
	}
	if r, ok := t.rules[host]; ok {
		return r
	}
	return t.generic
}

// Hosts returns the sorted list of hosts with a dedicated rule.
func (t *Table) Hosts() []string {
	if t == nil {
		return nil
	}
	out := make([]string, 0, len(t.rules))
	for host := range t.rules {
		out = append(out, host)
	}
	slices.Sort(out)
	return out
}

// Len returns the number of dedicated host rules.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rules)
}

func normalizeHost(host string) string {
	return strings.ToLower(strings.TrimSpace(host))
}

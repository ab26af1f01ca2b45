package siterules

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestLookupFallsBackToGeneric(t *testing.T) {
	table := Default()

	for _, host := range []string{"", "   ", "www.example.org", "nytimes.com"} {
		rule := table.Lookup(host)
		if rule.Host != GenericHost {
			t.Fatalf("Lookup(%q) host = %q, want generic", host, rule.Host)
		}
		if rule.Container.Tag.Present() {
			t.Fatalf("generic rule must not have a container")
		}
		tag, ok := rule.Paragraph.Tag.Get()
		if !ok || tag != "p" {
			t.Fatalf("generic paragraph tag = %q/%v", tag, ok)
		}
		if rule.Paragraph.Attr.Present() || rule.Paragraph.Values.Present() {
			t.Fatalf("generic paragraph must not filter on attributes")
		}
	}
}

func TestLookupExactHost(t *testing.T) {
	rule := Default().Lookup("www.nytimes.com")
	if rule.Host != "www.nytimes.com" {
		t.Fatalf("unexpected host %q", rule.Host)
	}
	if tag, _ := rule.Container.Tag.Get(); tag != "article" {
		t.Fatalf("container tag = %q", tag)
	}
	if !rule.Paragraph.AcceptsValue("css-exrw3m") || rule.Paragraph.AcceptsValue("other") {
		t.Fatalf("paragraph value filter wrong")
	}
}

func TestDefaultTableCoversKnownHosts(t *testing.T) {
	if got := Default().Len(); got != 27 {
		t.Fatalf("expected 27 host rules, got %d", got)
	}
	hosts := Default().Hosts()
	if len(hosts) != 27 || !slices.IsSorted(hosts) {
		t.Fatalf("expected 27 sorted hosts, got %v", hosts)
	}
	if slices.Contains(hosts, GenericHost) {
		t.Fatalf("generic rule should not be listed as a host")
	}
}

func TestAcceptsValueSetMembership(t *testing.T) {
	m := Match("span", "data-kind", "a", "b")
	if !m.AcceptsValue("b") {
		t.Fatalf("expected b to match")
	}
	if m.AcceptsValue("c") {
		t.Fatalf("expected c not to match")
	}

	class := Match("div", "class", "zn-body__paragraph")
	if !class.AcceptsValue("zn-body__paragraph speakable") {
		t.Fatalf("class tokens should match individually")
	}

	anyValue := Match("div", "id")
	if !anyValue.AcceptsValue("whatever") {
		t.Fatalf("matcher without values should accept any value")
	}
}

func TestMatchTreatsEmptyAsAbsent(t *testing.T) {
	m := Match("", "", "ignored")
	if m.Tag.Present() || m.Attr.Present() || m.Values.Present() {
		t.Fatalf("expected all fields absent, got %+v", m)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "sites.yaml")
	content := `
sites:
  - host: WWW.Example.com
    container:
      tag: div
      attr: id
      value: body
    paragraph:
      tag: p
      attr: class
      values: [a, b]
  - host: generic
    paragraph:
      tag: div
`
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write rules file: %v", err)
	}

	table, err := Load(file)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	rule := table.Lookup("www.example.com")
	if rule.Host != "www.example.com" {
		t.Fatalf("expected normalized host, got %q", rule.Host)
	}
	if v, _ := rule.Container.Values.Get(); len(v) != 1 || v[0] != "body" {
		t.Fatalf("container values = %v", v)
	}
	if !rule.Paragraph.AcceptsValue("b") {
		t.Fatalf("paragraph should accept b")
	}

	generic := table.Lookup("unknown.host")
	if tag, _ := generic.Paragraph.Tag.Get(); tag != "div" {
		t.Fatalf("generic override not applied, tag = %q", tag)
	}
}

func TestParseRejectsDuplicatesAndMissingParagraph(t *testing.T) {
	dup := []byte(`{"sites":[{"host":"a","paragraph":{"tag":"p"}},{"host":"A","paragraph":{"tag":"p"}}]}`)
	if _, err := Parse(dup, ".json"); err == nil {
		t.Fatalf("expected duplicate host error")
	}

	missing := []byte(`{"sites":[{"host":"a"}]}`)
	if _, err := Parse(missing, ".json"); err == nil {
		t.Fatalf("expected missing paragraph error")
	}

	if _, err := Parse([]byte("sites: []"), ".yaml"); err == nil {
		t.Fatalf("expected error on empty sites")
	}
}

func TestParseReportsDecoderError(t *testing.T) {
	_, err := Parse([]byte("sites:\n  - host: [unclosed\n"), ".yaml")
	if err == nil {
		t.Fatalf("expected yaml syntax error")
	}
	if !strings.Contains(err.Error(), "decode yaml site rules") || strings.Contains(err.Error(), "not recognized") {
		t.Fatalf("expected the yaml decoder error, got %v", err)
	}

	if _, err := Parse([]byte("{not json"), ""); err == nil || !strings.Contains(err.Error(), "not recognized") {
		t.Fatalf("unknown extension should report an unrecognized format, got %v", err)
	}
}

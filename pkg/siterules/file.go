package siterules

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ruleFile is the on-disk layout of a site rules file.
type ruleFile struct {
	Sites []siteEntry `json:"sites" yaml:"sites"`
}

type siteEntry struct {
	Host      string       `json:"host" yaml:"host"`
	Container matcherEntry `json:"container" yaml:"container"`
	Paragraph matcherEntry `json:"paragraph" yaml:"paragraph"`
}

type matcherEntry struct {
	Tag    string   `json:"tag" yaml:"tag"`
	Attr   string   `json:"attr" yaml:"attr"`
	Value  string   `json:"value" yaml:"value"`
	Values []string `json:"values" yaml:"values"`
}

// Load reads a YAML or JSON rules file and returns the table it describes.
// Built-in rules are not merged in; the file is authoritative.
func Load(path string) (*Table, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("site rules file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open site rules file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read site rules file: %w", err)
	}

	return Parse(raw, filepath.Ext(path))
}

// Parse decodes rules file content. ext selects the decoder; an empty ext tries
// YAML then JSON.
func Parse(data []byte, ext string) (*Table, error) {
	rf, err := parseRuleFile(data, ext)
	if err != nil {
		return nil, err
	}
	if len(rf.Sites) == 0 {
		return nil, errors.New("site rules file contains no sites entries")
	}

	seen := make(map[string]struct{}, len(rf.Sites))
	rules := make([]SiteRule, 0, len(rf.Sites))
	for i, entry := range rf.Sites {
		rule, err := entry.toRule()
		if err != nil {
			return nil, fmt.Errorf("sites[%d]: %w", i, err)
		}
		if _, dup := seen[rule.Host]; dup {
			return nil, fmt.Errorf("duplicate site host %q", rule.Host)
		}
		seen[rule.Host] = struct{}{}
		rules = append(rules, rule)
	}
	return NewTable(rules...), nil
}

func parseRuleFile(data []byte, ext string) (ruleFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var rf ruleFile
		err := d.fn(data, &rf)
		if err == nil {
			return rf, nil
		}
		// A known extension names the only decoder worth reporting.
		if ext != "" {
			return ruleFile{}, fmt.Errorf("decode %s site rules: %w", d.name, err)
		}
	}

	return ruleFile{}, errors.New("site rules file format not recognized (expected YAML or JSON)")
}

func (e siteEntry) toRule() (SiteRule, error) {
	host := normalizeHost(e.Host)
	if host == "" {
		return SiteRule{}, errors.New("host is required")
	}
	if strings.TrimSpace(e.Paragraph.Tag) == "" {
		return SiteRule{}, fmt.Errorf("paragraph.tag is required for site %q", host)
	}
	if strings.TrimSpace(e.Container.Tag) == "" && strings.TrimSpace(e.Container.Attr) != "" {
		return SiteRule{}, fmt.Errorf("container.attr set without container.tag for site %q", host)
	}
	return SiteRule{
		Host:      host,
		Container: e.Container.toMatcher(),
		Paragraph: e.Paragraph.toMatcher(),
	}, nil
}

func (e matcherEntry) toMatcher() TagMatcher {
	values := make([]string, 0, len(e.Values)+1)
	if v := strings.TrimSpace(e.Value); v != "" {
		values = append(values, v)
	}
	for _, v := range e.Values {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return Match(e.Tag, e.Attr, values...)
}

package prompt

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var builtin []byte

var allowedNameRe = regexp.MustCompile(`^[a-z0-9_-]+$`)

// Entry is one prompt: a system instruction and a user message template.
type Entry struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

type compiled struct {
	system *template.Template
	user   *template.Template
}

// Set is a parsed prompt catalogue. It is read-only after Load.
type Set struct {
	prompts map[string]compiled
}

var funcs = template.FuncMap{
	"join": strings.Join,
}

// Load parses the built-in catalogue. When dir is set, <dir>/<name>.yaml
// replaces the built-in entry of the same name.
func Load(dir string) (*Set, error) {
	var entries map[string]Entry
	if err := yaml.Unmarshal(builtin, &entries); err != nil {
		return nil, fmt.Errorf("bad built-in prompts: %w", err)
	}

	if dir = strings.TrimSpace(dir); dir != "" {
		for name := range entries {
			p := filepath.Join(dir, name+".yaml")
			b, err := os.ReadFile(p)
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("read prompt %s: %w", p, err)
			}
			var e Entry
			if err := yaml.Unmarshal(b, &e); err != nil {
				return nil, fmt.Errorf("bad prompt %s: %w", p, err)
			}
			if strings.TrimSpace(e.User) == "" {
				return nil, fmt.Errorf("prompt %s: user template is empty", p)
			}
			entries[name] = e
		}
	}

	s := &Set{prompts: make(map[string]compiled, len(entries))}
	for name, e := range entries {
		if !allowedNameRe.MatchString(name) {
			return nil, fmt.Errorf("invalid prompt name %q", name)
		}
		sys, err := template.New(name + ".system").Funcs(funcs).Option("missingkey=error").Parse(e.System)
		if err != nil {
			return nil, fmt.Errorf("prompt %s system: %w", name, err)
		}
		usr, err := template.New(name + ".user").Funcs(funcs).Option("missingkey=error").Parse(e.User)
		if err != nil {
			return nil, fmt.Errorf("prompt %s user: %w", name, err)
		}
		s.prompts[name] = compiled{system: sys, user: usr}
	}
	return s, nil
}

// Render fills the named prompt with data.
func (s *Set) Render(name string, data any) (system, user string, err error) {
	c, ok := s.prompts[name]
	if !ok {
		return "", "", fmt.Errorf("prompt %q not found", name)
	}
	var b bytes.Buffer
	if err := c.system.Execute(&b, data); err != nil {
		return "", "", fmt.Errorf("render %s system: %w", name, err)
	}
	system = strings.TrimSpace(b.String())
	b.Reset()
	if err := c.user.Execute(&b, data); err != nil {
		return "", "", fmt.Errorf("render %s user: %w", name, err)
	}
	return system, strings.TrimSpace(b.String()), nil
}

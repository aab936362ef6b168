// Package msgcat holds the user-facing match texts as text/template strings
// loaded from an embedded YAML file and optional override files.
package msgcat

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	yaml "gopkg.in/yaml.v3"
)

//go:embed messages.en.yaml
var embedded embed.FS

const defaultsFile = "messages.en.yaml"

// Catalog is immutable after New and safe for concurrent use.
type Catalog struct {
	templates map[string]*template.Template
}

// New loads the embedded messages, applies *.yaml / *.yml files from
// overrideDir in name order and checks that every required key is present.
// Override files may only replace keys the defaults define, and two override
// files may not set the same key.
func New(overrideDir string, required ...string) (*Catalog, error) {
	raw, err := embedded.ReadFile(defaultsFile)
	if err != nil {
		return nil, fmt.Errorf("read embedded messages: %w", err)
	}
	texts, err := decode(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", defaultsFile, err)
	}
	if dir := strings.TrimSpace(overrideDir); dir != "" {
		if err := applyOverrides(texts, dir); err != nil {
			return nil, err
		}
	}

	c := &Catalog{templates: make(map[string]*template.Template, len(texts))}
	for key, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		tpl, err := template.New(key).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("message %s: %w", key, err)
		}
		c.templates[key] = tpl
	}
	if missing := c.missing(required); len(missing) > 0 {
		return nil, fmt.Errorf("messages missing: %s", strings.Join(missing, ", "))
	}
	return c, nil
}

func applyOverrides(texts map[string]string, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read override dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			if !e.IsDir() {
				names = append(names, e.Name())
			}
		}
	}
	sort.Strings(names)

	owner := make(map[string]string)
	for _, name := range names {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		over, err := decode(raw)
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		for key, text := range over {
			if _, known := texts[key]; !known {
				return fmt.Errorf("%s: unknown message key %q", name, key)
			}
			if prev, dup := owner[key]; dup {
				return fmt.Errorf("message key %q set in both %s and %s", key, prev, name)
			}
			owner[key] = name
			texts[key] = text
		}
	}
	return nil
}

// decode flattens nested YAML mappings into dot keys. Leaves must be strings.
func decode(raw []byte) (map[string]string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	out := make(map[string]string)
	if len(doc.Content) == 0 {
		return out, nil
	}
	if err := walk(doc.Content[0], "", out); err != nil {
		return nil, err
	}
	return out, nil
}

func walk(n *yaml.Node, prefix string, out map[string]string) error {
	switch n.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			if prefix != "" {
				key = prefix + "." + key
			}
			if err := walk(n.Content[i+1], key, out); err != nil {
				return err
			}
		}
		return nil
	case yaml.ScalarNode:
		if prefix == "" {
			return fmt.Errorf("line %d: text without a key", n.Line)
		}
		switch n.ShortTag() {
		case "!!str":
			out[prefix] = n.Value
		case "!!null":
		default:
			return fmt.Errorf("line %d: %s must be a string", n.Line, prefix)
		}
		return nil
	default:
		return fmt.Errorf("line %d: %s must be a string or a mapping", n.Line, prefix)
	}
}

func (c *Catalog) missing(keys []string) []string {
	var out []string
	for _, k := range keys {
		if !c.Has(k) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Render executes the message under key. Unknown keys and missing fields are errors.
func (c *Catalog) Render(key string, data any) (string, error) {
	tpl, ok := c.templates[strings.TrimSpace(key)]
	if !ok {
		return "", fmt.Errorf("message not found: %s", key)
	}
	var b strings.Builder
	if err := tpl.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Text renders key and returns fallback on any error.
func (c *Catalog) Text(key string, data any, fallback string) string {
	s, err := c.Render(key, data)
	if err != nil {
		return fallback
	}
	return s
}

// Has reports whether key holds a non-blank message.
func (c *Catalog) Has(key string) bool {
	_, ok := c.templates[strings.TrimSpace(key)]
	return ok
}

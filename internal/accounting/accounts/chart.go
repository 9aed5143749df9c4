package accounts

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

//go:embed chart.yaml
var defaultChartYAML []byte

// ErrUnknownCategory indicates a chart file used an unsupported section name.
var ErrUnknownCategory = errors.New("accounts: unknown category")

type chartFile struct {
	Prefixes map[string][]string `yaml:"prefixes"`
	Names    map[string][]string `yaml:",inline"`
}

type prefixRule struct {
	prefix   string
	category Category
}

// Chart classifies account names. Exact names win over prefix rules and the
// longest matching prefix wins among rules.
type Chart struct {
	mu       sync.RWMutex
	names    map[string]Category
	display  map[string]string
	prefixes []prefixRule
}

// NewChart returns an empty chart.
func NewChart() *Chart {
	return &Chart{names: make(map[string]Category), display: make(map[string]string)}
}

// DefaultChart returns the built-in chart of accounts.
func DefaultChart() *Chart {
	c := NewChart()
	if err := c.Load(strings.NewReader(string(defaultChartYAML))); err != nil {
		panic(fmt.Sprintf("accounts: embedded chart: %v", err))
	}
	return c
}

// LoadChartFile reads the default chart and merges the YAML file at path on top.
func LoadChartFile(path string) (*Chart, error) {
	c := DefaultChart()
	if path == "" {
		return c, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("accounts: open chart: %w", err)
	}
	defer f.Close()
	if err := c.Load(f); err != nil {
		return nil, err
	}
	return c, nil
}

// Load merges a YAML chart into c.
func (c *Chart) Load(r io.Reader) error {
	var file chartFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("accounts: decode chart: %w", err)
	}
	for section, names := range file.Names {
		cat, ok := ParseCategory(section)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownCategory, section)
		}
		for _, name := range names {
			c.Register(name, cat)
		}
	}
	for section, prefixes := range file.Prefixes {
		cat, ok := ParseCategory(section)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownCategory, section)
		}
		for _, p := range prefixes {
			c.RegisterPrefix(p, cat)
		}
	}
	return nil
}

// Register assigns a category to an exact account name.
func (c *Chart) Register(name string, cat Category) {
	key := fold(name)
	if key == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names[key] = cat
	c.display[key] = normalizeSpace(name)
}

// RegisterPrefix assigns a category to every account starting with prefix.
func (c *Chart) RegisterPrefix(prefix string, cat Category) {
	key := fold(prefix)
	if key == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, rule := range c.prefixes {
		if rule.prefix == key {
			c.prefixes[i].category = cat
			return
		}
	}
	c.prefixes = append(c.prefixes, prefixRule{prefix: key, category: cat})
	sort.SliceStable(c.prefixes, func(i, j int) bool {
		return len(c.prefixes[i].prefix) > len(c.prefixes[j].prefix)
	})
}

// Classify returns the category of name, or CategoryUnclassified.
func (c *Chart) Classify(name string) Category {
	key := fold(name)
	c.mu.RLock()
	defer c.mu.RUnlock()
	if cat, ok := c.names[key]; ok {
		return cat
	}
	for _, rule := range c.prefixes {
		if strings.HasPrefix(key, rule.prefix) {
			return rule.category
		}
	}
	return CategoryUnclassified
}

// Known reports whether name is listed explicitly in the chart.
func (c *Chart) Known(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.names[fold(name)]
	return ok
}

// Accounts lists the registered names of a category, sorted.
func (c *Chart) Accounts(cat Category) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []string
	for key, got := range c.names {
		if got == cat {
			out = append(out, c.display[key])
		}
	}
	sort.Strings(out)
	return out
}

// SameAccount compares two account names the way the chart does.
func SameAccount(a, b string) bool {
	return fold(a) == fold(b)
}

func fold(name string) string {
	return cases.Fold().String(normalizeSpace(name))
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

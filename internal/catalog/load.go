package catalog

import (
	_ "embed"
	"os"
	"sync"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

type fileFeature struct {
	Key         string   `yaml:"key"`
	Section     string   `yaml:"section"`
	Kind        string   `yaml:"kind,omitempty"`
	Label       string   `yaml:"label"`
	Options     []Option `yaml:"options,omitempty"`
	Tooltip     string   `yaml:"tooltip,omitempty"`
	SubOptionOf string   `yaml:"suboption_of,omitempty"`
}

type fileRequirement struct {
	Feature string   `yaml:"feature"`
	Needs   []string `yaml:"needs"`
}

type fileCatalog struct {
	Features []fileFeature     `yaml:"features"`
	Requires []fileRequirement `yaml:"requires"`
	Excludes [][]string        `yaml:"excludes"`
}

// Parse decodes a YAML catalog document and validates it.
func Parse(data []byte, reserved ...string) (*Catalog, error) {
	var doc fileCatalog
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "decode catalog"), ErrInvalidCatalog)
	}

	features := make([]Feature, 0, len(doc.Features))
	for _, ff := range doc.Features {
		kind, err := parseKind(ff.Kind)
		if err != nil {
			return nil, errors.Wrapf(err, "feature %q", ff.Key)
		}
		features = append(features, Feature{
			Key:         ff.Key,
			Section:     ff.Section,
			Kind:        kind,
			Label:       ff.Label,
			Options:     ff.Options,
			Tooltip:     ff.Tooltip,
			SubOptionOf: ff.SubOptionOf,
		})
	}

	var edges []Edge
	for _, r := range doc.Requires {
		for _, need := range r.Needs {
			edges = append(edges, Edge{Dependent: r.Feature, Prerequisite: need})
		}
	}

	var exclusions []Exclusion
	for _, pair := range doc.Excludes {
		if len(pair) != 2 {
			return nil, invalidf(nil, "exclusion %v must name exactly two features", pair)
		}
		exclusions = append(exclusions, Exclusion{A: pair[0], B: pair[1]})
	}

	c := New(features, edges, exclusions)
	if err := c.Validate(reserved...); err != nil {
		return nil, err
	}
	return c, nil
}

func parseKind(s string) (Kind, error) {
	switch s {
	case "", "bool", "boolean", "checkbox":
		return Boolean, nil
	case "enum", "select":
		return Enumerated, nil
	default:
		return Boolean, invalidf(nil, "unknown kind %q", s)
	}
}

// Load reads and validates a catalog file.
func Load(path string, reserved ...string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read catalog %s", path)
	}
	c, err := Parse(data, reserved...)
	if err != nil {
		return nil, errors.Wrapf(err, "catalog %s", path)
	}
	return c, nil
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
)

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(defaultCatalogYAML)
		if err != nil {
			panic(errors.Wrap(err, "embedded catalog"))
		}
		defaultCat = c
	})
	return defaultCat
}

// DefaultYAML returns the raw embedded catalog document.
func DefaultYAML() []byte {
	return append([]byte(nil), defaultCatalogYAML...)
}

package presets

import (
	_ "embed"
	"sync"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/marcus/byot/internal/catalog"
	"github.com/marcus/byot/internal/dependency"
	"github.com/marcus/byot/internal/features"
)

//go:embed builtin.yaml
var builtinYAML []byte

type builtinDef struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Tags        []string          `yaml:"tags"`
	Features    map[string]string `yaml:"features"`
}

var (
	defsOnce sync.Once
	defs     []builtinDef
	defsErr  error
)

func loadDefs() ([]builtinDef, error) {
	defsOnce.Do(func() {
		defsErr = yaml.Unmarshal(builtinYAML, &defs)
	})
	return defs, defsErr
}

// Builtins returns the shipped presets resolved against cat. Each listed
// feature is switched on with its prerequisites, then set to its value.
func Builtins(cat *catalog.Catalog) ([]Preset, error) {
	list, err := loadDefs()
	if err != nil {
		return nil, errors.Wrap(err, "parse built-in presets")
	}
	res := dependency.New(cat)
	out := make([]Preset, 0, len(list))
	for _, def := range list {
		cfg := features.Default(cat)
		for _, key := range features.SortedKeys(def.Features) {
			raw := def.Features[key]
			if b, ok := features.ParseBool(raw); !ok || b {
				if cfg, err = res.EnableWithPrerequisites(cfg, key); err != nil {
					return nil, errors.Wrapf(err, "built-in preset %s", def.Name)
				}
			}
			if cfg, err = features.Set(cat, cfg, key, raw); err != nil {
				return nil, errors.Wrapf(err, "built-in preset %s", def.Name)
			}
		}
		out = append(out, Preset{
			ID:          "builtin:" + def.Name,
			Name:        def.Name,
			Description: def.Description,
			Tags:        def.Tags,
			Config:      cfg,
			Builtin:     true,
		})
	}
	return out, nil
}

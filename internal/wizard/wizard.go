// Package wizard walks through the catalog one section at a time with a
// huh form and turns the answers into a settled configuration.
package wizard

import (
	"context"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/cockroachdb/errors"

	"github.com/marcus/byot/internal/catalog"
	"github.com/marcus/byot/internal/dependency"
	"github.com/marcus/byot/internal/features"
	"github.com/marcus/byot/internal/session"
)

var errOutputRequired = errors.New("output file is required")

// State holds the answers bound to the form fields.
type State struct {
	Form *huh.Form

	// Selected maps a section to the boolean features picked in it.
	Selected map[string]*[]string
	// Choices maps an enumerated feature to its chosen option.
	Choices map[string]*string
	// Output is where the generated code should be written.
	Output string

	cat *catalog.Catalog
}

// Result is a wizard run turned into a configuration.
type Result struct {
	Config features.Config
	// Added lists features switched on only because a pick needed them.
	Added []string
	// Dropped lists picks that had to be switched off again because they
	// exclude another pick.
	Dropped []string
}

// New builds the form. Fields start from start, so running the wizard on
// a saved configuration edits it.
func New(cat *catalog.Catalog, start features.Config, output string) *State {
	s := &State{
		Selected: make(map[string]*[]string),
		Choices:  make(map[string]*string),
		Output:   output,
		cat:      cat,
	}
	start = features.Normalize(cat, start)

	var groups []*huh.Group
	for _, section := range cat.Sections() {
		var fields []huh.Field
		var opts []huh.Option[string]
		picked := new([]string)
		for _, f := range cat.BySection(section) {
			if f.Kind == catalog.Enumerated {
				v := start.Enum(f.Key)
				s.Choices[f.Key] = &v
				fields = append(fields, huh.NewSelect[string]().
					Title(f.Label).
					Description(f.Tooltip).
					Options(enumOptions(f)...).
					Value(&v))
				continue
			}
			label := f.Label
			if f.SubOptionOf != "" {
				label = "  " + label
			}
			opt := huh.NewOption(label, f.Key)
			if start.Bool(f.Key) {
				opt = opt.Selected(true)
				*picked = append(*picked, f.Key)
			}
			opts = append(opts, opt)
		}
		if len(opts) > 0 {
			s.Selected[section] = picked
			ms := huh.NewMultiSelect[string]().
				Title(section).
				Description("Prerequisites are switched on for you.").
				Options(opts...).
				Value(picked)
			fields = append([]huh.Field{ms}, fields...)
		}
		if len(fields) > 0 {
			groups = append(groups, huh.NewGroup(fields...).Title(section))
		}
	}

	groups = append(groups, huh.NewGroup(
		huh.NewInput().
			Title("Output file").
			Value(&s.Output).
			Placeholder("treap.cpp").
			Validate(validateOutput),
	).Title("Output"))

	s.Form = huh.NewForm(groups...)
	s.Form.WithTheme(huh.ThemeDracula())
	return s
}

func validateOutput(v string) error {
	if strings.TrimSpace(v) == "" {
		return errOutputRequired
	}
	return nil
}

func enumOptions(f catalog.Feature) []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(f.Options))
	for _, o := range f.Options {
		label := o.Label
		if label == "" {
			label = o.Value
		}
		opts = append(opts, huh.NewOption(label, o.Value))
	}
	return opts
}

// Run shows the form and blocks until it is submitted or aborted.
func (s *State) Run(ctx context.Context) error {
	if err := s.Form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return errors.Wrap(err, "wizard aborted")
		}
		return errors.Wrap(err, "run wizard")
	}
	return nil
}

// Picks returns every boolean feature chosen in the form, in catalog order.
func (s *State) Picks() []string {
	chosen := make(map[string]bool)
	for _, picked := range s.Selected {
		for _, k := range *picked {
			chosen[k] = true
		}
	}
	var out []string
	for _, k := range s.cat.Keys() {
		if chosen[k] {
			out = append(out, k)
		}
	}
	return out
}

// Result turns the answers into a settled configuration. Enumerated
// choices are applied first, then every pick is enabled together with its
// prerequisites.
func (s *State) Result(res *dependency.Resolver) (Result, error) {
	cfg := features.Default(s.cat)
	for _, k := range features.SortedKeys(s.Choices) {
		next, err := features.Set(s.cat, cfg, k, *s.Choices[k])
		if err != nil {
			return Result{}, errors.Wrapf(err, "option %s", k)
		}
		cfg = next
	}

	picks := s.Picks()
	for _, k := range picks {
		next, err := res.EnableWithPrerequisites(cfg, k)
		if err != nil {
			return Result{}, errors.Wrapf(err, "enable %s", k)
		}
		cfg = next
	}

	settled, _ := session.Settle(res, cfg)
	r := Result{Config: settled}

	wanted := make(map[string]bool, len(picks))
	for _, k := range picks {
		wanted[k] = true
		if !features.Active(s.cat, settled, k) {
			r.Dropped = append(r.Dropped, k)
		}
	}
	for _, k := range features.ActiveKeys(s.cat, settled) {
		if wanted[k] {
			continue
		}
		if choice, ok := s.Choices[k]; ok {
			if f, _ := s.cat.Lookup(k); *choice != f.Default() {
				continue
			}
		}
		r.Added = append(r.Added, k)
	}
	return r, nil
}

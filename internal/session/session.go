// Package session owns the configure → derive → reconcile → generate
// pipeline for one editing session.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/marcus/byot/internal/catalog"
	"github.com/marcus/byot/internal/codegen"
	"github.com/marcus/byot/internal/dependency"
	"github.com/marcus/byot/internal/derive"
	"github.com/marcus/byot/internal/features"
)

const (
	sessionPrefix = "ses_"
	historyLimit  = 100
)

var (
	// ErrDisabled is returned when a change would switch on a disabled feature.
	ErrDisabled = errors.New("feature is disabled")
	// ErrNothingToUndo is returned by Undo on a fresh session.
	ErrNothingToUndo = errors.New("nothing to undo")
)

// State is a consistent view of a session after settling.
type State struct {
	Config   features.Config
	Disabled dependency.Set
	Code     string
}

// Session holds the configuration being edited and everything computed
// from it. All methods are safe for concurrent use; every mutation settles
// the configuration and regenerates code before it returns.
type Session struct {
	ID        string
	StartedAt time.Time

	cat    *catalog.Catalog
	res    *dependency.Resolver
	gen    *codegen.Generator
	logger *slog.Logger

	mu       sync.Mutex
	cfg      features.Config
	disabled dependency.Set
	code     string
	history  []features.Config
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithConfig starts the session from cfg instead of the catalog defaults.
// cfg is normalized against the catalog first.
func WithConfig(cfg features.Config) Option {
	return func(s *Session) {
		s.cfg = features.Normalize(s.cat, cfg)
	}
}

// generateID creates a new random session ID
func generateID() string {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return sessionPrefix + "000000"
	}
	return sessionPrefix + hex.EncodeToString(b)
}

// New starts a session over cat.
func New(cat *catalog.Catalog, opts ...Option) *Session {
	s := &Session{
		ID:        generateID(),
		StartedAt: time.Now(),
		cat:       cat,
		gen:       codegen.New(cat),
		logger:    slog.Default(),
		cfg:       features.Default(cat),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("session", s.ID)
	s.res = dependency.New(cat, dependency.WithLogger(s.logger))
	s.settle()
	return s
}

// Catalog returns the catalog the session edits.
func (s *Session) Catalog() *catalog.Catalog {
	return s.cat
}

// Resolver returns the session's dependency resolver.
func (s *Session) Resolver() *dependency.Resolver {
	return s.res
}

// Generator returns the session's code generator.
func (s *Session) Generator() *codegen.Generator {
	return s.gen
}

// Settle derives cfg and reconciles it against the catalog until it stops
// changing. Every reconciliation pass switches at least one feature off, so
// the loop ends within one pass per catalog key.
func Settle(res *dependency.Resolver, cfg features.Config) (features.Config, dependency.Set) {
	cat := res.Catalog()
	cfg = derive.Apply(cat, cfg)
	for i := 0; i <= cat.Len(); i++ {
		disabled := res.ComputeDisabled(cfg)
		next, changed := res.Reconcile(cfg, disabled)
		if !changed {
			return cfg, disabled
		}
		cfg = derive.Apply(cat, next)
	}
	return cfg, res.ComputeDisabled(cfg)
}

// settle must be called with mu held or before the session is shared.
func (s *Session) settle() {
	start := time.Now()
	s.cfg, s.disabled = Settle(s.res, s.cfg)
	s.code = s.gen.Generate(s.cfg)
	s.logger.Debug("settled",
		"active", len(features.ActiveKeys(s.cat, s.cfg)),
		"disabled", s.disabled.Len(),
		"bytes", len(s.code),
		"took", time.Since(start))
}

// apply records the current configuration for Undo, installs next and
// settles it.
func (s *Session) apply(next features.Config) {
	if next.Equal(s.cfg) {
		return
	}
	s.history = append(s.history, s.cfg)
	if len(s.history) > historyLimit {
		s.history = s.history[len(s.history)-historyLimit:]
	}
	s.cfg = next
	s.settle()
}

func (s *Session) lookup(key string) (catalog.Feature, error) {
	f, ok := s.cat.Lookup(key)
	if !ok {
		return f, errors.Mark(errors.Newf("unknown feature %q", key), features.ErrUnknownFeature)
	}
	return f, nil
}

func (s *Session) disabledErr(key string) error {
	return errors.Mark(errors.Newf("feature %q is disabled", key), ErrDisabled)
}

// Toggle flips key. Turning on a disabled feature fails with ErrDisabled;
// turning one off always succeeds.
func (s *Session) Toggle(key string) error {
	if _, err := s.lookup(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cfg.Clone()
	if features.Active(s.cat, s.cfg, key) {
		features.Deactivate(s.cat, &next, key)
	} else {
		if s.disabled.Has(key) {
			return s.disabledErr(key)
		}
		features.Activate(s.cat, &next, key)
	}
	s.logger.Debug("toggle", "feature", key)
	s.apply(next)
	return nil
}

// Set assigns a raw value to key, parsed for the feature's kind.
func (s *Session) Set(key, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key = strings.ToLower(strings.TrimSpace(key))
	next, err := features.Set(s.cat, s.cfg, key, raw)
	if err != nil {
		return err
	}
	f, _ := s.cat.Lookup(key)
	if s.disabled.Has(f.Key) && !features.Active(s.cat, s.cfg, f.Key) && features.Active(s.cat, next, f.Key) {
		return s.disabledErr(f.Key)
	}
	s.logger.Debug("set", "feature", f.Key, "value", raw)
	s.apply(next)
	return nil
}

// Cycle moves an enumerated feature to its next option, wrapping around.
// Leaving the inactive option obeys the same rule as Toggle.
func (s *Session) Cycle(key string) error {
	f, err := s.lookup(key)
	if err != nil {
		return err
	}
	if f.Kind != catalog.Enumerated {
		return s.Toggle(key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.cfg.Enum(key)
	idx := 0
	for i, o := range f.Options {
		if o.Value == cur {
			idx = i
			break
		}
	}
	nextVal := f.Options[(idx+1)%len(f.Options)].Value
	if cur == f.Default() && s.disabled.Has(key) {
		return s.disabledErr(key)
	}
	next := s.cfg.Clone()
	next.SetEnum(key, nextVal)
	s.apply(next)
	return nil
}

// Enable switches key on together with every transitive prerequisite.
func (s *Session) Enable(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.res.EnableWithPrerequisites(s.cfg, key)
	if err != nil {
		return err
	}
	s.logger.Debug("enable", "feature", key)
	s.apply(next)
	return nil
}

// Replace swaps in a whole configuration. Derived flags in cfg are ignored.
func (s *Session) Replace(cfg features.Config) error {
	cfg = derive.Strip(cfg)
	if err := features.Validate(s.cat, cfg); err != nil {
		return errors.Wrap(err, "replace configuration")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply(cfg.Clone())
	return nil
}

// Reset returns to the catalog defaults.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply(features.Default(s.cat))
}

// Undo restores the configuration before the last change.
func (s *Session) Undo() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.history) == 0 {
		return ErrNothingToUndo
	}
	s.cfg = s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]
	s.settle()
	return nil
}

// Explain reports why key is disabled in the current configuration.
func (s *Session) Explain(key string) (dependency.Reason, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.res.Explain(s.cfg, key)
}

// Snapshot returns a copy of the settled state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Config:   s.cfg.Clone(),
		Disabled: dependency.NewSet(s.disabled.Keys()...),
		Code:     s.code,
	}
}

// Code returns the generated code for the current configuration.
func (s *Session) Code() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.code
}

package codegen

import (
	"github.com/marcus/byot/internal/derive"
	"github.com/marcus/byot/internal/features"
)

const (
	infInt  = "1'000'000'000"
	infLong = "1'000'000'000'000'000'000"
)

// Flags is the read-only view of a derived configuration that fragments
// render from.
type Flags struct {
	cfg features.Config
}

// NewFlags wraps a configuration that already carries derived flags.
func NewFlags(cfg features.Config) Flags {
	return Flags{cfg: cfg}
}

// On reports whether a boolean feature or derived flag is set.
func (f Flags) On(key string) bool {
	return f.cfg.Bool(key)
}

// All reports whether every key is on.
func (f Flags) All(keys ...string) bool {
	for _, k := range keys {
		if !f.cfg.Bool(k) {
			return false
		}
	}
	return true
}

// Any reports whether at least one key is on.
func (f Flags) Any(keys ...string) bool {
	for _, k := range keys {
		if f.cfg.Bool(k) {
			return true
		}
	}
	return false
}

// Enum returns an enumerated value.
func (f Flags) Enum(key string) string {
	return f.cfg.Enum(key)
}

// KeyType is the C++ type of node keys. It falls back to int so signatures
// stay well formed even when no key type is chosen.
func (f Flags) KeyType() string {
	switch kt := f.cfg.Enum("key_type"); kt {
	case "", "none":
		return "int"
	default:
		return kt
	}
}

// ValType is the C++ type of min/max aggregate fields.
func (f Flags) ValType() string {
	if vt := f.cfg.Enum("val_type"); vt != "" {
		return vt
	}
	return "int"
}

// Inf is the sentinel used for min/max identities.
func (f Flags) Inf() string {
	if f.ValType() == "int" {
		return infInt
	}
	return infLong
}

// IncExc reports whether ranges are half open, [lo, hi).
func (f Flags) IncExc() bool {
	return f.cfg.Enum("range_type") != "inc inc"
}

// hiBound is the split point that ends a range at hi.
func (f Flags) hiBound() string {
	if f.IncExc() {
		return "hi"
	}
	return "hi + 1"
}

// closer is the bracket closing a range in comments.
func (f Flags) closer() string {
	if f.IncExc() {
		return ")"
	}
	return "]"
}

// pull wraps expr in a pull call when nodes keep pulled state.
func (f Flags) pull(expr string) string {
	if f.On(derive.Pull) {
		return "pull(" + expr + ")"
	}
	return expr
}

func (f Flags) augmented() bool {
	return f.On("augmented_ptr")
}

// beats reports whether a treap beats sub-option is in effect.
func (f Flags) beats(sub string) bool {
	return f.On("treap_beats") && f.On(sub)
}

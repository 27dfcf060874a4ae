// Package codegen assembles treap source code from a feature configuration.
//
// Every block of output is a Fragment: a gate (the flags that must be on), a
// renderer, and the symbols it defines and uses. The library below is the
// only place emission order is decided. A fragment must come after every
// fragment whose symbols it uses; Check verifies this for a configuration.
package codegen

import (
	"strings"

	"github.com/marcus/byot/internal/catalog"
	"github.com/marcus/byot/internal/derive"
	"github.com/marcus/byot/internal/features"
)

// Placeholder stands in for the body when no fragment produces any text.
const Placeholder = "// Enable some features to generate code."

var library = []Fragment{
	introFragment,
	commentFragment,

	// Types and identities.
	forwardDeclsFragment,
	ptrTypeFragment,
	lazyStructFragment,
	lidConstFragment,
	beatsTagHelpersFragment,
	valueStructFragment,
	vidConstFragment,
	nodeStructFragment,
	ptrMakeFragment,
	valueUpdFragment,

	// Accessors and the core algorithms.
	szFragment,
	aggFragment,
	pushFragment,
	pullFragment,
	mergeFragment,
	safeMergeFragment,
	nMergeFragment,
	splitFragment,
	threeSplitFragment,
	splitiFragment,
	threeSplitIndexFragment,

	// Point operations.
	findFragment,
	findiFragment,
	insFragment,
	delFragment,
	delAllFragment,
	insiFragment,
	deliFragment,
	minFragment,
	maxFragment,
	modFragment,
	modIndexFragment,
	rotateFragment,

	// Parent pointers.
	succFragment,
	predFragment,
	cleanFragment,
	orderFragment,
	rootFragment,

	// Search.
	lowerBoundFragment,
	upperBoundFragment,
	partitionKeyFragment,
	partitionIndexFragment,
	cumulativePartitionKeyFragment,
	cumulativePartitionIndexFragment,

	// Whole-tree operations.
	heapifyFragment,
	buildFragment,
	tourFragment,
	uniteFragment,
	uniteFastFragment,

	// Range operations. updi comes before upd, which calls it under beats.
	rangeReverseKeyFragment,
	rangeReverseIndexFragment,
	rangeUpdateIndexFragment,
	rangeUpdateKeyFragment,
	rangeQueryKeyFragment,
	rangeQueryIndexFragment,
}

// Library returns the fragments in emission order.
func Library() []Fragment {
	return append([]Fragment(nil), library...)
}

// Order returns fragment names in emission order.
func Order() []string {
	names := make([]string, len(library))
	for i, fr := range library {
		names[i] = fr.Name
	}
	return names
}

// Generator turns configurations into source text.
type Generator struct {
	cat *catalog.Catalog
}

// New returns a generator for configurations over cat.
func New(cat *catalog.Catalog) *Generator {
	return &Generator{cat: cat}
}

// Flags derives cfg and wraps it for rendering. Deriving again is harmless
// because derivation is idempotent.
func (g *Generator) Flags(cfg features.Config) Flags {
	return NewFlags(derive.Apply(g.cat, cfg))
}

// Body concatenates the output of every enabled fragment in library order,
// without trimming or transforms.
func (g *Generator) Body(cfg features.Config) string {
	f := g.Flags(cfg)
	var b strings.Builder
	for _, fr := range library {
		if fr.Enabled(f) {
			b.WriteString(fr.Render(f))
		}
	}
	return b.String()
}

// Emitted returns the names of fragments that produce text under cfg.
func (g *Generator) Emitted(cfg features.Config) []string {
	f := g.Flags(cfg)
	var names []string
	for _, fr := range library {
		if fr.Enabled(f) && fr.Render(f) != "" {
			names = append(names, fr.Name)
		}
	}
	return names
}

// Generate returns the finished source for cfg. An empty assembly becomes
// Placeholder. The output transforms then run in order and the indentation
// rewrite runs last, so the placeholder is wrapped like any other body.
func (g *Generator) Generate(cfg features.Config) string {
	code := strings.TrimSpace(g.Body(cfg))
	if code == "" {
		code = Placeholder
	}
	f := g.Flags(cfg)
	if f.On("use_namespace_std") {
		code = StripQualifier(code)
	}
	if f.On("use_ll_typedef") {
		code = AliasLongLong(code)
	}
	if f.On("namespace_treap") {
		code = WrapNamespace(code, "Treap")
	}
	if f.On("template") {
		code = WrapProgram(code, f.On("use_namespace_std"), f.On("use_ll_typedef"))
	}
	return Reindent(code, IndentUnit(f.Enum("tab_char")))
}

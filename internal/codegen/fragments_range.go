package codegen

import "github.com/marcus/byot/internal/derive"

func reverseFragment(name, key, fn, splitter string, bound func(Flags) string) Fragment {
	return Fragment{
		Name: name,
		When: []string{key},
		Render: func(f Flags) string {
			var t text
			t.lnIf(f.On("comments"), "// range reverse needs its own tag, the normal range update cannot do it")
			t.lnf("void %s(ptr &n, %s lo, %s hi) {", fn, bound(f), bound(f))
			t.lnf("    auto [lm, r] = %s(n, %s);", splitter, f.hiBound())
			t.lnf("    auto [l, m] = %s(lm, lo);", splitter)
			t.ln(
				"    Lazy upd = lid;",
				"    upd.rev = true;",
				"    if (m) m->lazy += upd;",
				"    n = merge(merge(l, m), r);",
				"}",
			)
			return t.end()
		},
		Defines: static(fn),
		Uses:    static(splitter, "merge", "lid", "Lazy.rev", "Node.lazy"),
	}
}

var (
	rangeReverseKeyFragment   = reverseFragment("rangeReverseKeyFn", "range_reverse_key", "reverse", "split", Flags.KeyType)
	rangeReverseIndexFragment = reverseFragment("rangeReverseIndexFn", "range_reverse_index", "reversei", "spliti", indexType)
)

func indexType(Flags) string { return "int" }

var rangeUpdateIndexFragment = Fragment{
	Name: "rangeUpdateIndexFn",
	When: []string{"range_update_index"},
	Render: func(f Flags) string {
		var t text
		beats := f.On("treap_beats")
		out, in, mid := "<=", "", "<"
		if !f.IncExc() {
			out, in, mid = "<", " - 1", "<="
		}
		brk, tag := "", ""
		if beats {
			brk, tag = " || n->agg.can_break(lazy)", " && n->agg.can_tag(lazy)"
		}

		t.lnIf(f.On("comments"), "// applies lazy to every node with index in [lo, hi"+f.closer())
		t.ln("void updi(ptr n, int lo, int hi, Lazy lazy) {", "    if (!n) return;")
		pushLine(f, &t, "    ")
		t.lnf("    if (lo >= n->sz || hi %s 0%s) return;", out, brk)
		t.lnf("    if (lo <= 0 && n->sz%s <= hi%s) {", in, tag)
		t.ln("        n->lazy += lazy;")
		pushLine(f, &t, "        ")
		t.ln("        return;", "    }")
		if f.On(derive.HasValue) {
			t.lnf("    if (lo <= sz(n->l) && sz(n->l) %s hi) n->val.upd(lazy, 1);", mid)
		}
		t.ln(
			"    updi(n->l, lo, hi, lazy);",
			"    updi(n->r, lo - 1 - sz(n->l), hi - 1 - sz(n->l), lazy);",
		)
		pullLine(f, &t)
		t.ln("}")
		return t.end()
	},
	Defines: static("updi"),
	Uses: func(f Flags) []string {
		return syms("Node.lazy", "Node.sz", "sz").
			when(f.On(derive.Push), "push").
			when(f.On(derive.Pull), "pull").
			when(f.On(derive.HasValue), "Value::upd").
			when(f.On("treap_beats"), "Value::can_break", "Node.agg")
	},
}

var rangeUpdateKeyFragment = Fragment{
	Name: "rangeUpdateKeyFn",
	When: []string{"range_update_key"},
	Render: func(f Flags) string {
		var t text
		kt := f.KeyType()
		t.lnIf(f.On("comments"), "// applies lazy to every node with key in [lo, hi"+f.closer())
		t.lnf("void upd(ptr &n, %s lo, %s hi, Lazy lazy) {", kt, kt)
		t.lnf("    auto [lm, r] = split(n, %s);", f.hiBound())
		t.ln("    auto [l, m] = split(lm, lo);")
		if f.On("treap_beats") {
			t.ln("    updi(m, 0, sz(m), lazy);")
		} else {
			t.ln("    if (m) m->lazy += lazy;")
		}
		t.ln("    n = merge(l, merge(m, r));", "}")
		return t.end()
	},
	Defines: static("upd"),
	Uses: func(f Flags) []string {
		if f.On("treap_beats") {
			return syms("split", "merge", "updi", "sz")
		}
		return syms("split", "merge", "Node.lazy")
	},
}

var rangeQueryKeyFragment = Fragment{
	Name: "rangeQueryKeyFn",
	When: []string{"range_query_key"},
	Render: func(f Flags) string {
		var t text
		kt := f.KeyType()
		t.lnIf(f.On("comments"), "// aggregate of every node with key in [lo, hi"+f.closer())
		t.lnf("Value query(ptr &n, %s lo, %s hi) {", kt, kt)
		t.lnf("    auto [lm, r] = split(n, %s);", f.hiBound())
		t.ln(
			"    auto [l, m] = split(lm, lo);",
			"    Value res = agg(m);",
			"    n = merge(l, merge(m, r));",
			"    return res;",
			"}",
		)
		return t.end()
	},
	Defines: static("query"),
	Uses:    static("split", "merge", "agg", "Value"),
}

var rangeQueryIndexFragment = Fragment{
	Name: "rangeQueryIndexFn",
	When: []string{"range_query_index"},
	Render: func(f Flags) string {
		var t text
		out, in, mid := "<=", "", "<"
		if !f.IncExc() {
			out, in, mid = "<", " - 1", "<="
		}
		t.lnIf(f.On("comments"), "// aggregate of every node with index in [lo, hi"+f.closer())
		t.ln("Value queryi(ptr n, int lo, int hi) {")
		t.lnf("    if (!n || lo >= sz(n) || hi %s 0) return vid;", out)
		pushLine(f, &t, "    ")
		t.lnf("    if (lo <= 0 && sz(n)%s <= hi) return n->agg;", in)
		t.lnf("    return queryi(n->l, lo, hi) + (lo <= sz(n->l) && sz(n->l) %s hi ? n->val : vid) + queryi(n->r, lo - 1 - sz(n->l), hi - 1 - sz(n->l));", mid)
		t.ln("}")
		return t.end()
	},
	Defines: static("queryi"),
	Uses: func(f Flags) []string {
		return withPush(f, "sz", "vid", "Node.agg", "Node.val", "Value::operator+")
	},
}

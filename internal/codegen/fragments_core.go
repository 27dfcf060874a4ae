package codegen

import (
	"github.com/marcus/byot/internal/derive"
)

var szFragment = Fragment{
	Name: "szFn",
	When: []string{"size_option"},
	Render: func(Flags) string {
		return "int sz(ptr n) { return n ? n->sz : 0; }\n\n"
	},
	Defines: static("sz"),
	Uses:    static("Node.sz"),
}

var aggFragment = Fragment{
	Name: "aggFn",
	When: []string{"range_agg"},
	Render: func(Flags) string {
		return "Value agg(ptr n) { return n ? n->agg : vid; }\n\n"
	},
	Defines: static("agg"),
	Uses:    static("Node.agg", "vid"),
}

var pushFragment = Fragment{
	Name: "pushFn",
	When: []string{derive.Push},
	Render: func(f Flags) string {
		var t text
		t.ln("void push(ptr n) {")
		if f.On("size_option") {
			t.lnIf(f.On(derive.HasValue), "    n->val.upd(n->lazy, 1);")
			t.lnIf(f.On("range_agg"), "    n->agg.upd(n->lazy, n->sz);")
		} else {
			t.lnIf(f.On(derive.HasValue), "    n->val.upd(n->lazy);")
			t.lnIf(f.On("range_agg"), "    n->agg.upd(n->lazy);")
		}
		if f.Any("key_add", "key_set") {
			t.lnIf(f.On("key_set"), "    if (!n->lazy.kinc) n->key = 0;")
			t.ln("    n->key += n->lazy.kval;")
		}
		t.lnIf(f.On(derive.HasRev), "    if (n->lazy.rev) std::swap(n->l, n->r);")
		t.ln(
			"    if (n->l) n->l->lazy += n->lazy;",
			"    if (n->r) n->r->lazy += n->lazy;",
			"    n->lazy = lid;",
			"}",
		)
		return t.end()
	},
	Defines: static("push"),
	Uses: func(f Flags) []string {
		return syms("Node.lazy", "lid").
			when(f.On(derive.HasValue), "Value::upd").
			when(f.Any("key_add", "key_set"), "Node.key").
			when(f.On(derive.HasRev), "Lazy.rev")
	},
}

var pullFragment = Fragment{
	Name: "pullFn",
	When: []string{derive.Pull},
	Render: func(f Flags) string {
		var t text
		t.ln("ptr pull(ptr n) {", "    if (!n) return nullptr;")
		t.lnIf(f.On(derive.Push),
			"    if (n->l) push(n->l);",
			"    if (n->r) push(n->r);",
		)
		t.lnIf(f.On("par_option"),
			"    n->par = nullptr;",
			"    if (n->l) n->l->par = n;",
			"    if (n->r) n->r->par = n;",
		)
		t.lnIf(f.On("size_option"), "    n->sz = sz(n->l) + 1 + sz(n->r);")
		t.lnIf(f.On("range_agg"), "    n->agg = agg(n->l) + n->val + agg(n->r);")
		t.ln("    return n;", "}")
		return t.end()
	},
	Defines: static("pull"),
	Uses: func(f Flags) []string {
		return syms().
			when(f.On(derive.Push), "push").
			when(f.On("par_option"), "Node.par").
			when(f.On("size_option"), "sz").
			when(f.On("range_agg"), "agg", "Node.val", "Value::operator+")
	},
}

var mergeFragment = Fragment{
	Name: "mergeFn",
	When: []string{"merge_option"},
	Render: func(f Flags) string {
		var t text
		t.ln("ptr merge(ptr l, ptr r) {", "    if (!l || !r) return l ? l : r;")
		t.lnIf(f.On(derive.Push), "    push(l), push(r);")
		t.ln("    if (l->pri > r->pri)")
		t.lnf("        return l->r = merge(l->r, r), %s;", f.pull("l"))
		t.ln("    else")
		t.lnf("        return r->l = merge(l, r->l), %s;", f.pull("r"))
		t.ln("}")
		return t.end()
	},
	Defines: static("merge"),
	Uses: func(f Flags) []string {
		return withPushPull(f, "Node.pri")
	},
}

var safeMergeFragment = Fragment{
	Name: "safeMergeFn",
	When: []string{"safe_merge_option"},
	Render: func(Flags) string {
		var t text
		t.ln(
			"ptr safe_merge(ptr &lhs, ptr &rhs) { ptr res = merge(lhs, rhs); lhs.p = rhs.p = nullptr; return res; }",
			"ptr safe_merge(ptr &lhs, ptr &&rhs) { ptr res = merge(lhs, rhs); lhs.p = nullptr; return res; }",
			"ptr safe_merge(ptr &&lhs, ptr &rhs) { ptr res = merge(lhs, rhs); rhs.p = nullptr; return res; }",
			"ptr safe_merge(ptr &&lhs, ptr &&rhs) { return merge(lhs, rhs); }",
		)
		return t.end()
	},
	Defines: static("safe_merge"),
	Uses:    static("merge", "ptr.p"),
}

var nMergeFragment = Fragment{
	Name: "nMergeFn",
	When: []string{"n_merge_option"},
	Render: func(Flags) string {
		var t text
		t.ln(
			"template <typename... Args>",
			"ptr merge(ptr l, Args... args) {",
			"    return merge(l, merge(args...));",
			"}",
		)
		return t.end()
	},
	Uses: static("merge"),
}

var splitFragment = Fragment{
	Name: "splitFn",
	When: []string{"split_option"},
	Render: func(f Flags) string {
		var t text
		t.lnIf(f.On("comments"), "// (-inf, k) and [k, inf)")
		t.lnf("void split(ptr n, %s k, ptr &l, ptr &r) {", f.KeyType())
		t.ln("    if (!n) { l = r = nullptr; return; }")
		t.lnIf(f.On(derive.Push), "    push(n);")
		t.lnf("    if (k <= n->key) split(n->l, k, l, n->l), %s;", f.pull("r = n"))
		t.lnf("    else split(n->r, k, n->r, r), %s;", f.pull("l = n"))
		t.ln("}", "")
		t.lnf("std::pair<ptr, ptr> split(ptr n, %s k) { ptr l, r; split(n, k, l, r); return {l, r}; }", f.KeyType())
		return t.end()
	},
	Defines: static("split"),
	Uses: func(f Flags) []string {
		return withPushPull(f, "Node.key")
	},
}

var threeSplitFragment = Fragment{
	Name: "threeSplit",
	When: []string{"three_split_option", "split_option"},
	Render: func(f Flags) string {
		var t text
		t.lnIf(f.On("comments"), "// cuts out [lo, hi"+f.closer())
		t.lnf("std::tuple<ptr, ptr, ptr> split(ptr n, %s lo, %s hi) {", f.KeyType(), f.KeyType())
		t.lnf("    auto [lm, r] = split(n, %s);", f.hiBound())
		t.ln(
			"    auto [l, m] = split(lm, lo);",
			"    return {l, m, r};",
			"}",
		)
		return t.end()
	},
	Uses: static("split"),
}

var splitiFragment = Fragment{
	Name: "splitiFn",
	When: []string{"spliti_option"},
	Render: func(f Flags) string {
		var t text
		t.lnIf(f.On("comments"), "// [0, i) and [i, n)")
		t.ln("void spliti(ptr n, int i, ptr &l, ptr &r) {")
		t.ln("    if (!n) { l = r = nullptr; return; }")
		t.lnIf(f.On(derive.Push), "    push(n);")
		t.lnf("    if (i <= sz(n->l)) spliti(n->l, i, l, n->l), %s;", f.pull("r = n"))
		t.lnf("    else spliti(n->r, i - 1 - sz(n->l), n->r, r), %s;", f.pull("l = n"))
		t.ln("}", "")
		t.ln("std::pair<ptr, ptr> spliti(ptr n, int i) { ptr l, r; spliti(n, i, l, r); return {l, r}; }")
		return t.end()
	},
	Defines: static("spliti"),
	Uses: func(f Flags) []string {
		return withPushPull(f, "sz")
	},
}

var threeSplitIndexFragment = Fragment{
	Name: "threeSplitIndex",
	When: []string{"three_spliti_option", "spliti_option"},
	Render: func(f Flags) string {
		var t text
		t.lnIf(f.On("comments"), "// cuts out [lo, hi"+f.closer())
		t.ln("std::tuple<ptr, ptr, ptr> spliti(ptr n, int lo, int hi) {")
		t.lnf("    auto [lm, r] = spliti(n, %s);", f.hiBound())
		t.ln(
			"    auto [l, m] = spliti(lm, lo);",
			"    return {l, m, r};",
			"}",
		)
		return t.end()
	},
	Uses: static("spliti"),
}

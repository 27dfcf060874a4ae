package codegen

import (
	"github.com/marcus/byot/internal/derive"
)

func pushLine(f Flags, t *text, indent string) {
	t.lnIf(f.On(derive.Push), indent+"push(n);")
}

func pullLine(f Flags, t *text) {
	t.lnIf(f.On(derive.Pull), "    pull(n);")
}

var findFragment = Fragment{
	Name: "findFn",
	When: []string{"find_option"},
	Render: func(f Flags) string {
		var t text
		t.lnf("ptr find(ptr n, %s k) {", f.KeyType())
		t.ln("    if (!n) return nullptr;")
		pushLine(f, &t, "    ")
		t.ln(
			"    if (n->key == k) return n;",
			"    if (k <= n->key) return find(n->l, k);",
			"    else return find(n->r, k);",
			"}",
		)
		return t.end()
	},
	Defines: static("find"),
	Uses: func(f Flags) []string {
		return withPush(f, "Node.key")
	},
}

var findiFragment = Fragment{
	Name: "findiFn",
	When: []string{"findi_option"},
	Render: func(f Flags) string {
		var t text
		t.ln("ptr findi(ptr n, int i) {", "    if (!n) return nullptr;")
		pushLine(f, &t, "    ")
		t.ln(
			"    if (sz(n->l) == i) return n;",
			"    if (i < sz(n->l)) return findi(n->l, i);",
			"    else return findi(n->r, i - sz(n->l) - 1);",
			"}",
		)
		return t.end()
	},
	Defines: static("findi"),
	Uses: func(f Flags) []string {
		return withPush(f, "sz")
	},
}

var insFragment = Fragment{
	Name: "insFn",
	When: []string{"ins_option"},
	Render: func(f Flags) string {
		var t text
		t.lnIf(f.On("comments"), "// only insert single nodes")
		t.ln("void ins(ptr &n, ptr it) {", "    if (!n) { n = it; return; }")
		pushLine(f, &t, "    ")
		t.ln(
			"    if (n->pri < it->pri) split(n, it->key, it->l, it->r), n = it;",
			"    else if (it->key <= n->key) ins(n->l, it);",
			"    else ins(n->r, it);",
		)
		pullLine(f, &t)
		t.ln("}")
		return t.end()
	},
	Defines: static("ins"),
	Uses: func(f Flags) []string {
		return withPushPull(f, "split", "Node.key")
	},
}

var delFragment = Fragment{
	Name: "delFn",
	When: []string{"del_option"},
	Render: func(f Flags) string {
		var t text
		t.lnIf(f.On("comments"), "// returns pointer to deleted node")
		t.lnf("ptr del(ptr &n, %s k) {", f.KeyType())
		t.ln("    if (!n) return nullptr;")
		pushLine(f, &t, "    ")
		t.ln(
			"    if (n->key == k) { ptr ret = n; n = merge(n->l, n->r); ret->l = ret->r = nullptr; return ret; }",
			"    ptr ret = k <= n->key ? del(n->l, k) : del(n->r, k);",
		)
		pullLine(f, &t)
		t.ln("    return ret;", "}")
		return t.end()
	},
	Defines: static("del"),
	Uses: func(f Flags) []string {
		return withPushPull(f, "merge", "Node.key")
	},
}

var delAllFragment = Fragment{
	Name: "delAllFn",
	When: []string{"del_all_option"},
	Render: func(f Flags) string {
		var t text
		t.lnIf(f.On("comments"), "// removes all nodes with key k and returns them as one treap")
		t.lnf("ptr del_all(ptr &n, %s k) {", f.KeyType())
		t.ln(
			"    auto [lm, r] = split(n, k + 1);",
			"    auto [l, m] = split(lm, k);",
			"    n = merge(l, r);",
			"    return m;",
			"}",
		)
		return t.end()
	},
	Defines: static("del_all"),
	Uses:    static("split", "merge"),
}

var insiFragment = Fragment{
	Name: "insiFn",
	When: []string{"insi_option"},
	Render: func(f Flags) string {
		var t text
		t.lnIf(f.On("comments"), "// inserts it so that it ends up at index i. only insert single nodes")
		t.ln("void insi(ptr &n, ptr it, int i) {", "    if (!n) { n = it; return; }")
		pushLine(f, &t, "    ")
		t.ln(
			"    if (n->pri < it->pri) spliti(n, i, it->l, it->r), n = it;",
			"    else if (i <= sz(n->l)) insi(n->l, it, i);",
			"    else insi(n->r, it, i - 1 - sz(n->l));",
		)
		pullLine(f, &t)
		t.ln("}")
		return t.end()
	},
	Defines: static("insi"),
	Uses: func(f Flags) []string {
		return withPushPull(f, "spliti", "sz")
	},
}

var deliFragment = Fragment{
	Name: "deliFn",
	When: []string{"deli_option"},
	Render: func(f Flags) string {
		var t text
		t.lnIf(f.On("comments"), "// returns pointer to deleted node")
		t.ln("ptr deli(ptr &n, int i) {", "    if (!n) return nullptr;")
		pushLine(f, &t, "    ")
		t.ln(
			"    if (i == sz(n->l)) { ptr ret = n; n = merge(n->l, n->r); ret->l = ret->r = nullptr; return ret; }",
			"    ptr ret = i < sz(n->l) ? deli(n->l, i) : deli(n->r, i - 1 - sz(n->l));",
		)
		pullLine(f, &t)
		t.ln("    return ret;", "}")
		return t.end()
	},
	Defines: static("deli"),
	Uses: func(f Flags) []string {
		return withPushPull(f, "merge", "sz")
	},
}

func extremeFragment(name, key, fn, child string) Fragment {
	return Fragment{
		Name: name,
		When: []string{key},
		Render: func(f Flags) string {
			var t text
			t.lnf("ptr %s(ptr n) {", fn)
			t.ln("    if (!n) return nullptr;")
			pushLine(f, &t, "    ")
			if f.On(derive.Push) {
				t.lnf("    while (n->%s) n = n->%s, push(n);", child, child)
			} else {
				t.lnf("    while (n->%s) n = n->%s;", child, child)
			}
			t.ln("    return n;", "}")
			return t.end()
		},
		Defines: static(fn),
		Uses: func(f Flags) []string {
			return syms().when(f.On(derive.Push), "push")
		},
	}
}

var (
	minFragment = extremeFragment("minFn", "min_option", "mn", "l")
	maxFragment = extremeFragment("maxFn", "max_option", "mx", "r")
)

var modFragment = Fragment{
	Name: "modFn",
	When: []string{"mod_option"},
	Render: func(f Flags) string {
		var t text
		t.lnIf(f.On("comments"), "// applies op to the node with key k")
		t.ln("template <typename Op>")
		t.lnf("void modify(ptr n, %s k, Op op) {", f.KeyType())
		t.ln("    if (!n) return;")
		pushLine(f, &t, "    ")
		t.ln(
			"    if (n->key == k) op(n);",
			"    else if (k <= n->key) modify(n->l, k, op);",
			"    else modify(n->r, k, op);",
		)
		pullLine(f, &t)
		t.ln("}")
		return t.end()
	},
	Defines: static("modify"),
	Uses: func(f Flags) []string {
		return withPushPull(f, "Node.key")
	},
}

var modIndexFragment = Fragment{
	Name: "modIndexFn",
	When: []string{"modi_option"},
	Render: func(f Flags) string {
		var t text
		t.lnIf(f.On("comments"), "// applies op to the node at index i")
		t.ln("template <typename Op>", "void modifyi(ptr n, int i, Op op) {", "    if (!n) return;")
		pushLine(f, &t, "    ")
		t.ln(
			"    if (sz(n->l) == i) op(n);",
			"    else if (i < sz(n->l)) modifyi(n->l, i, op);",
			"    else modifyi(n->r, i - 1 - sz(n->l), op);",
		)
		pullLine(f, &t)
		t.ln("}")
		return t.end()
	},
	Defines: static("modifyi"),
	Uses: func(f Flags) []string {
		return withPushPull(f, "sz")
	},
}

var rotateFragment = Fragment{
	Name: "rotateFn",
	When: []string{"rot_option"},
	Render: func(f Flags) string {
		var t text
		t.lnIf(f.On("comments"), "// rotates the treap so that index i comes first")
		t.ln(
			"void rotate(ptr &n, int i) {",
			"    auto [l, r] = spliti(n, i);",
			"    n = merge(r, l);",
			"}",
		)
		return t.end()
	},
	Defines: static("rotate"),
	Uses:    static("spliti", "merge"),
}

func neighbourFragment(name, fn, near, far string) Fragment {
	return Fragment{
		Name: name,
		When: []string{fn},
		Render: func(f Flags) string {
			var t text
			step := "n = n->" + far
			if f.On(derive.Push) {
				step = "push(n = n->" + far + ")"
			}
			t.lnf("ptr %s(ptr n) {", fn)
			t.lnf("    if (n->%s) for (n = n->%s; n->%s; %s);", near, near, far, step)
			t.lnf("    else { while (n->par && n->par->%s == n) n = n->par; n = n->par; }", near)
			t.ln("    return n;", "}")
			return t.end()
		},
		Defines: static(fn),
		Uses: func(f Flags) []string {
			return syms("Node.par").when(f.On(derive.Push), "push")
		},
	}
}

var (
	succFragment = neighbourFragment("succFn", "succ", "r", "l")
	predFragment = neighbourFragment("predFn", "pred", "l", "r")
)

var cleanFragment = Fragment{
	Name: "cleanFn",
	When: []string{"clean_option"},
	Render: func(f Flags) string {
		var t text
		t.lnIf(f.On("comments"), "// pushes every lazy tag on the path from the root down to n")
		t.ln(
			"void clean(ptr n) {",
			"    if (!n) return;",
			"    clean(n->par);",
			"    push(n);",
			"}",
		)
		return t.end()
	},
	Defines: static("clean"),
	Uses:    static("Node.par", "push"),
}

var orderFragment = Fragment{
	Name: "orderFn",
	When: []string{"order_option"},
	Render: func(f Flags) string {
		var t text
		t.lnIf(f.On("comments"), "// index of n in its treap")
		t.ln(
			"int order(ptr n, ptr from = nullptr) {",
			"    if (!n) return -1;",
			"    int res = order(n->par, n);",
			"    if (from == n->r || !from) res += sz(n->l) + 1;",
			"    return res;",
			"}",
		)
		return t.end()
	},
	Defines: static("order"),
	Uses:    static("Node.par", "sz"),
}

var rootFragment = Fragment{
	Name: "rootFn",
	When: []string{"root_option"},
	Render: func(Flags) string {
		var t text
		t.ln(
			"ptr root(ptr n) {",
			"    while (n->par) n = n->par;",
			"    return n;",
			"}",
		)
		return t.end()
	},
	Defines: static("root"),
	Uses:    static("Node.par"),
}

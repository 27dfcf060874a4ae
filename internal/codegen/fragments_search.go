package codegen

import "github.com/marcus/byot/internal/derive"

var lowerBoundFragment = Fragment{
	Name: "lowerBound",
	When: []string{"lower_bound_option"},
	Render: func(f Flags) string {
		var t text
		t.lnIf(f.On("comments"), "// first node whose key is not less than k")
		t.lnf("ptr lower_bound(ptr n, %s k) {", f.KeyType())
		t.ln("    if (!n) return nullptr;")
		pushLine(f, &t, "    ")
		t.ln(
			"    if (n->key < k) return lower_bound(n->r, k);",
			"    ptr lhs = lower_bound(n->l, k);",
			"    return lhs ? lhs : n;",
			"}",
		)
		return t.end()
	},
	Defines: static("lower_bound"),
	Uses: func(f Flags) []string {
		return withPush(f, "Node.key")
	},
}

var upperBoundFragment = Fragment{
	Name: "upperBound",
	When: []string{"upper_bound_option"},
	Render: func(f Flags) string {
		var t text
		t.lnIf(f.On("comments"), "// first node whose key is greater than k")
		t.lnf("ptr upper_bound(ptr n, %s k) {", f.KeyType())
		t.ln("    if (!n) return nullptr;")
		pushLine(f, &t, "    ")
		t.ln(
			"    if (!(k < n->key)) return upper_bound(n->r, k);",
			"    ptr lhs = upper_bound(n->l, k);",
			"    return lhs ? lhs : n;",
			"}",
		)
		return t.end()
	},
	Defines: static("upper_bound"),
	Uses: func(f Flags) []string {
		return withPush(f, "Node.key")
	},
}

var partitionKeyFragment = Fragment{
	Name: "partitionKey",
	When: []string{"partition_key"},
	Render: func(f Flags) string {
		var t text
		t.lnIf(f.On("comments"), "// smallest key for which pred is false. n must not be empty")
		t.ln("template <typename Pred>")
		t.lnf("%s partition_key(ptr n, Pred pred) {", f.KeyType())
		pushLine(f, &t, "    ")
		t.ln(
			"    if (pred(n)) return n->r ? partition_key(n->r, pred) : n->key + 1;",
			"    else return n->l ? partition_key(n->l, pred) : n->key;",
			"}",
		)
		return t.end()
	},
	Defines: static("partition_key"),
	Uses: func(f Flags) []string {
		return withPush(f, "Node.key")
	},
}

var partitionIndexFragment = Fragment{
	Name: "partitionIndex",
	When: []string{"partition_index"},
	Render: func(f Flags) string {
		var t text
		t.lnIf(f.On("comments"), "// smallest index for which pred is false")
		t.ln("template <typename Pred>", "int partition_index(ptr n, Pred pred) {", "    if (!n) return 0;")
		pushLine(f, &t, "    ")
		t.ln(
			"    if (pred(n)) return sz(n->l) + 1 + partition_index(n->r, pred);",
			"    else return partition_index(n->l, pred);",
			"}",
		)
		return t.end()
	},
	Defines: static("partition_index"),
	Uses: func(f Flags) []string {
		return withPush(f, "sz")
	},
}

var cumulativePartitionKeyFragment = Fragment{
	Name: "cumulativePartitionKey",
	When: []string{"cumulative_partition_key"},
	Render: func(f Flags) string {
		var t text
		t.lnIf(f.On("comments"),
			"// pred holds for some prefix of aggregates. returns the key at which the",
			"// prefix aggregate first makes pred false (max key + 1 if it never does)",
			"// eg. the smallest prefix with sum > x",
		)
		t.ln("template <typename Pred>")
		t.lnf("%s cumulative_partition_key(ptr n, Pred pred, Value acc = vid) {", f.KeyType())
		pushLine(f, &t, "    ")
		t.ln(
			"    if (!pred(acc + agg(n->l))) return n->l ? cumulative_partition_key(n->l, pred, acc) : n->key;",
			"    if (!pred(acc = acc + agg(n->l) + n->val)) return n->key;",
			"    return n->r ? cumulative_partition_key(n->r, pred, acc) : n->key + 1;",
			"}",
		)
		return t.end()
	},
	Defines: static("cumulative_partition_key"),
	Uses: func(f Flags) []string {
		return withPush(f, "Node.key", "Node.val", "agg", "vid", "Value::operator+")
	},
}

var cumulativePartitionIndexFragment = Fragment{
	Name: "cumulativePartitionIndex",
	When: []string{"cumulative_partition_index"},
	Render: func(f Flags) string {
		var t text
		t.lnIf(f.On("comments"),
			"// pred holds for some prefix of aggregates. returns the index at which the",
			"// prefix aggregate first makes pred false (sz(n) if it never does)",
			"// eg. the smallest prefix with sum > x",
		)
		t.ln("template <typename Pred>", "int cumulative_partition_index(ptr n, Pred pred, Value acc = vid) {", "    if (!n) return 0;")
		pushLine(f, &t, "    ")
		t.ln(
			"    if (!pred(acc + agg(n->l))) return cumulative_partition_index(n->l, pred, acc);",
			"    if (!pred(acc = acc + agg(n->l) + n->val)) return sz(n->l);",
			"    return sz(n->l) + 1 + cumulative_partition_index(n->r, pred, acc);",
			"}",
		)
		return t.end()
	},
	Defines: static("cumulative_partition_index"),
	Uses: func(f Flags) []string {
		return withPush(f, "sz", "Node.val", "agg", "vid", "Value::operator+")
	},
}

var heapifyFragment = Fragment{
	Name: "heapifyFn",
	When: []string{"heapify_option"},
	Render: func(Flags) string {
		var t text
		t.ln(
			"void heapify(ptr n) {",
			"    if (!n) return;",
			"    ptr mx = n;",
			"    if (n->l && n->l->pri > mx->pri) mx = n->l;",
			"    if (n->r && n->r->pri > mx->pri) mx = n->r;",
			"    if (mx != n) std::swap(n->pri, mx->pri), heapify(mx);",
			"}",
		)
		return t.end()
	},
	Defines: static("heapify"),
	Uses:    static("Node.pri"),
}

var buildFragment = Fragment{
	Name: "buildFn",
	When: []string{"build_option"},
	Render: func(f Flags) string {
		var t text
		t.lnIf(f.On("comments"), "// builds a treap from nodes already in order in linear time")
		t.ln(
			"ptr build(std::vector<ptr> &ns, int l, int r) {",
			"    if (l > r) return nullptr;",
			"    int m = (l + r) / 2;",
			"    ns[m]->l = build(ns, l, m - 1);",
			"    ns[m]->r = build(ns, m + 1, r);",
			"    heapify(ns[m]);",
		)
		t.lnf("    return %s;", f.pull("ns[m]"))
		t.ln(
			"}",
			"",
			"ptr build(std::vector<ptr> &ns) { return build(ns, 0, (int) ns.size() - 1); }",
		)
		return t.end()
	},
	Defines: static("build"),
	Uses: func(f Flags) []string {
		return syms("heapify").when(f.On(derive.Pull), "pull")
	},
}

var tourFragment = Fragment{
	Name: "tourFn",
	When: []string{"tour_option"},
	Render: func(f Flags) string {
		var t text
		t.lnIf(f.On("comments"), "// calls op on every node in order")
		t.ln(
			"template <typename Op>",
			"void tour(ptr n, Op op) {",
			"    std::stack<ptr> stk;",
			"    while (n || !stk.empty()) {",
		)
		if f.On(derive.Push) {
			t.ln("        for (; n; n = n->l) push(n), stk.push(n);")
		} else {
			t.ln("        for (; n; n = n->l) stk.push(n);")
		}
		t.ln(
			"        n = stk.top(); stk.pop();",
			"        op(n);",
			"        n = n->r;",
			"    }",
			"}",
		)
		return t.end()
	},
	Defines: static("tour"),
	Uses: func(f Flags) []string {
		return syms().when(f.On(derive.Push), "push")
	},
}

var uniteFragment = Fragment{
	Name: "uniteFn",
	When: []string{"unite_option"},
	Render: func(f Flags) string {
		var t text
		t.lnIf(f.On("comments"), "// union of two treaps with overlapping key ranges, see https://codeforces.com/blog/entry/108601")
		t.ln(
			"ptr unite(ptr l, ptr r) {",
			"    if (!l || !r) return l ? l : r;",
			"    if (mn(l)->key > mn(r)->key) std::swap(l, r);",
			"    ptr res = nullptr;",
			"    while (r) {",
			"        auto [lt, rt] = split(l, mn(r)->key + 1);",
			"        res = merge(res, lt);",
			"        std::tie(l, r) = std::make_pair(r, rt);",
			"    }",
			"    return merge(res, l);",
			"}",
		)
		return t.end()
	},
	Defines: static("unite"),
	Uses:    static("mn", "split", "merge", "Node.key"),
}

var uniteFastFragment = Fragment{
	Name: "uniteFastFn",
	When: []string{"unite_fast_option"},
	Render: func(f Flags) string {
		var t text
		t.lnIf(f.On("comments"), "// union by priority, usually faster than unite in practice")
		t.ln("ptr unite_fast(ptr l, ptr r) {", "    if (!l || !r) return l ? l : r;")
		t.lnIf(f.On(derive.Push), "    push(l), push(r);")
		t.ln(
			"    if (l->pri < r->pri) std::swap(l, r);",
			"    auto [lhs, rhs] = split(r, l->key);",
			"    l->l = unite_fast(l->l, lhs);",
			"    l->r = unite_fast(l->r, rhs);",
		)
		t.lnf("    return %s;", f.pull("l"))
		t.ln("}")
		return t.end()
	},
	Defines: static("unite_fast"),
	Uses: func(f Flags) []string {
		return withPushPull(f, "split", "Node.key", "Node.pri")
	},
}

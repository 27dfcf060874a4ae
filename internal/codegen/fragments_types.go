package codegen

import (
	"strings"

	"github.com/marcus/byot/internal/derive"
)

var introFragment = Fragment{
	Name: "intro",
	When: []string{"signature"},
	Render: func(Flags) string {
		return "// generated by byot, build your own treap\n\n"
	},
}

var commentFragment = Fragment{
	Name: "comment",
	When: []string{"comments"},
	Render: func(Flags) string {
		return "// Treap code generated with comments\n\n"
	},
}

var forwardDeclsFragment = Fragment{
	Name: "forwardDecls",
	When: []string{derive.HasNode},
	Render: func(f Flags) string {
		decls := []string{"struct Node;"}
		if f.augmented() {
			decls = append(decls, "struct ptr;")
		} else {
			decls = append(decls, "using ptr = struct Node *;")
		}
		if f.On("succ") {
			decls = append(decls, "ptr succ(ptr n);")
		}
		if f.On("pred") {
			decls = append(decls, "ptr pred(ptr n);")
		}
		if f.On("merge_option") {
			decls = append(decls, "ptr merge(ptr l, ptr r);")
		}
		if f.augmented() {
			decls = append(decls, "ptr mn(ptr n);")
		}
		return strings.Join(decls, " ") + "\n\n"
	},
	Defines: func(f Flags) []string {
		return syms().when(!f.augmented(), "ptr")
	},
	Declares: func(f Flags) []string {
		return syms("Node").
			when(f.augmented(), "ptr", "mn").
			when(f.On("succ"), "succ").
			when(f.On("pred"), "pred").
			when(f.On("merge_option"), "merge")
	},
}

var ptrTypeFragment = Fragment{
	Name: "ptrType",
	When: []string{"augmented_ptr"},
	Render: func(f Flags) string {
		var t text
		iter := f.Any("succ", "pred")
		t.ln("struct ptr {")
		t.lnIf(iter,
			"    using iterator_category = std::bidirectional_iterator_tag;",
			"    using value_type        = Node;",
			"    using difference_type   = std::ptrdiff_t;",
			"    using pointer           = Node*;",
			"    using reference         = Node&;",
			"#if __cpp_lib_concepts",
			"    using iterator_concept  = std::bidirectional_iterator_tag;",
			"#endif",
			"",
		)
		t.ln(
			"    Node *p;",
			"    ptr(Node *p = nullptr) : p(p) {}",
			"",
			"    template <class... Args>",
			"    static ptr make(Args&&... args);",
			"",
			"    Node &operator*() const { return *p; }",
			"    Node *operator->() const { return p; }",
			"    explicit operator bool() const noexcept { return p; }",
			"    bool operator==(const ptr &o) const noexcept { return p == o.p; }",
			"    bool operator!=(const ptr &o) const noexcept { return p != o.p; }",
		)
		t.lnIf(iter, "")
		t.lnIf(f.On("succ"),
			"    ptr &operator++() { return *this = succ(*this); }",
			"    ptr operator++(int) { return std::exchange(*this, succ(*this)); }",
		)
		t.lnIf(f.On("pred"),
			"    ptr &operator--() { return *this = pred(*this); }",
			"    ptr operator--(int) { return std::exchange(*this, pred(*this)); }",
		)
		if f.On("plus_merge_option") {
			safe := func(s string) string {
				if f.On("safe_merge_plus") {
					return s
				}
				return ""
			}
			t.ln("")
			t.lnf("    friend ptr operator+(ptr &lhs, ptr &rhs) { ptr res = merge(lhs, rhs); %sreturn res; }", safe("lhs.p = rhs.p = nullptr; "))
			t.lnf("    friend ptr operator+(ptr &lhs, ptr &&rhs) { ptr res = merge(lhs, rhs); %sreturn res; }", safe("lhs.p = nullptr; "))
			t.lnf("    friend ptr operator+(ptr &&lhs, ptr &rhs) { ptr res = merge(lhs, rhs); %sreturn res; }", safe("rhs.p = nullptr; "))
			t.ln("    friend ptr operator+(ptr &&lhs, ptr &&rhs) { return merge(lhs, rhs); }")
			t.lnf("    friend ptr &operator+=(ptr &lhs, ptr &rhs) { lhs = merge(lhs, rhs); %sreturn lhs; }", safe("rhs.p = nullptr; "))
			t.ln("    friend ptr &operator+=(ptr &lhs, ptr &&rhs) { return lhs = merge(lhs, rhs); }")
		}
		t.ln(
			"",
			"    inline ptr begin() { return mn(*this); }",
			"    inline ptr end() { return ptr{nullptr}; }",
			"};",
			"",
			"inline ptr begin(ptr n) { return n.begin(); }",
			"inline ptr end(ptr n) { return n.end(); }",
		)
		return t.end()
	},
	Defines: static("ptr", "ptr.p", "begin", "end"),
	Uses: func(f Flags) []string {
		return syms("Node", "mn").
			when(f.On("succ"), "succ").
			when(f.On("pred"), "pred").
			when(f.On("plus_merge_option"), "merge")
	},
}

var lazyStructFragment = Fragment{
	Name: "lazyStruct",
	When: []string{"lazy_prop"},
	Render: func(f Flags) string {
		var t text
		rev := f.On(derive.HasRev)
		val := f.Any("range_add", "range_set")
		kval := f.Any("key_add", "key_set")
		chmin, chmax, add := f.beats("beats_chmin"), f.beats("beats_chmax"), f.beats("beats_add")

		t.ln("struct Lazy {")
		t.lnIf(rev, "    bool rev;")
		t.lnIf(val, "    long long val;")
		t.lnIf(f.On("range_set"), "    bool inc;")
		t.lnIf(kval, "    "+f.KeyType()+" kval;")
		t.lnIf(f.On("key_set"), "    bool kinc;")
		t.lnIf(chmin, "    long long mn;")
		t.lnIf(chmax, "    long long mx;")
		t.lnIf(add, "    long long add;")
		t.ln("")
		t.ln("    void operator+=(const Lazy oth) {")
		t.lnIf(rev, "        rev ^= oth.rev;")
		if val {
			t.lnIf(f.On("range_set"), "        if (!oth.inc) val = 0, inc = false;")
			t.ln("        val += oth.val;")
		}
		if kval {
			t.lnIf(f.On("key_set"), "        if (!oth.kinc) kval = 0, kinc = false;")
			t.ln("        kval += oth.kval;")
		}
		off := ""
		if add {
			off = " - add"
		}
		switch {
		case chmin && chmax:
			t.lnf("        if (oth.mn%s <= mx) mn = mx = oth.mn%s;", off, off)
			t.lnf("        else if (oth.mx%s >= mn) mn = mx = oth.mx%s;", off, off)
			t.ln("        else {")
			t.lnf("            mn = std::min(mn, oth.mn%s);", off)
			t.lnf("            mx = std::max(mx, oth.mx%s);", off)
			t.ln("        }")
		case chmin:
			t.lnf("        mn = std::min(mn, oth.mn%s);", off)
		case chmax:
			t.lnf("        mx = std::max(mx, oth.mx%s);", off)
		}
		t.lnIf(add, "        add += oth.add;")
		t.ln("    }", "};")
		return t.end()
	},
	Defines: func(f Flags) []string {
		return syms("Lazy").when(f.On(derive.HasRev), "Lazy.rev")
	},
}

var lidConstFragment = Fragment{
	Name: "lidConst",
	When: []string{"lazy_prop"},
	Render: func(f Flags) string {
		var ids []string
		if f.On(derive.HasRev) {
			ids = append(ids, "false")
		}
		if f.Any("range_add", "range_set") {
			ids = append(ids, "0")
		}
		if f.On("range_set") {
			ids = append(ids, "true")
		}
		if f.Any("key_add", "key_set") {
			ids = append(ids, "0")
		}
		if f.On("key_set") {
			ids = append(ids, "true")
		}
		if f.beats("beats_chmin") {
			ids = append(ids, f.Inf())
		}
		if f.beats("beats_chmax") {
			ids = append(ids, "-"+f.Inf())
		}
		if f.beats("beats_add") {
			ids = append(ids, "0")
		}
		return "const Lazy lid = {" + strings.Join(ids, ", ") + "};\n\n"
	},
	Defines: static("lid"),
	Uses:    static("Lazy"),
}

var beatsTagHelpersFragment = Fragment{
	Name: "beatsTagHelpers",
	When: []string{"treap_beats"},
	Render: func(f Flags) string {
		var t text
		t.lnIf(f.On("beats_chmin"), "Lazy chmin_tag(long long x) { Lazy lazy = lid; lazy.mn = x; return lazy; }")
		t.lnIf(f.On("beats_chmax"), "Lazy chmax_tag(long long x) { Lazy lazy = lid; lazy.mx = x; return lazy; }")
		t.lnIf(f.On("beats_add"), "Lazy add_tag(long long x) { Lazy lazy = lid; lazy.add = x; return lazy; }")
		if t.Len() == 0 {
			return ""
		}
		return t.end()
	},
	Defines: func(f Flags) []string {
		return syms().
			when(f.On("beats_chmin"), "chmin_tag").
			when(f.On("beats_chmax"), "chmax_tag").
			when(f.On("beats_add"), "add_tag")
	},
	Uses: static("Lazy", "lid"),
}

var valueStructFragment = Fragment{
	Name: "valueStruct",
	When: []string{derive.HasValue},
	Render: func(f Flags) string {
		var t text
		beats := f.On("treap_beats")
		sum := f.On("range_sum") || beats
		mx := f.On("range_max") && !beats
		mn := f.On("range_min") && !beats
		chmin, chmax, add := f.beats("beats_chmin"), f.beats("beats_chmax"), f.beats("beats_add")

		t.lnIf(f.On("comments"), "// You can implement your own monoid here for custom operations.")
		t.ln("struct Value {")
		t.lnIf(sum, "    long long sum;")
		t.lnIf(mx, "    "+f.ValType()+" mx;")
		t.lnIf(mn, "    "+f.ValType()+" mn;")
		t.lnIf(f.On("key_sum"), "    "+f.KeyType()+" ksum;")
		t.lnIf(chmin, "    long long mx, mxcnt, mx2;")
		t.lnIf(chmax, "    long long mn, mncnt, mn2;")

		if f.On("lazy_prop") {
			t.ln("")
			if f.On("size_option") {
				t.ln("    void upd(Lazy lazy, int sz);")
			} else {
				t.ln("    void upd(Lazy lazy);")
			}
		}

		if beats {
			args := []string{"x * len"}
			if f.On("key_sum") {
				args = append(args, "0")
			}
			if chmin {
				args = append(args, "x", "len", "-"+f.Inf())
			}
			if chmax {
				args = append(args, "x", "len", f.Inf())
			}
			t.ln("")
			t.ln("    static Value make(long long x, long long len = 1) {")
			t.lnf("        return {%s};", strings.Join(args, ", "))
			t.ln("    }")

			var brk, tag []string
			if chmin {
				brk = append(brk, "lazy.mn >= mx")
				tag = append(tag, "mx2 < lazy.mn")
			}
			if chmax {
				brk = append(brk, "lazy.mx <= mn")
				tag = append(tag, "mn2 > lazy.mx")
			}
			if add {
				brk = append(brk, "lazy.add == 0")
			}
			t.ln("")
			t.ln("    bool can_break(const Lazy& lazy) {")
			t.lnf("        return %s;", conj(brk))
			t.ln("    }")
			t.ln("")
			t.ln("    bool can_tag(const Lazy& lazy) {")
			t.lnf("        return %s;", conj(tag))
			t.ln("    }")
		}

		if f.On("range_agg") {
			t.ln("")
			t.ln("    Value operator+(const Value& oth) const {")
			t.ln("        Value res {};")
			t.lnIf(sum, "        res.sum = sum + oth.sum;")
			t.lnIf(mx, "        res.mx = std::max(mx, oth.mx);")
			t.lnIf(mn, "        res.mn = std::min(mn, oth.mn);")
			t.lnIf(f.On("key_sum"), "        res.ksum = ksum + oth.ksum;")
			t.lnIf(chmin,
				"        if (mx == oth.mx) res.mx = mx, res.mxcnt = mxcnt + oth.mxcnt, res.mx2 = std::max(mx2, oth.mx2);",
				"        else if (mx > oth.mx) res.mx = mx, res.mxcnt = mxcnt, res.mx2 = std::max(mx2, oth.mx);",
				"        else res.mx = oth.mx, res.mxcnt = oth.mxcnt, res.mx2 = std::max(mx, oth.mx2);",
			)
			t.lnIf(chmax,
				"        if (mn == oth.mn) res.mn = mn, res.mncnt = mncnt + oth.mncnt, res.mn2 = std::min(mn2, oth.mn2);",
				"        else if (mn < oth.mn) res.mn = mn, res.mncnt = mncnt, res.mn2 = std::min(mn2, oth.mn);",
				"        else res.mn = oth.mn, res.mncnt = oth.mncnt, res.mn2 = std::min(mn, oth.mn2);",
			)
			t.ln("        return res;", "    }")
		}
		t.ln("};")
		return t.end()
	},
	Defines: func(f Flags) []string {
		return syms("Value").
			when(f.On("range_agg"), "Value::operator+").
			when(f.On("treap_beats"), "Value::can_break", "Value::make")
	},
	Declares: func(f Flags) []string {
		return syms().when(f.On("lazy_prop"), "Value::upd")
	},
	Uses: func(f Flags) []string {
		return syms().when(f.On("lazy_prop"), "Lazy")
	},
}

// conj joins conditions with &&. An empty list holds trivially.
func conj(conds []string) string {
	if len(conds) == 0 {
		return "true"
	}
	return strings.Join(conds, " && ")
}

var vidConstFragment = Fragment{
	Name: "vidConst",
	When: []string{derive.HasValue},
	Render: func(f Flags) string {
		beats := f.On("treap_beats")
		inf := f.Inf()
		var ids []string
		if f.On("range_sum") || beats {
			ids = append(ids, "0")
		}
		if f.On("range_max") && !beats {
			ids = append(ids, "-"+inf)
		}
		if f.On("range_min") && !beats {
			ids = append(ids, inf)
		}
		if f.On("key_sum") {
			ids = append(ids, "0")
		}
		if f.beats("beats_chmin") {
			ids = append(ids, "-"+inf, "0", "-"+inf)
		}
		if f.beats("beats_chmax") {
			ids = append(ids, inf, "0", inf)
		}
		return "const Value vid = {" + strings.Join(ids, ", ") + "};\n\n"
	},
	Defines: static("vid"),
	Uses:    static("Value"),
}

var nodeStructFragment = Fragment{
	Name: "nodeStruct",
	When: []string{derive.HasNode},
	Render: func(f Flags) string {
		var t text
		hasKey, hasVal := f.On(derive.HasKey), f.On(derive.HasValue)

		t.ln("std::mt19937 mt(std::chrono::high_resolution_clock::now().time_since_epoch().count());", "")
		t.ln("struct Node {")

		var vals []string
		if hasVal {
			vals = append(vals, "val")
		}
		if f.On("range_agg") {
			vals = append(vals, "agg")
		}
		if len(vals) > 0 {
			t.lnf("    Value %s;", strings.Join(vals, ", "))
		}
		t.lnIf(f.On("lazy_prop"), "    Lazy lazy;")

		ints := []string{}
		if hasKey && f.KeyType() != "int" {
			t.lnf("    %s key;", f.KeyType())
		} else if hasKey {
			ints = append(ints, "key")
		}
		if f.On("size_option") {
			ints = append(ints, "sz")
		}
		ints = append(ints, "pri")
		t.lnf("    int %s;", strings.Join(ints, ", "))

		ptrs := []string{"l", "r"}
		if f.On("par_option") {
			ptrs = append(ptrs, "par")
		}
		t.lnf("    ptr %s;", strings.Join(ptrs, ", "))
		t.ln("")

		var params, inits []string
		if hasKey {
			params = append(params, f.KeyType()+" key = {}")
			inits = append(inits, "key(key)")
		}
		if hasVal {
			params = append(params, "Value val = vid")
			inits = append(inits, "val(val)")
		}
		if f.On("range_agg") {
			inits = append(inits, "agg(val)")
		}
		init := ""
		if len(inits) > 0 {
			init = " : " + strings.Join(inits, ", ")
		}
		t.lnf("    Node(%s)%s {", strings.Join(params, ", "), init)
		t.ln("        pri = mt();")
		t.lnIf(f.On("lazy_prop"), "        lazy = lid;")
		t.lnIf(f.On("size_option"), "        sz = 1;")
		t.ln("        l = r = nullptr;")
		t.lnIf(f.On("par_option"), "        par = nullptr;")
		t.lnIf(f.On("key_sum"), "        val.ksum = agg.ksum = key;")
		t.ln("    }")

		deref := ""
		if f.augmented() {
			deref = ".p"
		}
		t.ln("")
		t.ln("    ~Node() {")
		t.lnf("        delete l%s;", deref)
		t.lnf("        delete r%s;", deref)
		t.ln("    }")
		t.ln("};")
		return t.end()
	},
	Defines: func(f Flags) []string {
		return syms("Node", "Node.l", "Node.r", "Node.pri").
			when(f.On(derive.HasKey), "Node.key").
			when(f.On(derive.HasValue), "Node.val").
			when(f.On("range_agg"), "Node.agg").
			when(f.On("lazy_prop"), "Node.lazy").
			when(f.On("size_option"), "Node.sz").
			when(f.On("par_option"), "Node.par")
	},
	Uses: func(f Flags) []string {
		return syms("ptr").
			when(f.On(derive.HasValue), "Value", "vid").
			when(f.On("lazy_prop"), "Lazy", "lid").
			when(f.augmented(), "ptr.p")
	},
}

var ptrMakeFragment = Fragment{
	Name: "ptrMake",
	When: []string{"augmented_ptr"},
	Render: func(Flags) string {
		var t text
		t.ln(
			"template <class... Args>",
			"ptr ptr::make(Args&&... args) {",
			"    return ptr(new Node(std::forward<Args>(args)...));",
			"}",
		)
		return t.end()
	},
	Defines: static("ptr::make"),
	Uses:    static("ptr", "Node"),
}

var valueUpdFragment = Fragment{
	Name: "valueUpd",
	When: []string{derive.HasValue, "lazy_prop"},
	Render: func(f Flags) string {
		var t text
		sized := f.On("size_option")
		times := ""
		if sized {
			times = " * sz"
			t.ln("void Value::upd(Lazy lazy, int sz) {")
		} else {
			t.ln("void Value::upd(Lazy lazy) {")
		}

		if f.On("treap_beats") {
			chmin, chmax, add := f.On("beats_chmin"), f.On("beats_chmax"), f.On("beats_add")
			if chmin && chmax {
				t.ln(
					"    if (mn == mx) {",
					"        mn = mx = std::min((long long) lazy.mn, (long long) mn);",
					"        mn = mx = std::max((long long) lazy.mx, (long long) mn);",
					"        sum = mn * mncnt;",
					"    } else {",
					"        if (lazy.mn < mx) sum -= (mx - lazy.mn) * mxcnt, mx = lazy.mn;",
					"        if (lazy.mx > mn) sum += (lazy.mx - mn) * mncnt, mn = lazy.mx;",
					"    }",
				)
			} else {
				t.lnIf(chmin, "    if (lazy.mn < mx) sum -= (mx - lazy.mn) * mxcnt, mx = lazy.mn;")
				t.lnIf(chmax, "    if (lazy.mx > mn) sum += (lazy.mx - mn) * mncnt, mn = lazy.mx;")
			}
			if add {
				t.lnf("    sum += lazy.add%s;", times)
				t.lnIf(chmin, "    mx += lazy.add, mx2 += lazy.add;")
				t.lnIf(chmax, "    mn += lazy.add, mn2 += lazy.add;")
			}
		} else if f.Any("range_add", "range_set") {
			if f.On("range_set") {
				t.lnIf(f.On("range_sum"), "    if (!lazy.inc) sum = 0;")
				t.lnIf(f.On("range_max"), "    if (!lazy.inc) mx = 0;")
				t.lnIf(f.On("range_min"), "    if (!lazy.inc) mn = 0;")
			}
			if f.On("range_sum") {
				t.lnf("    sum += lazy.val%s;", times)
			}
			t.lnIf(f.On("range_max"), "    mx += lazy.val;")
			t.lnIf(f.On("range_min"), "    mn += lazy.val;")
		}

		if f.On("key_sum") && f.Any("key_add", "key_set") {
			t.lnIf(f.On("key_set"), "    if (!lazy.kinc) ksum = 0;")
			t.lnf("    ksum += lazy.kval%s;", times)
		}
		t.ln("}")
		return t.end()
	},
	Defines: static("Value::upd"),
	Uses:    static("Value", "Lazy"),
}

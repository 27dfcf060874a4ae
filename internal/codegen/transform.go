package codegen

import "strings"

// StripQualifier removes every std:: qualification.
func StripQualifier(code string) string {
	return strings.ReplaceAll(code, "std::", "")
}

// AliasLongLong spells long long as ll.
func AliasLongLong(code string) string {
	return strings.ReplaceAll(code, "long long", "ll")
}

// WrapNamespace indents code one level inside namespace name and pulls the
// namespace into scope afterwards. Blank lines stay blank.
func WrapNamespace(code, name string) string {
	lines := strings.Split(code, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = "    " + l
		}
	}
	var b strings.Builder
	b.WriteString("namespace " + name + " {\n\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\n}\n\nusing namespace " + name + ";")
	return b.String()
}

// WrapProgram turns code into a complete program: the umbrella include, the
// optional using declarations, and an empty main.
func WrapProgram(code string, usingStd, llAlias bool) string {
	var b strings.Builder
	b.WriteString("#include <bits/stdc++.h>\n\n")
	if usingStd {
		b.WriteString("using namespace std;\n")
	}
	if llAlias {
		b.WriteString("using ll = long long;\n")
	}
	if usingStd || llAlias {
		b.WriteString("\n")
	}
	b.WriteString(code)
	b.WriteString("\n\nint main() {\n")
	if usingStd {
		b.WriteString("    cin.tie(0)->sync_with_stdio(0);\n")
	} else {
		b.WriteString("    std::cin.tie(0)->sync_with_stdio(0);\n")
	}
	b.WriteString("    \n}\n")
	return b.String()
}

var indentUnits = map[string]string{
	"2spaces": "  ",
	"3spaces": "   ",
	"4spaces": "    ",
	"8spaces": "        ",
	"tab":     "\t",
}

// IndentUnit maps a tab_char choice to its indentation string. Unknown
// choices keep four spaces.
func IndentUnit(choice string) string {
	if u, ok := indentUnits[choice]; ok {
		return u
	}
	return "    "
}

// Reindent replaces every run of four spaces with unit. It is a literal
// substitution, so it must run after every transform that adds indentation.
func Reindent(code, unit string) string {
	if unit == "    " {
		return code
	}
	return strings.ReplaceAll(code, "    ", unit)
}

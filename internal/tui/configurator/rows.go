package configurator

import (
	"github.com/marcus/byot/internal/catalog"
)

// Row is one line of the feature panel: a section header or a feature.
type Row struct {
	Section string
	Key     string // empty for section headers
	Depth   int
}

// IsHeader reports whether the row is a section header.
func (r Row) IsHeader() bool {
	return r.Key == ""
}

// BuildRows lays the catalog out section by section. Sub-options follow
// their parent, one level deeper.
func BuildRows(cat *catalog.Catalog) []Row {
	var rows []Row
	for _, section := range cat.Sections() {
		rows = append(rows, Row{Section: section})
		for _, f := range cat.BySection(section) {
			if f.SubOptionOf != "" {
				continue
			}
			rows = appendFeature(cat, rows, f, 0)
		}
	}
	return rows
}

func appendFeature(cat *catalog.Catalog, rows []Row, f catalog.Feature, depth int) []Row {
	rows = append(rows, Row{Section: f.Section, Key: f.Key, Depth: depth})
	for _, sub := range cat.SubOptions(f.Key) {
		rows = appendFeature(cat, rows, sub, depth+1)
	}
	return rows
}

// nextFeature returns the index of the first feature row after from in
// direction dir, or from when there is none.
func nextFeature(rows []Row, from, dir int) int {
	for i := from + dir; i >= 0 && i < len(rows); i += dir {
		if !rows[i].IsHeader() {
			return i
		}
	}
	return from
}

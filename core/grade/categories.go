package grade

// DefaultSubAspectName is the sub-aspect every new category starts with.
const DefaultSubAspectName = "Sub-aspek 1"

// canonical categories, in display order, with the per-category table they used to live in
var defaultCategories = []struct {
	title string
	table string
}{
	{title: "Penguasaan Materi", table: "penguasaan_materi"},
	{title: "Celah Keamanan", table: "celah_keamanan"},
	{title: "Fitur Utama", table: "fitur_utama"},
	{title: "Fitur Pendukung", table: "fitur_pendukung"},
}

// DefaultCategories returns the titles of the canonical categories.
func DefaultCategories() []string {
	titles := make([]string, 0, len(defaultCategories))
	for _, c := range defaultCategories {
		titles = append(titles, c.title)
	}
	return titles
}

// TableFor returns the legacy score table of a canonical category title.
// The lookup is exact: any other title is not found.
func TableFor(categoryTitle string) (string, bool) {
	for _, c := range defaultCategories {
		if c.title == categoryTitle {
			return c.table, true
		}
	}
	return "", false
}

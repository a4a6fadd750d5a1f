package grade

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// minSimilarity is the lowest ratio for a candidate to be suggested
const minSimilarity = .6

// suggest returns a "did you mean" hint for the candidate closest to name, or "" if none is close enough.
func suggest(name string, candidates []string) string {
	var (
		best  string
		ratio float64
	)
	lname := strings.ToLower(name)
	for _, c := range candidates {
		r := difflib.NewMatcher(strings.Split(lname, ""), strings.Split(strings.ToLower(c), "")).Ratio()
		if r > ratio {
			best, ratio = c, r
		}
	}
	if ratio < minSimilarity {
		return ""
	}
	return fmt.Sprintf("did you mean %q?", best)
}

package grade

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"github.com/volatiletech/strmangle"
)

// maxCodeLen is the longest identifier Postgres keeps without truncating (NAMEDATALEN - 1).
const maxCodeLen = 63

var (
	errEmptyCode   = errors.New("label has no letters, digits or underscores")
	errCodeTooLong = errors.Errorf("label is too long (max %d characters once normalized)", maxCodeLen)
)

// Normalize maps a display label to its code: runs of whitespace become "_",
// everything is lower-cased and every character outside [a-z0-9_] is dropped.
//
//	Normalize("Materi Basis Data") == "materi_basis_data"
//	Normalize("Sub-aspek 1") == "subaspek_1"
//
// Distinct labels may share a code ("Co-op", "Coop"); callers check for collisions.
func Normalize(label string) string {
	var b strings.Builder
	b.Grow(len(label))

	inSpace := false
	for _, r := range label {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte('_')
				inSpace = true
			}
			continue
		}
		inSpace = false
		for _, lr := range strings.ToLower(string(r)) {
			if (lr >= 'a' && lr <= 'z') || (lr >= '0' && lr <= '9') || lr == '_' {
				b.WriteRune(lr)
			}
		}
	}
	return b.String()
}

// Quote wraps an identifier in double quotes for use in generated SQL.
func Quote(identifier string) string {
	return strmangle.IdentQuote('"', '"', identifier)
}

// ValidateCode checks that a normalized code can be used as an identifier.
func ValidateCode(code string) error {
	if code == "" {
		return errEmptyCode
	}
	if len(code) > maxCodeLen {
		return errCodeTooLong
	}
	return nil
}

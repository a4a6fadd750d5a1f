package grade

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/penilaian/core"
)

var (
	// errors
	ErrCategoryNotFound   = errors.New("category not found")
	ErrSubAspectNotFound  = errors.New("sub-aspect not found")
	ErrFinalGradeNotFound = errors.New("final score not found, submit your grades first")
	ErrCategoryExists     = errors.New("a category with this name already exists")
	ErrSubAspectExists    = errors.New("a sub-aspect with this name already exists in the category")
	ErrLastSubAspect      = errors.New("a category must keep at least one sub-aspect")

	errInvalidSubmission = errors.New("invalid submission")
)

// Category is a scoring category (a "parameter penilaian"), made of sub-aspects.
type Category struct {
	ID         uuid.UUID   `json:"id"`
	Title      string      `json:"title"`
	Code       string      `json:"code"`
	Position   int         `json:"position"`
	SubAspects []SubAspect `json:"aspects"`
	CreatedAt  time.Time   `json:"created_at"` // UTC
	UpdatedAt  time.Time   `json:"updated_at"` // UTC
}

// SubAspect returns the sub-aspect of c whose code is code.
func (c *Category) SubAspect(code string) (SubAspect, bool) {
	for _, sa := range c.SubAspects {
		if sa.Code == code {
			return sa, true
		}
	}
	return SubAspect{}, false
}

func (c *Category) subAspectNames() []string {
	names := make([]string, 0, len(c.SubAspects))
	for _, sa := range c.SubAspects {
		names = append(names, sa.Name)
	}
	return names
}

type SubAspect struct {
	ID         uuid.UUID `json:"id"`
	CategoryID uuid.UUID `json:"category_id"`
	Name       string    `json:"name"`
	Code       string    `json:"code"`
	Position   int       `json:"position"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Score is the number of errors a user made on one sub-aspect.
type Score struct {
	ID          uuid.UUID
	UserID      string
	SubAspectID uuid.UUID
	Value       int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ScoreRow is a stored score joined with the labels it belongs to.
type ScoreRow struct {
	CategoryTitle string
	SubAspectName string
	Value         int
}

// Scores maps category titles to sub-aspect names to values.
type Scores map[string]map[string]int

func (s Scores) add(category, subAspect string, value int) {
	if s[category] == nil {
		s[category] = make(map[string]int)
	}
	s[category][subAspect] = value
}

// Total sums every value.
func (s Scores) Total() int {
	var total int
	for _, values := range s {
		for _, v := range values {
			total += v
		}
	}
	return total
}

func (s Scores) categories() []string {
	titles := make([]string, 0, len(s))
	for title := range s {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	return titles
}

// FinalGrade is the derived final record of a user.
type FinalGrade struct {
	ID         uuid.UUID `json:"scoreId"`
	UserID     string    `json:"-"`
	FinalScore int       `json:"finalScore"`
	Predicate  string    `json:"predicate"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// LegacyRow is one row of a per-category score table.
type LegacyRow struct {
	UserID        string
	CategoryTitle string
	Values        map[string]int
}

// NewSubmission is the payload of a grade submission.
type NewSubmission struct {
	Parameter string                            `json:"parameter" validate:"required"`
	Data      map[string]map[string]interface{} `json:"data" validate:"required,min=1"`
}

// Submission is a validated NewSubmission, labels trimmed and values parsed.
type Submission struct {
	Parameter string
	Scores    Scores
}

// Validate cleans and checks the payload. Every problem is reported at once, keyed by
// "data.<category>.<sub-aspect>"; nothing is returned unless the whole payload is valid.
func (ns *NewSubmission) Validate(validate *validator.Validate) (Submission, error) {
	ns.Parameter = core.CleanString(ns.Parameter)
	if err := validate.Struct(ns); err != nil {
		return Submission{}, err
	}

	var flds []core.FieldError
	fail := func(field, msg string) {
		flds = append(flds, core.FieldError{Field: field, Error: msg})
	}

	sub := Submission{Parameter: ns.Parameter, Scores: make(Scores, len(ns.Data))}
	catCodes := make(map[string]string, len(ns.Data))

	for _, rawCat := range sortedKeys(ns.Data) {
		values := ns.Data[rawCat]
		cat := core.CleanString(rawCat)
		catField := "data." + cat

		catCode := Normalize(cat)
		if err := ValidateCode(catCode); err != nil {
			fail(catField, err.Error())
			continue
		}
		if other, ok := catCodes[catCode]; ok {
			fail(catField, fmt.Sprintf("duplicates category %q", other))
			continue
		}
		catCodes[catCode] = cat

		if len(values) == 0 {
			fail(catField, "at least one sub-aspect is required")
			continue
		}

		subCodes := make(map[string]string, len(values))
		for _, rawSub := range sortedKeys(values) {
			name := core.CleanString(rawSub)
			field := catField + "." + name

			code := Normalize(name)
			if err := ValidateCode(code); err != nil {
				fail(field, err.Error())
				continue
			}
			if other, ok := subCodes[code]; ok {
				fail(field, fmt.Sprintf("duplicates sub-aspect %q", other))
				continue
			}
			subCodes[code] = name

			v, err := parseValue(values[rawSub])
			if err != nil {
				fail(field, err.Error())
				continue
			}
			sub.Scores.add(cat, name, v)
		}
	}

	if len(flds) > 0 {
		return Submission{}, core.NewValidationError(errInvalidSubmission, flds...)
	}
	return sub, nil
}

var errInvalidValue = errors.Errorf("must be a non-negative integer (max %d)", math.MaxInt32)

// parseValue accepts JSON integers and numeric strings.
func parseValue(raw interface{}) (int, error) {
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case int:
		f = float64(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, errInvalidValue
		}
		f = float64(n)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, errInvalidValue
		}
		f = float64(n)
	default:
		return 0, errInvalidValue
	}

	if f != math.Trunc(f) || f < 0 || f > math.MaxInt32 {
		return 0, errInvalidValue
	}
	return int(f), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// NewCategory contains information needed to add a category.
type NewCategory struct {
	ParameterName string `json:"parameterName" validate:"required,aspectlabel"`
}

func (nc *NewCategory) Validate(validate *validator.Validate) error {
	nc.ParameterName = core.CleanString(nc.ParameterName)
	return validate.Struct(nc)
}

// NewSubAspect contains information needed to add a sub-aspect to a category.
type NewSubAspect struct {
	CategoryTitle string `json:"categoryTitle" validate:"required"`
	AspectName    string `json:"aspectName" validate:"required,aspectlabel"`
}

func (ns *NewSubAspect) Validate(validate *validator.Validate) error {
	ns.CategoryTitle = core.CleanString(ns.CategoryTitle)
	ns.AspectName = core.CleanString(ns.AspectName)
	return validate.Struct(ns)
}

type RenameSubAspect struct {
	CategoryTitle string `json:"categoryTitle" validate:"required"`
	OldAspectName string `json:"oldAspectName" validate:"required"`
	NewAspectName string `json:"newAspectName" validate:"required,aspectlabel"`
}

func (rs *RenameSubAspect) Validate(validate *validator.Validate) error {
	rs.CategoryTitle = core.CleanString(rs.CategoryTitle)
	rs.OldAspectName = core.CleanString(rs.OldAspectName)
	rs.NewAspectName = core.CleanString(rs.NewAspectName)
	return validate.Struct(rs)
}

type DeleteSubAspect struct {
	CategoryTitle string `json:"categoryTitle" validate:"required"`
	AspectName    string `json:"aspectName" validate:"required"`
}

func (ds *DeleteSubAspect) Validate(validate *validator.Validate) error {
	ds.CategoryTitle = core.CleanString(ds.CategoryTitle)
	ds.AspectName = core.CleanString(ds.AspectName)
	return validate.Struct(ds)
}

type DeleteCategory struct {
	CategoryTitle string `json:"categoryTitle" validate:"required"`
}

func (dc *DeleteCategory) Validate(validate *validator.Validate) error {
	dc.CategoryTitle = core.CleanString(dc.CategoryTitle)
	return validate.Struct(dc)
}

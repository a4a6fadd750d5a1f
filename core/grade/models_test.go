package grade

import (
	"math"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/penilaian/core"
)

func newValidate() *validator.Validate {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	return validate
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)
	flds := make(map[string]string, len(vErr.Fields))
	for _, f := range vErr.Fields {
		flds[f.Field] = f.Error
	}
	return flds
}

func TestNewSubmission_Validate(t *testing.T) {
	validate := newValidate()

	t.Run("valid", func(t *testing.T) {
		ns := NewSubmission{
			Parameter: "  Tugas 1 ",
			Data: map[string]map[string]interface{}{
				" Penguasaan Materi": {"Sub-aspek 1": float64(3), "Basis Data ": "2"},
				"Celah Keamanan":     {"Sub-aspek 1": " 1 "},
			},
		}
		sub, err := ns.Validate(validate)
		require.NoError(t, err)
		assert.Equal(t, "Tugas 1", sub.Parameter)
		assert.Equal(t, Scores{
			"Penguasaan Materi": {"Sub-aspek 1": 3, "Basis Data": 2},
			"Celah Keamanan":    {"Sub-aspek 1": 1},
		}, sub.Scores)
		assert.Equal(t, 6, sub.Scores.Total())
	})

	t.Run("missing parameter", func(t *testing.T) {
		ns := NewSubmission{Data: map[string]map[string]interface{}{"A": {"b": float64(1)}}}
		_, err := ns.Validate(validate)
		var vErrs validator.ValidationErrors
		require.ErrorAs(t, err, &vErrs)
		assert.Equal(t, "parameter", vErrs[0].Field())
	})

	t.Run("empty data", func(t *testing.T) {
		ns := NewSubmission{Parameter: "p", Data: map[string]map[string]interface{}{}}
		_, err := ns.Validate(validate)
		var vErrs validator.ValidationErrors
		require.ErrorAs(t, err, &vErrs)
		assert.Equal(t, "data", vErrs[0].Field())
	})

	t.Run("invalid values are all reported", func(t *testing.T) {
		ns := NewSubmission{
			Parameter: "p",
			Data: map[string]map[string]interface{}{
				"Fitur Utama": {
					"negative": float64(-1),
					"fraction": 1.5,
					"text":     "abc",
					"bool":     true,
					"null":     nil,
					"huge":     float64(math.MaxInt32) + 1,
					"ok":       float64(math.MaxInt32),
				},
			},
		}
		_, err := ns.Validate(validate)
		flds := fieldsOf(t, err)
		assert.Len(t, flds, 6)
		for _, name := range []string{"negative", "fraction", "text", "bool", "null", "huge"} {
			assert.Equal(t, errInvalidValue.Error(), flds["data.Fitur Utama."+name], name)
		}
	})

	t.Run("labels without a code", func(t *testing.T) {
		ns := NewSubmission{
			Parameter: "p",
			Data: map[string]map[string]interface{}{
				"!!!":         {"a": float64(1)},
				"Fitur Utama": {"???": float64(1)},
				"Empty":       {},
			},
		}
		_, err := ns.Validate(validate)
		flds := fieldsOf(t, err)
		assert.Equal(t, errEmptyCode.Error(), flds["data.!!!"])
		assert.Equal(t, errEmptyCode.Error(), flds["data.Fitur Utama.???"])
		assert.Equal(t, "at least one sub-aspect is required", flds["data.Empty"])
	})

	t.Run("colliding labels", func(t *testing.T) {
		ns := NewSubmission{
			Parameter: "p",
			Data: map[string]map[string]interface{}{
				"Fitur Utama": {"Co-op": float64(1), "coop": float64(2)},
				"fitur utama": {"x": float64(1)},
			},
		}
		_, err := ns.Validate(validate)
		flds := fieldsOf(t, err)
		assert.Equal(t, `duplicates sub-aspect "Co-op"`, flds["data.Fitur Utama.coop"])
		assert.Equal(t, `duplicates category "Fitur Utama"`, flds["data.fitur utama"])
	})
}

func TestNewSubAspect_Validate(t *testing.T) {
	validate := newValidate()

	tests := []struct {
		name    string
		ns      NewSubAspect
		wantErr bool
	}{
		{name: "valid", ns: NewSubAspect{CategoryTitle: "Fitur Utama", AspectName: " Login "}},
		{name: "no category", ns: NewSubAspect{AspectName: "Login"}, wantErr: true},
		{name: "blank name", ns: NewSubAspect{CategoryTitle: "Fitur Utama", AspectName: "   "}, wantErr: true},
		{name: "name without code", ns: NewSubAspect{CategoryTitle: "Fitur Utama", AspectName: "#$%"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.ns.Validate(validate); (err != nil) != tt.wantErr {
				t.Errorf("NewSubAspect.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSuggest(t *testing.T) {
	candidates := []string{"Penguasaan Materi", "Celah Keamanan", "Fitur Utama"}
	assert.Equal(t, `did you mean "Fitur Utama"?`, suggest("Fitur Utma", candidates))
	assert.Equal(t, `did you mean "Celah Keamanan"?`, suggest("celah keamanan", candidates))
	assert.Equal(t, "", suggest("xyz", candidates))
	assert.Equal(t, "", suggest("anything", nil))
}

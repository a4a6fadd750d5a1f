package echoapi

import (
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/penilaian/core/grade"
)

type (
	SubmitResponse struct {
		Message    string `json:"message"`
		FinalScore int    `json:"finalScore"`
		Predicate  string `json:"predicate"`
	}

	ScoresResponse struct {
		Message string       `json:"message"`
		Data    grade.Scores `json:"data"`
	}

	Column struct {
		Title   string   `json:"title"`
		Aspects []string `json:"aspects"`
	}

	StructureResponse struct {
		Message string   `json:"message"`
		Columns []Column `json:"columns"`
	}

	FinalGradeResponse struct {
		Message string           `json:"message"`
		Data    grade.FinalGrade `json:"data"`
	}

	// NoFinalGrade is the data of a missing final grade: both fields are null.
	NoFinalGrade struct {
		FinalScore null.Int    `json:"finalScore"`
		Predicate  null.String `json:"predicate"`
	}

	FinalGradeNotFoundResponse struct {
		Error string       `json:"error"`
		Data  NoFinalGrade `json:"data"`
	}

	CategoryResponse struct {
		Message       string   `json:"message"`
		ParameterName string   `json:"parameterName"`
		Aspects       []string `json:"aspects"`
	}

	SubAspectResponse struct {
		Message       string `json:"message"`
		CategoryTitle string `json:"categoryTitle"`
		AspectName    string `json:"aspectName"`
		ColumnName    string `json:"columnName,omitempty"`
	}

	RenameSubAspectResponse struct {
		Message       string `json:"message"`
		CategoryTitle string `json:"categoryTitle"`
		OldAspectName string `json:"oldAspectName"`
		NewAspectName string `json:"newAspectName"`
		ColumnName    string `json:"columnName"`
	}

	DeleteCategoryResponse struct {
		Message       string `json:"message"`
		CategoryTitle string `json:"categoryTitle"`
	}
)

func newColumn(cat grade.Category) Column {
	aspects := make([]string, 0, len(cat.SubAspects))
	for _, sa := range cat.SubAspects {
		aspects = append(aspects, sa.Name)
	}
	return Column{Title: cat.Title, Aspects: aspects}
}

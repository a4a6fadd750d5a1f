package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/penilaian/core/grade"
)

type gradeApi struct {
	svc      grade.Service
	validate *validator.Validate
}

func registerGradeAPI(g *echo.Group, svc grade.Service, validate *validator.Validate) {
	api := gradeApi{
		svc:      svc,
		validate: validate,
	}

	g.POST("/grade-submit", api.submit)
	g.GET("/grades", api.scores)
	g.GET("/grades/structure", api.structure)
	g.GET("/final-grades", api.finalGrade)
	g.POST("/final-grades/recompute", api.recompute)
}

// Handlers

func (api *gradeApi) submit(ctx echo.Context) error {
	userID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}

	var data grade.NewSubmission
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	sub, err := data.Validate(api.validate)
	if err != nil {
		return err
	}

	fg, err := api.svc.Submit(ctx.Request().Context(), userID, sub)
	if err != nil {
		return errors.Wrap(err, "submitting grades")
	}

	return ctx.JSON(http.StatusOK, SubmitResponse{
		Message:    "Assessment data saved successfully",
		FinalScore: fg.FinalScore,
		Predicate:  fg.Predicate,
	})
}

func (api *gradeApi) scores(ctx echo.Context) error {
	userID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}

	scores, err := api.svc.Scores(ctx.Request().Context(), userID)
	if err != nil {
		return errors.Wrap(err, "querying scores")
	}
	return ctx.JSON(http.StatusOK, ScoresResponse{
		Message: "Assessment data fetched successfully",
		Data:    scores,
	})
}

func (api *gradeApi) structure(ctx echo.Context) error {
	cats, err := api.svc.Structure(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying structure")
	}

	columns := make([]Column, 0, len(cats))
	for _, cat := range cats {
		columns = append(columns, newColumn(cat))
	}
	return ctx.JSON(http.StatusOK, StructureResponse{
		Message: "Assessment structure fetched successfully",
		Columns: columns,
	})
}

func (api *gradeApi) finalGrade(ctx echo.Context) error {
	userID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}

	fg, err := api.svc.FinalGrade(ctx.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, grade.ErrFinalGradeNotFound) {
			return finalGradeNotFound(ctx)
		}
		return errors.Wrap(err, "getting final grade")
	}
	return ctx.JSON(http.StatusOK, FinalGradeResponse{
		Message: "Final score fetched successfully",
		Data:    fg,
	})
}

// recompute derives the final grade of the user again from their stored scores.
// Users who never submitted have nothing to recompute.
func (api *gradeApi) recompute(ctx echo.Context) error {
	userID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}

	if _, err = api.svc.FinalGrade(ctx.Request().Context(), userID); err != nil {
		if errors.Is(err, grade.ErrFinalGradeNotFound) {
			return finalGradeNotFound(ctx)
		}
		return errors.Wrap(err, "getting final grade")
	}

	fg, err := api.svc.Recompute(ctx.Request().Context(), userID)
	if err != nil {
		return errors.Wrap(err, "recomputing final grade")
	}
	return ctx.JSON(http.StatusOK, FinalGradeResponse{
		Message: "Final score recomputed successfully",
		Data:    fg,
	})
}

func finalGradeNotFound(ctx echo.Context) error {
	return ctx.JSON(http.StatusNotFound, FinalGradeNotFoundResponse{
		Error: grade.ErrFinalGradeNotFound.Error(),
	})
}

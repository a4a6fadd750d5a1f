package echoapi

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/penilaian/core/grade"
)

type schemaApi struct {
	svc      grade.Service
	validate *validator.Validate
}

// registerSchemaAPI registers the endpoints changing the categories and their sub-aspects.
// Sub-aspects are called "columns" by the front end.
func registerSchemaAPI(g *echo.Group, svc grade.Service, validate *validator.Validate) {
	api := schemaApi{
		svc:      svc,
		validate: validate,
	}

	sg := g.Group("/schema")
	sg.POST("/add-parameter", api.addCategory)
	sg.DELETE("/delete-aspect", api.deleteCategory)
	sg.POST("/add-column", api.addSubAspect)
	sg.PUT("/rename-column", api.renameSubAspect)
	sg.DELETE("/delete-column", api.deleteSubAspect)
}

// Handlers

func (api *schemaApi) addCategory(ctx echo.Context) error {
	var data grade.NewCategory
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCategory")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cat, err := api.svc.AddCategory(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "adding category")
	}
	return ctx.JSON(http.StatusOK, CategoryResponse{
		Message:       "Parameter added successfully",
		ParameterName: cat.Title,
		Aspects:       newColumn(cat).Aspects,
	})
}

func (api *schemaApi) deleteCategory(ctx echo.Context) error {
	var data grade.DeleteCategory
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DeleteCategory")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.DeleteCategory(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "deleting category")
	}
	return ctx.JSON(http.StatusOK, DeleteCategoryResponse{
		Message:       fmt.Sprintf("Main aspect %q deleted successfully", data.CategoryTitle),
		CategoryTitle: data.CategoryTitle,
	})
}

func (api *schemaApi) addSubAspect(ctx echo.Context) error {
	var data grade.NewSubAspect
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubAspect")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sa, err := api.svc.AddSubAspect(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "adding sub-aspect")
	}
	return ctx.JSON(http.StatusOK, SubAspectResponse{
		Message:       "Column added successfully",
		CategoryTitle: data.CategoryTitle,
		AspectName:    sa.Name,
		ColumnName:    sa.Code,
	})
}

func (api *schemaApi) renameSubAspect(ctx echo.Context) error {
	var data grade.RenameSubAspect
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RenameSubAspect")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sa, err := api.svc.RenameSubAspect(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "renaming sub-aspect")
	}
	return ctx.JSON(http.StatusOK, RenameSubAspectResponse{
		Message:       "Column renamed successfully",
		CategoryTitle: data.CategoryTitle,
		OldAspectName: data.OldAspectName,
		NewAspectName: sa.Name,
		ColumnName:    sa.Code,
	})
}

func (api *schemaApi) deleteSubAspect(ctx echo.Context) error {
	var data grade.DeleteSubAspect
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DeleteSubAspect")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.DeleteSubAspect(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "deleting sub-aspect")
	}
	return ctx.JSON(http.StatusOK, SubAspectResponse{
		Message:       "Column deleted successfully",
		CategoryTitle: data.CategoryTitle,
		AspectName:    data.AspectName,
	})
}

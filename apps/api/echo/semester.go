package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/unitrack/core/assignment"
	"github.com/trezcool/unitrack/core/gpa"
	"github.com/trezcool/unitrack/core/semester"
	"github.com/trezcool/unitrack/core/subject"
)

type semesterApi struct {
	svc      *semester.Service
	subSvc   *subject.Service
	asgSvc   *assignment.Service
	gpa      *gpa.Engine
	validate *validator.Validate
}

func registerSemesterAPI(g *echo.Group, deps ServerDeps) {
	api := semesterApi{
		svc:      deps.SemesterSvc,
		subSvc:   deps.SubjectSvc,
		asgSvc:   deps.AssignmentSvc,
		gpa:      deps.GPAEngine,
		validate: deps.Validate,
	}

	sg := g.Group("/semesters")
	sg.POST("", api.create)
	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.update)
	sg.DELETE("/:id", api.destroy)
	sg.GET("/:id/subjects", api.subjects)
	sg.GET("/:id/gpa", api.semesterGPA)
	sg.POST("/:id/gpa", api.recomputeGPA)
	sg.GET("/:id/assignments", api.assignments)
}

// create adds the semester, or renames the user's existing one for the same year and number.
func (api *semesterApi) create(ctx echo.Context) error {
	var data semester.NewSemester
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSemester")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sem, err := api.svc.Add(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "adding semester")
	}
	return ctx.JSON(http.StatusCreated, sem)
}

func (api *semesterApi) retrieve(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	sem, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting semester")
	}
	return ctx.JSON(http.StatusOK, sem)
}

func (api *semesterApi) update(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data semester.UpdateSemester
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSemester")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	sem, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating semester")
	}
	return ctx.JSON(http.StatusOK, sem)
}

// destroy deletes the semester with its subjects, their assignments and lectures.
func (api *semesterApi) destroy(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting semester")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *semesterApi) subjects(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	subjects, err := api.subSvc.QueryBySemester(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	return ctx.JSON(http.StatusOK, subjects)
}

// semesterGPA computes the GPA from the current subjects without touching the cached value.
func (api *semesterApi) semesterGPA(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	val, err := api.gpa.SemesterGPA(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "computing semester GPA")
	}
	return ctx.JSON(http.StatusOK, GPAResponse{GPA: val})
}

// recomputeGPA refreshes the cached semester GPA.
func (api *semesterApi) recomputeGPA(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	val, err := api.gpa.RecomputeSemesterGPA(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "recomputing semester GPA")
	}
	return ctx.JSON(http.StatusOK, GPAResponse{GPA: val})
}

func (api *semesterApi) assignments(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	list, err := api.asgSvc.QueryBySemester(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	return ctx.JSON(http.StatusOK, assignment.Views(list, time.Now()))
}

package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/unitrack/core/assignment"
	"github.com/trezcool/unitrack/core/lecture"
	"github.com/trezcool/unitrack/core/subject"
)

type subjectApi struct {
	svc      *subject.Service
	asgSvc   *assignment.Service
	lecSvc   *lecture.Service
	validate *validator.Validate
}

func registerSubjectAPI(g *echo.Group, deps ServerDeps) {
	api := subjectApi{
		svc:      deps.SubjectSvc,
		asgSvc:   deps.AssignmentSvc,
		lecSvc:   deps.LectureSvc,
		validate: deps.Validate,
	}

	sg := g.Group("/subjects")
	sg.POST("", api.create)
	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.update)
	sg.DELETE("/:id", api.destroy)
	sg.GET("/:id/assignments", api.assignments)
	sg.GET("/:id/stats", api.stats)
	sg.GET("/:id/lectures", api.lectures)
}

func (api *subjectApi) create(ctx echo.Context) error {
	var data subject.NewSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubject")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sub, err := api.svc.Add(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "adding subject")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *subjectApi) retrieve(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	sub, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting subject")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *subjectApi) update(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data subject.UpdateSubject
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSubject")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	sub, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating subject")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *subjectApi) destroy(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting subject")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *subjectApi) assignments(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	list, err := api.asgSvc.QueryBySubject(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	return ctx.JSON(http.StatusOK, assignment.Views(list, time.Now()))
}

func (api *subjectApi) stats(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	stats, err := api.asgSvc.Stats(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "computing assignment stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *subjectApi) lectures(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	lectures, err := api.lecSvc.QueryBySubject(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying lectures")
	}
	return ctx.JSON(http.StatusOK, lectures)
}

package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/unitrack/core/assignment"
)

type assignmentApi struct {
	svc         *assignment.Service
	validate    *validator.Validate
	dueSoonDays int
}

func registerAssignmentAPI(g *echo.Group, deps ServerDeps) {
	api := assignmentApi{
		svc:         deps.AssignmentSvc,
		validate:    deps.Validate,
		dueSoonDays: deps.Conf.Assignments.DueSoonDays,
	}

	ag := g.Group("/assignments")
	ag.POST("", api.create)
	ag.GET("", api.query)
	ag.GET("/due-soon", api.dueSoon)
	ag.GET("/today", api.today)
	ag.GET("/overdue", api.overdue)
	ag.POST("/mark-overdue", api.markOverdue)
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.update)
	ag.DELETE("/:id", api.destroy)
	ag.POST("/:id/complete", api.complete)
	ag.PUT("/:id/marks", api.updateMarks)
	ag.PUT("/:id/total-marks", api.updateTotalMarks)
}

// requireUserID reads the mandatory `user_id` query parameter.
func requireUserID(ctx echo.Context) (int, error) {
	var userID int
	err := echo.QueryParamsBinder(ctx).MustInt("user_id", &userID).BindError()
	if err != nil {
		return 0, errors.Wrap(err, "binding user_id")
	}
	return userID, nil
}

func (api *assignmentApi) view(ctx echo.Context, code int, asg assignment.Assignment) error {
	return ctx.JSON(code, asg.View(time.Now()))
}

func (api *assignmentApi) views(ctx echo.Context, list []assignment.Assignment) error {
	return ctx.JSON(http.StatusOK, assignment.Views(list, time.Now()))
}

func (api *assignmentApi) create(ctx echo.Context) error {
	var data assignment.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	asg, err := api.svc.Add(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "adding assignment")
	}
	return api.view(ctx, http.StatusCreated, asg)
}

// query filters assignments on user_id, semester_id, subject_id, status, pending, from and to.
func (api *assignmentApi) query(ctx echo.Context) error {
	filter, err := bindFilter(ctx)
	if err != nil {
		return err
	}
	list, err := api.svc.Filter(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "filtering assignments")
	}
	return api.views(ctx, list)
}

func (api *assignmentApi) dueSoon(ctx echo.Context) error {
	userID, err := requireUserID(ctx)
	if err != nil {
		return err
	}
	days, err := bindDays(ctx, api.dueSoonDays)
	if err != nil {
		return err
	}
	list, err := api.svc.DueSoon(ctx.Request().Context(), userID, days)
	if err != nil {
		return errors.Wrap(err, "querying assignments due soon")
	}
	return api.views(ctx, list)
}

func (api *assignmentApi) today(ctx echo.Context) error {
	userID, err := requireUserID(ctx)
	if err != nil {
		return err
	}
	list, err := api.svc.Today(ctx.Request().Context(), userID)
	if err != nil {
		return errors.Wrap(err, "querying today's assignments")
	}
	return api.views(ctx, list)
}

func (api *assignmentApi) overdue(ctx echo.Context) error {
	userID, err := requireUserID(ctx)
	if err != nil {
		return err
	}
	list, err := api.svc.Overdue(ctx.Request().Context(), userID)
	if err != nil {
		return errors.Wrap(err, "querying overdue assignments")
	}
	return api.views(ctx, list)
}

// markOverdue runs the overdue sweep right away.
func (api *assignmentApi) markOverdue(ctx echo.Context) error {
	n, err := api.svc.MarkOverdue(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, CountResponse{Count: n})
}

func (api *assignmentApi) retrieve(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	asg, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting assignment")
	}
	return api.view(ctx, http.StatusOK, asg)
}

func (api *assignmentApi) update(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data assignment.UpdateAssignment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAssignment")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	asg, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating assignment")
	}
	return api.view(ctx, http.StatusOK, asg)
}

func (api *assignmentApi) destroy(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// complete marks the assignment completed now. The body may carry the obtained marks.
func (api *assignmentApi) complete(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data MarksRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarksRequest")
	}
	if err = api.svc.Complete(ctx.Request().Context(), id, data.Marks); err != nil {
		return errors.Wrap(err, "completing assignment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *assignmentApi) updateMarks(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data MarksRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarksRequest")
	}
	if err = api.svc.UpdateMarks(ctx.Request().Context(), id, data.Marks); err != nil {
		return errors.Wrap(err, "updating marks")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *assignmentApi) updateTotalMarks(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data TotalMarksRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TotalMarksRequest")
	}
	if err = api.validate.Struct(data); err != nil {
		return err
	}
	if err = api.svc.UpdateTotalMarks(ctx.Request().Context(), id, data.TotalMarks); err != nil {
		return errors.Wrap(err, "updating total marks")
	}
	return ctx.NoContent(http.StatusNoContent)
}

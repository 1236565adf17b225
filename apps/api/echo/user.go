package echoapi

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/unitrack/core/assignment"
	"github.com/trezcool/unitrack/core/dashboard"
	"github.com/trezcool/unitrack/core/gpa"
	"github.com/trezcool/unitrack/core/lecture"
	"github.com/trezcool/unitrack/core/semester"
	"github.com/trezcool/unitrack/core/subject"
	"github.com/trezcool/unitrack/core/user"
	"github.com/trezcool/unitrack/services/export"
)

const (
	mimeICalendar = "text/calendar; charset=utf-8"
	mimeXLSX      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type userApi struct {
	svc       *user.Service
	semSvc    *semester.Service
	subSvc    *subject.Service
	asgSvc    *assignment.Service
	lecSvc    *lecture.Service
	gpa       *gpa.Engine
	dashSvc   *dashboard.Service
	exportSvc *export.Service
	validate  *validator.Validate
}

func registerUserAPI(g *echo.Group, deps ServerDeps) {
	api := userApi{
		svc:       deps.UserSvc,
		semSvc:    deps.SemesterSvc,
		subSvc:    deps.SubjectSvc,
		asgSvc:    deps.AssignmentSvc,
		lecSvc:    deps.LectureSvc,
		gpa:       deps.GPAEngine,
		dashSvc:   deps.DashboardSvc,
		exportSvc: deps.ExportSvc,
		validate:  deps.Validate,
	}

	ug := g.Group("/users")
	ug.POST("", api.create)
	ug.GET("", api.query)
	ug.GET("/student/:studentID", api.retrieveByStudentID)

	// detail endpoints
	dg := ug.Group("/:id", ctxUserMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.GET("/gpa", api.overallGPA)
	dg.GET("/transcript", api.transcript)
	dg.GET("/semesters", api.semesters)
	dg.GET("/subjects", api.subjects)
	dg.GET("/assignments", api.assignments)
	dg.GET("/assignments/stats", api.assignmentStats)
	dg.GET("/lectures", api.lectures)
	dg.GET("/lectures/today", api.todayLectures)
	dg.GET("/lectures/notifications", api.notifyingLectures)
	dg.GET("/reminders", api.reminders)
	dg.GET("/dashboard", api.dashboard)
	dg.GET("/dashboard/stream", api.dashboardStream)
	dg.GET("/calendar.ics", api.calendar)
	dg.GET("/transcript.xlsx", api.transcriptXLSX)
}

// Handlers

func (api *userApi) create(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) query(ctx echo.Context) error {
	users, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) retrieveByStudentID(ctx echo.Context) error {
	usr, err := api.svc.GetByStudentID(ctx.Request().Context(), ctx.Param("studentID"))
	if err != nil {
		return errors.Wrap(err, "getting user by student id")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) retrieve(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) update(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data user.UpdateUser
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	if usr, err = api.svc.Update(ctx.Request().Context(), usr.ID, data); err != nil {
		return errors.Wrap(err, "updating user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

// destroy deletes the user along with everything they own.
func (api *userApi) destroy(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), usr.ID); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *userApi) overallGPA(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	val, err := api.gpa.OverallGPA(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "computing overall GPA")
	}
	return ctx.JSON(http.StatusOK, GPAResponse{GPA: val})
}

func (api *userApi) transcript(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	tr, err := api.gpa.Transcript(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "building transcript")
	}
	return ctx.JSON(http.StatusOK, tr)
}

func (api *userApi) semesters(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	sems, err := api.semSvc.QueryByUser(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "querying semesters")
	}
	return ctx.JSON(http.StatusOK, sems)
}

func (api *userApi) subjects(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	subjects, err := api.subSvc.QueryByUser(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	return ctx.JSON(http.StatusOK, subjects)
}

// assignments accepts the same filters as GET /assignments, scoped to the user.
func (api *userApi) assignments(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	filter, err := bindFilter(ctx)
	if err != nil {
		return err
	}
	filter.UserID = usr.ID

	list, err := api.asgSvc.Filter(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "filtering assignments")
	}
	return ctx.JSON(http.StatusOK, assignment.Views(list, time.Now()))
}

func (api *userApi) assignmentStats(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	stats, err := api.asgSvc.UserStats(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "computing assignment stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *userApi) lectures(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var lectures []lecture.Lecture
	if day := ctx.QueryParam("day"); day != "" {
		d, convErr := strconv.Atoi(day)
		if convErr != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "day must be a number between 1 and 7")
		}
		lectures, err = api.lecSvc.QueryByDay(ctx.Request().Context(), usr.ID, d)
	} else {
		lectures, err = api.lecSvc.QueryByUser(ctx.Request().Context(), usr.ID)
	}
	if err != nil {
		return errors.Wrap(err, "querying lectures")
	}
	return ctx.JSON(http.StatusOK, lectures)
}

func (api *userApi) todayLectures(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	lectures, err := api.lecSvc.Today(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "querying today's lectures")
	}
	return ctx.JSON(http.StatusOK, lectures)
}

func (api *userApi) notifyingLectures(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	lectures, err := api.lecSvc.WithNotifications(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "querying notifying lectures")
	}
	return ctx.JSON(http.StatusOK, lectures)
}

func (api *userApi) reminders(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	reminders, err := api.lecSvc.UpcomingReminders(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "listing reminders")
	}
	return ctx.JSON(http.StatusOK, reminders)
}

func (api *userApi) dashboard(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	dash, err := api.dashSvc.Snapshot(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "loading dashboard")
	}
	return ctx.JSON(http.StatusOK, dash)
}

func (api *userApi) dashboardStream(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	return streamSnapshots(ctx, api.dashSvc.Watch(ctx.Request().Context(), usr.ID))
}

func (api *userApi) calendar(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err = api.exportSvc.Calendar(ctx.Request().Context(), &buf, usr.ID); err != nil {
		return errors.Wrap(err, "exporting calendar")
	}
	return ctx.Blob(http.StatusOK, mimeICalendar, buf.Bytes())
}

func (api *userApi) transcriptXLSX(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err = api.exportSvc.Transcript(ctx.Request().Context(), &buf, usr.ID); err != nil {
		return errors.Wrap(err, "exporting transcript")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="transcript-`+usr.StudentID+`.xlsx"`)
	return ctx.Blob(http.StatusOK, mimeXLSX, buf.Bytes())
}

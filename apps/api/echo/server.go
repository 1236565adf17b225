package echoapi

import (
	"context"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

	"github.com/trezcool/unitrack/core"
	"github.com/trezcool/unitrack/core/assignment"
	"github.com/trezcool/unitrack/core/dashboard"
	"github.com/trezcool/unitrack/core/gpa"
	"github.com/trezcool/unitrack/core/lecture"
	"github.com/trezcool/unitrack/core/semester"
	"github.com/trezcool/unitrack/core/subject"
	"github.com/trezcool/unitrack/core/user"
	"github.com/trezcool/unitrack/services/export"
)

type (
	ServerDeps struct {
		Conf   *core.Config
		Logger core.Logger
		// SignalShutdown is called when a handler hits a core shutdown error.
		SignalShutdown func()

		UserSvc       *user.Service
		SemesterSvc   *semester.Service
		SubjectSvc    *subject.Service
		AssignmentSvc *assignment.Service
		LectureSvc    *lecture.Service
		GPAEngine     *gpa.Engine
		DashboardSvc  *dashboard.Service
		ExportSvc     *export.Service

		Validate   *validator.Validate
		Translator ut.Translator
	}

	Server struct {
		deps ServerDeps
		app  *echo.Echo
	}
)

var _ http.Handler = (*Server)(nil) // interface compliance check

func NewServer(deps ServerDeps) *Server {
	if deps.Logger == nil {
		deps.Logger = core.NopLogger{}
	}
	if deps.SignalShutdown == nil {
		deps.SignalShutdown = func() {}
	}
	s := &Server{
		deps: deps,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Debug = conf.Debug && !conf.TestMode
	s.app.Logger.SetLevel(log.INFO)
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.deps.SignalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1")
	registerUserAPI(v1, s.deps)
	registerSemesterAPI(v1, s.deps)
	registerSubjectAPI(v1, s.deps)
	registerAssignmentAPI(v1, s.deps)
	registerLectureAPI(v1, s.deps)
}

// Start listens on the configured address until the server is shut down.
func (s *Server) Start() error {
	if err := s.app.Start(s.deps.Conf.Server.Host); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "starting API server")
	}
	return nil
}

// Shutdown stops accepting connections and waits for outstanding requests until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}

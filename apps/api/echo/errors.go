package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/unitrack/core"
	"github.com/trezcool/unitrack/core/assignment"
	"github.com/trezcool/unitrack/core/lecture"
	"github.com/trezcool/unitrack/core/semester"
	"github.com/trezcool/unitrack/core/subject"
	"github.com/trezcool/unitrack/core/user"
)

var (
	errHttpInvalidID  = echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	errStreamingUnsup = echo.NewHTTPError(http.StatusInternalServerError, "streaming unsupported")

	notFoundErrs = []error{
		user.ErrNotFound,
		semester.ErrNotFound,
		subject.ErrNotFound,
		assignment.ErrNotFound,
		lecture.ErrNotFound,
	}
)

func isNotFound(err error) bool {
	for _, nfErr := range notFoundErrs {
		if errors.Is(err, nfErr) {
			return true
		}
	}
	return false
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		var (
			vErr *core.ValidationError
			cErr *core.ConflictError
		)
		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case *echo.BindingError:
			code = origErr.Code
			message = echo.Map{"error": origErr.Message, "field": origErr.Field}
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, fErr := range origErr {
				fldErrs[fErr.Field()] = fErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		default:
			switch {
			case errors.As(err, &vErr):
				if vErr.Fields != nil {
					fldErrs := make(map[string]string, len(vErr.Fields))
					for _, fErr := range vErr.Fields {
						fldErrs[fErr.Field] = fErr.Error
					}
					message = fldErrs
				} else {
					message = vErr.Error()
				}
				code = http.StatusBadRequest
			case errors.As(err, &cErr):
				code = http.StatusConflict
				message = echo.Map{cErr.Field: cErr.Error()}
			case isNotFound(err):
				code = http.StatusNotFound
				message = errors.Cause(err).Error()
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg

				logger.Error(msg,
					"err", errors.Wrap(err, msg),
					"method", ctx.Request().Method,
					"path", ctx.Request().URL.Path,
					"request_id", ctx.Response().Header().Get(echo.HeaderXRequestID),
				)

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/unitrack/core/user"
)

const ctxUserKey = "user"

var errUsrNotFoundInCtx = errors.New("user object not found in echo.Context")

// ctxUserMiddleware loads the user designated by the `:id` path parameter into the context.
func ctxUserMiddleware(svc *user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			id, err := pathID(ctx)
			if err != nil {
				return err
			}
			usr, err := svc.GetByID(ctx.Request().Context(), id)
			if err != nil {
				return err
			}
			ctx.Set(ctxUserKey, usr)
			return next(ctx)
		}
	}
}

func getContextUser(ctx echo.Context) (user.User, error) {
	usr, ok := ctx.Get(ctxUserKey).(user.User)
	if !ok {
		return user.User{}, errUsrNotFoundInCtx
	}
	return usr, nil
}

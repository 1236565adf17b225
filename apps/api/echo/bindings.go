package echoapi

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/unitrack/core/assignment"
)

// pathID parses the positive integer path parameter `name` (defaults to "id").
func pathID(ctx echo.Context, name ...string) (int, error) {
	param := "id"
	if len(name) > 0 {
		param = name[0]
	}
	id, err := strconv.Atoi(ctx.Param(param))
	if err != nil || id <= 0 {
		return 0, errHttpInvalidID
	}
	return id, nil
}

// bindFilter reads the assignment filter from the query string.
// from/to are RFC 3339 timestamps.
func bindFilter(ctx echo.Context) (assignment.QueryFilter, error) {
	var filter assignment.QueryFilter
	err := echo.QueryParamsBinder(ctx).
		Int("user_id", &filter.UserID).
		Int("semester_id", &filter.SemesterID).
		Int("subject_id", &filter.SubjectID).
		String("status", &filter.Status).
		Bool("pending", &filter.Pending).
		Time("from", &filter.DueFrom, time.RFC3339).
		Time("to", &filter.DueTo, time.RFC3339).
		Bool("by_priority", &filter.ByPriority).
		BindError()
	if err != nil {
		return assignment.QueryFilter{}, errors.Wrap(err, "binding assignment filter")
	}
	return filter, nil
}

// bindDays reads the optional `days` query parameter; non-positive values fall back to def.
func bindDays(ctx echo.Context, def int) (int, error) {
	days := def
	if err := echo.QueryParamsBinder(ctx).Int("days", &days).BindError(); err != nil {
		return 0, errors.Wrap(err, "binding days")
	}
	if days <= 0 {
		days = def
	}
	return days, nil
}

// MarksRequest carries obtained marks; null clears them.
type MarksRequest struct {
	Marks null.Float64 `json:"obtained_marks"`
}

type TotalMarksRequest struct {
	TotalMarks float64 `json:"total_marks" validate:"gt=0"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}

type GPAResponse struct {
	GPA float64 `json:"gpa"`
}

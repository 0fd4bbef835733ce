package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

func respond(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, APIResponse{
		Status:  status,
		Message: http.StatusText(status),
		Data:    data,
	})
}

// ListResponse writes rows with their total.
func ListResponse(c echo.Context, rows interface{}, total int64) error {
	return respond(c, http.StatusOK, &ListDataResponse{Rows: rows, Total: total})
}

// SuccessResponse writes a 200 envelope.
func SuccessResponse(c echo.Context, data interface{}) error {
	return respond(c, http.StatusOK, data)
}

// AcceptedResponse writes a 202 envelope for queued or unfinished work.
func AcceptedResponse(c echo.Context, data interface{}) error {
	return respond(c, http.StatusAccepted, data)
}

// BadRequestResponse writes validation errors with a 400.
func BadRequestResponse(c echo.Context, data interface{}) error {
	return respond(c, http.StatusBadRequest, data)
}

// TooManyRequestsResponse writes a rate limit rejection.
func TooManyRequestsResponse(c echo.Context) error {
	return respond(c, http.StatusTooManyRequests, "rate limit exceeded")
}

// AppErrorResponse writes err with its own status when it is an AppError,
// and a bare 500 otherwise.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return respond(c, appErr.Status, []*AppError{appErr})
	}
	return respond(c, http.StatusInternalServerError, "Something went wrong")
}

package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/expense-tracker/internal/logging"
	"github.com/iliyamo/expense-tracker/internal/service"
)

// Client facing messages.
const (
	MsgInvalidRequest     = "Invalid request format"
	MsgInvalidDate        = "Invalid date format. Use: YYYY-MM-DD (e.g., 2024-12-21)"
	MsgInvalidNumber      = "Invalid number format"
	MsgInvalidCredentials = "Invalid email or password"
	MsgInvalidExpenseID   = "Expense ID must be a positive number"
	MsgUnexpected         = "An unexpected error ocurred"
)

// errorBody is the JSON shape of every error response.  Exactly one of
// Message and Errors is set.
type errorBody struct {
	Timestamp time.Time         `json:"timestamp"`
	Status    int               `json:"status"`
	Message   string            `json:"message,omitempty"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// requestError is a client error detected before reaching a service.
type requestError struct {
	msg   string
	cause error
}

func (e *requestError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return e.msg + ": " + e.cause.Error()
}

func (e *requestError) Unwrap() error { return e.cause }

// ErrorHandler renders errors returned by handlers and middleware.  Causes of
// server errors are logged and never sent to the client.
func ErrorHandler(log logging.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		body := classify(err)
		body.Timestamp = time.Now().UTC()
		if body.Status >= http.StatusInternalServerError {
			log.Error(c.Request().Context(), "request failed",
				"method", c.Request().Method, "uri", c.Request().RequestURI, "error", err)
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(body.Status)
		} else {
			werr = c.JSON(body.Status, body)
		}
		if werr != nil {
			log.Error(c.Request().Context(), "write error response", "error", werr)
		}
	}
}

func classify(err error) errorBody {
	var (
		verr   *service.ValidationError
		reqErr *requestError
		he     *echo.HTTPError
	)
	switch {
	case errors.As(err, &verr):
		return errorBody{Status: http.StatusBadRequest, Errors: verr.Fields}
	case errors.As(err, &reqErr):
		return errorBody{Status: http.StatusBadRequest, Message: reqErr.msg}
	case errors.Is(err, service.ErrInvalidCredentials):
		return errorBody{Status: http.StatusUnauthorized, Message: MsgInvalidCredentials}
	case errors.Is(err, service.ErrNotFound):
		return errorBody{Status: http.StatusNotFound, Message: "Resource not found"}
	case errors.Is(err, service.ErrOwnerNotFound):
		return errorBody{Status: http.StatusNotFound, Message: "User not found"}
	case errors.As(err, &he):
		if he.Code >= http.StatusInternalServerError {
			return errorBody{Status: he.Code, Message: MsgUnexpected}
		}
		return errorBody{Status: he.Code, Message: fmt.Sprint(he.Message)}
	}
	return errorBody{Status: http.StatusInternalServerError, Message: MsgUnexpected}
}

// bindError turns a binder failure into a requestError with a message that
// names the offending kind of value.
func bindError(err error) error {
	cause := err
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Internal != nil {
		cause = he.Internal
	}

	var (
		parseErr *time.ParseError
		typeErr  *json.UnmarshalTypeError
	)
	switch {
	case errors.As(cause, &parseErr):
		return &requestError{msg: MsgInvalidDate, cause: cause}
	case errors.Is(cause, errInvalidNumber):
		return &requestError{msg: MsgInvalidNumber, cause: cause}
	case errors.As(cause, &typeErr):
		switch typeErr.Field {
		case "date":
			return &requestError{msg: MsgInvalidDate, cause: cause}
		case "amount":
			return &requestError{msg: MsgInvalidNumber, cause: cause}
		}
	}
	return &requestError{msg: MsgInvalidRequest, cause: cause}
}

// bindAndValidate decodes the request body into dst and validates it.
func bindAndValidate(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return bindError(err)
	}
	return c.Validate(dst)
}

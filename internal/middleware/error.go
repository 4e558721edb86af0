package middleware

import (
	"net/http"

	"recipeshare/internal/logging"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// ErrorHandler is the central echo error handler. Plain string messages are
// wrapped in ErrorResponse; structured messages (per-field validation maps,
// the {"errors": ...} toggle bodies) are written as the response body as-is.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	ctx := c.Request().Context()
	span := trace.SpanFromContext(ctx)

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	var traceID string
	if span.SpanContext().HasTraceID() {
		traceID = span.SpanContext().TraceID().String()
	}

	code := http.StatusInternalServerError
	var body interface{} = ErrorResponse{Error: "internal server error", TraceID: traceID}

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		switch m := he.Message.(type) {
		case string:
			body = ErrorResponse{Error: m, TraceID: traceID}
		case nil:
			body = ErrorResponse{Error: http.StatusText(he.Code), TraceID: traceID}
		default:
			body = m
		}
	}

	span.SetAttributes(attribute.Int("http.response.status_code", code))

	logging.Error(ctx).
		Err(err).
		Int("status", code).
		Msg("request error")

	if err := c.JSON(code, body); err != nil {
		logging.Error(ctx).Err(err).Msg("failed to write error response")
	}
}

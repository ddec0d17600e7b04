package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prohmpiriya/event-inventory/pkg/telemetry"
)

// Response is the envelope of every API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorData  `json:"error,omitempty"`
}

// ErrorData describes a failed request. TraceID lets a caller quote the request to support.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

func Error(c *gin.Context, status int, code, message string, details string) {
	c.JSON(status, Response{
		Success: false,
		Error:   newErrorData(c, code, message, details),
	})
}

// ErrorWithData reports a failure together with a payload, e.g. a booking result
// that carries the payment transaction id
func ErrorWithData(c *gin.Context, status int, code, message string, data interface{}) {
	c.JSON(status, Response{
		Success: false,
		Data:    data,
		Error:   newErrorData(c, code, message, ""),
	})
}

func InternalError(c *gin.Context, err error) {
	_ = c.Error(err)
	Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal Server Error", err.Error())
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, "BAD_REQUEST", message, "")
}

func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, "UNAUTHORIZED", message, "")
}

func newErrorData(c *gin.Context, code, message, details string) *ErrorData {
	data := &ErrorData{Code: code, Message: message, Details: details}
	if c.Request != nil {
		data.TraceID = telemetry.GetTraceID(c.Request.Context())
	}
	return data
}

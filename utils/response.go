package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Status    int         `json:"-"`
	Message   string      `json:"message,omitempty"`
	Error     string      `json:"error,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

func respond(c *gin.Context, resp *Response) {
	if id, ok := c.Get("request_id"); ok {
		resp.RequestID, _ = id.(string)
	}
	c.JSON(resp.Status, resp)
}

func fail(c *gin.Context, status int, message string) {
	respond(c, &Response{Status: status, Error: message})
}

// Success responses
func Success(c *gin.Context, data interface{}) {
	respond(c, &Response{Status: http.StatusOK, Data: data})
}

func Created(c *gin.Context, data interface{}) {
	respond(c, &Response{
		Status:  http.StatusCreated,
		Message: "Resource created successfully",
		Data:    data,
	})
}

// Calendar writes an iCalendar attachment.
func Calendar(c *gin.Context, filename string, body []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", body)
}

// Error responses
func Unauthorized(c *gin.Context, message string) {
	fail(c, http.StatusUnauthorized, message)
}

func BadRequest(c *gin.Context, message string) {
	fail(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context, message string) {
	fail(c, http.StatusNotFound, message)
}

func Conflict(c *gin.Context, message string) {
	fail(c, http.StatusConflict, message)
}

func PayloadTooLarge(c *gin.Context, message string) {
	fail(c, http.StatusRequestEntityTooLarge, message)
}

func UnsupportedMediaType(c *gin.Context, message string) {
	fail(c, http.StatusUnsupportedMediaType, message)
}

func InternalError(c *gin.Context, message string) {
	fail(c, http.StatusInternalServerError, message)
}

func ServiceUnavailable(c *gin.Context, message string, data ...interface{}) {
	resp := &Response{Status: http.StatusServiceUnavailable, Error: message}
	if len(data) > 0 {
		resp.Data = data[0]
	}
	respond(c, resp)
}

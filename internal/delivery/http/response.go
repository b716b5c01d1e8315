package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"orderdesk/internal/service"
)

type errorResponse struct {
	Message string               `json:"message"`
	Fields  []service.FieldError `json:"fields,omitempty"`
}

type statusResponse struct {
	Status string `json:"status"`
}

func newErrorResponse(c *gin.Context, statusCode int, message string) {
	c.AbortWithStatusJSON(statusCode, errorResponse{Message: message})
}

// respondError maps a service error onto its HTTP status.
func respondError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Message: "validation failed", Fields: verr.Fields})
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrDecode):
		newErrorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		newErrorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrConflict):
		newErrorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrUnavailable):
		logrus.WithError(err).WithField("path", c.FullPath()).Error("store unavailable")
		newErrorResponse(c, http.StatusServiceUnavailable, "service unavailable, try again later")
	default:
		logrus.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		newErrorResponse(c, http.StatusInternalServerError, err.Error())
	}
}

// bindJSON decodes the request body; a malformed body is answered with 400.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

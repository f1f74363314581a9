package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/ridebooking/internal/domain"
	"github.com/gin-gonic/gin"
)

func httpStatus(kind domain.Kind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindPolicyViolation:
		return http.StatusUnprocessableEntity
	case domain.KindInvalid:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes domain errors with their message and code. Other errors are
// attached to the context for the logger and answered with a generic 500.
func respondError(c *gin.Context, err error) {
	var de *domain.Error
	if errors.As(err, &de) {
		c.JSON(httpStatus(de.Kind), gin.H{"error": de.Message, "code": de.Code})
		return
	}
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": domain.ErrInvalidInput.Code})
}

package handlers

import (
	"errors"
	"net/http"

	"order_service/internal/services"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

var statusByKind = map[services.ErrorKind]int{
	services.KindValidation:          http.StatusBadRequest,
	services.KindNotFound:            http.StatusNotFound,
	services.KindInvalidTransition:   http.StatusConflict,
	services.KindInapplicable:        http.StatusUnprocessableEntity,
	services.KindSignatureMismatch:   http.StatusUnauthorized,
	services.KindProviderUnavailable: http.StatusServiceUnavailable,
	services.KindConflict:            http.StatusConflict,
}

// respondError writes {"error", "code"} for AppErrors and a generic 500 for
// anything else.
func respondError(c *gin.Context, err error) {
	var appErr *services.AppError
	if errors.As(err, &appErr) {
		status, ok := statusByKind[appErr.Kind]
		if !ok {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{"error": appErr.Message, "code": appErr.Code})
		return
	}

	log.WithError(err).WithFields(log.Fields{
		"method": c.Request.Method,
		"path":   c.FullPath(),
	}).Error("Request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "code": "internal_error"})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message, "code": services.CodeInvalidRequest})
}

package router

import (
	"errors"
	"net/http"

	"podsync/internal/app"
	"podsync/internal/store"
	"podsync/internal/vmhost"

	"github.com/gin-gonic/gin"
)

func statusOf(err error) int {
	var (
		notFound  *vmhost.ErrHostNotFound
		topology  *vmhost.ErrInvalidTopology
		exhausted *vmhost.ErrDiscoveryExhausted
		duplicate *vmhost.ErrDuplicateMember
		invalid   *app.ErrInvalidArgument
	)
	switch {
	case errors.As(err, &notFound), errors.Is(err, store.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.As(err, &topology):
		return http.StatusUnprocessableEntity
	case errors.As(err, &exhausted):
		return http.StatusServiceUnavailable
	case errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.As(err, &duplicate), errors.Is(err, store.ErrDuplicateKey):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, err error) {
	c.JSON(statusOf(err), gin.H{"error": err.Error()})
}

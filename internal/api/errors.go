package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"wallet_ledger/internal/domain"
	"wallet_ledger/internal/middleware"
)

func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindValidation, domain.KindUnsupported:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes wallet errors with their kind's status; anything else
// is logged and reported as a generic failure of action.
func respondError(c *gin.Context, err error, action string) {
	var werr *domain.Error
	if errors.As(err, &werr) {
		body := gin.H{"error": werr.Message, "code": werr.Code}
		if werr.Field != "" {
			body["field"] = werr.Field
		}
		c.JSON(statusForKind(werr.Kind), body)
		return
	}
	logrus.WithFields(logrus.Fields{
		"path":  c.FullPath(),
		"error": err.Error(),
	}).Error(action + " failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": action + " failed"})
}

// actorID returns the authenticated operator id as recorded on postings.
func actorID(c *gin.Context) string {
	v, ok := c.Get(middleware.OperatorIDKey)
	if !ok {
		return ""
	}
	if id, ok := v.(uint); ok {
		return strconv.FormatUint(uint64(id), 10)
	}
	return ""
}

// queryInt reads an integer query parameter, falling back on absence or garbage.
func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

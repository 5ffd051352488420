package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lanchecard/canteen-api/internal/apperror"
	"github.com/sirupsen/logrus"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Count      *int        `json:"count,omitempty"`
	NextCursor string      `json:"next_cursor,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
}

type responder struct {
	log        *logrus.Logger
	production bool
}

func (r responder) ok(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func (r responder) list(c *gin.Context, data interface{}, count int, nextCursor string) {
	c.JSON(http.StatusOK, Response{
		Success:    true,
		Count:      &count,
		NextCursor: nextCursor,
		Data:       data,
	})
}

// fail maps err to its status code. Internal detail is only exposed outside
// production, and server-side failures are logged with the request context.
func (r responder) fail(c *gin.Context, err error) {
	kind := apperror.KindOf(err)
	status := apperror.HTTPStatus(kind)

	resp := Response{
		Success: false,
		Message: apperror.Message(err),
	}

	switch kind {
	case apperror.KindInternal:
		resp.Message = "internal server error"
		if !r.production {
			resp.Error = err.Error()
		}
	case apperror.KindUnavailable, apperror.KindTimeout:
		if !r.production {
			resp.Error = err.Error()
		}
	}

	if status >= http.StatusInternalServerError || kind == apperror.KindTimeout {
		fields := logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"kind":   kind.String(),
		}
		if claims, ok := claimsFrom(c); ok {
			fields["actor_id"] = claims.UserID
		}
		r.log.WithError(err).WithFields(fields).Error("Request failed")
	}

	c.AbortWithStatusJSON(status, resp)
}

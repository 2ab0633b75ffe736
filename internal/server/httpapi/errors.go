package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/gin-gonic/gin"
)

var statusByCode = map[string]int{
	"refresh_token_expired": http.StatusUnauthorized,
	"token_expired":         http.StatusUnauthorized,
	"invalid_token":         http.StatusUnauthorized,
	"unauthorized":          http.StatusUnauthorized,
	"forbidden":             http.StatusForbidden,
	"validation":            http.StatusBadRequest,
	"not_found":             http.StatusNotFound,
	"already_exists":        http.StatusConflict,
	"invalid_transition":    http.StatusConflict,
}

// ErrorBody is the JSON shape of every API error.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// fail aborts the request with the status err maps to. Internal errors are
// logged and their text is not exposed.
func (s *Server) fail(c *gin.Context, err error) {
	code := common.ErrorCode(err)
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
		s.logger.Error(c.Request.Context(), "request failed", "path", c.Request.URL.Path, "error", err)
		c.AbortWithStatusJSON(status, ErrorBody{Error: "internal error", Code: code})
		return
	}
	c.AbortWithStatusJSON(status, ErrorBody{Error: err.Error(), Code: code})
}

// badRequest reports a malformed request body or parameter.
func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorBody{Error: err.Error(), Code: "validation"})
}

package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/clueserver/game"
	"github.com/wfunc/clueserver/logger"
	"github.com/wfunc/clueserver/room"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

// StatusOf maps an error to its HTTP status.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, game.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrCapacity), errors.Is(err, game.ErrDuplicatePlayer):
		return http.StatusConflict
	case errors.Is(err, room.ErrRoomClosed):
		return http.StatusServiceUnavailable
	case game.IsRejection(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func abort(c *gin.Context, err error) {
	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		logger.Log.Errorw("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error(), Reason: game.ReasonOf(err)})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: message, Reason: game.ReasonOf(game.ErrInvalidAction)})
}

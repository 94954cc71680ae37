// Package api is the REST surface of the game server.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/clueserver/room"
	"github.com/wfunc/clueserver/services"
)

// NewRouter wires every route. records may be nil, which disables the
// player statistics route.
func NewRouter(rooms *room.Manager, records *services.RecordService) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.Use(func(c *gin.Context) {
		// allow everything
		c.Writer.Header().Add("Access-Control-Allow-Origin", "*")

		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "games": rooms.Count()})
	})

	r.POST("/games", NewCreateGameHandler(rooms))
	r.GET("/games/:id", NewGetGameHandler(rooms))
	r.POST("/games/:id/join", NewJoinHandler(rooms))
	r.POST("/games/:id/start", NewStartHandler(rooms))
	r.POST("/games/:id/action", NewActionHandler(rooms))
	r.GET("/games/:id/chat", NewGetChatHandler(rooms))
	r.POST("/games/:id/chat", NewPostChatHandler(rooms))
	r.GET("/games/:id/log", NewGetLogHandler(rooms))
	r.GET("/games/:id/solution", NewGetSolutionHandler(rooms))
	r.GET("/games/:id/players/:pid", NewGetPlayerHandler(rooms))

	if records != nil {
		r.GET("/players/:name/stats", NewPlayerStatsHandler(records))
	}

	return r
}

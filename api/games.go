package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wfunc/clueserver/game"
	"github.com/wfunc/clueserver/room"
	"github.com/wfunc/clueserver/services"
)

type JoinRequest struct {
	PlayerID string          `json:"player_id"`
	Name     string          `json:"name"`
	Type     game.PlayerType `json:"type"`
}

type ActionRequest struct {
	PlayerID string `json:"player_id"`
	game.Payload
}

type ChatRequest struct {
	PlayerID string `json:"player_id"`
	Text     string `json:"text"`
}

// NewCreateGameHandler creates an empty game in the waiting phase.
func NewCreateGameHandler(rooms *room.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, st, err := rooms.CreateGame(c.Request.Context())
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusCreated, st)
	}
}

func NewGetGameHandler(rooms *room.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := rooms.Engine().GetState(c.Request.Context(), c.Param("id"))
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, st)
	}
}

// NewJoinHandler seats a player. A missing player_id gets a fresh one.
func NewJoinHandler(rooms *room.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req JoinRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			badRequest(c, "name must be supplied")
			return
		}
		if req.PlayerID == "" {
			req.PlayerID = uuid.NewString()
		}

		r, err := rooms.Room(c.Request.Context(), c.Param("id"))
		if err != nil {
			abort(c, err)
			return
		}
		p, err := r.Join(c.Request.Context(), req.PlayerID, req.Name, req.Type)
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func NewStartHandler(rooms *room.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, err := rooms.Room(c.Request.Context(), c.Param("id"))
		if err != nil {
			abort(c, err)
			return
		}
		st, err := r.Start(c.Request.Context())
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, st)
	}
}

// NewActionHandler applies one action and returns its result.
func NewActionHandler(rooms *room.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ActionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		if req.PlayerID == "" {
			badRequest(c, "player_id must be supplied")
			return
		}
		action, err := req.Payload.Action()
		if err != nil {
			abort(c, err)
			return
		}

		r, err := rooms.Room(c.Request.Context(), c.Param("id"))
		if err != nil {
			abort(c, err)
			return
		}
		res, err := r.Act(c.Request.Context(), req.PlayerID, action)
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func NewGetChatHandler(rooms *room.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		msgs, err := rooms.Engine().Chat(c.Request.Context(), c.Param("id"))
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, msgs)
	}
}

func NewPostChatHandler(rooms *room.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		r, err := rooms.Room(c.Request.Context(), c.Param("id"))
		if err != nil {
			abort(c, err)
			return
		}
		msg, err := r.Chat(c.Request.Context(), req.PlayerID, req.Text)
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, msg)
	}
}

func NewGetLogHandler(rooms *room.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := rooms.Engine().Log(c.Request.Context(), c.Param("id"))
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, entries)
	}
}

// NewGetSolutionHandler reveals the solution of a finished game.
func NewGetSolutionHandler(rooms *room.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		sol, err := rooms.Engine().RevealSolution(c.Request.Context(), c.Param("id"))
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, sol)
	}
}

// NewGetPlayerHandler returns the game as the given player sees it.
func NewGetPlayerHandler(rooms *room.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ps, err := rooms.Engine().GetPlayerState(c.Request.Context(), c.Param("id"), c.Param("pid"))
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, ps)
	}
}

func NewPlayerStatsHandler(records *services.RecordService) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := records.GetPlayerStats(c.Request.Context(), c.Param("name"))
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

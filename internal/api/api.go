// Package api exposes the game controller over plain HTTP. Every action
// responds with the resulting snapshot so clients without a socket connection
// can still drive a session.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/workplay/officegame/internal/export"
	"github.com/workplay/officegame/internal/game"
)

// Archive lists previously evaluated rounds.
type Archive interface {
	Recent(ctx context.Context, limit int) ([]export.ArchivedReport, error)
}

type Handler struct {
	Ctrl      *game.Controller
	Scenarios []game.Scenario
	Archive   Archive
}

// Mount registers the /api routes on r.
func (h *Handler) Mount(r gin.IRouter) {
	g := r.Group("/api")
	g.GET("/state", h.state)
	g.GET("/scenarios", h.scenarios)
	g.POST("/players/count", h.playerCount)
	g.POST("/roster", h.roster)
	g.POST("/round/start", h.startRound)
	g.POST("/round/answer", h.answer)
	g.POST("/round/evaluate", h.evaluate)
	g.POST("/round/skip", h.action(h.Ctrl.SkipRound))
	g.POST("/round/next", h.action(h.Ctrl.NextRound))
	g.POST("/round/reset", h.action(h.Ctrl.ResetRound))
	g.POST("/game/reset", func(c *gin.Context) {
		c.JSON(http.StatusOK, h.Ctrl.ResetGame())
	})
	g.GET("/report", h.report)
	g.GET("/reports", h.reports)
}

func (h *Handler) state(c *gin.Context) {
	c.JSON(http.StatusOK, h.Ctrl.Snapshot())
}

func (h *Handler) scenarios(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"scenarios": h.Scenarios})
}

func (h *Handler) playerCount(c *gin.Context) {
	var req struct {
		Count int `json:"count"`
	}
	if !bind(c, &req) {
		return
	}
	snap, err := h.Ctrl.SetPlayerCount(req.Count)
	respond(c, snap, err)
}

func (h *Handler) roster(c *gin.Context) {
	var req struct {
		Names []string `json:"names"`
	}
	if !bind(c, &req) {
		return
	}
	snap, err := h.Ctrl.ConfirmRoster(req.Names)
	respond(c, snap, err)
}

func (h *Handler) startRound(c *gin.Context) {
	var req struct {
		Title string `json:"title"`
	}
	if c.Request.ContentLength != 0 && !bind(c, &req) {
		return
	}
	snap, err := h.Ctrl.StartRound(req.Title)
	respond(c, snap, err)
}

func (h *Handler) answer(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if !bind(c, &req) {
		return
	}
	snap, err := h.Ctrl.SubmitAnswer(req.Text)
	respond(c, snap, err)
}

func (h *Handler) evaluate(c *gin.Context) {
	var req struct {
		Model string `json:"model"`
	}
	if c.Request.ContentLength != 0 && !bind(c, &req) {
		return
	}
	// A client that disconnects mid-evaluation should not abort the round.
	snap, err := h.Ctrl.RequestEvaluation(context.WithoutCancel(c.Request.Context()), req.Model)
	respond(c, snap, err)
}

func (h *Handler) action(fn func() (game.Snapshot, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := fn()
		respond(c, snap, err)
	}
}

func (h *Handler) report(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_format", "message": err.Error()})
		return
	}
	r, err := h.Ctrl.Report()
	if err != nil {
		writeError(c, err, nil)
		return
	}
	body, err := export.Render(r, format)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "render_failed", "message": err.Error()})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+format.FileName(r.Round)+`"`)
	c.Data(http.StatusOK, format.ContentType(), body)
}

func (h *Handler) reports(c *gin.Context) {
	if h.Archive == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "archive_disabled", "message": "report archive is not configured"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	list, err := h.Archive.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "archive_failed", "message": err.Error()})
		return
	}
	out := make([]game.Report, 0, len(list))
	for _, ar := range list {
		out = append(out, ar.Report)
	}
	c.JSON(http.StatusOK, gin.H{"reports": out})
}

func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return false
	}
	return true
}

func respond(c *gin.Context, snap game.Snapshot, err error) {
	if err != nil {
		writeError(c, err, &snap)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func writeError(c *gin.Context, err error, snap *game.Snapshot) {
	code, status := Classify(err)
	body := gin.H{"error": code, "message": err.Error()}
	if snap != nil {
		body["state"] = snap
	}
	c.JSON(status, body)
}

// Classify maps a controller error to an error code and HTTP status.
func Classify(err error) (string, int) {
	var ve *game.ValidationError
	if errors.As(err, &ve) {
		switch ve {
		case game.ErrEmptyAnswer, game.ErrRosterSize, game.ErrPlayerCount:
			return ve.Code, http.StatusBadRequest
		case game.ErrScenarioNotFound:
			return ve.Code, http.StatusNotFound
		case game.ErrNoEvaluator:
			return ve.Code, http.StatusServiceUnavailable
		}
		return ve.Code, http.StatusConflict
	}
	var ee *game.EvaluationError
	if errors.As(err, &ee) {
		if errors.Is(err, game.ErrEvaluationTimeout) {
			return "evaluation_timeout", http.StatusGatewayTimeout
		}
		return "evaluation_failed", http.StatusBadGateway
	}
	return "internal", http.StatusInternalServerError
}

package ws

import (
    "context"
    "net/http"

    "github.com/gin-gonic/gin"
    socketio "github.com/googollee/go-socket.io"
    "github.com/rs/zerolog/log"
    "github.com/workplay/officegame/internal/api"
    "github.com/workplay/officegame/internal/game"
)

// room every connection joins; there is one session per process.
const room = "session"

type Server struct {
    ctrl *game.Controller
}

func New(ctrl *game.Controller) *Server {
    return &Server{ctrl: ctrl}
}

// Mount attaches Socket.IO server with handlers to the given Gin engine.
func (srv *Server) Mount(r *gin.Engine) *socketio.Server {
    io := socketio.NewServer(nil)

    // every state change reaches all connected screens
    srv.ctrl.Subscribe(func(snap game.Snapshot) {
        io.BroadcastToRoom("/", room, "game:state", snap)
    })

    io.OnConnect("/", func(s socketio.Conn) error {
        s.Join(room)
        log.Info().Str("sid", s.ID()).Msg("socket connected")
        s.Emit("game:state", srv.ctrl.Snapshot())
        return nil
    })

    // game:playerCount
    io.OnEvent("/", "game:playerCount", func(s socketio.Conn, payload struct {
        Count int `json:"count"`
    }) map[string]any {
        if _, err := srv.ctrl.SetPlayerCount(payload.Count); err != nil {
            return srv.err(s, err)
        }
        log.Info().Str("sid", s.ID()).Int("count", payload.Count).Msg("game:playerCount")
        return map[string]any{"ok": true}
    })

    // game:roster
    io.OnEvent("/", "game:roster", func(s socketio.Conn, payload struct {
        Names []string `json:"names"`
    }) map[string]any {
        if _, err := srv.ctrl.ConfirmRoster(payload.Names); err != nil {
            return srv.err(s, err)
        }
        log.Info().Str("sid", s.ID()).Int("players", len(payload.Names)).Msg("game:roster")
        return map[string]any{"ok": true}
    })

    // game:start (title empty -> random scenario)
    io.OnEvent("/", "game:start", func(s socketio.Conn, payload struct {
        Title string `json:"title"`
    }) map[string]any {
        snap, err := srv.ctrl.StartRound(payload.Title)
        if err != nil {
            return srv.err(s, err)
        }
        log.Info().Str("sid", s.ID()).Int("round", snap.RoundNumber).Msg("game:start")
        return map[string]any{"ok": true, "scenario": snap.Round.Scenario}
    })

    // game:submit
    io.OnEvent("/", "game:submit", func(s socketio.Conn, payload struct {
        Text string `json:"text"`
    }) map[string]any {
        snap, err := srv.ctrl.SubmitAnswer(payload.Text)
        if err != nil {
            return srv.err(s, err)
        }
        log.Info().Str("sid", s.ID()).Int("submitted", snap.Round.Submitted).Int("total", snap.Round.Total).Msg("game:submit")
        return map[string]any{"submitted": snap.Round.Submitted, "total": snap.Round.Total}
    })

    // game:evaluate runs in the background; the result arrives as game:state
    io.OnEvent("/", "game:evaluate", func(s socketio.Conn, payload struct {
        Model string `json:"model"`
    }) map[string]any {
        log.Info().Str("sid", s.ID()).Str("model", payload.Model).Msg("game:evaluate")
        go func(model string) {
            if _, err := srv.ctrl.RequestEvaluation(context.Background(), model); err != nil {
                srv.err(s, err)
            }
        }(payload.Model)
        return map[string]any{"ok": true}
    })

    io.OnEvent("/", "game:skip", func(s socketio.Conn) map[string]any {
        return srv.simple(s, "game:skip", srv.ctrl.SkipRound)
    })
    io.OnEvent("/", "game:next", func(s socketio.Conn) map[string]any {
        return srv.simple(s, "game:next", srv.ctrl.NextRound)
    })
    io.OnEvent("/", "game:resetRound", func(s socketio.Conn) map[string]any {
        return srv.simple(s, "game:resetRound", srv.ctrl.ResetRound)
    })
    io.OnEvent("/", "game:reset", func(s socketio.Conn) map[string]any {
        srv.ctrl.ResetGame()
        log.Info().Str("sid", s.ID()).Msg("game:reset")
        return map[string]any{"ok": true}
    })

    io.OnError("/", func(s socketio.Conn, e error) {
        log.Error().Str("sid", s.ID()).Err(e).Msg("socket error")
    })
    io.OnDisconnect("/", func(s socketio.Conn, reason string) {
        log.Info().Str("sid", s.ID()).Str("reason", reason).Msg("socket disconnected")
    })

    go io.Serve()

    // Mount to router
    r.GET("/socket.io/*any", gin.WrapH(io))
    r.POST("/socket.io/*any", gin.WrapH(io))

    // Basic CORS preflight for Socket.IO POST
    r.OPTIONS("/socket.io/*any", func(c *gin.Context) {
        c.Header("Access-Control-Allow-Origin", "*")
        c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
        c.Header("Access-Control-Allow-Headers", "Content-Type")
        c.Status(http.StatusNoContent)
    })

    return io
}

func (srv *Server) simple(s socketio.Conn, event string, fn func() (game.Snapshot, error)) map[string]any {
    snap, err := fn()
    if err != nil {
        return srv.err(s, err)
    }
    log.Info().Str("sid", s.ID()).Str("phase", string(snap.Phase)).Msg(event)
    return map[string]any{"ok": true}
}

// err reports a rejected action to the sender only.
func (srv *Server) err(s socketio.Conn, err error) map[string]any {
    code, _ := api.Classify(err)
    s.Emit("error", map[string]any{"code": code, "message": err.Error()})
    return map[string]any{"error": err.Error()}
}

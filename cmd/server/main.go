package main

import (
    "flag"
    "fmt"
    "net/http"
    "os"
    "strings"
    "time"

    "github.com/gin-contrib/cors"
    "github.com/gin-gonic/gin"
    "github.com/rs/zerolog"
    "github.com/rs/zerolog/log"
    "github.com/workplay/officegame/internal/ai"
    "github.com/workplay/officegame/internal/ai/gemini"
    "github.com/workplay/officegame/internal/ai/ollama"
    "github.com/workplay/officegame/internal/ai/openai"
    "github.com/workplay/officegame/internal/api"
    "github.com/workplay/officegame/internal/config"
    "github.com/workplay/officegame/internal/export"
    "github.com/workplay/officegame/internal/game"
    "github.com/workplay/officegame/internal/scenario"
    "github.com/workplay/officegame/internal/ws"
    staticserver "github.com/workplay/officegame/static"
)

const version = "v1.0.0-dev"

func main() {
    var (
        showHelp    = flag.Bool("help", false, "Show help message")
        showVersion = flag.Bool("version", false, "Show version information")
        portFlag    = flag.String("port", "", "Port to listen on (overrides PORT env var)")
        configDir   = flag.String("config", "", "Directory containing config.yaml")
    )
    flag.BoolVar(showHelp, "h", false, "Show help message (shorthand)")
    flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
    flag.Parse()

    if *showHelp {
        fmt.Printf(`Office Scenario Training - workplace scenario game judged by an AI instructor

Usage: %s [options]

Options:
  -h, --help        Show this help message
  -v, --version     Show version information
  --port PORT       Port to listen on (default: 8080 or PORT env var)
  --config DIR      Directory containing config.yaml (optional)

Environment Variables:
  PORT                Port to listen on (default: 8080)
  DEFAULT_PROVIDER    AI provider: "openai", "ollama" or "gemini" (default: openai)
  DEFAULT_MODEL       AI model to use (default: gpt-3.5-turbo)
  SYSTEM_PROMPT       Replace the built-in instructor prompt (optional)
  OPENAI_API_KEY      OpenAI API key (required for OpenAI provider)
  OPENAI_BASE_URL     Custom OpenAI API base URL (optional)
  OLLAMA_HOST         Ollama host URL (default: http://localhost:11434)
  GEMINI_API_KEY      Google Gemini API key (required for Gemini provider)
  GAME_PLAYERS        Initial player count, 2-6 (default: 3)
  EXPORT_ENABLED      Append round results to a file (default: true)
  EXPORT_FILE         Path of the results file (default: ./officegame-results.txt)
  EXPORT_SQLITE_PATH  Archive round reports in this SQLite database (optional)

Examples:
  %s                  Start server with default settings
  %s --port 3000      Start server on port 3000

Visit http://localhost:8080 after starting the server.
`, os.Args[0], os.Args[0], os.Args[0])
        return
    }

    if *showVersion {
        fmt.Printf("officegame %s\n", version)
        return
    }

    // zerolog setup (human-friendly console)
    zerolog.TimeFieldFormat = time.RFC3339
    cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
    log.Logger = log.Output(cw)

    cfg, err := config.Load(*configDir)
    if err != nil {
        log.Fatal().Err(err).Msg("failed to load config")
    }
    port := *portFlag
    if port == "" {
        port = cfg.Server.Port
    }

    // Providers
    gm := gemini.New(cfg.Gemini.APIKey)
    defer gm.Close()
    providers := ai.Providers{
        "openai": openai.New(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL),
        "ollama": ollama.New(cfg.Ollama.Host),
        "gemini": gm,
    }
    var evaluator game.Evaluator
    if prov, err := providers.Select(cfg.AI.Provider); err != nil {
        log.Error().Err(err).Msg("no evaluation provider, rounds cannot be evaluated")
    } else {
        evaluator = ai.NewEvaluator(prov, cfg.AI.SystemPrompt)
    }

    // Report sinks
    var sinks []game.ReportSink
    if cfg.Export.Enabled && cfg.Export.File != "" {
        sinks = append(sinks, export.NewFileSink(cfg.Export.File))
    }
    var archive *export.Archive
    if cfg.Export.SQLitePath != "" {
        archive, err = export.OpenArchive(cfg.Export.SQLitePath)
        if err != nil {
            log.Fatal().Err(err).Str("path", cfg.Export.SQLitePath).Msg("failed to open report archive")
        }
        defer archive.Close()
        sinks = append(sinks, archive)
    }

    catalog := scenario.Default()
    ctrl := game.NewController(catalog, evaluator, game.Options{
        PlayerCount:       cfg.Game.Players,
        DefaultModel:      cfg.AI.Model,
        EvaluationTimeout: cfg.Game.EvaluationTimeout,
        Sinks:             sinks,
        Logger:            log.With().Str("component", "game").Logger(),
    })

    // Gin setup with custom logger (skip /socket.io noise)
    gin.SetMode(gin.ReleaseMode)
    r := gin.New()
    r.Use(gin.Recovery())
    r.Use(func(c *gin.Context) {
        start := time.Now()
        c.Next()
        path := c.Request.URL.Path
        if strings.HasPrefix(path, "/socket.io") {
            return
        }
        status := c.Writer.Status()
        dur := time.Since(start)
        log.Info().Str("method", c.Request.Method).Str("path", path).Int("status", status).Dur("dur", dur).Msg("http")
    })
    if len(cfg.Server.CORSOrigins) > 0 {
        r.Use(cors.New(cors.Config{
            AllowOrigins:  cfg.Server.CORSOrigins,
            AllowMethods:  []string{"GET", "POST", "OPTIONS"},
            AllowHeaders:  []string{"Origin", "Content-Type"},
            ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
        }))
    }

    // Healthcheck
    r.GET("/health", func(c *gin.Context) {
        c.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now().UTC()})
    })

    h := &api.Handler{Ctrl: ctrl, Scenarios: catalog.All()}
    if archive != nil {
        h.Archive = archive
    }
    h.Mount(r)

    io := ws.New(ctrl).Mount(r)
    defer io.Close()

    // Serve frontend (if embedded build is present) for all other routes
    r.NoRoute(func(c *gin.Context) {
        staticserver.Handler().ServeHTTP(c.Writer, c.Request)
    })

    log.Info().Str("port", port).Str("provider", cfg.AI.Provider).Str("model", cfg.AI.Model).Int("players", cfg.Game.Players).Msg("listening")
    if err := r.Run(":" + port); err != nil {
        log.Fatal().Err(err).Msg("server stopped")
    }
}

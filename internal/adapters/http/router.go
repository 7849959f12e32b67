// Package http wires the admin HTTP surface (§4.5) and the /rtc WebSocket
// upgrade endpoint (§4.1) onto a gin.Engine, following the teacher's
// gin.New()+Recovery()+sessions layering.
package http

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/tomlinvo/rtc-signal/internal/config"
	"github.com/tomlinvo/rtc-signal/internal/core"
	"github.com/tomlinvo/rtc-signal/internal/domain"
	"github.com/tomlinvo/rtc-signal/internal/transport/ws"
)

const banner = "rtc-signal: a 1:1 WebRTC signaling rendezvous. Connect to /rtc.\n"

func genClientToken() string { return uuid.NewString() }

// ClientTokenMiddleware assigns each browser a stable "ct" cookie used only
// to correlate repeated admin calls in the structured logs — never for
// authorization (spec §1 excludes auth from scope).
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SetupRouter builds the gin.Engine serving the admin endpoints and the
// WebSocket signaling endpoint at /rtc.
func SetupRouter(cfg *config.Config, coord *core.Coordinator, reg *core.Registry) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("rtc-signal", store))
	r.Use(ClientTokenMiddleware())

	log.Info().Str("module", "adapters.http").Msg("router setup")

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, banner)
	})

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	// GET /generate-code returns a freshly registered room code, per §4.5.
	r.GET("/generate-code", func(c *gin.Context) {
		code, err := reg.Generate()
		if err != nil {
			log.Warn().
				Str("module", "adapters.http").
				Str("ct", c.GetString("client_token")).
				Err(err).
				Msg("generate-code: resource exhausted")
			c.String(http.StatusServiceUnavailable, "resource exhausted")
			return
		}
		log.Info().
			Str("module", "adapters.http").
			Str("ct", c.GetString("client_token")).
			Str("room", string(code)).
			Msg("generated room code")
		c.String(http.StatusOK, string(code))
	})

	// GET /rooms — a supplemental, read-only introspection endpoint (see
	// SPEC_FULL.md §12). No mutation, nothing persisted.
	r.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, reg.Snapshot())
	})

	// DELETE /rooms/:code — a supplemental operator escape hatch: forcibly
	// evict a room without waiting for the empty-room GC grace period.
	r.DELETE("/rooms/:code", func(c *gin.Context) {
		code := domain.RoomCode(c.Param("code"))
		reg.Remove(code)
		log.Info().
			Str("module", "adapters.http").
			Str("ct", c.GetString("client_token")).
			Str("room", string(code)).
			Msg("room removed by operator")
		c.Status(http.StatusNoContent)
	})

	// GET /rtc — the WebSocket signaling endpoint (§4.1's transport).
	r.GET("/rtc", func(c *gin.Context) {
		wsConn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn().Err(err).Msg("ws upgrade failed")
			return
		}
		sid := core.SessionID(uuid.NewString())
		ws.Accept(coord, wsConn, sid, wsConfigFrom(cfg), log.Logger)
	})

	return r
}

func wsConfigFrom(cfg *config.Config) ws.Config {
	c := ws.DefaultConfig()
	if cfg.PingPeriod > 0 {
		c.PingPeriod = cfg.PingPeriod
	}
	if cfg.IdleTimeout > 0 {
		c.IdleTimeout = cfg.IdleTimeout
	}
	return c
}

package httpapi

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/dmitrijs2005/studioportal/internal/portal"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

// checkOrigin accepts same-host requests, requests without an Origin (non
// browser clients) and the configured CORS origins.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if slices.Contains(s.config.CORSOrigins, origin) {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && u.Host == r.Host
}

// realtime streams the events of one topic over a WebSocket. Users may
// subscribe to their own auth topic and to teams they can access.
func (s *Server) realtime(c *gin.Context) {
	actor := sessionOf(c)
	topic := c.Query("topic")

	kind, id, ok := portal.ParseTopic(topic)
	if !ok {
		badRequest(c, common.ErrorValidation)
		return
	}
	switch kind {
	case "auth":
		if id != actor.UserID {
			s.fail(c, common.ErrorForbidden)
			return
		}
	case "team":
		if err := s.svc.Teams.RequireAccess(c.Request.Context(), actor, id); err != nil {
			s.fail(c, err)
			return
		}
	}

	sub, err := s.broker.Subscribe(topic)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, ErrorBody{Error: err.Error(), Code: "unavailable"})
		return
	}
	defer sub.Close()

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn(c.Request.Context(), "websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	go s.drain(conn, cancel)

	s.logger.Debug(ctx, "realtime subscription opened", "topic", topic, "user_id", actor.UserID)

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			closeWS(conn, websocket.CloseGoingAway, "server shutting down")
			return
		case msg, ok := <-sub.C:
			if !ok {
				reason := "subscription closed"
				if sub.Evicted() {
					reason = "subscriber too slow"
				}
				closeWS(conn, websocket.CloseTryAgainLater, reason)
				return
			}
			ev := msg.Payload
			ev.Seq = msg.Seq
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(ev); err != nil {
				s.logger.Debug(ctx, "realtime write failed", "topic", topic, "error", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}

// drain reads and discards client frames so control frames are processed;
// it cancels once the peer goes away.
func (s *Server) drain(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

func closeWS(conn *websocket.Conn, code int, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), time.Now().Add(wsWriteWait))
}

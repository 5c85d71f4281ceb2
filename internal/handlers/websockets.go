package handlers

import (
	"context"
	"strconv"
	"time"

	"visiverse/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait    = 10 * time.Second
	wsPongWait     = 60 * time.Second
	wsPingPeriod   = wsPongWait * 9 / 10
	wsReadLimit    = 4 << 10
	pollDefault    = time.Second
	pollMax        = time.Minute
	envScanState   = "scan_state"
	envStateFailed = "error"
)

type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// The route sits behind userIdentity, so the default same-origin check covers
// cookie-authenticated browsers.
var upgrader = websocket.Upgrader{}

// scanFeed pushes the scan state to one client. A state is written on connect
// and afterwards only when it differs from the last one written.
type scanFeed struct {
	h    *Handler
	conn *websocket.Conn
	last *models.ScanState
}

// @Summary      Scan state stream
// @Description  WebSocket pushing {"type":"scan_state","data":ScanState} on connect and on every change. The poll period is set with ?interval=2s or ?interval_ms=2000 (max 1m).
// @Tags         library
// @Router       /ws [get]
// @Security     BearerAuth
func (h *Handler) wsConnect(c *gin.Context) {
	poll := pollInterval(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	closed := make(chan struct{})
	go h.drain(conn, closed)

	feed := &scanFeed{h: h, conn: conn}
	if err := feed.push(c.Request.Context()); err != nil {
		h.wsLog("ws_write_failed", err)
		return
	}
	feed.loop(c.Request.Context(), poll, closed)
}

func (f *scanFeed) loop(ctx context.Context, poll time.Duration, closed <-chan struct{}) {
	tick := time.NewTicker(poll)
	defer tick.Stop()
	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			_ = f.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := f.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				f.h.wsLog("ws_ping_failed", err)
				return
			}
		case <-tick.C:
			if err := f.push(ctx); err != nil {
				f.h.wsLog("ws_write_failed", err)
				return
			}
		}
	}
}

// push writes the current state if it changed. Lookup failures are reported to
// the client and forget the last state so the next success is always written.
func (f *scanFeed) push(ctx context.Context) error {
	st, err := f.h.services.Monitoring.GetScanState(ctx)
	if err != nil {
		if f.h.log != nil {
			f.h.log.Errorw("ws_get_state_failed", "err", err)
		}
		f.last = nil
		return f.write(wsEnvelope{Type: envStateFailed, Error: "failed to load scan state"})
	}
	if f.last != nil && sameState(*f.last, st) {
		return nil
	}
	if err := f.write(wsEnvelope{Type: envScanState, Data: st}); err != nil {
		return err
	}
	f.last = &st
	return nil
}

func sameState(a, b models.ScanState) bool {
	at, bt := a.LastScanAt, b.LastScanAt
	a.LastScanAt, b.LastScanAt = time.Time{}, time.Time{}
	return a == b && at.Equal(bt)
}

func (f *scanFeed) write(env wsEnvelope) error {
	_ = f.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return f.conn.WriteJSON(env)
}

// drain reads and discards client frames so control frames are processed, and
// closes closed when the peer goes away.
func (h *Handler) drain(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.wsLog("ws_read_closed", err)
			return
		}
	}
}

func (h *Handler) wsLog(key string, err error) {
	if h.log != nil {
		h.log.Infow(key, "err", err)
	}
}

// pollInterval reads ?interval (a duration) or ?interval_ms. Out-of-range or
// unparsable values fall back to the default; interval wins when both are valid.
func pollInterval(c *gin.Context) time.Duration {
	if d, err := time.ParseDuration(c.Query("interval")); err == nil && d > 0 && d <= pollMax {
		return d
	}
	if ms, err := strconv.Atoi(c.Query("interval_ms")); err == nil && ms > 0 && time.Duration(ms)*time.Millisecond <= pollMax {
		return time.Duration(ms) * time.Millisecond
	}
	return pollDefault
}

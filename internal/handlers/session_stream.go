package handlers

import (
	"context"
	"time"

	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/gatehouse/internal/middleware"
	"github.com/nfrund/gatehouse/internal/rendering"
	"github.com/nfrund/gatehouse/internal/session"
	"github.com/nfrund/gatehouse/web/src/templates/pages"
)

const writeTimeout = 5 * time.Second

// SessionStream pushes session-change notifications to the landing page
// over a websocket, as out-of-band htmx fragments.
type SessionStream struct {
	gateway  Gateway
	renderer rendering.Renderer
	now      func() time.Time
}

// NewSessionStream creates a new SessionStream.
func NewSessionStream(gateway Gateway, renderer rendering.Renderer) *SessionStream {
	return &SessionStream{gateway: gateway, renderer: renderer, now: time.Now}
}

// ServeWS handles GET /ws/session.
func (s *SessionStream) ServeWS(c echo.Context) error {
	sid := middleware.SessionIDFrom(c)
	logger := middleware.FromContext(c.Request().Context())

	conn, err := websocket.Accept(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("Failed to upgrade session WebSocket", "error", err)
		return err
	}
	defer conn.CloseNow()

	updates, stop := s.gateway.Watch(sid)
	defer stop()

	// The client never sends; CloseRead handles control frames and cancels
	// ctx when the peer goes away.
	ctx := conn.CloseRead(context.Background())

	current := s.gateway.CurrentSession(ctx, sid)
	expiry := s.expiryTimer(current)
	defer expiry.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-expiry.C:
			// Reading an expired session publishes its expiry, which
			// arrives on updates.
			s.gateway.CurrentSession(ctx, sid)
		case st := <-updates:
			if st.Expired(s.now()) {
				st.Present = false
			}
			if err := s.push(ctx, conn, st); err != nil {
				logger.Debug("Session WebSocket closed", "error", err)
				return nil
			}
			expiry.Stop()
			expiry = s.expiryTimer(st)
		}
	}
}

func (s *SessionStream) push(ctx context.Context, conn *websocket.Conn, st session.State) error {
	html, err := s.renderer.RenderComponent(ctx, pages.SessionBanner(st))
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, html)
}

// expiryTimer fires when st expires. It never fires for an absent state or
// one without an expiry.
func (s *SessionStream) expiryTimer(st session.State) *time.Timer {
	t := time.NewTimer(time.Hour)
	t.Stop()
	if st.Present && !st.ExpiresAt.IsZero() {
		t.Reset(st.ExpiresAt.Sub(s.now()))
	}
	return t
}

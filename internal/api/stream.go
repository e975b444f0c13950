package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/lalith-99/notevault/internal/auth"
	"github.com/lalith-99/notevault/internal/events"
	"github.com/lalith-99/notevault/internal/httperr"
	"github.com/lalith-99/notevault/internal/middleware"
	"go.uber.org/zap"
)

const (
	wsWriteWait    = 10 * time.Second
	wsPongWait     = 60 * time.Second
	wsPingInterval = (wsPongWait * 9) / 10
	wsMaxReadSize  = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// The bearer token is the credential here, not a cookie, so a
		// cross-origin page can't ride on the user's session.
		return true
	},
}

// StreamHandler pushes the caller's tenant's note events over a websocket.
type StreamHandler struct {
	gate   *auth.Gate
	bus    events.Bus
	logger *zap.Logger
}

func NewStreamHandler(gate *auth.Gate, bus events.Bus, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{gate: gate, bus: bus, logger: logger}
}

// Stream handles GET /v1/notes/stream
//
// Flow:
//  1. Gate: anyone who may read notes may watch them.
//  2. Subscribe to the tenant's channel BEFORE upgrading, so failures can
//     still be plain HTTP errors and no event is lost after the handshake.
//  3. Upgrade, then pump events out until either side goes away.
//
// The subscription is bound to the tenant in the token. There is no way
// to ask for another tenant's feed.
//
// The token is re-resolved before every event and on every ping. When
// that fails, or the token expires, the socket is closed with 1008
// (policy violation).
func (h *StreamHandler) Stream(c *gin.Context) {
	actor := middleware.GetIdentity(c)
	if err := h.gate.Authorize(actor, auth.ActionRead); err != nil {
		httperr.Abort(c, h.logger, err)
		return
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request.Context()))
	defer cancel()

	sub, err := h.bus.Subscribe(ctx, actor.TenantID)
	if err != nil {
		httperr.Abort(c, h.logger, err)
		return
	}
	defer sub.Close()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.logger.Debug("note stream opened",
		zap.String("tenant_id", actor.TenantID.String()),
		zap.String("user_id", actor.ID.String()),
	)

	sess := &streamSession{
		gate:      h.gate,
		header:    c.GetHeader("Authorization"),
		userID:    actor.ID,
		expiresAt: middleware.GetTokenExpiry(c),
	}

	go readPump(conn, cancel)
	h.writePump(ctx, conn, sub, sess)
}

// streamSession is what a stream needs to re-check its caller.
type streamSession struct {
	gate      *auth.Gate
	header    string
	userID    uuid.UUID
	expiresAt time.Time
}

// recheck re-runs the gate's identity and read checks for the token the
// stream was opened with.
func (s *streamSession) recheck(ctx context.Context) error {
	user, _, err := s.gate.Session(ctx, s.header)
	if err != nil {
		return err
	}
	if user.ID != s.userID {
		return auth.ErrUnauthenticated
	}
	return s.gate.Authorize(user, auth.ActionRead)
}

// readPump discards client messages and cancels the stream when the
// client disconnects or stops answering pings.
func readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(wsMaxReadSize)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *StreamHandler) writePump(ctx context.Context, conn *websocket.Conn, sub events.Subscription, sess *streamSession) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	expiry := time.NewTimer(time.Until(sess.expiresAt))
	defer expiry.Stop()

	for {
		select {
		case <-ctx.Done():
			closeStream(conn, websocket.CloseNormalClosure, "")
			return
		case <-expiry.C:
			h.logger.Debug("note stream token expired", zap.String("user_id", sess.userID.String()))
			closeStream(conn, websocket.ClosePolicyViolation, "token expired")
			return
		case ev, ok := <-sub.C():
			if !ok {
				return
			}
			if err := sess.recheck(ctx); err != nil {
				h.revoked(conn, sess, err)
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(ev); err != nil {
				h.logger.Debug("note stream write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := sess.recheck(ctx); err != nil {
				h.revoked(conn, sess, err)
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *StreamHandler) revoked(conn *websocket.Conn, sess *streamSession, err error) {
	h.logger.Info("note stream access revoked",
		zap.String("user_id", sess.userID.String()),
		zap.Error(err),
	)
	closeStream(conn, websocket.ClosePolicyViolation, "access revoked")
}

func closeStream(conn *websocket.Conn, code int, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(wsWriteWait))
}

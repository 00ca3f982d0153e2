package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/formcraft-backend/internal/config"
	"github.com/stemsi/formcraft-backend/internal/response"
	"github.com/stemsi/formcraft-backend/internal/service"
	ws "github.com/stemsi/formcraft-backend/internal/websocket"
)

const wsPingInterval = 30 * time.Second

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams builder session state. Drag gestures can also be
// driven over the socket, which keeps high-frequency drag-over updates off
// the REST path.
type WSHandler struct {
	rdb            *redis.Client
	builderService *service.BuilderService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(rdb *redis.Client, builderService *service.BuilderService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		rdb:            rdb,
		builderService: builderService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// BuilderStream godoc
// WS /ws/v1/builder/sessions/:id/stream
// Sends a snapshot, then every state change published for the session.
func (h *WSHandler) BuilderStream(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	reqCtx := c.Request.Context()
	sess, err := h.builderService.Get(reqCtx, sessionID)
	if err != nil {
		writeError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Str("session_id", sessionID.String()).Logger()
	wsLog.Info().Msg("Editor connected")

	ctx, cancel := context.WithCancel(reqCtx)
	defer cancel()

	pubsub := h.rdb.Subscribe(ctx, config.CacheKey.BuilderEventsChannel(sessionID.String()))
	defer pubsub.Close()
	ch := pubsub.Channel()

	if err := ws.WriteTyped(conn, ws.SnapshotResponse{Event: ws.EventSnapshot, Session: sess}); err != nil {
		return
	}

	// gorilla allows one concurrent writer, so the reader only hands
	// requests over and every write happens in the loop below.
	requests := make(chan ws.RequestEnvelope)
	go func() {
		defer cancel()
		for {
			env, err := ws.ReadEnvelope(conn)
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				} else {
					wsLog.Debug().Msg("Connection closed")
				}
				return
			}
			select {
			case requests <- env:
			case <-ctx.Done():
				return
			}
		}
	}()

	pingTicker := time.NewTicker(wsPingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			wsLog.Info().Msg("Editor disconnected")
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := ws.WriteRaw(conn, stateFrame(msg.Payload)); err != nil {
				return
			}

		case env := <-requests:
			h.handleAction(ctx, conn, wsLog, sessionID, env)

		case <-pingTicker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleAction applies one socket action. Successful changes reach the
// client through the pub/sub channel, so only errors and pongs are
// answered directly.
func (h *WSHandler) handleAction(ctx context.Context, conn *websocket.Conn, wsLog zerolog.Logger, sessionID uuid.UUID, env ws.RequestEnvelope) {
	var err error
	switch env.Action {
	case ws.ActionPing:
		_ = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		return

	case ws.ActionDragStart:
		var req ws.DragStartRequest
		if json.Unmarshal(env.Raw, &req) != nil {
			_ = ws.WriteError(conn, string(response.ErrInvalidPayload), "invalid drag_start payload")
			return
		}
		_, err = h.builderService.DragStart(ctx, sessionID, req.Payload)

	case ws.ActionDragOver:
		var req ws.DragOverRequest
		if json.Unmarshal(env.Raw, &req) != nil {
			_ = ws.WriteError(conn, string(response.ErrInvalidPayload), "invalid drag_over payload")
			return
		}
		_, err = h.builderService.DragOver(ctx, sessionID, req.Index)

	case ws.ActionDrop:
		_, _, err = h.builderService.Drop(ctx, sessionID)

	case ws.ActionCancel:
		_, err = h.builderService.Cancel(ctx, sessionID)

	default:
		wsLog.Warn().Str("action", string(env.Action)).Msg("Unknown action")
		_ = ws.WriteError(conn, string(response.ErrInvalidPayload), "unknown action: "+string(env.Action))
		return
	}

	if err != nil {
		_ = ws.WriteError(conn, string(errorCodeOf(err)), err.Error())
	}
}

// stateFrame wraps a published builder event into a ws.StateResponse
// without decoding it.
func stateFrame(payload string) []byte {
	var b strings.Builder
	b.Grow(len(payload) + 32)
	b.WriteString(`{"event":"`)
	b.WriteString(string(ws.EventState))
	b.WriteString(`","state":`)
	b.WriteString(payload)
	b.WriteString(`}`)
	return []byte(b.String())
}

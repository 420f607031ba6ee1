package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/facetlabs/facet/internal/domain/filter"
	"github.com/facetlabs/facet/internal/domain/lifecycle"
	"github.com/facetlabs/facet/internal/domain/registry"
	"github.com/facetlabs/facet/internal/domain/session"
	"github.com/facetlabs/facet/internal/infrastructure/logging"
	"github.com/facetlabs/facet/internal/infrastructure/monitoring"
	"github.com/facetlabs/facet/internal/shared/types"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS policy is enforced by the HTTP middleware
	},
}

// SessionFactory builds a session bound to a connection's presenter and
// progress sink. The bookmark is the raw filter snapshot restored at
// registry-build time, if the client supplied one.
type SessionFactory func(p lifecycle.Presenter, sink registry.Sink, bookmark any) (*session.Session, error)

// Handler manages WebSocket connections: one session per connection.
type Handler struct {
	factory SessionFactory
	manager *session.Manager
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// NewHandler creates a WebSocket handler.
func NewHandler(factory SessionFactory, manager *session.Manager, logger *logging.Logger) *Handler {
	return &Handler{
		factory: factory,
		manager: manager,
		logger:  logger,
	}
}

// WithMetrics adds metrics tracking to the handler.
func (h *Handler) WithMetrics(metrics *monitoring.Metrics) *Handler {
	h.metrics = metrics
	return h
}

// HandleConnection upgrades the request and drives one session: splash
// first, lifecycle watch in the background, then the client message loop.
// Closing the connection cancels the session context, which releases the
// resolver subscription and any pending progress indicator.
func (h *Handler) HandleConnection(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer ws.Close()

	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}

	wc := newConn(ws)
	sink := newProgressSink(wc)

	sess, err := h.factory(&presenter{conn: wc}, sink, parseBookmark(c.Query("bookmark")))
	if err != nil {
		wc.send(map[string]any{"type": types.MsgError, "message": err.Error()})
		return
	}

	h.manager.Add(sess)
	defer h.manager.Remove(sess.ID)

	log := h.logger.ForSession(sess.ID.String())
	log.Info("session connected")

	wc.send(map[string]any{
		"type":       types.MsgSplash,
		"session_id": sess.ID.String(),
		"title":      sess.Title(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		start := time.Now()
		err := sess.Run(ctx)
		switch {
		case err == nil:
			if sess.State() == lifecycle.StateActive {
				log.Info("session active",
					zap.Duration("startup", time.Since(start)),
				)
				wc.send(map[string]any{"type": types.MsgActive})
			}
		case errors.Is(err, context.Canceled):
			// Disconnect while awaiting data.
		default:
			log.Error("session failed", zap.Error(err))
			if h.metrics != nil {
				h.metrics.RecordBuildError()
			}
			wc.send(map[string]any{
				"type":    types.MsgError,
				"fatal":   true,
				"message": err.Error(),
			})
			ws.Close()
		}
	}()

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			log.Info("session disconnected")
			return
		}
		msg, err := types.Decode(raw)
		if err != nil {
			wc.send(map[string]any{"type": types.MsgError, "message": "malformed message"})
			continue
		}
		if h.metrics != nil {
			h.metrics.RecordWSMessage("in", msg.Type)
		}
		h.dispatch(wc, sess, msg)
	}
}

func (h *Handler) dispatch(wc *conn, sess *session.Session, msg types.ClientMessage) {
	switch msg.Type {
	case types.MsgPing:
		wc.send(map[string]any{"type": types.MsgPong})

	case types.MsgTimezone:
		stored := sess.SetTimezone(msg.Timezone)
		wc.send(map[string]any{"type": types.MsgAck, "stored": stored})

	case types.MsgSetFilter:
		h.handleSetFilter(wc, sess, msg)

	case types.MsgClearFilter:
		filters := sess.Filters()
		if filters == nil {
			wc.send(map[string]any{"type": types.MsgError, "message": "session not active"})
			return
		}
		filters.Clear(msg.Dataset)
		wc.send(map[string]any{"type": types.MsgAck, "version": filters.Version()})

	case types.MsgModuleAction:
		h.handleModuleAction(wc, sess, msg)

	default:
		wc.send(map[string]any{"type": types.MsgError, "message": fmt.Sprintf("unknown message type %q", msg.Type)})
	}
}

func (h *Handler) handleSetFilter(wc *conn, sess *session.Session, msg types.ClientMessage) {
	filters := sess.Filters()
	if filters == nil {
		wc.send(map[string]any{"type": types.MsgError, "message": "session not active"})
		return
	}
	if msg.Filter == nil {
		wc.send(map[string]any{"type": types.MsgError, "message": "set_filter requires a filter payload"})
		return
	}
	pred := filter.Predicate{
		Dataset: msg.Filter.Dataset,
		Column:  msg.Filter.Column,
		Op:      filter.Op(msg.Filter.Op),
		Value:   msg.Filter.Value,
	}
	if pred.Dataset == "" || pred.Column == "" || !filter.ValidOp(pred.Op) {
		wc.send(map[string]any{"type": types.MsgError, "message": "invalid filter predicate"})
		return
	}
	filters.Add(pred)
	wc.send(map[string]any{"type": types.MsgAck, "version": filters.Version()})
}

// handleModuleAction routes previewer actions. Reset applies immediately;
// download is served over HTTP, so the ack carries the artifact path.
func (h *Handler) handleModuleAction(wc *conn, sess *session.Session, msg types.ClientMessage) {
	if sess.State() != lifecycle.StateActive {
		wc.send(map[string]any{"type": types.MsgError, "message": "session not active"})
		return
	}
	switch msg.Action {
	case "reset":
		sess.Reporter().Reset()
		wc.send(map[string]any{"type": types.MsgAck})
	case "download":
		wc.send(map[string]any{
			"type": types.MsgAck,
			"url":  fmt.Sprintf("/sessions/%s/report", sess.ID),
		})
	default:
		wc.send(map[string]any{"type": types.MsgError, "message": fmt.Sprintf("unknown action %q", msg.Action)})
	}
}

// parseBookmark decodes the optional bookmark query parameter. Anything
// that fails to decode is passed through raw; the filter restore path
// classifies and falls back as needed.
func parseBookmark(raw string) any {
	if raw == "" {
		return nil
	}
	var decoded any
	if err := sonic.Unmarshal([]byte(raw), &decoded); err != nil {
		return raw
	}
	return decoded
}

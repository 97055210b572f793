package webchat

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/net/websocket"

	"github.com/wolfman30/geecurly-receptionist/internal/http/handlers"
	"github.com/wolfman30/geecurly-receptionist/internal/receptionist"
	"github.com/wolfman30/geecurly-receptionist/internal/transcript"
	"github.com/wolfman30/geecurly-receptionist/pkg/logging"
)

//go:embed widget.js
var defaultWidgetJS []byte

const historyLimit = 100

// Sessions creates and finds chat sessions. *receptionist.Manager satisfies it.
type Sessions interface {
	Create(location string) *receptionist.Session
	Get(id string) (*receptionist.Session, error)
}

// TranscriptReader reads chat history.
type TranscriptReader interface {
	List(ctx context.Context, sessionID string, limit int64) ([]transcript.Entry, error)
}

// Handler serves the chat widget over WebSocket and plain HTTP.
type Handler struct {
	sessions   Sessions
	transcript TranscriptReader
	logger     *logging.Logger
	widgetJS   []byte

	mu    sync.RWMutex
	conns map[string]*websocket.Conn
}

// InboundMessage is a widget frame: start, message, back, reset or ping.
type InboundMessage struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Location string `json:"location,omitempty"`
}

// OutboundMessage is a server frame: session, typing, message, history, error or pong.
type OutboundMessage struct {
	Type      string                 `json:"type"`
	SessionID string                 `json:"session_id,omitempty"`
	Step      receptionist.Step      `json:"step,omitempty"`
	Message   *receptionist.Message  `json:"message,omitempty"`
	Messages  []receptionist.Message `json:"messages,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// TurnResponse is the HTTP reply for start, message, back and reset.
type TurnResponse struct {
	SessionID string               `json:"session_id"`
	Step      receptionist.Step    `json:"step"`
	Message   receptionist.Message `json:"message"`
}

// HistoryMessage is one transcript line in a history reply.
type HistoryMessage struct {
	Sender     string  `json:"sender"`
	Text       string  `json:"text"`
	Type       string  `json:"type,omitempty"`
	Step       string  `json:"step,omitempty"`
	Timestamp  string  `json:"timestamp"`
	Confidence float64 `json:"confidence,omitempty"`
}

// NewHandler builds the chat handler. A nil widgetJS serves the bundled widget.
func NewHandler(sessions Sessions, transcripts TranscriptReader, widgetJS []byte, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if len(widgetJS) == 0 {
		widgetJS = defaultWidgetJS
	}
	return &Handler{
		sessions:   sessions,
		transcript: transcripts,
		logger:     logger,
		widgetJS:   widgetJS,
		conns:      make(map[string]*websocket.Conn),
	}
}

// HandleWebSocket upgrades to WebSocket. ?session= resumes a live session, ?location= picks the branch for a new one.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	sess, resumed := h.lookup(q.Get("session"))
	if sess == nil {
		sess = h.sessions.Create(q.Get("location"))
	}
	id := sess.ID()

	h.mu.Lock()
	if prev, ok := h.conns[id]; ok {
		_ = prev.Close()
	}
	h.conns[id] = conn
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		if h.conns[id] == conn {
			delete(h.conns, id)
		}
		h.mu.Unlock()
	}()

	h.logger.Info("webchat: connection opened", "session_id", id, "resumed", resumed)
	_ = websocket.JSON.Send(conn, OutboundMessage{Type: "session", SessionID: id, Step: sess.State().Step})

	if resumed {
		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "history", SessionID: id, Messages: sess.Messages()})
	} else {
		h.sendTyping(conn, id)
		msg, err := sess.Start(ctx)
		h.sendTurn(conn, sess, msg, err)
	}

	for {
		var in InboundMessage
		if err := websocket.JSON.Receive(conn, &in); err != nil {
			h.logger.Debug("webchat: connection closed", "session_id", id, "error", err)
			return
		}

		switch in.Type {
		case "ping":
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "pong"})
		case "message":
			if strings.TrimSpace(in.Text) == "" {
				continue
			}
			h.sendTyping(conn, id)
			msg, err := sess.Send(ctx, in.Text)
			h.sendTurn(conn, sess, msg, err)
		case "back":
			h.sendTyping(conn, id)
			msg, err := sess.Back(ctx)
			h.sendTurn(conn, sess, msg, err)
		case "reset":
			msg, err := sess.Reset(ctx)
			h.sendTurn(conn, sess, msg, err)
		default:
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "error", Error: "unknown frame type"})
		}
	}
}

func (h *Handler) lookup(id string) (*receptionist.Session, bool) {
	if id == "" {
		return nil, false
	}
	sess, err := h.sessions.Get(id)
	if err != nil {
		return nil, false
	}
	return sess, true
}

func (h *Handler) sendTyping(conn *websocket.Conn, id string) {
	_ = websocket.JSON.Send(conn, OutboundMessage{Type: "typing", SessionID: id})
}

func (h *Handler) sendTurn(conn *websocket.Conn, sess *receptionist.Session, msg receptionist.Message, err error) {
	if err != nil {
		if errors.Is(err, receptionist.ErrTurnDiscarded) {
			return
		}
		h.logger.Warn("webchat: turn failed", "session_id", sess.ID(), "error", err)
		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "error", SessionID: sess.ID(), Error: errorText(err)})
		return
	}
	_ = websocket.JSON.Send(conn, OutboundMessage{Type: "message", SessionID: sess.ID(), Step: sess.State().Step, Message: &msg})
}

// ActiveConnections is the number of open sockets.
func (h *Handler) ActiveConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

type startRequest struct {
	Location string `json:"location"`
}

type turnRequest struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

// HandleStart opens a session and returns the welcome message.
// POST /chat/start
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			handlers.JSONError(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}
	if req.Location == "" {
		req.Location = r.URL.Query().Get("location")
	}
	sess := h.sessions.Create(req.Location)
	msg, err := sess.Start(r.Context())
	h.writeTurn(w, sess, msg, err)
}

// HandleMessage is the HTTP fallback for one visitor message.
// POST /chat/message
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	sess, req, ok := h.turnSession(w, r)
	if !ok {
		return
	}
	msg, err := sess.Send(r.Context(), req.Text)
	h.writeTurn(w, sess, msg, err)
}

// HandleBack steps the conversation back one step.
// POST /chat/back
func (h *Handler) HandleBack(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := h.turnSession(w, r)
	if !ok {
		return
	}
	msg, err := sess.Back(r.Context())
	h.writeTurn(w, sess, msg, err)
}

// HandleReset starts the conversation over.
// POST /chat/reset
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := h.turnSession(w, r)
	if !ok {
		return
	}
	msg, err := sess.Reset(r.Context())
	h.writeTurn(w, sess, msg, err)
}

func (h *Handler) turnSession(w http.ResponseWriter, r *http.Request) (*receptionist.Session, turnRequest, bool) {
	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.JSONError(w, "invalid request body", http.StatusBadRequest)
		return nil, req, false
	}
	if req.SessionID == "" {
		req.SessionID = r.Header.Get("X-Session-Id")
	}
	if req.SessionID == "" {
		handlers.JSONError(w, "session_id is required", http.StatusBadRequest)
		return nil, req, false
	}
	sess, err := h.sessions.Get(req.SessionID)
	if err != nil {
		handlers.JSONError(w, errorText(err), statusFor(err))
		return nil, req, false
	}
	return sess, req, true
}

func (h *Handler) writeTurn(w http.ResponseWriter, sess *receptionist.Session, msg receptionist.Message, err error) {
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("webchat: turn failed", "session_id", sess.ID(), "error", err)
		}
		handlers.JSONError(w, errorText(err), status)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, TurnResponse{SessionID: sess.ID(), Step: sess.State().Step, Message: msg})
}

// HandleHistory returns the stored transcript, or the live session's messages when no store is configured.
// GET /chat/history?session=
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("session")
	if id == "" {
		handlers.JSONError(w, "session parameter required", http.StatusBadRequest)
		return
	}

	if h.transcript == nil {
		sess, err := h.sessions.Get(id)
		if err != nil {
			handlers.WriteJSON(w, http.StatusOK, map[string]any{"messages": []HistoryMessage{}})
			return
		}
		handlers.WriteJSON(w, http.StatusOK, map[string]any{"messages": historyFromMessages(sess.Messages())})
		return
	}

	entries, err := h.transcript.List(r.Context(), id, historyLimit)
	if err != nil {
		h.logger.Error("webchat: failed to load history", "error", err, "session_id", id)
		handlers.JSONError(w, "failed to load history", http.StatusInternalServerError)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, map[string]any{"messages": historyFromEntries(entries)})
}

// HandleWidgetJS serves the embeddable widget script.
// GET /chat/widget.js
func (h *Handler) HandleWidgetJS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	_, _ = w.Write(h.widgetJS)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, receptionist.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, receptionist.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, receptionist.ErrTurnInFlight), errors.Is(err, receptionist.ErrTurnDiscarded):
		return http.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorText(err error) string {
	switch {
	case errors.Is(err, receptionist.ErrSessionNotFound):
		return "session not found or expired"
	case errors.Is(err, receptionist.ErrEmptyInput):
		return "text is required"
	case errors.Is(err, receptionist.ErrTurnInFlight):
		return "please wait for the current reply"
	case errors.Is(err, receptionist.ErrTurnDiscarded):
		return "conversation was reset"
	default:
		return "something went wrong, please try again"
	}
}

package webchat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/wolfman30/geecurly-receptionist/internal/bookings"
	"github.com/wolfman30/geecurly-receptionist/internal/catalog"
	"github.com/wolfman30/geecurly-receptionist/internal/kvstore"
	"github.com/wolfman30/geecurly-receptionist/internal/receptionist"
	"github.com/wolfman30/geecurly-receptionist/internal/transcript"
	"github.com/wolfman30/geecurly-receptionist/pkg/logging"
)

func newTestHandler(t *testing.T, withTranscript bool) (*Handler, *receptionist.Manager) {
	t.Helper()
	logger := logging.New("error")
	now := func() time.Time { return time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC) }
	flow := receptionist.NewFlow(
		catalog.NewInMemory(nil, nil, logger),
		bookings.NewService(bookings.NewMemoryRepository(), nil, logger),
		logger,
		receptionist.WithClock(now),
	)

	var store transcript.Store
	var reader TranscriptReader
	if withTranscript {
		ms := transcript.NewMemoryStore()
		store, reader = ms, ms
	}
	mgr := receptionist.NewManager(flow, kvstore.NewMemory(), store, receptionist.ManagerConfig{DefaultLocation: "kiambu"}, logger, nil)
	return NewHandler(mgr, reader, []byte("// widget"), logger), mgr
}

func testRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/chat/ws", h.HandleWebSocket)
	r.Post("/chat/start", h.HandleStart)
	r.Post("/chat/message", h.HandleMessage)
	r.Post("/chat/back", h.HandleBack)
	r.Post("/chat/reset", h.HandleReset)
	r.Get("/chat/history", h.HandleHistory)
	r.Get("/chat/widget.js", h.HandleWidgetJS)
	return r
}

func post(t *testing.T, router http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeTurn(t *testing.T, rec *httptest.ResponseRecorder) TurnResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp TurnResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestStartAndMessageOverHTTP(t *testing.T) {
	h, mgr := newTestHandler(t, true)
	router := testRouter(h)

	start := decodeTurn(t, post(t, router, "/chat/start", `{"location":"Roysambu"}`))
	require.NotEmpty(t, start.SessionID)
	assert.Equal(t, receptionist.StepGreeting, start.Step)
	assert.Equal(t, receptionist.TypeWelcome, start.Message.Type)
	assert.Equal(t, receptionist.SenderBot, start.Message.Sender)

	sess, err := mgr.Get(start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "roysambu", sess.State().Location)

	resp := decodeTurn(t, post(t, router, "/chat/message", `{"session_id":"`+start.SessionID+`","text":"book"}`))
	assert.Equal(t, receptionist.StepLocationSelection, resp.Step)
	assert.Equal(t, receptionist.TypeBooking, resp.Message.Type)
}

func TestStartWithoutBody(t *testing.T) {
	h, _ := newTestHandler(t, false)
	req := httptest.NewRequest(http.MethodPost, "/chat/start", nil)
	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, req)
	resp := decodeTurn(t, rec)
	assert.Equal(t, receptionist.StepGreeting, resp.Step)
}

func TestBackAndResetOverHTTP(t *testing.T) {
	h, _ := newTestHandler(t, false)
	router := testRouter(h)

	id := decodeTurn(t, post(t, router, "/chat/start", `{}`)).SessionID
	decodeTurn(t, post(t, router, "/chat/message", `{"session_id":"`+id+`","text":"book"}`))
	decodeTurn(t, post(t, router, "/chat/message", `{"session_id":"`+id+`","text":"Kiambu Road"}`))

	back := decodeTurn(t, post(t, router, "/chat/back", `{"session_id":"`+id+`"}`))
	assert.Equal(t, receptionist.StepLocationSelection, back.Step)

	reset := decodeTurn(t, post(t, router, "/chat/reset", `{"session_id":"`+id+`"}`))
	assert.Equal(t, receptionist.StepGreeting, reset.Step)
	assert.Equal(t, receptionist.TypeWelcome, reset.Message.Type)
}

func TestTurnErrorsMapToStatus(t *testing.T) {
	h, _ := newTestHandler(t, false)
	router := testRouter(h)
	id := decodeTurn(t, post(t, router, "/chat/start", `{}`)).SessionID

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"bad json", "/chat/message", `{`, http.StatusBadRequest},
		{"missing session", "/chat/message", `{"text":"hi"}`, http.StatusBadRequest},
		{"unknown session", "/chat/message", `{"session_id":"nope","text":"hi"}`, http.StatusNotFound},
		{"blank text", "/chat/message", `{"session_id":"` + id + `","text":"   "}`, http.StatusBadRequest},
		{"unknown session back", "/chat/back", `{"session_id":"nope"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, router, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, statusFor(receptionist.ErrTurnInFlight))
	assert.Equal(t, http.StatusConflict, statusFor(receptionist.ErrTurnDiscarded))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(context.DeadlineExceeded))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}

func TestHistoryFromTranscript(t *testing.T) {
	h, _ := newTestHandler(t, true)
	router := testRouter(h)
	id := decodeTurn(t, post(t, router, "/chat/start", `{}`)).SessionID
	decodeTurn(t, post(t, router, "/chat/message", `{"session_id":"`+id+`","text":"book"}`))

	req := httptest.NewRequest(http.MethodGet, "/chat/history?session="+id, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Messages []HistoryMessage `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Messages, 3)
	assert.Equal(t, "bot", resp.Messages[0].Sender)
	assert.Equal(t, "user", resp.Messages[1].Sender)
	assert.Equal(t, "book", resp.Messages[1].Text)
	assert.Equal(t, string(receptionist.StepLocationSelection), resp.Messages[2].Step)
}

func TestHistoryFallsBackToSession(t *testing.T) {
	h, _ := newTestHandler(t, false)
	router := testRouter(h)
	id := decodeTurn(t, post(t, router, "/chat/start", `{}`)).SessionID

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chat/history?session="+id, nil))
	var resp struct {
		Messages []HistoryMessage `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, string(receptionist.TypeWelcome), resp.Messages[0].Type)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chat/history", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleWidgetJS(t *testing.T) {
	h, _ := newTestHandler(t, false)
	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chat/widget.js", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/javascript", rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "// widget", rec.Body.String())
}

func TestBundledWidgetIsServedByDefault(t *testing.T) {
	h := NewHandler(nil, nil, nil, nil)
	assert.Contains(t, string(h.widgetJS), "/chat/ws")
}

func dialWS(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/ws" + query
	conn, err := websocket.Dial(url, "", srv.URL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func receive(t *testing.T, conn *websocket.Conn) OutboundMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var out OutboundMessage
	require.NoError(t, websocket.JSON.Receive(conn, &out))
	return out
}

// receiveType skips frames until one of the given type arrives.
func receiveType(t *testing.T, conn *websocket.Conn, typ string) OutboundMessage {
	t.Helper()
	for {
		out := receive(t, conn)
		if out.Type == typ {
			return out
		}
	}
}

func TestWebSocketConversation(t *testing.T) {
	h, _ := newTestHandler(t, true)
	srv := httptest.NewServer(testRouter(h))
	defer srv.Close()

	conn := dialWS(t, srv, "?location=kiambu")

	first := receive(t, conn)
	require.Equal(t, "session", first.Type)
	require.NotEmpty(t, first.SessionID)

	welcome := receiveType(t, conn, "message")
	require.NotNil(t, welcome.Message)
	assert.Equal(t, receptionist.TypeWelcome, welcome.Message.Type)

	require.NoError(t, websocket.JSON.Send(conn, InboundMessage{Type: "ping"}))
	assert.Equal(t, "pong", receive(t, conn).Type)

	require.NoError(t, websocket.JSON.Send(conn, InboundMessage{Type: "message", Text: "book"}))
	assert.Equal(t, "typing", receive(t, conn).Type)
	reply := receive(t, conn)
	require.Equal(t, "message", reply.Type)
	assert.Equal(t, receptionist.StepLocationSelection, reply.Step)

	require.NoError(t, websocket.JSON.Send(conn, InboundMessage{Type: "back"}))
	back := receiveType(t, conn, "message")
	assert.Equal(t, receptionist.StepGreeting, back.Step)

	require.NoError(t, websocket.JSON.Send(conn, InboundMessage{Type: "nonsense"}))
	assert.Equal(t, "error", receive(t, conn).Type)

	require.NoError(t, websocket.JSON.Send(conn, InboundMessage{Type: "reset"}))
	reset := receive(t, conn)
	require.Equal(t, "message", reset.Type)
	assert.Equal(t, receptionist.TypeWelcome, reset.Message.Type)
}

func TestWebSocketResumeSendsHistory(t *testing.T) {
	h, mgr := newTestHandler(t, false)
	srv := httptest.NewServer(testRouter(h))
	defer srv.Close()

	sess := mgr.Create("kiambu")
	_, err := sess.Start(context.Background())
	require.NoError(t, err)
	_, err = sess.Send(context.Background(), "book")
	require.NoError(t, err)

	conn := dialWS(t, srv, "?session="+sess.ID())
	first := receive(t, conn)
	require.Equal(t, "session", first.Type)
	assert.Equal(t, sess.ID(), first.SessionID)
	assert.Equal(t, receptionist.StepLocationSelection, first.Step)

	history := receive(t, conn)
	require.Equal(t, "history", history.Type)
	assert.Len(t, history.Messages, 3)
	assert.Equal(t, 1, mgr.Len())
}

func TestWebSocketUnknownSessionStartsFresh(t *testing.T) {
	h, mgr := newTestHandler(t, false)
	srv := httptest.NewServer(testRouter(h))
	defer srv.Close()

	conn := dialWS(t, srv, "?session=expired")
	first := receive(t, conn)
	require.Equal(t, "session", first.Type)
	assert.NotEqual(t, "expired", first.SessionID)
	assert.Equal(t, receptionist.TypeWelcome, receiveType(t, conn, "message").Message.Type)
	assert.Equal(t, 1, mgr.Len())
}

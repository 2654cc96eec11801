package chat

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/benefitsnav/carl-assistant/internal/assistant"
	"github.com/benefitsnav/carl-assistant/internal/directory"
	"github.com/benefitsnav/carl-assistant/internal/privacy"
	"github.com/benefitsnav/carl-assistant/pkg/logging"
)

// Assistant is the answering entrypoint the chat surface drives.
type Assistant interface {
	Search(ctx context.Context, req assistant.SearchRequest) (*assistant.SearchResult, error)
}

// Handler manages websocket chat connections. Each session gets its own
// answering pipeline from the session manager; a reset or disconnect drops it.
type Handler struct {
	sessions   *SessionManager
	transcript *TranscriptStore
	logger     *logging.Logger

	mu    sync.RWMutex
	conns map[string]*wsConn
}

type wsConn struct {
	conn *websocket.Conn
	done chan struct{}
}

// InboundMessage is what the chat client sends.
type InboundMessage struct {
	Type      string `json:"type"` // "message", "ping", "reset"
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
	Mode      string `json:"mode,omitempty"` // privacy mode for this turn
}

// OutboundMessage is what we send to the chat client.
type OutboundMessage struct {
	Type      string              `json:"type"` // "message", "typing", "history", "session", "error", "pong"
	Text      string              `json:"text,omitempty"`
	Role      string              `json:"role,omitempty"`
	Tier      string              `json:"tier,omitempty"`
	Programs  []directory.Program `json:"programs,omitempty"`
	SessionID string              `json:"session_id,omitempty"`
	Timestamp string              `json:"timestamp,omitempty"`
	Messages  []HistoryMessage    `json:"messages,omitempty"`
}

// HistoryMessage is a transcript entry for history responses.
type HistoryMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// NewHandler creates a chat handler.
func NewHandler(sessions *SessionManager, transcript *TranscriptStore, logger *logging.Logger) *Handler {
	if sessions == nil {
		panic("chat: session manager cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		sessions:   sessions,
		transcript: transcript,
		logger:     logger.Component("chat"),
		conns:      make(map[string]*wsConn),
	}
}

func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.NewString()
	}
	return hex.EncodeToString(b)
}

// HandleWebSocket upgrades to a websocket and serves the chat loop.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		sessionID = generateSessionID()
	}

	_ = websocket.JSON.Send(conn, OutboundMessage{Type: "session", SessionID: sessionID})

	if h.transcript != nil {
		if turns, err := h.transcript.Load(r.Context(), sessionID); err == nil && len(turns) > 0 {
			history := make([]HistoryMessage, 0, len(turns))
			for _, t := range turns {
				history = append(history, HistoryMessage{Role: t.Role, Text: t.Text})
			}
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "history", Messages: history})
		}
	}

	wsc := &wsConn{conn: conn, done: make(chan struct{})}
	h.mu.Lock()
	h.conns[sessionID] = wsc
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		if h.conns[sessionID] == wsc {
			delete(h.conns, sessionID)
		}
		h.mu.Unlock()
		h.sessions.Drop(sessionID)
		close(wsc.done)
	}()

	h.logger.Info("chat connection opened", "session_id", sessionID)

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("chat connection closed", "session_id", sessionID, "error", err)
			return
		}

		switch msg.Type {
		case "ping":
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "pong"})
		case "reset":
			if h.transcript != nil {
				_ = h.transcript.Clear(r.Context(), sessionID)
			}
			h.sessions.Drop(sessionID)
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "session", SessionID: sessionID})
		case "message":
			if strings.TrimSpace(msg.Text) == "" {
				continue
			}
			h.processMessage(r.Context(), conn, sessionID, msg)
		}
	}
}

func (h *Handler) processMessage(ctx context.Context, conn *websocket.Conn, sessionID string, msg InboundMessage) {
	_ = websocket.JSON.Send(conn, OutboundMessage{Type: "typing"})

	mode, err := privacy.ParseMode(msg.Mode)
	if err != nil {
		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "error", Text: "Unknown privacy mode."})
		return
	}

	var history []assistant.Turn
	if h.transcript != nil {
		if history, err = h.transcript.Load(ctx, sessionID); err != nil {
			h.logger.Warn("transcript load failed", "session_id", sessionID, "error", err)
		}
	}

	res, err := h.sessions.Session(sessionID).Search(ctx, assistant.SearchRequest{
		Message: msg.Text,
		History: history,
		Mode:    mode,
	})
	if err != nil {
		h.logger.Error("chat search failed", "session_id", sessionID, "error", err)
		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "error", Text: userFacingError(err)})
		return
	}

	if h.transcript != nil {
		if err := h.transcript.Append(ctx, sessionID,
			assistant.Turn{Role: assistant.RoleUser, Text: assistant.Sanitize(msg.Text)},
			assistant.Turn{Role: assistant.RoleAssistant, Text: res.Message},
		); err != nil {
			h.logger.Warn("transcript append failed", "session_id", sessionID, "error", err)
		}
	}

	_ = websocket.JSON.Send(conn, OutboundMessage{
		Type:      "message",
		Role:      assistant.RoleAssistant,
		Text:      res.Message,
		Tier:      string(res.Tier),
		Programs:  res.Programs,
		SessionID: sessionID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Close terminates every live chat connection and waits for its serve loop
// to finish. Called during server shutdown.
func (h *Handler) Close() {
	h.mu.Lock()
	conns := make([]*wsConn, 0, len(h.conns))
	for _, wsc := range h.conns {
		conns = append(conns, wsc)
	}
	h.mu.Unlock()

	for _, wsc := range conns {
		_ = wsc.conn.Close()
		<-wsc.done
	}
}

func userFacingError(err error) string {
	switch {
	case errors.Is(err, privacy.ErrTorUnavailable):
		return "Your private connection isn't ready yet. Check that Tor is running, or switch to standard mode."
	case errors.Is(err, assistant.ErrEmptyMessage):
		return "Please type a message first."
	default:
		return "Sorry, something went wrong. Please try again."
	}
}

package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/faqbot/internal/chat"
	"github.com/ziadkadry99/faqbot/internal/lang"
	"github.com/ziadkadry99/faqbot/internal/router"
	"github.com/ziadkadry99/faqbot/internal/session"
)

// maxMessageBytes bounds request bodies and websocket frames.
const maxMessageBytes = 16 << 10

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ChatRequest is the body of POST /api/chat and of websocket messages.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Language  string `json:"language,omitempty"`
}

// errorBody is the JSON error payload.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// wsMessage is the outgoing websocket frame.
type wsMessage struct {
	Type     string         `json:"type"` // "response" or "error"
	Response *chat.Response `json:"response,omitempty"`
	Error    *errorBody     `json:"error,omitempty"`
}

// RegisterRoutes mounts the chat API and the websocket endpoint.
func RegisterRoutes(r chi.Router, a *Assistant) {
	r.Post("/api/chat", a.handleChat)
	r.Get("/api/languages", a.handleLanguages)
	r.Route("/api/sessions/{id}", func(r chi.Router) {
		r.Get("/", a.handleGetSession)
		r.Delete("/", a.handleEndSession)
	})
	r.Get("/ws/chat", a.handleWebSocket)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// classifyError maps a pipeline error to an HTTP status and a message safe
// to show to users.
func classifyError(err error) (int, errorBody) {
	switch {
	case errors.Is(err, lang.ErrUnsupportedLanguage):
		return http.StatusUnprocessableEntity, errorBody{Error: err.Error(), Code: "unsupported_language"}
	case errors.Is(err, lang.ErrEmptyUtterance):
		return http.StatusBadRequest, errorBody{Error: "message is empty", Code: "empty_message"}
	case errors.Is(err, session.ErrSessionExpired):
		return http.StatusGone, errorBody{Error: "session expired; start a new session", Code: "session_expired"}
	case errors.Is(err, session.ErrTooManySessions):
		return http.StatusServiceUnavailable, errorBody{Error: "too many active conversations; try again later", Code: "busy"}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, errorBody{Error: "request timed out", Code: "timeout"}
	case errors.Is(err, context.Canceled):
		// 499 is what nginx reports for a client that went away.
		return 499, errorBody{Error: "request cancelled", Code: "cancelled"}
	case errors.Is(err, router.ErrHandoffConfiguration):
		return http.StatusInternalServerError, errorBody{Error: "the assistant is not available right now", Code: "internal"}
	default:
		return http.StatusInternalServerError, errorBody{Error: "internal error", Code: "internal"}
	}
}

func (a *Assistant) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classifyError(err)
	if status >= 500 {
		a.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, status, body)
}

func (a *Assistant) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body", Code: "bad_request"})
		return
	}
	resp, err := a.HandleMessage(r.Context(), req.SessionID, req.Message, req.Language)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *Assistant) handleLanguages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"languages": a.Languages(),
		"pivot":     a.opts.Pivot,
	})
}

func (a *Assistant) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := a.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (a *Assistant) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if err := a.EndSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleWebSocket serves a chat over one connection. The session id of the
// first response is reused for later messages that leave it empty.
func (a *Assistant) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.log.Warn().Err(err).Msg("websocket upgrade")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageBytes)

	sessionID := r.URL.Query().Get("session_id")
	for {
		var req ChatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				a.log.Warn().Err(err).Msg("websocket read")
			}
			return
		}
		if req.SessionID == "" {
			req.SessionID = sessionID
		}

		resp, err := a.HandleMessage(r.Context(), req.SessionID, req.Message, req.Language)
		var msg wsMessage
		if err != nil {
			status, body := classifyError(err)
			if status >= 500 {
				a.log.Error().Err(err).Str("session_id", req.SessionID).Msg("websocket message failed")
			}
			msg = wsMessage{Type: "error", Error: &body}
		} else {
			sessionID = resp.SessionID
			msg = wsMessage{Type: "response", Response: resp}
		}
		if err := conn.WriteJSON(msg); err != nil {
			a.log.Warn().Err(err).Msg("websocket write")
			return
		}
	}
}

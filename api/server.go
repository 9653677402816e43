package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/svergara/concierge/agent/contract"
)

// Request bounds. Oversized uploads are rejected before any model or
// decoder sees them.
const (
	maxPromptChars     = 10_000
	maxFilesPerRequest = 10
	maxFileBase64Bytes = 20 << 20
	maxBodyBytes       = int64(maxFilesPerRequest)*maxFileBase64Bytes + 1<<20
	requestTimeout     = 120 * time.Second
)

type Config struct {
	Host string `envconfig:"HOST" split_words:"true" default:"0.0.0.0"`
	Port int    `envconfig:"PORT" split_words:"true" default:"8080"`
}

func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Responder produces the assistant reply for one user turn. It never
// fails; faults become the fallback text inside the reply itself.
type Responder interface {
	Chat(ctx context.Context, prompt string, history []contractx.ConversationTurn, attachments []contractx.Attachment) string
}

// Server is the HTTP transport in front of the orchestrator. It owns
// session handling and history persistence; the orchestrator stays
// stateless.
type Server struct {
	responder Responder
	history   contractx.HistoryStore
}

func NewServer(responder Responder, history contractx.HistoryStore) *Server {
	return &Server{
		responder: responder,
		history:   history,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(requestTimeout))

	r.Get("/health", s.handleHealth)
	r.Post("/chat", s.handleChat)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err.Error() == "http: request body too large" {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if msg, ok := validateChatRequest(&req); !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	ctx := r.Context()

	// A broken history backend degrades to a fresh conversation rather
	// than refusing the request.
	history, err := s.history.Get(ctx, sessionID)
	if err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("history read failed, continuing without history")
		history = nil
	}

	answer := s.responder.Chat(ctx, req.Prompt, history, req.Files)

	appended := []contractx.ConversationTurn{
		{Role: contractx.RoleUser, Content: req.Prompt},
		{Role: contractx.RoleAssistant, Content: answer},
	}
	if err := s.history.Append(ctx, sessionID, appended); err != nil {
		// The response exists; losing one history write is not worth a 500.
		log.Warn().Err(err).Str("session_id", sessionID).Msg("history append failed")
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Response:  answer,
		SessionID: sessionID,
	})
}

// validateChatRequest enforces the request bounds and normalizes the
// attachments in place (data-URI prefixes stripped, mimetypes trimmed).
func validateChatRequest(req *ChatRequest) (string, bool) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "prompt is required", false
	}
	if len(req.Prompt) > maxPromptChars {
		return fmt.Sprintf("prompt exceeds %d characters", maxPromptChars), false
	}
	if len(req.Files) > maxFilesPerRequest {
		return fmt.Sprintf("too many files: at most %d per request", maxFilesPerRequest), false
	}

	for i := range req.Files {
		file := &req.Files[i]

		file.Data = stripDataURIPrefix(strings.TrimSpace(file.Data))
		if file.Data == "" {
			return fmt.Sprintf("file %d has no content", i), false
		}
		if len(file.Data) > maxFileBase64Bytes {
			return fmt.Sprintf("file %d exceeds the size limit", i), false
		}

		file.Mimetype = strings.TrimSpace(file.Mimetype)
		if file.Mimetype == "" {
			return fmt.Sprintf("file %d has no mimetype", i), false
		}
	}

	return "", true
}

// stripDataURIPrefix drops a leading "data:<mime>;base64," so clients
// may send either raw base64 or a full data URI.
func stripDataURIPrefix(data string) string {
	if !strings.HasPrefix(data, "data:") {
		return data
	}
	idx := strings.Index(data, ",")
	if idx < 0 {
		return data
	}
	return data[idx+1:]
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("write json response failed")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

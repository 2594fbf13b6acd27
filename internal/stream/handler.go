package stream

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/agentcore/core/internal/agent"
)

// chatRequest is the streaming endpoint's request body (spec §6).
// session_id is carried as a JSON number there; SessionIDs are opaque
// strings throughout this core's stores (see models.Session), so it is
// decoded via json.Number and stringified rather than typed as int64.
type chatRequest struct {
	SessionID json.Number `json:"session_id"`
	Message   string      `json:"message"`
	ModelID   string      `json:"model_id,omitempty"`
	Files     []int64     `json:"files,omitempty"`
}

// Handler serves the streaming chat endpoint by driving an agent.Loop
// and framing its events as SSE, grounded on the teacher's stdlib-only
// net/http handler style (internal/web/web.go).
type Handler struct {
	Loop *agent.Loop
}

func NewHandler(loop *agent.Loop) *Handler {
	return &Handler{Loop: loop}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		http.Error(w, "message must not be empty", http.StatusBadRequest)
		return
	}

	fileIDs := make([]string, 0, len(req.Files))
	for _, id := range req.Files {
		fileIDs = append(fileIDs, strconv.FormatInt(id, 10))
	}

	events, err := h.Loop.Run(r.Context(), req.SessionID.String(), req.ModelID, req.Message, fileIDs)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	_ = WriteSSE(w, events, func() int64 { return time.Now().Unix() })
}

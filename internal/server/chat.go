package server

import (
	"net/http"

	"github.com/serhq/estimator/internal/ai"
	"github.com/serhq/estimator/internal/middleware"
	"github.com/serhq/estimator/internal/models"
	"github.com/serhq/estimator/internal/normalizer"
)

type chatRequest struct {
	// Kind selects the assistant: "estimator", "shot_list", or "call_sheet".
	Kind     string `json:"kind"`
	Message  string `json:"message"`
	Location string `json:"location,omitempty"`
	// Reset starts a fresh conversation before sending.
	Reset bool `json:"reset,omitempty"`
}

type chatResponse struct {
	Kind      string                      `json:"kind"`
	Text      string                      `json:"text"`
	Estimate  *normalizer.EstimatePayload `json:"estimate,omitempty"`
	ShotList  *models.ShotList            `json:"shotList,omitempty"`
	CallSheet *models.CallSheet           `json:"callSheet,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.ai == nil {
		http.Error(w, "AI is not configured", http.StatusServiceUnavailable)
		return
	}

	var req chatRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}
	switch req.Kind {
	case "", "estimator", "shot_list", "call_sheet":
	default:
		http.Error(w, "unknown chat kind", http.StatusBadRequest)
		return
	}

	conv, err := s.conversation(r, &req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := conv.Send(r.Context(), req.Message)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, chatResponse{
		Kind:      result.Kind.String(),
		Text:      result.Text,
		Estimate:  result.Estimate,
		ShotList:  result.ShotList,
		CallSheet: result.CallSheet,
	})
}

// conversation returns the caller's ongoing conversation for the requested
// kind, creating one on first use or when a reset is requested. Conversations
// are per user so chat history never leaks between accounts.
func (s *Server) conversation(r *http.Request, req *chatRequest) (*ai.Conversation, error) {
	kind := req.Kind
	if kind == "" {
		kind = "estimator"
	}
	key := middleware.GetUserID(r.Context()) + ":" + kind

	s.mu.Lock()
	defer s.mu.Unlock()

	if conv, ok := s.chats[key]; ok && !req.Reset {
		return conv, nil
	}

	var (
		conv *ai.Conversation
		err  error
	)
	switch kind {
	case "shot_list":
		conv, err = s.ai.ShotListChat(r.Context())
	case "call_sheet":
		conv, err = s.ai.CallSheetChat(r.Context())
	default:
		conv, err = s.ai.EstimatorChat(r.Context(), req.Location)
	}
	if err != nil {
		return nil, err
	}

	s.chats[key] = conv
	return conv, nil
}

type storyboardRequest struct {
	Description string `json:"description"`
	ShotType    string `json:"shotType,omitempty"`
}

func (s *Server) handleStoryboard(w http.ResponseWriter, r *http.Request) {
	if s.ai == nil {
		http.Error(w, "AI is not configured", http.StatusServiceUnavailable)
		return
	}

	var req storyboardRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Description == "" {
		http.Error(w, "description is required", http.StatusBadRequest)
		return
	}

	image, err := s.ai.StoryboardSketch(r.Context(), req.Description, req.ShotType)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"image": image})
}

package server

import (
	"net/http"

	"github.com/serhq/estimator/internal/models"
	"github.com/serhq/estimator/internal/normalizer"
)

type credentialsRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	Password    string `json:"password"`
	Remember    bool   `json:"remember,omitempty"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := s.authn.Register(r.Context(), req.Email, req.DisplayName, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}

	token, err := s.tokens.Generate(user, false)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.gate.Login(r.Context(), false); err != nil {
		s.writeError(w, err)
		return
	}

	s.log.Info("User registered", "email", user.Email)
	s.writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := s.authn.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}

	token, err := s.tokens.Generate(user, req.Remember)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.gate.Login(r.Context(), req.Remember); err != nil {
		s.writeError(w, err)
		return
	}

	s.log.Info("User logged in", "email", user.Email, "remember", req.Remember)
	s.writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.gate.Logout(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": s.gate.Authenticated(),
		"pro":           s.gate.Pro(),
		"projectCount":  s.gate.ProjectCount(),
	})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.gate.Profile(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	var profile models.UserProfile
	if err := decodeBody(r, &profile); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.gate.SaveProfile(r.Context(), profile); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleNewProject(w http.ResponseWriter, r *http.Request) {
	estimate, err := s.projects.NewProject(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, estimate)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	estimates, err := s.estimates.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, estimates)
}

func (s *Server) handleGetEstimate(w http.ResponseWriter, r *http.Request) {
	estimate, err := s.estimates.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, estimate)
}

func (s *Server) handleSaveEstimate(w http.ResponseWriter, r *http.Request) {
	var estimate models.Estimate
	if err := decodeBody(r, &estimate); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	// The URL is authoritative for identity.
	estimate.ID = r.PathValue("id")

	if err := s.estimates.Save(r.Context(), &estimate); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, &estimate)
}

func (s *Server) handleDeleteEstimate(w http.ResponseWriter, r *http.Request) {
	if err := s.estimates.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	totals, err := s.estimates.Totals(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	allocation, err := s.estimates.Allocation(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"totals":     totals,
		"allocation": allocation,
	})
}

func (s *Server) handleApplyPayload(w http.ResponseWriter, r *http.Request) {
	var payload normalizer.EstimatePayload
	if err := decodeBody(r, &payload); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	estimate, err := s.estimates.ApplyEstimatePayload(r.Context(), r.PathValue("id"), &payload)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, estimate)
}

type generateItemRequest struct {
	Description string `json:"description"`
}

func (s *Server) handleGenerateItem(w http.ResponseWriter, r *http.Request) {
	if s.ai == nil {
		http.Error(w, "AI is not configured", http.StatusServiceUnavailable)
		return
	}

	var req generateItemRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	id := r.PathValue("id")
	estimate, err := s.estimates.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	item, err := s.ai.GenerateLineItem(r.Context(), req.Description, estimate.Details.Location)
	if err != nil {
		s.writeError(w, err)
		return
	}

	estimate.Items = append(estimate.Items, item)
	if err := s.estimates.Save(r.Context(), estimate); err != nil {
		s.writeError(w, err)
		return
	}

	s.log.Info("Line item generated", "estimate_id", id, "description", item.Description)
	s.writeJSON(w, http.StatusCreated, item)
}

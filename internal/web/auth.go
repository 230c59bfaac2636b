package web

import (
	"encoding/json"
	"net/http"
	"strings"

	apierrors "github.com/nimbusgit/nimbus/internal/shared/errors"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

type CreateTokenRequest struct {
	Name string `json:"name"`
}

type CreateTokenResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Token string `json:"token"`
}

// handleLogin exchanges owner credentials for a session token.
func (s *Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.NewValidationError("invalid request body").WriteJSON(w)
		return
	}

	if err := s.auth.ValidateOwnerLogin(req.Username, req.Password); err != nil {
		s.logger.Warn("failed login attempt", "username", req.Username)
		apierrors.NewUnauthorizedError("invalid credentials").WriteJSON(w)
		return
	}

	token, err := s.auth.GenerateToken(req.Username, "owner")
	if err != nil {
		s.logger.Error("failed to generate token", "error", err)
		apierrors.NewInternalError("failed to generate token").WriteJSON(w)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{Token: token, Role: "owner"})
}

// handleCreateToken mints a named API token. The plaintext is returned
// once and never stored.
func (s *Service) handleCreateToken(w http.ResponseWriter, r *http.Request) {
	var req CreateTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.NewValidationError("invalid request body").WriteJSON(w)
		return
	}

	token, plaintext, err := s.auth.CreateAPIToken(req.Name)
	if err != nil {
		apierrors.NewValidationError(err.Error()).WriteJSON(w)
		return
	}

	writeJSON(w, http.StatusCreated, CreateTokenResponse{
		ID:    token.ID.String(),
		Name:  token.Name,
		Token: plaintext,
	})
}

// handleListTokens returns stored API tokens without their hashes.
func (s *Service) handleListTokens(w http.ResponseWriter, r *http.Request) {
	type tokenInfo struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		CreatedAt string `json:"created_at"`
	}

	tokens := s.auth.ListAPITokens()
	out := make([]tokenInfo, 0, len(tokens))
	for _, token := range tokens {
		out = append(out, tokenInfo{
			ID:        token.ID.String(),
			Name:      token.Name,
			CreatedAt: token.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	writeJSON(w, http.StatusOK, out)
}

// requireAuth wraps a handler with Bearer token validation.
func (s *Service) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			apierrors.NewUnauthorizedError("missing bearer token").WriteJSON(w)
			return
		}

		if _, err := s.auth.ValidateToken(token); err != nil {
			apierrors.NewUnauthorizedError("invalid token").WriteJSON(w)
			return
		}

		next(w, r)
	}
}

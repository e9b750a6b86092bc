package api

import (
	"errors"
	"net/http"

	"imagestore/internal/ingest"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required,max=255" example:"alice"`
	Password string `json:"password" validate:"required,max=1024" example:"password123"`
}

type TokenResponse struct {
	Token string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.eyJzdWIiOiJhbGljZSIsImV4cCI6MTcwMDAwMDAwMH0...."`
}

// @Summary      Logs a user in
// @Description  Verifies the username and password and returns a signed session token valid for 24 hours.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        loginRequest   body      LoginRequest  true  "Login Credentials"
// @Success      200            {object}  TokenResponse
// @Failure      400            {string}  string "Invalid request body"
// @Failure      401            {string}  string "Invalid username or password"
// @Failure      500            {string}  string "Internal Server Error"
// @Router       /login [post]
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	token, err := s.service.Login(r.Context(), ingest.Credentials{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, ingest.ErrInvalidCredentials) {
			http.Error(w, "Invalid username or password", http.StatusUnauthorized)
			return
		}
		s.serverError(w, r, "login failed", err)
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{Token: token})
}

package web

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"

	"github.com/JonMunkholm/sheetinspect/internal/auth"
)

type credentials struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is the login response body.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	creds, err := readCredentials(r)
	if err != nil {
		fail(w, r, err)
		return
	}

	principal, err := s.identity.Signup(r.Context(), creds.Email, creds.Password)
	if err != nil {
		fail(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, principal)
}

// handleLogin accepts an OAuth2 password form (username, password) or a
// JSON body with email or username.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	creds, err := readCredentials(r)
	if err != nil {
		fail(w, r, err)
		return
	}

	token, err := s.identity.Login(r.Context(), creds.Email, creds.Password)
	if err != nil {
		fail(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, TokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, auth.PrincipalFromContext(r.Context()))
}

func (s *Server) handleAdminPing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]bool{"pong": true})
}

// readCredentials decodes a JSON or form body. Username is accepted as an
// alias for email.
func readCredentials(r *http.Request) (credentials, error) {
	var c credentials

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return c, fmt.Errorf("%w: %v", auth.ErrMissingCredentials, err)
		}
		c.Email = r.PostFormValue("email")
		c.Username = r.PostFormValue("username")
		c.Password = r.PostFormValue("password")
	default:
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			return c, fmt.Errorf("%w: %v", auth.ErrMissingCredentials, err)
		}
	}

	if c.Email == "" {
		c.Email = c.Username
	}
	return c, nil
}

package rest

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-marketplace/auth"
)

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope"`
	RefreshToken string `json:"refresh_token"`
}

// handleToken is the form-encoded client-credentials token endpoint.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.respondError(w, r, goerrors.New("rest: invalid form body", goerrors.CategoryBadInput))
		return
	}
	issued, err := s.auth.IssueToken(r.Context(), auth.IssueTokenRequest{
		ClientID:     r.PostFormValue("client_id"),
		ClientSecret: r.PostFormValue("client_secret"),
		GrantType:    r.PostFormValue("grant_type"),
		Scope:        r.PostFormValue("scope"),
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, tokenResponse{
		AccessToken: issued.AccessToken,
		TokenType:   issued.TokenType,
		ExpiresIn:   issued.ExpiresIn,
		Scope:       issued.Scope,
	})
}

func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	code, err := s.auth.IssueAuthorizationCode(r.Context(), query.Get("client_id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{
		"authorization_code": code,
		"redirect_uri":       query.Get("redirect_uri"),
		"note":               "Use this code to exchange for access token",
	})
}

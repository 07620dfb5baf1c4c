package apiclient

import (
	"context"
	"errors"
	"net/http"

	identityapp "github.com/destinpq/groow-sub007/internal/application/identity"
	"github.com/destinpq/groow-sub007/internal/envelope"
)

// AuthService covers /auth
type AuthService struct {
	c *Client
}

// Login authenticates and stores the returned tokens
func (s *AuthService) Login(ctx context.Context, email, password string) (*identityapp.TokenResult, error) {
	resp, err := s.c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Body:   identityapp.LoginRequest{Email: email, Password: password},
		NoAuth: true,
	})
	if err != nil {
		return nil, err
	}
	return s.store(resp)
}

// Refresh exchanges the stored refresh token for a new pair
func (s *AuthService) Refresh(ctx context.Context) (*identityapp.TokenResult, error) {
	refreshToken := s.c.tokens.RefreshToken()
	if refreshToken == "" {
		return nil, ErrUnauthorized
	}
	resp, err := s.c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/auth/refresh",
		Body:   identityapp.RefreshRequest{RefreshToken: refreshToken},
		NoAuth: true,
	})
	if err != nil {
		if StatusOf(err) == http.StatusUnauthorized {
			s.c.tokens.Clear()
		}
		return nil, err
	}
	return s.store(resp)
}

// Logout revokes the session server-side and forgets the tokens.
// The local tokens are cleared even when the server call fails.
func (s *AuthService) Logout(ctx context.Context) error {
	defer s.c.tokens.Clear()
	body := map[string]string{}
	if rt := s.c.tokens.RefreshToken(); rt != "" {
		body["refreshToken"] = rt
	}
	return sendNoContent(ctx, s.c, http.MethodPost, "/auth/logout", body)
}

// Me returns the authenticated user
func (s *AuthService) Me(ctx context.Context) (*identityapp.UserInfo, error) {
	user, err := getValue[identityapp.UserInfo](ctx, s.c, "/auth/me", nil)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *AuthService) store(resp *Response) (*identityapp.TokenResult, error) {
	access, refresh, err := envelope.DecodeToken(resp.Body)
	if err != nil {
		return nil, err
	}
	if access == "" {
		return nil, errors.New("apiclient: no access token in auth response")
	}
	s.c.tokens.SetTokens(access, refresh)

	result, err := envelope.Decode[identityapp.TokenResult](resp.Body)
	if err != nil {
		result = identityapp.TokenResult{}
	}
	result.AccessToken = access
	if refresh != "" {
		result.RefreshToken = refresh
	}
	return &result, nil
}

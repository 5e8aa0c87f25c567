package supabase

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	gotrue "github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"
)

var (
	// ErrAdminUnavailable is returned by admin operations when no
	// service-role key was configured.
	ErrAdminUnavailable = errors.New("supabase admin client not configured")
	ErrUnknownProvider  = errors.New("unsupported sign-in provider")
)

var oauthProviders = map[string]types.Provider{
	"apple":  types.ProviderApple,
	"azure":  types.ProviderAzure,
	"github": types.ProviderGitHub,
	"google": types.ProviderGoogle,
}

// Session is the subset of a hosted auth session the server keeps.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
	UserID       uuid.UUID
	Email        string
}

// AuthClient wraps the hosted auth API: password and provider sign-in,
// sign-up, link verification, refresh and sign-out.
type AuthClient struct {
	auth  gotrue.Client
	admin gotrue.Client
}

func NewAuthClient(c *Client) *AuthClient {
	a := &AuthClient{auth: c.Supabase.Auth}
	if c.Admin != nil {
		a.admin = c.Admin.Auth.WithToken(c.Config.SupabaseServiceRoleKey)
	}
	return a
}

func sessionFrom(s types.Session) *Session {
	return &Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresIn:    s.ExpiresIn,
		UserID:       s.User.ID,
		Email:        s.User.Email,
	}
}

func (a *AuthClient) SignIn(email, password string) (*Session, error) {
	resp, err := a.auth.Token(types.TokenRequest{
		GrantType: "password",
		Email:     email,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign in: %w", err)
	}
	return sessionFrom(resp.Session), nil
}

// SignUp registers a user. The returned session is nil when the project
// requires email confirmation before the first sign-in.
func (a *AuthClient) SignUp(email, password string, metadata map[string]any) (uuid.UUID, *Session, error) {
	resp, err := a.auth.Signup(types.SignupRequest{
		Email:    email,
		Password: password,
		Data:     metadata,
	})
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("failed to sign up: %w", err)
	}

	userID := resp.User.ID
	if userID == uuid.Nil {
		userID = resp.Session.User.ID
	}
	if userID == uuid.Nil {
		return uuid.Nil, nil, fmt.Errorf("failed to sign up: no user returned")
	}

	if resp.AccessToken == "" {
		return userID, nil, nil
	}
	session := sessionFrom(resp.Session)
	session.UserID = userID
	return userID, session, nil
}

// ExchangeCode trades an auth callback code for a session.
func (a *AuthClient) ExchangeCode(code, verifier string) (*Session, error) {
	resp, err := a.auth.Token(types.TokenRequest{
		GrantType:    "pkce",
		Code:         code,
		CodeVerifier: verifier,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	return sessionFrom(resp.Session), nil
}

// AuthorizeURL starts a PKCE sign-in with an external provider. The verifier
// must be presented again when the returned code is exchanged.
func (a *AuthClient) AuthorizeURL(provider string) (string, string, error) {
	p, ok := oauthProviders[provider]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
	resp, err := a.auth.Authorize(types.AuthorizeRequest{Provider: p, FlowType: types.FlowPKCE})
	if err != nil {
		return "", "", fmt.Errorf("failed to start sign-in: %w", err)
	}
	return resp.AuthorizationURL, resp.Verifier, nil
}

// VerifyEmail redeems the token hash of a confirmation or magic link.
func (a *AuthClient) VerifyEmail(tokenHash, verificationType, redirectTo string) (*Session, error) {
	resp, err := a.auth.Verify(types.VerifyRequest{
		Type:       types.VerificationType(verificationType),
		Token:      tokenHash,
		RedirectTo: redirectTo,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to verify link: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("failed to verify link: %s: %s", resp.ErrorCode, resp.ErrorDescription)
	}
	if resp.AccessToken == "" {
		return nil, errors.New("failed to verify link: no session returned")
	}

	user, err := a.auth.WithToken(resp.AccessToken).GetUser()
	if err != nil {
		return nil, fmt.Errorf("failed to load verified user: %w", err)
	}
	return &Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
		UserID:       user.ID,
		Email:        user.Email,
	}, nil
}

// Refresh trades a refresh token for a new session.
func (a *AuthClient) Refresh(refreshToken string) (*Session, error) {
	resp, err := a.auth.Token(types.TokenRequest{
		GrantType:    "refresh_token",
		RefreshToken: refreshToken,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to refresh session: %w", err)
	}
	return sessionFrom(resp.Session), nil
}

func (a *AuthClient) SignOut(accessToken string) error {
	if err := a.auth.WithToken(accessToken).Logout(); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	return nil
}

// DeleteUser removes a hosted auth user. Used to undo a sign-up whose
// profile rows could not be written.
func (a *AuthClient) DeleteUser(userID uuid.UUID) error {
	if a.admin == nil {
		return ErrAdminUnavailable
	}
	if err := a.admin.AdminDeleteUser(types.AdminDeleteUserRequest{UserID: userID}); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

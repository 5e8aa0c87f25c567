package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"homease-backend/internal/models"
	"homease-backend/internal/supabase"
)

// AuthService signs users in and out against Supabase Auth and keeps the
// profiles table in step with new sign-ups.
type AuthService struct {
	auth     AuthProvider
	profiles ProfileStore
	logger   *zap.Logger
}

func NewAuthService(auth AuthProvider, profiles ProfileStore, logger *zap.Logger) *AuthService {
	return &AuthService{
		auth:     auth,
		profiles: profiles,
		logger:   logger.Named("auth"),
	}
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (*supabase.Session, *models.Profile, error) {
	session, err := s.auth.SignIn(email, password)
	if err != nil {
		return nil, nil, err
	}
	profile, err := s.profiles.GetProfile(ctx, session.UserID)
	if err != nil {
		s.logger.Warn("signed in user has no profile", zap.String("user_id", session.UserID.String()), zap.Error(err))
		return session, nil, nil
	}
	return session, profile, nil
}

type SignUpResult struct {
	UserID  uuid.UUID
	Role    string
	Session *supabase.Session
}

// SignUp creates the hosted user and its profile rows. When the profile
// transaction fails the hosted user is deleted again.
func (s *AuthService) SignUp(ctx context.Context, req models.SignupRequest) (*SignUpResult, error) {
	role := req.Role
	if role == "" {
		role = models.RoleHomeowner
	}
	if role != models.RoleHomeowner && role != models.RoleContractor {
		return nil, &ValidationError{Fields: map[string]string{"Role": "signup_role"}}
	}

	userID, session, err := s.auth.SignUp(req.Email, req.Password, map[string]any{
		"role":      role,
		"full_name": req.FullName,
	})
	if err != nil {
		return nil, err
	}

	log := s.logger.With(zap.String("user_id", userID.String()))

	// An already registered email comes back as the existing user.
	if _, err := s.profiles.GetProfile(ctx, userID); err == nil {
		return nil, ErrAccountExists
	} else if !errors.Is(err, supabase.ErrNotFound) {
		return nil, err
	}

	if err := s.profiles.CreateProfileWithRole(ctx, userID, req.Email, req.FullName, role); err != nil {
		log.Error("failed to create profile, removing auth user", zap.Error(err))
		if delErr := s.auth.DeleteUser(userID); delErr != nil {
			log.Error("failed to remove auth user after profile failure", zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	log.Info("user signed up", zap.String("role", role))
	return &SignUpResult{UserID: userID, Role: role, Session: session}, nil
}

// StartOAuth returns the provider URL to send the browser to and the PKCE
// verifier to keep until the callback.
func (s *AuthService) StartOAuth(provider string) (string, string, error) {
	authURL, verifier, err := s.auth.AuthorizeURL(provider)
	if errors.Is(err, supabase.ErrUnknownProvider) {
		return "", "", fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return authURL, verifier, err
}

// ExchangeCode completes a PKCE sign-in. First-time provider users get a
// homeowner profile.
func (s *AuthService) ExchangeCode(ctx context.Context, code, verifier string) (*supabase.Session, error) {
	if code == "" || verifier == "" {
		return nil, fmt.Errorf("%w: code and verifier are required", ErrValidation)
	}
	session, err := s.auth.ExchangeCode(code, verifier)
	if err != nil {
		return nil, err
	}
	if err := s.ensureProfile(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// VerifyEmail redeems a confirmation link.
func (s *AuthService) VerifyEmail(ctx context.Context, tokenHash, verificationType, redirectTo string) (*supabase.Session, error) {
	if tokenHash == "" || verificationType == "" {
		return nil, fmt.Errorf("%w: token_hash and type are required", ErrValidation)
	}
	session, err := s.auth.VerifyEmail(tokenHash, verificationType, redirectTo)
	if err != nil {
		return nil, err
	}
	if err := s.ensureProfile(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Refresh renews an expired session from its refresh token.
func (s *AuthService) Refresh(_ context.Context, refreshToken string) (*supabase.Session, error) {
	return s.auth.Refresh(refreshToken)
}

func (s *AuthService) ensureProfile(ctx context.Context, session *supabase.Session) error {
	_, err := s.profiles.GetProfile(ctx, session.UserID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, supabase.ErrNotFound) {
		return err
	}
	if err := s.profiles.CreateProfileWithRole(ctx, session.UserID, session.Email, "", models.RoleHomeowner); err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	s.logger.Info("created profile for provider sign-in", zap.String("user_id", session.UserID.String()))
	return nil
}

// SignOut revokes the session. Failures are logged only; callers clear
// cookies regardless.
func (s *AuthService) SignOut(accessToken string) {
	if accessToken == "" {
		return
	}
	if err := s.auth.SignOut(accessToken); err != nil {
		s.logger.Debug("sign out failed", zap.Error(err))
	}
}

func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	p, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, storeErr(err)
	}
	return p, nil
}

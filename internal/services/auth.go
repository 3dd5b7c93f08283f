package services

import (
	"context"
	"crypto/subtle"
	"strings"

	"github.com/citivoice/complaint-server/internal/apperr"
	"github.com/citivoice/complaint-server/internal/auth"
	"github.com/citivoice/complaint-server/internal/models"
	"github.com/citivoice/complaint-server/internal/notify"
	"github.com/citivoice/complaint-server/internal/repository"
	"go.uber.org/zap"
)

// PasswordResetMessage is returned whether or not the email is known
const PasswordResetMessage = "If an account exists with this email, a password reset link has been sent"

// AuthService handles registration, login, email verification and
// password resets
type AuthService struct {
	store           repository.Store
	users           *UserService
	hasher          *auth.PasswordHasher
	jwt             *auth.JWTManager
	tokens          auth.TokenStore
	queue           notify.Queue
	links           Links
	registrationKey string
	logger          *zap.SugaredLogger
}

// NewAuthService creates a new auth service. Verification tokens are
// issued through users so both paths share one token store.
func NewAuthService(
	store repository.Store,
	users *UserService,
	registrationKey string,
	logger *zap.SugaredLogger,
) *AuthService {
	return &AuthService{
		store:           store,
		users:           users,
		hasher:          users.hasher,
		jwt:             users.jwt,
		tokens:          users.tokens,
		queue:           users.queue,
		links:           users.links,
		registrationKey: registrationKey,
		logger:          logger,
	}
}

// Register creates a user when the shared registration key matches
func (s *AuthService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	if s.registrationKey == "" ||
		subtle.ConstantTimeCompare([]byte(req.SecretKey), []byte(s.registrationKey)) != 1 {
		return nil, apperr.Unauthorized("Invalid registration secret key")
	}
	return s.users.Create(ctx, &req.CreateUserRequest)
}

// Login checks credentials and issues an access token
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	u, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.Unauthorized("Wrong email or password")
	}
	if err != nil {
		return nil, err
	}

	ok, err := s.hasher.Verify(req.Password, u.PasswordHash)
	if err != nil {
		s.logger.Warnw("Password verification failed", "user_id", u.ID, "error", err)
	}
	if !ok || !u.IsActive {
		return nil, apperr.Unauthorized("Wrong email or password")
	}

	token, err := s.jwt.IssueAccessToken(u)
	if err != nil {
		return nil, err
	}

	resp := &models.LoginResponse{AccessToken: token, User: u}
	if u.AgencyID != nil {
		agency, err := s.store.GetAgency(ctx, *u.AgencyID)
		if err != nil && !apperr.Is(err, apperr.KindNotFound) {
			return nil, err
		}
		resp.Agency = agency
	}

	s.logger.Infow("User logged in", "user_id", u.ID, "role", u.Role)
	return resp, nil
}

// redeem parses a purpose token, checks it was issued to userID and
// consumes it from the token store
func (s *AuthService) redeem(ctx context.Context, token, userID string, purpose auth.Purpose) (*auth.Claims, string, error) {
	claims, err := s.jwt.Parse(token, purpose)
	if err != nil {
		return nil, "", err
	}
	if claims.Subject != userID {
		return nil, "", apperr.Unauthorized("Invalid token")
	}
	value, err := s.tokens.Take(ctx, claims.ID)
	if err != nil {
		return nil, "", err
	}
	return claims, value, nil
}

// VerifyEmail redeems a verification token, marks the user verified and
// emails the temporary password
func (s *AuthService) VerifyEmail(ctx context.Context, token, userID string) error {
	claims, password, err := s.redeem(ctx, token, userID, auth.PurposeVerify)
	if err != nil {
		s.logger.Infow("Email verification rejected", "user_id", userID, "reason", apperr.MessageOf(err))
		return err
	}

	id, err := claims.UserID()
	if err != nil {
		return apperr.Unauthorized("Invalid token")
	}

	u, err := s.store.GetUser(ctx, id)
	if err == nil {
		u.IsVerified = true
		err = s.store.UpdateUser(ctx, u)
	}
	if err != nil {
		// Give the token back so the link can be retried
		if perr := s.tokens.Put(ctx, claims.ID, password, tokenTTL(claims)); perr != nil {
			s.logger.Warnw("Failed to restore verification token", "user_id", id, "error", perr)
		}
		return err
	}

	dispatch(ctx, s.queue, s.logger, notify.Message{
		Template: notify.TemplateWelcome,
		To:       u.Email,
		Data: map[string]string{
			"name":     u.Name,
			"username": u.Email,
			"password": password,
		},
	})
	s.logger.Infow("Email verified", "user_id", u.ID)
	return nil
}

// RequestPasswordReset emails a reset link when the address is known.
// Unknown addresses succeed silently.
func (s *AuthService) RequestPasswordReset(ctx context.Context, req *models.PasswordResetRequest) error {
	u, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if apperr.Is(err, apperr.KindNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	token, jti, err := s.jwt.IssuePurposeToken(u.ID, auth.PurposeReset)
	if err != nil {
		return err
	}
	if err := s.tokens.Put(ctx, jti, u.ID.String(), s.jwt.PurposeTTL()); err != nil {
		return err
	}

	dispatch(ctx, s.queue, s.logger, notify.Message{
		Template: notify.TemplateResetPassword,
		To:       u.Email,
		Data: map[string]string{
			"name":      u.Name,
			"resetLink": s.links.ResetURL(token, u.ID.String()),
		},
	})
	return nil
}

// ValidateResetToken reports whether a reset link is still usable
// without consuming it
func (s *AuthService) ValidateResetToken(ctx context.Context, token, userID string) error {
	claims, err := s.jwt.Parse(token, auth.PurposeReset)
	if err != nil {
		return err
	}
	if claims.Subject != userID {
		return apperr.Unauthorized("Invalid token")
	}
	ok, err := s.tokens.Peek(ctx, claims.ID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Unauthorized("Token has already been used")
	}
	return nil
}

// ResetPassword redeems a reset token and sets the new password
func (s *AuthService) ResetPassword(ctx context.Context, req *models.ResetPasswordRequest) error {
	claims, _, err := s.redeem(ctx, req.Token, req.UserID.String(), auth.PurposeReset)
	if err != nil {
		return err
	}

	u, err := s.store.GetUser(ctx, req.UserID)
	if err != nil {
		return err
	}
	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.IsTempPassword = false
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return err
	}

	s.logger.Infow("Password reset", "user_id", u.ID, "token_id", claims.ID)
	return nil
}

// Package auth issues and verifies bearer tokens, hashes passwords and
// tracks single-use verification and reset tokens.
package auth

import (
	"errors"
	"time"

	"github.com/citivoice/complaint-server/internal/apperr"
	"github.com/citivoice/complaint-server/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Purpose separates access tokens from emailed one-off tokens
type Purpose string

const (
	PurposeAccess Purpose = "access"
	PurposeVerify Purpose = "verify"
	PurposeReset  Purpose = "reset"
)

// Claims is the JWT payload
type Claims struct {
	Email    string      `json:"email,omitempty"`
	Role     models.Role `json:"role,omitempty"`
	AgencyID string      `json:"agency_id,omitempty"`
	Purpose  Purpose     `json:"purpose"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// JWTManager signs and validates HS256 tokens
type JWTManager struct {
	secret     []byte
	accessTTL  time.Duration
	purposeTTL time.Duration
	now        func() time.Time
}

// NewJWTManager creates a manager. purposeTTL bounds verification and reset tokens.
func NewJWTManager(secret string, accessTTL, purposeTTL time.Duration) *JWTManager {
	return &JWTManager{secret: []byte(secret), accessTTL: accessTTL, purposeTTL: purposeTTL, now: time.Now}
}

// PurposeTTL is how long emailed tokens stay valid
func (m *JWTManager) PurposeTTL() time.Duration { return m.purposeTTL }

// IssueAccessToken creates a bearer token for the user
func (m *JWTManager) IssueAccessToken(u *models.User) (string, error) {
	claims := Claims{
		Email:   u.Email,
		Role:    u.Role,
		Purpose: PurposeAccess,
	}
	if u.AgencyID != nil {
		claims.AgencyID = u.AgencyID.String()
	}
	token, _, err := m.sign(u.ID, claims, m.accessTTL)
	return token, err
}

// IssuePurposeToken creates a short-lived token for userID and returns it with its id
func (m *JWTManager) IssuePurposeToken(userID uuid.UUID, purpose Purpose) (string, string, error) {
	return m.sign(userID, Claims{Purpose: purpose}, m.purposeTTL)
}

func (m *JWTManager) sign(subject uuid.UUID, claims Claims, ttl time.Duration) (string, string, error) {
	now := m.now().UTC()
	jti := uuid.NewString()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   subject.String(),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        jti,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", "", apperr.Internal(err, "sign token")
	}
	return signed, jti, nil
}

// Parse validates signature, expiry and purpose. Expired and malformed tokens
// are both Unauthorized and differ only in message.
func (m *JWTManager) Parse(tokenString string, purpose Purpose) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)

	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Unauthorized("Token has expired")
		}
		return nil, apperr.Unauthorized("Invalid token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Purpose != purpose {
		return nil, apperr.Unauthorized("Invalid token")
	}
	return claims, nil
}

package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/citivoice/complaint-server/internal/apperr"
	"github.com/citivoice/complaint-server/internal/auth"
	"github.com/citivoice/complaint-server/internal/models"
	"github.com/citivoice/complaint-server/internal/notify"
	"github.com/citivoice/complaint-server/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserService manages agency users. New users get a generated temporary
// password that is only revealed after they verify their email.
type UserService struct {
	store  repository.Store
	hasher *auth.PasswordHasher
	jwt    *auth.JWTManager
	tokens auth.TokenStore
	queue  notify.Queue
	links  Links
	logger *zap.SugaredLogger
}

// NewUserService creates a new user service
func NewUserService(
	store repository.Store,
	hasher *auth.PasswordHasher,
	jwt *auth.JWTManager,
	tokens auth.TokenStore,
	queue notify.Queue,
	links Links,
	logger *zap.SugaredLogger,
) *UserService {
	return &UserService{
		store:  store,
		hasher: hasher,
		jwt:    jwt,
		tokens: tokens,
		queue:  queue,
		links:  links,
		logger: logger,
	}
}

// pendingUser is a user inserted in the current transaction. Its temporary
// password is parked under jti and the verification email goes out only
// after commit.
type pendingUser struct {
	user     *models.User
	token    string
	jti      string
	password string
}

// Create adds one unverified user
func (s *UserService) Create(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	users, err := s.create(ctx, []models.CreateUserRequest{*req})
	if err != nil {
		return nil, err
	}
	return users[0], nil
}

// BulkCreate adds every user or none. Emails already registered, or
// repeated within the batch, abort before anything is written.
func (s *UserService) BulkCreate(ctx context.Context, reqs []models.CreateUserRequest) ([]*models.User, error) {
	if len(reqs) == 0 {
		return nil, apperr.BadRequest("No users provided")
	}
	return s.create(ctx, reqs)
}

func (s *UserService) create(ctx context.Context, reqs []models.CreateUserRequest) ([]*models.User, error) {
	emails := make([]string, len(reqs))
	seen := make(map[string]bool, len(reqs))
	var repeated []string
	for i, r := range reqs {
		e := strings.ToLower(strings.TrimSpace(r.Email))
		if seen[e] {
			repeated = append(repeated, e)
		}
		seen[e] = true
		emails[i] = e
	}
	if len(repeated) > 0 {
		return nil, apperr.Conflict("Duplicate emails in request: %s", strings.Join(repeated, ", "))
	}

	existing, err := s.store.FindUsersByEmails(ctx, emails)
	if err != nil {
		return nil, err
	}
	if len(existing) == 1 && len(reqs) == 1 {
		return nil, apperr.Conflict("Email already exists")
	}
	if len(existing) > 0 {
		taken := make([]string, len(existing))
		for i, u := range existing {
			taken[i] = u.Email
		}
		sort.Strings(taken)
		return nil, apperr.Conflict("Users with these emails already exist: %s", strings.Join(taken, ", "))
	}

	var pending []pendingUser
	err = s.store.WithTx(ctx, func(ctx context.Context, repo repository.Repository) error {
		pending = pending[:0]
		for i := range reqs {
			p, err := s.insertUser(ctx, repo, &reqs[i], emails[i])
			if err != nil {
				return err
			}
			pending = append(pending, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	users := make([]*models.User, len(pending))
	for i, p := range pending {
		users[i] = p.user
		if err := s.tokens.Put(ctx, p.jti, p.password, s.jwt.PurposeTTL()); err != nil {
			s.logger.Errorw("Failed to store verification token", "user_id", p.user.ID, "error", err)
			continue
		}
		dispatch(ctx, s.queue, s.logger, notify.Message{
			Template: notify.TemplateVerification,
			To:       p.user.Email,
			Data: map[string]string{
				"name":             p.user.Name,
				"verificationLink": s.links.VerificationURL(p.token, p.user.ID.String()),
			},
		})
	}
	s.logger.Infow("Users created", "count", len(users))
	return users, nil
}

// insertUser writes one user and issues its verification token
func (s *UserService) insertUser(ctx context.Context, repo repository.Repository, req *models.CreateUserRequest, email string) (pendingUser, error) {
	if req.AgencyID != nil {
		if _, err := repo.GetAgency(ctx, *req.AgencyID); err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				return pendingUser{}, apperr.BadRequest("Invalid agency ID provided")
			}
			return pendingUser{}, err
		}
	}

	password, err := auth.GenerateTempPassword()
	if err != nil {
		return pendingUser{}, err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return pendingUser{}, err
	}

	u := &models.User{
		Name:           req.Name,
		Email:          email,
		PasswordHash:   hash,
		Role:           req.Role,
		AgencyID:       req.AgencyID,
		IsActive:       true,
		IsTempPassword: true,
	}
	if err := repo.CreateUser(ctx, u); err != nil {
		return pendingUser{}, err
	}

	token, jti, err := s.jwt.IssuePurposeToken(u.ID, auth.PurposeVerify)
	if err != nil {
		return pendingUser{}, err
	}
	return pendingUser{user: u, token: token, jti: jti, password: password}, nil
}

// List returns users, optionally scoped to an agency and role
func (s *UserService) List(ctx context.Context, filter repository.UserFilter) ([]models.User, error) {
	return s.store.ListUsers(ctx, filter)
}

// Get returns one user
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.store.GetUser(ctx, id)
}

// Update applies a partial update. A new password is rehashed and clears
// the temporary-password flag.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, req *models.UpdateUserRequest) (*models.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		other, err := s.store.GetUserByEmail(ctx, email)
		switch {
		case err == nil && other.ID != id:
			return nil, apperr.Conflict("Email already exists")
		case err != nil && !apperr.Is(err, apperr.KindNotFound):
			return nil, err
		}
		u.Email = email
	}
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	if req.AgencyID != nil {
		u.AgencyID = req.AgencyID
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}
	if req.Password != nil {
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
		u.IsTempPassword = false
	}

	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Delete removes a user
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.logger.Infow("User deleted", "id", id)
	return nil
}

// tokenTTL is the time left before a token's expiry
func tokenTTL(claims *auth.Claims) time.Duration {
	if claims.ExpiresAt == nil {
		return 0
	}
	return time.Until(claims.ExpiresAt.Time)
}

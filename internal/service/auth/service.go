package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ayurcare/clinic-api/internal/model"
	"github.com/ayurcare/clinic-api/internal/repository"
	"github.com/ayurcare/clinic-api/internal/service/event"
	"github.com/ayurcare/clinic-api/internal/session"
	"github.com/ayurcare/clinic-api/pkg/auth"
	apperrors "github.com/ayurcare/clinic-api/pkg/errors"
	"github.com/ayurcare/clinic-api/pkg/security"
	"github.com/ayurcare/clinic-api/pkg/validator"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAdminRequired      = errors.New("admin privileges required")
	ErrTokenRevoked       = errors.New("token has been revoked")
)

const (
	tokenType               = "Bearer"
	adminRequiredMessage    = "Access denied. Admin privileges required."
	resetInvalidMessage     = "This reset link is invalid or has expired. Request a new one."
	defaultAdminDisplayName = "Administrator"
	defaultResetTTL         = 30 * time.Minute
)

type Config struct {
	// BootstrapEmail and BootstrapPassword let the first sign-in with these
	// credentials create the admin account. Both must be set.
	BootstrapEmail    string
	BootstrapPassword string
	// PasswordResetURL is the page that accepts ?token=. Reset emails link to it.
	PasswordResetURL string
	PasswordResetTTL time.Duration
}

func (c Config) resetTTL() time.Duration {
	if c.PasswordResetTTL <= 0 {
		return defaultResetTTL
	}
	return c.PasswordResetTTL
}

func (c Config) bootstrapEnabled() bool {
	return c.BootstrapEmail != "" && c.BootstrapPassword != ""
}

// isBootstrapCredentials reports whether email and password are both the
// configured bootstrap pair.
func (c Config) isBootstrapCredentials(email, password string) bool {
	return c.bootstrapEnabled() &&
		strings.EqualFold(strings.TrimSpace(email), c.BootstrapEmail) &&
		subtle.ConstantTimeCompare([]byte(password), []byte(c.BootstrapPassword)) == 1
}

type Service struct {
	users     repository.UserRepository
	jwt       auth.JWTService
	hasher    security.PasswordHasher
	denylist  TokenDenylist
	resets    ResetTokenStore
	events    event.Publisher
	validator *validator.Validator
	config    Config
	now       func() time.Time
}

func NewService(
	users repository.UserRepository,
	jwt auth.JWTService,
	hasher security.PasswordHasher,
	denylist TokenDenylist,
	resets ResetTokenStore,
	events event.Publisher,
	v *validator.Validator,
	config Config,
) *Service {
	if config.bootstrapEnabled() {
		log.Warn().Str("email", config.BootstrapEmail).
			Msg("admin bootstrap on sign-in is enabled; prefer clinicctl bootstrap-admin")
	}
	return &Service{
		users:     users,
		jwt:       jwt,
		hasher:    hasher,
		denylist:  denylist,
		resets:    resets,
		events:    events,
		validator: v,
		config:    config,
		now:       time.Now,
	}
}

func (s *Service) SignUp(ctx context.Context, req *model.SignUpRequest) (*model.AuthResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		FullName:     strings.TrimSpace(req.FullName),
		PasswordHash: hash,
		Role:         model.RoleUser,
		CreatedAt:    s.now().UTC(),
	}
	if phone := strings.TrimSpace(req.Phone); phone != "" {
		user.Phone = &phone
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("an account with this email already exists", err)
		}
		return nil, apperrors.Internal(err)
	}

	if s.events != nil {
		if err := s.events.Publish(ctx, model.EventUserSignedUp, model.UserEvent{
			UserID: user.ID, Email: user.Email, FullName: user.FullName,
		}); err != nil {
			log.Warn().Err(err).Msg("failed to record sign-up event")
		}
	}

	log.Info().Str("user_id", user.ID.String()).Msg("user signed up")
	return s.issue(user)
}

func (s *Service) SignIn(ctx context.Context, req *model.SignInRequest) (*model.AuthResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	bootstrap := s.config.isBootstrapCredentials(req.Email, req.Password)

	user, err := s.users.GetByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) && bootstrap {
		user, err = s.bootstrapOnSignIn(ctx, req.Email, req.Password)
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, apperrors.Unauthorized(ErrInvalidCredentials)
	case err != nil:
		return nil, apperrors.Internal(err)
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, apperrors.Unauthorized(ErrInvalidCredentials)
	}
	s.rehashIfNeeded(ctx, user, req.Password)

	if bootstrap && !user.IsAdmin() {
		log.Warn().Str("user_id", user.ID.String()).Msg("bootstrap sign-in refused for non-admin account")
		return nil, apperrors.Forbidden(adminRequiredMessage, ErrAdminRequired)
	}

	now := s.now().UTC()
	if err := s.users.TouchLastSeen(ctx, user.ID, now); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("failed to update last seen")
	} else {
		user.LastSeen = &now
	}

	return s.issue(user)
}

// bootstrapOnSignIn creates the admin account for a first bootstrap sign-in.
// When a concurrent sign-in created it first, the stored row is returned.
func (s *Service) bootstrapOnSignIn(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.createAdmin(ctx, email, defaultAdminDisplayName, password)
	if errors.Is(err, repository.ErrDuplicate) {
		return s.users.GetByEmail(ctx, email)
	}
	if err != nil {
		return nil, err
	}
	log.Warn().Str("user_id", user.ID.String()).Msg("admin account bootstrapped on sign-in")
	return user, nil
}

// Authenticate resolves a bearer token into a session identity. Role and
// profile come from the stored user, so a role change applies to tokens
// already issued.
func (s *Service) Authenticate(ctx context.Context, token string) (*session.Identity, error) {
	claims, err := s.jwt.Validate(token)
	if err != nil {
		return nil, apperrors.Unauthorized(err)
	}

	revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if revoked {
		return nil, apperrors.Unauthorized(ErrTokenRevoked)
	}

	user, err := s.users.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Unauthorized(err)
		}
		return nil, apperrors.Internal(err)
	}

	identity := &session.Identity{
		UserID:   user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		Role:     user.Role,
		TokenID:  claims.ID,
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Unix()
	}
	return identity, nil
}

// SignOut revokes the token the identity was resolved from.
func (s *Service) SignOut(ctx context.Context, identity *session.Identity) error {
	ttl := time.Until(time.Unix(identity.ExpiresAt, 0))
	if err := s.denylist.Revoke(ctx, identity.TokenID, ttl); err != nil {
		return apperrors.Internal(err)
	}
	log.Info().Str("user_id", identity.UserID.String()).Msg("user signed out")
	return nil
}

// Session returns the stored user for a restored session and records
// the visit.
func (s *Service) Session(ctx context.Context, identity *session.Identity) (*model.User, error) {
	user, err := s.users.Get(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Unauthorized(err)
		}
		return nil, apperrors.Internal(err)
	}

	now := s.now().UTC()
	if err := s.users.TouchLastSeen(ctx, user.ID, now); err == nil {
		user.LastSeen = &now
	}
	return user, nil
}

// RequestPasswordReset issues a single-use reset link and queues the email
// when the account exists. The caller never learns whether it did.
func (s *Service) RequestPasswordReset(ctx context.Context, req *model.PasswordResetRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Error().Err(err).Msg("failed to look up user for password reset")
		}
		return nil
	}

	if s.resets == nil || s.events == nil {
		log.Warn().Str("user_id", user.ID.String()).Msg("password reset requested but resets are not configured")
		return nil
	}

	ttl := s.config.resetTTL()
	token, err := s.resets.Issue(ctx, user.ID, ttl)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to issue password reset token")
		return nil
	}
	link, err := resetLink(s.config.PasswordResetURL, token)
	if err != nil {
		log.Error().Err(err).Msg("invalid password reset url")
		return nil
	}

	expires := s.now().UTC().Add(ttl)
	if err := s.events.Publish(ctx, model.EventPasswordResetRequested, model.UserEvent{
		UserID:         user.ID,
		Email:          user.Email,
		FullName:       user.FullName,
		ResetURL:       link,
		ResetExpiresAt: &expires,
	}); err != nil {
		log.Error().Err(err).Msg("failed to record password reset request")
	}
	return nil
}

// ConfirmPasswordReset sets a new password for the owner of a reset token.
// The token is spent even when the update fails.
func (s *Service) ConfirmPasswordReset(ctx context.Context, req *model.PasswordResetConfirmRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}
	if s.resets == nil {
		return apperrors.BadRequest(resetInvalidMessage, ErrResetTokenInvalid)
	}

	userID, err := s.resets.Consume(ctx, req.Token)
	if err != nil {
		if errors.Is(err, ErrResetTokenInvalid) {
			return apperrors.BadRequest(resetInvalidMessage, err)
		}
		return apperrors.Internal(err)
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash, s.now().UTC()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.BadRequest(resetInvalidMessage, err)
		}
		return apperrors.Internal(err)
	}

	log.Info().Str("user_id", userID.String()).Msg("password reset completed")
	return nil
}

// hashPassword maps hasher length errors onto the password field.
func (s *Service) hashPassword(password string) (string, error) {
	hash, err := s.hasher.Hash(password)
	switch {
	case errors.Is(err, security.ErrPasswordTooShort), errors.Is(err, security.ErrPasswordTooLong):
		return "", apperrors.Validation(map[string]string{"password": err.Error()})
	case err != nil:
		return "", apperrors.Internal(fmt.Errorf("failed to hash password: %w", err))
	}
	return hash, nil
}

// rehashIfNeeded upgrades a hash made with an older cost after a successful
// sign-in. Failures only cost another attempt next time.
func (s *Service) rehashIfNeeded(ctx context.Context, user *model.User, password string) {
	if !s.hasher.NeedsRehash(user.PasswordHash) {
		return
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("failed to rehash password")
		return
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash, s.now().UTC()); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("failed to store rehashed password")
		return
	}
	user.PasswordHash = hash
}

func resetLink(base, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// BootstrapAdmin creates the admin account, or promotes an existing
// account with that email. It reports whether a new row was created.
func (s *Service) BootstrapAdmin(ctx context.Context, email, fullName, password string) (*model.User, bool, error) {
	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		if fullName == "" {
			fullName = defaultAdminDisplayName
		}
		user, err = s.createAdmin(ctx, email, fullName, password)
		if err != nil {
			return nil, false, err
		}
		return user, true, nil
	case err != nil:
		return nil, false, err
	}

	if !user.IsAdmin() {
		if err := s.users.UpdateRole(ctx, user.ID, model.RoleAdmin, s.now().UTC()); err != nil {
			return nil, false, err
		}
		user.Role = model.RoleAdmin
	}
	return user, false, nil
}

func (s *Service) createAdmin(ctx context.Context, email, fullName, password string) (*model.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &model.User{
		ID:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		FullName:     fullName,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}
	return user, nil
}

func (s *Service) issue(user *model.User) (*model.AuthResponse, error) {
	token, claims, err := s.jwt.Generate(auth.Subject{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.FullName,
		Role:   string(user.Role),
	})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &model.AuthResponse{
		AccessToken: token,
		TokenType:   tokenType,
		ExpiresAt:   claims.ExpiresAt.Time,
		User:        user,
	}, nil
}

// Package service holds the blog's account and comment use cases. Services
// validate input, apply policy and translate repository results into
// models.AppError values the HTTP layer can render.
package service

import (
	"context"
	"strings"
	"time"

	"blogsys/internal/auth"
	"blogsys/internal/observability"
	"blogsys/internal/repository"
	blogvalidation "blogsys/internal/validation"
	"blogsys/models"

	"github.com/jellydator/validation"
)

// TokenRevoker remembers revoked token IDs.
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RegisterInput is the payload of a registration request.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

// Validate checks presence first, then the email, username and password rules.
func (in RegisterInput) Validate() error {
	if err := validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required),
		validation.Field(&in.Password, validation.Required),
		validation.Field(&in.Username, validation.Required),
	); err != nil {
		return models.NewValidationError("Email, password and username are required")
	}
	if err := validation.Validate(in.Email, blogvalidation.Email); err != nil {
		return models.NewValidationError(err.Error())
	}
	if err := validation.Validate(in.Username, blogvalidation.Username); err != nil {
		return models.NewValidationError(err.Error())
	}
	if err := validation.Validate(in.Password, blogvalidation.Password); err != nil {
		return models.NewValidationError(err.Error())
	}
	return nil
}

// LoginInput is the payload of a login request.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in LoginInput) Validate() error {
	if err := validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required),
		validation.Field(&in.Password, validation.Required),
	); err != nil {
		return models.NewValidationError("Email and password are required")
	}
	return nil
}

// UpdateProfileInput carries the fields a signed-in user wants to change.
type UpdateProfileInput struct {
	Email    *string `json:"email"`
	Username *string `json:"username"`
	Password *string `json:"password"`
}

func (in UpdateProfileInput) Validate() error {
	if in.Email == nil && in.Username == nil && in.Password == nil {
		return models.NewValidationError("No fields to update")
	}
	if in.Email != nil {
		if err := blogvalidation.ValidateEmail(*in.Email); err != nil {
			return models.NewValidationError(err.Error())
		}
	}
	if in.Username != nil {
		if err := blogvalidation.ValidateUsername(*in.Username); err != nil {
			return models.NewValidationError(err.Error())
		}
	}
	if in.Password != nil {
		if err := blogvalidation.ValidatePassword(*in.Password); err != nil {
			return models.NewValidationError(err.Error())
		}
	}
	return nil
}

// Session is the result of a successful register or login.
type Session struct {
	User   *models.User
	Token  string
	Claims *auth.Claims
}

// AuthService implements registration, login, logout and profile upkeep.
type AuthService struct {
	users   repository.UserRepository
	tokens  *auth.TokenManager
	revoker TokenRevoker
}

// NewAuthService wires the service. revoker may be nil, in which case logout
// only clears the cookie and tokens stay valid until they expire.
func NewAuthService(users repository.UserRepository, tokens *auth.TokenManager, revoker TokenRevoker) *AuthService {
	return &AuthService{users: users, tokens: tokens, revoker: revoker}
}

// TokenTTL is the lifetime of issued session tokens.
func (s *AuthService) TokenTTL() time.Duration {
	return s.tokens.TTL()
}

func (s *AuthService) issue(user *models.User) (*Session, error) {
	token, claims, err := s.tokens.Issue(user.ID, user.Email, user.Username)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &Session{User: user, Token: token, Claims: claims}, nil
}

// Register creates an account and signs the new user in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (sess *Session, err error) {
	ctx, span := observability.StartSpan(ctx, "AuthService.Register")
	defer func() { observability.EndSpan(span, err) }()

	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	if err := in.Validate(); err != nil {
		observability.RecordAuth("register", "invalid")
		return nil, err
	}

	existing, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		observability.RecordAuth("register", "conflict")
		return nil, models.NewConflictError("Email already registered")
	}
	existing, err = s.users.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		observability.RecordAuth("register", "conflict")
		return nil, models.NewConflictError("Username already taken")
	}

	user, err := s.users.Create(ctx, in.Email, in.Password, in.Username)
	if err != nil {
		return nil, err
	}
	observability.RecordAuth("register", "success")
	return s.issue(user)
}

// Login verifies credentials. Unknown emails and wrong passwords produce the
// same error so responses do not reveal which accounts exist.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (sess *Session, err error) {
	ctx, span := observability.StartSpan(ctx, "AuthService.Login")
	defer func() { observability.EndSpan(span, err) }()

	in.Email = strings.TrimSpace(in.Email)
	if err := in.Validate(); err != nil {
		observability.RecordAuth("login", "invalid")
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		observability.RecordAuth("login", "failure")
		return nil, models.NewUnauthorizedError("Invalid email or password")
	}

	ok, err := s.users.VerifyPassword(ctx, user, in.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		observability.RecordAuth("login", "failure")
		return nil, models.NewUnauthorizedError("Invalid email or password")
	}

	observability.RecordAuth("login", "success")
	return s.issue(user)
}

// Authenticate verifies a token and rejects revoked ones.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	if token == "" {
		return nil, models.NewUnauthorizedError("Not logged in")
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}
	if s.revoker != nil {
		revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		if revoked {
			return nil, models.NewUnauthorizedError("Token has been revoked")
		}
	}
	return claims, nil
}

// Logout ends the session behind token. The token must still be valid; on
// success its ID is revoked for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.Authenticate(ctx, token)
	if err != nil {
		observability.RecordAuth("logout", "failure")
		return err
	}
	if err := s.revoke(ctx, claims); err != nil {
		return err
	}
	observability.RecordAuth("logout", "success")
	return nil
}

func (s *AuthService) revoke(ctx context.Context, claims *auth.Claims) error {
	if s.revoker == nil {
		return nil
	}
	if err := s.revoker.Revoke(ctx, claims.ID, s.tokens.Remaining(claims)); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// UsernameStatus answers an availability check.
type UsernameStatus struct {
	Available bool   `json:"available"`
	Message   string `json:"message"`
}

// CheckUsername reports whether username can be registered. A missing name
// is a validation error; a name of the wrong length is simply unavailable.
func (s *AuthService) CheckUsername(ctx context.Context, username string) (*UsernameStatus, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, models.NewValidationError("Username parameter is required")
	}
	if err := validation.Validate(username, blogvalidation.Username); err != nil {
		return &UsernameStatus{Available: false, Message: err.Error()}, nil
	}

	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &UsernameStatus{Available: false, Message: "Username already taken"}, nil
	}
	return &UsernameStatus{Available: true, Message: "Username is available"}, nil
}

// CurrentUser loads the signed-in user.
func (s *AuthService) CurrentUser(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", userID)
	}
	return user, nil
}

// UpdateProfile applies a partial update to the signed-in user.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uint, in UpdateProfileInput) (*models.User, error) {
	if in.Email != nil {
		v := strings.TrimSpace(*in.Email)
		in.Email = &v
	}
	if in.Username != nil {
		v := strings.TrimSpace(*in.Username)
		in.Username = &v
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	if in.Email != nil {
		if err := s.ensureFree(ctx, userID, s.users.GetByEmail, *in.Email, "Email already registered"); err != nil {
			return nil, err
		}
	}
	if in.Username != nil {
		if err := s.ensureFree(ctx, userID, s.users.GetByUsername, *in.Username, "Username already taken"); err != nil {
			return nil, err
		}
	}

	return s.users.Update(ctx, userID, repository.UserUpdate{
		Email:    in.Email,
		Username: in.Username,
		Password: in.Password,
	})
}

func (s *AuthService) ensureFree(
	ctx context.Context,
	userID uint,
	lookup func(context.Context, string) (*models.User, error),
	value, conflictMsg string,
) error {
	owner, err := lookup(ctx, value)
	if err != nil {
		return err
	}
	if owner != nil && owner.ID != userID {
		return models.NewConflictError(conflictMsg)
	}
	return nil
}

// DeleteAccount removes the signed-in user and revokes the token used for
// the request. Comments are not owned by accounts and are left in place.
func (s *AuthService) DeleteAccount(ctx context.Context, claims *auth.Claims) error {
	if claims == nil {
		return models.NewUnauthorizedError("Not logged in")
	}
	removed, err := s.users.Delete(ctx, claims.UserID)
	if err != nil {
		return err
	}
	if !removed {
		return models.NewNotFoundError("User", claims.UserID)
	}
	return s.revoke(ctx, claims)
}

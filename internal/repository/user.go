// Package repository implements the data access layer for the blog.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"blogsys/internal/cache"
	"blogsys/models"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultBcryptCost is the work factor used when none is configured.
const DefaultBcryptCost = 10

// UserUpdate lists the fields a caller may change. Nil fields are left alone.
type UserUpdate struct {
	Email    *string
	Username *string
	Password *string
}

// IsEmpty reports whether no field is set.
func (u UserUpdate) IsEmpty() bool {
	return u.Email == nil && u.Username == nil && u.Password == nil
}

// UserRepository defines persistence operations for users. Lookups return
// (nil, nil) when no row matches.
type UserRepository interface {
	Create(ctx context.Context, email, password, username string) (*models.User, error)
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	VerifyPassword(ctx context.Context, user *models.User, password string) (bool, error)
	Update(ctx context.Context, id uint, fields UserUpdate) (*models.User, error)
	Delete(ctx context.Context, id uint) (bool, error)
}

type userRepository struct {
	db         *gorm.DB
	rdb        *redis.Client
	bcryptCost int
}

// NewUserRepository returns a gorm-backed UserRepository. rdb may be nil, in
// which case GetByID always reads the database.
func NewUserRepository(db *gorm.DB, rdb *redis.Client, bcryptCost int) UserRepository {
	if bcryptCost == 0 {
		bcryptCost = DefaultBcryptCost
	}
	return &userRepository{db: db, rdb: rdb, bcryptCost: bcryptCost}
}

func (r *userRepository) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), r.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func (r *userRepository) Create(ctx context.Context, email, password, username string) (*models.User, error) {
	hash, err := r.hash(password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := models.User{Email: email, Username: username, PasswordHash: hash}
	if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, models.NewConflictError(r.describeConflict(ctx, err, 0, &email))
		}
		return nil, models.NewInternalError(err)
	}

	created, err := r.findBy(ctx, "id = ?", user.ID)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, models.NewCreationError("user", fmt.Errorf("user %d missing after insert", user.ID))
	}
	return created, nil
}

func (r *userRepository) findBy(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	found, err := cache.Aside(ctx, r.rdb, cache.UserKey(id), &user, cache.UserTTL, func() (bool, error) {
		u, err := r.findBy(ctx, "id = ?", id)
		if err != nil || u == nil {
			return false, err
		}
		user = *u
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findBy(ctx, "email = ?", email)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findBy(ctx, "username = ?", username)
}

// VerifyPassword compares password against the hash stored for user.ID. The
// hash is always re-read so cached or stale user values cannot be trusted.
func (r *userRepository) VerifyPassword(ctx context.Context, user *models.User, password string) (bool, error) {
	if user == nil {
		return false, nil
	}

	var hashes []string
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", user.ID).
		Pluck("password_hash", &hashes).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	if len(hashes) == 0 {
		return false, nil
	}

	err := bcrypt.CompareHashAndPassword([]byte(hashes[0]), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, models.NewInternalError(err)
	}
}

func (r *userRepository) Update(ctx context.Context, id uint, fields UserUpdate) (*models.User, error) {
	updates := map[string]any{"updated_at": time.Now().UTC()}
	if fields.Email != nil {
		updates["email"] = *fields.Email
	}
	if fields.Username != nil {
		updates["username"] = *fields.Username
	}
	if fields.Password != nil {
		hash, err := r.hash(*fields.Password)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		updates["password_hash"] = hash
	}

	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, models.NewConflictError(r.describeConflict(ctx, err, id, fields.Email))
		}
		return nil, models.NewInternalError(err)
	}
	cache.Invalidate(ctx, r.rdb, cache.UserKey(id))

	user, err := r.findBy(ctx, "id = ?", id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", id)
	}
	return user, nil
}

func (r *userRepository) Delete(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&models.User{}, id)
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	cache.Invalidate(ctx, r.rdb, cache.UserKey(id))
	return result.RowsAffected > 0, nil
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}

// describeConflict names the unique key a write collided with. Drivers that
// translate the violation into gorm.ErrDuplicatedKey drop the column name, so
// the email is looked up to tell the two keys apart.
func (r *userRepository) describeConflict(ctx context.Context, err error, selfID uint, email *string) string {
	if msg := conflictMessage(err); msg != genericConflict {
		return msg
	}
	if email == nil {
		return "Username already taken"
	}
	owner, lookupErr := r.findBy(ctx, "email = ?", *email)
	if lookupErr != nil {
		return genericConflict
	}
	if owner != nil && owner.ID != selfID {
		return "Email already registered"
	}
	return "Username already taken"
}

const genericConflict = "Email or username already in use"

func conflictMessage(err error) string {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "username"):
		return "Username already taken"
	case strings.Contains(msg, "email"):
		return "Email already registered"
	default:
		return genericConflict
	}
}

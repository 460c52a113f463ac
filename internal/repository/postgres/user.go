package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ayurcare/clinic-api/internal/model"
	"github.com/ayurcare/clinic-api/internal/repository"
)

type userRepository struct {
	BaseRepository
}

func NewUserRepository(base BaseRepository) repository.UserRepository {
	return &userRepository{base}
}

const userColumns = `id, email, full_name, phone, password_hash, role, created_at, updated_at, last_seen`

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, email, full_name, phone, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.FullName,
		user.Phone,
		user.PasswordHash,
		user.Role,
		user.CreatedAt,
	)
	if err != nil {
		return wrap("create user", err)
	}
	return nil
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user model.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, wrap("get user", err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	var user model.User
	if err := r.db.GetContext(ctx, &user, query, strings.ToLower(strings.TrimSpace(email))); err != nil {
		return nil, wrap("get user by email", err)
	}
	return &user, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, id uuid.UUID, req *model.UpdateProfileRequest, at time.Time) (*model.User, error) {
	query := `
		UPDATE users
		SET full_name = $1, phone = COALESCE($2, phone), updated_at = $3
		WHERE id = $4
		RETURNING ` + userColumns

	var user model.User
	if err := r.db.GetContext(ctx, &user, query, req.FullName, req.Phone, at, id); err != nil {
		return nil, wrap("update user profile", err)
	}
	return &user, nil
}

func (r *userRepository) UpdateRole(ctx context.Context, id uuid.UUID, role model.Role, at time.Time) error {
	query := `UPDATE users SET role = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, role, at, id)
	if err != nil {
		return wrap("update user role", err)
	}
	return expectOne(result)
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string, at time.Time) error {
	query := `UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, hash, at, id)
	if err != nil {
		return wrap("update user password", err)
	}
	return expectOne(result)
}

func (r *userRepository) TouchLastSeen(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE users SET last_seen = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return wrap("touch user last seen", err)
	}
	return expectOne(result)
}

package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const resetPrefix = "auth:reset:"

var ErrResetTokenInvalid = errors.New("reset token is invalid or expired")

// ResetTokenStore issues single-use password reset tokens.
type ResetTokenStore interface {
	Issue(ctx context.Context, userID uuid.UUID, ttl time.Duration) (string, error)
	// Consume returns the owner of token and invalidates it.
	Consume(ctx context.Context, token string) (uuid.UUID, error)
}

type redisResetTokens struct {
	client *redis.Client
}

func NewRedisResetTokens(client *redis.Client) ResetTokenStore {
	return &redisResetTokens{client: client}
}

func (s *redisResetTokens) Issue(ctx context.Context, userID uuid.UUID, ttl time.Duration) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	if err := s.client.Set(ctx, resetKey(token), userID.String(), ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store reset token: %w", err)
	}
	return token, nil
}

func (s *redisResetTokens) Consume(ctx context.Context, token string) (uuid.UUID, error) {
	val, err := s.client.GetDel(ctx, resetKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrResetTokenInvalid
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to read reset token: %w", err)
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, ErrResetTokenInvalid
	}
	return id, nil
}

// Only a digest of the token is kept in Redis.
func resetKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return resetPrefix + hex.EncodeToString(sum[:])
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// Base contains common fields for content models
type Base struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// Touch stamps the update time.
func (b *Base) Touch(now time.Time) {
	b.UpdatedAt = &now
}

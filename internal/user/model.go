package user

import (
	"time"

	"github.com/gofrs/uuid"
)

// User is the identity record orders are owned by.
type User struct {
	ID        uuid.UUID `json:"_id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	IsAdmin   bool      `json:"isAdmin" db:"is_admin"`
	TokenHash string    `json:"-" db:"token_hash"` // bcrypt hash of the bearer token secret
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

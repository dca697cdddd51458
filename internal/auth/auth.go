// Package auth verifies bearer tokens and carries the caller identity
// through request contexts.
//
// A token has the form "<user-uuid>.<secret>". Only a bcrypt hash of the
// secret is stored with the user.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/velora/internal/user"
	"golang.org/x/crypto/bcrypt"
)

var ErrUnauthenticated = errors.New("invalid or missing credentials")

// Identity is the authenticated caller.
type Identity struct {
	UserID  uuid.UUID
	Name    string
	Email   string
	IsAdmin bool
}

// Owns reports whether the identity is the owner of a resource.
func (i Identity) Owns(ownerID uuid.UUID) bool {
	return i.UserID != uuid.Nil && i.UserID == ownerID
}

// CanAccess reports whether the identity is the owner or an admin.
func (i Identity) CanAccess(ownerID uuid.UUID) bool {
	return i.IsAdmin || i.Owns(ownerID)
}

type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// Authenticator resolves bearer tokens into identities.
type Authenticator struct {
	users UserLookup
}

func NewAuthenticator(users UserLookup) *Authenticator {
	return &Authenticator{users: users}
}

func (a *Authenticator) Authenticate(ctx context.Context, token string) (Identity, error) {
	idPart, secret, ok := strings.Cut(strings.TrimSpace(token), ".")
	if !ok || secret == "" {
		return Identity{}, ErrUnauthenticated
	}

	userID, err := uuid.FromString(idPart)
	if err != nil {
		return Identity{}, ErrUnauthenticated
	}

	u, err := a.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return Identity{}, ErrUnauthenticated
		}
		log.Error().Err(err).Stringer("user_id", userID).Msg("auth: failed to load user for token")
		return Identity{}, fmt.Errorf("auth: failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.TokenHash), []byte(secret)); err != nil {
		return Identity{}, ErrUnauthenticated
	}

	return Identity{
		UserID:  u.ID,
		Name:    u.Name,
		Email:   u.Email,
		IsAdmin: u.IsAdmin,
	}, nil
}

// NewToken issues a fresh token for userID and returns it with the hash to store.
func NewToken(userID uuid.UUID) (token string, hash string, err error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("auth: failed to read random bytes: %w", err)
	}
	secret := base64.RawURLEncoding.EncodeToString(buf)

	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", "", fmt.Errorf("auth: failed to hash token: %w", err)
	}

	return userID.String() + "." + secret, string(hashed), nil
}

type contextKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

package ports

import "context"

type AuthClaims struct {
	Username string
	Roles    []string
	TokenID  string
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type TokenManager interface {
	Issue(claims AuthClaims) (string, error)
	Parse(token string) (AuthClaims, error)
}

// RevocationStore remembers tokens invalidated by logout until they expire.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

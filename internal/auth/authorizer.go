package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

var (
	// ErrNoCredentials means the strategy found nothing to check; the chain moves on.
	ErrNoCredentials = errors.New("no credentials")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
)

// Authorizer resolves the caller of a request.
type Authorizer interface {
	Authorize(r *http.Request) (Principal, error)
}

const AdminKeyHeader = "admin-key"

// AdminKey accepts the shared operator key. An empty Key disables it.
type AdminKey struct {
	Key string
}

func (a AdminKey) Authorize(r *http.Request) (Principal, error) {
	got := r.Header.Get(AdminKeyHeader)
	if got == "" || a.Key == "" {
		return Principal{}, ErrNoCredentials
	}
	if subtle.ConstantTimeCompare([]byte(got), []byte(a.Key)) != 1 {
		return Principal{}, ErrUnauthorized
	}
	return Principal{ID: "admin-key", Role: RoleAdmin, Name: "Administrator"}, nil
}

// Bearer accepts "Authorization: Bearer <jwt>".
type Bearer struct {
	Tokens *TokenIssuer
}

func (b Bearer) Authorize(r *http.Request) (Principal, error) {
	h := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(h, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return Principal{}, ErrNoCredentials
	}
	p, err := b.Tokens.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Principal{}, ErrUnauthorized
	}
	return p, nil
}

// Chain tries each strategy in order; the first that yields a principal wins.
// A rejected credential does not stop the chain. If nothing matched but some
// strategy recognised the caller without the right role, the result is ErrForbidden.
type Chain []Authorizer

func (c Chain) Authorize(r *http.Request) (Principal, error) {
	result := ErrUnauthorized
	for _, a := range c {
		p, err := a.Authorize(r)
		if err == nil {
			return p, nil
		}
		if errors.Is(err, ErrForbidden) {
			result = ErrForbidden
		}
	}
	return Principal{}, result
}

// RequireRole narrows an Authorizer to callers holding role.
func RequireRole(next Authorizer, role Role) Authorizer {
	return roleGate{next: next, role: role}
}

type roleGate struct {
	next Authorizer
	role Role
}

func (g roleGate) Authorize(r *http.Request) (Principal, error) {
	p, err := g.next.Authorize(r)
	if err != nil {
		return Principal{}, err
	}
	if p.Role != g.role {
		return Principal{}, ErrForbidden
	}
	return p, nil
}

// AdminChain is admin-key first, then an admin bearer token.
func AdminChain(adminKey string, tokens *TokenIssuer) Authorizer {
	return Chain{
		AdminKey{Key: adminKey},
		RequireRole(Bearer{Tokens: tokens}, RoleAdmin),
	}
}

package auth

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// SeedAdmin makes sure an admin account with the given credentials exists.
func SeedAdmin(ctx context.Context, repo *Repo, email, password string) (*User, error) {
	email = adminLoginEmail(email)
	if password == "" {
		return nil, fmt.Errorf("admin password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	u := &User{Name: "Administrator", Email: email, Role: RoleAdmin, PasswordHash: string(hash)}
	if err := repo.UpsertAdmin(ctx, u); err != nil {
		return nil, fmt.Errorf("upsert admin: %w", err)
	}
	return u, nil
}

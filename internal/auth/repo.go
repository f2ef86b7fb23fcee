package auth

import (
	"context"
	"errors"
	"time"

	"github.com/ariefcatur/go-chipstore/internal/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
	ErrInvalidOTP   = errors.New("invalid or expired otp")
	ErrInvalidReset = errors.New("invalid or expired reset token")
	ErrUnknownRef   = errors.New("user or product does not exist")
)

type Repo struct{ DB *pgxpool.Pool }

const userColumns = `id, name, email, phone, role, password_hash, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repo) Create(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	_, err := postgres.Conn(ctx, r.DB).Exec(ctx, `
		INSERT INTO users (id, name, email, phone, role, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Name, u.Email, u.Phone, u.Role, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
	if postgres.IsUniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(postgres.Conn(ctx, r.DB).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email=$1`, email))
}

func (r *Repo) GetByID(ctx context.Context, id string) (*User, error) {
	return scanUser(postgres.Conn(ctx, r.DB).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

func (r *Repo) UpdateProfile(ctx context.Context, u *User) error {
	err := postgres.Conn(ctx, r.DB).QueryRow(ctx, `
		UPDATE users SET name=$2, email=$3, phone=$4, updated_at=NOW()
		WHERE id=$1
		RETURNING updated_at`, u.ID, u.Name, u.Email, u.Phone).Scan(&u.UpdatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return ErrUserNotFound
	case postgres.IsUniqueViolation(err):
		return ErrEmailTaken
	}
	return err
}

// UpsertAdmin creates or refreshes an admin account; used by the seed command.
func (r *Repo) UpsertAdmin(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return postgres.Conn(ctx, r.DB).QueryRow(ctx, `
		INSERT INTO users (id, name, email, phone, role, password_hash)
		VALUES ($1, $2, $3, $4, 'admin', $5)
		ON CONFLICT (email) DO UPDATE
		SET role='admin', password_hash=EXCLUDED.password_hash, updated_at=NOW()
		RETURNING id`, u.ID, u.Name, u.Email, u.Phone, u.PasswordHash).Scan(&u.ID)
}

func (r *Repo) SetResetOTP(ctx context.Context, userID, otp string, expiry time.Time) error {
	_, err := postgres.Conn(ctx, r.DB).Exec(ctx, `
		UPDATE users SET reset_otp=$2, reset_otp_expiry=$3, updated_at=NOW() WHERE id=$1`,
		userID, otp, expiry)
	return err
}

// ExchangeOTP consumes a matching unexpired OTP and stores a reset token in one statement.
func (r *Repo) ExchangeOTP(ctx context.Context, email, otp string, now time.Time, token string, tokenExpiry time.Time) (*User, error) {
	u, err := scanUser(postgres.Conn(ctx, r.DB).QueryRow(ctx, `
		UPDATE users SET
			reset_otp=NULL, reset_otp_expiry=NULL,
			reset_token=$4, reset_token_expiry=$5, updated_at=NOW()
		WHERE email=$1 AND reset_otp=$2 AND reset_otp_expiry > $3
		RETURNING `+userColumns, email, otp, now, token, tokenExpiry))
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidOTP
	}
	return u, err
}

// ResetPassword consumes a matching unexpired reset token and sets the new hash.
func (r *Repo) ResetPassword(ctx context.Context, token, hash string, now time.Time) (*User, error) {
	u, err := scanUser(postgres.Conn(ctx, r.DB).QueryRow(ctx, `
		UPDATE users SET
			password_hash=$2, reset_token=NULL, reset_token_expiry=NULL, updated_at=NOW()
		WHERE reset_token=$1 AND reset_token_expiry > $3
		RETURNING `+userColumns, token, hash, now))
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidReset
	}
	return u, err
}

// ToggleWishlist adds productID if absent, removes it otherwise. Reports whether it was added.
func (r *Repo) ToggleWishlist(ctx context.Context, userID, productID string) (bool, error) {
	q := postgres.Conn(ctx, r.DB)
	tag, err := q.Exec(ctx, `DELETE FROM wishlist_items WHERE user_id=$1 AND product_id=$2`, userID, productID)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}
	_, err = q.Exec(ctx, `
		INSERT INTO wishlist_items (user_id, product_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, userID, productID)
	if postgres.IsForeignKeyViolation(err) {
		return false, ErrUnknownRef
	}
	return err == nil, err
}

func (r *Repo) Wishlist(ctx context.Context, userID string) ([]string, error) {
	rows, err := postgres.Conn(ctx, r.DB).Query(ctx,
		`SELECT product_id FROM wishlist_items WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

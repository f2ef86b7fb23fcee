package reviews

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
	ErrNotFound        = errors.New("review not found")
	ErrDuplicate       = errors.New("review already exists")
	ErrProductNotFound = errors.New("product not found")
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Insert(ctx context.Context, rv *Review) error {
	if rv.ID == "" {
		rv.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	rv.CreatedAt, rv.UpdatedAt = now, now
	_, err := postgres.Conn(ctx, r.DB).Exec(ctx, `
		INSERT INTO reviews (id, product_id, user_id, rating, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rv.ID, rv.ProductID, rv.UserID, rv.Rating, rv.Comment, rv.CreatedAt, rv.UpdatedAt)
	switch {
	case postgres.IsUniqueViolation(err):
		return ErrDuplicate
	case postgres.IsForeignKeyViolation(err):
		return ErrProductNotFound
	}
	return err
}

// GetOwnedForUpdate locks the caller's review until the surrounding transaction ends.
func (r *Repo) GetOwnedForUpdate(ctx context.Context, id, userID string) (*Review, error) {
	var rv Review
	err := postgres.Conn(ctx, r.DB).QueryRow(ctx, `
		SELECT id, product_id, user_id, rating, comment, created_at, updated_at
		FROM reviews WHERE id=$1 AND user_id=$2
		FOR UPDATE`, id, userID).
		Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.Rating, &rv.Comment, &rv.CreatedAt, &rv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *Repo) Update(ctx context.Context, rv *Review) error {
	err := postgres.Conn(ctx, r.DB).QueryRow(ctx, `
		UPDATE reviews SET rating=$2, comment=$3, updated_at=NOW()
		WHERE id=$1
		RETURNING updated_at`, rv.ID, rv.Rating, rv.Comment).Scan(&rv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	tag, err := postgres.Conn(ctx, r.DB).Exec(ctx, `DELETE FROM reviews WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) ListByProduct(ctx context.Context, productID string) ([]Review, error) {
	rows, err := postgres.Conn(ctx, r.DB).Query(ctx, `
		SELECT rv.id, rv.product_id, rv.user_id, COALESCE(u.name, ''), rv.rating, rv.comment, rv.created_at, rv.updated_at
		FROM reviews rv
		LEFT JOIN users u ON u.id = rv.user_id
		WHERE rv.product_id=$1
		ORDER BY rv.created_at DESC`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Review{}
	for rows.Next() {
		var rv Review
		if err := rows.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.UserName, &rv.Rating, &rv.Comment,
			&rv.CreatedAt, &rv.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

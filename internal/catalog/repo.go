package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ariefcatur/go-chipstore/internal/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("product not found")

type Repo struct{ DB *pgxpool.Pool }

const productColumns = `id, name, description, image_url, category, price, original_price, quantity,
	featured, bestseller, initial_rating, total_rating, review_count, rating,
	is_hamper, packets_per_hamper, packet_price, packet_weight_grams, contents,
	ingredients, nutrition_info, created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.ImageURL, &p.Category, &p.Price, &p.OriginalPrice,
		&p.Quantity, &p.Featured, &p.Bestseller, &p.InitialRating, &p.TotalRating, &p.ReviewCount, &p.Rating,
		&p.IsHamper, &p.PacketsPerHamper, &p.PacketPrice, &p.PacketWeightGrams, &p.Contents,
		&p.Ingredients, &p.NutritionInfo, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func collect(rows pgx.Rows) ([]Product, error) {
	defer rows.Close()
	out := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *Repo) List(ctx context.Context, f Filter) ([]Product, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if s := strings.TrimSpace(f.Search); s != "" {
		p := arg("%" + escapeLike(s) + "%")
		where = append(where, fmt.Sprintf("(name ILIKE %[1]s OR description ILIKE %[1]s OR category ILIKE %[1]s)", p))
	}
	if m, ok := resolveCategory(f.Category); ok {
		switch {
		case m.hampers:
			where = append(where, "is_hamper")
		case m.flavor != "":
			where = append(where, fmt.Sprintf(
				"EXISTS (SELECT 1 FROM jsonb_array_elements(contents) c WHERE lower(c->>'flavor') = lower(%s))", arg(m.flavor)))
		default:
			where = append(where, fmt.Sprintf("lower(category) = lower(%s)", arg(m.category)))
		}
	}
	if f.MinPrice != nil {
		where = append(where, "price >= "+arg(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		where = append(where, "price <= "+arg(*f.MaxPrice))
	}
	if f.Featured {
		where = append(where, "featured")
	}
	if f.Bestseller {
		where = append(where, "bestseller")
	}

	q := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY ` + f.Sort.orderBy()

	rows, err := postgres.Conn(ctx, r.DB).Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *Repo) Get(ctx context.Context, id string) (*Product, error) {
	p, err := scanProduct(postgres.Conn(ctx, r.DB).QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (r *Repo) GetMany(ctx context.Context, ids []string) ([]Product, error) {
	if len(ids) == 0 {
		return []Product{}, nil
	}
	rows, err := postgres.Conn(ctx, r.DB).Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ANY($1::uuid[]) ORDER BY name`, ids)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	err := postgres.Conn(ctx, r.DB).QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&n)
	return n, err
}

func (r *Repo) Create(ctx context.Context, p *Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	_, err := postgres.Conn(ctx, r.DB).Exec(ctx, `
		INSERT INTO products (id, name, description, image_url, category, price, original_price, quantity,
			featured, bestseller, initial_rating, total_rating, review_count, rating,
			is_hamper, packets_per_hamper, packet_price, packet_weight_grams, contents,
			ingredients, nutrition_info, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)`,
		p.ID, p.Name, p.Description, p.ImageURL, p.Category, p.Price, p.OriginalPrice, p.Quantity,
		p.Featured, p.Bestseller, p.InitialRating, p.TotalRating, p.ReviewCount, p.Rating,
		p.IsHamper, p.PacketsPerHamper, p.PacketPrice, p.PacketWeightGrams, p.Contents,
		p.Ingredients, p.NutritionInfo, p.CreatedAt, p.UpdatedAt)
	return err
}

// Update writes the editable fields. Rating aggregates are owned by ApplyRatingDelta,
// except that a new initial rating is reflected while nobody has reviewed yet.
func (r *Repo) Update(ctx context.Context, p *Product) error {
	row := postgres.Conn(ctx, r.DB).QueryRow(ctx, `
		UPDATE products SET
			name=$2, description=$3, image_url=$4, category=$5, price=$6, original_price=$7, quantity=$8,
			featured=$9, bestseller=$10, initial_rating=$11,
			rating = CASE WHEN review_count = 0 THEN $11 ELSE rating END,
			is_hamper=$12, packets_per_hamper=$13, packet_price=$14, packet_weight_grams=$15,
			contents=$16, ingredients=$17, nutrition_info=$18, updated_at=NOW()
		WHERE id=$1
		RETURNING `+productColumns,
		p.ID, p.Name, p.Description, p.ImageURL, p.Category, p.Price, p.OriginalPrice, p.Quantity,
		p.Featured, p.Bestseller, p.InitialRating,
		p.IsHamper, p.PacketsPerHamper, p.PacketPrice, p.PacketWeightGrams,
		p.Contents, p.Ingredients, p.NutritionInfo)
	updated, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	*p = *updated
	return nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	tag, err := postgres.Conn(ctx, r.DB).Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplyRatingDelta moves review_count and total_rating together and recomputes
// rating in the same statement, so concurrent reviews never lose an update.
func (r *Repo) ApplyRatingDelta(ctx context.Context, productID string, oldRating, newRating *int) (*Product, error) {
	d, err := DeltaFor(oldRating, newRating)
	if err != nil {
		return nil, err
	}
	row := postgres.Conn(ctx, r.DB).QueryRow(ctx, `
		UPDATE products SET
			review_count = review_count + $2,
			total_rating = total_rating + $3,
			rating = CASE
				WHEN review_count + $2 > 0
					THEN ROUND((total_rating + $3)::numeric / (review_count + $2), 1)::double precision
				ELSE initial_rating
			END,
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+productColumns,
		productID, d.Count, d.Total)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

package orders

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
	ErrNotFound = errors.New("order not found")
	// ErrStatusChanged means the order left the expected status between read and write.
	ErrStatusChanged = errors.New("order status changed concurrently")
)

type Repo struct{ DB *pgxpool.Pool }

const orderColumns = `id, customer_name, email, address, phone, payment_method, items,
	subtotal, tax, total_amount, status, payment_status, payment_details, email_sent,
	created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.CustomerName, &o.Email, &o.Address, &o.Phone, &o.PaymentMethod, &o.Items,
		&o.Subtotal, &o.Tax, &o.TotalAmount, &o.Status, &o.PaymentStatus, &o.PaymentDetails, &o.EmailSent,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func scanOrders(rows pgx.Rows) ([]Order, error) {
	defer rows.Close()
	out := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *Repo) Create(ctx context.Context, o *Order) error {
	o.ID = uuid.NewString()
	now := time.Now().UTC()
	o.CreatedAt, o.UpdatedAt = now, now
	_, err := postgres.Conn(ctx, r.DB).Exec(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		o.ID, o.CustomerName, o.Email, o.Address, o.Phone, o.PaymentMethod, o.Items,
		o.Subtotal, o.Tax, o.TotalAmount, o.Status, o.PaymentStatus, o.PaymentDetails, o.EmailSent,
		o.CreatedAt, o.UpdatedAt)
	return err
}

func (r *Repo) Get(ctx context.Context, id string) (*Order, error) {
	o, err := scanOrder(postgres.Conn(ctx, r.DB).QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return o, err
}

func (r *Repo) List(ctx context.Context) ([]Order, error) {
	rows, err := postgres.Conn(ctx, r.DB).Query(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return scanOrders(rows)
}

func (r *Repo) ListByEmail(ctx context.Context, email string) ([]Order, error) {
	rows, err := postgres.Conn(ctx, r.DB).Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE lower(email) = lower($1) ORDER BY created_at DESC`, email)
	if err != nil {
		return nil, err
	}
	return scanOrders(rows)
}

// SetStatus overwrites the status without looking at the current one.
func (r *Repo) SetStatus(ctx context.Context, id string, to Status) (*Order, error) {
	o, err := scanOrder(postgres.Conn(ctx, r.DB).QueryRow(ctx, `
		UPDATE orders SET status=$2, updated_at=NOW()
		WHERE id=$1
		RETURNING `+orderColumns, id, to))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return o, err
}

// CompareAndSetStatus writes to only while the order is still in from.
func (r *Repo) CompareAndSetStatus(ctx context.Context, id string, from, to Status) (*Order, error) {
	o, err := scanOrder(postgres.Conn(ctx, r.DB).QueryRow(ctx, `
		UPDATE orders SET status=$3, updated_at=NOW()
		WHERE id=$1 AND status=$2
		RETURNING `+orderColumns, id, from, to))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrStatusChanged
	}
	return o, err
}

func (r *Repo) MarkEmailSent(ctx context.Context, id string) error {
	tag, err := postgres.Conn(ctx, r.DB).Exec(ctx,
		`UPDATE orders SET email_sent=TRUE, updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) Stats(ctx context.Context, recent int) (Stats, error) {
	var st Stats
	err := postgres.Conn(ctx, r.DB).QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'pending'),
		       COUNT(*) FILTER (WHERE status = 'delivered'),
		       COALESCE(SUM(total_amount) FILTER (WHERE status = 'delivered'), 0)
		FROM orders`).
		Scan(&st.TotalOrders, &st.PendingOrders, &st.CompletedOrders, &st.TotalRevenue)
	if err != nil {
		return Stats{}, err
	}

	rows, err := postgres.Conn(ctx, r.DB).Query(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC LIMIT $1`, recent)
	if err != nil {
		return Stats{}, err
	}
	st.RecentOrders, err = scanOrders(rows)
	return st, err
}

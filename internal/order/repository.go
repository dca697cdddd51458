package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const idempotencyIndexName = "orders_user_idempotency_key_idx"

type Repository interface {
	CreateOrder(ctx context.Context, order *Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetOrderByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*Order, error)
	GetOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]Order, error)
	ListOrders(ctx context.Context) ([]Order, error)
	// MarkPaid records payment only if the order is not paid yet.
	MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time, result PaymentResult) error
	// MarkDelivered records delivery only if the order is not delivered yet.
	MarkDelivered(ctx context.Context, id uuid.UUID, deliveredAt time.Time) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const orderColumns = `
	id, user_id, order_items, shipping_address, payment_method,
	items_price, shipping_price, tax_price, total_price,
	is_paid, paid_at, payment_result, is_delivered, delivered_at,
	idempotency_key, created_at, updated_at`

func (r *postgresRepository) CreateOrder(ctx context.Context, o *Order) error {
	if o.ID == uuid.Nil {
		genID, err := uuid.NewV4()
		if err != nil {
			log.Error().Err(err).Msg("repository: failed to generate order ID")
			return fmt.Errorf("repository: failed to generate order ID: %w", err)
		}
		o.ID = genID
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	o.UpdatedAt = o.CreatedAt

	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err := r.db.Exec(ctx, query,
		o.ID,
		o.User.ID,
		o.OrderItems,
		o.ShippingAddress,
		string(o.PaymentMethod),
		o.ItemsPrice,
		o.ShippingPrice,
		o.TaxPrice,
		o.TotalPrice,
		o.IsPaid,
		o.PaidAt,
		o.PaymentResult,
		o.IsDelivered,
		o.DeliveredAt,
		nullableString(o.IdempotencyKey),
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == idempotencyIndexName {
			return ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("repository: failed to insert order: %w", err)
	}

	return nil
}

func (r *postgresRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	o, err := scanOrder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by id %s: %w", id, err)
	}

	return o, nil
}

func (r *postgresRepository) GetOrderByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 AND idempotency_key = $2`

	o, err := scanOrder(r.db.QueryRow(ctx, query, userID, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by idempotency key for user %s: %w", userID, err)
	}

	return o, nil
}

func (r *postgresRepository) GetOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	orders, err := r.queryOrders(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders for user id %s: %w", userID, err)
	}
	return orders, nil
}

func (r *postgresRepository) ListOrders(ctx context.Context) ([]Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`

	orders, err := r.queryOrders(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders: %w", err)
	}
	return orders, nil
}

func (r *postgresRepository) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time, result PaymentResult) error {
	query := `
		UPDATE orders
		SET is_paid = TRUE, paid_at = $1, payment_result = $2, updated_at = $1
		WHERE id = $3 AND is_paid = FALSE
	`
	cmdTag, err := r.db.Exec(ctx, query, paidAt, result, id)
	if err != nil {
		log.Error().Err(err).Stringer("order_id", id).Msg("repository: failed to mark order paid")
		return fmt.Errorf("repository: failed to mark order %s paid: %w", id, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return r.explainNoop(ctx, id, ErrAlreadyPaid)
	}
	return nil
}

func (r *postgresRepository) MarkDelivered(ctx context.Context, id uuid.UUID, deliveredAt time.Time) error {
	query := `
		UPDATE orders
		SET is_delivered = TRUE, delivered_at = $1, updated_at = $1
		WHERE id = $2 AND is_delivered = FALSE
	`
	cmdTag, err := r.db.Exec(ctx, query, deliveredAt, id)
	if err != nil {
		log.Error().Err(err).Stringer("order_id", id).Msg("repository: failed to mark order delivered")
		return fmt.Errorf("repository: failed to mark order %s delivered: %w", id, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return r.explainNoop(ctx, id, ErrAlreadyDelivered)
	}
	return nil
}

// explainNoop tells a missing order apart from one whose guard did not match.
func (r *postgresRepository) explainNoop(ctx context.Context, id uuid.UUID, guardErr error) error {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("repository: failed to check order %s: %w", id, err)
	}
	if !exists {
		log.Warn().Stringer("order_id", id).Msg("repository: order not found for status update")
		return ErrOrderNotFound
	}
	return guardErr
}

func (r *postgresRepository) queryOrders(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		o              Order
		paymentMethod  string
		idempotencyKey *string
	)
	err := row.Scan(
		&o.ID,
		&o.User.ID,
		&o.OrderItems,
		&o.ShippingAddress,
		&paymentMethod,
		&o.ItemsPrice,
		&o.ShippingPrice,
		&o.TaxPrice,
		&o.TotalPrice,
		&o.IsPaid,
		&o.PaidAt,
		&o.PaymentResult,
		&o.IsDelivered,
		&o.DeliveredAt,
		&idempotencyKey,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	o.PaymentMethod = PaymentMethod(paymentMethod)
	if idempotencyKey != nil {
		o.IdempotencyKey = *idempotencyKey
	}
	return &o, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/niksmo/marketplace/internal/core/domain"
	"github.com/niksmo/marketplace/internal/core/port"
	"github.com/niksmo/marketplace/pkg/retry"
)

var _ port.CatalogStorage = (*PgStorage)(nil)

type sqldb interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PingContext(ctx context.Context) error
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	Close() error
}

// PgStorage persists the catalog in PostgreSQL. Review mutations are
// single statements, atomic per row; deleting a product cascades to
// its reviews through the foreign key.
type PgStorage struct {
	sqldb sqldb
}

func NewPgStorage(ctx context.Context, dsn string) (*PgStorage, error) {
	const op = "NewPgStorage"

	connConfig, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	connStr := stdlib.RegisterConnConfig(connConfig)
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s := &PgStorage{db}
	if err := s.ping(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

func (s *PgStorage) ping(ctx context.Context) error {
	const op = "PgStorage.ping"

	retryCfg := retry.RetryConfig{
		MaxAttempts: 5,
		Backoff:     retry.ExponentialBackoff(200 * time.Millisecond),
	}
	err := retry.Do(ctx, retryCfg, func() error {
		return s.sqldb.PingContext(ctx)
	})
	if err != nil {
		return fmt.Errorf("%s: database unavailable: %w", op, err)
	}
	slog.Info("database is available", "op", op)
	return nil
}

func (s *PgStorage) Close() {
	const op = "PgStorage.Close"
	log := slog.With("op", op)

	log.Info("closing sql database...")
	if err := s.sqldb.Close(); err != nil {
		log.Error("failed to close", "err", err)
		return
	}
	log.Info("sql database is closed")
}

const productColumns = `
	id, name, description, brand, category,
	image_url, price, created_at, updated_at`

var productSortColumns = map[string]string{
	"":          "created_at",
	"name":      "name",
	"brand":     "brand",
	"category":  "category",
	"price":     "price",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

func (s *PgStorage) ListProducts(
	ctx context.Context, q domain.ProductQuery,
) ([]domain.Product, int, error) {
	const op = "PgStorage.ListProducts"

	if err := ctx.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	sortCol, ok := productSortColumns[q.SortField]
	if !ok {
		sortCol = "created_at"
	}
	dir := "ASC"
	if q.SortDesc {
		dir = "DESC"
	}

	limit := int64(q.Limit)
	if limit <= 0 {
		limit = -1 // LIMIT ALL
	}

	query := fmt.Sprintf(`
		SELECT %s FROM products
		WHERE ($1 = '' OR lower(category) = lower($1))
		ORDER BY %s %s, id ASC
		LIMIT NULLIF($2, -1) OFFSET $3;`,
		productColumns, sortCol, dir,
	)

	rows, err := s.sqldb.QueryContext(ctx, query, q.Category, limit, q.Skip)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var ps []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		ps = append(ps, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	var total int
	countQuery := `
		SELECT count(*) FROM products
		WHERE ($1 = '' OR lower(category) = lower($1));`
	err = s.sqldb.QueryRowContext(ctx, countQuery, q.Category).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	return ps, total, nil
}

func (s *PgStorage) GetProduct(
	ctx context.Context, id string,
) (domain.Product, error) {
	const op = "PgStorage.GetProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	query := fmt.Sprintf(
		`SELECT %s FROM products WHERE id = $1;`, productColumns,
	)
	p, err := scanProduct(s.sqldb.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, fmt.Errorf(
				"%s: %w", op, domain.ErrProductNotFound,
			)
		}
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (s *PgStorage) CreateProduct(
	ctx context.Context, draft domain.ProductDraft,
) (domain.Product, error) {
	const op = "PgStorage.CreateProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	query := fmt.Sprintf(`
		INSERT INTO products (
			id, name, description, brand, category, image_url, price
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s;`, productColumns,
	)

	p, err := scanProduct(s.sqldb.QueryRowContext(ctx, query,
		uuid.NewString(), draft.Name, draft.Description, draft.Brand,
		draft.Category, draft.ImageURL, draft.Price,
	))
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (s *PgStorage) UpdateProduct(
	ctx context.Context, id string, patch domain.ProductPatch,
) (domain.Product, error) {
	const op = "PgStorage.UpdateProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	// COALESCE keeps the merge a single atomic statement.
	query := fmt.Sprintf(`
		UPDATE products SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			brand = COALESCE($4, brand),
			category = COALESCE($5, category),
			image_url = COALESCE($6, image_url),
			price = COALESCE($7, price),
			updated_at = now()
		WHERE id = $1
		RETURNING %s;`, productColumns,
	)

	p, err := scanProduct(s.sqldb.QueryRowContext(ctx, query,
		id, patch.Name, patch.Description, patch.Brand,
		patch.Category, patch.ImageURL, patch.Price,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, fmt.Errorf(
				"%s: %w", op, domain.ErrProductNotFound,
			)
		}
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (s *PgStorage) DeleteProduct(ctx context.Context, id string) error {
	const op = "PgStorage.DeleteProduct"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	res, err := s.sqldb.ExecContext(
		ctx, `DELETE FROM products WHERE id = $1;`, id,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrProductNotFound)
	}
	return nil
}

const reviewColumns = `
	id, product_id, comment, rate, created_at, updated_at`

func (s *PgStorage) ListReviews(
	ctx context.Context, productID string,
) ([]domain.Review, error) {
	const op = "PgStorage.ListReviews"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.productExists(ctx, productID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM reviews
		WHERE product_id = $1
		ORDER BY created_at ASC;`, reviewColumns,
	)
	rows, err := s.sqldb.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	rs := make([]domain.Review, 0)
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		rs = append(rs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rs, nil
}

func (s *PgStorage) GetReview(
	ctx context.Context, productID, reviewID string,
) (domain.Review, error) {
	const op = "PgStorage.GetReview"

	if err := ctx.Err(); err != nil {
		return domain.Review{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.productExists(ctx, productID); err != nil {
		return domain.Review{}, fmt.Errorf("%s: %w", op, err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM reviews
		WHERE id = $1 AND product_id = $2;`, reviewColumns,
	)
	r, err := scanReview(s.sqldb.QueryRowContext(ctx, query, reviewID, productID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Review{}, fmt.Errorf(
				"%s: %w", op, domain.ErrReviewNotFound,
			)
		}
		return domain.Review{}, fmt.Errorf("%s: %w", op, err)
	}
	return r, nil
}

func (s *PgStorage) CreateReview(
	ctx context.Context, productID string, draft domain.ReviewDraft,
) (domain.Review, error) {
	const op = "PgStorage.CreateReview"

	if err := ctx.Err(); err != nil {
		return domain.Review{}, fmt.Errorf("%s: %w", op, err)
	}

	query := fmt.Sprintf(`
		INSERT INTO reviews (id, product_id, comment, rate)
		VALUES ($1, $2, $3, $4)
		RETURNING %s;`, reviewColumns,
	)

	r, err := scanReview(s.sqldb.QueryRowContext(ctx, query,
		uuid.NewString(), productID, draft.Comment, draft.Rate,
	))
	if err != nil {
		// the foreign key rejects reviews of an absent parent
		if isFKViolation(err) {
			return domain.Review{}, fmt.Errorf(
				"%s: %w", op, domain.ErrProductNotFound,
			)
		}
		return domain.Review{}, fmt.Errorf("%s: %w", op, err)
	}
	return r, nil
}

func (s *PgStorage) UpdateReview(
	ctx context.Context, productID, reviewID string, patch domain.ReviewPatch,
) (domain.Review, error) {
	const op = "PgStorage.UpdateReview"

	if err := ctx.Err(); err != nil {
		return domain.Review{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.productExists(ctx, productID); err != nil {
		return domain.Review{}, fmt.Errorf("%s: %w", op, err)
	}

	query := fmt.Sprintf(`
		UPDATE reviews SET
			comment = COALESCE($3, comment),
			rate = COALESCE($4, rate),
			updated_at = now()
		WHERE id = $1 AND product_id = $2
		RETURNING %s;`, reviewColumns,
	)

	r, err := scanReview(s.sqldb.QueryRowContext(ctx, query,
		reviewID, productID, patch.Comment, patch.Rate,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Review{}, fmt.Errorf(
				"%s: %w", op, domain.ErrReviewNotFound,
			)
		}
		return domain.Review{}, fmt.Errorf("%s: %w", op, err)
	}
	return r, nil
}

func (s *PgStorage) DeleteReview(
	ctx context.Context, productID, reviewID string,
) error {
	const op = "PgStorage.DeleteReview"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.productExists(ctx, productID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	res, err := s.sqldb.ExecContext(ctx,
		`DELETE FROM reviews WHERE id = $1 AND product_id = $2;`,
		reviewID, productID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrReviewNotFound)
	}
	return nil
}

func (s *PgStorage) productExists(ctx context.Context, id string) error {
	var exists bool
	err := s.sqldb.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM products WHERE id = $1);`, id,
	).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrProductNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Brand, &p.Category,
		&p.ImageURL, &p.Price, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func scanReview(row rowScanner) (domain.Review, error) {
	var r domain.Review
	err := row.Scan(
		&r.ID, &r.ProductID, &r.Comment, &r.Rate, &r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

func isFKViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation
}

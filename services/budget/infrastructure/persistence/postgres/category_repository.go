package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ghuser/budgetly/pkg/database"
	"github.com/ghuser/budgetly/pkg/telemetry"
	budgetdomain "github.com/ghuser/budgetly/services/budget/domain"
	"github.com/ghuser/budgetly/services/budget/domain/models"
)

const categoryColumns = `id, user_id, name, icon, is_default, created_at`

// CategoryRepository implements repositories.CategoryRepository against PostgreSQL.
type CategoryRepository struct {
	db *database.Database
}

// NewCategoryRepository returns a CategoryRepository backed by the given pool.
func NewCategoryRepository(db *database.Database) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Save inserts a category. Returns ErrCategoryAlreadyExists on (user_id, name) conflicts.
func (r *CategoryRepository) Save(ctx context.Context, c *models.Category) error {
	return telemetry.WithLatency(ctx, "categories.save", func(ctx context.Context) error {
		_, err := r.db.Pool().Exec(ctx,
			`INSERT INTO categories (`+categoryColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
			c.ID, c.UserID, c.Name.String(), c.Icon, c.IsDefault, c.CreatedAt,
		)
		if err != nil {
			if database.IsUniqueViolation(err) {
				return budgetdomain.ErrCategoryAlreadyExists
			}
			return fmt.Errorf("insert category: %w", err)
		}
		return nil
	})
}

// GetByID returns the user's category. Returns ErrCategoryNotFound if it does
// not exist or belongs to someone else.
func (r *CategoryRepository) GetByID(ctx context.Context, userID string, id uuid.UUID) (*models.Category, error) {
	return telemetry.WithLatencyValue(ctx, "categories.get", func(ctx context.Context) (*models.Category, error) {
		row := r.db.Pool().QueryRow(ctx,
			`SELECT `+categoryColumns+` FROM categories WHERE id = $1 AND user_id = $2`,
			id, userID,
		)
		c, err := scanCategory(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, budgetdomain.ErrCategoryNotFound
			}
			return nil, fmt.Errorf("query category: %w", err)
		}
		return c, nil
	})
}

// FindByUserID lists the user's categories, defaults first, then by name.
func (r *CategoryRepository) FindByUserID(ctx context.Context, userID string) ([]*models.Category, error) {
	return telemetry.WithLatencyValue(ctx, "categories.list", func(ctx context.Context) ([]*models.Category, error) {
		rows, err := r.db.Pool().Query(ctx,
			`SELECT `+categoryColumns+` FROM categories WHERE user_id = $1 ORDER BY is_default DESC, name`,
			userID,
		)
		if err != nil {
			return nil, fmt.Errorf("query categories: %w", err)
		}
		defer rows.Close()

		var out []*models.Category
		for rows.Next() {
			c, err := scanCategory(rows)
			if err != nil {
				return nil, fmt.Errorf("scan category: %w", err)
			}
			out = append(out, c)
		}
		return out, rows.Err()
	})
}

func scanCategory(row pgx.Row) (*models.Category, error) {
	var (
		c    models.Category
		name string
	)
	if err := row.Scan(&c.ID, &c.UserID, &name, &c.Icon, &c.IsDefault, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Name = models.CategoryName(name)
	return &c, nil
}

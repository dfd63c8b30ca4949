package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Category struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
	Image string `json:"image"`
}

type CategoryRepository interface {
	List(ctx context.Context) ([]Category, error)
	FindByID(ctx context.Context, id string) (*Category, error)
	Create(ctx context.Context, c *Category) (*Category, error)
	Update(ctx context.Context, c *Category) (*Category, error)
	Delete(ctx context.Context, id string) (*Category, error)
}

type PostgresCategoryRepository struct {
	DB *pgxpool.Pool
}

func NewPostgresCategoryRepository(db *pgxpool.Pool) *PostgresCategoryRepository {
	return &PostgresCategoryRepository{DB: db}
}

const categoryColumns = `id, name, color, icon, image`

func (r *PostgresCategoryRepository) List(ctx context.Context) ([]Category, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &c.Icon, &c.Image); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *PostgresCategoryRepository) FindByID(ctx context.Context, id string) (*Category, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id=$1`, id)
	return scanCategory(row)
}

func (r *PostgresCategoryRepository) Create(ctx context.Context, c *Category) (*Category, error) {
	id := c.ID
	if id == "" {
		id = uuid.NewString()
	}
	row := r.DB.QueryRow(ctx, `
		INSERT INTO categories (id, name, color, icon, image)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING `+categoryColumns,
		id, c.Name, c.Color, c.Icon, c.Image)

	created, err := scanCategory(row)
	if err != nil {
		return nil, mapCatalogUnique(err)
	}
	return created, nil
}

func (r *PostgresCategoryRepository) Update(ctx context.Context, c *Category) (*Category, error) {
	row := r.DB.QueryRow(ctx, `
		UPDATE categories
		SET name=$1, color=$2, icon=$3, image=$4
		WHERE id=$5
		RETURNING `+categoryColumns,
		c.Name, c.Color, c.Icon, c.Image, c.ID)
	updated, err := scanCategory(row)
	if err != nil {
		return nil, mapCatalogUnique(err)
	}
	return updated, nil
}

func (r *PostgresCategoryRepository) Delete(ctx context.Context, id string) (*Category, error) {
	row := r.DB.QueryRow(ctx, `
		DELETE FROM categories WHERE id=$1
		RETURNING `+categoryColumns, id)
	return scanCategory(row)
}

func scanCategory(row pgx.Row) (*Category, error) {
	var c Category
	if err := row.Scan(&c.ID, &c.Name, &c.Color, &c.Icon, &c.Image); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func mapCatalogUnique(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrConflict
	}
	return err
}

package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Product struct {
	ID              string    `json:"_id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	RichDescription string    `json:"richDescription"`
	Image           string    `json:"image"`
	Images          []string  `json:"images"`
	Brand           string    `json:"brand"`
	Price           float64   `json:"price"`
	CategoryID      string    `json:"-"`
	Category        *Category `json:"category"`
	CountInStock    int       `json:"countInStock"`
	Rating          float64   `json:"rating"`
	NumReviews      int       `json:"numReviews"`
	IsFeatured      bool      `json:"isFeatured"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type ProductRepository interface {
	List(ctx context.Context) ([]Product, error)
	FindByID(ctx context.Context, id string) (*Product, error)
	FindByName(ctx context.Context, name string) (*Product, error)
	Create(ctx context.Context, p *Product) (*Product, error)
	Update(ctx context.Context, p *Product) (*Product, error)
	Delete(ctx context.Context, id string) error
}

type PostgresProductRepository struct {
	DB *pgxpool.Pool
}

func NewPostgresProductRepository(db *pgxpool.Pool) *PostgresProductRepository {
	return &PostgresProductRepository{DB: db}
}

// Listings join the category row so clients get the full reference, not just
// its id.
const productSelect = `
	SELECT p.id, p.name, p.description, p.rich_description, p.image, p.images,
	       p.brand, p.price, p.category_id, p.count_in_stock, p.rating,
	       p.num_reviews, p.is_featured, p.created_at, p.updated_at,
	       c.id, c.name, c.color, c.icon, c.image
	FROM products p
	INNER JOIN categories c ON c.id = p.category_id
`

func (r *PostgresProductRepository) List(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, productSelect+` ORDER BY p.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (r *PostgresProductRepository) FindByID(ctx context.Context, id string) (*Product, error) {
	row := r.DB.QueryRow(ctx, productSelect+` WHERE p.id=$1`, id)
	return scanProduct(row)
}

func (r *PostgresProductRepository) FindByName(ctx context.Context, name string) (*Product, error) {
	row := r.DB.QueryRow(ctx, productSelect+` WHERE p.name=$1`, name)
	return scanProduct(row)
}

func (r *PostgresProductRepository) Create(ctx context.Context, p *Product) (*Product, error) {
	id := p.ID
	if id == "" {
		id = uuid.NewString()
	}
	_, err := r.DB.Exec(ctx, `
		INSERT INTO products
		(id, name, description, rich_description, image, images, brand, price,
		 category_id, count_in_stock, rating, num_reviews, is_featured)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`, id, p.Name, p.Description, p.RichDescription, p.Image, p.Images, p.Brand,
		p.Price, p.CategoryID, p.CountInStock, p.Rating, p.NumReviews, p.IsFeatured)
	if err != nil {
		return nil, mapCatalogUnique(err)
	}
	return r.FindByID(ctx, id)
}

func (r *PostgresProductRepository) Update(ctx context.Context, p *Product) (*Product, error) {
	tag, err := r.DB.Exec(ctx, `
		UPDATE products
		SET name=$1, description=$2, rich_description=$3, image=$4, images=$5,
		    brand=$6, price=$7, category_id=$8, count_in_stock=$9, rating=$10,
		    num_reviews=$11, is_featured=$12, updated_at=NOW()
		WHERE id=$13
	`, p.Name, p.Description, p.RichDescription, p.Image, p.Images, p.Brand,
		p.Price, p.CategoryID, p.CountInStock, p.Rating, p.NumReviews, p.IsFeatured, p.ID)
	if err != nil {
		return nil, mapCatalogUnique(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.FindByID(ctx, p.ID)
}

func (r *PostgresProductRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	var c Category
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.RichDescription, &p.Image, &p.Images,
		&p.Brand, &p.Price, &p.CategoryID, &p.CountInStock, &p.Rating,
		&p.NumReviews, &p.IsFeatured, &p.CreatedAt, &p.UpdatedAt,
		&c.ID, &c.Name, &c.Color, &c.Icon, &c.Image,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.Category = &c
	return &p, nil
}

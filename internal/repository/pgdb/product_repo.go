package pgdb

import (
	"context"

	"github.com/briannabogos1157/threadtwin/internal/domain"
	"github.com/briannabogos1157/threadtwin/internal/repository/pgdb/converter"
	"github.com/briannabogos1157/threadtwin/pkg/e"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// ProductRepo реализует репозиторий продуктов поверх PostgreSQL.
type ProductRepo struct {
	pool *pgxpool.Pool
	conv converter.ProductConverter
}

func NewProductRepo(pool *pgxpool.Pool, conv converter.ProductConverter) *ProductRepo {
	return &ProductRepo{
		pool: pool,
		conv: conv,
	}
}

// Create добавляет продукт и возвращает его с присвоенными id и created_at.
func (p *ProductRepo) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	model := p.conv.ToModel(product)

	query := `
		INSERT INTO products (
			title, name, price_cents, image_url, affiliate_link,
			brand, category, description, fabric, source
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at;
	`

	err := conn(ctx, p.pool).QueryRow(ctx, query,
		model.Title, model.Name, model.PriceCents, model.ImageURL, model.AffiliateLink,
		model.Brand, model.Category, model.Description, model.Fabric, model.Source,
	).Scan(&model.ID, &model.CreatedAt)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(model), nil
}

// Search ищет подстроку без учёта регистра по текстовым полям, новые продукты первыми.
func (p *ProductRepo) Search(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	sql := `
		SELECT id, title, name, price_cents, image_url, affiliate_link,
		       brand, category, description, fabric, source, created_at
		FROM products
		WHERE title ILIKE $1
		   OR name ILIKE $1
		   OR brand ILIKE $1
		   OR category ILIKE $1
		   OR description ILIKE $1
		   OR fabric ILIKE $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := conn(ctx, p.pool).Query(ctx, sql, likePattern(query), limit)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.Product, 0)
	for rows.Next() {
		var m converter.ProductModel
		if err := rows.Scan(
			&m.ID, &m.Title, &m.Name, &m.PriceCents, &m.ImageURL, &m.AffiliateLink,
			&m.Brand, &m.Category, &m.Description, &m.Fabric, &m.Source, &m.CreatedAt,
		); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		result = append(result, *p.conv.ToEntity(&m))
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}

func (p *ProductRepo) DeleteBySource(ctx context.Context, source string) (int64, error) {
	tag, err := conn(ctx, p.pool).Exec(ctx, `DELETE FROM products WHERE source = $1`, source)
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return tag.RowsAffected(), nil
}

func (p *ProductRepo) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := conn(ctx, p.pool).Exec(ctx, `DELETE FROM products`)
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return tag.RowsAffected(), nil
}

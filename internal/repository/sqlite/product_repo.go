package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/briannabogos1157/threadtwin/internal/domain"
	"github.com/briannabogos1157/threadtwin/pkg/e"
	"github.com/jimlawless/whereami"
)

// ProductRepo реализует каталог продуктов поверх sqlite.
type ProductRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewProductRepo(db *sql.DB) *ProductRepo {
	return &ProductRepo{db: db, now: time.Now}
}

func (p *ProductRepo) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	created := p.now().UTC()

	res, err := conn(ctx, p.db).ExecContext(ctx, `
		INSERT INTO products (
			title, name, price_cents, image_url, affiliate_link,
			brand, category, description, fabric, source, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		product.Title, product.Name, product.PriceCents, product.ImageURL, product.AffiliateLink,
		product.Brand, product.Category, product.Description, product.Fabric, product.Source,
		created.UnixNano(),
	)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	out := *product
	out.ID = id
	out.CreatedAt = time.Unix(0, created.UnixNano()).UTC()
	return &out, nil
}

// Search ищет подстроку по текстовым полям (LIKE в sqlite не учитывает регистр ASCII).
func (p *ProductRepo) Search(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	rows, err := conn(ctx, p.db).QueryContext(ctx, `
		SELECT id, title, name, price_cents, image_url, affiliate_link,
		       brand, category, description, fabric, source, created_at
		FROM products
		WHERE title LIKE ?1 ESCAPE '\'
		   OR name LIKE ?1 ESCAPE '\'
		   OR brand LIKE ?1 ESCAPE '\'
		   OR category LIKE ?1 ESCAPE '\'
		   OR description LIKE ?1 ESCAPE '\'
		   OR fabric LIKE ?1 ESCAPE '\'
		ORDER BY created_at DESC, id DESC
		LIMIT ?2`,
		likePattern(query), limit,
	)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.Product, 0)
	for rows.Next() {
		var (
			pr      domain.Product
			created int64
		)
		if err := rows.Scan(
			&pr.ID, &pr.Title, &pr.Name, &pr.PriceCents, &pr.ImageURL, &pr.AffiliateLink,
			&pr.Brand, &pr.Category, &pr.Description, &pr.Fabric, &pr.Source, &created,
		); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		pr.CreatedAt = time.Unix(0, created).UTC()
		result = append(result, pr)
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}

func (p *ProductRepo) DeleteBySource(ctx context.Context, source string) (int64, error) {
	res, err := conn(ctx, p.db).ExecContext(ctx, `DELETE FROM products WHERE source = ?`, source)
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}
	return res.RowsAffected()
}

func (p *ProductRepo) DeleteAll(ctx context.Context) (int64, error) {
	res, err := conn(ctx, p.db).ExecContext(ctx, `DELETE FROM products`)
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}
	return res.RowsAffected()
}

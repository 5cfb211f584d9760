package domain

import "time"

// Product описывает товар каталога
type Product struct {
	ID            int64
	Title         string
	Name          string
	PriceCents    int64 // Цена хранится в центах
	ImageURL      string
	AffiliateLink string
	Brand         string
	Category      string
	Description   string
	Fabric        string
	Source        string
	CreatedAt     time.Time
}

func NewProduct(title, name string, priceCents int64, brand, category string) *Product {
	return &Product{
		Title:      title,
		Name:       name,
		PriceCents: priceCents,
		Brand:      brand,
		Category:   category,
	}
}

// DisplayTitle возвращает title, а если он пустой — name.
func (p *Product) DisplayTitle() string {
	if p.Title != "" {
		return p.Title
	}
	return p.Name
}

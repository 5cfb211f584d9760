package usecase

import (
	"context"
	"strings"

	"github.com/briannabogos1157/threadtwin/internal/domain"
	"github.com/briannabogos1157/threadtwin/pkg/e"
	"github.com/briannabogos1157/threadtwin/pkg/logger"
	"github.com/briannabogos1157/threadtwin/pkg/tr"
	"github.com/shopspring/decimal"
)

// SearchLimit — максимальное количество товаров в ответе поиска
const SearchLimit = 50

// ProductUseCase реализует поиск по каталогу и пакетные операции с товарами.
type ProductUseCase struct {
	productRepo ProductRepository
	cacheRepo   SearchCacheRepository
	txManager   tr.Manager
	logger      logger.Logger
}

func NewProductUC(
	productRepo ProductRepository,
	cacheRepo SearchCacheRepository,
	txManager tr.Manager,
	logger logger.Logger,
) *ProductUseCase {
	if txManager == nil {
		txManager = tr.NopManager{}
	}

	return &ProductUseCase{
		productRepo: productRepo,
		cacheRepo:   cacheRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

// Search ищет товары по подстроке в названии, описании, бренде и категории.
func (p *ProductUseCase) Search(ctx context.Context, query string) (*SearchProductsRes, error) {
	const op = "ProductUseCase.Search"

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, e.Wrap(op, e.ErrEmptyQuery)
	}

	// Поиск в кэше
	if p.cacheRepo != nil {
		cached, ok, err := p.cacheRepo.Get(ctx, query)
		if err != nil {
			p.logger.Warnf("Search cache read failed: %v", e.Wrap(op, err))
		} else if ok {
			return &SearchProductsRes{Products: cached, Cached: true}, nil
		}
	}

	products, err := p.productRepo.Search(ctx, query, SearchLimit)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	summaries := make([]ProductSummary, 0, len(products))
	for i := range products {
		summaries = append(summaries, NewProductSummary(&products[i]))
	}

	if p.cacheRepo != nil {
		if err := p.cacheRepo.Set(ctx, query, summaries); err != nil {
			p.logger.Warnf("Search cache write failed: %v", e.Wrap(op, err))
		}
	}

	return &SearchProductsRes{Products: summaries}, nil
}

// Add сохраняет один товар.
func (p *ProductUseCase) Add(ctx context.Context, draft ProductDraft) (*domain.Product, error) {
	const op = "ProductUseCase.Add"

	product, err := p.create(ctx, draft)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	p.invalidateCache(ctx)
	return product, nil
}

// Import сохраняет товары по одному, каждый в своей транзакции.
// Ошибка в одной строке логируется и не прерывает импорт остальных.
func (p *ProductUseCase) Import(ctx context.Context, drafts []ProductDraft) (*BatchSummary, error) {
	const op = "ProductUseCase.Import"

	summary := &BatchSummary{}
	for i, draft := range drafts {
		if err := ctx.Err(); err != nil {
			return summary, e.Wrap(op, err)
		}

		product, err := p.create(ctx, draft)
		if err != nil {
			p.logger.Warnf("Failed to import product #%d (%s): %v", i+1, draft.displayTitle(), err)
			summary.fail(i, err)
			continue
		}

		p.logger.Debugf("Imported product #%d. id: %d, title: %s", i+1, product.ID, product.DisplayTitle())
		summary.ok()
	}

	if summary.Succeeded > 0 {
		p.invalidateCache(ctx)
	}

	p.logger.Infof("Import finished. succeeded: %d, failed: %d", summary.Succeeded, summary.Failed)
	return summary, nil
}

// DeleteBySource удаляет все товары указанного источника.
func (p *ProductUseCase) DeleteBySource(ctx context.Context, source string) (int64, error) {
	const op = "ProductUseCase.DeleteBySource"

	source = strings.TrimSpace(source)
	if source == "" {
		return 0, e.Wrap(op, e.Wrap("source is required", e.ErrMissingFields))
	}

	var deleted int64
	err := p.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		deleted, err = p.productRepo.DeleteBySource(ctx, source)
		return err
	})
	if err != nil {
		return 0, e.Wrap(op, err)
	}

	p.invalidateCache(ctx)
	return deleted, nil
}

// DeleteAll удаляет весь каталог.
func (p *ProductUseCase) DeleteAll(ctx context.Context) (int64, error) {
	const op = "ProductUseCase.DeleteAll"

	var deleted int64
	err := p.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		deleted, err = p.productRepo.DeleteAll(ctx)
		return err
	})
	if err != nil {
		return 0, e.Wrap(op, err)
	}

	p.invalidateCache(ctx)
	return deleted, nil
}

func (p *ProductUseCase) create(ctx context.Context, draft ProductDraft) (*domain.Product, error) {
	product, err := draftToProduct(draft)
	if err != nil {
		return nil, err
	}

	var created *domain.Product
	err = p.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		created, err = p.productRepo.Create(ctx, product)
		return err
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (p *ProductUseCase) invalidateCache(ctx context.Context) {
	if p.cacheRepo == nil {
		return
	}
	if err := p.cacheRepo.Invalidate(ctx); err != nil {
		p.logger.Warnf("Search cache invalidation failed: %v", err)
	}
}

// draftToProduct проверяет черновик и переводит цену в центы.
func draftToProduct(d ProductDraft) (*domain.Product, error) {
	title := strings.TrimSpace(d.Title)
	name := strings.TrimSpace(d.Name)
	if title == "" && name == "" {
		return nil, e.Wrap("title or name is required", e.ErrMissingFields)
	}

	cents, err := ParsePriceCents(d.Price)
	if err != nil {
		return nil, err
	}

	product := domain.NewProduct(title, name, cents, strings.TrimSpace(d.Brand), strings.TrimSpace(d.Category))
	product.ImageURL = strings.TrimSpace(d.ImageURL)
	product.AffiliateLink = strings.TrimSpace(d.AffiliateLink)
	product.Description = strings.TrimSpace(d.Description)
	product.Fabric = strings.TrimSpace(d.Fabric)
	product.Source = strings.TrimSpace(d.Source)

	return product, nil
}

// ParsePriceCents разбирает цену вида "19.99", "$1,299.00" или "USD 5" в центы.
// Пустая строка означает цену 0.
func ParsePriceCents(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "USD"), "usd")
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	if s == "" {
		return 0, nil
	}

	price, err := decimal.NewFromString(s)
	if err != nil {
		return 0, e.Wrap(raw, e.ErrInvalidPrice)
	}
	if price.IsNegative() {
		return 0, e.Wrap(raw, e.ErrInvalidPrice)
	}
	if !price.Equal(price.Round(2)) {
		return 0, e.Wrap(raw, e.ErrPricePrecision)
	}

	return price.Shift(2).IntPart(), nil
}

// FormatPriceCents форматирует цену в центах как "19.99".
func FormatPriceCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

func (d ProductDraft) displayTitle() string {
	if d.Title != "" {
		return d.Title
	}
	return d.Name
}

func NewProductSummary(p *domain.Product) ProductSummary {
	return ProductSummary{
		ID:            p.ID,
		Title:         p.DisplayTitle(),
		Brand:         p.Brand,
		Price:         FormatPriceCents(p.PriceCents),
		ImageURL:      p.ImageURL,
		AffiliateLink: p.AffiliateLink,
		Category:      p.Category,
		Description:   p.Description,
		Fabric:        p.Fabric,
		Source:        p.Source,
	}
}

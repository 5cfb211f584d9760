package http

import (
	"net/http"

	"github.com/briannabogos1157/threadtwin/internal/usecase"
	"github.com/briannabogos1157/threadtwin/pkg/logger"
)

type ProductHandler struct {
	productUsecase usecase.ProductUC
	logger         logger.Logger
}

func NewProductHandler(productUsecase usecase.ProductUC, logger logger.Logger) *ProductHandler {
	return &ProductHandler{productUsecase: productUsecase, logger: logger}
}

type ProductResponse struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Brand         string `json:"brand"`
	Price         string `json:"price"`
	ImageURL      string `json:"image_url"`
	AffiliateLink string `json:"affiliate_link"`
	Category      string `json:"category,omitempty"`
	Description   string `json:"description,omitempty"`
	Fabric        string `json:"fabric,omitempty"`
	Source        string `json:"source,omitempty"`
}

type SearchProductsResponse struct {
	Products []ProductResponse `json:"products"`
}

// searchProducts
//
//	@Summary		Поиск товаров по ключевому слову
//	@Description	Ищет подстроку без учёта регистра в названии, бренде, категории, описании и составе ткани
//	@Tags			products
//	@Produce		json
//	@Param			query	query		string	true	"Поисковый запрос"
//	@Success		200		{object}	SearchProductsResponse
//	@Failure		400		{object}	ErrorResponse	"Пустой запрос"
//	@Failure		500		{object}	ErrorResponse
//	@Router			/products/search [get]
func (p *ProductHandler) searchProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")

	res, err := p.productUsecase.Search(r.Context(), query)
	if err != nil {
		code, _ := ToHTTPResponse(err)
		if code >= http.StatusInternalServerError {
			p.logger.Errorf(err, "%d search %q", code, query)
		} else {
			p.logger.Warnf("%d search: %s", code, err.Error())
		}
		WriteError(w, err)
		return
	}

	products := make([]ProductResponse, len(res.Products))
	for i, s := range res.Products {
		products[i] = ProductResponse{
			ID:            s.ID,
			Title:         s.Title,
			Brand:         s.Brand,
			Price:         s.Price,
			ImageURL:      s.ImageURL,
			AffiliateLink: s.AffiliateLink,
			Category:      s.Category,
			Description:   s.Description,
			Fabric:        s.Fabric,
			Source:        s.Source,
		}
	}

	p.logger.Debugf("Search %q returned %d products (cached=%t)", query, len(products), res.Cached)
	WriteSuccess(w, http.StatusOK, SearchProductsResponse{Products: products})
}

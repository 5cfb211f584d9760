package converter

import "github.com/briannabogos1157/threadtwin/internal/usecase"

type ProductSummaryConverter struct{}

func (ProductSummaryConverter) ToRedisModel(s *usecase.ProductSummary) ProductSummaryRedisModel {
	return ProductSummaryRedisModel{
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

func (ProductSummaryConverter) ToUseCase(m *ProductSummaryRedisModel) usecase.ProductSummary {
	return usecase.ProductSummary{
		ID:            m.ID,
		Title:         m.Title,
		Brand:         m.Brand,
		Price:         m.Price,
		ImageURL:      m.ImageURL,
		AffiliateLink: m.AffiliateLink,
		Category:      m.Category,
		Description:   m.Description,
		Fabric:        m.Fabric,
		Source:        m.Source,
	}
}

func (c ProductSummaryConverter) ToArrRedisModel(in []usecase.ProductSummary) []ProductSummaryRedisModel {
	out := make([]ProductSummaryRedisModel, 0, len(in))
	for i := range in {
		out = append(out, c.ToRedisModel(&in[i]))
	}
	return out
}

func (c ProductSummaryConverter) ToArrUseCase(in []ProductSummaryRedisModel) []usecase.ProductSummary {
	out := make([]usecase.ProductSummary, 0, len(in))
	for i := range in {
		out = append(out, c.ToUseCase(&in[i]))
	}
	return out
}

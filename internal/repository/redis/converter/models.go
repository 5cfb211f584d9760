package converter

// ProductSummaryRedisModel — товар из результата поиска в кэше.
type ProductSummaryRedisModel struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Brand         string `json:"brand,omitempty"`
	Price         string `json:"price"`
	ImageURL      string `json:"image_url,omitempty"`
	AffiliateLink string `json:"affiliate_link,omitempty"`
	Category      string `json:"category,omitempty"`
	Description   string `json:"description,omitempty"`
	Fabric        string `json:"fabric,omitempty"`
	Source        string `json:"source,omitempty"`
}

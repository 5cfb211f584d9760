package usecase

import "context"

type EmbeddingUC interface {
	Upload(ctx context.Context, req *UploadEmbeddingReq) (*UploadEmbeddingRes, error)
	FindSimilar(ctx context.Context, req *FindSimilarReq) (*FindSimilarRes, error)
	Get(ctx context.Context, id string) (*UploadEmbeddingRes, error)
	Delete(ctx context.Context, id string) error
	Stats() IndexStats
}

type ProductUC interface {
	Search(ctx context.Context, query string) (*SearchProductsRes, error)
}

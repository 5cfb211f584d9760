package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/briannabogos1157/threadtwin/internal/domain"
	"github.com/briannabogos1157/threadtwin/internal/index"
	"github.com/briannabogos1157/threadtwin/internal/usecase"
	"github.com/briannabogos1157/threadtwin/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type EmbeddingHandler struct {
	embeddingUsecase usecase.EmbeddingUC
	logger           logger.Logger
	maxBodyBytes     int64
}

func NewEmbeddingHandler(embeddingUsecase usecase.EmbeddingUC, logger logger.Logger, maxBodyBytes int64) *EmbeddingHandler {
	return &EmbeddingHandler{embeddingUsecase: embeddingUsecase, logger: logger, maxBodyBytes: maxBodyBytes}
}

type UploadEmbeddingRequest struct {
	ImageURL    string    `json:"imageUrl"`
	Brand       string    `json:"brand"`
	Price       *float64  `json:"price"`
	Material    string    `json:"material"`
	ProductName string    `json:"productName,omitempty"`
	Embedding   []float32 `json:"embedding"`
}

type EmbeddingRecordResponse struct {
	ID          string    `json:"id"`
	ImageURL    string    `json:"imageUrl"`
	Brand       string    `json:"brand"`
	Price       *float64  `json:"price"`
	Material    string    `json:"material"`
	ProductName string    `json:"productName,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type UploadEmbeddingResponse struct {
	Success bool                    `json:"success"`
	ID      string                  `json:"id"`
	Result  EmbeddingRecordResponse `json:"result"`
}

type FindSimilarRequest struct {
	Embedding     []float32 `json:"embedding"`
	K             *int      `json:"k,omitempty"`
	Metric        string    `json:"metric,omitempty"`
	MinSimilarity *float64  `json:"minSimilarity,omitempty"`
}

type SimilarProductResponse struct {
	ID          string   `json:"id"`
	Similarity  float64  `json:"similarity"`
	Distance    float64  `json:"distance"`
	ImageURL    string   `json:"imageUrl"`
	Brand       string   `json:"brand"`
	Price       *float64 `json:"price"`
	Material    string   `json:"material"`
	ProductName string   `json:"productName,omitempty"`
}

type FindSimilarResponse struct {
	Message string                   `json:"message"`
	Count   int                      `json:"count"`
	Metric  string                   `json:"metric"`
	Results []SimilarProductResponse `json:"results"`
}

type IndexStatsResponse struct {
	Count     int `json:"count"`
	Dimension int `json:"dimension"`
}

// uploadEmbedding
//
//	@Summary		Загрузка эмбеддинга товара
//	@Description	Сохраняет вектор изображения товара вместе с метаданными
//	@Tags			embedding
//	@Accept			json
//	@Produce		json
//	@Param			request	body		UploadEmbeddingRequest	true	"Эмбеддинг и метаданные"
//	@Success		200		{object}	UploadEmbeddingResponse
//	@Failure		400		{object}	ErrorResponse	"Неверная размерность или пустые поля"
//	@Failure		500		{object}	ErrorResponse
//	@Router			/embedding/upload [post]
func (h *EmbeddingHandler) uploadEmbedding(w http.ResponseWriter, r *http.Request) {
	var req UploadEmbeddingRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		h.logger.Warnf("%d upload: %s", http.StatusBadRequest, err.Error())
		WriteError(w, err)
		return
	}

	res, err := h.embeddingUsecase.Upload(r.Context(), usecase.NewUploadEmbeddingReq(
		req.ImageURL, req.Brand, req.Price, req.Material, req.ProductName, req.Embedding,
	))
	if err != nil {
		h.logError("upload", err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, UploadEmbeddingResponse{
		Success: true,
		ID:      res.Record.ID,
		Result:  toRecordResponse(res.Record),
	})
}

// findSimilar
//
//	@Summary		Поиск похожих товаров
//	@Description	Возвращает до k ближайших эмбеддингов. По умолчанию косинусное расстояние
//	@Tags			embedding
//	@Accept			json
//	@Produce		json
//	@Param			request	body		FindSimilarRequest	true	"Вектор запроса"
//	@Success		200		{object}	FindSimilarResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/embedding/find-similar [post]
func (h *EmbeddingHandler) findSimilar(w http.ResponseWriter, r *http.Request) {
	var req FindSimilarRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		h.logger.Warnf("%d find-similar: %s", http.StatusBadRequest, err.Error())
		WriteError(w, err)
		return
	}

	res, err := h.embeddingUsecase.FindSimilar(r.Context(), usecase.NewFindSimilarReq(
		req.Embedding, req.K, req.Metric, req.MinSimilarity,
	))
	if err != nil {
		h.logError("find-similar", err)
		WriteError(w, err)
		return
	}

	results := make([]SimilarProductResponse, len(res.Matches))
	for i, m := range res.Matches {
		results[i] = toSimilarResponse(m)
	}

	WriteSuccess(w, http.StatusOK, FindSimilarResponse{
		Message: fmt.Sprintf("Found %d similar products", len(results)),
		Count:   len(results),
		Metric:  string(res.Metric),
		Results: results,
	})
}

// getEmbedding
//
//	@Summary	Получение записи по id
//	@Tags		embedding
//	@Produce	json
//	@Param		id	path		string	true	"Идентификатор записи"
//	@Success	200	{object}	EmbeddingRecordResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/embedding/{id} [get]
func (h *EmbeddingHandler) getEmbedding(w http.ResponseWriter, r *http.Request) {
	res, err := h.embeddingUsecase.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.logError("get", err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toRecordResponse(res.Record))
}

// deleteEmbedding
//
//	@Summary	Удаление записи по id
//	@Tags		embedding
//	@Param		id	path	string	true	"Идентификатор записи"
//	@Success	204
//	@Failure	404	{object}	ErrorResponse
//	@Router		/embedding/{id} [delete]
func (h *EmbeddingHandler) deleteEmbedding(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.embeddingUsecase.Delete(r.Context(), id); err != nil {
		h.logError("delete", err)
		WriteError(w, err)
		return
	}

	h.logger.Infof("Embedding %s deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

// stats
//
//	@Summary	Состояние индекса
//	@Tags		embedding
//	@Produce	json
//	@Success	200	{object}	IndexStatsResponse
//	@Router		/embedding/stats [get]
func (h *EmbeddingHandler) stats(w http.ResponseWriter, r *http.Request) {
	s := h.embeddingUsecase.Stats()
	WriteSuccess(w, http.StatusOK, IndexStatsResponse{Count: s.Count, Dimension: s.Dimension})
}

func (h *EmbeddingHandler) logError(action string, err error) {
	code, _ := ToHTTPResponse(err)
	if code >= http.StatusInternalServerError {
		h.logger.Errorf(err, "%d %s", code, action)
		return
	}
	h.logger.Warnf("%d %s: %s", code, action, err.Error())
}

func toRecordResponse(rec domain.EmbeddingRecord) EmbeddingRecordResponse {
	return EmbeddingRecordResponse{
		ID:          rec.ID,
		ImageURL:    rec.Metadata.String(domain.MetaImageURL),
		Brand:       rec.Metadata.String(domain.MetaBrand),
		Price:       metaPrice(rec.Metadata),
		Material:    rec.Metadata.String(domain.MetaMaterial),
		ProductName: rec.Metadata.String(domain.MetaProductName),
		CreatedAt:   rec.CreatedAt,
	}
}

func toSimilarResponse(m index.Match) SimilarProductResponse {
	return SimilarProductResponse{
		ID:          m.ID,
		Similarity:  m.Similarity,
		Distance:    m.Distance,
		ImageURL:    m.Metadata.String(domain.MetaImageURL),
		Brand:       m.Metadata.String(domain.MetaBrand),
		Price:       metaPrice(m.Metadata),
		Material:    m.Metadata.String(domain.MetaMaterial),
		ProductName: m.Metadata.String(domain.MetaProductName),
	}
}

func metaPrice(meta domain.Metadata) *float64 {
	if v, ok := meta.Float(domain.MetaPrice); ok {
		return &v
	}
	return nil
}

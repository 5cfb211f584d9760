package domain

import "time"

// Metadata описывает дополнительную информацию вектора (бренд, цена, материал, ссылка на изображение).
// Индекс не интерпретирует метаданные и хранит их как есть.
type Metadata map[string]any

// Ключи метаданных, которые приходят из /api/embedding/upload
const (
	MetaImageURL    = "imageUrl"
	MetaBrand       = "brand"
	MetaPrice       = "price"
	MetaMaterial    = "material"
	MetaProductName = "productName"
)

// Clone возвращает поверхностную копию метаданных.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return Metadata{}
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// String возвращает строковое значение по ключу или пустую строку.
func (m Metadata) String(key string) string {
	v, _ := m[key].(string)
	return v
}

// Float возвращает числовое значение по ключу.
func (m Metadata) Float(key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// EmbeddingRecord представляет один сохранённый эмбеддинг товара
type EmbeddingRecord struct {
	ID        string
	Seq       uint64 // порядок вставки, по нему разрешаются равные расстояния
	Vector    []float32
	Metadata  Metadata
	CreatedAt time.Time
}

func NewEmbeddingRecord(id string, seq uint64, vector []float32, metadata Metadata, createdAt time.Time) *EmbeddingRecord {
	return &EmbeddingRecord{
		ID:        id,
		Seq:       seq,
		Vector:    vector,
		Metadata:  metadata,
		CreatedAt: createdAt,
	}
}

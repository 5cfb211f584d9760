package index

import (
	"fmt"
	"math"
	"strings"

	"github.com/briannabogos1157/threadtwin/pkg/e"
)

// Metric выбирает функцию расстояния для Search. Меньшее расстояние означает большее сходство.
type Metric string

const (
	Cosine    Metric = "cosine"
	Euclidean Metric = "euclidean"
)

// ParseMetric разбирает название метрики. Пустая строка означает Cosine.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cosine":
		return Cosine, nil
	case "euclidean", "l2":
		return Euclidean, nil
	default:
		return "", e.Wrap(fmt.Sprintf("unknown metric %q", s), e.ErrInvalidArgument)
	}
}

func (m Metric) valid() bool {
	return m == Cosine || m == Euclidean
}

// Similarity переводит расстояние в нормированную оценку сходства.
// Для cosine это 1 - distance, для euclidean 1 / (1 + distance).
func (m Metric) Similarity(distance float64) float64 {
	if m == Euclidean {
		return 1 / (1 + distance)
	}
	return 1 - distance
}

// distance считает расстояние между запросом и сохранённым вектором.
// qn2 и vn2 — квадраты норм, посчитанные заранее.
func (m Metric) distance(q []float32, qn2 float64, v []float32, vn2 float64) float64 {
	if m == Euclidean {
		return euclidean(q, v)
	}
	return cosineFromNorms(dot(q, v), qn2, vn2)
}

// CosineDistance возвращает 1 - cos(a, b). Для вектора с нулевой нормой сходство считается 0.
func CosineDistance(a, b []float32) float64 {
	return cosineFromNorms(dot(a, b), dot(a, a), dot(b, b))
}

// EuclideanDistance возвращает L2-расстояние между a и b.
func EuclideanDistance(a, b []float32) float64 {
	return euclidean(a, b)
}

func cosineFromNorms(d, an2, bn2 float64) float64 {
	if an2 == 0 || bn2 == 0 {
		return 1
	}
	sim := d / math.Sqrt(an2*bn2)
	// погрешность округления может вывести значение за [-1, 1]
	if sim > 1 {
		sim = 1
	} else if sim < -1 {
		sim = -1
	}
	return 1 - sim
}

func euclidean(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

// checkFinite возвращает ErrInvalidVector, если вектор пустой или содержит NaN/Inf.
func checkFinite(v []float32) error {
	if len(v) == 0 {
		return e.Wrap("empty vector", e.ErrInvalidVector)
	}
	for i, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return e.Wrap(fmt.Sprintf("element %d is %v", i, x), e.ErrInvalidVector)
		}
	}
	return nil
}

// CheckVector проверяет, что вектор конечен и (при dim > 0) имеет размерность dim.
func CheckVector(v []float32, dim int) error {
	if err := checkFinite(v); err != nil {
		return err
	}
	if dim > 0 && len(v) != dim {
		return dimError(len(v), dim)
	}
	return nil
}

// Package csvimport читает выгрузки товаров от партнёров (CSV с заголовком) в черновики каталога.
package csvimport

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/briannabogos1157/threadtwin/internal/usecase"
	"github.com/briannabogos1157/threadtwin/pkg/e"
)

// columns сопоставляет варианты заголовков с полями ProductDraft.
var columns = map[string]string{
	"title":          "title",
	"product_title":  "title",
	"name":           "name",
	"product_name":   "name",
	"productname":    "name",
	"price":          "price",
	"sale_price":     "price",
	"image_url":      "image_url",
	"imageurl":       "image_url",
	"image":          "image_url",
	"affiliate_link": "affiliate_link",
	"affiliatelink":  "affiliate_link",
	"link":           "affiliate_link",
	"url":            "affiliate_link",
	"brand":          "brand",
	"category":       "category",
	"description":    "description",
	"fabric":         "fabric",
	"material":       "fabric",
	"source":         "source",
}

// Result — черновики и ошибки разбора отдельных строк.
type Result struct {
	Drafts []usecase.ProductDraft
	Rows   []int // номер строки файла (с 2) для каждого черновика
	Errors []usecase.ItemError
}

// Read разбирает CSV. Разделитель (";" или ",") определяется по строке заголовка.
// source подставляется в строки без собственной колонки source.
func Read(r io.Reader, source string) (*Result, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, e.Wrap("csvimport.Read", err)
	}

	cr := csv.NewReader(br)
	cr.Comma = detectDelimiter(head)
	decimalComma := cr.Comma == ';'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, e.Wrap("csvimport.Read", fmt.Errorf("%w: empty file", e.ErrInvalidArgument))
	}
	if err != nil {
		return nil, e.Wrap("csvimport.Read", err)
	}

	index := map[string]int{}
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))
		if field, ok := columns[key]; ok {
			if _, dup := index[field]; !dup {
				index[field] = i
			}
		}
	}
	if _, ok := index["title"]; !ok {
		if _, ok := index["name"]; !ok {
			return nil, e.Wrap("csvimport.Read", fmt.Errorf("%w: header has no title or name column", e.ErrMissingFields))
		}
	}

	res := &Result{}
	line := 1
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				res.Errors = append(res.Errors, usecase.ItemError{Item: line, Err: err})
				continue
			}
			return nil, e.Wrap("csvimport.Read", err)
		}
		if blank(record) {
			continue
		}

		get := func(field string) string {
			i, ok := index[field]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		draft := usecase.ProductDraft{
			Title:         get("title"),
			Name:          get("name"),
			Price:         normalizePrice(get("price"), decimalComma),
			ImageURL:      get("image_url"),
			AffiliateLink: get("affiliate_link"),
			Brand:         get("brand"),
			Category:      get("category"),
			Description:   get("description"),
			Fabric:        get("fabric"),
			Source:        get("source"),
		}
		if draft.Source == "" {
			draft.Source = source
		}

		res.Drafts = append(res.Drafts, draft)
		res.Rows = append(res.Rows, line)
	}

	return res, nil
}

func detectDelimiter(head []byte) rune {
	first := string(head)
	if i := strings.IndexByte(first, '\n'); i >= 0 {
		first = first[:i]
	}
	if strings.Count(first, ";") > strings.Count(first, ",") {
		return ';'
	}
	return ','
}

// normalizePrice переводит десятичную запятую ("12,50") в точку для файлов с ";".
func normalizePrice(p string, decimalComma bool) string {
	if !decimalComma || strings.Count(p, ",") != 1 || strings.Contains(p, ".") {
		return p
	}
	if i := strings.IndexByte(p, ','); len(p)-i-1 <= 2 {
		return p[:i] + "." + p[i+1:]
	}
	return p
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"storefront/internal/domain"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.ProductSnapshot) (*domain.ProductSnapshot, error)
}

// CSVImporter reads product CSV files in the catalog's wire field names
// (_id, name, price, imageUrl, altTxt, colors, description) and upserts them.
type CSVImporter struct {
	reader *csv.Reader
	writer ProductWriter
}

func NewCSVImporter(r io.Reader, w ProductWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{
		reader: csvr,
		writer: w,
	}
}

type csvRow struct {
	ID       string
	Name     string
	Desc     string
	Price    int64
	PriceSet bool
	ImageURL string
	AltText  string
	Colors   []string
}

// Run parses CSV rows and upserts one product per _id. A row without an id
// continues the previous product and may only add colors.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["_id"]; !ok {
		return 0, errors.New("missing _id column")
	}

	var (
		current  *csvRow
		imported int
	)

	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}

		row, err := parseRow(record, index)
		if err != nil {
			return imported, err
		}
		if row == nil {
			continue
		}

		if row.ID != "" {
			if current != nil {
				if err := i.save(ctx, current); err != nil {
					return imported, err
				}
				imported++
			}
			current = row
			continue
		}

		// Continuation rows (colors) belong to the current product.
		if current != nil && len(row.Colors) > 0 {
			current.Colors = append(current.Colors, row.Colors...)
		}
	}

	if current != nil {
		if err := i.save(ctx, current); err != nil {
			return imported, err
		}
		imported++
	}

	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow) error {
	if row.Name == "" || !row.PriceSet || len(row.Colors) == 0 {
		return fmt.Errorf("invalid product row (missing required fields) for id %q", row.ID)
	}

	p := domain.ProductSnapshot{
		ID:          row.ID,
		Name:        row.Name,
		Price:       row.Price,
		ImageURL:    row.ImageURL,
		AltText:     row.AltText,
		Colors:      row.Colors,
		Description: row.Desc,
	}

	if _, err := i.writer.Upsert(ctx, p); err != nil {
		return fmt.Errorf("upsert product %q: %w", row.ID, err)
	}
	return nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) (*csvRow, error) {
	id := pick(record, index, "_id")
	colors := splitColors(pick(record, index, "colors"))

	if id == "" && len(colors) == 0 {
		return nil, nil
	}

	row := &csvRow{
		ID:       id,
		Name:     pick(record, index, "name"),
		Desc:     pick(record, index, "description"),
		ImageURL: pick(record, index, "imageUrl"),
		AltText:  pick(record, index, "altTxt"),
		Colors:   colors,
	}
	if priceStr := pick(record, index, "price"); priceStr != "" {
		price, err := strconv.ParseInt(priceStr, 10, 64)
		if err != nil || price < 0 {
			return nil, fmt.Errorf("invalid price %q for id %q", priceStr, id)
		}
		row.Price = price
		row.PriceSet = true
	}
	return row, nil
}

func splitColors(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, c := range strings.Split(raw, ";") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}

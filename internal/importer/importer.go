// Package importer loads catalog products from CSV.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"storefront/internal/contract"
	"storefront/internal/domain"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

// Columns lists the recognised CSV headers. Only name and price are required.
var Columns = []string{"id", "name", "description", "price", "image", "stock"}

// CSVImporter reads product rows and inserts/updates them.
type CSVImporter struct {
	reader      *csv.Reader
	productRepo ProductWriter
}

func NewCSVImporter(r io.Reader, repo ProductWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{
		reader:      csvr,
		productRepo: repo,
	}
}

// Run upserts every row and returns how many products were written. Blank
// lines are skipped; the first invalid row stops the import.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	for _, required := range []string{"name", "price"} {
		if _, ok := index[required]; !ok {
			return 0, fmt.Errorf("missing required column %q", required)
		}
	}

	imported := 0
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		if blank(record) {
			continue
		}

		line, _ := i.reader.FieldPos(0)
		p, err := parseRow(record, index)
		if err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}
		if _, err := i.productRepo.Upsert(ctx, p); err != nil {
			return imported, fmt.Errorf("line %d: upsert product %q: %w", line, p.Name, err)
		}
		imported++
	}
	return imported, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) (domain.Product, error) {
	p := domain.Product{
		ID:          pick(record, index, "id"),
		Name:        pick(record, index, "name"),
		Description: pick(record, index, "description"),
		Image:       pick(record, index, "image"),
	}

	price, err := strconv.ParseFloat(pick(record, index, "price"), 64)
	if err != nil {
		return domain.Product{}, fmt.Errorf("invalid price %q", pick(record, index, "price"))
	}
	p.Price = price

	if s := pick(record, index, "stock"); s != "" {
		stock, err := strconv.Atoi(s)
		if err != nil {
			return domain.Product{}, fmt.Errorf("invalid stock %q", s)
		}
		p.Stock = stock
	}

	// Validation requires an id; a placeholder stands in for rows that let
	// the repository generate one.
	check := p
	if check.ID == "" {
		check.ID = "new"
	}
	if err := contract.Validate(check); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}

// ABOUTME: Spreadsheet export of a whole collection using its table layout
// ABOUTME: Pages through the API with the caller's query and writes one xlsx sheet

// Package export writes collections to xlsx workbooks.
package export

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/2389/registrar/internal/api"
	"github.com/2389/registrar/internal/resource"
)

// BatchSize is the page size used while collecting rows, the backend maximum.
const BatchSize = 100

// maxBatches bounds Collect in case the server keeps reporting more pages.
const maxBatches = 1000

// Lister is the read side of a collection.
type Lister[T any] interface {
	List(ctx context.Context, q api.Query) (*api.Page[T], error)
}

// Collect fetches every record matching q's search, filters and sort,
// ignoring its page and page size.
func Collect[T any](ctx context.Context, l Lister[T], q api.Query) ([]T, error) {
	q = q.Clone()
	q.PageSize = BatchSize

	var rows []T
	for page := 1; page <= maxBatches; page++ {
		q.Page = page
		p, err := l.List(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("fetching page %d: %w", page, err)
		}
		rows = append(rows, p.Items...)
		if page >= p.TotalPages || len(p.Items) == 0 {
			return rows, nil
		}
	}
	return rows, fmt.Errorf("export stopped after %d pages", maxBatches)
}

// WriteXLSX writes rows as a single sheet named after the collection, with
// a bold header row taken from the descriptor's columns.
func WriteXLSX[T any](w io.Writer, desc *resource.Descriptor[T], rows []T) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := desc.Title
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	header := make([]any, len(desc.Columns))
	for i, col := range desc.Columns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(max(len(desc.Columns), 1), 1)
	if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}

	for i, item := range rows {
		cells := desc.Row(item)
		values := make([]any, len(cells))
		for j, c := range cells {
			values[j] = c
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// Filename is a timestamped file name for the collection, such as
// students_20250102_150405.xlsx.
func Filename[T any](desc *resource.Descriptor[T], now time.Time) string {
	return fmt.Sprintf("%s_%s.xlsx", desc.Endpoint.Plural, now.Format("20060102_150405"))
}

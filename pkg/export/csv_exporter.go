package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Dataset defines tabular export content. Rows are keyed by header.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// GridCell is one filled cell of a weekly grid.
type GridCell struct {
	Day    string
	Period string
	Text   string
}

// GridDataset lays cells out as a weekly grid: one row per period, one
// column per day, with the period label in the first column.
func GridDataset(periodHeader string, days, periods []string, cells []GridCell) Dataset {
	headers := append([]string{periodHeader}, days...)
	byPeriod := make(map[string]map[string]string, len(periods))
	for _, cell := range cells {
		row, ok := byPeriod[cell.Period]
		if !ok {
			row = make(map[string]string, len(days))
			byPeriod[cell.Period] = row
		}
		if existing := row[cell.Day]; existing != "" {
			row[cell.Day] = existing + " / " + cell.Text
			continue
		}
		row[cell.Day] = cell.Text
	}

	rows := make([]map[string]string, 0, len(periods))
	for _, period := range periods {
		row := map[string]string{periodHeader: period}
		for day, text := range byPeriod[period] {
			row[day] = text
		}
		rows = append(rows, row)
	}
	return Dataset{Headers: headers, Rows: rows}
}

// CSVExporter renders Dataset records into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the dataset.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range data.Rows {
		record := make([]string, len(data.Headers))
		for i, header := range data.Headers {
			record[i] = row[header]
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

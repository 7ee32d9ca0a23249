package service

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"migration-web/internal/models"

	"github.com/xuri/excelize/v2"
)

// ParseService turns an uploaded tabular file into source records. The first
// row (CSV/Excel) or the object keys (JSON) become the field names a mapping
// refers to.
type ParseService struct{}

func NewParseService() *ParseService {
	return &ParseService{}
}

// SourceTypeFor labels a job by its upload's file extension.
func (s *ParseService) SourceTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return "csv"
	case ".json":
		return "json"
	case ".xlsx", ".xls":
		return "excel"
	default:
		return "unknown"
	}
}

func (s *ParseService) Parse(filename string, r io.Reader) (models.RecordList, error) {
	switch s.SourceTypeFor(filename) {
	case "csv":
		return s.parseCSV(r)
	case "json":
		return s.parseJSON(r)
	case "excel":
		return s.parseExcel(r)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(filename))
	}
}

func (s *ParseService) parseCSV(r io.Reader) (models.RecordList, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(rows) == 0 {
		return models.RecordList{}, nil
	}

	header := rows[0]
	records := make(models.RecordList, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make(models.Record, len(header))
		for i, field := range header {
			if i < len(row) {
				record[field] = row[i]
			}
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *ParseService) parseJSON(r io.Reader) (models.RecordList, error) {
	var records models.RecordList
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: expected an array of objects: %w", err)
	}
	return records, nil
}

func (s *ParseService) parseExcel(r io.Reader) (models.RecordList, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return models.RecordList{}, nil
	}

	header := rows[0]
	records := make(models.RecordList, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make(models.Record, len(header))
		for i, field := range header {
			if i < len(row) {
				record[field] = row[i]
			}
		}
		records = append(records, record)
	}
	return records, nil
}

package service

import (
	"bytes"
	"fmt"

	"migration-web/internal/models"

	"github.com/xuri/excelize/v2"
)

// ExportService writes per-record migration logs to an Excel workbook.
type ExportService struct{}

func NewExportService() *ExportService {
	return &ExportService{}
}

func (s *ExportService) ExportLogs(job *models.MigrationJob, logs []models.MigrationLog) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Migration Log"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}

	headers := []string{"Record Index", "Status", "Error Message", "Logged At"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	for row, entry := range logs {
		values := []interface{}{
			entry.RecordIndex,
			entry.Status,
			"",
			entry.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if entry.ErrorMessage != nil {
			values[2] = *entry.ErrorMessage
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	// Summary row under the log
	summaryRow := len(logs) + 3
	cell, _ := excelize.CoordinatesToCellName(1, summaryRow)
	f.SetCellValue(sheetName, cell, fmt.Sprintf("Job %q: %d processed, %d failed of %d total",
		job.Name, job.ProcessedRecords, job.FailedRecords, job.TotalRecords))

	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return &buf, nil
}

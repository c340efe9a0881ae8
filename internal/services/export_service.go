package services

import (
	"context"
	"fmt"

	"github.com/sjperalta/payroll-ledger-api/internal/models"
	"github.com/sjperalta/payroll-ledger-api/internal/repository"
	"github.com/xuri/excelize/v2"
)

const exportPageSize = 500

type ExportService struct {
	ledgerSvc *LedgerService
}

func NewExportService(ledgerSvc *LedgerService) *ExportService {
	return &ExportService{ledgerSvc: ledgerSvc}
}

// ExportXLSX writes every row matching the query (all pages) to a single sheet.
// Employees without an entry are included with status no_data and empty amounts.
func (s *ExportService) ExportXLSX(ctx context.Context, query *repository.LedgerQuery) ([]byte, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := query.Category.Plural()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, "", err
	}

	fields := query.Category.Fields()
	header := []interface{}{"Employee No", "Name", "Department", "Status"}
	for _, field := range fields {
		header = append(header, field.Label)
	}
	header = append(header, "Total")
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, "", err
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	lastCol, _ := excelize.ColumnNumberToName(len(header))
	_ = f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle)

	if query.ListQuery == nil {
		query.ListQuery = repository.NewListQuery()
	}
	query.Page = 1
	query.PerPage = exportPageSize

	rowNum := 2
	for {
		rows, total, err := s.ledgerSvc.List(ctx, query)
		if err != nil {
			return nil, "", err
		}

		for _, row := range rows {
			values := exportRow(row, fields)
			cell, _ := excelize.CoordinatesToCellName(1, rowNum)
			if err := f.SetSheetRow(sheet, cell, &values); err != nil {
				return nil, "", err
			}
			rowNum++
		}

		if int64(query.Page*query.PerPage) >= total || len(rows) == 0 {
			break
		}
		query.Page++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	p := query.Period
	filename := fmt.Sprintf("%s_%04d_%02d_%s.xlsx", query.Category.Plural(), p.Year, p.Month, p.Cutoff)
	return buf.Bytes(), filename, nil
}

func exportRow(row models.LedgerRow, fields []models.FieldSpec) []interface{} {
	values := []interface{}{row.Employee.EmployeeNo, row.Employee.FullName, row.Employee.Department}
	if row.Entry == nil {
		values = append(values, models.EntryStatusNoData)
		for range fields {
			values = append(values, nil)
		}
		return append(values, nil)
	}

	values = append(values, row.Entry.Status())
	entryValues := row.Entry.Values()
	for _, field := range fields {
		values = append(values, entryValues[field.Key].InexactFloat64())
	}
	return append(values, row.Entry.Total().InexactFloat64())
}

package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
)

const exportSheet = "Transactions"

var exportColumns = []struct {
	title string
	width float64
}{
	{"Date", 12},
	{"Type", 10},
	{"Category", 18},
	{"Description", 30},
	{"Amount", 14},
	{"Asset", 18},
	{"Account", 16},
	{"Card", 16},
	{"Memo", 30},
}

// exportService renders transactions as xlsx workbooks.
type exportService struct {
	transactionService TransactionServicer
}

// NewExportService creates a new ExportServicer.
func NewExportService(transactionService TransactionServicer) ExportServicer {
	return &exportService{transactionService: transactionService}
}

// ExportTransactions returns an xlsx workbook with the user's transactions of
// the month, followed by income, expense and net totals, plus its file name.
func (s *exportService) ExportTransactions(ctx context.Context, userID uint, year, month int) ([]byte, string, error) {
	transactions, err := s.transactionService.ListMonthlyTransactions(ctx, userID, year, month)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	amountFormat := "#,##0.00"
	amountStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &amountFormat, Border: border})
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	totalStyle, err := f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true},
		Fill:         excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1},
		CustomNumFmt: &amountFormat,
		Border:       border,
	})
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for i, col := range exportColumns {
		name, _ := excelize.ColumnNumberToName(i + 1)
		cell := name + "1"
		_ = f.SetColWidth(exportSheet, name, name, col.width)
		_ = f.SetCellValue(exportSheet, cell, col.title)
		_ = f.SetCellStyle(exportSheet, cell, cell, headerStyle)
	}

	income, expense := decimal.Zero, decimal.Zero
	for i, t := range transactions {
		row := i + 2
		categoryName, assetName := "", ""
		if t.Category != nil {
			categoryName = t.Category.Name
		}
		if t.Asset != nil {
			assetName = t.Asset.Name
		}
		values := []interface{}{
			models.FormatDate(t.Date),
			string(t.Type),
			categoryName,
			t.Description,
			t.Amount.InexactFloat64(),
			assetName,
			t.Account,
			t.Card,
			t.Memo,
		}
		start := fmt.Sprintf("A%d", row)
		if err := f.SetSheetRow(exportSheet, start, &values); err != nil {
			return nil, "", apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		_ = f.SetCellStyle(exportSheet, fmt.Sprintf("E%d", row), fmt.Sprintf("E%d", row), amountStyle)

		switch t.Type {
		case models.TransactionTypeIncome:
			income = income.Add(t.Amount)
		case models.TransactionTypeExpense:
			expense = expense.Add(t.Amount)
		}
	}

	totalsRow := len(transactions) + 3
	for i, total := range []struct {
		label string
		value decimal.Decimal
	}{
		{"Total income", income},
		{"Total expense", expense},
		{"Net", income.Sub(expense)},
	} {
		row := totalsRow + i
		_ = f.SetCellValue(exportSheet, fmt.Sprintf("A%d", row), total.label)
		_ = f.MergeCell(exportSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("D%d", row))
		_ = f.SetCellValue(exportSheet, fmt.Sprintf("E%d", row), total.value.InexactFloat64())
		_ = f.SetCellStyle(exportSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("E%d", row), totalStyle)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return buf.Bytes(), fmt.Sprintf("transactions-%04d-%02d.xlsx", year, month), nil
}

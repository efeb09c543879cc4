// Package export renders claim lists as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/tuanbk654123/QLCP-QLKH/internal/application/port"
	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/entity"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const sheetName = "Claims"

type column struct {
	header string
	width  float64
	value  func(c *entity.Claim) interface{}
}

var columns = []column{
	{"ID", 8, func(c *entity.Claim) interface{} { return c.SequentialID }},
	{"Requester", 22, func(c *entity.Claim) interface{} { return c.Requester }},
	{"Department", 18, func(c *entity.Claim) interface{} { return c.Department }},
	{"Request date", 14, func(c *entity.Claim) interface{} { return c.RequestDate }},
	{"Project", 14, func(c *entity.Claim) interface{} { return c.ProjectCode }},
	{"Transaction type", 18, func(c *entity.Claim) interface{} { return c.TransactionType }},
	{"Content", 36, func(c *entity.Claim) interface{} { return c.Content }},
	{"Amount before tax", 18, func(c *entity.Claim) interface{} { return c.AmountBeforeTax }},
	{"Tax rate", 10, func(c *entity.Claim) interface{} { return c.TaxRate }},
	{"Total amount", 18, func(c *entity.Claim) interface{} { return c.TotalAmount }},
	{"Payment method", 16, func(c *entity.Claim) interface{} { return c.PaymentMethod }},
	{"Voucher number", 16, func(c *entity.Claim) interface{} { return c.VoucherNumber }},
	{"Status", 18, func(c *entity.Claim) interface{} { return c.EffectiveStatus().Label() }},
	{"Rejection reason", 28, func(c *entity.Claim) interface{} { return c.RejectionReason }},
	{"Created at", 20, func(c *entity.Claim) interface{} { return c.CreatedAt.Format("2006-01-02 15:04") }},
}

// ExcelExporter writes claims into a single-sheet workbook
type ExcelExporter struct {
	logger *zap.Logger
}

// NewExcelExporter creates a new exporter
func NewExcelExporter(logger *zap.Logger) *ExcelExporter {
	return &ExcelExporter{logger: logger}
}

// Export writes one header row followed by one row per claim
func (e *ExcelExporter) Export(w io.Writer, claims []*entity.Claim) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 3})
	if err != nil {
		return fmt.Errorf("failed to create amount style: %w", err)
	}

	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, col.header); err != nil {
			return fmt.Errorf("failed to set header %s: %w", col.header, err)
		}
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheetName, name, name, col.width); err != nil {
			return fmt.Errorf("failed to set width of %s: %w", name, err)
		}
	}
	lastCol, _ := excelize.ColumnNumberToName(len(columns))
	if err := f.SetCellStyle(sheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for r, claim := range claims {
		row := r + 2
		for i, col := range columns {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			if err := f.SetCellValue(sheetName, cell, col.value(claim)); err != nil {
				return fmt.Errorf("failed to set %s at row %d: %w", col.header, row, err)
			}
		}
	}

	if len(claims) > 0 {
		from, _ := excelize.CoordinatesToCellName(8, 2)
		to, _ := excelize.CoordinatesToCellName(10, len(claims)+1)
		if err := f.SetCellStyle(sheetName, from, to, amountStyle); err != nil {
			return fmt.Errorf("failed to style amounts: %w", err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		e.logger.Error("Failed to write workbook", zap.Error(err))
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Info("Claims exported", zap.Int("rows", len(claims)))
	return nil
}

var _ port.ClaimExporter = (*ExcelExporter)(nil)

package service

import (
	"fmt"
	"io"
	"time"

	"github.com/kapehan/cafe-pos/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	sheetSummary  = "Summary"
	sheetDaily    = "Daily"
	sheetProducts = "Products"
)

type ReportService interface {
	// WriteSalesReport renders the dashboard for [from, to) as an XLSX
	// workbook with Summary, Daily and Products sheets.
	WriteSalesReport(w io.Writer, from, to time.Time) error
}

type reportService struct {
	analytics AnalyticsService
}

func NewReportService(analytics AnalyticsService) ReportService {
	return &reportService{analytics: analytics}
}

func (s *reportService) WriteSalesReport(w io.Writer, from, to time.Time) error {
	dashboard, err := s.analytics.Dashboard(from, to)
	if err != nil {
		return err
	}

	f, err := BuildSalesWorkbook(dashboard, s.analytics.Location())
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		logger.Error("Failed to write sales report", err)
		return err
	}

	logger.Info("Sales report exported", map[string]interface{}{
		"from":   from,
		"to":     to,
		"orders": dashboard.Summary.OrderCount,
	})
	return nil
}

// BuildSalesWorkbook lays a dashboard out as a workbook. The caller closes it.
func BuildSalesWorkbook(d *Dashboard, loc *time.Location) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		f.Close()
		return nil, err
	}
	for _, name := range []string{sheetDaily, sheetProducts} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, err
		}
	}

	if loc == nil {
		loc = time.UTC
	}
	summary := [][]interface{}{
		{"Period start", d.From.In(loc).Format(dateLayout)},
		{"Period end", d.To.In(loc).Add(-time.Nanosecond).Format(dateLayout)},
		{"Orders", d.Summary.OrderCount},
		{"Voided orders", d.Summary.VoidedCount},
		{"Items sold", d.Summary.ItemsSold},
		{"Gross sales", money(d.Summary.GrossSales)},
		{"Discounts", money(d.Summary.Discounts)},
		{"Net sales", money(d.Summary.NetSales)},
		{"Average order value", money(d.Summary.AverageOrderValue)},
		{},
		{"Payment method", "Orders", "Items", "Sales"},
	}
	for _, b := range d.ByPaymentMethod {
		summary = append(summary, []interface{}{b.Key, b.Orders, b.Items, money(b.Sales)})
	}
	summary = append(summary, []interface{}{}, []interface{}{"Category", "Orders", "Items", "Sales"})
	for _, b := range d.ByCategory {
		summary = append(summary, []interface{}{b.Key, b.Orders, b.Items, money(b.Sales)})
	}
	if err := writeRows(f, sheetSummary, summary); err != nil {
		f.Close()
		return nil, err
	}

	daily := [][]interface{}{{"Date", "Orders", "Gross sales", "Discounts", "Net sales"}}
	for _, p := range d.Daily {
		daily = append(daily, []interface{}{p.Date, p.OrderCount, money(p.GrossSales), money(p.Discounts), money(p.NetSales)})
	}
	if err := writeRows(f, sheetDaily, daily); err != nil {
		f.Close()
		return nil, err
	}

	products := [][]interface{}{{"Rank", "Product", "Category", "Quantity", "Sales"}}
	for i, p := range d.TopProducts {
		products = append(products, []interface{}{i + 1, p.Name, p.Category, p.Quantity, money(p.Sales)})
	}
	if err := writeRows(f, sheetProducts, products); err != nil {
		f.Close()
		return nil, err
	}

	return f, nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

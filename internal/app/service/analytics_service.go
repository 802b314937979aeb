package service

import (
	"errors"
	"sort"
	"time"

	"github.com/kapehan/cafe-pos/internal/app/model"
	"github.com/kapehan/cafe-pos/internal/app/repository"
	"github.com/kapehan/cafe-pos/internal/pricing"
	"github.com/kapehan/cafe-pos/pkg/logger"
	"github.com/shopspring/decimal"
)

var ErrInvalidRange = errors.New("invalid date range")

const (
	dateLayout       = "2006-01-02"
	topProductsLimit = 10
	maxRangeDays     = 366
)

type SalesSummary struct {
	OrderCount        int             `json:"order_count"`
	VoidedCount       int             `json:"voided_count"`
	ItemsSold         int             `json:"items_sold"`
	GrossSales        decimal.Decimal `json:"gross_sales"`
	Discounts         decimal.Decimal `json:"discounts"`
	NetSales          decimal.Decimal `json:"net_sales"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
}

// Breakdown is net sales grouped by one key (payment method or category).
type Breakdown struct {
	Key    string          `json:"key"`
	Orders int             `json:"orders"`
	Items  int             `json:"items"`
	Sales  decimal.Decimal `json:"sales"`
}

type ProductSales struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Quantity  int             `json:"quantity"`
	Sales     decimal.Decimal `json:"sales"`
}

type DailyPoint struct {
	Date       string          `json:"date"`
	OrderCount int             `json:"order_count"`
	GrossSales decimal.Decimal `json:"gross_sales"`
	Discounts  decimal.Decimal `json:"discounts"`
	NetSales   decimal.Decimal `json:"net_sales"`
}

type Dashboard struct {
	From            time.Time      `json:"from"`
	To              time.Time      `json:"to"`
	Summary         SalesSummary   `json:"summary"`
	ByPaymentMethod []Breakdown    `json:"by_payment_method"`
	ByCategory      []Breakdown    `json:"by_category"`
	TopProducts     []ProductSales `json:"top_products"`
	Daily           []DailyPoint   `json:"daily"`
}

type AnalyticsService interface {
	Dashboard(from, to time.Time) (*Dashboard, error)
	RollupDay(day time.Time) (*model.DailySales, error)
	History(fromDate, toDate string) ([]model.DailySales, error)
	Location() *time.Location
}

type analyticsService struct {
	orderRepo repository.OrderRepository
	salesRepo repository.SalesRepository
	loc       *time.Location
}

func NewAnalyticsService(orderRepo repository.OrderRepository, salesRepo repository.SalesRepository, loc *time.Location) AnalyticsService {
	if loc == nil {
		loc = time.UTC
	}
	return &analyticsService{orderRepo: orderRepo, salesRepo: salesRepo, loc: loc}
}

func (s *analyticsService) Location() *time.Location {
	return s.loc
}

// Dashboard aggregates completed orders created in [from, to).
func (s *analyticsService) Dashboard(from, to time.Time) (*Dashboard, error) {
	if !to.After(from) || to.Sub(from) > maxRangeDays*24*time.Hour {
		return nil, ErrInvalidRange
	}

	orders, err := s.orderRepo.FindForPeriod(from, to)
	if err != nil {
		return nil, err
	}

	d := Summarize(orders, s.loc)
	d.From = from
	d.To = to

	logger.Debug("Dashboard computed", map[string]interface{}{
		"from":   from,
		"to":     to,
		"orders": d.Summary.OrderCount,
	})
	return d, nil
}

// Summarize folds orders into dashboard figures. Voided orders only count
// toward VoidedCount. Days are calendar days in loc.
func Summarize(orders []model.Order, loc *time.Location) *Dashboard {
	d := &Dashboard{
		Summary: SalesSummary{
			GrossSales:        decimal.Zero,
			Discounts:         decimal.Zero,
			NetSales:          decimal.Zero,
			AverageOrderValue: decimal.Zero,
		},
		ByPaymentMethod: []Breakdown{},
		ByCategory:      []Breakdown{},
		TopProducts:     []ProductSales{},
		Daily:           []DailyPoint{},
	}

	payments := map[string]*Breakdown{}
	categories := map[string]*Breakdown{}
	products := map[uint]*ProductSales{}
	days := map[string]*DailyPoint{}

	for _, o := range orders {
		if o.Status == model.OrderStatusVoided {
			d.Summary.VoidedCount++
			continue
		}

		d.Summary.OrderCount++
		d.Summary.GrossSales = d.Summary.GrossSales.Add(o.Subtotal)
		d.Summary.Discounts = d.Summary.Discounts.Add(o.Discount)
		d.Summary.NetSales = d.Summary.NetSales.Add(o.Total)

		pm := bucket(payments, string(o.PaymentMethod))
		pm.Orders++
		pm.Sales = pm.Sales.Add(o.Total)

		date := o.CreatedAt.In(loc).Format(dateLayout)
		day, ok := days[date]
		if !ok {
			day = &DailyPoint{Date: date, GrossSales: decimal.Zero, Discounts: decimal.Zero, NetSales: decimal.Zero}
			days[date] = day
		}
		day.OrderCount++
		day.GrossSales = day.GrossSales.Add(o.Subtotal)
		day.Discounts = day.Discounts.Add(o.Discount)
		day.NetSales = day.NetSales.Add(o.Total)

		seenCategory := map[string]bool{}
		net := lineNetSales(o)
		for i, item := range o.Items {
			d.Summary.ItemsSold += item.Quantity
			pm.Items += item.Quantity

			cat := bucket(categories, string(item.Category))
			cat.Items += item.Quantity
			cat.Sales = cat.Sales.Add(net[i])
			if !seenCategory[cat.Key] {
				seenCategory[cat.Key] = true
				cat.Orders++
			}

			p, ok := products[item.ProductID]
			if !ok {
				p = &ProductSales{ProductID: item.ProductID, Name: item.ProductName, Category: string(item.Category), Sales: decimal.Zero}
				products[item.ProductID] = p
			}
			p.Quantity += item.Quantity
			p.Sales = p.Sales.Add(net[i])
		}
	}

	if d.Summary.OrderCount > 0 {
		d.Summary.AverageOrderValue = pricing.Round2(d.Summary.NetSales.Div(decimal.NewFromInt(int64(d.Summary.OrderCount))))
	}

	d.ByPaymentMethod = sortedBreakdowns(payments)
	d.ByCategory = sortedBreakdowns(categories)

	for _, p := range products {
		d.TopProducts = append(d.TopProducts, *p)
	}
	sort.Slice(d.TopProducts, func(i, j int) bool {
		a, b := d.TopProducts[i], d.TopProducts[j]
		if a.Quantity != b.Quantity {
			return a.Quantity > b.Quantity
		}
		if !a.Sales.Equal(b.Sales) {
			return a.Sales.GreaterThan(b.Sales)
		}
		return a.ProductID < b.ProductID
	})
	if len(d.TopProducts) > topProductsLimit {
		d.TopProducts = d.TopProducts[:topProductsLimit]
	}

	for _, day := range days {
		d.Daily = append(d.Daily, *day)
	}
	sort.Slice(d.Daily, func(i, j int) bool { return d.Daily[i].Date < d.Daily[j].Date })

	return d
}

// lineNetSales spreads the order-level discount over the lines in proportion
// to their totals, so per-line figures add up to the order total exactly.
// The last line absorbs the rounding remainder.
func lineNetSales(o model.Order) []decimal.Decimal {
	net := make([]decimal.Decimal, len(o.Items))
	lines := decimal.Zero
	for _, item := range o.Items {
		lines = lines.Add(item.TotalPrice)
	}
	if lines.IsZero() || lines.Equal(o.Total) {
		for i, item := range o.Items {
			net[i] = item.TotalPrice
		}
		return net
	}

	allocated := decimal.Zero
	for i, item := range o.Items {
		if i == len(o.Items)-1 {
			net[i] = o.Total.Sub(allocated)
			break
		}
		net[i] = pricing.Round2(item.TotalPrice.Mul(o.Total).Div(lines))
		allocated = allocated.Add(net[i])
	}
	return net
}

func bucket(m map[string]*Breakdown, key string) *Breakdown {
	b, ok := m[key]
	if !ok {
		b = &Breakdown{Key: key, Sales: decimal.Zero}
		m[key] = b
	}
	return b
}

func sortedBreakdowns(m map[string]*Breakdown) []Breakdown {
	out := make([]Breakdown, 0, len(m))
	for _, b := range m {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Sales.Equal(out[j].Sales) {
			return out[i].Sales.GreaterThan(out[j].Sales)
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// DayBounds returns [start, end) of the calendar day containing t in loc.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// RollupDay recomputes and stores the daily_sales row for day. Running it
// again for the same day overwrites the row.
func (s *analyticsService) RollupDay(day time.Time) (*model.DailySales, error) {
	from, to := DayBounds(day, s.loc)
	orders, err := s.orderRepo.FindForPeriod(from, to)
	if err != nil {
		return nil, err
	}

	summary := Summarize(orders, s.loc).Summary
	row := &model.DailySales{
		Date:        from.Format(dateLayout),
		OrderCount:  int64(summary.OrderCount),
		VoidedCount: int64(summary.VoidedCount),
		ItemsSold:   int64(summary.ItemsSold),
		GrossSales:  summary.GrossSales,
		Discounts:   summary.Discounts,
		NetSales:    summary.NetSales,
	}
	if err := s.salesRepo.Upsert(row); err != nil {
		logger.Error("Failed to store daily rollup", err, map[string]interface{}{
			"date": row.Date,
		})
		return nil, err
	}

	logger.Info("Daily sales rolled up", map[string]interface{}{
		"date":      row.Date,
		"orders":    row.OrderCount,
		"net_sales": row.NetSales.String(),
	})
	return row, nil
}

func (s *analyticsService) History(fromDate, toDate string) ([]model.DailySales, error) {
	from, err := time.Parse(dateLayout, fromDate)
	if err != nil {
		return nil, ErrInvalidRange
	}
	to, err := time.Parse(dateLayout, toDate)
	if err != nil || to.Before(from) {
		return nil, ErrInvalidRange
	}
	return s.salesRepo.FindRange(fromDate, toDate)
}

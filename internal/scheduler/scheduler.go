package scheduler

import (
	"time"

	"github.com/kapehan/cafe-pos/internal/app/service"
	"github.com/kapehan/cafe-pos/internal/metrics"
	ws "github.com/kapehan/cafe-pos/internal/websocket"
	"github.com/kapehan/cafe-pos/pkg/logger"
	"github.com/robfig/cron/v3"
)

// Scheduler runs the nightly sales rollup and the periodic low-stock sweep.
type Scheduler struct {
	cron      *cron.Cron
	analytics service.AnalyticsService
	inventory service.InventoryService
	events    service.Publisher
	now       func() time.Time
}

func New(analytics service.AnalyticsService, inventory service.InventoryService, events service.Publisher) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(analytics.Location())),
		analytics: analytics,
		inventory: inventory,
		events:    events,
		now:       time.Now,
	}
}

// Start registers both jobs and starts the cron loop. Specs use the
// standard five-field format in the store's time zone.
func (s *Scheduler) Start(rollupSpec, lowStockSpec string) error {
	if _, err := s.cron.AddFunc(rollupSpec, func() { _ = s.RollupPreviousDay() }); err != nil {
		logger.Error("Failed to add cron job for sales rollup", err, map[string]interface{}{
			"spec": rollupSpec,
		})
		return err
	}
	if _, err := s.cron.AddFunc(lowStockSpec, func() { _, _ = s.SweepLowStock() }); err != nil {
		logger.Error("Failed to add cron job for low stock sweep", err, map[string]interface{}{
			"spec": lowStockSpec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Scheduler started", map[string]interface{}{
		"rollup_spec":    rollupSpec,
		"low_stock_spec": lowStockSpec,
		"timezone":       s.analytics.Location().String(),
	})
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	logger.Info("Stopping scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("Scheduler stopped")
}

// RollupPreviousDay rolls yesterday (store time) into daily_sales.
func (s *Scheduler) RollupPreviousDay() error {
	day := s.now().In(s.analytics.Location()).AddDate(0, 0, -1)
	logger.Info("Starting scheduled sales rollup", map[string]interface{}{
		"date": day.Format("2006-01-02"),
	})

	row, err := s.analytics.RollupDay(day)
	if err != nil {
		logger.Error("Scheduled sales rollup failed", err, map[string]interface{}{
			"date": day.Format("2006-01-02"),
		})
		return err
	}

	logger.Info("Scheduled sales rollup completed", map[string]interface{}{
		"date":        row.Date,
		"order_count": row.OrderCount,
		"net_sales":   row.NetSales.String(),
	})
	return nil
}

// SweepLowStock publishes a stock_alert for every ingredient at or below its
// low threshold and records the count.
func (s *Scheduler) SweepLowStock() (int, error) {
	low, err := s.inventory.LowStock()
	if err != nil {
		logger.Error("Low stock sweep failed", err)
		return 0, err
	}

	metrics.LowStockIngredients.Set(float64(len(low)))
	for _, ing := range low {
		s.events.Publish(ws.EventStockAlert, ing.Alert())
	}

	if len(low) > 0 {
		logger.Warn("Low stock sweep found ingredients to reorder", map[string]interface{}{
			"count": len(low),
		})
	}
	return len(low), nil
}

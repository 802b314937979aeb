package repository

import (
	"github.com/kapehan/cafe-pos/internal/app/model"
	"github.com/kapehan/cafe-pos/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SalesRepository interface {
	Upsert(row *model.DailySales) error
	FindRange(fromDate, toDate string) ([]model.DailySales, error)
}

type salesRepository struct {
	db *gorm.DB
}

func NewSalesRepository(db *gorm.DB) SalesRepository {
	return &salesRepository{db: db}
}

// Upsert writes the rollup for row.Date, replacing any earlier run.
func (r *salesRepository) Upsert(row *model.DailySales) error {
	logger.Debug("Upserting daily sales", map[string]interface{}{
		"date":        row.Date,
		"order_count": row.OrderCount,
	})

	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"order_count", "voided_count", "items_sold",
			"gross_sales", "discounts", "net_sales", "updated_at",
		}),
	}).Create(row).Error
}

// FindRange returns rollups for dates in [fromDate, toDate], both YYYY-MM-DD.
func (r *salesRepository) FindRange(fromDate, toDate string) ([]model.DailySales, error) {
	var rows []model.DailySales
	if err := r.db.Where("date >= ? AND date <= ?", fromDate, toDate).
		Order("date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

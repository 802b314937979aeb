package repository

import (
	"github.com/kapehan/cafe-pos/internal/app/model"
	"github.com/kapehan/cafe-pos/pkg/logger"
	"gorm.io/gorm"
)

type AddOnRepository interface {
	Create(addOn *model.AddOn) error
	FindAll(activeOnly bool) ([]model.AddOn, error)
	FindByID(id uint) (*model.AddOn, error)
	Update(addOn *model.AddOn) error
	Delete(id uint) error
}

type addOnRepository struct {
	db *gorm.DB
}

func NewAddOnRepository(db *gorm.DB) AddOnRepository {
	return &addOnRepository{db: db}
}

func (r *addOnRepository) Create(addOn *model.AddOn) error {
	logger.Debug("Creating add-on in database", map[string]interface{}{
		"name":  addOn.Name,
		"price": addOn.Price.String(),
	})
	return r.db.Create(addOn).Error
}

func (r *addOnRepository) FindAll(activeOnly bool) ([]model.AddOn, error) {
	query := r.db.Model(&model.AddOn{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var addOns []model.AddOn
	if err := query.Order("name ASC").Find(&addOns).Error; err != nil {
		logger.Error("Failed to list add-ons", err)
		return nil, err
	}
	return addOns, nil
}

func (r *addOnRepository) FindByID(id uint) (*model.AddOn, error) {
	var addOn model.AddOn
	if err := r.db.First(&addOn, id).Error; err != nil {
		return nil, err
	}
	return &addOn, nil
}

func (r *addOnRepository) Update(addOn *model.AddOn) error {
	logger.Debug("Updating add-on in database", map[string]interface{}{
		"add_on_id": addOn.ID,
	})
	return r.db.Save(addOn).Error
}

func (r *addOnRepository) Delete(id uint) error {
	result := r.db.Delete(&model.AddOn{}, id)
	if result.Error != nil {
		logger.Error("Failed to delete add-on", result.Error, map[string]interface{}{
			"add_on_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

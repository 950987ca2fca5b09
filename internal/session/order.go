package session

import (
	"fmt"

	"github.com/zulandar/wordcloud/internal/models"
	"gorm.io/gorm"
)

// Order returns the presenter-defined display order.
func Order(db *gorm.DB) ([]models.SessionOrder, error) {
	var order []models.SessionOrder
	if err := db.Order("order_index ASC").Find(&order).Error; err != nil {
		return nil, fmt.Errorf("session: get order: %w", err)
	}
	return order, nil
}

// ReplaceOrder discards the stored order and writes sessionIDs in sequence.
func ReplaceOrder(db *gorm.DB, sessionIDs []string) ([]models.SessionOrder, error) {
	order := make([]models.SessionOrder, len(sessionIDs))
	for i, id := range sessionIDs {
		order[i] = models.SessionOrder{SessionID: id, OrderIndex: i}
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.SessionOrder{}).Error; err != nil {
			return fmt.Errorf("clear order: %w", err)
		}
		if len(order) == 0 {
			return nil
		}
		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("session: replace order: %w", err)
	}
	return order, nil
}

package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/SAP-F-2025/homework-service/internal/models"
	"github.com/SAP-F-2025/homework-service/internal/repositories"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type HomeworkPostgreSQL struct {
	db *gorm.DB
}

func NewHomeworkPostgreSQL(db *gorm.DB) repositories.HomeworkRepository {
	return &HomeworkPostgreSQL{db: db}
}

func (h *HomeworkPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Homework, error) {
	var homework models.Homework
	if err := h.db.WithContext(ctx).First(&homework, id).Error; err != nil {
		return nil, err
	}
	return &homework, nil
}

func (h *HomeworkPostgreSQL) UpdateAnswerKey(ctx context.Context, id uint, answerKeyCSV string, pageMap models.PageMap) error {
	encoded, err := json.Marshal(pageMap)
	if err != nil {
		return fmt.Errorf("failed to encode page map: %w", err)
	}

	result := h.db.WithContext(ctx).Model(&models.Homework{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"answer_key_csv": answerKeyCSV,
			"page_map":       datatypes.JSON(encoded),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

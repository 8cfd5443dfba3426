package repository

import (
	"context"
	"course_authoring_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CategoryRepository struct {
	DB *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{DB: db}
}

// WithTx 返回绑定到事务的仓储
func (r *CategoryRepository) WithTx(tx *gorm.DB) *CategoryRepository {
	return &CategoryRepository{DB: tx}
}

func (r *CategoryRepository) FindBySlug(ctx context.Context, slug string) (*model.Category, error) {
	var category model.Category
	err := r.DB.WithContext(ctx).Where("slug = ?", slug).First(&category).Error
	return &category, err
}

// FindBySlugForShare 读取已提交的最新行（含软删除），并加共享锁。
// MySQL 默认 REPEATABLE READ 下普通 SELECT 只能看到事务快照，锁定读不受快照限制。
func (r *CategoryRepository) FindBySlugForShare(ctx context.Context, slug string) (*model.Category, error) {
	var category model.Category
	err := r.DB.WithContext(ctx).
		Unscoped().
		Clauses(clause.Locking{Strength: "SHARE"}).
		Where("slug = ?", slug).
		First(&category).Error
	return &category, err
}

// Restore 清除软删除标记
func (r *CategoryRepository) Restore(ctx context.Context, category *model.Category) error {
	err := r.DB.WithContext(ctx).
		Unscoped().
		Model(category).
		Update("deleted_at", nil).Error
	if err != nil {
		return err
	}
	category.DeletedAt = gorm.DeletedAt{}
	return nil
}

// CreateIfAbsent inserts the category unless a row with the same slug
// already exists. created is false when the unique index swallowed the insert.
func (r *CategoryRepository) CreateIfAbsent(ctx context.Context, category *model.Category) (bool, error) {
	result := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoNothing: true,
		}).
		Create(category)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *CategoryRepository) FindAll(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	err := r.DB.WithContext(ctx).Order("name asc").Find(&categories).Error
	return categories, err
}

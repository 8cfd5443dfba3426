package repository

import (
	"context"
	"course_authoring_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) WithTx(tx *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: tx}
}

// CreateAggregate 一次写入课程及其章节、课时（gorm 会级联创建关联）
func (r *CourseRepository) CreateAggregate(ctx context.Context, course *model.Course) error {
	return r.DB.WithContext(ctx).
		Omit("Category").
		Create(course).Error
}

func byOrder(db *gorm.DB) *gorm.DB {
	return db.Order(clause.OrderByColumn{Column: clause.Column{Name: "order"}})
}

// FindAggregate 按 order 升序加载章节与课时
func (r *CourseRepository) FindAggregate(ctx context.Context, id uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.WithContext(ctx).
		Preload("Category").
		Preload("Sections", byOrder).
		Preload("Sections.Lessons", byOrder).
		First(&course, id).Error
	return &course, err
}

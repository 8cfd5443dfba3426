package service

import (
	"context"
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"

	"course_authoring_backend/internal/model"
	"course_authoring_backend/internal/repository"
	"course_authoring_backend/internal/util"
	"course_authoring_backend/pkg/logger"
	"course_authoring_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CategoryService struct {
	Repo *repository.CategoryRepository
}

func NewCategoryService(repo *repository.CategoryRepository) *CategoryService {
	return &CategoryService{Repo: repo}
}

// WithTx 在事务内解析分类
func (s *CategoryService) WithTx(tx *gorm.DB) *CategoryService {
	return &CategoryService{Repo: s.Repo.WithTx(tx)}
}

// Resolve returns the category whose slug equals label, creating it on
// first use. Concurrent callers racing on the same new slug end up with the
// same row, and a soft-deleted category with that slug is brought back.
func (s *CategoryService) Resolve(ctx context.Context, label string) (*model.Category, error) {
	category, err := s.Repo.FindBySlug(ctx, label)
	if err == nil {
		return category, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: find category %q: %v", util.ErrPersistence, label, err)
	}

	category = &model.Category{
		Slug:        label,
		Name:        capitalize(label),
		Description: label + " courses",
	}
	created, err := s.Repo.CreateIfAbsent(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("%w: create category %q: %v", util.ErrPersistence, label, err)
	}
	if created {
		monitoring.CategoriesCreated.Inc()
		logger.Log.Info("category created", zap.String("slug", label), zap.Uint("id", category.ID))
		return category, nil
	}

	// 插入被唯一索引吞掉：行由并发事务提交，或者已被软删除
	category, err = s.Repo.FindBySlugForShare(ctx, label)
	if err != nil {
		return nil, fmt.Errorf("%w: reread category %q: %v", util.ErrPersistence, label, err)
	}
	if category.DeletedAt.Valid {
		if err := s.Repo.Restore(ctx, category); err != nil {
			return nil, fmt.Errorf("%w: restore category %q: %v", util.ErrPersistence, label, err)
		}
		logger.Log.Info("category restored", zap.String("slug", label), zap.Uint("id", category.ID))
	}
	return category, nil
}

func (s *CategoryService) List(ctx context.Context) ([]model.Category, error) {
	categories, err := s.Repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list categories: %v", util.ErrPersistence, err)
	}
	return categories, nil
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

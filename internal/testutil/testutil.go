package testutil

import (
	"context"
	"fmt"
	"testing"

	"course_authoring_backend/internal/model"
	"course_authoring_backend/internal/repository"
	"course_authoring_backend/pkg/database"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// DB opens a private in-memory sqlite database with the schema migrated.
// A single connection is used, so code running inside a transaction must
// only talk to the tx handle.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("failed to open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		tb.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func CreateUser(tb testing.TB, db *gorm.DB, externalID string) *model.User {
	tb.Helper()
	user := &model.User{
		ExternalID: externalID,
		Name:       "Creator " + externalID,
		Email:      externalID + "@example.com",
		Role:       model.Creator,
	}
	if err := repository.NewUserRepository(db).Create(context.Background(), user); err != nil {
		tb.Fatalf("failed to create user: %v", err)
	}
	return user
}

func CreateProfile(tb testing.TB, db *gorm.DB, user *model.User) *model.CreatorProfile {
	tb.Helper()
	profile := &model.CreatorProfile{
		UserID:      user.ID,
		DisplayName: user.Name,
		Headline:    "Instructor",
	}
	if err := repository.NewUserRepository(db).CreateProfile(context.Background(), profile); err != nil {
		tb.Fatalf("failed to create profile: %v", err)
	}
	return profile
}

// CountRows 返回表中的行数（不含软删除）
func CountRows(tb testing.TB, db *gorm.DB, value interface{}) int64 {
	tb.Helper()
	var n int64
	if err := db.Model(value).Count(&n).Error; err != nil {
		tb.Fatalf("failed to count rows: %v", err)
	}
	return n
}

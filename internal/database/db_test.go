package database

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/charlesng35/volunteerhub/internal/models"
)

func TestOpenSQLiteMemory(t *testing.T) {
	db := openTestDB(t)

	if err := db.Exec("SELECT 1").Error; err != nil {
		t.Fatalf("expected health query to succeed: %v", err)
	}
}

func TestAutoMigrateAndSeedData(t *testing.T) {
	db := openTestDB(t)

	if err := AutoMigrateAndSeed(db); err != nil {
		t.Fatalf("auto migrate and seed failed: %v", err)
	}

	var skillCount int64
	if err := db.Model(&models.Skill{}).Count(&skillCount).Error; err != nil {
		t.Fatalf("count skills: %v", err)
	}
	if skillCount != int64(len(DefaultSkills)) {
		t.Fatalf("expected %d skills, got %d", len(DefaultSkills), skillCount)
	}
}

func TestSeedDataIsIdempotent(t *testing.T) {
	db := openTestDB(t)

	if err := AutoMigrateAndSeed(db); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if err := db.Model(&models.Skill{}).Where("name = ?", "cooking").Update("description", "custom").Error; err != nil {
		t.Fatalf("update skill: %v", err)
	}
	if err := SeedData(db); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	var skill models.Skill
	if err := db.First(&skill, "name = ?", "cooking").Error; err != nil {
		t.Fatalf("load skill: %v", err)
	}
	if skill.Description != "custom" {
		t.Fatalf("expected existing skill to be preserved, got %q", skill.Description)
	}
}

func TestAutoMigrateNilHandle(t *testing.T) {
	if err := AutoMigrateAndSeed(nil); err == nil {
		t.Fatalf("expected error for nil handle")
	}
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Open(Config{
		Driver:       "sqlite",
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString()),
		MaxOpenConns: 1,
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}
